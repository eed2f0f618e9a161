package utils

import "regexp"

// usernameSuffixRegexp is a regular expression that can be used to remove suffixes from usernames.
var usernameSuffixRegexp = regexp.MustCompile("@.*$")

// RemoveUsernameSuffix removes the domain suffix from a username. Some of the clients that call this service
// authenticate users with a fully qualified name, so the suffix is removed to ensure that the same subscription
// and usage information is shared across all of the tools in the suite.
func RemoveUsernameSuffix(username string) string {
	return usernameSuffixRegexp.ReplaceAllString(username, "")
}
