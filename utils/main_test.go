package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveUsernameSuffix(t *testing.T) {
	assert.Equal(t, "sarah", RemoveUsernameSuffix("sarah@example.org"))
	assert.Equal(t, "sarah", RemoveUsernameSuffix("sarah"))
	assert.Equal(t, "", RemoveUsernameSuffix("@example.org"))
}
