package model

// Resource kind name constants. These are the billable units of work that the
// surrounding tools report against.
const (
	ResourceTypeChats                  = "chats"
	ResourceTypeDocuments              = "documents"
	ResourceTypeHRDocuments            = "hr_documents"
	ResourceTypeVideoUploads           = "video_uploads"
	ResourceTypeDynamicPromptDocuments = "dynamic_prompt_documents"
)

// ResourceKind describes a single billable unit of work along with the database columns used to track its
// monthly cap and consumption. The set of resource kinds is extensible: adding a kind means adding a counter
// column to the usage_records table, a cap column to the plans table, and an entry in the registry below.
type ResourceKind struct {
	// The resource kind name
	Name string

	// A human readable description of one unit of the resource
	Unit string

	// The name of the usage_records column holding the monthly counter
	UsageColumn string

	// The name of the plans column holding the monthly cap
	CapColumn string
}

// resourceKinds is the registry of known resource kinds. Counter and cap columns are only ever taken from this
// registry, never from request input.
var resourceKinds = []ResourceKind{
	{
		Name:        ResourceTypeChats,
		Unit:        "chat turn",
		UsageColumn: "chats_used",
		CapColumn:   "max_chats_per_month",
	},
	{
		Name:        ResourceTypeDocuments,
		Unit:        "document upload",
		UsageColumn: "documents_uploaded",
		CapColumn:   "max_documents",
	},
	{
		Name:        ResourceTypeHRDocuments,
		Unit:        "HR document upload",
		UsageColumn: "hr_documents_uploaded",
		CapColumn:   "max_hr_documents",
	},
	{
		Name:        ResourceTypeVideoUploads,
		Unit:        "video upload",
		UsageColumn: "video_uploads",
		CapColumn:   "max_video_uploads",
	},
	{
		Name:        ResourceTypeDynamicPromptDocuments,
		Unit:        "dynamic prompt document upload",
		UsageColumn: "dynamic_prompt_documents_uploaded",
		CapColumn:   "max_dynamic_prompt_documents",
	},
}

// LookupResourceKind returns the registry entry for the resource kind with the given name.
func LookupResourceKind(name string) (*ResourceKind, bool) {
	for i := range resourceKinds {
		if resourceKinds[i].Name == name {
			return &resourceKinds[i], true
		}
	}
	return nil, false
}

// ResourceKinds returns all of the known resource kinds in registration order.
func ResourceKinds() []ResourceKind {
	result := make([]ResourceKind, len(resourceKinds))
	copy(result, resourceKinds)
	return result
}
