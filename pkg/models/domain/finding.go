package domain

const (
	// UnknownValue is the placeholder used for any finding field that was absent in the event.
	UnknownValue = "Unknown"

	ResourceTypeInstance  = "Instance"
	ResourceTypeAccessKey = "AccessKey"
)

// Finding is a normalized security finding, parsed from a single inbound event.
type Finding struct {
	ID        string
	Type      string
	Title     string
	Severity  float64
	AccountID string
	Region    string
	Resource  ResourceDescriptor
}

// ResourceDescriptor describes the affected resource. Only the variant named by
// ResourceType carries meaningful values.
type ResourceDescriptor struct {
	ResourceType string
	Instance     InstanceDetails
	AccessKey    AccessKeyDetails
}

type InstanceDetails struct {
	InstanceID string
}

type AccessKeyDetails struct {
	AccessKeyID string
	UserName    string
}

// IsKnown reports whether v carries a real value rather than a parser default.
func IsKnown(v string) bool {
	return v != "" && v != UnknownValue
}
