package backend

import "strings"

// PropertyKind selects which property variant a control read targets.
// Explicit variants replace the old "try several accessor names" approach;
// PropertyGeneric is the last-resort reflection-style read.
type PropertyKind int

// Property kinds.
const (
	PropertyText    PropertyKind = iota // visible text / name / title
	PropertyValue                       // editable value
	PropertyEnabled                     // enabled state, rendered "true"/"false"
	PropertyGeneric                     // backend-specific named property
)

// String returns the string representation of PropertyKind.
func (k PropertyKind) String() string {
	switch k {
	case PropertyText:
		return "text"
	case PropertyValue:
		return "value"
	case PropertyEnabled:
		return "enabled"
	case PropertyGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// ParsePropertyKind maps recorded property names onto kinds. Unrecognized
// names fall through to PropertyGeneric so the backend can still try.
func ParsePropertyKind(name string) PropertyKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "name", "text", "title", "window_text":
		return PropertyText
	case "value", "currentvalue":
		return PropertyValue
	case "enabled", "is_enabled":
		return PropertyEnabled
	default:
		return PropertyGeneric
	}
}
