package backend

// BackendKind names the automation capability available on this host.
type BackendKind int

// Backend kinds.
const (
	BackendNone       BackendKind = iota // no accessibility backend, coordinate-only
	BackendDirectTree                    // raw accessibility-tree queries
	BackendSemantic                      // tree queries plus semantic screen objects
)

// String returns the string representation of BackendKind.
func (k BackendKind) String() string {
	switch k {
	case BackendNone:
		return "none"
	case BackendDirectTree:
		return "uia"
	case BackendSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// Capability describes the automation backend resolved once at startup.
// Threading this through construction replaces probing optional
// dependencies at each call site.
type Capability struct {
	Available bool
	Kind      BackendKind
	// Hint is surfaced when the backend is unavailable, e.g. a privilege
	// mismatch between the runner and the target application.
	Hint string
}

// Unavailable returns the capability for a host without any accessibility
// backend.
func Unavailable(hint string) Capability {
	if hint == "" {
		hint = "accessibility backend not available; check that the runner and the target application run at the same privilege level"
	}
	return Capability{Available: false, Kind: BackendNone, Hint: hint}
}
