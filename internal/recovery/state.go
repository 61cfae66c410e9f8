package recovery

import "fmt"

// Kind identifies a machine state
type Kind int

const (
	Install Kind = iota
	Remove
	SyncMetadata
	SystemUpdate
	BadPackage
	Completed
	Failed
)

func (k Kind) String() string {
	switch k {
	case Install:
		return "install"
	case Remove:
		return "remove"
	case SyncMetadata:
		return "sync-metadata"
	case SystemUpdate:
		return "system-update"
	case BadPackage:
		return "bad-package"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Corrective reports whether k is entered to repair the system
func (k Kind) Corrective() bool {
	return k == SyncMetadata || k == SystemUpdate || k == BadPackage
}

// Terminal reports whether the machine stops in k
func (k Kind) Terminal() bool {
	return k == Completed || k == Failed
}

// State is one machine state. Package is set for BadPackage, Reason for
// Failed.
type State struct {
	Kind    Kind
	Package string
	Reason  string
}

func (s State) String() string {
	switch {
	case s.Kind == BadPackage:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Package)
	case s.Kind == Failed && s.Reason != "":
		return fmt.Sprintf("%s: %s", s.Kind, s.Reason)
	default:
		return s.Kind.String()
	}
}
