package syspkg

import (
	"context"
	"errors"
)

// ErrBackendUnavailable is returned when the backend executable could not be
// launched. It is never retried.
var ErrBackendUnavailable = errors.New("package backend unavailable")

// LineFunc receives streamed backend output, one line at a time
type LineFunc func(line string)

// Op names a backend operation for alias mode
type Op string

const (
	OpInstall Op = "install"
	OpRemove  Op = "remove"
	OpQuery   Op = "query"
)

// InstallOptions contains options for package installation
type InstallOptions struct {
	Sync   bool // refresh repository metadata first
	DryRun bool
	Flags  []string // passed through to the backend verbatim
}

// RemoveOptions contains options for package removal
type RemoveOptions struct {
	Recursive bool
	Orphans   bool
	DryRun    bool
	Flags     []string
}

// Outcome is the interpreted result of a backend run.
// Category takes precedence over ExitCode.
type Outcome struct {
	Category Category
	Line     string // line that matched Category, if any
	ExitCode int
	Command  string
}

// Failed reports whether the run ended in a recognised signature or a
// non-zero exit
func (o *Outcome) Failed() bool {
	return o.Category != CategoryNone || o.ExitCode != 0
}

// Provider defines the interface for system package management
type Provider interface {
	// Name returns the provider name (e.g., "xbps")
	Name() string

	// Search runs the backend remote search and returns its raw output.
	// An empty term lists the whole catalog.
	Search(ctx context.Context, term string) (string, error)

	// Info returns the backend's remote description of a package
	Info(ctx context.Context, pkgName string) (string, error)

	// ProbeInstall asks the backend whether pkgName can be installed
	// without changing the system
	ProbeInstall(ctx context.Context, pkgName string) (*Outcome, error)

	// Install installs packages, streaming output to onLine
	Install(ctx context.Context, pkgs []string, opts InstallOptions, onLine LineFunc) (*Outcome, error)

	// UpdateTooling updates the backend's own package
	UpdateTooling(ctx context.Context, onLine LineFunc) (*Outcome, error)

	// UpdateSystem performs a full system update
	UpdateSystem(ctx context.Context, onLine LineFunc) (*Outcome, error)

	// ProbeRemove asks the backend whether pkgName can be removed
	// without changing the system
	ProbeRemove(ctx context.Context, pkgName string) (*Outcome, error)

	// Remove removes packages, streaming output to onLine
	Remove(ctx context.Context, pkgs []string, opts RemoveOptions, onLine LineFunc) (*Outcome, error)

	// Passthrough forwards args to the backend tool for op with the
	// terminal attached
	Passthrough(ctx context.Context, op Op, args []string) error

	// Signatures returns the table used to classify output
	Signatures() SignatureTable
}
