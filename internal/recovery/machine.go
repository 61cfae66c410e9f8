package recovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantmind-br/xpkg/internal/query"
	"github.com/quantmind-br/xpkg/internal/syspkg"
	"github.com/quantmind-br/xpkg/internal/ui"
)

var (
	// ErrDeclined is set when the user refuses an update or the apply step
	ErrDeclined = errors.New("operation declined")
	// ErrUpdateLoop is set when a signature survives its corrective update
	ErrUpdateLoop = errors.New("corrective update did not clear the failure")
	// ErrBackendFailed is set when a backend command exits non-zero
	// without a known signature
	ErrBackendFailed = errors.New("backend command failed")
)

// Backend is the part of syspkg.Provider the machine drives
type Backend interface {
	ProbeInstall(ctx context.Context, pkgName string) (*syspkg.Outcome, error)
	Install(ctx context.Context, pkgs []string, opts syspkg.InstallOptions, onLine syspkg.LineFunc) (*syspkg.Outcome, error)
	UpdateTooling(ctx context.Context, onLine syspkg.LineFunc) (*syspkg.Outcome, error)
	UpdateSystem(ctx context.Context, onLine syspkg.LineFunc) (*syspkg.Outcome, error)
	ProbeRemove(ctx context.Context, pkgName string) (*syspkg.Outcome, error)
	Remove(ctx context.Context, pkgs []string, opts syspkg.RemoveOptions, onLine syspkg.LineFunc) (*syspkg.Outcome, error)
}

// Resolver finds replacement candidates for a bad package
type Resolver interface {
	Smart(ctx context.Context, term string, filters ...query.Filter) (*query.ResultSet, error)
	Fuzzy(ctx context.Context, term string, filters ...query.Filter) (*query.ResultSet, error)
}

// Chooser lets the user pick among candidates
type Chooser interface {
	Select(ctx context.Context, term string, rs *query.ResultSet, extras []string) (ui.Selection, error)
}

// Confirmer gates state-mutating commands
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// Extra entries offered after the replacement candidates
const (
	optionRetryFuzzy = 1
	optionDetails    = 2
)

var replacementOptions = []string{"Retry with fuzzy search", "Show details"}

// Observer is called after every transition
type Observer func(from, to State, msg string)

// Option configures a Machine
type Option func(*Machine)

// WithOutput sets where streamed backend output and prompts go
func WithOutput(w io.Writer) Option {
	return func(m *Machine) { m.out = w }
}

// WithLogger sets the transition logger
func WithLogger(log *zerolog.Logger) Option {
	return func(m *Machine) { m.log = log }
}

// WithObserver registers a transition callback
func WithObserver(fn Observer) Option {
	return func(m *Machine) { m.observer = fn }
}

// Machine drives one Request to Completed or Failed
type Machine struct {
	req      *Request
	home     Kind
	backend  Backend
	resolver Resolver
	chooser  Chooser
	confirm  Confirmer
	out      io.Writer
	log      *zerolog.Logger
	observer Observer

	validated      map[string]bool
	doValidate     bool
	toolingUpdated bool
	systemUpdated  bool
	synced         bool
	err            error
}

// NewMachine creates a machine for req. With req.AssumeYes every
// confirmation is answered Y.
func NewMachine(req *Request, backend Backend, resolver Resolver, chooser Chooser, confirm Confirmer, opts ...Option) *Machine {
	nop := zerolog.Nop()
	m := &Machine{
		req:        req,
		home:       Install,
		backend:    backend,
		resolver:   resolver,
		chooser:    chooser,
		confirm:    confirm,
		out:        io.Discard,
		log:        &nop,
		validated:  make(map[string]bool),
		doValidate: true,
	}
	if req.State.Kind == Remove {
		m.home = Remove
	}
	for _, opt := range opts {
		opt(m)
	}
	if req.AssumeYes || m.confirm == nil {
		m.confirm = ui.AutoConfirmer{Out: m.out}
	}
	return m
}

// State returns the current state
func (m *Machine) State() State {
	return m.req.State
}

// Err returns the error behind a Failed state
func (m *Machine) Err() error {
	return m.err
}

// Step performs one transition and returns the new state with a message
// for the user. Terminal states are returned unchanged.
func (m *Machine) Step(ctx context.Context) (State, string) {
	from := m.req.State
	if from.Kind.Terminal() {
		return from, ""
	}

	var next State
	var msg string
	if err := ctx.Err(); err != nil {
		next, msg = m.fail(err, "interrupted")
	} else {
		switch from.Kind {
		case SyncMetadata:
			next, msg = m.syncMetadata(ctx)
		case SystemUpdate:
			next, msg = m.systemUpdate(ctx)
		case Install:
			next, msg = m.install(ctx)
		case Remove:
			next, msg = m.remove(ctx)
		case BadPackage:
			next, msg = m.badPackage(ctx, from.Package)
		default:
			next, msg = m.fail(fmt.Errorf("unknown state %s", from), "internal error")
		}
	}

	m.req.State = next
	m.log.Info().
		Str("from", from.String()).
		Str("to", next.String()).
		Strs("packages", m.req.Packages).
		Msg(msg)
	if m.observer != nil {
		m.observer(from, next, msg)
	}
	return next, msg
}

// Run steps until a terminal state
func (m *Machine) Run(ctx context.Context) *Result {
	res := &Result{Trace: []State{m.req.State}}
	for !m.req.State.Kind.Terminal() {
		st, msg := m.Step(ctx)
		res.Trace = append(res.Trace, st)
		if msg != "" {
			res.Messages = append(res.Messages, msg)
		}
	}
	res.State = m.req.State
	res.Err = m.err
	res.Packages = slices.Clone(m.req.Packages)
	return res
}

func (m *Machine) syncMetadata(ctx context.Context) (State, string) {
	if m.req.DryRun {
		m.toolingUpdated = true
		return State{Kind: SystemUpdate}, "dry run: skipped xbps update"
	}

	if st, msg, ok := m.gate("xbps must be updated. Update xbps now?", "xbps update declined"); !ok {
		return st, msg
	}

	out, err := m.backend.UpdateTooling(ctx, m.emit)
	if err != nil {
		return m.fail(err, "xbps could not be updated")
	}
	if out.Failed() {
		return m.fail(ErrBackendFailed, fmt.Sprintf("xbps could not be updated: %s exited with status %d", out.Command, out.ExitCode))
	}

	m.toolingUpdated = true
	m.synced = true
	return State{Kind: SystemUpdate}, "xbps has been updated"
}

func (m *Machine) systemUpdate(ctx context.Context) (State, string) {
	if m.req.DryRun {
		m.systemUpdated = true
		return m.afterUpdate("dry run: skipped system update")
	}

	if st, msg, ok := m.gate("Update the system now?", "system update declined"); !ok {
		return st, msg
	}

	out, err := m.backend.UpdateSystem(ctx, m.emit)
	if err != nil {
		return m.fail(err, "system could not be updated")
	}
	if out.Category == syspkg.ToolingOutdated {
		st, msg, _ := m.correct(SyncMetadata, out.Line)
		return st, msg
	}
	if out.ExitCode != 0 {
		return m.fail(ErrBackendFailed, fmt.Sprintf("system could not be updated: %s exited with status %d", out.Command, out.ExitCode))
	}

	m.systemUpdated = true
	m.synced = true
	return m.afterUpdate("system has been updated")
}

func (m *Machine) afterUpdate(msg string) (State, string) {
	if len(m.req.Packages) == 0 {
		return State{Kind: Completed}, msg
	}
	return State{Kind: m.home}, msg
}

func (m *Machine) install(ctx context.Context) (State, string) {
	if m.doValidate {
		if st, msg, moved := m.validate(ctx, m.backend.ProbeInstall); moved {
			return st, msg
		}
	}

	pkgs := m.req.Packages
	if len(pkgs) == 0 {
		return State{Kind: Completed}, "nothing to install"
	}

	if !m.req.DryRun {
		question := fmt.Sprintf("The following packages will be installed:\n  %s\nProceed?", strings.Join(pkgs, " "))
		if st, msg, ok := m.gate(question, "installation declined"); !ok {
			return st, msg
		}
	}

	opts := syspkg.InstallOptions{
		Sync:   m.req.SyncRepos && !m.synced,
		DryRun: m.req.DryRun,
		Flags:  m.req.BackendFlags,
	}
	out, err := m.backend.Install(ctx, pkgs, opts, m.emit)
	if err != nil {
		return m.fail(err, "installation failed")
	}

	switch out.Category {
	case syspkg.BrokenDependencyGraph:
		if st, msg, ok := m.correct(SystemUpdate, out.Line); ok {
			return st, msg
		}
		return State{Kind: Completed}, "dry run: installation would need a system update first"
	case syspkg.ToolingOutdated:
		if st, msg, ok := m.correct(SyncMetadata, out.Line); ok {
			return st, msg
		}
		return State{Kind: Completed}, "dry run: installation would need an xbps update first"
	}
	if out.ExitCode != 0 {
		return m.fail(ErrBackendFailed, fmt.Sprintf("installation failed: %s exited with status %d", out.Command, out.ExitCode))
	}

	if m.req.DryRun {
		return State{Kind: Completed}, "dry run: would install " + strings.Join(pkgs, ", ")
	}
	return State{Kind: Completed}, "installed " + strings.Join(pkgs, ", ")
}

func (m *Machine) remove(ctx context.Context) (State, string) {
	if m.doValidate {
		if st, msg, moved := m.validate(ctx, m.backend.ProbeRemove); moved {
			return st, msg
		}
	}

	pkgs := m.req.Packages
	if len(pkgs) == 0 {
		return State{Kind: Completed}, "nothing to remove"
	}

	if !m.req.DryRun {
		question := fmt.Sprintf("The following packages will be removed:\n  %s\nProceed?", strings.Join(pkgs, " "))
		if st, msg, ok := m.gate(question, "removal declined"); !ok {
			return st, msg
		}
	}

	opts := syspkg.RemoveOptions{
		Recursive: m.req.Recursive,
		Orphans:   m.req.RemoveOrphans,
		DryRun:    m.req.DryRun,
		Flags:     m.req.BackendFlags,
	}
	out, err := m.backend.Remove(ctx, pkgs, opts, m.emit)
	if err != nil {
		return m.fail(err, "removal failed")
	}
	if out.ExitCode != 0 {
		return m.fail(ErrBackendFailed, fmt.Sprintf("removal failed: %s exited with status %d", out.Command, out.ExitCode))
	}

	if m.req.DryRun {
		return State{Kind: Completed}, "dry run: would remove " + strings.Join(pkgs, ", ")
	}
	return State{Kind: Completed}, "removed " + strings.Join(pkgs, ", ")
}

type probeFunc func(ctx context.Context, pkgName string) (*syspkg.Outcome, error)

// validate probes every package not yet confirmed. moved is true when the
// probe results demand a transition.
func (m *Machine) validate(ctx context.Context, probe probeFunc) (State, string, bool) {
	for _, pkg := range slices.Clone(m.req.Packages) {
		if m.validated[pkg] {
			continue
		}

		out, err := probe(ctx, pkg)
		if err != nil {
			st, msg := m.fail(err, fmt.Sprintf("could not validate %s", pkg))
			return st, msg, true
		}
		m.log.Debug().
			Str("package", pkg).
			Str("category", out.Category.String()).
			Int("exit_code", out.ExitCode).
			Msg("probed package")

		switch out.Category {
		case syspkg.NotFound:
			m.req.drop(pkg)
			return State{Kind: BadPackage, Package: pkg}, fmt.Sprintf("package %q not found in repository pool", pkg), true
		case syspkg.NotInstalled:
			if m.home == Remove {
				m.req.drop(pkg)
				return State{Kind: BadPackage, Package: pkg}, fmt.Sprintf("package %q is not installed", pkg), true
			}
		case syspkg.BrokenDependencyGraph:
			if m.home == Install {
				if st, msg, ok := m.correct(SystemUpdate, out.Line); ok {
					return st, msg, true
				}
			}
		case syspkg.ToolingOutdated:
			if m.home == Install {
				if st, msg, ok := m.correct(SyncMetadata, out.Line); ok {
					return st, msg, true
				}
			}
		default:
			if out.ExitCode != 0 {
				m.log.Warn().Str("package", pkg).Int("exit_code", out.ExitCode).Msg("probe failed without a known signature")
			}
		}
		m.validated[pkg] = true
	}

	m.doValidate = false
	return State{}, "", false
}

// correct moves to an update state unless that update already ran. A
// repeated signature fails the machine; in a dry run it is reported and
// ok is false so the caller can continue.
func (m *Machine) correct(kind Kind, line string) (State, string, bool) {
	done := m.systemUpdated
	what := "system update"
	if kind == SyncMetadata {
		done = m.toolingUpdated
		what = "xbps update"
	}

	if !done {
		msg := "system must be updated"
		if kind == SyncMetadata {
			msg = "xbps must be updated first"
		}
		if line != "" {
			msg += ": " + line
		}
		return State{Kind: kind}, msg, true
	}
	if m.req.DryRun {
		return State{}, "", false
	}
	st, msg := m.fail(ErrUpdateLoop, fmt.Sprintf("%s did not fix: %s", what, line))
	return st, msg, true
}

func (m *Machine) badPackage(ctx context.Context, pkg string) (State, string) {
	// removal candidates are filtered to installed records before the
	// exact-match collapse
	var filters []query.Filter
	if m.home == Remove {
		filters = append(filters, query.InstalledOnly)
	}

	candidates, err := m.resolver.Smart(ctx, pkg, filters...)
	if err != nil {
		return m.fail(err, fmt.Sprintf("could not search for %s", pkg))
	}

	for {
		if candidates.Len() == 0 {
			return State{Kind: m.home}, fmt.Sprintf("no replacement found for %q; dropped it", pkg)
		}

		sel, err := m.chooser.Select(ctx, pkg, candidates, replacementOptions)
		if err != nil {
			return m.fail(err, fmt.Sprintf("no replacement chosen for %s", pkg))
		}

		switch s := sel.(type) {
		case ui.OtherOption:
			switch s.Index {
			case optionRetryFuzzy:
				if candidates, err = m.resolver.Fuzzy(ctx, pkg, filters...); err != nil {
					return m.fail(err, fmt.Sprintf("could not search for %s", pkg))
				}
			case optionDetails:
				ui.RenderResults(m.out, candidates)
			}
		case ui.Removed:
			return State{Kind: m.home}, fmt.Sprintf("removed %q", pkg)
		default:
			names := ui.Chosen(sel)
			if m.req.add(names...) > 0 {
				m.doValidate = true
			}
			return State{Kind: m.home}, fmt.Sprintf("replaced %q with %s", pkg, strings.Join(names, ", "))
		}
	}
}

// gate asks question and fails with declined when the answer is no
func (m *Machine) gate(question, declined string) (State, string, bool) {
	ok, err := m.confirm.Confirm(question)
	if err != nil {
		st, msg := m.fail(err, declined)
		return st, msg, false
	}
	if !ok {
		st, msg := m.fail(ErrDeclined, declined)
		return st, msg, false
	}
	return State{}, "", true
}

func (m *Machine) fail(err error, reason string) (State, string) {
	m.err = err
	if !errors.Is(err, ErrDeclined) && !errors.Is(err, ErrBackendFailed) && !errors.Is(err, ErrUpdateLoop) {
		reason = fmt.Sprintf("%s: %v", reason, err)
	}
	m.log.Error().Err(err).Msg(reason)
	return State{Kind: Failed, Reason: reason}, reason
}

func (m *Machine) emit(line string) {
	fmt.Fprintln(m.out, line)
}
