package xbps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/quantmind-br/xpkg/internal/helpers"
	"github.com/quantmind-br/xpkg/internal/syspkg"
)

// Commands names the xbps executables and the privilege helper
type Commands struct {
	Install   string
	Remove    string
	Query     string
	Privilege string
}

// DefaultCommands returns the stock xbps tool names
func DefaultCommands() Commands {
	return Commands{
		Install:   "xbps-install",
		Remove:    "xbps-remove",
		Query:     "xbps-query",
		Privilege: "sudo",
	}
}

// Provider implements syspkg.Provider for Void Linux xbps
type Provider struct {
	runner     helpers.CommandRunner
	cmds       Commands
	signatures syspkg.SignatureTable
}

// NewProvider creates a new xbps provider
func NewProvider(cmds Commands) *Provider {
	return NewProviderWithRunner(helpers.NewOSCommandRunner(), cmds)
}

// NewProviderWithRunner creates a new xbps provider with a custom command runner
func NewProviderWithRunner(runner helpers.CommandRunner, cmds Commands) *Provider {
	return &Provider{
		runner:     runner,
		cmds:       cmds,
		signatures: syspkg.XBPSSignatures(),
	}
}

func (p *Provider) Name() string {
	return "xbps"
}

// Signatures returns the xbps failure phrases
func (p *Provider) Signatures() syspkg.SignatureTable {
	return p.signatures
}

// Search runs xbps-query -Rs. A non-zero exit with no output is an empty
// catalog; with diagnostics on stderr it is a backend failure.
func (p *Provider) Search(ctx context.Context, term string) (string, error) {
	stdout, stderr, err := p.runner.RunCommandWithOutput(ctx, p.cmds.Query, "-Rs", term)
	if err != nil {
		if errors.Is(err, helpers.ErrCommandStart) {
			return "", fmt.Errorf("%w: %w", syspkg.ErrBackendUnavailable, err)
		}
		if stdout == "" && strings.TrimSpace(stderr) != "" {
			return "", fmt.Errorf("%w: search %q: %s", syspkg.ErrBackendUnavailable, term, strings.TrimSpace(stderr))
		}
	}
	return stdout, nil
}

// Info returns xbps-query -R output for a package
func (p *Provider) Info(ctx context.Context, pkgName string) (string, error) {
	out, err := p.runner.RunCommand(ctx, p.cmds.Query, "-R", pkgName)
	if err != nil {
		if errors.Is(err, helpers.ErrCommandStart) {
			return "", fmt.Errorf("%w: %w", syspkg.ErrBackendUnavailable, err)
		}
		return "", fmt.Errorf("xbps-query info for %s: %w", pkgName, err)
	}
	return out, nil
}

// ProbeInstall runs xbps-install -n for a single package
func (p *Provider) ProbeInstall(ctx context.Context, pkgName string) (*syspkg.Outcome, error) {
	return p.probe(ctx, p.cmds.Install, "-n", pkgName)
}

// ProbeRemove runs xbps-remove -n for a single package
func (p *Provider) ProbeRemove(ctx context.Context, pkgName string) (*syspkg.Outcome, error) {
	return p.probe(ctx, p.cmds.Remove, "-n", pkgName)
}

// Install runs xbps-install for pkgs. Dry runs drop -S and the privilege
// helper so nothing on the system changes.
func (p *Provider) Install(ctx context.Context, pkgs []string, opts syspkg.InstallOptions, onLine syspkg.LineFunc) (*syspkg.Outcome, error) {
	var args []string
	switch {
	case opts.DryRun:
		args = append(args, "-n")
	case opts.Sync:
		args = append(args, "-Sy")
	default:
		args = append(args, "-y")
	}
	args = append(args, opts.Flags...)
	args = append(args, pkgs...)

	return p.stream(ctx, !opts.DryRun, p.cmds.Install, args, onLine,
		syspkg.BrokenDependencyGraph, syspkg.ToolingOutdated)
}

// UpdateTooling runs xbps-install -Syu xbps
func (p *Provider) UpdateTooling(ctx context.Context, onLine syspkg.LineFunc) (*syspkg.Outcome, error) {
	return p.stream(ctx, true, p.cmds.Install, []string{"-Syu", "xbps"}, onLine)
}

// UpdateSystem runs xbps-install -Syu, stopping early when xbps itself
// must be updated first
func (p *Provider) UpdateSystem(ctx context.Context, onLine syspkg.LineFunc) (*syspkg.Outcome, error) {
	return p.stream(ctx, true, p.cmds.Install, []string{"-Syu"}, onLine, syspkg.ToolingOutdated)
}

// Remove runs xbps-remove for pkgs
func (p *Provider) Remove(ctx context.Context, pkgs []string, opts syspkg.RemoveOptions, onLine syspkg.LineFunc) (*syspkg.Outcome, error) {
	args := []string{"-y"}
	if opts.Recursive {
		args = append(args, "-R")
	}
	if opts.Orphans {
		args = append(args, "-o")
	}
	if opts.DryRun {
		args = append(args, "-n")
	}
	args = append(args, opts.Flags...)
	args = append(args, pkgs...)

	return p.stream(ctx, !opts.DryRun, p.cmds.Remove, args, onLine)
}

// Passthrough runs the backend tool for op with the terminal attached
func (p *Provider) Passthrough(ctx context.Context, op syspkg.Op, args []string) error {
	var name string
	privileged := true
	switch op {
	case syspkg.OpInstall:
		name = p.cmds.Install
	case syspkg.OpRemove:
		name = p.cmds.Remove
	case syspkg.OpQuery:
		name, privileged = p.cmds.Query, false
	default:
		return fmt.Errorf("unknown backend operation %q", op)
	}

	if privileged {
		name, args = helpers.WithPrivilege(p.cmds.Privilege, name, args...)
	}

	cmd := p.runner.PrepareCommand(ctx, name, args...)
	if cmd == nil {
		return fmt.Errorf("%w: cannot prepare %s", syspkg.ErrBackendUnavailable, name)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if helpers.ExitCode(err) == -1 {
			return fmt.Errorf("%w: %w", syspkg.ErrBackendUnavailable, err)
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

func (p *Provider) probe(ctx context.Context, name string, args ...string) (*syspkg.Outcome, error) {
	stdout, stderr, err := p.runner.RunCommandWithOutput(ctx, name, args...)
	if err != nil && errors.Is(err, helpers.ErrCommandStart) {
		return nil, fmt.Errorf("%w: %w", syspkg.ErrBackendUnavailable, err)
	}

	out := &syspkg.Outcome{
		Command:  helpers.FormatCommand(name, args...),
		ExitCode: p.runner.GetExitCode(err),
	}
	merged := stdout + "\n" + stderr
	if out.Category = p.signatures.Classify(merged); out.Category != syspkg.CategoryNone {
		out.Line = matchingLine(p.signatures, out.Category, merged)
	}
	return out, nil
}

func (p *Provider) stream(ctx context.Context, privileged bool, name string, args []string, onLine syspkg.LineFunc, watch ...syspkg.Category) (*syspkg.Outcome, error) {
	if privileged {
		name, args = helpers.WithPrivilege(p.cmds.Privilege, name, args...)
	}

	out := &syspkg.Outcome{Command: helpers.FormatCommand(name, args...)}
	err := p.runner.RunCommandLines(ctx, p.signatures.Watch(out, onLine, watch...), name, args...)
	if err != nil {
		if errors.Is(err, helpers.ErrCommandStart) {
			return nil, fmt.Errorf("%w: %w", syspkg.ErrBackendUnavailable, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		out.ExitCode = p.runner.GetExitCode(err)
	}
	return out, nil
}

func matchingLine(table syspkg.SignatureTable, cat syspkg.Category, text string) string {
	for _, line := range strings.Split(text, "\n") {
		if table.Classify(line) == cat {
			return strings.TrimSpace(line)
		}
	}
	return ""
}
