package cmd

import (
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/quantmind-br/xpkg/internal/config"
	"github.com/quantmind-br/xpkg/internal/helpers"
	"github.com/quantmind-br/xpkg/internal/syspkg"
	"github.com/quantmind-br/xpkg/internal/syspkg/xbps"
	"github.com/quantmind-br/xpkg/internal/ui"
)

// ActionFunc picks one item from a short menu
type ActionFunc func(label string, items []string) (int, string, error)

// Deps are the collaborators commands run against
type Deps struct {
	Runner   helpers.CommandRunner
	Provider syspkg.Provider
	In       io.Reader
	Out      io.Writer
	Terminal ui.Terminal
	Screen   ui.ScreenFactory
	Fs       afero.Fs
	Action   ActionFunc
}

// DefaultDeps wires the real terminal, filesystem and xbps backend
func DefaultDeps(cfg *config.Config) *Deps {
	runner := helpers.NewOSCommandRunner()
	return &Deps{
		Runner:   runner,
		Provider: xbps.NewProviderWithRunner(runner, backendCommands(cfg)),
		In:       os.Stdin,
		Out:      os.Stdout,
		Terminal: ui.StdoutTerminal(),
		Screen:   ui.DefaultScreen,
		Fs:       afero.NewOsFs(),
		Action:   ui.SelectPrompt,
	}
}

func backendCommands(cfg *config.Config) xbps.Commands {
	return xbps.Commands{
		Install:   cfg.Backend.InstallCmd,
		Remove:    cfg.Backend.RemoveCmd,
		Query:     cfg.Backend.QueryCmd,
		Privilege: cfg.Backend.PrivilegeCmd,
	}
}
