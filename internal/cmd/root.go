package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/xpkg/internal/config"
)

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	return NewRootCmdWithDeps(cfg, log, version, DefaultDeps(cfg))
}

// NewRootCmdWithDeps creates the root command over custom collaborators
func NewRootCmdWithDeps(cfg *config.Config, log *zerolog.Logger, version string, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xpkg",
		Short: "Friendly front end for the XBPS package manager",
		Long: `xpkg installs, removes and searches Void Linux packages through xbps.

Misspelt package names are resolved interactively, and known xbps failures
(stale xbps, broken shared libraries) are repaired by updating first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	cmd.AddCommand(NewInstallCmd(cfg, log, deps))
	cmd.AddCommand(NewRemoveCmd(cfg, log, deps))
	cmd.AddCommand(NewQueryCmd(cfg, log, deps))
	cmd.AddCommand(NewHistoryCmd(cfg, log, deps))
	cmd.AddCommand(NewDoctorCmd(cfg, log, deps))
	cmd.AddCommand(NewCompletionCmd(cfg, log))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}
