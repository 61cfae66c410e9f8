package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/xpkg/internal/config"
	"github.com/quantmind-br/xpkg/internal/core"
	"github.com/quantmind-br/xpkg/internal/recovery"
	"github.com/quantmind-br/xpkg/internal/security"
	"github.com/quantmind-br/xpkg/internal/syspkg"
	"github.com/quantmind-br/xpkg/internal/ui"
)

// NewRemoveCmd creates the remove command
func NewRemoveCmd(cfg *config.Config, log *zerolog.Logger, deps *Deps) *cobra.Command {
	var (
		recursive bool
		orphans   bool
		assumeYes bool
		dryRun    bool
		alias     bool
	)

	cmd := &cobra.Command{
		Use:     "remove [packages...] [-- xbps-flags]",
		Aliases: []string{"rm", "uninstall"},
		Short:   "Remove packages",
		Long: `Remove installed packages with xbps-remove.

Names that are not installed are offered replacements from the installed
packages that match them.`,
		ValidArgsFunction: completeIndexed(cfg, deps),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgs, flags := splitArgs(args, cmd.ArgsLenAtDash())

			if alias || cfg.AliasMode {
				log.Info().Strs("args", args).Msg("alias mode remove")
				return passthrough(cmd, deps, syspkg.OpRemove, append(flags, pkgs...))
			}

			if len(pkgs) == 0 {
				return &core.ExitError{Code: core.ExitInvalidArgs, Err: fmt.Errorf("no packages given")}
			}
			if err := security.ValidateRequest(pkgs, flags); err != nil {
				ui.PrintError("%v", err)
				return &core.ExitError{Code: core.ExitInvalidArgs, Err: err}
			}

			req := recovery.NewRemoveRequest(pkgs)
			req.BackendFlags = flags
			req.AssumeYes = assumeYes
			req.DryRun = dryRun
			req.Recursive = recursive
			req.RemoveOrphans = orphans

			prompter := ui.NewPrompter(deps.In, deps.Out)
			return runMachine(cmd.Context(), cfg, log, deps, prompter, core.OperationRemove, req)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "R", cfg.Remove.Recursive, "also remove dependencies no other package needs")
	cmd.Flags().BoolVarP(&orphans, "remove-orphans", "o", cfg.Remove.Orphans, "remove orphaned packages")
	cmd.Flags().BoolVarP(&assumeYes, "assume-yes", "y", false, "answer yes to every confirmation")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without changing the system")
	cmd.Flags().BoolVarP(&alias, "alias", "a", false, "pass arguments straight to xbps-remove")

	return cmd
}
