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

// NewInstallCmd creates the install command
func NewInstallCmd(cfg *config.Config, log *zerolog.Logger, deps *Deps) *cobra.Command {
	var (
		update    bool
		updateAll bool
		assumeYes bool
		dryRun    bool
		alias     bool
		noSync    bool
	)

	cmd := &cobra.Command{
		Use:   "install [packages...] [-- xbps-flags]",
		Short: "Install packages",
		Long: `Install packages with xbps-install.

Packages xbps cannot find are offered replacements from a fuzzy search, and
installs blocked by a stale xbps or broken shared libraries trigger the
matching update first.`,
		ValidArgsFunction: completeIndexed(cfg, deps),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgs, flags := splitArgs(args, cmd.ArgsLenAtDash())

			if alias || cfg.AliasMode {
				log.Info().Strs("args", args).Msg("alias mode install")
				return passthrough(cmd, deps, syspkg.OpInstall, append(flags, pkgs...))
			}

			if len(pkgs) == 0 && !update && !updateAll {
				return &core.ExitError{Code: core.ExitInvalidArgs, Err: fmt.Errorf("no packages given")}
			}
			if err := security.ValidateRequest(pkgs, flags); err != nil {
				ui.PrintError("%v", err)
				return &core.ExitError{Code: core.ExitInvalidArgs, Err: err}
			}

			req := recovery.NewInstallRequest(pkgs, update, updateAll)
			req.BackendFlags = flags
			req.AssumeYes = assumeYes
			req.DryRun = dryRun
			req.SyncRepos = cfg.Backend.SyncRepos && !noSync

			prompter := ui.NewPrompter(deps.In, deps.Out)
			return runMachine(cmd.Context(), cfg, log, deps, prompter, core.OperationInstall, req)
		},
	}

	cmd.Flags().BoolVarP(&update, "update", "u", false, "update the system before installing")
	cmd.Flags().BoolVarP(&updateAll, "update-all", "X", false, "update xbps and the system before installing")
	cmd.Flags().BoolVarP(&assumeYes, "assume-yes", "y", false, "answer yes to every confirmation")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without changing the system")
	cmd.Flags().BoolVarP(&alias, "alias", "a", false, "pass arguments straight to xbps-install")
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "do not refresh repository metadata")

	return cmd
}

// passthrough hands args to the backend with the terminal attached
func passthrough(cmd *cobra.Command, deps *Deps, op syspkg.Op, args []string) error {
	if err := deps.Provider.Passthrough(cmd.Context(), op, args); err != nil {
		code := core.ExitInstallFailed
		switch op {
		case syspkg.OpRemove:
			code = core.ExitRemoveFailed
		case syspkg.OpQuery:
			code = core.ExitGeneral
		}
		return &core.ExitError{Code: code, Err: err}
	}
	return nil
}
