package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantmind-br/xpkg/internal/config"
	"github.com/quantmind-br/xpkg/internal/core"
	"github.com/quantmind-br/xpkg/internal/db"
	"github.com/quantmind-br/xpkg/internal/helpers"
	"github.com/quantmind-br/xpkg/internal/query"
	"github.com/quantmind-br/xpkg/internal/recovery"
	"github.com/quantmind-br/xpkg/internal/ui"
)

// splitArgs separates package names from backend flags given after "--"
func splitArgs(args []string, dash int) (pkgs, flags []string) {
	if dash < 0 {
		return helpers.SplitFlags(args)
	}
	pkgs, _ = helpers.SplitFlags(args[:dash])
	names, flags := helpers.SplitFlags(args[dash:])
	return append(pkgs, names...), flags
}

func newResolver(cfg *config.Config, log *zerolog.Logger, deps *Deps) *query.Resolver {
	opts := []query.Option{
		query.WithLogger(log),
		query.WithIndex(query.NewIndex(deps.Fs, cfg.Paths.IndexFile)),
	}
	if deps.Terminal.IsTTY() {
		opts = append(opts, query.WithQueryHook(ui.QuerySpinner(true)))
	}
	return query.NewResolver(deps.Provider, cfg.Query.FuzzyThreshold, opts...)
}

func newSelector(cfg *config.Config, log *zerolog.Logger, deps *Deps, prompter *ui.Prompter, opts ...ui.SelectorOption) *ui.Selector {
	opts = append([]ui.SelectorOption{ui.WithPager(ui.NewPager(deps.Screen))}, opts...)
	return ui.NewSelector(cfg, prompter, deps.Terminal, log, opts...)
}

// runMachine drives req to a terminal state, records it and maps failure
// to an exit code
func runMachine(ctx context.Context, cfg *config.Config, log *zerolog.Logger, deps *Deps, prompter *ui.Prompter, op core.Operation, req *recovery.Request) error {
	started := time.Now()
	requested := slices.Clone(req.Packages)

	log.Info().
		Str("operation", string(op)).
		Strs("packages", req.Packages).
		Strs("flags", req.BackendFlags).
		Bool("dry_run", req.DryRun).
		Bool("assume_yes", req.AssumeYes).
		Str("state", req.State.String()).
		Msg("starting operation")

	selector := newSelector(cfg, log, deps, prompter, ui.WithZeroLabel("Remove package"))
	m := recovery.NewMachine(req, deps.Provider, newResolver(cfg, log, deps), selector, prompter,
		recovery.WithOutput(deps.Out),
		recovery.WithLogger(log),
		recovery.WithObserver(printTransition),
	)
	res := m.Run(ctx)

	recordHistory(ctx, cfg, log, &core.HistoryRecord{
		Operation:  op,
		Requested:  requested,
		Packages:   res.Packages,
		State:      res.State.Kind.String(),
		Reason:     res.State.Reason,
		DryRun:     req.DryRun,
		Trace:      res.Steps(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	})

	if res.Succeeded() {
		msg := "done"
		if n := len(res.Messages); n > 0 {
			msg = res.Messages[n-1]
		}
		ui.PrintSuccess("%s", msg)
		log.Info().Str("operation", string(op)).Str("trace", res.TraceString()).Msg("operation completed")
		return nil
	}

	ui.PrintError("%s", res.State.Reason)
	return &core.ExitError{
		Code: exitCodeFor(op, res.Err),
		Err:  fmt.Errorf("%s failed: %s", op, res.State.Reason),
	}
}

func printTransition(_, to recovery.State, msg string) {
	if msg == "" || to.Kind.Terminal() {
		return
	}
	if to.Kind == recovery.BadPackage {
		ui.PrintWarning("%s", msg)
		return
	}
	ui.PrintInfo("%s", msg)
}

func exitCodeFor(op core.Operation, err error) int {
	switch {
	case errors.Is(err, ui.ErrUserCancelled), errors.Is(err, context.Canceled):
		return core.ExitInterrupted
	case op == core.OperationRemove:
		return core.ExitRemoveFailed
	default:
		return core.ExitInstallFailed
	}
}

// recordHistory stores rec; failures only warn
func recordHistory(ctx context.Context, cfg *config.Config, log *zerolog.Logger, rec *core.HistoryRecord) {
	if cfg.Paths.DBFile == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.DBFile), 0o755); err != nil {
		log.Warn().Err(err).Msg("cannot create history directory")
		return
	}

	database, err := db.New(ctx, cfg.Paths.DBFile)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Paths.DBFile).Msg("cannot open history database")
		return
	}
	defer database.Close()

	if err := database.Record(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("cannot record operation")
		return
	}
	log.Debug().Int64("id", rec.ID).Msg("operation recorded")
}
