package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/xpkg/internal/config"
	"github.com/quantmind-br/xpkg/internal/core"
	"github.com/quantmind-br/xpkg/internal/query"
	"github.com/quantmind-br/xpkg/internal/recovery"
	"github.com/quantmind-br/xpkg/internal/security"
	"github.com/quantmind-br/xpkg/internal/syspkg"
	"github.com/quantmind-br/xpkg/internal/ui"
)

const (
	menuExit = iota
	menuSelect
	menuNext
)

const (
	optionRetryFuzzy = 1
	optionDetails    = 2
)

var selectionOptions = []string{"Retry with fuzzy search", "Show details"}

const (
	actionInstall = iota
	actionRemove
	actionDetails
	actionExit
)

var actionItems = []string{"Install", "Remove", "Show details", "Exit"}

// NewQueryCmd creates the query command
func NewQueryCmd(cfg *config.Config, log *zerolog.Logger, deps *Deps) *cobra.Command {
	var (
		list    bool
		tui     bool
		alias   bool
		dryRun  bool
		include []string
		exclude []string
	)

	cmd := &cobra.Command{
		Use:     "query [terms...] [-- xbps-flags]",
		Aliases: []string{"search"},
		Short:   "Search packages and act on the results",
		Long: `Search the repositories for each term, show the ranked matches and
optionally install or remove a selection of them.

Terms without an exact match fall back to a fuzzy search over the whole
catalog, then to the local install index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, flags := splitArgs(args, cmd.ArgsLenAtDash())

			if alias || cfg.AliasMode {
				log.Info().Strs("args", args).Msg("alias mode query")
				return passthrough(cmd, deps, syspkg.OpQuery, append(flags, terms...))
			}

			if len(terms) == 0 {
				return &core.ExitError{Code: core.ExitInvalidArgs, Err: fmt.Errorf("no search terms given")}
			}
			for _, term := range terms {
				if err := security.ValidateSearchTerm(term); err != nil {
					return &core.ExitError{Code: core.ExitInvalidArgs, Err: err}
				}
			}
			if err := security.ValidateRequest(nil, flags); err != nil {
				return &core.ExitError{Code: core.ExitInvalidArgs, Err: err}
			}

			mode := ""
			switch {
			case list:
				mode = config.DisplayList
			case tui:
				mode = config.DisplayTUI
			}

			prompter := ui.NewPrompter(deps.In, deps.Out)
			s := &querySession{
				cfg:      cfg,
				log:      log,
				deps:     deps,
				prompter: prompter,
				resolver: newResolver(cfg, log, deps),
				selector: newSelector(cfg, log, deps, prompter, ui.WithMode(mode), ui.WithZeroLabel("Back")),
				include:  include,
				exclude:  exclude,
				dryRun:   dryRun,
				flags:    flags,
			}

			for _, term := range terms {
				done, err := s.run(cmd.Context(), term)
				if err != nil {
					return queryError(err)
				}
				if done {
					return nil
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "always show results as a numbered list")
	cmd.Flags().BoolVarP(&tui, "tui", "t", false, "always show results in the full-screen pager")
	cmd.Flags().BoolVarP(&alias, "alias", "a", false, "pass arguments straight to xbps-query")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "dry run any install or removal started from the results")
	cmd.Flags().StringSliceVar(&include, "include", nil, "keep results whose name or description contains this text")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "drop results whose name or description contains this text")
	cmd.MarkFlagsMutuallyExclusive("list", "tui")

	return cmd
}

type querySession struct {
	cfg      *config.Config
	log      *zerolog.Logger
	deps     *Deps
	prompter *ui.Prompter
	resolver *query.Resolver
	selector *ui.Selector
	include  []string
	exclude  []string
	dryRun   bool
	flags    []string
}

// run handles one term. done is true when the whole command should stop.
func (s *querySession) run(ctx context.Context, term string) (bool, error) {
	rs, err := s.resolver.Smart(ctx, term)
	if err != nil {
		return true, err
	}
	rs = s.filter(rs)

	for {
		if rs.Len() == 0 {
			ui.PrintWarning("no packages match %q", term)
			return false, nil
		}

		fmt.Fprintf(s.deps.Out, "\nResults for %q\n", term)
		ui.RenderResults(s.deps.Out, rs)

		choice, err := s.menu()
		if err != nil {
			return true, err
		}
		switch choice {
		case menuExit:
			return true, nil
		case menuNext:
			return false, nil
		}

		sel, err := s.selector.Select(ctx, term, rs, selectionOptions)
		if err != nil {
			return true, err
		}

		switch v := sel.(type) {
		case ui.OtherOption:
			if v.Index == optionRetryFuzzy {
				if rs, err = s.resolver.Fuzzy(ctx, term); err != nil {
					return true, err
				}
				rs = s.filter(rs)
				continue
			}
			if err := s.pickDetails(ctx, rs); err != nil {
				return true, err
			}
		case ui.Removed:
			continue
		default:
			return s.act(ctx, ui.Chosen(sel))
		}
	}
}

func (s *querySession) filter(rs *query.ResultSet) *query.ResultSet {
	for _, inc := range s.include {
		rs = rs.Include(inc)
	}
	for _, exc := range s.exclude {
		rs = rs.Exclude(exc)
	}
	return rs
}

func (s *querySession) menu() (int, error) {
	for {
		fmt.Fprintln(s.deps.Out, "0. Exit")
		fmt.Fprintln(s.deps.Out, "1. Select packages")
		fmt.Fprintln(s.deps.Out, "2. Query next package")

		line, err := s.prompter.ReadLine(ui.Info.Sprint("Enter option: "))
		if err != nil {
			return 0, err
		}
		switch line {
		case "0":
			return menuExit, nil
		case "1":
			return menuSelect, nil
		case "2":
			return menuNext, nil
		}
		ui.PrintWarning("please enter an option above")
	}
}

// act runs the chosen action on names until an operation ran or the user
// exits
func (s *querySession) act(ctx context.Context, names []string) (bool, error) {
	for {
		idx, _, err := s.deps.Action(fmt.Sprintf("Action for %s", strings.Join(names, ", ")), actionItems)
		if err != nil {
			return true, err
		}

		switch idx {
		case actionInstall:
			req := recovery.NewInstallRequest(names, false, false)
			req.DryRun = s.dryRun
			req.SyncRepos = s.cfg.Backend.SyncRepos
			req.BackendFlags = s.flags
			return true, runMachine(ctx, s.cfg, s.log, s.deps, s.prompter, core.OperationInstall, req)
		case actionRemove:
			req := recovery.NewRemoveRequest(names)
			req.DryRun = s.dryRun
			req.Recursive = s.cfg.Remove.Recursive
			req.RemoveOrphans = s.cfg.Remove.Orphans
			req.BackendFlags = s.flags
			return true, runMachine(ctx, s.cfg, s.log, s.deps, s.prompter, core.OperationRemove, req)
		case actionDetails:
			for _, name := range names {
				s.details(ctx, name)
			}
		default:
			return true, nil
		}
	}
}

// pickDetails asks for one result number and shows its details
func (s *querySession) pickDetails(ctx context.Context, rs *query.ResultSet) error {
	names := rs.Names()
	for {
		line, err := s.prompter.ReadLine(ui.Info.Sprintf("Details for package (1-%d): ", len(names)))
		if err != nil {
			return err
		}
		sel, err := ui.ParseSelection(line, names)
		if err == nil {
			if r, ok := sel.(ui.Replacement); ok {
				s.details(ctx, r.Name)
				return nil
			}
			if _, ok := sel.(ui.Removed); ok {
				return nil
			}
		}
		ui.PrintWarning("enter a single number from the list")
	}
}

func (s *querySession) details(ctx context.Context, name string) {
	out, err := s.deps.Provider.Info(ctx, name)
	if err != nil {
		ui.PrintWarning("no details for %s: %v", name, err)
		return
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if limit := s.cfg.UI.DetailsLines; limit > 0 && len(lines) > limit {
		lines = append(lines[:limit], "...")
	}
	fmt.Fprintf(s.deps.Out, "\n%s\n", name)
	for _, line := range lines {
		fmt.Fprintf(s.deps.Out, "  %s\n", line)
	}
}

func queryError(err error) error {
	var exitErr *core.ExitError
	switch {
	case errors.As(err, &exitErr):
		return err
	case errors.Is(err, ui.ErrUserCancelled), errors.Is(err, context.Canceled):
		return &core.ExitError{Code: core.ExitInterrupted, Err: err}
	default:
		return &core.ExitError{Code: core.ExitGeneral, Err: err}
	}
}
