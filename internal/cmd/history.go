package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantmind-br/xpkg/internal/config"
	"github.com/quantmind-br/xpkg/internal/core"
	"github.com/quantmind-br/xpkg/internal/db"
	"github.com/quantmind-br/xpkg/internal/ui"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd(cfg *config.Config, log *zerolog.Logger, deps *Deps) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past install and remove operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if _, err := os.Stat(cfg.Paths.DBFile); os.IsNotExist(err) {
				return printHistory(deps, nil, jsonOutput)
			}

			database, err := db.New(ctx, cfg.Paths.DBFile)
			if err != nil {
				ui.PrintError("failed to open database: %v", err)
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			records, err := database.List(ctx, limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}

			log.Debug().Int("count", len(records)).Msg("listed history")
			return printHistory(deps, records, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of operations to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func printHistory(deps *Deps, records []core.HistoryRecord, jsonOutput bool) error {
	if jsonOutput {
		if records == nil {
			records = []core.HistoryRecord{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal history: %w", err)
		}
		fmt.Fprintln(deps.Out, string(data))
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Out, "No operations recorded")
		return nil
	}
	ui.RenderHistory(deps.Out, records)
	return nil
}
