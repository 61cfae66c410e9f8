package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/quantmind-br/xpkg/internal/config"
	"github.com/quantmind-br/xpkg/internal/core"
	"github.com/quantmind-br/xpkg/internal/db"
	"github.com/quantmind-br/xpkg/internal/query"
	"github.com/quantmind-br/xpkg/internal/ui"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the backend, directories and database",
		Long:  `Check that the xbps tools and the privilege helper are available, that the data directories are writable and that the history database opens.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ui.PrintHeader("System Diagnostics")

			var issues []string
			var warnings []string

			// 1. Backend executables
			ui.PrintSubheader("Backend")
			for _, name := range []string{cfg.Backend.InstallCmd, cfg.Backend.RemoveCmd, cfg.Backend.QueryCmd} {
				if deps.Runner.CommandExists(name) {
					ui.PrintSuccess("%s: found", name)
				} else {
					ui.PrintError("%s: NOT FOUND", name)
					issues = append(issues, fmt.Sprintf("Missing backend executable: %s", name))
				}
			}

			if priv := cfg.Backend.PrivilegeCmd; priv != "" && os.Geteuid() != 0 {
				if deps.Runner.CommandExists(priv) {
					ui.PrintSuccess("%s: found", priv)
				} else {
					ui.PrintWarning("%s: not found (installs and removals will fail without root)", priv)
					warnings = append(warnings, fmt.Sprintf("Privilege command missing: %s", priv))
				}
			}

			fmt.Println()

			// 2. Directories
			ui.PrintSubheader("Directories")
			dirs := []struct {
				path string
				name string
			}{
				{cfg.Paths.DataDir, "Data directory"},
				{filepath.Dir(cfg.Paths.DBFile), "Database directory"},
				{filepath.Dir(cfg.Paths.LogFile), "Log directory"},
			}
			for _, dir := range dirs {
				if err := checkDirectory(dir.path); err != nil {
					ui.PrintError("%s: NOT WRITABLE (%s: %v)", dir.name, dir.path, err)
					issues = append(issues, fmt.Sprintf("Directory not writable: %s", dir.path))
				} else {
					ui.PrintSuccess("%s: %s", dir.name, dir.path)
				}
			}

			fmt.Println()

			// 3. Database and index
			ui.PrintSubheader("Data")
			if err := checkDatabase(cmd.Context(), cfg.Paths.DBFile); err != nil {
				ui.PrintError("History database: %v", err)
				issues = append(issues, fmt.Sprintf("Cannot open database: %v", err))
			} else {
				ui.PrintSuccess("History database: %s", cfg.Paths.DBFile)
			}

			names, err := query.NewIndex(deps.Fs, cfg.Paths.IndexFile).Names()
			if err != nil {
				ui.PrintWarning("Local index: %v", err)
				warnings = append(warnings, "Local index unreadable")
			} else {
				ui.PrintInfo("Local index: %d package(s)", len(names))
			}

			fmt.Println()

			// 4. Terminal
			ui.PrintSubheader("Terminal")
			width, height := deps.Terminal.Size()
			if deps.Terminal.IsTTY() {
				ui.PrintSuccess("Interactive terminal: %dx%d", width, height)
			} else {
				ui.PrintInfo("Not a terminal: the full-screen pager is disabled in smart mode")
			}

			fmt.Println()

			// Summary
			ui.PrintHeader("Summary")
			if len(issues) == 0 {
				ui.PrintSuccess("All critical checks passed!")
			} else {
				ui.PrintError("Found %d issue(s):", len(issues))
				ui.PrintList(issues)
			}
			if len(warnings) > 0 {
				ui.PrintWarning("Found %d warning(s):", len(warnings))
				ui.PrintList(warnings)
			}

			log.Info().Int("issues", len(issues)).Int("warnings", len(warnings)).Msg("doctor finished")

			if len(issues) > 0 {
				return &core.ExitError{
					Code: core.ExitCommandNotFound,
					Err:  fmt.Errorf("system check failed with %d issue(s)", len(issues)),
				}
			}
			return nil
		},
	}

	return cmd
}

// checkDirectory creates path when missing and checks it is writable
func checkDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}
	return unix.Access(path, unix.W_OK)
}

func checkDatabase(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	database, err := db.New(ctx, path)
	if err != nil {
		return err
	}
	defer database.Close()
	return database.Ping(ctx)
}
