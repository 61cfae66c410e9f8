package ui

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/quantmind-br/xpkg/internal/core"
	"github.com/quantmind-br/xpkg/internal/query"
)

const maxDescription = 60

// RenderResults prints a result set as a table
func RenderResults(w io.Writer, rs *query.ResultSet) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"#", "Name", "Version", "Installed", "Score", "Description"}),
		tablewriter.WithAlignment(tw.MakeAlign(6, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)

	for i, rec := range rs.Records {
		version := rec.Version
		if version == "" {
			version = "-"
		}

		desc := rec.Description
		if len(desc) > maxDescription {
			desc = desc[:maxDescription-3] + "..."
		}

		table.Append(
			strconv.Itoa(i+1),
			rec.Name,
			version,
			InstalledMark(rec.Installed),
			ColorizeScore(rec.Score),
			desc,
		)
	}

	table.Render()
}

// RenderHistory prints recorded operations as a table
func RenderHistory(w io.Writer, records []core.HistoryRecord) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"ID", "Started", "Operation", "Packages", "State", "Dry run", "Trace"}),
		tablewriter.WithAlignment(tw.MakeAlign(7, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)

	for _, rec := range records {
		state := Success.Sprint(rec.State)
		if rec.State != "completed" {
			state = Error.Sprint(rec.State)
		}
		dry := ""
		if rec.DryRun {
			dry = "yes"
		}

		table.Append(
			strconv.FormatInt(rec.ID, 10),
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			string(rec.Operation),
			strings.Join(rec.Packages, " "),
			state,
			dry,
			strings.Join(rec.Trace, " > "),
		)
	}

	table.Render()
}
