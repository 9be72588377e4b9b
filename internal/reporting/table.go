package reporting

import (
	"fmt"
	"io"
	"strconv"

	"itrun/internal/runner"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
)

// maxNameWidth is the widest test name, in terminal cells, shown in the table.
const maxNameWidth = 48

// RenderTable writes one row per result followed by a totals footer.
func RenderTable(out io.Writer, summary runner.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("Results (%s)", formatDuration(summary.Duration)))

	t.AppendHeader(table.Row{"#", "Test", "Duration", "Exit", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Exit", Align: text.AlignRight},
	})

	for i, result := range summary.Results {
		t.AppendRow(table.Row{
			i + 1,
			truncateName(result.Entry.Name),
			formatDuration(result.Duration),
			exitCell(result),
			statusCell(result),
		})
	}

	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d run", summary.Run),
		"",
		"",
		fmt.Sprintf("%d failed", summary.Failed),
	})

	t.Render()
}

func truncateName(name string) string {
	if runewidth.StringWidth(name) <= maxNameWidth {
		return name
	}
	return runewidth.Truncate(name, maxNameWidth-1, "") + "…"
}

func exitCell(result runner.TestRunResult) string {
	if result.ExitCode < 0 {
		return text.FgHiBlack.Sprint("-")
	}
	return strconv.Itoa(result.ExitCode)
}

func statusCell(result runner.TestRunResult) string {
	switch {
	case result.Passed:
		return text.FgGreen.Sprint("✅ PASS")
	case result.Error != "":
		return text.FgRed.Sprint("💥 ERROR")
	default:
		return text.FgRed.Sprint("❌ FAIL")
	}
}
