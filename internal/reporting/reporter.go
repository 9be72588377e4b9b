// Package reporting renders runner progress events for the terminal, for CI
// logs and as JSON.
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"itrun/internal/color"
	"itrun/internal/config"
	"itrun/internal/queue"
	"itrun/internal/runner"
)

// New returns the reporter for format, writing to out (os.Stdout if nil).
func New(format config.OutputFormat, out io.Writer, verbose bool) runner.Reporter {
	if out == nil {
		out = os.Stdout
	}
	switch format {
	case config.OutputQuiet:
		return NewQuietReporter(out)
	case config.OutputJSON:
		return NewJSONReporter(out)
	default:
		return NewConsoleReporter(out, verbose)
	}
}

// consoleReporter prints one progress line per test plus a summary table.
type consoleReporter struct {
	out     io.Writer
	verbose bool
}

// NewConsoleReporter creates the default human readable reporter.
func NewConsoleReporter(out io.Writer, verbose bool) runner.Reporter {
	return &consoleReporter{out: out, verbose: verbose}
}

func (r *consoleReporter) ReportStart(target runner.Target) {
	fmt.Fprintf(r.out, "%s\n", color.Title("🧪 Starting integration tests"))
	fmt.Fprintf(r.out, "📡 Service: %s\n\n", target.Address())
}

func (r *consoleReporter) ReportTestStart(entry queue.TestEntry) {
	fmt.Fprintf(r.out, "Testing: %s\n", entry.Name)
	if r.verbose {
		fmt.Fprintf(r.out, "   %s\n", color.Muted(entry.Path))
	}
}

func (r *consoleReporter) ReportTestResult(result runner.TestRunResult) {
	line := fmt.Sprintf("%s %s (%s)", resultSymbol(result), result.Entry.Name, formatDuration(result.Duration))
	switch {
	case result.Passed:
		fmt.Fprintln(r.out, color.Pass(line))
	case result.Error != "":
		// could not be launched or awaited
		fmt.Fprintln(r.out, color.Warn(line))
	default:
		fmt.Fprintln(r.out, color.Fail(line))
	}

	if result.Error != "" {
		fmt.Fprintf(r.out, "   ❌ Error: %s\n", result.Error)
	} else if r.verbose || !result.Passed {
		fmt.Fprintf(r.out, "   Exit code: %d\n", result.ExitCode)
	}
	fmt.Fprintln(r.out)
}

func (r *consoleReporter) ReportSummary(summary runner.RunSummary) {
	fmt.Fprintf(r.out, "\n🏁 Test Run Complete\n")
	if len(summary.Results) > 0 {
		RenderTable(r.out, summary)
	}
	fmt.Fprintf(r.out, "⏱️  Duration: %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(r.out, "📊 Results:\n")
	fmt.Fprintf(r.out, "   ✅ Passed: %d\n", summary.Run-summary.Failed)
	if summary.Failed > 0 {
		fmt.Fprintf(r.out, "   ❌ Failed: %d\n", summary.Failed)
	}
	fmt.Fprintf(r.out, "   📈 Total: %d\n", summary.Run)
	if r.verbose {
		fmt.Fprintf(r.out, "   🆔 Run: %s\n", summary.RunID)
	}

	if summary.Passed() {
		fmt.Fprintf(r.out, "\n%s\n", color.Pass("🎉 All tests passed!"))
	} else {
		fmt.Fprintf(r.out, "\n%s\n", color.Fail(fmt.Sprintf("💔 %d test(s) failed: %s",
			summary.Failed, strings.Join(summary.FailingNames, ", "))))
	}
}

// quietReporter only prints failures and a final line, for CI logs.
type quietReporter struct {
	out io.Writer
}

// NewQuietReporter creates a reporter that only outputs essential information.
func NewQuietReporter(out io.Writer) runner.Reporter {
	return &quietReporter{out: out}
}

func (r *quietReporter) ReportStart(runner.Target) {}

func (r *quietReporter) ReportTestStart(queue.TestEntry) {}

func (r *quietReporter) ReportTestResult(result runner.TestRunResult) {
	if result.Passed {
		return
	}
	reason := result.Error
	if reason == "" {
		reason = fmt.Sprintf("exit code %d", result.ExitCode)
	}
	fmt.Fprintf(r.out, "❌ %s: %s\n", result.Entry.Name, reason)
}

func (r *quietReporter) ReportSummary(summary runner.RunSummary) {
	if summary.Passed() {
		fmt.Fprintf(r.out, "✅ All %d tests passed\n", summary.Run)
	} else {
		fmt.Fprintf(r.out, "❌ %d/%d tests failed\n", summary.Failed, summary.Run)
	}
}

func resultSymbol(result runner.TestRunResult) string {
	switch {
	case result.Passed:
		return "✅"
	case result.Error != "":
		return "💥"
	default:
		return "❌"
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return d.Round(time.Millisecond).String()
}
