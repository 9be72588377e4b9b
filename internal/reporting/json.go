package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"itrun/internal/queue"
	"itrun/internal/runner"
	"itrun/pkg/logging"
)

// jsonReporter stays silent until the run ends, then writes the summary as JSON.
type jsonReporter struct {
	out io.Writer
}

// NewJSONReporter creates a reporter for machine consumption.
func NewJSONReporter(out io.Writer) runner.Reporter {
	return &jsonReporter{out: out}
}

func (r *jsonReporter) ReportStart(runner.Target) {}

func (r *jsonReporter) ReportTestStart(queue.TestEntry) {}

func (r *jsonReporter) ReportTestResult(runner.TestRunResult) {}

func (r *jsonReporter) ReportSummary(summary runner.RunSummary) {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		logging.Error("Reporting", err, "Failed to encode run summary")
	}
}

// SaveReport writes summary to dir/itrun-report-<timestamp>.json and returns the path.
func SaveReport(dir string, summary runner.RunSummary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	ts := summary.EndTime
	if ts.IsZero() {
		ts = time.Now()
	}
	path := filepath.Join(dir, fmt.Sprintf("itrun-report-%s.json", ts.Format("20060102-150405")))

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}
