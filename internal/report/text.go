package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/AIwolfie/waybackwolf/internal/model"
)

// TextWriter outputs human-readable text reports.
// This format is designed for terminal display with color-coded result
// groups and clear section formatting.
//
// Design decision: We use fatih/color rather than raw ANSI sequences
// because:
//  1. It degrades to plain text automatically when output is not a TTY
//  2. NO_COLOR and --no-color are honored in one place
//  3. Color pairs (sprint functions) keep formatting readable
type TextWriter struct {
	baseWriter

	// colored enables ANSI colors. Off, the same layout prints plain.
	colored bool

	// verbose includes latency and retry detail per URL.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithColor enables colored output.
func WithColor(enabled bool) TextWriterOption {
	return func(w *TextWriter) {
		w.colored = enabled
	}
}

// WithVerbose enables per-URL latency and retry detail.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run in human-readable format.
func (w *TextWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	green := w.sprintf(color.FgGreen)
	red := w.sprintf(color.FgRed)
	yellow := w.sprintf(color.FgYellow)
	blue := w.sprintf(color.FgBlue)

	w.writeHeader(&sb, report)

	accessible := report.AccessibleResults()
	sb.WriteString(green("ACCESSIBLE URLS (%d)\n", len(accessible)))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	if len(accessible) == 0 {
		sb.WriteString("  none\n")
	}
	for _, res := range accessible {
		sb.WriteString(fmt.Sprintf("  [%d] %s\n", res.Check.HTTPCode, res.Task.URL))
		w.writeDetail(&sb, res, yellow, blue)
	}
	sb.WriteString("\n")

	inaccessible := report.InaccessibleResults()
	sb.WriteString(red("INACCESSIBLE URLS (%d)\n", len(inaccessible)))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	if len(inaccessible) == 0 {
		sb.WriteString("  none\n")
	}
	for _, res := range inaccessible {
		if res.Check.Status == model.StatusError {
			sb.WriteString(fmt.Sprintf("  [err] %s (%s)\n", res.Task.URL, res.Check.Err))
		} else {
			sb.WriteString(fmt.Sprintf("  [%d] %s\n", res.Check.HTTPCode, res.Task.URL))
		}
		w.writeSnapshot(&sb, res, yellow)
		w.writeDetail(&sb, res, yellow, blue)
	}
	sb.WriteString("\n")

	w.writeStats(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run header.
func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        WAYBACKWOLF AUDIT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	if !report.FinishedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)))
	}
	if report.Interrupted {
		sb.WriteString("Status:   INTERRUPTED (partial results)\n")
	} else {
		sb.WriteString("Status:   Complete\n")
	}
	sb.WriteString("\n")
}

// writeSnapshot writes the snapshot line of a dead URL.
func (w *TextWriter) writeSnapshot(sb *strings.Builder, res *model.Result, yellow sprintfFunc) {
	if res.Snapshot == nil {
		return
	}
	if res.Snapshot.Found {
		sb.WriteString(yellow("        snapshot: %s\n", res.Snapshot.SnapshotURL))
	} else {
		sb.WriteString("        snapshot: none archived\n")
	}
}

// writeDetail writes the optional verdict and verbose lines.
func (w *TextWriter) writeDetail(sb *strings.Builder, res *model.Result, yellow, blue sprintfFunc) {
	if res.Verdict != nil {
		if res.Verdict.Sensitive {
			tags := ""
			if len(res.Verdict.Categories) > 0 {
				tags = " [" + strings.Join(res.Verdict.Categories, ", ") + "]"
			}
			sb.WriteString(yellow("        SENSITIVE%s via %s\n", tags, res.Verdict.Provider))
		} else {
			sb.WriteString(blue("        analysis: clean via %s\n", res.Verdict.Provider))
		}
	}
	if w.verbose {
		sb.WriteString(fmt.Sprintf("        latency=%s retries=%d\n",
			res.Check.Latency.Round(time.Millisecond), res.Check.RetriesUsed))
	}
}

// writeStats writes the summary counters.
func (w *TextWriter) writeStats(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Total:        %d\n", report.Stats.Total))
	sb.WriteString(fmt.Sprintf("  Accessible:   %d\n", report.Stats.Accessible))
	sb.WriteString(fmt.Sprintf("  Inaccessible: %d\n", report.Stats.Inaccessible))
	sb.WriteString(fmt.Sprintf("  Sensitive:    %d\n", report.Stats.Sensitive))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// sprintfFunc formats a line, colored or plain.
type sprintfFunc func(format string, a ...any) string

// sprintf returns a formatter in the given color, or plain fmt.Sprintf
// when colors are off.
func (w *TextWriter) sprintf(attr color.Attribute) sprintfFunc {
	if !w.colored {
		return fmt.Sprintf
	}
	c := color.New(attr)
	return func(format string, a ...any) string {
		return c.Sprintf(format, a...)
	}
}
