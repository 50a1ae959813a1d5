package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/AIwolfie/waybackwolf/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
//  1. Type-safe markdown generation
//  2. Support for tables, lists, and code blocks
//  3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeAccessible(md, report)
	w.writeInaccessible(md, report)
	w.writeSensitive(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run header table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("WaybackWolf Audit Report")
	md.PlainText("")

	status := "✅ Complete"
	if report.Interrupted {
		status = "⚠️ Interrupted (partial results)"
	}

	duration := "-"
	if !report.FinishedAt.IsZero() {
		duration = report.FinishedAt.Sub(report.StartedAt).String()
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", duration},
			{"URLs Audited", strconv.Itoa(report.Stats.Total)},
			{"Status", status},
		},
	})
	md.PlainText("")
}

// writeSummary writes the counters, distribution chart, and alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🟢 Accessible", strconv.Itoa(report.Stats.Accessible)},
			{"🔴 Inaccessible", strconv.Itoa(report.Stats.Inaccessible)},
			{"🟡 Sensitive", strconv.Itoa(report.Stats.Sensitive)},
			{"**Total**", "**" + strconv.Itoa(report.Stats.Total) + "**"},
		},
	})
	md.PlainText("")

	if report.Stats.Total > 0 {
		w.writePieChart(md, report)
	}

	switch {
	case report.Stats.Sensitive > 0:
		md.Cautionf(
			"Sensitive data detected! %d URL(s) expose confidential content and require immediate review.",
			report.Stats.Sensitive,
		)
	case report.Stats.Inaccessible > 0:
		md.Note(fmt.Sprintf(
			"%d URL(s) are no longer accessible; archived snapshots are linked below where they exist.",
			report.Stats.Inaccessible,
		))
	default:
		md.Tip("All audited URLs are accessible and no sensitive data was flagged.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.RunReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Audit Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if report.Stats.Accessible > 0 {
		chart.LabelAndIntValue("Accessible", uint64(report.Stats.Accessible))
	}
	if report.Stats.Inaccessible > 0 {
		chart.LabelAndIntValue("Inaccessible", uint64(report.Stats.Inaccessible))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAccessible writes the accessible URL table.
func (w *MarkdownWriter) writeAccessible(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Accessible URLs")
	md.PlainText("")

	results := report.AccessibleResults()
	if len(results) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(results))
	for i, res := range results {
		rows[i] = []string{
			"`" + res.Task.URL + "`",
			strconv.Itoa(res.Check.HTTPCode),
			verdictCell(res),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Analysis"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeInaccessible writes the inaccessible URL table with snapshots.
func (w *MarkdownWriter) writeInaccessible(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Inaccessible URLs")
	md.PlainText("")

	results := report.InaccessibleResults()
	if len(results) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(results))
	for i, res := range results {
		status := strconv.Itoa(res.Check.HTTPCode)
		if res.Check.Status == model.StatusError {
			status = "error"
		}

		snapshot := "-"
		if res.Snapshot != nil && res.Snapshot.Found {
			snapshot = "[" + res.Snapshot.SnapshotTimestamp + "](" + res.Snapshot.SnapshotURL + ")"
		}

		rows[i] = []string{
			"`" + res.Task.URL + "`",
			status,
			snapshot,
			verdictCell(res),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Snapshot", "Analysis"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSensitive expands the raw analysis summaries of flagged URLs.
func (w *MarkdownWriter) writeSensitive(md *markdown.Markdown, report *model.RunReport) {
	if report.Stats.Sensitive == 0 {
		return
	}

	md.H2("Sensitive Findings")
	md.PlainText("")

	for _, res := range append(report.InaccessibleResults(), report.AccessibleResults()...) {
		if res.Verdict == nil || !res.Verdict.Sensitive {
			continue
		}
		md.Details(res.Task.URL, res.Verdict.RawSummary)
	}
	md.PlainText("")
}

// verdictCell renders the analysis column for one result.
func verdictCell(res *model.Result) string {
	if res.Verdict == nil {
		return "-"
	}
	if !res.Verdict.Sensitive {
		return "clean"
	}
	if len(res.Verdict.Categories) > 0 {
		return "**sensitive** (" + strings.Join(res.Verdict.Categories, ", ") + ")"
	}
	return "**sensitive**"
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [WaybackWolf](https://github.com/AIwolfie/waybackwolf)*")
}
