package report

import (
	"io"
	"math"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/blockerbench/internal/model"
)

// MarkdownWriter outputs score reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. Mermaid chart support for the score-share visualization
type MarkdownWriter struct {
	baseWriter

	// titleCaser renders category labels ("news" -> "News").
	titleCaser cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titleCaser: cases.Title(language.English),
	}
}

// Write outputs the score report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScoreReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeScores(md, report)
	w.writeShareChart(md, report)
	w.writeDatasets(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScoreReport) {
	md.H1("Blockerbench Score Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Eval function", "`" + report.EvalFunc + "`"},
			{"Websites", strconv.Itoa(report.WebsiteCount)},
			{"Trackers", strconv.Itoa(report.TrackerCount)},
		},
	})
	md.PlainText("")
}

// writeScores writes the score table: one column per blocker, one row for
// the full score and one per category.
func (w *MarkdownWriter) writeScores(md *markdown.Markdown, report *model.ScoreReport) {
	md.H2("Scores")
	md.PlainText("")

	if len(report.Blockers) == 0 {
		md.PlainText("No blockers scored.")
		md.PlainText("")
		return
	}

	header := make([]string, 0, len(report.Blockers)+1)
	header = append(header, "Subset")
	for _, b := range report.Blockers {
		header = append(header, b.Name)
	}

	rows := make([][]string, 0, len(report.Categories)+1)

	fullRow := make([]string, 0, len(header))
	fullRow = append(fullRow, allWebsitesLabel)
	for _, b := range report.Blockers {
		fullRow = append(fullRow, formatScore(b.Total))
	}
	rows = append(rows, fullRow)

	for _, category := range report.Categories {
		row := make([]string, 0, len(header))
		row = append(row, w.titleCaser.String(category))
		for _, b := range report.Blockers {
			score, _ := b.Category(category)
			row = append(row, formatScore(score))
		}
		rows = append(rows, row)
	}

	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")
}

// writeShareChart writes a mermaid pie chart of each blocker's share of the
// combined total score.
func (w *MarkdownWriter) writeShareChart(md *markdown.Markdown, report *model.ScoreReport) {
	total := report.TotalScore()
	if total <= 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Total Score Share (%)"),
		piechart.WithShowData(true),
	)

	for _, b := range report.Blockers {
		share := uint64(math.Round(b.Total / total * 100))
		if share > 0 {
			chart.LabelAndIntValue(b.Name, share)
		}
	}

	md.H2("Score Share")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeDatasets writes the ingested dataset table.
func (w *MarkdownWriter) writeDatasets(md *markdown.Markdown, report *model.ScoreReport) {
	if len(report.Datasets) == 0 {
		return
	}

	md.H2("Datasets")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Datasets))
	for _, d := range report.Datasets {
		fingerprint := d.Fingerprint
		if len(fingerprint) > 12 {
			fingerprint = fingerprint[:12]
		}
		rows = append(rows, []string{
			d.Blocker,
			"`" + d.Path + "`",
			"`" + fingerprint + "`",
			strconv.Itoa(d.WebsiteCount),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Blocker", "File", "Fingerprint", "Websites"},
		Rows:   rows,
	})
	md.PlainText("")
}

// formatScore renders a score with the fixed 3-decimal report precision.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 3, 64)
}
