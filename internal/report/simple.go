package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/blockerbench/internal/model"
)

// allWebsitesLabel is the row label for the unrestricted score.
const allWebsitesLabel = "All websites"

// SimpleWriter outputs human-readable text score tables.
// Blockers are columns; the first row is the score over all websites and
// each further row is one category subset. All scores use 3-decimal
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to
// files or other tools.
type SimpleWriter struct {
	baseWriter

	// titleCaser renders category labels ("news" -> "News").
	titleCaser cases.Caser
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{
		baseWriter: newBaseWriter(output),
		titleCaser: cases.Title(language.English),
	}
}

// Write outputs the score table in human-readable format.
func (w *SimpleWriter) Write(report *model.ScoreReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeScores(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run information block.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScoreReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       BLOCKERBENCH SCORES\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Generated:     %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Eval function: %s\n", report.EvalFunc))
	sb.WriteString(fmt.Sprintf("Websites:      %d\n", report.WebsiteCount))
	sb.WriteString(fmt.Sprintf("Trackers:      %d\n", report.TrackerCount))
	sb.WriteString("\n")
}

// writeScores writes the score table.
func (w *SimpleWriter) writeScores(sb *strings.Builder, report *model.ScoreReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SCORES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Blockers) == 0 {
		sb.WriteString("  No blockers scored\n\n")
		return
	}

	labels := w.rowLabels(report)

	// The label column is as wide as its longest entry; every blocker
	// column is as wide as the blocker's name, with a floor that fits any
	// realistic score.
	labelWidth := len("Subset")
	for _, label := range labels {
		if len(label) > labelWidth {
			labelWidth = len(label)
		}
	}

	widths := make([]int, len(report.Blockers))
	sb.WriteString(fmt.Sprintf("%-*s", labelWidth, "Subset"))
	for i, b := range report.Blockers {
		widths[i] = len(b.Name)
		if widths[i] < 10 {
			widths[i] = 10
		}
		sb.WriteString(fmt.Sprintf("  %*s", widths[i], b.Name))
	}
	sb.WriteString("\n")

	// Full score row, then one row per category in file order.
	sb.WriteString(fmt.Sprintf("%-*s", labelWidth, allWebsitesLabel))
	for i, b := range report.Blockers {
		sb.WriteString(fmt.Sprintf("  %*.3f", widths[i], b.Total))
	}
	sb.WriteString("\n")

	for _, category := range report.Categories {
		sb.WriteString(fmt.Sprintf("%-*s", labelWidth, w.titleCaser.String(category)))
		for i, b := range report.Blockers {
			score, _ := b.Category(category)
			sb.WriteString(fmt.Sprintf("  %*.3f", widths[i], score))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
}

// rowLabels returns every row label of the score table, title-cased.
func (w *SimpleWriter) rowLabels(report *model.ScoreReport) []string {
	labels := make([]string, 0, len(report.Categories)+1)
	labels = append(labels, allWebsitesLabel)
	for _, category := range report.Categories {
		labels = append(labels, w.titleCaser.String(category))
	}
	return labels
}
