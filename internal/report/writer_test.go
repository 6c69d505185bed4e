package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/blockerbench/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.ScoreReport {
	report := model.NewScoreReport("inverse-square")
	report.GeneratedAt = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	report.WebsiteCount = 50
	report.TrackerCount = 123
	report.Categories = []string{"news", "shopping"}
	report.Datasets = []model.DatasetInfo{
		{Blocker: "ghostery", Path: "data/ghostery.csv", Fingerprint: strings.Repeat("ab", 32), WebsiteCount: 50},
		{Blocker: "ublock", Path: "data/ublock.csv", Fingerprint: strings.Repeat("cd", 32), WebsiteCount: 50},
	}
	report.Blockers = []model.BlockerScore{
		{
			Name:  "ghostery",
			Total: 12.3456,
			Categories: []model.CategoryScore{
				{Name: "news", Score: 4.2},
				{Name: "shopping", Score: 1.0},
			},
		},
		{
			Name:  "ublock",
			Total: 15.0,
			Categories: []model.CategoryScore{
				{Name: "news", Score: 5.5},
				{Name: "shopping", Score: 2.25},
			},
		},
	}
	return report
}

// TestSimpleWriter tests the human-readable score table writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and run info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "BLOCKERBENCH SCORES") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "inverse-square") {
			t.Error("expected output to contain eval function name")
		}
	})

	t.Run("writes one column per blocker", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "ghostery") || !strings.Contains(output, "ublock") {
			t.Error("expected output to contain blocker names")
		}
	})

	t.Run("formats scores with three decimals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "12.346") {
			t.Errorf("expected rounded total 12.346 in output:\n%s", output)
		}
		if !strings.Contains(output, "15.000") {
			t.Errorf("expected padded total 15.000 in output:\n%s", output)
		}
	})

	t.Run("writes full row and title-cased category rows in order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		all := strings.Index(output, "All websites")
		news := strings.Index(output, "News")
		shopping := strings.Index(output, "Shopping")
		if all == -1 || news == -1 || shopping == -1 {
			t.Fatalf("missing rows in output:\n%s", output)
		}
		if !(all < news && news < shopping) {
			t.Errorf("rows out of order in output:\n%s", output)
		}
	})

	t.Run("handles report without blockers", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(model.NewScoreReport("linear")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No blockers scored") {
			t.Error("expected empty-report message")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.ScoreReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.EvalFunc != "inverse-square" {
			t.Errorf("EvalFunc = %q, want inverse-square", decoded.EvalFunc)
		}
		if len(decoded.Blockers) != 2 {
			t.Errorf("Blockers = %d entries, want 2", len(decoded.Blockers))
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  \"") {
			t.Error("expected indented JSON output")
		}
	})

	t.Run("compact output has no newlines inside", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := strings.Count(buf.String(), "\n"); got != 1 {
			t.Errorf("compact output has %d newlines, want 1 trailing", got)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes title and score table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Blockerbench Score Report") {
			t.Error("expected markdown title")
		}
		if !strings.Contains(output, "All websites") {
			t.Error("expected full score row")
		}
		if !strings.Contains(output, "12.346") {
			t.Error("expected 3-decimal score formatting")
		}
	})

	t.Run("includes mermaid score share chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "mermaid") {
			t.Error("expected mermaid code block")
		}
		if !strings.Contains(output, "Total Score Share") {
			t.Error("expected score share chart title")
		}
	})

	t.Run("lists datasets with shortened fingerprints", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "ababababab") {
			t.Error("expected shortened fingerprint in dataset table")
		}
		if strings.Contains(output, strings.Repeat("ab", 32)) {
			t.Error("full fingerprint should not appear in dataset table")
		}
	})

	t.Run("omits chart for zero scores", func(t *testing.T) {
		t.Parallel()

		report := model.NewScoreReport("linear")
		report.Blockers = []model.BlockerScore{{Name: "ghostery", Total: 0}}

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "mermaid") {
			t.Error("chart should be omitted when the total score is zero")
		}
	})
}

// errorWriter always fails, for MultiWriter error propagation tests.
type errorWriter struct{}

func (errorWriter) Write(*model.ScoreReport) (int, error) {
	return 0, errors.New("write failed")
}

// TestMultiWriter tests fan-out to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all destinations", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))

		if _, err := mw.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if a.Len() == 0 || b.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(errorWriter{}, NewSimpleWriter(&buf))

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Error("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Error("second writer should not run after error")
		}
	})
}
