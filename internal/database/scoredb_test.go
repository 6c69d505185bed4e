package database

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/blockerbench/internal/model"
)

// openTestDB opens a fresh database in a temp directory.
func openTestDB(t *testing.T) *ScoreDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// testReport builds a small report for storage tests.
func testReport(evalFunc string) *model.ScoreReport {
	r := model.NewScoreReport(evalFunc)
	r.WebsiteCount = 2
	r.TrackerCount = 2
	r.Datasets = []model.DatasetInfo{
		{Blocker: "ghostery", Path: "ghostery.csv", Fingerprint: "deadbeef", WebsiteCount: 2},
	}
	r.Blockers = []model.BlockerScore{
		{Name: "ghostery", Total: 1.25},
		{Name: "ublock", Total: 2.5},
	}
	return r
}

// TestOpen tests database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database and directory", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		if db == nil {
			t.Fatal("expected database handle")
		}
	})

	t.Run("refuses missing database without create option", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing database, got nil")
		}
	})
}

// TestSaveAndListRuns tests run storage and metadata listing.
func TestSaveAndListRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)

	id1, err := db.SaveRun(ctx, testReport("inverse-square"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := db.SaveRun(ctx, testReport("linear"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1 == id2 {
		t.Errorf("run IDs should differ, both were %d", id1)
	}

	t.Run("list returns newest first with totals", func(t *testing.T) {
		runs, err := db.ListRuns(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("ListRuns() = %d runs, want 2", len(runs))
		}
		if runs[0].ID != id2 {
			t.Errorf("first run ID = %d, want %d (newest)", runs[0].ID, id2)
		}
		if runs[0].EvalFunc != "linear" {
			t.Errorf("EvalFunc = %q, want linear", runs[0].EvalFunc)
		}
		if got := runs[0].Totals["ublock"]; got != 2.5 {
			t.Errorf("Totals[ublock] = %f, want 2.5", got)
		}
	})

	t.Run("get run by ID round-trips the report", func(t *testing.T) {
		report, err := db.GetRunByID(ctx, id1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report == nil {
			t.Fatal("expected report, got nil")
		}
		if report.EvalFunc != "inverse-square" {
			t.Errorf("EvalFunc = %q, want inverse-square", report.EvalFunc)
		}
		if len(report.Datasets) != 1 || report.Datasets[0].Fingerprint != "deadbeef" {
			t.Errorf("Datasets = %+v, want one with fingerprint deadbeef", report.Datasets)
		}
	})

	t.Run("unknown run ID returns nil", func(t *testing.T) {
		report, err := db.GetRunByID(ctx, 9999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report != nil {
			t.Errorf("expected nil for unknown ID, got %+v", report)
		}
	})

	t.Run("latest run is the second save", func(t *testing.T) {
		report, err := db.GetLatestRun(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report == nil {
			t.Fatal("expected report, got nil")
		}
		if report.EvalFunc != "linear" {
			t.Errorf("EvalFunc = %q, want linear", report.EvalFunc)
		}
	})
}

// TestGetLatestRunEmpty tests the no-runs case.
func TestGetLatestRunEmpty(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	report, err := db.GetLatestRun(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report != nil {
		t.Errorf("expected nil for empty database, got %+v", report)
	}
}

// TestSaveWebsites tests rank table upserts.
func TestSaveWebsites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)

	ranks := map[string]int{"Google.com": 1, "Youtube.com": 2}
	if err := db.SaveWebsites(ctx, ranks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Saving again must not fail.
	if err := db.SaveWebsites(ctx, ranks); err != nil {
		t.Fatalf("unexpected error on re-save: %v", err)
	}
}

// TestObservations tests observation storage and the query surface.
func TestObservations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)

	ghostery := map[string][]string{
		"Google.com":  {"adservice.google.com/"},
		"Youtube.com": {"static.doubleclick.net/"},
	}
	ublock := map[string][]string{
		"Google.com": {"adservice.google.com/", "pagead2.googlesyndication.com/"},
	}

	if err := db.SaveObservations(ctx, "ghostery", ghostery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.SaveObservations(ctx, "ublock", ublock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Idempotent re-save.
	if err := db.SaveObservations(ctx, "ghostery", ghostery); err != nil {
		t.Fatalf("unexpected error on re-save: %v", err)
	}

	t.Run("list blockers", func(t *testing.T) {
		blockers, err := db.ListBlockers(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(blockers) != 2 || blockers[0] != "ghostery" || blockers[1] != "ublock" {
			t.Errorf("ListBlockers() = %v, want [ghostery ublock]", blockers)
		}
	})

	t.Run("top trackers count distinct origins", func(t *testing.T) {
		top, err := db.TopTrackers(ctx, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(top) != 3 {
			t.Fatalf("TopTrackers() = %d entries, want 3", len(top))
		}
		// All trackers appear on exactly one origin; order is alphabetical.
		if top[0].Tracker != "adservice.google.com/" || top[0].Frequency != 1 {
			t.Errorf("top[0] = %+v, want adservice.google.com/ with frequency 1", top[0])
		}
	})

	t.Run("website trackers union blockers", func(t *testing.T) {
		mapping, err := db.WebsiteTrackers(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mapping) != 2 {
			t.Fatalf("WebsiteTrackers() = %d origins, want 2", len(mapping))
		}
		if len(mapping["Google.com"]) != 2 {
			t.Errorf("Google.com trackers = %v, want 2 distinct", mapping["Google.com"])
		}
	})
}

// TestParseTimestamp tests the multi-format timestamp parser.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "sqlite default", input: "2026-02-14 12:00:00", zero: false},
		{name: "iso 8601 with Z", input: "2026-02-14T12:00:00Z", zero: false},
		{name: "rfc3339", input: time.Now().UTC().Format(time.RFC3339), zero: false},
		{name: "garbage", input: "not a timestamp", zero: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q).IsZero() = %v, want %v", tt.input, got.IsZero(), tt.zero)
			}
		})
	}
}
