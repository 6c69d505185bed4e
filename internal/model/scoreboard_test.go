package model

import (
	"encoding/json"
	"math"
	"testing"
)

// sampleReport builds a two-blocker report for tests.
func sampleReport() *ScoreReport {
	r := NewScoreReport("inverse-square")
	r.WebsiteCount = 50
	r.TrackerCount = 120
	r.Categories = []string{"news", "shopping"}
	r.Blockers = []BlockerScore{
		{
			Name:  "ghostery",
			Total: 12.5,
			Categories: []CategoryScore{
				{Name: "news", Score: 4.25},
				{Name: "shopping", Score: 1.75},
			},
		},
		{
			Name:  "ublock",
			Total: 15.0,
			Categories: []CategoryScore{
				{Name: "news", Score: 5.0},
				{Name: "shopping", Score: 2.0},
			},
		},
	}
	return r
}

// TestScoreReportLookups tests the helper accessors.
func TestScoreReportLookups(t *testing.T) {
	t.Parallel()

	r := sampleReport()

	t.Run("blocker lookup", func(t *testing.T) {
		t.Parallel()

		b, ok := r.Blocker("ghostery")
		if !ok {
			t.Fatal("Blocker(ghostery) not found")
		}
		if b.Total != 12.5 {
			t.Errorf("Total = %f, want 12.5", b.Total)
		}

		if _, ok := r.Blocker("adguard"); ok {
			t.Error("Blocker(adguard) should not be found")
		}
	})

	t.Run("blocker names keep order", func(t *testing.T) {
		t.Parallel()

		names := r.BlockerNames()
		if len(names) != 2 || names[0] != "ghostery" || names[1] != "ublock" {
			t.Errorf("BlockerNames() = %v, want [ghostery ublock]", names)
		}
	})

	t.Run("category lookup", func(t *testing.T) {
		t.Parallel()

		b, _ := r.Blocker("ublock")
		score, ok := b.Category("news")
		if !ok || score != 5.0 {
			t.Errorf("Category(news) = %f, %v; want 5.0, true", score, ok)
		}

		if _, ok := b.Category("sports"); ok {
			t.Error("Category(sports) should not be found")
		}
	})

	t.Run("total score sums blockers", func(t *testing.T) {
		t.Parallel()

		if got := r.TotalScore(); math.Abs(got-27.5) > 1e-9 {
			t.Errorf("TotalScore() = %f, want 27.5", got)
		}
	})
}

// TestScoreReportJSON tests that a report survives the JSON round trip used
// by database storage.
func TestScoreReportJSON(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Datasets = []DatasetInfo{
		{Blocker: "ghostery", Path: "ghostery.csv", Fingerprint: "abc123", WebsiteCount: 50},
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded ScoreReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decoded.EvalFunc != "inverse-square" {
		t.Errorf("EvalFunc = %q, want inverse-square", decoded.EvalFunc)
	}
	if len(decoded.Blockers) != 2 {
		t.Fatalf("Blockers = %d entries, want 2", len(decoded.Blockers))
	}
	if decoded.Datasets[0].Fingerprint != "abc123" {
		t.Errorf("Fingerprint = %q, want abc123", decoded.Datasets[0].Fingerprint)
	}
	b, ok := decoded.Blocker("ghostery")
	if !ok {
		t.Fatal("Blocker(ghostery) missing after round trip")
	}
	if score, _ := b.Category("news"); score != 4.25 {
		t.Errorf("Category(news) = %f, want 4.25", score)
	}
}
