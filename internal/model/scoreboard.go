package model

import "time"

// ScoreReport is the result of one scoring run.
// It carries everything the report writers and the database need: which
// files were ingested, which evaluation function was used, and every
// blocker's full and per-category scores.
type ScoreReport struct {
	// GeneratedAt is the timestamp when the run was scored.
	GeneratedAt time.Time `json:"generated_at"`

	// EvalFunc is the name of the evaluation function used
	// ("inverse-square" or "linear").
	EvalFunc string `json:"eval_func"`

	// WebsiteCount is the number of distinct origin domains observed
	// across all ingested files.
	WebsiteCount int `json:"website_count"`

	// TrackerCount is the number of distinct trackers observed across all
	// ingested files.
	TrackerCount int `json:"tracker_count"`

	// Categories holds the category names in the order they appear in the
	// category file. Empty when no category file was supplied.
	Categories []string `json:"categories,omitempty"`

	// Datasets summarizes the ingested observation files in ingestion order.
	Datasets []DatasetInfo `json:"datasets,omitempty"`

	// Blockers holds one entry per scored blocker, in ingestion order.
	Blockers []BlockerScore `json:"blockers"`
}

// DatasetInfo summarizes one ingested observation file.
type DatasetInfo struct {
	// Blocker is the blocker name the file was ingested under.
	Blocker string `json:"blocker"`

	// Path is the observation file location.
	Path string `json:"path"`

	// Fingerprint is the SHA3-256 hash of the file content, hex encoded.
	// It identifies the exact dataset a stored run was computed from.
	Fingerprint string `json:"fingerprint"`

	// WebsiteCount is the number of websites listed in the file.
	WebsiteCount int `json:"website_count"`
}

// BlockerScore holds one blocker's scores.
type BlockerScore struct {
	// Name identifies the blocker.
	Name string `json:"name"`

	// Total is the score over all observed websites.
	Total float64 `json:"total"`

	// Categories holds the per-category subset scores, in category file
	// order.
	Categories []CategoryScore `json:"categories,omitempty"`
}

// CategoryScore is one blocker's subset score for one website category.
type CategoryScore struct {
	// Name is the category name from the category file.
	Name string `json:"name"`

	// Score is the subset score over the category's origin domains.
	Score float64 `json:"score"`
}

// NewScoreReport creates an empty ScoreReport stamped with the current time
// and the evaluation function name.
func NewScoreReport(evalFunc string) *ScoreReport {
	return &ScoreReport{
		GeneratedAt: time.Now(),
		EvalFunc:    evalFunc,
	}
}

// Blocker returns the BlockerScore with the given name.
// The second return value reports whether the blocker is in the report.
func (r *ScoreReport) Blocker(name string) (BlockerScore, bool) {
	for _, b := range r.Blockers {
		if b.Name == name {
			return b, true
		}
	}
	return BlockerScore{}, false
}

// BlockerNames returns the blocker names in report order.
func (r *ScoreReport) BlockerNames() []string {
	names := make([]string, 0, len(r.Blockers))
	for _, b := range r.Blockers {
		names = append(names, b.Name)
	}
	return names
}

// TotalScore returns the sum of all blockers' total scores.
// Used for the score-share chart; zero means there is nothing to chart.
func (r *ScoreReport) TotalScore() float64 {
	sum := 0.0
	for _, b := range r.Blockers {
		sum += b.Total
	}
	return sum
}

// Category returns the blocker's subset score for the named category.
// The second return value reports whether the category is present.
func (b BlockerScore) Category(name string) (float64, bool) {
	for _, c := range b.Categories {
		if c.Name == name {
			return c.Score, true
		}
	}
	return 0, false
}
