package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/blockerbench/internal/config"
	"github.com/nao1215/blockerbench/internal/database"
	"github.com/nao1215/blockerbench/internal/model"
)

// errNoRunsStored is returned when the database contains no saved runs.
var errNoRunsStored = errors.New("no saved score runs found (use 'blockerbench score --save' first)")

// Constants for score direction between runs.
const (
	scoreDirectionImproved  = "improved"
	scoreDirectionWorsened  = "worsened"
	scoreDirectionUnchanged = "unchanged"
)

// NewHistoryCmd creates the history command.
// This command inspects and compares score runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and compare saved score runs",
		Long: `History works with score runs saved by 'blockerbench score --save'.

Without flags it compares the latest two runs and shows, per blocker,
how the total score changed. A higher score means the blocker reported
more of the popular, widely distributed trackers.

Examples:
  # Compare the latest two runs
  blockerbench history

  # List all saved runs
  blockerbench history --list

  # Compare the latest run with a specific run by ID
  blockerbench history --with-run-id 3

  # List all blockers with stored observations
  blockerbench history --list-blockers

  # Show the 20 most widely observed trackers
  blockerbench history --top-trackers 20

  # Output the comparison in JSON format
  blockerbench history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List all saved score runs")
	cmd.Flags().BoolP("list-blockers", "L", false,
		"List all blockers with stored observations")
	cmd.Flags().Int("top-trackers", 0,
		"Show the N most widely observed trackers")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with a specific run by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")

	// Database flags
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Never create the database here: history is read-only, and an empty
	// database would only produce confusing "no runs" errors later.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database (run 'blockerbench score --save' first): %w", err)
	}
	defer db.Close() //nolint:errcheck // Best effort close

	ctx := context.Background()
	stdout := cmd.OutOrStdout()

	listRuns, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listRuns {
		return listScoreRuns(ctx, stdout, db)
	}

	listBlockers, err := cmd.Flags().GetBool("list-blockers")
	if err != nil {
		return err
	}
	if listBlockers {
		return listStoredBlockers(ctx, stdout, db)
	}

	topTrackers, err := cmd.Flags().GetInt("top-trackers")
	if err != nil {
		return err
	}
	if topTrackers > 0 {
		return listTopTrackers(ctx, stdout, db, topTrackers)
	}

	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	return runRunComparison(ctx, stdout, db, withRunID, jsonOutput)
}

// listScoreRuns lists all score runs stored in the database.
func listScoreRuns(ctx context.Context, w io.Writer, db *database.ScoreDB) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No score runs found in the database.")
		fmt.Fprintln(w, "\nUse 'blockerbench score --save' to save a run.")
		return nil
	}

	fmt.Fprintf(w, "Saved score runs (%d):\n\n", len(runs))
	fmt.Fprintf(w, "  %-6s  %-20s  %-16s  %s\n", "ID", "Date", "Eval Function", "Totals")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 70))

	for _, meta := range runs {
		fmt.Fprintf(w, "  %-6d  %-20s  %-16s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.EvalFunc,
			formatRunTotals(meta.Totals),
		)
	}

	fmt.Fprintln(w, "\nUse 'blockerbench history' to compare the latest two runs.")
	fmt.Fprintln(w, "Use 'blockerbench history --with-run-id <id>' to compare with a specific run.")

	return nil
}

// formatRunTotals formats the blocker totals map into a compact string.
func formatRunTotals(totals map[string]float64) string {
	if len(totals) == 0 {
		return "N/A"
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%.3f", name, totals[name]))
	}
	return strings.Join(parts, " ")
}

// listStoredBlockers lists all blockers with observations in the database.
func listStoredBlockers(ctx context.Context, w io.Writer, db *database.ScoreDB) error {
	blockers, err := db.ListBlockers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list blockers: %w", err)
	}

	if len(blockers) == 0 {
		fmt.Fprintln(w, "No blockers found in the database.")
		fmt.Fprintln(w, "\nUse 'blockerbench score --save' to save observations.")
		return nil
	}

	fmt.Fprintf(w, "Stored blockers (%d):\n\n", len(blockers))
	for _, blocker := range blockers {
		fmt.Fprintf(w, "  • %s\n", blocker)
	}

	return nil
}

// listTopTrackers lists the trackers observed on the most distinct websites.
func listTopTrackers(ctx context.Context, w io.Writer, db *database.ScoreDB, limit int) error {
	trackers, err := db.TopTrackers(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list top trackers: %w", err)
	}

	if len(trackers) == 0 {
		fmt.Fprintln(w, "No tracker observations found in the database.")
		fmt.Fprintln(w, "\nUse 'blockerbench score --save' to save observations.")
		return nil
	}

	fmt.Fprintf(w, "Top %d trackers by website frequency:\n\n", len(trackers))
	fmt.Fprintf(w, "  %-40s  %s\n", "Tracker", "Websites")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 50))
	for _, tf := range trackers {
		fmt.Fprintf(w, "  %-40s  %d\n", tf.Tracker, tf.Frequency)
	}

	return nil
}

// runRunComparison compares the latest run with its predecessor or with a
// specific run selected by ID.
func runRunComparison(ctx context.Context, w io.Writer, db *database.ScoreDB, withRunID int64, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		return errNoRunsStored
	}
	if len(runs) < 2 && withRunID == 0 {
		return fmt.Errorf("at least 2 saved runs are required for comparison (found %d)", len(runs))
	}

	// Latest run is always the current one
	currentReport, err := db.GetLatestRun(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest run: %w", err)
	}
	if currentReport == nil {
		return errNoRunsStored
	}

	var previousReport *model.ScoreReport
	if withRunID > 0 {
		previousReport, err = db.GetRunByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
	} else {
		previousReport, err = db.GetRunByID(ctx, runs[1].ID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", runs[1].ID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("run with ID %d not found", runs[1].ID)
		}
	}

	comparison := compareRuns(previousReport, currentReport)

	if jsonOutput {
		return outputComparisonJSON(w, comparison)
	}
	return outputComparisonText(w, comparison)
}

// RunComparison holds the result of comparing two score runs.
type RunComparison struct {
	// PreviousRun contains metadata about the older run.
	PreviousRun RunSummary `json:"previous_run"`

	// CurrentRun contains metadata about the newer run.
	CurrentRun RunSummary `json:"current_run"`

	// Blockers contains the per-blocker score changes, sorted by name.
	Blockers []BlockerDelta `json:"blockers"`
}

// RunSummary contains metadata about a run for comparison display.
type RunSummary struct {
	// GeneratedAt is when the run was scored.
	GeneratedAt time.Time `json:"generated_at"`

	// EvalFunc is the evaluation function the run used.
	EvalFunc string `json:"eval_func"`

	// WebsiteCount is the number of ranked websites in the run.
	WebsiteCount int `json:"website_count"`

	// TrackerCount is the number of distinct trackers in the run.
	TrackerCount int `json:"tracker_count"`
}

// BlockerDelta describes the score change of one blocker between two runs.
type BlockerDelta struct {
	// Name is the blocker name.
	Name string `json:"name"`

	// PreviousScore is the blocker's total score in the previous run.
	// Zero when the blocker is new in the current run.
	PreviousScore float64 `json:"previous_score"`

	// CurrentScore is the blocker's total score in the current run.
	// Zero when the blocker was removed from the current run.
	CurrentScore float64 `json:"current_score"`

	// Delta is CurrentScore minus PreviousScore.
	Delta float64 `json:"delta"`

	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// New reports whether the blocker appears only in the current run.
	New bool `json:"new,omitempty"`

	// Removed reports whether the blocker appears only in the previous run.
	Removed bool `json:"removed,omitempty"`
}

// compareRuns compares two score reports and generates a comparison result.
func compareRuns(previous, current *model.ScoreReport) *RunComparison {
	result := &RunComparison{
		PreviousRun: RunSummary{
			GeneratedAt:  previous.GeneratedAt,
			EvalFunc:     previous.EvalFunc,
			WebsiteCount: previous.WebsiteCount,
			TrackerCount: previous.TrackerCount,
		},
		CurrentRun: RunSummary{
			GeneratedAt:  current.GeneratedAt,
			EvalFunc:     current.EvalFunc,
			WebsiteCount: current.WebsiteCount,
			TrackerCount: current.TrackerCount,
		},
	}

	previousTotals := make(map[string]float64, len(previous.Blockers))
	for _, b := range previous.Blockers {
		previousTotals[b.Name] = b.Total
	}
	currentTotals := make(map[string]float64, len(current.Blockers))
	for _, b := range current.Blockers {
		currentTotals[b.Name] = b.Total
	}

	names := make(map[string]struct{}, len(previousTotals)+len(currentTotals))
	for name := range previousTotals {
		names[name] = struct{}{}
	}
	for name := range currentTotals {
		names[name] = struct{}{}
	}

	for name := range names {
		prevScore, inPrev := previousTotals[name]
		currScore, inCurr := currentTotals[name]

		delta := BlockerDelta{
			Name:          name,
			PreviousScore: prevScore,
			CurrentScore:  currScore,
			Delta:         currScore - prevScore,
			New:           !inPrev,
			Removed:       !inCurr,
		}
		switch {
		case currScore > prevScore:
			delta.Direction = scoreDirectionImproved
		case currScore < prevScore:
			delta.Direction = scoreDirectionWorsened
		default:
			delta.Direction = scoreDirectionUnchanged
		}

		result.Blockers = append(result.Blockers, delta)
	}

	slices.SortFunc(result.Blockers, func(a, b BlockerDelta) int {
		return strings.Compare(a.Name, b.Name)
	})

	return result
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *RunComparison) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(w io.Writer, result *RunComparison) error {
	fmt.Fprintln(w, "Score Run Comparison")
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "\nPrevious run: %s (%s, %d websites, %d trackers)\n",
		result.PreviousRun.GeneratedAt.Format("2006-01-02 15:04:05"),
		result.PreviousRun.EvalFunc,
		result.PreviousRun.WebsiteCount,
		result.PreviousRun.TrackerCount)
	fmt.Fprintf(w, "Current run:  %s (%s, %d websites, %d trackers)\n",
		result.CurrentRun.GeneratedAt.Format("2006-01-02 15:04:05"),
		result.CurrentRun.EvalFunc,
		result.CurrentRun.WebsiteCount,
		result.CurrentRun.TrackerCount)

	if result.PreviousRun.EvalFunc != result.CurrentRun.EvalFunc {
		fmt.Fprintln(w, "\nWarning: the runs used different evaluation functions; scores are not directly comparable.")
	}

	fmt.Fprintln(w, "\nBlocker Scores:")
	fmt.Fprintf(w, "  %-24s  %-12s  %-12s  %-12s  %s\n", "Blocker", "Previous", "Current", "Change", "Direction")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 72))

	for _, delta := range result.Blockers {
		fmt.Fprintf(w, "  %-24s  %-12.3f  %-12.3f  %-12s  %s\n",
			delta.Name,
			delta.PreviousScore,
			delta.CurrentScore,
			formatScoreDelta(delta.Delta),
			formatBlockerStatus(delta))
	}

	return nil
}

// formatBlockerStatus formats the direction of a blocker delta for display.
func formatBlockerStatus(delta BlockerDelta) string {
	switch {
	case delta.New:
		return "NEW"
	case delta.Removed:
		return "REMOVED"
	case delta.Direction == scoreDirectionImproved:
		return "IMPROVED"
	case delta.Direction == scoreDirectionWorsened:
		return "WORSENED"
	default:
		return "UNCHANGED"
	}
}

// formatScoreDelta formats a score delta with sign for display.
func formatScoreDelta(delta float64) string {
	s := strconv.FormatFloat(delta, 'f', 3, 64)
	if delta > 0 {
		return "+" + s
	}
	return s
}
