package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/blockerbench/internal/config"
	"github.com/nao1215/blockerbench/internal/database"
	"github.com/nao1215/blockerbench/internal/eval"
	"github.com/nao1215/blockerbench/internal/ingest"
	"github.com/nao1215/blockerbench/internal/log"
	"github.com/nao1215/blockerbench/internal/model"
	"github.com/nao1215/blockerbench/internal/report"
)

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [name=path ...]",
		Short: "Score blockers from their observation files",
		Long: `Score ingests one observation file per blocker and prints a score table.

Each observation file is plain text, one website per line:

  origin_domain,tracker1,tracker2,...,trackerN

The line number is the website's popularity rank (1 = most popular), so
every file must list websites in the same ranked order. Each blocker's
score sums, over every (website, tracker) pair it reported,
eval(rank, frequency) where frequency is the number of distinct websites
the tracker was seen on by any blocker.

Arguments are either "name=path" pairs or bare paths, in which case the
blocker name is the file basename without its extension.

Examples:
  # Score two blockers named after their files
  blockerbench score ghostery.csv ublock.csv

  # Explicit blocker names
  blockerbench score ghostery=data/g.csv "privacy badger"=data/pb.csv

  # Per-category breakdown from a category file
  blockerbench score --categories website_by_type.yaml ghostery.csv ublock.csv

  # Favor broadly distributed trackers instead of popular websites
  blockerbench score --eval linear ghostery.csv ublock.csv

  # Persist the run for later comparison with 'blockerbench history'
  blockerbench score --save ghostery.csv ublock.csv

  # Write a Markdown report to a file as well as the terminal
  blockerbench score --markdown --output report.md ghostery.csv ublock.csv`,
		Args: cobra.ArbitraryArgs,
		RunE: runScoreCmd,
	}

	// Scoring flags
	cmd.Flags().StringP("categories", "C", "",
		"YAML file mapping category names to lists of origin domains")
	cmd.Flags().StringP("eval", "e", config.DefaultEvalFunc,
		"Evaluation function: inverse-square or linear")

	// Ingestion flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of observation files read concurrently")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Also write the report to this file path (creates directories if needed)")

	// Persistence flags
	cmd.Flags().BoolP("save", "s", false,
		"Save the run (ranks, observations, scores) to the database")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// runScoreCmd executes the score command.
func runScoreCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScore(ctx, cmd.OutOrStdout(), cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	for _, arg := range args {
		cfg.DataFiles = append(cfg.DataFiles, config.ParseDataFileArg(arg))
	}

	var err error

	cfg.CategoriesPath, err = cmd.Flags().GetString("categories")
	if err != nil {
		return nil, err
	}

	cfg.EvalFunc, err = cmd.Flags().GetString("eval")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.SaveToDB, err = cmd.Flags().GetBool("save")
	if err != nil {
		return nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runScore ingests all observation files, scores every blocker, and emits
// the report.
func runScore(ctx context.Context, stdout io.Writer, cfg *config.Config, logger *slog.Logger) error {
	evalFn, ok := eval.FuncByName(cfg.EvalFunc)
	if !ok {
		return config.ErrUnknownEvalFunc
	}

	agg := eval.NewAggregator(eval.WithFunc(evalFn))

	sources := make([]ingest.Source, 0, len(cfg.DataFiles))
	for _, df := range cfg.DataFiles {
		sources = append(sources, ingest.Source{Name: df.Name, Path: df.Path})
	}

	loader := ingest.NewLoader(
		ingest.WithConcurrency(cfg.Concurrency),
		ingest.WithLogger(logger),
	)
	datasets, err := loader.Load(ctx, agg, sources)
	if err != nil {
		return err
	}

	logger.Info("ingestion complete",
		"blockers", len(cfg.DataFiles),
		"websites", agg.WebsiteCount(),
		"trackers", agg.TrackerCount(),
	)

	var categories *config.Categories
	if cfg.CategoriesPath != "" {
		categories, err = config.LoadCategories(cfg.CategoriesPath)
		if err != nil {
			return err
		}
	}

	scoreReport, err := buildScoreReport(cfg, agg, categories, datasets)
	if err != nil {
		return err
	}

	if err := outputReport(stdout, cfg, scoreReport); err != nil {
		return err
	}

	if cfg.SaveToDB {
		if err := saveRun(ctx, cfg, agg, scoreReport, logger); err != nil {
			return err
		}
	}

	return nil
}

// buildScoreReport computes full and per-category scores for every blocker.
func buildScoreReport(cfg *config.Config, agg *eval.Aggregator, categories *config.Categories, datasets []model.DatasetInfo) (*model.ScoreReport, error) {
	scoreReport := model.NewScoreReport(cfg.EvalFunc)
	scoreReport.WebsiteCount = agg.WebsiteCount()
	scoreReport.TrackerCount = agg.TrackerCount()
	scoreReport.Datasets = datasets
	if categories != nil {
		scoreReport.Categories = categories.Names()
	}

	for _, df := range cfg.DataFiles {
		total, err := agg.Score(df.Name)
		if err != nil {
			return nil, err
		}

		blockerScore := model.BlockerScore{
			Name:  df.Name,
			Total: total,
		}

		if categories != nil {
			for _, category := range categories.Names() {
				sites, _ := categories.Sites(category)
				score, err := agg.SubsetScore(df.Name, sites)
				if err != nil {
					return nil, err
				}
				blockerScore.Categories = append(blockerScore.Categories, model.CategoryScore{
					Name:  category,
					Score: score,
				})
			}
		}

		scoreReport.Blockers = append(scoreReport.Blockers, blockerScore)
	}

	return scoreReport, nil
}

// outputReport writes the report in the requested format to stdout and,
// when configured, to the report file as well.
func outputReport(stdout io.Writer, cfg *config.Config, scoreReport *model.ScoreReport) error {
	destinations := []io.Writer{stdout}

	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Best effort close after write
		destinations = append(destinations, f)
	}

	writers := make([]report.Writer, 0, len(destinations))
	for _, dst := range destinations {
		writers = append(writers, newReportWriter(dst, cfg))
	}

	_, err := report.NewMultiWriter(writers...).Write(scoreReport)
	return err
}

// newReportWriter creates the writer for the configured output format.
func newReportWriter(dst io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(dst, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(dst)
	default:
		return report.NewSimpleWriter(dst)
	}
}

// saveRun persists the run to the database for later comparison.
func saveRun(ctx context.Context, cfg *config.Config, agg *eval.Aggregator, scoreReport *model.ScoreReport, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Best effort close

	if err := db.SaveWebsites(ctx, agg.Ranks()); err != nil {
		return err
	}

	for _, df := range cfg.DataFiles {
		results, err := agg.BlockerResults(df.Name)
		if err != nil {
			// Every data file was just ingested; this indicates a bug.
			if errors.Is(err, eval.ErrUnknownBlocker) {
				return fmt.Errorf("blocker %q missing after ingestion: %w", df.Name, err)
			}
			return err
		}
		if err := db.SaveObservations(ctx, df.Name, results); err != nil {
			return err
		}
	}

	runID, err := db.SaveRun(ctx, scoreReport)
	if err != nil {
		return err
	}

	logger.Info("saved score run",
		"run_id", runID,
		"db_dir", cfg.DBDir,
	)
	return nil
}
