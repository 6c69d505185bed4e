package ingest

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/blockerbench/internal/eval"
	"github.com/nao1215/blockerbench/internal/model"
)

// Source describes one blocker observation file to load.
type Source struct {
	// Name identifies the blocker the file belongs to.
	Name string

	// Path is the observation file location.
	Path string
}

// loaded is a file read into memory, waiting for sequential aggregation.
type loaded struct {
	source      Source
	data        []byte
	fingerprint string
}

// Loader reads observation files and feeds them to an Aggregator.
//
// Design decision: We read files with errgroup.SetLimit rather than a
// hand-rolled worker pool because errgroup handles the concurrency and
// first-error propagation correctly. Aggregation happens afterwards on the
// calling goroutine, in source order, so the engine itself never sees
// concurrent mutation.
type Loader struct {
	// concurrency is the maximum number of files read at once.
	concurrency int

	// logger is used for per-file progress logging.
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency sets the maximum number of files read concurrently.
// Default is 4 if not specified.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for load progress.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a new Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = slog.Default()
	}

	return l
}

// Load reads every source file and ingests them into the Aggregator in
// source order. It returns one DatasetInfo per source, also in source order.
//
// If any file cannot be read or parsed, Load returns the error and the
// Aggregator must be discarded; partially applied state is not rolled back.
func (l *Loader) Load(ctx context.Context, agg *eval.Aggregator, sources []Source) ([]model.DatasetInfo, error) {
	l.logger.Debug("loading observation files",
		"files", len(sources),
		"concurrency", l.concurrency,
	)

	// Pre-allocate so each goroutine writes its own slot and order is kept.
	files := make([]loaded, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			data, err := os.ReadFile(src.Path) //nolint:gosec // User-provided data file path is intentional
			if err != nil {
				return fmt.Errorf("failed to read observation file for %s: %w", src.Name, err)
			}

			sum := sha3.Sum256(data)
			files[i] = loaded{
				source:      src,
				data:        data,
				fingerprint: hex.EncodeToString(sum[:]),
			}

			l.logger.Debug("read observation file",
				"blocker", src.Name,
				"path", src.Path,
				"bytes", len(data),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Sequential application keeps the frequency-index mutation serialized
	// and makes "first file declares the rank" deterministic.
	infos := make([]model.DatasetInfo, 0, len(files))
	for _, f := range files {
		if err := agg.Ingest(f.source.Name, bytes.NewReader(f.data)); err != nil {
			return nil, fmt.Errorf("%s: %w", f.source.Path, err)
		}

		info := model.DatasetInfo{
			Blocker:      f.source.Name,
			Path:         f.source.Path,
			Fingerprint:  f.fingerprint,
			WebsiteCount: countWebsites(f.data),
		}
		infos = append(infos, info)

		l.logger.Debug("ingested observation file",
			"blocker", info.Blocker,
			"websites", info.WebsiteCount,
			"fingerprint", info.Fingerprint[:12],
		)
	}

	return infos, nil
}

// countWebsites counts the non-blank lines of an observation file.
func countWebsites(data []byte) int {
	count := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
