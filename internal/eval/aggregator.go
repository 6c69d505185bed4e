package eval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// trackerSet is a set of tracker identifiers. Trackers are opaque strings;
// no structure is imposed beyond equality.
type trackerSet map[string]struct{}

// Aggregator accumulates tracker observations from blocker result files and
// answers weighted scoring queries over them.
//
// Design decision: all state lives on this struct and is owned by the
// caller, rather than living in package-level variables. This keeps tests
// independent and makes the "discard on rank conflict" contract explicit:
// a failed ingestion leaves the Aggregator partially mutated, and the
// caller must throw it away.
type Aggregator struct {
	// blockerResults maps blocker name -> origin domain -> trackers that
	// blocker reported on the origin.
	blockerResults map[string]map[string]trackerSet

	// websiteTrackers maps origin domain -> every tracker any blocker has
	// reported on it. It is the dedup set that keeps trackerFrequency
	// counting each (origin, tracker) pair exactly once.
	websiteTrackers map[string]trackerSet

	// trackerFrequency maps tracker -> the number of distinct origin
	// domains it has been observed on, across all blockers combined.
	trackerFrequency map[string]int

	// ranks maps origin domain -> popularity rank (1 = most popular).
	// First ingestion wins; later files must agree on the rank.
	ranks map[string]int

	// evalFunc scores a single (rank, frequency) observation.
	evalFunc Func
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithFunc sets the evaluation function used by scoring queries.
// The default is InverseSquare.
func WithFunc(f Func) Option {
	return func(a *Aggregator) {
		if f != nil {
			a.evalFunc = f
		}
	}
}

// NewAggregator creates an empty Aggregator with the default evaluation
// function.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		blockerResults:   make(map[string]map[string]trackerSet),
		websiteTrackers:  make(map[string]trackerSet),
		trackerFrequency: make(map[string]int),
		ranks:            make(map[string]int),
		evalFunc:         InverseSquare,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// SetFunc replaces the evaluation function used by subsequent scoring
// queries. Passing nil is ignored.
func (a *Aggregator) SetFunc(f Func) {
	if f != nil {
		a.evalFunc = f
	}
}

// IngestFile ingests one blocker's observation file. See Ingest for the
// format and the mutation semantics.
func (a *Aggregator) IngestFile(blocker, path string) error {
	f, err := os.Open(path) //nolint:gosec // User-provided data file path is intentional
	if err != nil {
		return fmt.Errorf("failed to open observation file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	if err := a.Ingest(blocker, f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Ingest reads one blocker's observations, one website per line:
//
//	origin_domain,tracker1,tracker2,...,trackerN
//
// The 1-based line number is the website's popularity rank. Blank lines are
// skipped but still consume their line number, so the rank of every other
// website is unaffected. Empty tracker fields (trailing commas, whitespace
// artifacts) are ignored.
//
// Ingest mutates three structures: the blocker's result table, the
// per-website dedup set, and the global frequency index. A tracker's
// frequency is incremented only the first time it is seen on a given origin
// by ANY blocker, so ingesting further blockers (or the same file twice)
// never inflates frequencies.
//
// It returns ErrRankConflict if an origin domain appears at a different
// line number than previously recorded, and ErrMalformedLine if a non-blank
// line has no origin domain.
func (a *Aggregator) Ingest(blocker string, r io.Reader) error {
	// Register the blocker even if the file turns out to be empty.
	// A blocker that reported nothing scores zero; it is not unknown.
	results, ok := a.blockerResults[blocker]
	if !ok {
		results = make(map[string]trackerSet)
		a.blockerResults[blocker] = results
	}

	scanner := bufio.NewScanner(r)
	rank := 0
	for scanner.Scan() {
		rank++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, ",")
		origin := fields[0]
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("%w: line %d has no origin domain", ErrMalformedLine, rank)
		}

		if recorded, seen := a.ranks[origin]; seen {
			if recorded != rank {
				return fmt.Errorf("%w: %q recorded at rank %d, observed at rank %d",
					ErrRankConflict, origin, recorded, rank)
			}
		} else {
			a.ranks[origin] = rank
		}

		for _, tracker := range fields[1:] {
			if strings.TrimSpace(tracker) == "" {
				continue
			}

			seen, ok := a.websiteTrackers[origin]
			if !ok {
				seen = make(trackerSet)
				a.websiteTrackers[origin] = seen
			}
			if _, dup := seen[tracker]; !dup {
				seen[tracker] = struct{}{}
				a.trackerFrequency[tracker]++
			}

			set, ok := results[origin]
			if !ok {
				set = make(trackerSet)
				results[origin] = set
			}
			set[tracker] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read observations: %w", err)
	}

	return nil
}

// Frequency returns the number of distinct origin domains the tracker has
// been observed on, across all blockers combined. Trackers never ingested
// have frequency 0; that is an answer, not an error.
func (a *Aggregator) Frequency(tracker string) int {
	return a.trackerFrequency[tracker]
}

// Score computes the blocker's score over every website it reported:
// the sum of evalFunc(rank(origin), frequency(tracker)) for each
// (origin, tracker) pair in the blocker's result table.
// It returns ErrUnknownBlocker for a name that was never ingested.
func (a *Aggregator) Score(blocker string) (float64, error) {
	return a.SubsetScore(blocker, a.Origins())
}

// SubsetScore computes the blocker's score restricted to the given origin
// domains. Origins the blocker reported but that are missing from the
// subset contribute nothing; so do subset origins the blocker never saw.
// It returns ErrUnknownBlocker for a name that was never ingested.
func (a *Aggregator) SubsetScore(blocker string, origins []string) (float64, error) {
	results, ok := a.blockerResults[blocker]
	if !ok {
		return 0, fmt.Errorf("%w: %q was never ingested", ErrUnknownBlocker, blocker)
	}

	subset := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		subset[origin] = struct{}{}
	}

	score := 0.0
	for origin, trackers := range results {
		if _, ok := subset[origin]; !ok {
			continue
		}
		rank := a.ranks[origin]
		for tracker := range trackers {
			score += a.evalFunc(rank, a.trackerFrequency[tracker])
		}
	}

	return score, nil
}

// Blockers returns the names of all ingested blockers in sorted order.
func (a *Aggregator) Blockers() []string {
	names := make([]string, 0, len(a.blockerResults))
	for name := range a.blockerResults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Origins returns every origin domain recorded by any ingestion, in sorted
// order.
func (a *Aggregator) Origins() []string {
	origins := make([]string, 0, len(a.ranks))
	for origin := range a.ranks {
		origins = append(origins, origin)
	}
	sort.Strings(origins)
	return origins
}

// Ranks returns a copy of the origin -> rank table.
func (a *Aggregator) Ranks() map[string]int {
	out := make(map[string]int, len(a.ranks))
	for origin, rank := range a.ranks {
		out[origin] = rank
	}
	return out
}

// Rank returns the popularity rank recorded for the origin domain.
// The second return value reports whether the domain has been seen.
func (a *Aggregator) Rank(origin string) (int, bool) {
	rank, ok := a.ranks[origin]
	return rank, ok
}

// TrackerCount returns the number of distinct trackers observed across all
// ingested files.
func (a *Aggregator) TrackerCount() int {
	return len(a.trackerFrequency)
}

// WebsiteCount returns the number of distinct origin domains observed
// across all ingested files.
func (a *Aggregator) WebsiteCount() int {
	return len(a.ranks)
}

// WebsiteTrackers returns the origin -> trackers mapping accumulated across
// all blockers, with tracker lists sorted. This is the view serialized by
// the persistence layer for reuse by other tools.
func (a *Aggregator) WebsiteTrackers() map[string][]string {
	out := make(map[string][]string, len(a.websiteTrackers))
	for origin, set := range a.websiteTrackers {
		trackers := make([]string, 0, len(set))
		for tracker := range set {
			trackers = append(trackers, tracker)
		}
		sort.Strings(trackers)
		out[origin] = trackers
	}
	return out
}

// BlockerResults returns the origin -> trackers mapping a single blocker
// reported, with tracker lists sorted.
// It returns ErrUnknownBlocker for a name that was never ingested.
func (a *Aggregator) BlockerResults(blocker string) (map[string][]string, error) {
	results, ok := a.blockerResults[blocker]
	if !ok {
		return nil, fmt.Errorf("%w: %q was never ingested", ErrUnknownBlocker, blocker)
	}

	out := make(map[string][]string, len(results))
	for origin, set := range results {
		trackers := make([]string, 0, len(set))
		for tracker := range set {
			trackers = append(trackers, tracker)
		}
		sort.Strings(trackers)
		out[origin] = trackers
	}
	return out, nil
}
