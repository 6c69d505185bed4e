// Package eval implements the aggregation and scoring engine at the heart
// of blockerbench.
//
// The engine ingests one observation file per blocker, deduplicates tracker
// sightings per origin website, and maintains a global tracker-frequency
// index counting the number of distinct websites each tracker has been
// observed on by any blocker. Scores are computed over an arbitrary subset
// of origin websites using a pluggable evaluation function.
//
// # Usage
//
//	agg := eval.NewAggregator()
//	if err := agg.IngestFile("ghostery", "ghostery.csv"); err != nil {
//	    return err
//	}
//	score, err := agg.Score("ghostery")
//
// The Aggregator is strictly single-threaded. Callers that parse input
// files concurrently must serialize all Aggregator mutation; see the
// ingest package for a loader that does this correctly.
package eval
