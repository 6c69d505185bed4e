// Package ingest loads blocker observation files into the scoring engine.
//
// The Loader reads all files concurrently (file I/O parallelizes safely)
// but applies them to the Aggregator strictly sequentially, in the order
// the sources were given. The frequency index has a check-then-write step
// on the per-(origin, tracker) dedup set, so its mutation must stay
// serialized; keeping all Aggregator calls on the caller's goroutine makes
// that discipline structural instead of lock-based.
//
// Each loaded file is fingerprinted with SHA3-256 so that stored runs can
// be traced back to the exact dataset they were computed from.
package ingest
