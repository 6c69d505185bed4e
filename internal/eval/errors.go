package eval

import "errors"

// Aggregation errors.
// These sentinels are wrapped with contextual detail via fmt.Errorf("%w: ...")
// at the point of failure, so callers can use errors.Is() for programmatic
// handling while still seeing the offending domain or blocker in the message.
var (
	// ErrRankConflict is returned when an origin domain is observed at a
	// different line number than the one already recorded for it. A website
	// must map to the same popularity rank across all ingested files; a
	// mismatch means the input files disagree about the ranking and the
	// whole Aggregator must be discarded.
	ErrRankConflict = errors.New("rank conflict")

	// ErrUnknownBlocker is returned when a score is requested for a blocker
	// name that was never ingested. Returning zero silently would make a
	// typo in a blocker name indistinguishable from a blocker that found
	// nothing.
	ErrUnknownBlocker = errors.New("unknown blocker")

	// ErrMalformedLine is returned when an observation line has no origin
	// domain field. Failing fast here avoids masking corrupt input.
	ErrMalformedLine = errors.New("malformed line")
)
