// Package model defines the core data structures used throughout blockerbench.
//
// This package contains the following main types:
//   - ScoreReport: The result of one scoring run over all blockers
//   - BlockerScore: One blocker's total and per-category scores
//   - DatasetInfo: Summary of one ingested observation file
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (report, database) need to use these types,
// so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
