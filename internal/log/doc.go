// Package log provides the logging setup for blockerbench, built on top of
// the standard slog package.
//
// The PrecisionHandler formats every float64 attribute with fixed 3-decimal
// precision so that scores logged during a run match the numbers printed in
// the report tables. Without it, slog would render raw float64 values
// (0.25000000000000006-style artifacts included), making logs and reports
// disagree about the same score.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//	logger.Info("blocker scored", "blocker", "ghostery", "score", 12.3456789)
//	// renders score=12.346
//
//	slog.SetDefault(logger)
package log
