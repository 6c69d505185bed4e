// Package database provides SQLite-based persistence for scoring runs.
//
// It stores three things: the website rank table, the accumulated
// website-to-tracker observations (so other tools can reuse the mapping
// without re-parsing the observation files), and complete score reports as
// JSON for historical comparison via the history command.
//
// The database lives in the XDG data directory by default and uses
// modernc.org/sqlite, a pure-Go driver that needs no cgo.
package database
