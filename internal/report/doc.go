// Package report formats scoring results for output.
//
// Three formats are supported:
//   - SimpleWriter: fixed-width text table for terminal display
//   - MarkdownWriter: GitHub-flavored Markdown with tables and a score chart
//   - JSONWriter: machine-readable output for tool integration
//
// All writers implement the Writer interface; MultiWriter fans one report
// out to several destinations (e.g. terminal and file) in a single call.
package report
