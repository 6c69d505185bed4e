// Package main provides the entry point for the blockerbench CLI.
//
// blockerbench scores ad/tracker blockers by comparing which trackers each
// blocker detected per website, weighted by website popularity rank and by
// tracker prevalence across the whole dataset.
//
// Usage:
//
//	blockerbench score ghostery.csv ublock.csv
//	blockerbench score --categories website_by_type.yaml ghostery=data/g.csv
//
// See --help for all available options.
package main

// main is the entry point for blockerbench.
func main() {
	Execute()
}
