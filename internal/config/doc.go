// Package config provides configuration structures and utilities for
// blockerbench. It defines the main run options populated from CLI flags,
// XDG directory helpers, and the loader for the website category file used
// by subset scoring.
package config
