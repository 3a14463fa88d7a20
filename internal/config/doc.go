// Package config provides configuration structures and utilities for
// pagerank. It defines the ranking parameters, corpus discovery settings,
// the optional .pagerank YAML file with per-corpus overrides, and report
// output preferences.
package config
