// Package database provides SQLite-based storage for ranking runs.
//
// This package implements RankDB, which stores:
//   - One record per ranking run with its parameters and the full report
//   - The score of every page under every ranking method of a run
//
// Keeping per-page scores in their own table lets history queries compare
// runs without decoding whole reports.
//
// The database is a single file opened through modernc.org/sqlite, which
// needs no CGO. WAL mode is enabled by default.
package database
