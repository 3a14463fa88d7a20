// Package log provides the application's slog setup.
//
// This package extends slog to provide:
//   - Shortening of paths under the user's home directory to "~"
//   - Configurable log levels with verbose mode support
//   - Consistent text and JSON formatting across the application
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("crawled corpus",
//	    "dir", "/home/alice/sites/docs", // logged as "~/sites/docs"
//	    "documents", 42,
//	)
//
//	slog.SetDefault(logger)
package log
