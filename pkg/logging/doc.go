// Package logging provides structured logging configuration for oidctest.
//
// This package wraps log/slog so the provider, the fixture managers and the
// CLI all log the same way.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("provider listening", "issuer", issuer)
//
// Inside tests, route output through the test log so it is only printed for
// failing tests (or with -v):
//
//	logger := logging.ForTest(t, logging.LevelDebug)
//
// Components accept a *slog.Logger in their constructor. If none is
// provided they fall back to logging.Nop().
package logging
