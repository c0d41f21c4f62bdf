// Package log provides the structured logging facade used across the
// KeyUsageProfiler services.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that preserves the
// formatter/outputs pipeline, so the slog ecosystem remains reachable while
// output stays consistent across the codebase.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("ingest"))
//	l.Info("consumer started", log.Str("topic", "strokes"))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config supporting JSON
// or text formatting. To integrate with libraries expecting *log.Logger (for
// example Pebble), use RedirectStdLog.
package log
