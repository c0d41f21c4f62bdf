package log

import (
	stdlog "log"
	"strings"
)

// stdlogWriter adapts a Logger to io.Writer for the standard library logger.
type stdlogWriter struct {
	logger Logger
}

func (w stdlogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		w.logger.Info(msg, Component("stdlog"))
	}
	return len(p), nil
}

// RedirectStdLog routes standard library log output (used by Pebble and other
// dependencies) through the provided Logger.
func RedirectStdLog(logger Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(stdlogWriter{logger: logger})
}

// ToStdLogger returns a *log.Logger that forwards to the provided Logger.
func ToStdLogger(logger Logger) *stdlog.Logger {
	return stdlog.New(stdlogWriter{logger: logger}, "", 0)
}
