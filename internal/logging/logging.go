// Package logging builds the apex/log loggers used across the pipeline.
package logging

import (
	"io"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/discard"

	"assesstime/ports"
)

// New returns a console logger writing to w at the named level
// (debug, info, warn, error). Unknown levels fall back to info.
func New(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if w == nil {
		w = os.Stderr
	}
	return &log.Logger{
		Handler: cli.New(w),
		Level:   lvl,
	}
}

// Discard returns a logger that drops everything.
func Discard() ports.Logger {
	return &log.Logger{Handler: discard.New(), Level: log.FatalLevel}
}

// WithRun scopes l to one run by attaching run and variant fields. Loggers
// that cannot carry fields are returned unchanged.
func WithRun(l ports.Logger, runID, variant string) ports.Logger {
	fl, ok := l.(interface {
		WithFields(log.Fielder) *log.Entry
	})
	if !ok {
		return l
	}
	return fl.WithFields(log.Fields{"run": runID, "variant": variant})
}
