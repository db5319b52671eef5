// Package neuglog wraps charmbracelet/log with the fields the entropy
// engine needs to report: mode transitions and discarded rounds. It
// exists so the engine can take a *Logger as a dependency instead of
// reaching for package-level logging globals.
package neuglog

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"

	"github.com/go-neug/neug/entropy"
	"github.com/go-neug/neug/healthtest"
)

// Logger records engine diagnostics as structured log lines.
type Logger struct {
	l *log.Logger
}

// New wraps w in a Logger at the given level.
func New(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "neug",
	})
	return &Logger{l: l}
}

// ModeApplied reports that the producer adopted mode, either because a
// consumer requested it or because the ADC reported a transient error
// (waitErr non-nil) that forced a pipeline re-initialization.
func (lg *Logger) ModeApplied(mode entropy.Mode, waitErr error) {
	if waitErr != nil {
		lg.l.Warn("adc error, reinitializing pipeline", "mode", mode.String(), "err", waitErr)
		return
	}
	lg.l.Info("mode applied", "mode", mode.String())
}

// RoundDiscarded reports that a completed round was tainted by a
// health-test failure and discarded rather than published.
func (lg *Logger) RoundDiscarded(mode entropy.Mode, errState healthtest.Flag) {
	lg.l.Warn("round discarded",
		"mode", mode.String(),
		"rct", errState&healthtest.RepetitionCount != 0,
		"apt64", errState&healthtest.AdaptiveProportion64 != 0,
		"apt4k", errState&healthtest.AdaptiveProportion4096 != 0,
	)
}

// SnapshotFilename formats a rotated health-diagnostics dump filename
// for the given time, e.g. "neug-health-20260731-0914.log".
func SnapshotFilename(t time.Time) (string, error) {
	pattern, err := strftime.New("neug-health-%Y%m%d-%H%M.log")
	if err != nil {
		return "", err
	}
	return pattern.FormatString(t), nil
}
