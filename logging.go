package taskwatch

import (
	"os"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Logger is the narrow logging surface the Aggregator depends on - just
// enough of logiface.Logger's Builder-returning methods to log a leveled
// message with structured fields, so callers can supply any
// logiface.Logger[E] instantiation (any backend) without this package
// depending on a concrete event type E.
type Logger interface {
	Debug() *logiface.Builder[*izerolog.Event]
	Warn() *logiface.Builder[*izerolog.Event]
	Error() *logiface.Builder[*izerolog.Event]
}

// defaultLogger builds a logiface.Logger backed by zerolog writing to
// stderr, the same pairing the teacher's logiface-zerolog module (imported
// here as izerolog) exists to provide. It is the Builder's default, and is
// deliberately quiet (info level) absent explicit configuration.
func defaultLogger() Logger {
	z := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return loggerAdapter{l: izerolog.L.New(izerolog.WithZerolog(z))}
}

// NewLogger wraps an already-configured logiface logger (any backend
// option set, e.g. izerolog.WithZerolog with a custom writer/level) for use
// with Builder.WithLogger.
func NewLogger(l *logiface.Logger[*izerolog.Event]) Logger {
	return loggerAdapter{l: l}
}

// Warn is Logger.Warn, since logiface names it after zerolog's own
// severity vocabulary (Warning), not Go's "Warn" - this adapter exists so
// callers of this package can write the more common short name.
type loggerAdapter struct {
	l *logiface.Logger[*izerolog.Event]
}

func (a loggerAdapter) Debug() *logiface.Builder[*izerolog.Event] { return a.l.Debug() }
func (a loggerAdapter) Warn() *logiface.Builder[*izerolog.Event]  { return a.l.Warning() }
func (a loggerAdapter) Error() *logiface.Builder[*izerolog.Event] { return a.l.Err() }
