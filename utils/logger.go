package utils

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

type Logger = slog.Logger

func NewLogger(level slog.Level) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(h)
}

// ParseLevel accepts debug, info, warn and error; anything else is info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// AuditEvent records one committed change to the user collection.
type AuditEvent struct {
	Action    string
	UserID    int64
	UserName  string
	Revision  uint64
	RequestID string
	At        time.Time
}

type AuditLogger struct {
	log *Logger
	ch  chan AuditEvent
}

func NewAuditLogger(log *Logger, buffer int) *AuditLogger {
	return &AuditLogger{
		log: log,
		ch:  make(chan AuditEvent, buffer),
	}
}

// Log never blocks; the event is dropped when the buffer is full. A zero At is
// stamped with the current time.
func (a *AuditLogger) Log(ev AuditEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case a.ch <- ev:
	default:
	}
}

func (a *AuditLogger) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				a.log.Info("audit logger stopped")
				return
			case ev := <-a.ch:
				a.log.Info("user audit",
					slog.String("action", ev.Action),
					slog.Int64("user_id", ev.UserID),
					slog.String("user_name", ev.UserName),
					slog.Uint64("revision", ev.Revision),
					slog.String("request_id", ev.RequestID),
					slog.Time("at", ev.At.UTC()),
				)
			}
		}
	}()
}

// ErrorReporter logs errors raised off the request path, such as a failed
// directory load. Reports that do not fit the buffer are counted and the count
// is attached to the next logged error.
type ErrorReporter struct {
	log     *Logger
	ch      chan error
	dropped atomic.Uint64
}

func NewErrorReporter(log *Logger, buffer int) *ErrorReporter {
	return &ErrorReporter{
		log: log,
		ch:  make(chan error, buffer),
	}
}

func (e *ErrorReporter) Report(err error) {
	if err == nil {
		return
	}
	select {
	case e.ch <- err:
	default:
		e.dropped.Add(1)
	}
}

// Dropped is the number of reports lost to a full buffer since the last
// logged error.
func (e *ErrorReporter) Dropped() uint64 {
	return e.dropped.Load()
}

func (e *ErrorReporter) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				e.log.Info("error reporter stopped", "dropped", e.dropped.Load())
				return
			case err := <-e.ch:
				attrs := []any{slog.String("err", err.Error())}
				if n := e.dropped.Swap(0); n > 0 {
					attrs = append(attrs, slog.Uint64("dropped", n))
				}
				e.log.Error("background error", attrs...)
			}
		}
	}()
}
