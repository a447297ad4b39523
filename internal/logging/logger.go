// Package logging wraps log/slog with per-cause throttling for code that
// runs inside a tight control loop.
package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultThrottle is the minimum spacing between two records with the same key.
const DefaultThrottle = 5 * time.Second

type Logger struct {
	*slog.Logger

	clock      Clock
	interval   time.Duration
	mu         sync.Mutex
	last       map[string]time.Time
	suppressed map[string]int
}

type Option func(*Logger)

func WithClock(c Clock) Option { return func(l *Logger) { l.clock = c } }

func WithInterval(d time.Duration) Option { return func(l *Logger) { l.interval = d } }

// New wraps base. A nil base uses slog.Default().
func New(base *slog.Logger, opts ...Option) *Logger {
	if base == nil {
		base = slog.Default()
	}
	l := &Logger{
		Logger:     base,
		clock:      RealClock{},
		interval:   DefaultThrottle,
		last:       make(map[string]time.Time),
		suppressed: make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewText builds a text logger writing to w at level and above.
func NewText(w io.Writer, level slog.Level, opts ...Option) *Logger {
	return New(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), opts...)
}

func Discard() *Logger {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// WarnThrottled logs at WARN unless key was logged within the throttle
// interval. It reports whether a record was emitted.
func (l *Logger) WarnThrottled(key, msg string, args ...any) bool {
	return l.throttled(slog.LevelWarn, key, msg, args...)
}

func (l *Logger) ErrorThrottled(key, msg string, args ...any) bool {
	return l.throttled(slog.LevelError, key, msg, args...)
}

func (l *Logger) throttled(level slog.Level, key, msg string, args ...any) bool {
	now := l.clock.Now()

	l.mu.Lock()
	if last, ok := l.last[key]; ok && now.Sub(last) < l.interval {
		l.suppressed[key]++
		l.mu.Unlock()
		return false
	}
	dropped := l.suppressed[key]
	l.last[key] = now
	delete(l.suppressed, key)
	l.mu.Unlock()

	if dropped > 0 {
		args = append(args, slog.Int("suppressed", dropped))
	}
	l.Log(context.Background(), level, msg, args...)
	return true
}
