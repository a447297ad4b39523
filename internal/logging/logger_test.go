package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(buf *bytes.Buffer, clk Clock) *Logger {
	return NewText(buf, slog.LevelDebug, WithClock(clk))
}

func TestThrottlePerKey(t *testing.T) {
	var buf bytes.Buffer
	clk := NewMockClock(time.Unix(0, 0))
	l := newTestLogger(&buf, clk)

	assert.True(t, l.WarnThrottled("state", "state not received"))
	assert.False(t, l.WarnThrottled("state", "state not received"))
	assert.True(t, l.WarnThrottled("ref", "reference not received"))

	clk.Advance(4 * time.Second)
	assert.False(t, l.WarnThrottled("state", "state not received"))

	clk.Advance(time.Second)
	assert.True(t, l.WarnThrottled("state", "state not received"))

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "msg="))
	assert.Contains(t, out, "suppressed=2")
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, NewMockClock(time.Unix(0, 0)))

	l.WarnThrottled("a", "warned")
	l.ErrorThrottled("b", "errored")

	out := buf.String()
	assert.Contains(t, out, "level=WARN msg=warned")
	assert.Contains(t, out, "level=ERROR msg=errored")
}

func TestCustomInterval(t *testing.T) {
	var buf bytes.Buffer
	clk := NewMockClock(time.Unix(0, 0))
	l := NewText(&buf, slog.LevelInfo, WithClock(clk), WithInterval(time.Second))

	assert.True(t, l.ErrorThrottled("k", "x"))
	clk.Advance(time.Second)
	assert.True(t, l.ErrorThrottled("k", "x"))
}

func TestDiscardAndDefault(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().WarnThrottled("k", "quiet")
	})
	assert.NotNil(t, New(nil).Logger)
}
