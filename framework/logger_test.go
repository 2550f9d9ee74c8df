package framework

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLoggerLevels(t *testing.T) {
	var buf strings.Builder
	l := &ConsoleLogger{Level: LevelWarn}
	l.SetOutput(&buf)

	l.Debugf("quiet %d", 1)
	l.Infof("quiet %d", 2)
	l.Warnf("loud %d", 3)
	l.Errorf("loud %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud 3")
	assert.Contains(t, out, "loud 4")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "ERROR")
}

func TestConsoleLoggerDefaultLevel(t *testing.T) {
	var buf strings.Builder
	l := &ConsoleLogger{} // unset level behaves as info
	l.SetOutput(&buf)
	l.Debugf("hidden")
	l.Infof("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestCapturingLogger(t *testing.T) {
	var l CapturingLogger
	l.Infof("hello %s", "world")
	l.Errorf("boom")

	msgs := l.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello world", msgs[0])
	assert.Equal(t, "boom", msgs[1])

	out := l.Output()
	require.Len(t, out, 2)
	assert.Equal(t, LevelInfo, out[0].Level)
	assert.Equal(t, LevelError, out[1].Level)
	assert.False(t, out[0].Time.IsZero())

	// the returned slice is a copy
	out[0].Message = "mutated"
	assert.Equal(t, "hello world", l.Messages()[0])
}
