package framework

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Log levels, least to most severe.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

var levelColor = map[string]*color.Color{
	LevelDebug: color.New(color.FgHiBlack),
	LevelInfo:  color.New(color.FgCyan),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed),
}

// ConsoleLogger writes leveled, colorized output to a terminal.  It is the
// default implementation of the logger role.
type ConsoleLogger struct {
	Level string `option:"log-level" help:"minimum level to display: debug, info, warn, error"`

	mu  sync.Mutex
	out io.Writer
}

func (l *ConsoleLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

func (l *ConsoleLogger) log(level string, format string, args ...interface{}) {
	min, ok := levelRank[strings.ToLower(l.Level)]
	if !ok {
		min = levelRank[LevelInfo]
	}
	if levelRank[level] < min {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.out
	if out == nil {
		out = os.Stderr
	}
	tag := levelColor[level].Sprintf("%-5s", strings.ToUpper(level))
	fmt.Fprintf(out, "%s %s %s\n",
		time.Now().Format("2006-01-02 15:04:05.000"),
		tag,
		fmt.Sprintf(format, args...))
}

func (l *ConsoleLogger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *ConsoleLogger) Infof(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *ConsoleLogger) Warnf(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *ConsoleLogger) Errorf(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// CapturedMessage is one log line recorded by a CapturingLogger.
type CapturedMessage struct {
	Time    time.Time
	Level   string
	Message string
}

// CapturingLogger records everything logged through it.  Used in tests and
// when an invocation's output needs to be replayed into its results.
type CapturingLogger struct {
	mu     sync.Mutex
	output []CapturedMessage
}

func (l *CapturingLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = append(l.output, CapturedMessage{
		Time:    time.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *CapturingLogger) Debugf(format string, args ...interface{}) {
	l.record(LevelDebug, format, args...)
}
func (l *CapturingLogger) Infof(format string, args ...interface{}) {
	l.record(LevelInfo, format, args...)
}
func (l *CapturingLogger) Warnf(format string, args ...interface{}) {
	l.record(LevelWarn, format, args...)
}
func (l *CapturingLogger) Errorf(format string, args ...interface{}) {
	l.record(LevelError, format, args...)
}

// Output returns a copy of everything recorded so far.
func (l *CapturingLogger) Output() []CapturedMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]CapturedMessage(nil), l.output...)
}

// Messages returns just the formatted text of everything recorded.
func (l *CapturingLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := make([]string, len(l.output))
	for i, c := range l.output {
		m[i] = c.Message
	}
	return m
}
