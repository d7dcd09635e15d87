package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

const timeLayout = "2006/01/02 15:04:05"

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Ok(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Fatal(format string, args ...interface{})

	Prefix(prefix string) Logger
}

var (
	debugTag = color.New(color.FgHiBlack).SprintFunc()
	infoTag  = color.New(color.FgCyan).SprintFunc()
	okTag    = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnTag  = color.New(color.FgYellow, color.Bold).SprintFunc()
	fatalTag = color.New(color.FgRed, color.Bold).SprintFunc()
)

type defaultLogger struct {
	out    io.Writer
	mu     *sync.Mutex
	level  Level
	prefix string
	exit   func(code int)
}

// NewDefaultLogger writes to the colour-aware stdout at info level.
func NewDefaultLogger() Logger {
	return NewLogger(color.Output, LevelInfo)
}

func NewLogger(out io.Writer, level Level) Logger {
	return &defaultLogger{
		out:   out,
		mu:    new(sync.Mutex),
		level: level,
		exit:  os.Exit,
	}
}

func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warn", "warning", "error":
		return LevelWarn
	default:
		return LevelInfo
	}
}

func (l *defaultLogger) Prefix(prefix string) Logger {
	return &defaultLogger{
		out:    l.out,
		mu:     l.mu,
		level:  l.level,
		prefix: prefix,
		exit:   l.exit,
	}
}

func (l *defaultLogger) Debug(format string, args ...interface{}) {
	if l.level > LevelDebug {
		return
	}
	l.print(debugTag("[DEBUG]"), format, args...)
}

func (l *defaultLogger) Info(format string, args ...interface{}) {
	if l.level > LevelInfo {
		return
	}
	l.print(infoTag("[INFO]"), format, args...)
}

func (l *defaultLogger) Ok(format string, args ...interface{}) {
	if l.level > LevelInfo {
		return
	}
	l.print(okTag("[OK]"), format, args...)
}

func (l *defaultLogger) Warn(format string, args ...interface{}) {
	l.print(warnTag("[WARN]"), format, args...)
}

func (l *defaultLogger) Fatal(format string, args ...interface{}) {
	l.print(fatalTag("[FATAL]"), format, args...)
	l.exit(1)
}

func (l *defaultLogger) print(tag, format string, args ...interface{}) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.prefix != "" {
		fmt.Fprintf(l.out, "%s %s %s: %s\n", time.Now().Format(timeLayout), tag, l.prefix, text)
		return
	}
	fmt.Fprintf(l.out, "%s %s %s\n", time.Now().Format(timeLayout), tag, text)
}
