// Package logger provides the leveled logger used across seam for pool
// events, migration progress and SQL statement logging.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level controls which messages are emitted.
type Level int

const (
	LevelSilent Level = iota
	LevelError
	LevelWarn
	LevelInfo
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Logger is the logging interface accepted by the pool, the migration
// runner and the repository middlewares.
type Logger interface {
	SetLevel(level Level)
	SetFormat(format Format)
	SetOutput(w io.Writer)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	// SQL records one executed statement with its duration.
	SQL(sql string, duration time.Duration, args ...any)
}

// New returns the default logger: text format, info level, stderr.
func New() Logger {
	return &stdLogger{level: LevelInfo, format: FormatText, out: os.Stderr}
}

type stdLogger struct {
	mu     sync.Mutex
	level  Level
	format Format
	out    io.Writer
}

func (l *stdLogger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *stdLogger) SetFormat(format Format) {
	l.mu.Lock()
	l.format = format
	l.mu.Unlock()
}

func (l *stdLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

func (l *stdLogger) Info(format string, args ...any) {
	l.emit(LevelInfo, "INFO", fmt.Sprintf(format, args...), nil)
}

func (l *stdLogger) Warn(format string, args ...any) {
	l.emit(LevelWarn, "WARN", fmt.Sprintf(format, args...), nil)
}

func (l *stdLogger) Error(format string, args ...any) {
	l.emit(LevelError, "ERROR", fmt.Sprintf(format, args...), nil)
}

func (l *stdLogger) SQL(sql string, duration time.Duration, args ...any) {
	extra := map[string]any{
		"sql":      sql,
		"duration": duration.String(),
	}
	if len(args) > 0 {
		extra["args"] = fmt.Sprintf("%v", args)
	}
	l.emit(LevelInfo, "SQL", fmt.Sprintf("[%v] %s", duration, sql), extra)
}

func (l *stdLogger) emit(min Level, tag, msg string, extra map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level < min {
		return
	}
	now := time.Now()
	if l.format == FormatJSON {
		data := map[string]any{
			"time":  now.Format(time.RFC3339),
			"level": tag,
		}
		if extra != nil {
			for k, v := range extra {
				data[k] = v
			}
		} else {
			data["msg"] = msg
		}
		_ = json.NewEncoder(l.out).Encode(data)
		return
	}
	fmt.Fprintf(l.out, "[seam] %s %s: %s\n", now.Format("2006-01-02 15:04:05"), tag, msg)
}
