// Package journal writes the append-only monitoring log. Each entry is one
// complete text line; the file is opened, appended to, and closed per write.
package journal

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Level is the label recorded in a journal line.
type Level string

const (
	LevelOK          Level = "OK"
	LevelSoftWarning Level = "SOFT_WARNING"
	LevelHardAlarm   Level = "HARD_ALARM"
	LevelUserInfo    Level = "USER_INFO"
)

const timeLayout = "2006-01-02 15:04:05"

// Writer appends formatted entries to the journal file.
type Writer struct {
	path     string
	hostname string
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Writer for the journal at path. Pass nil logger to use the
// default logger.
func New(path, hostname string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{path: path, hostname: hostname, logger: logger, now: time.Now}
}

// Append writes one journal line. The write is a single append so concurrent
// invocations interleave at line granularity only. The error is returned for
// the caller to inspect; the entry is still echoed to the logger either way.
func (w *Writer) Append(level Level, info string, value, hardLimit float64) error {
	line := fmt.Sprintf("[%s] Host: %s | LEVEL: %s | INFO: %s | VALUE: %g | HARD_LIMIT: %g",
		w.now().Format(timeLayout), w.hostname, level, info, value, hardLimit)

	w.logger.Info("journal entry", "level", string(level), "line", line)

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal %q: %w", w.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("appending to journal %q: %w", w.path, err)
	}
	return nil
}
