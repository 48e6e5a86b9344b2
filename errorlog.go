package chatsheet

import (
	"fmt"
	"log/slog"
	"os"
)

// DefaultErrorLogPath is where ingestion failures are appended.
const DefaultErrorLogPath = "error_log.txt"

// errorLog appends ingestion failures to a file. The file is created on the
// first record; an empty path disables it.
type errorLog struct {
	path   string
	file   *os.File
	logger *slog.Logger
}

func newErrorLog(path string) *errorLog {
	return &errorLog{path: path}
}

// record appends one entry. Failing to open the file is reported once on
// stderr and never breaks the caller.
func (l *errorLog) record(msg string, args ...any) {
	if l == nil || l.path == "" {
		return
	}
	if l.logger == nil {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "chatsheet: cannot open error log %s: %v\n", l.path, err)
			l.path = ""
			return
		}
		l.file = f
		l.logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	l.logger.Error(msg, args...)
}

func (l *errorLog) close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.logger = nil
	return err
}
