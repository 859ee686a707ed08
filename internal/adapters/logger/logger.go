package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger appends timestamped lines to a log file. Write failures are
// dropped: logging must never break a hook.
type FileLogger struct {
	mu   sync.Mutex
	path string
}

// NewFileLogger creates a logger writing to path, creating its directory
// on first use.
func NewFileLogger(path string) *FileLogger {
	return &FileLogger{path: path}
}

func (l *FileLogger) Debug(message string) {
	l.write("DEBUG", message)
}

func (l *FileLogger) Error(message string) {
	l.write("ERROR", message)
}

func (l *FileLogger) write(level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s] %s: %s\n", time.Now().Format("2006-01-02 15:04:05"), level, message)
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (NoOpLogger) Debug(string) {}
func (NoOpLogger) Error(string) {}
