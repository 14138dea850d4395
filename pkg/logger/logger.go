// Package logger provides the shared run log used by the engines.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level filters log output.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu       sync.Mutex
	out      *log.Logger
	logFile  *os.File
	minLevel = LevelInfo
)

// Init opens (or creates) the log file and resets the global logger.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	logFile = f
	out = log.New(f, "", log.Ltime|log.Lmicroseconds)
	return nil
}

// SetLevel sets the minimum level that gets written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
		out = nil
	}
}

func write(l Level, tag, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if out == nil || l < minLevel {
		return
	}
	out.Printf(tag+format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) { write(LevelDebug, "[DEBUG] ", format, v...) }

// Info logs an info message.
func Info(format string, v ...interface{}) { write(LevelInfo, "[INFO] ", format, v...) }

// Warn logs a warning message.
func Warn(format string, v ...interface{}) { write(LevelWarn, "[WARN] ", format, v...) }

// Error logs an error message.
func Error(format string, v ...interface{}) { write(LevelError, "[ERROR] ", format, v...) }

// Writer returns the underlying writer for subprocess output.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		return logFile
	}
	return io.Discard
}
