// Package logging provides structured debug logging for custodian
// components. All components of one invocation append to the same
// session-specific file under ~/.custodian/logs/.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger writes leveled, component-tagged entries to the session log file.
// All log methods write unconditionally; there is no level filtering.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	logger    *log.Logger
	logPath   string
	mu        sync.Mutex
	closeOnce sync.Once
}

var (
	sessionID     string
	sessionIDOnce sync.Once

	logDir     string
	logDirOnce sync.Once
	logDirErr  error
)

func currentSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.NewString()
	})
	return sessionID
}

func initLogDirectory() error {
	logDirOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logDirErr = fmt.Errorf("logging: resolve home directory: %w", err)
			return
		}
		logDir = filepath.Join(homeDir, ".custodian", "logs")
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			logDirErr = fmt.Errorf("logging: create log directory: %w", err)
		}
	})
	return logDirErr
}

// NewLogger creates a logger for one component, writing to
// ~/.custodian/logs/<session-id>-custodian.log. When the log file cannot be
// opened it returns a stderr fallback logger together with the error, so
// callers can detect fallback mode.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}
	sessID := currentSessionID()
	logPath := filepath.Join(logDir, sessID+"-custodian.log")

	// Append mode: multiple components share one session file.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		wrapped := fmt.Errorf("logging: open log file: %w", err)
		return newFallbackLogger(component, wrapped), wrapped
	}
	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
	}, nil
}

func newFallbackLogger(component string, err error) *Logger {
	fallback := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags)
	fallback.Printf("WARNING: file logging unavailable, using stderr: %v", err)
	return &Logger{
		sessionID: currentSessionID(),
		component: component,
		logger:    fallback,
	}
}

func (l *Logger) log(level, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("[%s] [%s] [%s] %s", timestamp, l.component, level, fmt.Sprintf(format, v...))
}

// Debugf logs a debug-level message.
func (l *Logger) Debugf(format string, v ...any) { l.log("DEBUG", format, v...) }

// Infof logs an info-level message.
func (l *Logger) Infof(format string, v ...any) { l.log("INFO", format, v...) }

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, v ...any) { l.log("WARN", format, v...) }

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, v ...any) { l.log("ERROR", format, v...) }

// SessionID returns the session ID shared by every logger in this process.
func (l *Logger) SessionID() string { return l.sessionID }

// LogPath returns the log file path, empty in fallback mode.
func (l *Logger) LogPath() string { return l.logPath }

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
