// Package logger provides structured logging with per-asset scoping
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used throughout the engine
type Logger interface {
	Info(message string, fields ...Field)
	Error(message string, fields ...Field)
	Warn(message string, fields ...Field)
	Debug(message string, fields ...Field)
	Success(message string, fields ...Field)
	WithScope(scope string) Logger
}

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// WithField creates a new field
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// ScopedLogger implements Logger with an asset/scene scope prefix
type ScopedLogger struct {
	logger *logrus.Logger
	scope  string
	mu     sync.RWMutex
}

// ClapperFormatter formats log lines with colors and a scope prefix
type ClapperFormatter struct {
	TimestampFormat string
	DisableColors   bool
}

// Format implements logrus.Formatter
func (f *ClapperFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	clapper := "🎬"
	timestamp := entry.Time.Format(f.TimestampFormat)

	var levelColor *color.Color
	var levelText string

	switch entry.Level {
	case logrus.ErrorLevel:
		levelColor = color.New(color.FgRed, color.Bold)
		levelText = "ERROR"
	case logrus.WarnLevel:
		levelColor = color.New(color.FgYellow, color.Bold)
		levelText = "WARN"
	case logrus.InfoLevel:
		levelColor = color.New(color.FgCyan)
		levelText = "INFO"
	case logrus.DebugLevel:
		levelColor = color.New(color.FgWhite, color.Faint)
		levelText = "DEBUG"
	default:
		levelColor = color.New(color.FgGreen)
		levelText = "SUCCESS"
	}

	scopePrefix := ""
	if scope, ok := entry.Data["scope"]; ok {
		scopePrefix = fmt.Sprintf("[%s] ", color.New(color.FgBlue).Sprint(scope))
		delete(entry.Data, "scope")
	}

	var output string
	if f.DisableColors {
		output = fmt.Sprintf("%s [%s] %s: %s%s", clapper, timestamp, levelText, scopePrefix, entry.Message)
	} else {
		output = fmt.Sprintf("%s [%s] %s: %s%s",
			clapper,
			timestamp,
			levelColor.Sprint(levelText),
			scopePrefix,
			entry.Message,
		)
	}

	if len(entry.Data) > 0 {
		fields := " {"
		first := true
		for k, v := range entry.Data {
			if !first {
				fields += ", "
			}
			fields += fmt.Sprintf("%s=%v", k, v)
			first = false
		}
		fields += "}"
		output += color.New(color.FgWhite, color.Faint).Sprint(fields)
	}

	return []byte(output + "\n"), nil
}

// CreateLogger creates a new logger instance, optionally teeing to a file
func CreateLogger(logFile string, logLevel string) Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&ClapperFormatter{
		TimestampFormat: "15:04:05",
		DisableColors:   false,
	})

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err == nil {
			log.SetOutput(io.MultiWriter(os.Stdout, file))
		}
	}

	return &ScopedLogger{logger: log}
}

// CreateLoggerWithOutput creates a logger with custom output (for testing)
func CreateLoggerWithOutput(logLevel string, output io.Writer) Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.SetFormatter(&ClapperFormatter{
		TimestampFormat: "15:04:05",
		DisableColors:   true,
	})
	log.SetOutput(output)

	return &ScopedLogger{logger: log}
}

// WithScope creates a new logger carrying a scope prefix, typically a
// scene.frame.asset address.
func (l *ScopedLogger) WithScope(scope string) Logger {
	return &ScopedLogger{
		logger: l.logger,
		scope:  scope,
	}
}

func (l *ScopedLogger) convertFields(fields []Field) logrus.Fields {
	result := make(logrus.Fields)
	if l.scope != "" {
		result["scope"] = l.scope
	}
	for _, f := range fields {
		result[f.Key] = f.Value
	}
	return result
}

// Info logs an info message
func (l *ScopedLogger) Info(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Info(message)
}

// Error logs an error message
func (l *ScopedLogger) Error(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Error(message)
}

// Warn logs a warning message
func (l *ScopedLogger) Warn(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Warn(message)
}

// Debug logs a debug message
func (l *ScopedLogger) Debug(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Debug(message)
}

// Success logs a success message
func (l *ScopedLogger) Success(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.convertFields(fields)).Info("✅ " + message)
}
