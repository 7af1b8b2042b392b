package log

import (
	"fmt"
	"io"
	"os"

	"github.com/netrixframework/qlearn/config"
	"github.com/sirupsen/logrus"
)

// DefaultLogger stores the instance of the DefaultLogger
var DefaultLogger *Logger = NewDiscardLogger()

// LogParams wrapper around key values used for logging
type LogParams map[string]interface{}

// Logger for logging
type Logger struct {
	entry *logrus.Entry

	file *os.File
}

// NewLogger instantiates logger based on the config.
// Output goes to the file at c.Path when set, otherwise to stderr.
func NewLogger(c config.LogConfig) (*Logger, error) {
	l := logrus.New()
	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if c.Level != "" {
		level, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
		l.SetLevel(level)
	}

	var file *os.File
	if c.Path != "" {
		f, err := os.OpenFile(c.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		l.SetOutput(file)
	}
	return &Logger{
		entry: logrus.NewEntry(l),
		file:  file,
	}, nil
}

// NewDiscardLogger returns a logger that drops everything
func NewDiscardLogger() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(l)}
}

// Debug logs a debug message with the default logger
func Debug(s string) {
	DefaultLogger.Debug(s)
}

// Info logs a message with level `info` with the default logger
func Info(s string) {
	DefaultLogger.Info(s)
}

// Warn logs a message with level `warning` with the default logger
func Warn(s string) {
	DefaultLogger.Warn(s)
}

// Error logs a message with level `error` with the default logger
func Error(s string) {
	DefaultLogger.Error(s)
}

// With returns a logger with the specified parameters
func With(params LogParams) *Logger {
	return DefaultLogger.With(params)
}

// Debug logs a debug message
func (l *Logger) Debug(s string) {
	l.entry.Debug(s)
}

// Fatal logs the message and exits with non-zero exit code
func (l *Logger) Fatal(s string) {
	l.entry.Fatal(s)
}

// Info logs a message with level `info`
func (l *Logger) Info(s string) {
	l.entry.Info(s)
}

// Warn logs a message with level `warning`
func (l *Logger) Warn(s string) {
	l.entry.Warn(s)
}

// Error logs a message with level `error`
func (l *Logger) Error(s string) {
	l.entry.Error(s)
}

// With returns a logger initialized with the parameters
func (l *Logger) With(params LogParams) *Logger {
	entry := l.entry.WithFields(logrus.Fields(params))
	return &Logger{
		entry: entry,
		file:  nil,
	}
}

// WithError returns a logger carrying err under the `error` key
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// IsDebug reports whether debug messages are emitted
func (l *Logger) IsDebug() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}

// Destroy should be called when exiting to close the log file
func (l *Logger) Destroy() {
	if l.file != nil {
		l.file.Close()
	}
}

// Init initializes the default logger from the config
func Init(c config.LogConfig) error {
	l, err := NewLogger(c)
	if err != nil {
		return err
	}
	DefaultLogger = l
	return nil
}

// Destroy closes the log file
func Destroy() {
	DefaultLogger.Destroy()
}
