// Package common holds infrastructure shared by the decoder packages:
// the logging contract and its standard implementations.
package common

import (
	"fmt"
	"io"
	"log"
	"os"

	plog "github.com/phuslu/log"
)

// Severity represents log message severity levels
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger interface defines the logging contract for the decoder
type Logger interface {
	// Log logs a message with the specified severity
	Log(severity Severity, msg string)

	// Logf logs a formatted message with the specified severity
	Logf(severity Severity, format string, args ...interface{})

	// Error logs an error
	Error(err error)

	// Debug logs a debug message
	Debug(msg string)

	// Info logs an info message
	Info(msg string)

	// Warning logs a warning message
	Warning(msg string)
}

// StdLogger implements the Logger interface using Go's standard logger
type StdLogger struct {
	debugLog   *log.Logger
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	minLevel   Severity
}

// NewStdLogger creates a new standard logger
func NewStdLogger(minLevel Severity) *StdLogger {
	return NewStdLoggerWithWriter(os.Stdout, os.Stderr, minLevel)
}

// NewStdLoggerWithWriter creates a new standard logger with custom writers
func NewStdLoggerWithWriter(stdout, stderr io.Writer, minLevel Severity) *StdLogger {
	return &StdLogger{
		debugLog:   log.New(stdout, "DEBUG: ", log.Ltime|log.Lshortfile),
		infoLog:    log.New(stdout, "INFO: ", log.Ltime),
		warningLog: log.New(stdout, "WARNING: ", log.Ltime),
		errorLog:   log.New(stderr, "ERROR: ", log.Ltime|log.Lshortfile),
		minLevel:   minLevel,
	}
}

// Log logs a message with the specified severity
func (l *StdLogger) Log(severity Severity, msg string) {
	if severity < l.minLevel {
		return
	}

	switch severity {
	case SeverityDebug:
		l.debugLog.Output(2, msg)
	case SeverityInfo:
		l.infoLog.Output(2, msg)
	case SeverityWarning:
		l.warningLog.Output(2, msg)
	case SeverityError:
		l.errorLog.Output(2, msg)
	}
}

// Logf logs a formatted message with the specified severity
func (l *StdLogger) Logf(severity Severity, format string, args ...interface{}) {
	l.Log(severity, fmt.Sprintf(format, args...))
}

// Error logs an error
func (l *StdLogger) Error(err error) {
	if err != nil {
		l.Log(SeverityError, err.Error())
	}
}

// Debug logs a debug message
func (l *StdLogger) Debug(msg string) {
	l.Log(SeverityDebug, msg)
}

// Info logs an info message
func (l *StdLogger) Info(msg string) {
	l.Log(SeverityInfo, msg)
}

// Warning logs a warning message
func (l *StdLogger) Warning(msg string) {
	l.Log(SeverityWarning, msg)
}

// NoOpLogger is a logger that doesn't log anything
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-op logger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Log does nothing
func (l *NoOpLogger) Log(severity Severity, msg string) {}

// Logf does nothing
func (l *NoOpLogger) Logf(severity Severity, format string, args ...interface{}) {}

// Error does nothing
func (l *NoOpLogger) Error(err error) {}

// Debug does nothing
func (l *NoOpLogger) Debug(msg string) {}

// Info does nothing
func (l *NoOpLogger) Info(msg string) {}

// Warning does nothing
func (l *NoOpLogger) Warning(msg string) {}

// PlogLogger implements the Logger interface on top of a phuslu/log
// structured logger. Tools that want machine-readable diagnostics use
// this instead of StdLogger.
type PlogLogger struct {
	logger *plog.Logger
}

// NewPlogLogger creates a structured logger writing to w with the
// given minimum severity. The component field tags every line so the
// decoder's output can be filtered out of a larger log stream.
func NewPlogLogger(w io.Writer, minLevel Severity, component string) *PlogLogger {
	return &PlogLogger{
		logger: &plog.Logger{
			Level:   plogLevel(minLevel),
			Writer:  &plog.IOWriter{Writer: w},
			Context: plog.NewContext(nil).Str("component", component).Value(),
		},
	}
}

// NewPlogLoggerFrom wraps an existing phuslu logger.
func NewPlogLoggerFrom(logger *plog.Logger) *PlogLogger {
	return &PlogLogger{logger: logger}
}

func plogLevel(s Severity) plog.Level {
	switch s {
	case SeverityDebug:
		return plog.DebugLevel
	case SeverityInfo:
		return plog.InfoLevel
	case SeverityWarning:
		return plog.WarnLevel
	case SeverityError:
		return plog.ErrorLevel
	default:
		return plog.InfoLevel
	}
}

// Log logs a message with the specified severity
func (l *PlogLogger) Log(severity Severity, msg string) {
	l.logger.WithLevel(plogLevel(severity)).Msg(msg)
}

// Logf logs a formatted message with the specified severity
func (l *PlogLogger) Logf(severity Severity, format string, args ...interface{}) {
	l.logger.WithLevel(plogLevel(severity)).Msgf(format, args...)
}

// Error logs an error
func (l *PlogLogger) Error(err error) {
	if err != nil {
		l.logger.Error().Err(err).Msg("")
	}
}

// Debug logs a debug message
func (l *PlogLogger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message
func (l *PlogLogger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warning logs a warning message
func (l *PlogLogger) Warning(msg string) {
	l.logger.Warn().Msg(msg)
}
