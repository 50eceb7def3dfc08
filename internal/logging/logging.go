// Package logging is chronodb's structured logging layer: a small Logger
// interface over logrus, plus the level and formatter parsing shared by
// every entry point (the compactor CLI, the catalog, the compaction runner).
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is a logging verbosity level, ordered from least to most verbose.
type Level int

const (
	Error Level = iota
	Warn
	Info
	Debug
)

func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warn:
		return "warn"
	case Info:
		return "info"
	case Debug:
		return "debug"
	default:
		return "unknown"
	}
}

// GetLevel parses the --log-level flag/env var value used throughout
// cmd/chronodb, defaulting to Info on the empty string.
func GetLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return Debug, nil
	case "", "info":
		return Info, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Info, fmt.Errorf("invalid log level: %v", level)
	}
}

// Logger is the logging interface every chronodb package that needs to log
// depends on, rather than on logrus directly — this is what lets
// catalog/mem and compaction take a Logger in tests without pulling in
// a concrete logrus setup.
type Logger interface {
	Debug(fmt string, args ...interface{})
	Info(fmt string, args ...interface{})
	Warn(fmt string, args ...interface{})
	Error(fmt string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	GetLevel() Level
	SetLevel(Level)
}

// StandardLogger is the default Logger implementation, backed by logrus.
type StandardLogger struct {
	entry *logrus.Entry
	level Level
}

// NewStandardLogger returns a StandardLogger writing to logrus's default
// output at Info level, using the JSON formatter.
func NewStandardLogger() *StandardLogger {
	return NewStandardLoggerWithFormat("json", "")
}

// NewStandardLoggerWithFormat is NewStandardLogger with an explicit
// --log-format value (text, json, or json-pretty); used by cmd/chronodb
// so the compactor CLI's --log-format flag actually takes effect.
func NewStandardLoggerWithFormat(format, timestampFormat string) *StandardLogger {
	l := logrus.New()
	l.SetFormatter(GetFormatter(format, timestampFormat))
	return &StandardLogger{entry: logrus.NewEntry(l), level: Info}
}

func (l *StandardLogger) Debug(f string, args ...interface{}) { l.entry.Debugf(f, args...) }
func (l *StandardLogger) Info(f string, args ...interface{})  { l.entry.Infof(f, args...) }
func (l *StandardLogger) Warn(f string, args ...interface{})  { l.entry.Warnf(f, args...) }
func (l *StandardLogger) Error(f string, args ...interface{}) { l.entry.Errorf(f, args...) }

func (l *StandardLogger) WithFields(fields map[string]interface{}) Logger {
	return &StandardLogger{entry: l.entry.WithFields(fields), level: l.level}
}

func (l *StandardLogger) GetLevel() Level { return l.level }

func (l *StandardLogger) SetLevel(level Level) {
	l.level = level
	switch level {
	case Debug:
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	case Warn:
		l.entry.Logger.SetLevel(logrus.WarnLevel)
	case Error:
		l.entry.Logger.SetLevel(logrus.ErrorLevel)
	default:
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	}
}

// NoOpLogger discards everything; used as the default when a caller passes
// no logger and the package under test does not care about log output.
type NoOpLogger struct{ level Level }

func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (l *NoOpLogger) Debug(string, ...interface{})           {}
func (l *NoOpLogger) Info(string, ...interface{})            {}
func (l *NoOpLogger) Warn(string, ...interface{})            {}
func (l *NoOpLogger) Error(string, ...interface{})           {}
func (l *NoOpLogger) WithFields(map[string]interface{}) Logger { return l }
func (l *NoOpLogger) GetLevel() Level                          { return l.level }
func (l *NoOpLogger) SetLevel(level Level)                     { l.level = level }

// GetFormatter returns the logrus.Formatter for the given --log-format
// value: "text" for a human-readable formatter, "json-pretty" for indented
// JSON, and JSON (compact) otherwise.
func GetFormatter(format, timestampFormat string) logrus.Formatter {
	switch format {
	case "text":
		return &prettyFormatter{}
	case "json-pretty":
		return &logrus.JSONFormatter{PrettyPrint: true, TimestampFormat: timestampFormat}
	default:
		return &logrus.JSONFormatter{TimestampFormat: timestampFormat}
	}
}

// prettyFormatter is a simpler, easier to read alternative to logrus's
// own TextFormatter.
type prettyFormatter struct{}

func (p *prettyFormatter) Format(e *logrus.Entry) ([]byte, error) {
	b := new(bytes.Buffer)
	level := strings.ToUpper(e.Level.String())
	b.WriteString(fmt.Sprintf("[%s] %s\n", level, e.Message))
	for k, v := range e.Data {
		jsonVal, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(b, "  %s = %s\n", k, jsonVal)
	}
	return b.Bytes(), nil
}
