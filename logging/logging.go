// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package logging provides the structured logger interface used across
// package store, the concrete stores, and the wrappers. It follows the
// OPA convention of a small Logger interface backed by logrus, with fields
// attached via WithFields rather than interpolated into the message.
package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is a logging severity level.
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
		return "debug"
	}
}

// ParseLevel parses a level name, defaulting to Info on an empty string.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return Debug, nil
	case "", "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Info, &UnknownLevelError{Level: level}
	}
}

// UnknownLevelError is returned by ParseLevel for an unrecognized name.
type UnknownLevelError struct{ Level string }

func (e *UnknownLevelError) Error() string { return "invalid log level: " + e.Level }

// Logger is the logging interface used throughout this module. Every
// concrete store and wrapper is constructed with one; WithFields attaches
// structured context that a call's message does not repeat.
type Logger interface {
	Debug(fmt string, a ...any)
	Info(fmt string, a ...any)
	Warn(fmt string, a ...any)
	Error(fmt string, a ...any)

	WithFields(fields map[string]any) Logger

	GetLevel() Level
	SetLevel(Level)
}

// StandardLogger is the default Logger, backed by logrus.
type StandardLogger struct {
	entry *logrus.Entry
}

// New returns a StandardLogger writing to stderr at Debug level, using the
// pretty text formatter.
func New() *StandardLogger {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&prettyFormatter{})
	return &StandardLogger{entry: logrus.NewEntry(l)}
}

func toLogrusLevel(l Level) logrus.Level {
	switch l {
	case Debug:
		return logrus.DebugLevel
	case Warn:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func fromLogrusLevel(l logrus.Level) Level {
	switch l {
	case logrus.DebugLevel, logrus.TraceLevel:
		return Debug
	case logrus.WarnLevel:
		return Warn
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return Error
	default:
		return Info
	}
}

func (l *StandardLogger) Debug(f string, a ...any) { l.entry.Debugf(f, a...) }
func (l *StandardLogger) Info(f string, a ...any)  { l.entry.Infof(f, a...) }
func (l *StandardLogger) Warn(f string, a ...any)  { l.entry.Warnf(f, a...) }
func (l *StandardLogger) Error(f string, a ...any) { l.entry.Errorf(f, a...) }

func (l *StandardLogger) WithFields(fields map[string]any) Logger {
	return &StandardLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *StandardLogger) GetLevel() Level {
	return fromLogrusLevel(l.entry.Logger.GetLevel())
}

func (l *StandardLogger) SetLevel(level Level) {
	l.entry.Logger.SetLevel(toLogrusLevel(level))
}

// NoOpLogger discards everything; used as the default for stores and
// wrappers constructed without an explicit logger.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (*NoOpLogger) Debug(string, ...any) {}
func (*NoOpLogger) Info(string, ...any)  {}
func (*NoOpLogger) Warn(string, ...any)  {}
func (*NoOpLogger) Error(string, ...any) {}

func (n *NoOpLogger) WithFields(map[string]any) Logger { return n }
func (*NoOpLogger) GetLevel() Level                     { return Error }
func (*NoOpLogger) SetLevel(Level)                      {}
