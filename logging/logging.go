package logging

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"strings"
)

// ANSI color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorYellow = "\033[33m"
	ColorBold   = "\033[1m"
)

// Level represents log levels
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error",
// "fatal") to a Level. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %q", s)
	}
}

// Fields represents structured logging fields
type Fields map[string]any

// Logger defines the interface that the library expects for logging
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	Fatal(err error, msg string, fields ...Fields)

	// WithFields returns a logger with preset fields
	WithFields(fields Fields) Logger

	// WithContext returns a logger that can extract fields from context
	WithContext(ctx context.Context) Logger

	// SetLevel sets the minimum log level
	SetLevel(level Level)
}

var globalLogger Logger = NewDefaultLogger()

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger Logger) {
	if logger == nil {
		globalLogger = &NoOpLogger{}
	} else {
		globalLogger = logger
	}
}

// GetGlobalLogger returns the current global logger
func GetGlobalLogger() Logger {
	return globalLogger
}

// LoggerFromAppLogger creates a library logger from an application logger,
// so the library stays standalone while host applications plug in their own
// logging.
//
// Example integration:
//
//	appLogger := applog.NewWithFields(applog.Fields{"component": "tuner"})
//	logging.SetGlobalLogger(logging.LoggerFromAppLogger(appLogger))
func LoggerFromAppLogger(appLogger any) Logger {
	if appLogger == nil {
		return NewDefaultLogger()
	}

	// Check if the app logger uses our interface directly
	if logger, ok := appLogger.(Logger); ok {
		return logger
	}

	// Check if it implements the interface methods
	if hasMethod(appLogger, "Debug") && hasMethod(appLogger, "Info") &&
		hasMethod(appLogger, "Error") && hasMethod(appLogger, "WithFields") {
		return &AppLoggerAdapter{appLogger: appLogger}
	}

	// Fallback to default logger
	return NewDefaultLogger()
}

// hasMethod checks if an interface has a method using reflection
func hasMethod(obj any, methodName string) bool {
	if obj == nil {
		return false
	}

	objType := reflect.TypeOf(obj)
	if objType == nil {
		return false
	}

	if objType.Kind() == reflect.Ptr {
		objType = objType.Elem()
	}

	_, found := objType.MethodByName(methodName)
	return found
}

// mergeFields flattens variadic field maps into one map for adapters that
// take printf-style arguments.
func mergeFields(fields []Fields) Fields {
	merged := make(Fields)
	for _, f := range fields {
		maps.Copy(merged, f)
	}
	return merged
}

// AppLoggerAdapter adapts an application logger to our interface
type AppLoggerAdapter struct {
	appLogger any
}

func (a *AppLoggerAdapter) Debug(msg string, fields ...Fields) {
	if debugger, ok := a.appLogger.(interface{ Debug(string, ...any) }); ok {
		if len(fields) > 0 {
			debugger.Debug("%s %+v", msg, mergeFields(fields))
		} else {
			debugger.Debug("%s", msg)
		}
	}
	// If the method doesn't exist, silently ignore
}

func (a *AppLoggerAdapter) Info(msg string, fields ...Fields) {
	if infoer, ok := a.appLogger.(interface{ Info(string, ...any) }); ok {
		if len(fields) > 0 {
			infoer.Info("%s %+v", msg, mergeFields(fields))
		} else {
			infoer.Info("%s", msg)
		}
	}
}

func (a *AppLoggerAdapter) Warn(msg string, fields ...Fields) {
	if warner, ok := a.appLogger.(interface{ Warn(string, ...any) }); ok {
		if len(fields) > 0 {
			warner.Warn("%s %+v", msg, mergeFields(fields))
		} else {
			warner.Warn("%s", msg)
		}
		return
	}

	// Fallback to Info with a WARN prefix if Warn doesn't exist
	if infoer, ok := a.appLogger.(interface{ Info(string, ...any) }); ok {
		if len(fields) > 0 {
			infoer.Info("WARN: %s %+v", msg, mergeFields(fields))
		} else {
			infoer.Info("WARN: %s", msg)
		}
	}
}

func (a *AppLoggerAdapter) Error(err error, msg string, fields ...Fields) {
	if errorer, ok := a.appLogger.(interface{ Error(error, ...any) }); ok {
		if len(fields) > 0 {
			errorer.Error(err, "%s %+v", msg, mergeFields(fields))
		} else {
			errorer.Error(err, msg)
		}
	}
}

func (a *AppLoggerAdapter) Fatal(err error, msg string, fields ...Fields) {
	if fataler, ok := a.appLogger.(interface{ Fatal(string, ...any) }); ok {
		if len(fields) > 0 {
			fataler.Fatal("%s: %v %+v", msg, err, mergeFields(fields))
		} else {
			fataler.Fatal("%s: %v", msg, err)
		}
		return
	}

	// Fallback to Error if Fatal doesn't exist; the app logger owns the
	// exit decision either way.
	if errorer, ok := a.appLogger.(interface{ Error(error, ...any) }); ok {
		if len(fields) > 0 {
			errorer.Error(err, "FATAL: %s %+v", msg, mergeFields(fields))
		} else {
			errorer.Error(err, "FATAL: %s", msg)
		}
	}
}

func (a *AppLoggerAdapter) WithFields(fields Fields) Logger {
	if fielder, ok := a.appLogger.(interface{ WithFields(any) any }); ok {
		return &AppLoggerAdapter{appLogger: fielder.WithFields(fields)}
	}
	// Fallback: same adapter, fields ignored
	return a
}

func (a *AppLoggerAdapter) WithContext(ctx context.Context) Logger {
	if fields, ok := ctx.Value("logger_fields").(Fields); ok {
		return a.WithFields(fields)
	}
	return a
}

func (a *AppLoggerAdapter) SetLevel(level Level) {
	if leveler, ok := a.appLogger.(interface{ SetLevel(any) }); ok {
		leveler.SetLevel(level)
	}
}

// Package-level logging functions that use the global logger
func Debug(msg string, fields ...Fields) {
	globalLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...Fields) {
	globalLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...Fields) {
	globalLogger.Warn(msg, fields...)
}

func Error(err error, msg string, fields ...Fields) {
	globalLogger.Error(err, msg, fields...)
}

func Fatal(err error, msg string, fields ...Fields) {
	globalLogger.Fatal(err, msg, fields...)
}

func WithFields(fields Fields) Logger {
	return globalLogger.WithFields(fields)
}

func WithContext(ctx context.Context) Logger {
	return globalLogger.WithContext(ctx)
}

func SetLevel(level Level) {
	globalLogger.SetLevel(level)
}

// DisableColors globally disables color output for the default logger
func DisableColors() {
	if defaultLogger, ok := globalLogger.(*DefaultLogger); ok {
		defaultLogger.useColors = false
	}
}

// EnableColors globally enables color output for the default logger
func EnableColors() {
	if defaultLogger, ok := globalLogger.(*DefaultLogger); ok {
		defaultLogger.useColors = true
	}
}
