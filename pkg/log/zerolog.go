// Zerolog-backed implementation of the Logger interface.
//
// This is the default production logger. It renders the variadic key/value
// fields of the Logger interface into zerolog events and understands the
// error marshaling implemented by pkg/errors (MarshalZerologObject).

package log

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger writing JSON to the given logger.
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.logger.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) {
	z.emit(z.logger.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.logger.Warn(), msg, fields)
}

// Error implements Logger.Error. If the first field is an error it is
// attached as the event error, so that types implementing
// zerolog.LogObjectMarshaler keep their structure.
func (z *ZerologLogger) Error(msg string, fields ...any) {
	event := z.logger.Error()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			event = event.Err(err)
			if marshaler, ok := err.(zerolog.LogObjectMarshaler); ok {
				event = event.Object("error_detail", marshaler)
			}
			fields = fields[1:]
		}
	}
	z.emit(event, msg, fields)
}

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	ctx := z.logger.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &ZerologLogger{logger: ctx.Logger()}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return z.logger.GetLevel() <= toZerologLevel(level)
}

func (z *ZerologLogger) emit(event *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		event = event.Interface(key, fields[i+1])
	}
	event.Msg(msg)
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ZerologProvider is the default LoggerProvider backed by zerolog.
type ZerologProvider struct {
	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewZerologProvider creates a provider writing JSON lines to stderr.
func NewZerologProvider() *ZerologProvider {
	return &ZerologProvider{
		logger: zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &ZerologLogger{logger: p.logger}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &ZerologLogger{logger: p.logger.With().Str(ComponentKey, name).Logger()}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = p.logger.Level(toZerologLevel(level))
}

var (
	defaultProviderMu sync.RWMutex
	defaultProvider   LoggerProvider = NewZerologProvider()
)

// SetProvider replaces the package-level provider. Intended for tests and
// applications embedding the library.
func SetProvider(provider LoggerProvider) {
	defaultProviderMu.Lock()
	defer defaultProviderMu.Unlock()
	defaultProvider = provider
}

// GetLogger returns the default logger from the package-level provider.
func GetLogger() Logger {
	defaultProviderMu.RLock()
	defer defaultProviderMu.RUnlock()
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns a named logger from the package-level provider.
func GetLoggerWithName(name string) Logger {
	defaultProviderMu.RLock()
	defer defaultProviderMu.RUnlock()
	return defaultProvider.GetLoggerWithName(name)
}
