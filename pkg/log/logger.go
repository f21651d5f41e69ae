// Slog-backed implementation of the Logger interface.
//
// Alternative to the zerolog provider for applications already standardized
// on log/slog. Records pass through ErrFmtHandler so that errors carrying
// cockroachdb/errors stack traces are emitted with a stacktrace attribute.

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

const (
	// ErrAttrKey is the attribute key under which errors are logged.
	ErrAttrKey = "error"
	// StacktraceAttrKey is the attribute key for extracted stack traces.
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr wraps an error for structured slog output.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a SlogLogger around an existing slog logger.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// Debug implements Logger.Debug.
func (s *SlogLogger) Debug(msg string, fields ...any) {
	s.logger.Debug(msg, normalizeFields(fields)...)
}

// Info implements Logger.Info.
func (s *SlogLogger) Info(msg string, fields ...any) {
	s.logger.Info(msg, normalizeFields(fields)...)
}

// Warn implements Logger.Warn.
func (s *SlogLogger) Warn(msg string, fields ...any) {
	s.logger.Warn(msg, normalizeFields(fields)...)
}

// Error implements Logger.Error. If the first field is an error it is
// logged under ErrAttrKey, which ErrFmtHandler expands to a stacktrace.
func (s *SlogLogger) Error(msg string, fields ...any) {
	args := make([]any, 0, len(fields)+1)
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			args = append(args, ErrAttr(err))
			fields = fields[1:]
		}
	}
	args = append(args, normalizeFields(fields)...)
	s.logger.Error(msg, args...)
}

// With implements Logger.With.
func (s *SlogLogger) With(fields ...any) Logger {
	return &SlogLogger{logger: s.logger.With(normalizeFields(fields)...)}
}

// Enabled implements Logger.Enabled.
func (s *SlogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger.Enabled(ctx, slog.Level(level))
}

// normalizeFields coerces odd keys to strings so malformed call sites
// degrade to readable output instead of slog's !BADKEY marker.
func normalizeFields(fields []any) []any {
	out := make([]any, 0, len(fields))
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", fields[i])
		}
		out = append(out, key, fields[i+1])
	}
	return out
}

// SlogProvider is a LoggerProvider backed by log/slog JSON output.
type SlogProvider struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// NewSlogProvider creates a provider writing JSON lines to w at info level.
func NewSlogProvider(w io.Writer) *SlogProvider {
	level := new(slog.LevelVar)
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	return &SlogProvider{
		logger: slog.New(handler),
		level:  level,
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *SlogProvider) GetLogger() Logger {
	return &SlogLogger{logger: p.logger}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *SlogProvider) GetLoggerWithName(name string) Logger {
	return &SlogLogger{logger: p.logger.With(ComponentKey, name)}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *SlogProvider) SetLevel(level Level) {
	p.level.Set(slog.Level(level))
}

var _ LoggerProvider = (*SlogProvider)(nil)
