package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// SetupLogger installs a slog JSON handler as both the slog default and the
// process-wide provider. Attribute names follow the Cloud Logging format and
// errors logged through ErrAttr carry their cockroachdb stack trace.
func SetupLogger(loglevel string, w io.Writer) error {
	level, err := ParseLevel(loglevel)
	if err != nil {
		return err
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.Level(level))
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     levelVar,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			case slog.SourceKey:
				attr = slog.Attr{Key: "logging.googleapis.com/sourceLocation", Value: attr.Value}
			}
			return attr
		},
	}
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(w, &ops))
	logger := slog.New(handler)
	slog.SetDefault(logger)
	SetProvider(&slogProvider{logger: logger, level: levelVar})
	return nil
}

// ParseLevel converts "debug", "info", "warn" or "error" to a Level.
func ParseLevel(level string) (Level, error) {
	switch level {
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// slogLogger adapts *slog.Logger to Logger.
type slogLogger struct {
	logger *slog.Logger
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.logger.Debug(msg, fields...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.logger.Info(msg, fields...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.logger.Warn(msg, fields...) }

func (s *slogLogger) Error(msg string, fields ...any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			fields = append([]any{ErrAttr(err)}, fields[1:]...)
		}
	}
	s.logger.Error(msg, fields...)
}

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{logger: s.logger.With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger.Enabled(ctx, slog.Level(level))
}

type slogProvider struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

func (p *slogProvider) GetLogger() Logger { return &slogLogger{logger: p.logger} }

func (p *slogProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

// SetLevel changes the minimum level of the installed JSON handler.
func (p *slogProvider) SetLevel(level Level) {
	p.level.Set(slog.Level(level))
}
