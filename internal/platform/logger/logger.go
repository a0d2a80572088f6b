package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "info", "":
		return Info
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case Debug:
		return zapcore.DebugLevel
	case Warn:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Logger es la interfaz que usan handlers/servicios. Los campos van como map
// para no acoplar los paquetes de dominio a zap.
type Logger interface {
	With(fields map[string]any) Logger

	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type Options struct {
	Level  Level
	Format Format
	App    string
}

// zapLogger adapta *zap.Logger a Logger.
type zapLogger struct {
	l *zap.Logger
}

// New construye un logger zap: text => encoder de desarrollo, json => producción.
func New(opts Options) Logger {
	var cfg zap.Config
	if opts.Format == FormatJSON {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(opts.Level.zapLevel())
	cfg.DisableStacktrace = opts.Level != Debug

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	if app := strings.TrimSpace(opts.App); app != "" {
		l = l.With(zap.String("app", app))
	}
	return &zapLogger{l: l}
}

// FromZap envuelve un *zap.Logger existente (útil en tests con zaptest).
func FromZap(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{l: l}
}

// Nop descarta todo.
func Nop() Logger {
	return &zapLogger{l: zap.NewNop()}
}

func (z *zapLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return z
	}
	return &zapLogger{l: z.l.With(toZapFields(fields)...)}
}

func (z *zapLogger) Debug(msg string, fields map[string]any) { z.l.Debug(msg, toZapFields(fields)...) }
func (z *zapLogger) Info(msg string, fields map[string]any)  { z.l.Info(msg, toZapFields(fields)...) }
func (z *zapLogger) Warn(msg string, fields map[string]any)  { z.l.Warn(msg, toZapFields(fields)...) }
func (z *zapLogger) Error(msg string, fields map[string]any) { z.l.Error(msg, toZapFields(fields)...) }

// Sync vacía buffers si el logger es zap.
func Sync(l Logger) {
	if z, ok := l.(*zapLogger); ok {
		_ = z.l.Sync()
	}
}

func toZapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
