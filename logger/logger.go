package logger

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogStreamer writes structured entries tagged with a trace id and the layer that produced them.
type LogStreamer struct {
	zl      *zap.Logger
	service string
}

// NewLogStreamer builds a JSON logger for production and a console logger otherwise.
func NewLogStreamer(service, level, env string) (*LogStreamer, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &LogStreamer{zl: zl, service: service}, nil
}

func NewFromZap(zl *zap.Logger, service string) *LogStreamer {
	return &LogStreamer{zl: zl, service: service}
}

// Nop discards everything.
func Nop() *LogStreamer {
	return &LogStreamer{zl: zap.NewNop()}
}

func (l *LogStreamer) Log(level zapcore.Level, traceID, msg string, fields map[string]any, layer string, err error) {
	ce := l.zl.Check(level, msg)
	if ce == nil {
		return
	}

	zf := make([]zap.Field, 0, len(fields)+4)
	if l.service != "" {
		zf = append(zf, zap.String("service", l.service))
	}
	if traceID != "" {
		zf = append(zf, zap.String("traceId", traceID))
	}
	zf = append(zf, zap.String("layer", layer))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	ce.Write(zf...)
}

func (l *LogStreamer) Sync() error {
	return l.zl.Sync()
}
