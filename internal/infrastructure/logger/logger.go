package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "shiptrack"

func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]any{"service": serviceName}

	return cfg.Build()
}

// Printf adapts a zap logger to printf-style consumers (goose migrations).
type Printf struct {
	sugar *zap.SugaredLogger
}

func NewPrintf(l *zap.Logger, component string) *Printf {
	return &Printf{sugar: l.With(zap.String("component", component)).Sugar()}
}

func (p *Printf) Printf(format string, v ...any) {
	p.sugar.Infof(strings.TrimRight(format, "\n"), v...)
}

func (p *Printf) Fatalf(format string, v ...any) {
	p.sugar.Fatalf(strings.TrimRight(format, "\n"), v...)
}
