package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Logger = (*DefaultLogger)(nil)

// DefaultLogger wraps zap.SugaredLogger to implement Logger.
type DefaultLogger struct {
	logger *zap.SugaredLogger
	flush  func()
}

// New creates a new DefaultLogger with the given configuration.
func New(cfg Config) (*DefaultLogger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Encoding == "console" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}

	var (
		opts  []zap.Option
		flush func()
	)
	if cfg.SentryDSN != "" {
		core, err := newSentryCore(cfg.SentryDSN, zapcore.ErrorLevel)
		if err != nil {
			return nil, fmt.Errorf("init sentry: %w", err)
		}
		flush = core.flush
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		}))
	}

	zapLogger, err := zapCfg.Build(opts...)
	if err != nil {
		return nil, err
	}

	return &DefaultLogger{logger: zapLogger.Sugar(), flush: flush}, nil
}

// Named returns a child logger with the given name segment appended.
func (l *DefaultLogger) Named(name string) *DefaultLogger {
	return &DefaultLogger{logger: l.logger.Named(name), flush: l.flush}
}

func (l *DefaultLogger) DebugW(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *DefaultLogger) InfoW(msg string, keysAndValues ...any) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *DefaultLogger) WarnW(msg string, keysAndValues ...any) {
	l.logger.Warnw(msg, keysAndValues...)
}

func (l *DefaultLogger) ErrorW(msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *DefaultLogger) Sync() error {
	if l.flush != nil {
		l.flush()
	}
	return l.logger.Sync()
}
