package logger

import (
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

const sentryFlushTimeout = 2 * time.Second

var _ zapcore.Core = (*sentryCore)(nil)

// sentryCore forwards entries at or above its level to a Sentry hub.
type sentryCore struct {
	zapcore.LevelEnabler
	hub    *sentry.Hub
	fields []zapcore.Field
}

func newSentryCore(dsn string, level zapcore.LevelEnabler) (*sentryCore, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: dsn})
	if err != nil {
		return nil, err
	}
	return &sentryCore{
		LevelEnabler: level,
		hub:          sentry.NewHub(client, sentry.NewScope()),
	}, nil
}

func (c *sentryCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *sentryCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *sentryCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	event := sentry.NewEvent()
	event.Message = ent.Message
	event.Logger = ent.LoggerName
	event.Timestamp = ent.Time
	event.Level = sentryLevel(ent.Level)
	event.Extra = enc.Fields
	c.hub.CaptureEvent(event)

	if ent.Level > zapcore.ErrorLevel {
		c.flush()
	}
	return nil
}

func (c *sentryCore) Sync() error {
	c.flush()
	return nil
}

func (c *sentryCore) flush() {
	c.hub.Flush(sentryFlushTimeout)
}

func sentryLevel(l zapcore.Level) sentry.Level {
	switch l {
	case zapcore.DebugLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	default:
		return sentry.LevelFatal
	}
}
