package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "default config",
			config: Config{
				Level:       "info",
				OutputPaths: []string{"stdout"},
			},
		},
		{
			name: "debug level console encoding",
			config: Config{
				Level:       "debug",
				OutputPaths: []string{"stdout"},
				Encoding:    "console",
			},
		},
		{
			name: "invalid level falls back to info",
			config: Config{
				Level:       "invalid",
				OutputPaths: []string{"stdout"},
			},
		},
		{
			name: "empty output paths",
			config: Config{
				Level:       "info",
				OutputPaths: []string{},
			},
		},
		{
			name: "sentry dsn",
			config: Config{
				Level:     "info",
				SentryDSN: "https://public@sentry.example.com/42",
			},
		},
		{
			name: "malformed sentry dsn",
			config: Config{
				Level:     "info",
				SentryDSN: "::not a dsn",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger without error")
			}
		})
	}
}

func TestNew_WritesToOutputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	log, err := New(Config{Level: "warn", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.InfoW("filtered out", "key", "value")
	log.Named("workers").WarnW("status check failed", "domain", "example.com")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "filtered out") {
		t.Errorf("info entry written at warn level: %s", out)
	}
	if !strings.Contains(out, "status check failed") || !strings.Contains(out, `"domain":"example.com"`) {
		t.Errorf("warn entry missing from output: %s", out)
	}
	if !strings.Contains(out, `"logger":"workers"`) {
		t.Errorf("logger name missing from output: %s", out)
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	if logger == nil {
		t.Error("NewNop() returned nil")
		return
	}

	logger.DebugW("test debug", "key", "value")
	logger.InfoW("test message", "key", "value")
	logger.WarnW("test warning", "key", "value")
	logger.ErrorW("test error", "key", "value")

	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() should not error on nop logger: %v", err)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := NewNop()
	if got := OrNop(l); got != l {
		t.Fatalf("OrNop(l) = %v, want the same logger", got)
	}
}

func TestSentryLevel(t *testing.T) {
	cases := map[zapcore.Level]sentry.Level{
		zapcore.DebugLevel:  sentry.LevelDebug,
		zapcore.InfoLevel:   sentry.LevelInfo,
		zapcore.WarnLevel:   sentry.LevelWarning,
		zapcore.ErrorLevel:  sentry.LevelError,
		zapcore.DPanicLevel: sentry.LevelFatal,
		zapcore.FatalLevel:  sentry.LevelFatal,
	}
	for in, want := range cases {
		if got := sentryLevel(in); got != want {
			t.Errorf("sentryLevel(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestSentryCore_EnabledAndWith(t *testing.T) {
	core, err := newSentryCore("https://public@sentry.example.com/42", zapcore.ErrorLevel)
	if err != nil {
		t.Fatalf("newSentryCore() error = %v", err)
	}

	if core.Enabled(zapcore.WarnLevel) {
		t.Error("warn level should not be forwarded")
	}
	if !core.Enabled(zapcore.ErrorLevel) {
		t.Error("error level should be forwarded")
	}

	child := core.With([]zapcore.Field{{Key: "guild", Type: zapcore.StringType, String: "1"}}).(*sentryCore)
	if len(child.fields) != 1 {
		t.Fatalf("child fields = %d, want 1", len(child.fields))
	}
	if len(core.fields) != 0 {
		t.Fatalf("parent fields mutated: %d", len(core.fields))
	}
}
