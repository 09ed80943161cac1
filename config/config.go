package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/tnicklin/thimble-bot/logger"
	"github.com/tnicklin/thimble-bot/statustracker"
	"go.uber.org/config"
)

const (
	// EnvVar selects the configuration environment.
	EnvVar         = "THIMBLE_ENV"
	DefaultEnv     = "development"
	ProductionEnv  = "production"
	ExampleEnv     = "example"
	ProductionPath = "/var/secrets/thimble-bot.json"
)

// Section file names used by per-environment configuration directories.
const (
	BotFile           = "bot.json"
	DBFile            = "db.json"
	StatusTrackerFile = "StatusTracker.json"
	MovieTrackerFile  = "MovieTracker.json"
	LoggerFile        = "logger.json"
	ClockFile         = "clock.json"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoggingConfig controls the bot's log channel.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Channel string `yaml:"channel" json:"channel,omitempty" validate:"required_if=Enabled true"`
}

// SentryConfig holds the parts of a Sentry project DSN.
type SentryConfig struct {
	Public string `yaml:"public" json:"public"`
	Secret string `yaml:"secret" json:"secret"`
	ID     string `yaml:"id" json:"id"`
}

// DSN builds the project DSN, or "" when Sentry is not configured.
func (s SentryConfig) DSN() string {
	if s.Public == "" || s.ID == "" {
		return ""
	}
	auth := s.Public
	if s.Secret != "" {
		auth += ":" + s.Secret
	}
	return fmt.Sprintf("https://%s@sentry.io/%s", auth, s.ID)
}

// BotConfig holds Discord bot settings.
type BotConfig struct {
	Token    string        `yaml:"token" json:"token" validate:"required"`
	Activity string        `yaml:"activity" json:"activity"`
	Prefix   string        `yaml:"prefix" json:"prefix" default:"!"`
	Guild    string        `yaml:"guild" json:"guild" validate:"required"`
	Owner    string        `yaml:"owner" json:"owner"`
	Logging  LoggingConfig `yaml:"logging" json:"logging"`
	Sentry   SentryConfig  `yaml:"sentry" json:"sentry"`
}

// DBConfig holds database credentials.
type DBConfig struct {
	Host     string `yaml:"host" json:"host"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`
	Dialect  string `yaml:"dialect" json:"dialect" default:"mysql" validate:"oneof=mysql"`
	Logging  bool   `yaml:"logging" json:"logging"`
}

// MovieTrackerConfig is carried through configuration unchanged.
type MovieTrackerConfig struct {
	Debug     bool            `yaml:"debug" json:"debug"`
	Channel   string          `yaml:"channel" json:"channel"`
	Time      string          `yaml:"time" json:"time"`
	Portdothu PortdothuConfig `yaml:"portdothu" json:"portdothu"`
	Cinemagia CinemagiaConfig `yaml:"cinemagia" json:"cinemagia"`
}

type PortdothuConfig struct {
	Channels []string `yaml:"channels" json:"channels"`
	Genres   []string `yaml:"genres" json:"genres"`
}

type CinemagiaConfig struct {
	Channels []string `yaml:"channels" json:"channels"`
	Genre    string   `yaml:"genre" json:"genre"`
}

// ClockConfig selects the time source.
type ClockConfig struct {
	NTPServer string `yaml:"ntp_server" json:"ntp_server,omitempty"`
}

// AppConfig holds all application configuration.
type AppConfig struct {
	Logger        logger.Config         `yaml:"logger" json:"logger"`
	Bot           BotConfig             `yaml:"bot" json:"bot"`
	DB            DBConfig              `yaml:"db" json:"db"`
	StatusTracker *statustracker.Config `yaml:"StatusTracker" json:"StatusTracker,omitempty"`
	MovieTracker  *MovieTrackerConfig   `yaml:"MovieTracker" json:"MovieTracker,omitempty"`
	Clock         ClockConfig           `yaml:"clock" json:"clock"`
}

// Options selects where configuration is read from.
type Options struct {
	// Env is the configuration environment; empty reads THIMBLE_ENV.
	Env string
	// Root is the directory holding config/<env>/.
	Root string
	// ProductionPath overrides the production config file.
	ProductionPath string
}

// Env returns the configuration environment from THIMBLE_ENV.
func Env() string {
	if env := strings.TrimSpace(os.Getenv(EnvVar)); env != "" {
		return env
	}
	return DefaultEnv
}

// Dir returns the per-environment configuration directory under root.
func Dir(root, env string) string {
	return filepath.Join(root, "config", env)
}

// LoadForEnv reads, defaults and validates configuration for an
// environment. Production reads a single file; other environments read
// one file per section from config/<env>/.
func LoadForEnv(opts Options) (*AppConfig, error) {
	env := opts.Env
	if env == "" {
		env = Env()
	}

	var (
		cfg *AppConfig
		err error
	)
	if env == ProductionEnv {
		path := opts.ProductionPath
		if path == "" {
			path = ProductionPath
		}
		cfg, err = Load(path)
	} else {
		cfg, err = LoadDir(Dir(opts.Root, env))
	}
	if err != nil {
		return nil, fmt.Errorf("load %s config: %w", env, err)
	}

	if err := Finalize(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the specified files. Files are merged in
// order, with later files overriding earlier ones. Missing files are
// silently ignored. Values are taken literally; "$" is not expanded.
func Load(files ...string) (*AppConfig, error) {
	opts := make([]config.YAMLOption, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			opts = append(opts, config.File(f))
		}
	}

	if len(opts) == 0 {
		return nil, os.ErrNotExist
	}

	provider, err := config.NewYAML(opts...)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDir reads a per-section configuration directory. bot.json is
// required; every other section is optional.
func LoadDir(dir string) (*AppConfig, error) {
	var cfg AppConfig

	if err := populateFile(filepath.Join(dir, BotFile), &cfg.Bot); err != nil {
		return nil, err
	}

	optional := []struct {
		file   string
		target any
	}{
		{DBFile, &cfg.DB},
		{LoggerFile, &cfg.Logger},
		{ClockFile, &cfg.Clock},
	}
	for _, o := range optional {
		if err := populateFile(filepath.Join(dir, o.file), o.target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var st statustracker.Config
	switch err := populateFile(filepath.Join(dir, StatusTrackerFile), &st); {
	case err == nil:
		cfg.StatusTracker = &st
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	var mt MovieTrackerConfig
	switch err := populateFile(filepath.Join(dir, MovieTrackerFile), &mt); {
	case err == nil:
		cfg.MovieTracker = &mt
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	return &cfg, nil
}

func populateFile(path string, target any) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	provider, err := config.NewYAML(config.File(path))
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := provider.Get(config.Root).Populate(target); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Finalize applies defaults and environment overrides, then validates.
func Finalize(cfg *AppConfig, lookup func(string) (string, bool)) error {
	if err := applyDefaults(cfg); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	ApplyEnv(cfg, lookup)

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func applyDefaults(cfg *AppConfig) error {
	targets := []any{&cfg.Logger, &cfg.Bot, &cfg.DB}
	if cfg.StatusTracker != nil {
		targets = append(targets, cfg.StatusTracker)
	}
	for _, t := range targets {
		if err := defaults.Set(t); err != nil {
			return err
		}
	}
	if len(cfg.Logger.OutputPaths) == 0 {
		cfg.Logger.OutputPaths = []string{"stdout"}
	}
	cfg.Logger.SentryDSN = cfg.Bot.Sentry.DSN()
	return nil
}

// ApplyEnv overrides the bot token and guild from DISCORD_TOKEN and
// DISCORD_GUILD_ID when set.
func ApplyEnv(cfg *AppConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup("DISCORD_TOKEN"); ok && strings.TrimSpace(v) != "" {
		cfg.Bot.Token = strings.TrimSpace(v)
	}
	if v, ok := lookup("DISCORD_GUILD_ID"); ok && strings.TrimSpace(v) != "" {
		cfg.Bot.Guild = strings.TrimSpace(v)
	}
}
