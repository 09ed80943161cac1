package setup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/tnicklin/thimble-bot/config"
	"github.com/tnicklin/thimble-bot/statustracker"
)

// ErrConfigExists is returned when the target configuration directory
// already exists and overwriting was not requested.
var ErrConfigExists = errors.New("configuration directory already exists")

const productionOutput = "temp/thimble-bot.json"

// Options controls which sections the wizard asks for and where it writes.
type Options struct {
	Env           string
	Root          string
	StatusTracker bool
	MovieTracker  bool
	Force         bool
	CheckDB       bool
}

// Answers is everything collected by the wizard.
type Answers struct {
	Bot           config.BotConfig
	DB            config.DBConfig
	StatusTracker *statustracker.Config
	MovieTracker  *config.MovieTrackerConfig
}

// productionFile is the single-file layout read from /var/secrets.
type productionFile struct {
	Bot           config.BotConfig           `json:"bot"`
	DB            config.DBConfig            `json:"db"`
	StatusTracker *statustracker.Config      `json:"StatusTracker,omitempty"`
	MovieTracker  *config.MovieTrackerConfig `json:"MovieTracker,omitempty"`
}

// PingFunc checks database connectivity.
type PingFunc func(ctx context.Context, db config.DBConfig) error

// Wizard walks the user through generating configuration files.
type Wizard struct {
	prompter Prompter
	out      io.Writer
	opts     Options
	ping     PingFunc
	step     int
}

// Params holds configuration for creating a new Wizard.
type Params struct {
	Prompter Prompter
	Out      io.Writer
	Options  Options
	// Ping overrides the database check used with Options.CheckDB.
	Ping PingFunc
}

func New(p Params) *Wizard {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	ping := p.Ping
	if ping == nil {
		ping = PingDB
	}
	if p.Options.Env == "" {
		p.Options.Env = config.DefaultEnv
	}
	return &Wizard{
		prompter: p.Prompter,
		out:      out,
		opts:     p.Options,
		ping:     ping,
	}
}

// Run asks every question and writes the configuration files.
func (w *Wizard) Run(ctx context.Context) error {
	if w.opts.Env == config.ExampleEnv {
		fmt.Fprintln(w.out, "There is no need for one more example config!")
		return nil
	}

	if w.opts.Env != config.ProductionEnv && !w.opts.Force {
		if _, err := os.Stat(config.Dir(w.opts.Root, w.opts.Env)); err == nil {
			return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, config.Dir(w.opts.Root, w.opts.Env))
		}
	}

	fmt.Fprintf(w.out, "Generating configs for %q environment.\n", w.opts.Env)

	answers, err := w.Ask(ctx)
	if err != nil {
		return err
	}

	w.section("Generating configs. Please wait...")
	return w.Write(answers)
}

// Ask runs the prompts for every enabled section.
func (w *Wizard) Ask(ctx context.Context) (Answers, error) {
	var (
		a   Answers
		err error
	)

	if a.Bot, err = w.askBot(); err != nil {
		return Answers{}, err
	}
	if a.DB, err = w.askDB(ctx); err != nil {
		return Answers{}, err
	}
	if w.opts.StatusTracker {
		if a.StatusTracker, err = w.askStatusTracker(); err != nil {
			return Answers{}, err
		}
	}
	if w.opts.MovieTracker {
		if a.MovieTracker, err = w.askMovieTracker(); err != nil {
			return Answers{}, err
		}
	}
	return a, nil
}

func (w *Wizard) section(title string) {
	fmt.Fprint(w.out, "\n------------------------------------\n\n")
	fmt.Fprintf(w.out, "%s\n\n", title)
}

func (w *Wizard) numbered(title string) {
	w.step++
	w.section(fmt.Sprintf("%d. %s", w.step, title))
}

func (w *Wizard) askBot() (config.BotConfig, error) {
	w.numbered("Common bot settings")

	var (
		bot     config.BotConfig
		logChan string
		sentry  string
	)
	steps := []struct {
		message string
		target  *string
	}{
		{"Bot token:", &bot.Token},
		{"Game activity:", &bot.Activity},
		{"Bot prefix:", &bot.Prefix},
		{"Guild ID:", &bot.Guild},
		{"Your user ID:", &bot.Owner},
		{"Log channel ID (leave empty if you dont want logging):", &logChan},
		{"Sentry details (public, secret, id, separated by comma)\nLeave empty if you don't want to configure Sentry.", &sentry},
	}
	for _, s := range steps {
		v, err := w.prompter.Input(s.message, "")
		if err != nil {
			return config.BotConfig{}, err
		}
		*s.target = strings.TrimSpace(v)
	}

	bot.Logging = parseLogging(logChan)
	bot.Sentry = parseSentry(sentry)
	return bot, nil
}

func parseLogging(channel string) config.LoggingConfig {
	if channel == "" {
		return config.LoggingConfig{Enabled: false}
	}
	return config.LoggingConfig{Enabled: true, Channel: channel}
}

// parseSentry splits "public, secret, id" by position; a blank field stays
// blank.
func parseSentry(answer string) config.SentryConfig {
	if answer == "" {
		return config.SentryConfig{}
	}
	parts := strings.Split(answer, ",")
	get := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	return config.SentryConfig{Public: get(0), Secret: get(1), ID: get(2)}
}

// splitList splits a comma separated answer, trimming entries and dropping
// empty ones.
func splitList(answer string) []string {
	out := []string{}
	for _, part := range strings.Split(answer, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (w *Wizard) askDB(ctx context.Context) (config.DBConfig, error) {
	w.numbered("Database settings")

	var (
		db  config.DBConfig
		err error
	)
	if db.Host, err = w.prompter.Input("Host", ""); err != nil {
		return db, err
	}
	if db.User, err = w.prompter.Input("Username", ""); err != nil {
		return db, err
	}
	if db.Password, err = w.prompter.Password("Password"); err != nil {
		return db, err
	}
	if db.Database, err = w.prompter.Input("Database name", ""); err != nil {
		return db, err
	}
	if db.Dialect, err = w.prompter.Select("Dialect", []string{"mysql"}); err != nil {
		return db, err
	}
	if db.Logging, err = w.prompter.Confirm("Enable logging?", false); err != nil {
		return db, err
	}

	if w.opts.CheckDB {
		if err := w.ping(ctx, db); err != nil {
			color.New(color.FgYellow).Fprintf(w.out, "Could not connect to the database: %v\n", err)
		} else {
			color.New(color.FgGreen).Fprintln(w.out, "Database connection OK.")
		}
	}
	return db, nil
}

func (w *Wizard) askStatusTracker() (*statustracker.Config, error) {
	w.numbered("StatusTracker settings")

	var (
		st  statustracker.Config
		err error
	)
	if st.Channel, err = w.prompter.Input("StatusTracker channel ID", ""); err != nil {
		return nil, err
	}
	if st.RefreshInterval, err = w.prompter.Number("Check interval (hours):", 1); err != nil {
		return nil, err
	}
	if st.Timeout, err = w.prompter.Number("Timeout (seconds):", 5); err != nil {
		return nil, err
	}
	if st.Quiet, err = w.prompter.Confirm("Quiet mode?", true); err != nil {
		return nil, err
	}
	domains, err := w.prompter.Input("Domains, separated by comma:", "")
	if err != nil {
		return nil, err
	}
	st.Domains = splitList(domains)
	return &st, nil
}

func (w *Wizard) askMovieTracker() (*config.MovieTrackerConfig, error) {
	w.numbered("MovieTracker settings")

	var (
		mt  config.MovieTrackerConfig
		err error
	)
	if mt.Debug, err = w.prompter.Confirm("Debug mode?", true); err != nil {
		return nil, err
	}
	if mt.Channel, err = w.prompter.Input("Channel ID:", ""); err != nil {
		return nil, err
	}
	if mt.Time, err = w.prompter.Input("Time of automated checking (24-hour format):", "6:00"); err != nil {
		return nil, err
	}
	mt.Portdothu = config.PortdothuConfig{Channels: []string{}, Genres: []string{}}
	mt.Cinemagia = config.CinemagiaConfig{Channels: []string{}, Genre: ""}

	path := filepath.Join("config", w.opts.Env, config.MovieTrackerFile)
	if w.opts.Env == config.ProductionEnv {
		path = "(../" + productionOutput + ").MovieTracker"
	}
	blue := color.New(color.FgBlue)
	blue.Fprintf(w.out, "Make sure to edit the channels and genres in %s\n", color.New(color.Bold).Sprint(path))
	return &mt, nil
}

// Write stores the answers. Production gets one combined file; every other
// environment gets one file per section in config/<env>/.
func (w *Wizard) Write(a Answers) error {
	blue := color.New(color.FgBlue)
	bold := color.New(color.Bold)

	if w.opts.Env == config.ProductionEnv {
		path := filepath.Join(w.opts.Root, productionOutput)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := writeJSON(path, productionFile{
			Bot:           a.Bot,
			DB:            a.DB,
			StatusTracker: a.StatusTracker,
			MovieTracker:  a.MovieTracker,
		}); err != nil {
			return err
		}
		blue.Fprintf(w.out, "Production config file saved to %s.\n", bold.Sprint(path))
		blue.Fprintf(w.out, "Make sure to move this file to %s.\n", bold.Sprint(config.ProductionPath))
		return nil
	}

	dir := config.Dir(w.opts.Root, w.opts.Env)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	files := []struct {
		name  string
		value any
		skip  bool
	}{
		{config.BotFile, a.Bot, false},
		{config.DBFile, a.DB, false},
		{config.StatusTrackerFile, a.StatusTracker, a.StatusTracker == nil},
		{config.MovieTrackerFile, a.MovieTracker, a.MovieTracker == nil},
	}
	for _, f := range files {
		if f.skip {
			continue
		}
		if err := writeJSON(filepath.Join(dir, f.name), f.value); err != nil {
			return err
		}
	}

	fmt.Fprintln(w.out, "Done.")
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
