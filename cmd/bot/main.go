package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/tnicklin/thimble-bot/clock"
	"github.com/tnicklin/thimble-bot/config"
	"github.com/tnicklin/thimble-bot/discord"
	"github.com/tnicklin/thimble-bot/imageresize"
	"github.com/tnicklin/thimble-bot/logger"
	"github.com/tnicklin/thimble-bot/statustracker"
	"github.com/tnicklin/thimble-bot/workers"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var opts config.Options

	cmd := &cobra.Command{
		Use:          "thimble-bot",
		Short:        "Run the Discord bot",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := build(opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), params)
		},
	}
	cmd.Flags().StringVar(&opts.Env, "env", "", "configuration environment (defaults to $"+config.EnvVar+")")
	cmd.Flags().StringVar(&opts.Root, "root", ".", "directory containing config/<env>/")
	cmd.Flags().StringVar(&opts.ProductionPath, "config", config.ProductionPath, "production configuration file")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type runParams struct {
	Logger   *logger.DefaultLogger
	NTP      *clock.NTPClock
	Discord  discord.Discord
	Workers  []workers.Worker
	Settings *config.AppConfig
}

func build(opts config.Options) (runParams, error) {
	cfg, err := config.LoadForEnv(opts)
	if err != nil {
		return runParams{}, err
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return runParams{}, fmt.Errorf("initialize logger: %w", err)
	}

	session, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		return runParams{}, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	var (
		clk clock.Clock = clock.System()
		ntp *clock.NTPClock
	)
	if cfg.Clock.NTPServer != "" {
		ntp = clock.NewNTP(
			clock.WithServer(cfg.Clock.NTPServer),
			clock.WithLogger(appLogger.Named("clock")),
		)
		clk = ntp
	}

	var tracker *statustracker.Tracker
	if cfg.StatusTracker != nil {
		tracker = statustracker.New(statustracker.Params{
			Config:     *cfg.StatusTracker,
			HTTPClient: resty.New(),
			Clock:      clk,
			Logger:     appLogger.Named("statustracker"),
		})
	}

	resizer := imageresize.New(imageresize.Params{
		HTTPClient: resty.New().SetTimeout(time.Minute),
		Logger:     appLogger.Named("imageresize"),
	})

	discordParams := discord.Params{
		Session: session,
		Config:  cfg.Bot,
		Resizer: resizer,
		Logger:  appLogger.Named("discord"),
	}
	if tracker != nil {
		discordParams.StatusChecker = tracker
	}
	discordClient := discord.New(discordParams)

	statusParams := workers.ServerStatusParams{
		Config:  cfg.StatusTracker,
		GuildID: cfg.Bot.Guild,
		Sender:  discordClient,
		Clock:   clk,
		Logger:  appLogger.Named("workers"),
	}
	if tracker != nil {
		statusParams.Tracker = tracker
	}

	return runParams{
		Logger:   appLogger,
		NTP:      ntp,
		Discord:  discordClient,
		Workers:  []workers.Worker{workers.NewServerStatus(statusParams)},
		Settings: cfg,
	}, nil
}

// run starts all components and blocks until SIGINT or SIGTERM.
func run(parent context.Context, p runParams) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer func() { _ = p.Logger.Sync() }()

	if p.NTP != nil {
		if err := p.NTP.Start(ctx); err != nil {
			return fmt.Errorf("start ntp clock: %w", err)
		}
		defer p.NTP.Stop()
	}

	if err := p.Discord.Start(ctx); err != nil {
		return fmt.Errorf("start discord client: %w", err)
	}

	started := make([]workers.Worker, 0, len(p.Workers))
	for _, w := range p.Workers {
		if err := w.Start(ctx); err != nil {
			stopAll(started)
			_ = p.Discord.Stop()
			return fmt.Errorf("start worker: %w", err)
		}
		started = append(started, w)
	}

	p.Logger.InfoW("bot running", "guild", p.Settings.Bot.Guild, "prefix", p.Settings.Bot.Prefix)
	<-ctx.Done()
	p.Logger.InfoW("shutting down")

	done := make(chan struct{})
	go func() {
		defer close(done)
		stopAll(started)
		if err := p.Discord.Stop(); err != nil {
			p.Logger.ErrorW("stop discord client", "error", err)
		}
	}()

	select {
	case <-done:
		return nil
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("shutdown timed out after %s", shutdownTimeout)
	}
}

func stopAll(ws []workers.Worker) {
	for i := len(ws) - 1; i >= 0; i-- {
		ws[i].Stop()
	}
}
