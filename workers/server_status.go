package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tnicklin/thimble-bot/clock"
	"github.com/tnicklin/thimble-bot/logger"
	"github.com/tnicklin/thimble-bot/statustracker"
)

var _ Worker = (*ServerStatus)(nil)

// ServerStatus runs the status tracker on a fixed interval and posts the
// outcome to the configured channel.
type ServerStatus struct {
	cfg     *statustracker.Config
	guildID string
	tracker statustracker.Checker
	sender  Sender
	clock   clock.Clock
	logger  logger.Logger

	inFlight chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
	ticks    sync.WaitGroup
}

// ServerStatusParams holds configuration for creating a ServerStatus worker.
// A nil Config disables the worker.
type ServerStatusParams struct {
	Config  *statustracker.Config
	GuildID string
	Tracker statustracker.Checker
	Sender  Sender
	Clock   clock.Clock
	Logger  logger.Logger
}

// NewServerStatus creates a ServerStatus worker.
func NewServerStatus(p ServerStatusParams) *ServerStatus {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}

	return &ServerStatus{
		cfg:      p.Config,
		guildID:  p.GuildID,
		tracker:  p.Tracker,
		sender:   p.Sender,
		clock:    clk,
		logger:   logger.OrNop(p.Logger),
		inFlight: make(chan struct{}, 1),
	}
}

// Start begins the check loop. It is a no-op when no StatusTracker
// configuration is present.
func (w *ServerStatus) Start(ctx context.Context) error {
	if w.cfg == nil {
		w.logger.InfoW("status tracker not configured, server status worker disabled")
		return nil
	}
	if w.tracker == nil {
		return errors.New("workers: status tracker is required")
	}
	if w.sender == nil {
		return errors.New("workers: sender is required")
	}

	interval := w.cfg.Interval()
	if interval <= 0 {
		return errors.New("workers: refresh interval must be positive")
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	ticker := w.clock.NewTicker(interval)
	go w.run(ctx, ticker)

	w.logger.InfoW("server status worker started",
		"interval", interval,
		"channel", w.cfg.Channel,
		"domains", len(w.cfg.Domains),
	)
	return nil
}

// Stop cancels the loop and waits for in-flight ticks to finish.
func (w *ServerStatus) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.ticks.Wait()
	w.cancel = nil
}

func (w *ServerStatus) run(ctx context.Context, ticker clock.Ticker) {
	defer close(w.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			w.ticks.Add(1)
			go func() {
				defer w.ticks.Done()
				w.Tick(ctx)
			}()
		}
	}
}

// Tick runs one check-and-report cycle. A tick that starts while another
// check is still running is skipped.
func (w *ServerStatus) Tick(ctx context.Context) {
	select {
	case w.inFlight <- struct{}{}:
	default:
		w.logger.WarnW("previous status check still running, skipping tick")
		return
	}
	defer func() { <-w.inFlight }()

	report, err := w.check(ctx)
	if ctx.Err() != nil {
		w.logger.InfoW("status check interrupted by shutdown, not reporting", "error", err)
		return
	}
	if err != nil {
		w.logger.WarnW("status check failed", "error", err)
	}

	msg, ok := MessageFor(report, err)
	if !ok {
		w.logger.DebugW("status check produced nothing to report")
		return
	}

	if err := w.sender.SendMessage(w.guildID, w.cfg.Channel, msg); err != nil {
		w.logger.ErrorW("failed to deliver status report",
			"guild", w.guildID,
			"channel", w.cfg.Channel,
			"error", err,
		)
	}
}

func (w *ServerStatus) check(ctx context.Context) (report string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("status tracker panic: %v", r)
		}
	}()
	return w.tracker.Check(ctx)
}

// MessageFor maps a check outcome to the text to deliver. The bool is false
// when nothing should be sent.
func MessageFor(report string, err error) (string, bool) {
	if err != nil {
		return WarningMessage, true
	}
	if report == "" {
		return "", false
	}
	return report, true
}
