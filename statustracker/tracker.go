package statustracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tnicklin/thimble-bot/clock"
	"github.com/tnicklin/thimble-bot/logger"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var _ Checker = (*Tracker)(nil)

const (
	maxConcurrentChecks = 8
	userAgent           = "thimble-bot/1.0"
)

// Tracker probes the configured domains over HTTP.
type Tracker struct {
	cfg    Config
	http   *resty.Client
	clock  clock.Clock
	logger logger.Logger
}

// Params holds configuration for creating a new Tracker.
type Params struct {
	Config     Config
	HTTPClient *resty.Client
	Clock      clock.Clock
	Logger     logger.Logger
}

// New creates a Tracker. The HTTP client is configured with the tracker
// timeout; pass nil to get a fresh client.
func New(p Params) *Tracker {
	client := p.HTTPClient
	if client == nil {
		client = resty.New()
	}
	client.
		SetTimeout(p.Config.RequestTimeout()).
		SetHeader("User-Agent", userAgent)

	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}

	return &Tracker{
		cfg:    p.Config,
		http:   client,
		clock:  clk,
		logger: logger.OrNop(p.Logger),
	}
}

// Check runs Track and formats the result.
func (t *Tracker) Check(ctx context.Context) (string, error) {
	report, err := t.Track(ctx)
	if err != nil {
		return "", err
	}
	return report.Message(), nil
}

// Track probes every domain concurrently. Domains that answer are recorded
// in the report whatever their status code; transport failures abort the
// check with a *CheckError.
func (t *Tracker) Track(ctx context.Context) (Report, error) {
	if len(t.cfg.Domains) == 0 {
		return Report{}, &CheckError{Err: errors.New("no domains configured")}
	}

	statuses := make([]DomainStatus, len(t.cfg.Domains))
	errs := make([]error, len(t.cfg.Domains))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for i, domain := range t.cfg.Domains {
		g.Go(func() error {
			statuses[i], errs[i] = t.probe(gctx, domain)
			return nil
		})
	}
	_ = g.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return Report{}, &CheckError{Err: err}
	}

	report := Report{
		CheckedAt: t.clock.Now(),
		Quiet:     t.cfg.Quiet,
		Domains:   statuses,
	}
	t.logger.DebugW("status check complete", "domains", len(statuses), "healthy", report.Healthy())
	return report, nil
}

func (t *Tracker) probe(ctx context.Context, domain string) (DomainStatus, error) {
	target := domainURL(domain)

	resp, err := t.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		return DomainStatus{}, fmt.Errorf("%s: %w", domain, err)
	}
	if body := resp.RawBody(); body != nil {
		_ = body.Close()
	}

	return DomainStatus{
		Domain:     domain,
		URL:        target,
		StatusCode: resp.StatusCode(),
		Latency:    resp.Time(),
	}, nil
}

func domainURL(domain string) string {
	d := strings.TrimSpace(domain)
	if strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://") {
		return d
	}
	return "https://" + d
}
