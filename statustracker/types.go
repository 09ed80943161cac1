package statustracker

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Checker performs a status check and returns the formatted report. An
// empty report means there is nothing to deliver.
type Checker interface {
	Check(ctx context.Context) (string, error)
}

// DomainStatus is the outcome of probing a single domain that answered.
type DomainStatus struct {
	Domain     string
	URL        string
	StatusCode int
	Latency    time.Duration
}

// Up reports whether the domain answered with a non-error status.
func (d DomainStatus) Up() bool {
	return d.StatusCode > 0 && d.StatusCode < 400
}

// Report is the result of a successful check across all domains, in
// configured order.
type Report struct {
	CheckedAt time.Time
	Quiet     bool
	Domains   []DomainStatus
}

// Healthy reports whether every domain is up.
func (r Report) Healthy() bool {
	for _, d := range r.Domains {
		if !d.Up() {
			return false
		}
	}
	return true
}

// Message formats the report for chat. In quiet mode healthy domains are
// omitted and a fully healthy report formats as "".
func (r Report) Message() string {
	if r.Quiet && r.Healthy() {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Server status** (%s)\n", r.CheckedAt.UTC().Format("2006-01-02 15:04 UTC"))
	for _, d := range r.Domains {
		if r.Quiet && d.Up() {
			continue
		}
		icon := ":white_check_mark:"
		if !d.Up() {
			icon = ":x:"
		}
		fmt.Fprintf(&sb, "%s `%s` — %d (%dms)\n", icon, d.Domain, d.StatusCode, d.Latency.Milliseconds())
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// CheckError is returned when a check could not be completed. Err holds
// every underlying failure.
type CheckError struct {
	Err error
}

func (e *CheckError) Error() string {
	return "status check: " + e.Err.Error()
}

func (e *CheckError) Unwrap() error {
	return e.Err
}
