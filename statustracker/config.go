package statustracker

import (
	"time"
)

// Config holds StatusTracker configuration. Keys match the JSON written by
// the setup wizard.
type Config struct {
	Channel string `yaml:"channel" json:"channel" validate:"required"`
	// RefreshInterval is the check period in hours.
	RefreshInterval float64 `yaml:"refreshInterval" json:"refreshInterval" default:"1" validate:"gt=0"`
	// Timeout is the per-domain request timeout in seconds.
	Timeout float64  `yaml:"timeout" json:"timeout" default:"5" validate:"gt=0"`
	Quiet   bool     `yaml:"quiet" json:"quiet"`
	Domains []string `yaml:"domains" json:"domains" validate:"min=1,dive,required"`
}

// Interval returns the refresh interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.RefreshInterval * float64(time.Hour))
}

// RequestTimeout returns the per-domain timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}
