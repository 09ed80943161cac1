package logger

// Config holds logger configuration.
type Config struct {
	Level       string   `yaml:"level" json:"level" default:"info"`
	OutputPaths []string `yaml:"output_paths" json:"output_paths"`
	Encoding    string   `yaml:"encoding" json:"encoding" default:"json" validate:"oneof=json console"`

	// SentryDSN enables forwarding of error entries to Sentry when set.
	SentryDSN string `yaml:"-" json:"-"`
}
