package ailink

import "time"

const (
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 120 * time.Second
)

// Config configures the completion gateway.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`

	// RequestsPerMinute paces outgoing requests; 0 disables pacing.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`

	// MaxImageDimension > 0 re-encodes screenshots as JPEG bounded to that
	// many pixels per side; 0 sends the file bytes unchanged.
	MaxImageDimension int `mapstructure:"max_image_dimension"`
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
