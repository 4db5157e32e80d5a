// Package ratelimit provides rate limiter configuration options.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the sliding-window rate limiter.
type Options struct {
	// Engine selects the limiter backend, memory or redis.
	Engine string `json:"engine" mapstructure:"engine"`

	// MaxRequests is the per-client request allowance per window.
	MaxRequests int `json:"max-requests" mapstructure:"max-requests"`

	// Window is the sliding window length.
	Window time.Duration `json:"window" mapstructure:"window"`
}

// NewOptions returns rate limiter defaults.
func NewOptions() *Options {
	return &Options{
		Engine:      "memory",
		MaxRequests: 20,
		Window:      60 * time.Second,
	}
}

// AddFlags adds rate limiter flags to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Engine, p+"ratelimit.engine", o.Engine, "Rate limiter backend (memory, redis).")
	fs.IntVar(&o.MaxRequests, p+"ratelimit.max-requests", o.MaxRequests, "Requests allowed per client per window.")
	fs.DurationVar(&o.Window, p+"ratelimit.window", o.Window, "Sliding window length.")
}

// Validate validates the rate limiter options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Engine != "memory" && o.Engine != "redis" {
		errs = append(errs, fmt.Errorf("engine must be memory or redis, got %q", o.Engine))
	}
	if o.MaxRequests <= 0 {
		errs = append(errs, fmt.Errorf("max-requests must be positive"))
	}
	if o.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive"))
	}
	return errs
}

// Complete completes the rate limiter options with defaults.
func (o *Options) Complete() error {
	if o.Engine == "" {
		o.Engine = "memory"
	}
	return nil
}
