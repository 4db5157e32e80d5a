// Package auth provides API authentication options.
package auth

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// tokenEnv is consulted when no token is configured via flag or file.
const tokenEnv = "HACKRX_BEARER_TOKEN"

// Options configures bearer token authentication.
type Options struct {
	// Token is the bearer token clients must present. Prefer setting
	// it through the HACKRX_BEARER_TOKEN environment variable so it
	// stays out of shell history and config files.
	Token string `json:"-" mapstructure:"token"`
}

// NewOptions returns empty auth options; the token comes from
// configuration or the environment.
func NewOptions() *Options {
	return &Options{}
}

// AddFlags adds auth flags to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Token, p+"auth.token", o.Token, "Bearer token for API access (prefer HACKRX_BEARER_TOKEN env).")
}

// Validate validates the auth options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	if o.Token == "" {
		return []error{fmt.Errorf("bearer token is required: set auth.token or %s", tokenEnv)}
	}
	return nil
}

// Complete fills the token from the environment when unset.
func (o *Options) Complete() error {
	if o.Token == "" {
		o.Token = os.Getenv(tokenEnv)
	}
	return nil
}

// String redacts the token.
func (o *Options) String() string {
	if o.Token == "" {
		return "auth{token: <unset>}"
	}
	return "auth{token: ******}"
}
