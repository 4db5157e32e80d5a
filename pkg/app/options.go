package app

import "github.com/spf13/pflag"

// CliOptions is implemented by the aggregate options struct a service
// hands to App. Complete runs before Validate, after config and flags
// have been merged.
type CliOptions interface {
	// AddFlags adds flags to the flagset.
	AddFlags(fs *pflag.FlagSet)
	// Validate validates the options.
	Validate() error
	// Complete completes the options with defaults.
	Complete() error
}
