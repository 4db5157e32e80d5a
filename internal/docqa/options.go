package docqa

import (
	"fmt"

	"github.com/spf13/pflag"

	authopts "github.com/kart-io/docqa/pkg/options/auth"
	httpopts "github.com/kart-io/docqa/pkg/options/http"
	llmopts "github.com/kart-io/docqa/pkg/options/llm"
	logopts "github.com/kart-io/docqa/pkg/options/logger"
	pipelineopts "github.com/kart-io/docqa/pkg/options/pipeline"
	ratelimitopts "github.com/kart-io/docqa/pkg/options/ratelimit"
	redisopts "github.com/kart-io/docqa/pkg/options/redis"
)

// Options aggregates all configuration for the document QA service.
type Options struct {
	HTTP      *httpopts.Options        `json:"http" mapstructure:"http"`
	Log       *logopts.Options         `json:"log" mapstructure:"log"`
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	Chat      *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`
	Pipeline  *pipelineopts.Options    `json:"pipeline" mapstructure:"pipeline"`
	Auth      *authopts.Options        `json:"auth" mapstructure:"auth"`
	RateLimit *ratelimitopts.Options   `json:"ratelimit" mapstructure:"ratelimit"`
	Redis     *redisopts.Options       `json:"redis" mapstructure:"redis"`
}

// NewOptions returns the default service configuration.
func NewOptions() *Options {
	return &Options{
		HTTP:      httpopts.NewOptions(),
		Log:       logopts.NewOptions(),
		Embedding: llmopts.NewEmbeddingOptions(),
		Chat:      llmopts.NewChatOptions(),
		Pipeline:  pipelineopts.NewOptions(),
		Auth:      authopts.NewOptions(),
		RateLimit: ratelimitopts.NewOptions(),
		Redis:     redisopts.NewOptions(),
	}
}

// AddFlags registers all option groups on the flag set.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.HTTP.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Embedding.AddFlags(fs, "embedding")
	o.Chat.AddFlags(fs, "chat")
	o.Pipeline.AddFlags(fs)
	o.Auth.AddFlags(fs)
	o.RateLimit.AddFlags(fs)
	o.Redis.AddFlags(fs)
}

// Validate checks all option groups.
func (o *Options) Validate() error {
	var errs []error

	if err := o.HTTP.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := o.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.Chat.Validate()...)
	errs = append(errs, o.Pipeline.Validate()...)
	errs = append(errs, o.Auth.Validate()...)
	errs = append(errs, o.RateLimit.Validate()...)
	if err := o.Redis.Validate(); err != nil {
		errs = append(errs, err)
	}

	if o.RateLimit.Engine == "redis" && !o.Redis.Enabled {
		errs = append(errs, fmt.Errorf("ratelimit.engine=redis requires redis.enabled=true"))
	}

	if len(errs) == 0 {
		return nil
	}
	msg := "invalid configuration:"
	for _, err := range errs {
		msg += "\n  - " + err.Error()
	}
	return fmt.Errorf("%s", msg)
}

// Complete fills defaults across all option groups.
func (o *Options) Complete() error {
	if err := o.HTTP.Complete(); err != nil {
		return err
	}
	if err := o.Log.Complete(); err != nil {
		return err
	}
	if err := o.Embedding.Complete(); err != nil {
		return err
	}
	if err := o.Chat.Complete(); err != nil {
		return err
	}
	if err := o.Pipeline.Complete(); err != nil {
		return err
	}
	if err := o.Auth.Complete(); err != nil {
		return err
	}
	return o.RateLimit.Complete()
}
