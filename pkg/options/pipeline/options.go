// Package pipeline provides document processing pipeline options.
package pipeline

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options configures chunking, retrieval, prompting, and caching.
type Options struct {
	// ChunkSize is the maximum chunk length in runes.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkFloor drops chunks shorter than this many runes.
	ChunkFloor int `json:"chunk-floor" mapstructure:"chunk-floor"`

	// TopK is the number of chunks retrieved per question.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// ChunkCharLimit caps each retrieved chunk before prompting.
	ChunkCharLimit int `json:"chunk-char-limit" mapstructure:"chunk-char-limit"`

	// TokenBudget is the estimated-token ceiling for a prompt.
	TokenBudget int `json:"token-budget" mapstructure:"token-budget"`

	// EmbedBatchSize is the number of texts per embedding request.
	EmbedBatchSize int `json:"embed-batch-size" mapstructure:"embed-batch-size"`

	// Normalize enables unit-length embeddings and inner-product search.
	Normalize bool `json:"normalize" mapstructure:"normalize"`

	// Concurrency bounds parallel question processing per request.
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`

	// CacheCapacity bounds the number of cached documents.
	CacheCapacity int `json:"cache-capacity" mapstructure:"cache-capacity"`

	// CacheTTL is how long a cached document stays valid.
	CacheTTL time.Duration `json:"cache-ttl" mapstructure:"cache-ttl"`

	// DownloadTimeout bounds a document download.
	DownloadTimeout time.Duration `json:"download-timeout" mapstructure:"download-timeout"`

	// DownloadRetries is the number of download retries after the first
	// attempt.
	DownloadRetries int `json:"download-retries" mapstructure:"download-retries"`

	// MaxDocumentBytes caps the downloaded document size.
	MaxDocumentBytes int64 `json:"max-document-bytes" mapstructure:"max-document-bytes"`
}

// NewOptions returns pipeline defaults.
func NewOptions() *Options {
	return &Options{
		ChunkSize:        500,
		ChunkFloor:       80,
		TopK:             3,
		ChunkCharLimit:   400,
		TokenBudget:      8000,
		EmbedBatchSize:   64,
		Normalize:        true,
		Concurrency:      4,
		CacheCapacity:    10,
		CacheTTL:         time.Hour,
		DownloadTimeout:  60 * time.Second,
		DownloadRetries:  2,
		MaxDocumentBytes: 50 << 20,
	}
}

// AddFlags adds pipeline flags to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.IntVar(&o.ChunkSize, p+"pipeline.chunk-size", o.ChunkSize, "Maximum chunk length in runes.")
	fs.IntVar(&o.ChunkFloor, p+"pipeline.chunk-floor", o.ChunkFloor, "Minimum chunk length in runes.")
	fs.IntVar(&o.TopK, p+"pipeline.top-k", o.TopK, "Number of chunks retrieved per question.")
	fs.IntVar(&o.ChunkCharLimit, p+"pipeline.chunk-char-limit", o.ChunkCharLimit, "Per-chunk character cap before prompting.")
	fs.IntVar(&o.TokenBudget, p+"pipeline.token-budget", o.TokenBudget, "Estimated-token ceiling for a prompt.")
	fs.IntVar(&o.EmbedBatchSize, p+"pipeline.embed-batch-size", o.EmbedBatchSize, "Texts per embedding request.")
	fs.BoolVar(&o.Normalize, p+"pipeline.normalize", o.Normalize, "Normalize embeddings and search by inner product.")
	fs.IntVar(&o.Concurrency, p+"pipeline.concurrency", o.Concurrency, "Parallel question processing per request.")
	fs.IntVar(&o.CacheCapacity, p+"pipeline.cache-capacity", o.CacheCapacity, "Maximum number of cached documents.")
	fs.DurationVar(&o.CacheTTL, p+"pipeline.cache-ttl", o.CacheTTL, "Cached document time to live.")
	fs.DurationVar(&o.DownloadTimeout, p+"pipeline.download-timeout", o.DownloadTimeout, "Document download timeout.")
	fs.IntVar(&o.DownloadRetries, p+"pipeline.download-retries", o.DownloadRetries, "Download retries after the first attempt.")
	fs.Int64Var(&o.MaxDocumentBytes, p+"pipeline.max-document-bytes", o.MaxDocumentBytes, "Maximum downloaded document size in bytes.")
}

// Validate validates the pipeline options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk-size must be positive"))
	}
	if o.ChunkFloor <= 0 || o.ChunkFloor > o.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk-floor must be in (0, chunk-size]"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive"))
	}
	if o.TokenBudget <= 0 {
		errs = append(errs, fmt.Errorf("token-budget must be positive"))
	}
	if o.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive"))
	}
	if o.CacheCapacity <= 0 {
		errs = append(errs, fmt.Errorf("cache-capacity must be positive"))
	}
	if o.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache-ttl must be positive"))
	}
	return errs
}

// Complete completes the pipeline options with defaults.
func (o *Options) Complete() error {
	if o.EmbedBatchSize <= 0 {
		o.EmbedBatchSize = 64
	}
	if o.MaxDocumentBytes <= 0 {
		o.MaxDocumentBytes = 50 << 20
	}
	if o.DownloadTimeout <= 0 {
		o.DownloadTimeout = 60 * time.Second
	}
	if o.DownloadRetries < 0 {
		o.DownloadRetries = 0
	}
	return nil
}
