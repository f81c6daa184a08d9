// Package options contains flags and options for the indexing job.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	cliflag "github.com/kart-io/finadvisor/pkg/app/cliflag"
	llmopts "github.com/kart-io/finadvisor/pkg/options/llm"
	logopts "github.com/kart-io/finadvisor/pkg/options/logger"
	ragopts "github.com/kart-io/finadvisor/pkg/options/rag"
)

// JobOptions contains the configuration options for the indexing job.
type JobOptions struct {
	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// EmbeddingOptions contains the indexing-time embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// RAGOptions contains retrieval pipeline configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// Concurrency is the number of concurrent embedding workers.
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
}

// NewJobOptions creates a JobOptions instance with default values.
func NewJobOptions() *JobOptions {
	return &JobOptions{
		LogOptions:       logopts.NewOptions(),
		EmbeddingOptions: llmopts.NewIndexEmbeddingOptions(),
		RAGOptions:       ragopts.NewOptions(),
		Concurrency:      4,
	}
}

// Flags returns flags for the indexing job by section name.
func (o *JobOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding.")
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))

	fs := fss.FlagSet("misc")
	fs.IntVar(&o.Concurrency, "concurrency", o.Concurrency, "Number of concurrent embedding workers")

	return fss
}

// Complete completes all the required options.
func (o *JobOptions) Complete() error {
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.RAGOptions.Complete(); err != nil {
		return fmt.Errorf("rag: %w", err)
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return nil
}

// Validate checks whether the options in JobOptions are valid.
func (o *JobOptions) Validate() error {
	errs := []error{}

	if err := o.LogOptions.Validate(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)

	return utilerrors.NewAggregate(errs)
}
