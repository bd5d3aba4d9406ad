package radar

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
	"github.com/passkeyradar/radar/pkg/merger"
	"github.com/passkeyradar/radar/pkg/normalize"
)

// options holds the configuration for a client.
type options struct {
	dataDir     string
	aliases     *normalize.AliasTable
	aliasesFile string
	concurrency int
	policy      merger.ConflictPolicy
	logger      *zerolog.Logger
	now         func() time.Time
}

// Option is a function that configures a client.
type Option func(*options) error

func defaults() *options {
	return &options{
		dataDir:     constants.DefaultDataDir,
		concurrency: constants.DefaultConcurrency,
		policy:      merger.PolicyOverwrite,
		logger:      logging.Default(),
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithDataDir sets the directory holding directories/, wellknown/,
// combined/, merged/ and conflicts/.
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.NewValidationError("data_dir", dir, "cannot be empty")
		}
		o.dataDir = dir
		return nil
	}
}

// WithAliases uses an already loaded alias table.
func WithAliases(t *normalize.AliasTable) Option {
	return func(o *options) error {
		o.aliases = t
		return nil
	}
}

// WithAliasesFile loads the alias table from path instead of the embedded one.
func WithAliasesFile(path string) Option {
	return func(o *options) error {
		o.aliasesFile = path
		return nil
	}
}

// WithConcurrency bounds how many targets are combined or merged at once.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxConcurrency {
			return errors.NewValidationError("concurrency", n, "must be between 1 and 64")
		}
		o.concurrency = n
		return nil
	}
}

// WithConflictPolicy selects how merge resolves field disagreements.
func WithConflictPolicy(p merger.ConflictPolicy) Option {
	return func(o *options) error {
		parsed, err := merger.ParseConflictPolicy(string(p))
		if err != nil {
			return err
		}
		o.policy = parsed
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

// WithClock overrides the clock used for the default end of a date range.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		o.now = now
		return nil
	}
}
