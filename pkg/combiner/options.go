package combiner

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
)

type options struct {
	categories  []string
	concurrency int
	now         func() time.Time
	logger      *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		categories:  append([]string(nil), constants.Categories...),
		concurrency: constants.DefaultConcurrency,
		now:         time.Now,
		logger:      logging.Default(),
	}
}

// Option configures a Combiner.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithCategories overrides the categories that are combined.
func WithCategories(categories ...string) Option {
	return func(o *options) error {
		if len(categories) == 0 {
			return errors.NewValidationError("categories", categories, "at least one category is required")
		}
		o.categories = categories
		return nil
	}
}

// WithConcurrency bounds how many targets CombineAll processes at once.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxConcurrency {
			return errors.NewValidationError("concurrency", n, "must be between 1 and 64")
		}
		o.concurrency = n
		return nil
	}
}

// WithClock sets the source of "now" used as the default range end.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "cannot be nil")
		}
		o.now = now
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
