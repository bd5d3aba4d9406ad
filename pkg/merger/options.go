package merger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
)

// ConflictPolicy decides what happens to a field when a later source
// disagrees with the value already on the entity. The conflict is logged
// under every policy.
type ConflictPolicy string

// Conflict policies.
const (
	// PolicyOverwrite replaces the value with the later source's value.
	PolicyOverwrite ConflictPolicy = "overwrite"
	// PolicyKeepFirst keeps the value established by the earlier source.
	PolicyKeepFirst ConflictPolicy = "keep-first"
)

// ParseConflictPolicy parses "overwrite" or "keep-first".
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyOverwrite, PolicyKeepFirst:
		return p, nil
	case "":
		return PolicyOverwrite, nil
	default:
		return "", errors.NewValidationError("conflict_policy", s, fmt.Sprintf("must be %q or %q", PolicyOverwrite, PolicyKeepFirst))
	}
}

type options struct {
	adapters []Adapter
	policy   ConflictPolicy
	logger   *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		adapters: DefaultAdapters(),
		policy:   PolicyOverwrite,
		logger:   logging.Default(),
	}
}

// Option configures a Merger.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithAdapters replaces the source table. Order is merge priority.
func WithAdapters(adapters ...Adapter) Option {
	return func(o *options) error {
		for i, a := range adapters {
			if a.Name == "" || a.Category == "" || a.Subtype == "" {
				return errors.NewValidationError(fmt.Sprintf("adapters[%d]", i), a.Name, "name, category and subtype are required")
			}
			if a.Extract == nil {
				return errors.NewValidationError(fmt.Sprintf("adapters[%d].extract", i), a.Name, "cannot be nil")
			}
		}
		o.adapters = adapters
		return nil
	}
}

// WithConflictPolicy selects the conflict policy.
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(o *options) error {
		parsed, err := ParseConflictPolicy(string(p))
		if err != nil {
			return err
		}
		o.policy = parsed
		return nil
	}
}

// WithLogger sets the logger used when no logger is carried by the context.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}
