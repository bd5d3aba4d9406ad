// Package handlers provides HTTP request handlers for the radar API.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/passkeyradar/radar"
	"github.com/passkeyradar/radar/internal/server/cache"
	"github.com/passkeyradar/radar/internal/tasks"
	"github.com/passkeyradar/radar/pkg/errors"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	// ctx scopes background tasks; it is canceled on server shutdown.
	ctx       context.Context
	radar     radar.Client
	tasks     *tasks.Manager
	cache     *cache.Cache
	validate  *validator.Validate
	logger    *zerolog.Logger
	startTime time.Time
}

// New creates a new Handlers instance.
func New(
	ctx context.Context,
	rd radar.Client,
	tm *tasks.Manager,
	c *cache.Cache,
	validate *validator.Validate,
	logger *zerolog.Logger,
	startTime time.Time,
) *Handlers {
	return &Handlers{
		ctx:       ctx,
		radar:     rd,
		tasks:     tm,
		cache:     c,
		validate:  validate,
		logger:    logger,
		startTime: startTime,
	}
}

// decode reads an optional JSON body into v and validates it. An empty
// body leaves v at its zero value.
func (h *Handlers) decode(r *http.Request, v any) error {
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return errors.NewValidationError("body", nil, err.Error())
		}
	}
	if err := h.validate.Struct(v); err != nil {
		return errors.WrapValidation("body", err)
	}
	return nil
}
