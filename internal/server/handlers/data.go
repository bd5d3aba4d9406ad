package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/passkeyradar/radar/internal/server/cache"
	"github.com/passkeyradar/radar/internal/server/response"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/merger"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// DataResponse wraps a data file. ActualDate is set when the requested
// date had no file and the closest earlier one was served instead.
type DataResponse struct {
	Date       string  `json:"date"`
	ActualDate *string `json:"actual_date"`
	Data       any     `json:"data"`
}

func newDataResponse(date string, id snapshot.ID, data any) DataResponse {
	resp := DataResponse{Date: date, Data: data}
	if id.String() != date {
		actual := id.String()
		resp.ActualDate = &actual
	}
	return resp
}

// HandleCombined handles GET /api/data/combined/{date}.
func (h *Handlers) HandleCombined(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	id, err := h.radar.Resolve(constants.CombinedDir, date)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	data, _, err := h.cache.Remember(cache.CombinedPrefix+id.String(), func() (any, error) {
		return h.radar.Combined(id)
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, newDataResponse(date, id, data))
}

// HandleMerged handles GET /api/data/merged/{date}. Missing merged files
// are generated from the matching combined file. Entities are keyed by
// domain, falling back to name and position.
func (h *Handlers) HandleMerged(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	id := snapshot.ID(date)
	if !id.Valid() || !h.radar.Store().HasArtifact(constants.MergedDir, id) {
		resolved, err := h.radar.Resolve(constants.CombinedDir, date)
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
		id = resolved
	}

	data, _, err := h.cache.Remember(cache.MergedPrefix+id.String(), func() (any, error) {
		entities, err := h.radar.Merged(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return keyEntities(entities), nil
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, newDataResponse(date, id, data))
}

// HandleConflicts handles GET /api/data/conflicts/{date}.
func (h *Handlers) HandleConflicts(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	id, err := h.radar.Resolve(constants.ConflictsDir, date)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	data, _, err := h.cache.Remember(cache.ConflictsPrefix+id.String(), func() (any, error) {
		return h.radar.Conflicts(id)
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, newDataResponse(date, id, data))
}

// keyEntities indexes entities by domain, "name_<name>_<idx>" or
// "item_<idx>". A later entity with the same domain replaces an earlier one.
func keyEntities(entities []merger.Entity) map[string]merger.Entity {
	out := make(map[string]merger.Entity, len(entities))
	for idx, e := range entities {
		var key string
		switch {
		case e.Domain != nil && *e.Domain != "":
			key = *e.Domain
		case e.Name != nil && *e.Name != "":
			key = fmt.Sprintf("name_%s_%d", *e.Name, idx)
		default:
			key = fmt.Sprintf("item_%d", idx)
		}
		out[key] = e
	}
	return out
}
