package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/passkeyradar/radar/internal/server/response"
	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/merger"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

// DateRangeRequest limits a combine run to snapshot dates in [start, end].
type DateRangeRequest struct {
	Start string `json:"start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	End   string `json:"end,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CombineRequest is the body of POST /api/combine.
type CombineRequest struct {
	DateRange *DateRangeRequest `json:"date_range,omitempty"`
}

// MergeRequest is the body of POST /api/merge. With neither field set,
// every combined file without merged output is merged.
type MergeRequest struct {
	File  string   `json:"file,omitempty"`
	Files []string `json:"files,omitempty" validate:"omitempty,dive,required"`
}

// TaskResponse acknowledges a background run.
type TaskResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

// HandleCombine handles POST /api/combine.
func (h *Handlers) HandleCombine(w http.ResponseWriter, r *http.Request) {
	var req CombineRequest
	if err := h.decode(r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	rng, err := req.DateRange.toRange()
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	message := "Combining data from all sources"
	id := h.tasks.Run(h.ctx, "Combine", message, func(ctx context.Context) (string, error) {
		results, err := h.radar.Combine(ctx, rng)
		if err != nil {
			return "", err
		}
		return summarizeCombine(results), nil
	})
	response.Accepted(w, TaskResponse{Status: "started", Message: message, TaskID: id})
}

// HandleMerge handles POST /api/merge.
func (h *Handlers) HandleMerge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := h.decode(r, &req); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	var (
		names       = req.Files
		description = "Merging all unmerged files"
		message     = "Merging all files"
	)
	switch {
	case len(req.Files) > 0:
		description = fmt.Sprintf("Merging %d selected files", len(req.Files))
		message = fmt.Sprintf("Merging %d files", len(req.Files))
	case req.File != "":
		names = []string{req.File}
		description = "Merging file: " + req.File
		message = "Merging specific file"
	}

	ids := make([]snapshot.ID, 0, len(names))
	for _, name := range names {
		id, err := fileID(name)
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
		ids = append(ids, id)
	}

	id := h.tasks.Run(h.ctx, "Merge", description, func(ctx context.Context) (string, error) {
		results, err := h.radar.Merge(ctx, ids...)
		if err != nil {
			return "", err
		}
		return summarizeMerge(results), nil
	})
	response.Accepted(w, TaskResponse{Status: "started", Message: message, TaskID: id})
}

// toRange converts the request dates. The end date covers its whole day.
func (d *DateRangeRequest) toRange() (*combiner.DateRange, error) {
	if d == nil {
		return nil, nil
	}
	return combiner.ParseDateRange(d.Start, d.End)
}

// fileID accepts "<id>" or "<id>.json".
func fileID(name string) (snapshot.ID, error) {
	id, err := snapshot.ParseID(strings.TrimSuffix(name, constants.SnapshotExt))
	if err != nil {
		return "", errors.NewValidationError("file", name, "expected "+constants.TimestampLayout+constants.SnapshotExt)
	}
	return id, nil
}

func summarizeCombine(results []combiner.Result) string {
	failed := 0
	for _, res := range results {
		if res.Status == combiner.StatusError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Sprintf("Combined %d files, %d failed", len(results)-failed, failed)
	}
	return fmt.Sprintf("Combined %d files", len(results))
}

func summarizeMerge(results []merger.BatchResult) string {
	failed := 0
	for _, res := range results {
		if res.Status == combiner.StatusError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Sprintf("Merged %d files, %d failed", len(results)-failed, failed)
	}
	return fmt.Sprintf("Merged %d files", len(results))
}
