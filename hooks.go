package radar

import (
	"sync"

	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/merger"
)

// Hook function types for pipeline events
type (
	// CombinedHook is called after a combined artifact has been written
	CombinedHook func(res combiner.Result)

	// MergedHook is called after merge outputs have been written
	MergedHook func(res merger.BatchResult)
)

// Hooks registers callbacks for pipeline events.
type Hooks interface {
	// OnCombined registers a callback for written combined artifacts
	OnCombined(fn CombinedHook)

	// OnMerged registers a callback for written merge outputs
	OnMerged(fn MergedHook)
}

// hooks manages event callbacks
type hooks struct {
	mu         sync.RWMutex
	onCombined []CombinedHook
	onMerged   []MergedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnCombined registers a callback for written combined artifacts.
func (c *client) OnCombined(fn CombinedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onCombined = append(c.hooks.onCombined, fn)
}

// OnMerged registers a callback for written merge outputs.
func (c *client) OnMerged(fn MergedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onMerged = append(c.hooks.onMerged, fn)
}

// triggerCombined calls the combined hooks for every result that produced a file.
func (h *hooks) triggerCombined(results []combiner.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, res := range results {
		if res.Status == combiner.StatusError {
			continue
		}
		for _, hook := range h.onCombined {
			hook(res)
		}
	}
}

// triggerMerged calls the merged hooks for every result that produced files.
func (h *hooks) triggerMerged(results []merger.BatchResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, res := range results {
		if res.Status == combiner.StatusError {
			continue
		}
		for _, hook := range h.onMerged {
			hook(res)
		}
	}
}
