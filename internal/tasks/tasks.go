// Package tasks tracks background combine and merge runs started through
// the HTTP API so clients can poll them by id.
package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
)

// Status of a task.
type Status string

// Task statuses.
const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ParseStatus parses a status filter. The empty string means no filter.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case "", StatusRunning, StatusSuccess, StatusError:
		return st, nil
	default:
		return "", errors.NewValidationError("status", s, "must be running, success or error")
	}
}

// Task is a snapshot of one background run.
type Task struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	StartTime   utc.Time  `json:"start_time"`
	EndTime     *utc.Time `json:"end_time"`
	Result      *string   `json:"result"`
	Duration    *float64  `json:"duration_seconds"`
}

// Func is the work of a task. The returned string becomes the task result.
type Func func(ctx context.Context) (string, error)

// Manager keeps tasks in memory. Running tasks are never evicted; of the
// finished ones only the most recent retention are kept.
type Manager struct {
	mu        sync.RWMutex
	tasks     map[string]*Task
	retention int
	logger    *zerolog.Logger
	wg        sync.WaitGroup
	now       func() utc.Time
}

// NewManager returns an empty manager.
func NewManager(logger *zerolog.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		tasks:     make(map[string]*Task),
		retention: constants.TaskRetention,
		logger:    logger,
		now:       utc.Now,
	}
}

// Create registers a running task and returns its id.
func (m *Manager) Create(taskType, description string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &Task{
		ID:          uuid.NewString(),
		Type:        taskType,
		Description: description,
		Status:      StatusRunning,
		StartTime:   m.now(),
	}
	m.tasks[t.ID] = t
	m.evictLocked()
	return t.ID
}

// Run creates a task and executes fn in its own goroutine. A panic in fn
// fails the task instead of crashing the process.
func (m *Manager) Run(ctx context.Context, taskType, description string, fn Func) string {
	id := m.Create(taskType, description)
	ctx = logging.WithTask(ctx, id)
	logger := logging.FromContext(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Str("type", taskType).Msg("Task panicked")
				m.Fail(id, fmt.Errorf("panic: %v", r))
			}
		}()

		logger.Info().Str("type", taskType).Msg("Task started")
		result, err := fn(ctx)
		if err != nil {
			logger.Error().Err(err).Str("type", taskType).Msg("Task failed")
			m.Fail(id, err)
			return
		}
		logger.Info().Str("type", taskType).Str("result", result).Msg("Task completed")
		m.Complete(id, result)
	}()
	return id
}

// Wait blocks until every task started with Run has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Complete marks a task successful.
func (m *Manager) Complete(id, result string) {
	if result == "" {
		result = "Completed"
	}
	m.finish(id, StatusSuccess, result)
}

// Fail marks a task failed with err as its result.
func (m *Manager) Fail(id string, err error) {
	result := "Failed"
	if err != nil {
		result = err.Error()
	}
	m.finish(id, StatusError, result)
}

func (m *Manager) finish(id string, status Status, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Status != StatusRunning {
		return
	}
	end := m.now()
	duration := end.Time.Sub(t.StartTime.Time).Seconds()
	t.Status = status
	t.EndTime = &end
	t.Result = &result
	t.Duration = &duration
	m.evictLocked()
}

// Get returns a copy of the task with id.
func (m *Manager) Get(id string) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, errors.NewNotFoundError("task", id)
	}
	return *t, nil
}

// List returns tasks newest first, filtered by status when non-empty.
func (m *Manager) List(status Status) []Task {
	m.mu.RLock()
	out := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Time.Equal(out[j].StartTime.Time) {
			return out[i].StartTime.Time.After(out[j].StartTime.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// evictLocked drops the oldest finished tasks beyond the retention limit.
func (m *Manager) evictLocked() {
	finished := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.Status != StatusRunning {
			finished = append(finished, t)
		}
	}
	if len(finished) <= m.retention {
		return
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].EndTime.Time.Before(finished[j].EndTime.Time)
	})
	for _, t := range finished[:len(finished)-m.retention] {
		delete(m.tasks, t.ID)
	}
}
