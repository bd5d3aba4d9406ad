package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	radarerrors "github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/logging"
)

// fakeClock advances one second per reading.
func fakeClock() func() utc.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() utc.Time {
		t = t.Add(time.Second)
		return utc.New(t)
	}
}

func newTestManager() *Manager {
	m := NewManager(logging.NewNopLogger())
	m.now = fakeClock()
	return m
}

func TestManager_Lifecycle(t *testing.T) {
	m := newTestManager()

	id := m.Create("Combine", "Combining data from all sources")
	task, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, task.Status)
	assert.Nil(t, task.EndTime)
	assert.Nil(t, task.Duration)

	m.Complete(id, "Combined 3 files")
	task, err = m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, task.Status)
	require.NotNil(t, task.Result)
	assert.Equal(t, "Combined 3 files", *task.Result)
	require.NotNil(t, task.Duration)
	assert.Equal(t, 1.0, *task.Duration)

	m.Fail(id, errors.New("too late"))
	task, _ = m.Get(id)
	assert.Equal(t, StatusSuccess, task.Status, "finished tasks do not change")
}

func TestManager_Run(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	ok := m.Run(ctx, "Merge", "Merging all unmerged files", func(context.Context) (string, error) {
		return "Merged 2 files", nil
	})
	failed := m.Run(ctx, "Merge", "bad", func(context.Context) (string, error) {
		return "", errors.New("boom")
	})
	panicked := m.Run(ctx, "Merge", "worse", func(context.Context) (string, error) {
		panic("kaboom")
	})
	m.Wait()

	task, err := m.Get(ok)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, task.Status)

	task, err = m.Get(failed)
	require.NoError(t, err)
	assert.Equal(t, StatusError, task.Status)
	assert.Equal(t, "boom", *task.Result)

	task, err = m.Get(panicked)
	require.NoError(t, err)
	assert.Equal(t, StatusError, task.Status)
	assert.Contains(t, *task.Result, "kaboom")
}

func TestManager_ListNewestFirst(t *testing.T) {
	m := newTestManager()
	first := m.Create("Combine", "one")
	second := m.Create("Merge", "two")
	third := m.Create("Merge", "three")
	m.Complete(second, "")

	all := m.List("")
	require.Len(t, all, 3)
	assert.Equal(t, []string{third, second, first}, []string{all[0].ID, all[1].ID, all[2].ID})

	running := m.List(StatusRunning)
	require.Len(t, running, 2)
	assert.Equal(t, third, running[0].ID)

	done := m.List(StatusSuccess)
	require.Len(t, done, 1)
	assert.Equal(t, "Completed", *done[0].Result)
}

func TestManager_Retention(t *testing.T) {
	m := newTestManager()
	m.retention = 3

	running := m.Create("Combine", "still going")
	var finished []string
	for i := 0; i < 5; i++ {
		id := m.Create("Merge", "batch")
		m.Complete(id, "ok")
		finished = append(finished, id)
	}

	assert.Len(t, m.List(""), 4)
	_, err := m.Get(running)
	assert.NoError(t, err)
	for _, id := range finished[:2] {
		_, err := m.Get(id)
		assert.True(t, radarerrors.IsNotFound(err))
	}
	for _, id := range finished[2:] {
		_, err := m.Get(id)
		assert.NoError(t, err)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("error")
	require.NoError(t, err)
	assert.Equal(t, StatusError, s)

	s, err = ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, Status(""), s)

	_, err = ParseStatus("done")
	assert.True(t, radarerrors.IsValidationError(err))
}
