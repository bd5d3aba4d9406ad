package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGetDelete(t *testing.T) {
	c := New(time.Minute, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "v")
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, c.ItemCount())

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := New(20*time.Millisecond, time.Minute)
	c.Set("k", 1)
	time.Sleep(50 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Remember(t *testing.T) {
	c := New(time.Minute, time.Minute)
	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}

	v, hit, err := c.Remember("k", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, v)

	v, hit, err = c.Remember("k", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)

	_, _, err = c.Remember("bad", func() (any, error) { return nil, errors.New("nope") })
	assert.Error(t, err)
	_, ok := c.Get("bad")
	assert.False(t, ok)
}

func TestCache_DeletePrefix(t *testing.T) {
	c := New(time.Minute, time.Minute)
	c.Set(CombinedPrefix+"2024-03-01", 1)
	c.Set(MergedPrefix+"2024-03-01", 2)
	c.Set(MergedPrefix+"2024-03-02", 3)
	c.Set(ConflictsPrefix+"2024-03-01", 4)

	c.DeletePrefix(MergedPrefix)
	assert.Equal(t, 2, c.ItemCount())
	_, ok := c.Get(CombinedPrefix + "2024-03-01")
	assert.True(t, ok)
	_, ok = c.Get(MergedPrefix + "2024-03-02")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.ItemCount())
}
