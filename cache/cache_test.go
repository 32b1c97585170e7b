package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCachesWithinTTL(t *testing.T) {
	c := New(time.Minute)
	calls := 0
	loader := func() (interface{}, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Get("key", loader)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)
}

func TestGetReloadsAfterTTL(t *testing.T) {
	c := New(10 * time.Millisecond)
	calls := 0
	loader := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	v, err := c.Get("key", loader)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	time.Sleep(20 * time.Millisecond)

	v, err = c.Get("key", loader)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestGetErrorNotCached(t *testing.T) {
	c := New(time.Minute)
	calls := 0
	_, err := c.Get("key", func() (interface{}, error) {
		calls++
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	v, err := c.Get("key", func() (interface{}, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestInvalidate(t *testing.T) {
	c := New(time.Minute)
	calls := 0
	loader := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := c.Get("key", loader)
	require.NoError(t, err)
	c.Invalidate("key")

	v, err := c.Get("key", loader)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

// Одновременные промахи по одному ключу должны делить один вызов loader.
func TestConcurrentMissesShareLoad(t *testing.T) {
	c := New(time.Minute)
	var calls int32
	loader := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get("key", loader)
			assert.NoError(t, err)
			assert.Equal(t, "value", v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
