package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartCacheStoresEntry(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}

	val1, err := cache.GetOrRender("key", render)
	require.NoError(t, err)
	val2, err := cache.GetOrRender("key", render)
	require.NoError(t, err)

	assert.Equal(t, "html", val1)
	assert.Equal(t, val1, val2)
	assert.Equal(t, 1, calls)
}

func TestChartCacheExpires(t *testing.T) {
	now := time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)
	cache := NewChartCache(time.Minute)
	cache.clock = func() time.Time { return now }
	calls := 0
	render := func() (string, error) {
		calls++
		return "fresh", nil
	}

	_, err := cache.GetOrRender("key", render)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = cache.GetOrRender("key", render)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestChartCachePurge(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}
	_, _ = cache.GetOrRender("key", render)
	cache.Purge()
	_, _ = cache.GetOrRender("key", render)
	assert.Equal(t, 2, calls)
}

func TestConfigHashIsStableForEqualSpecs(t *testing.T) {
	a := ChartSpec{Type: ChartBar, Title: "Demand", Series: []ChartSeries{{Name: "Go", Points: []ChartPoint{{Label: "x", Value: 1}}}}}
	b := ChartSpec{Type: ChartBar, Title: "Demand", Series: []ChartSeries{{Name: "Go", Points: []ChartPoint{{Label: "x", Value: 1}}}}}
	c := ChartSpec{Type: ChartBar, Title: "Demand", Series: []ChartSeries{{Name: "Go", Points: []ChartPoint{{Label: "x", Value: 2}}}}}

	assert.Equal(t, configHash(a), configHash(b))
	assert.NotEqual(t, configHash(a), configHash(c))
	assert.Equal(t, "empty", configHash(nil))
}
