package scoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
)

func TestComputeRanges(t *testing.T) {
	got, err := ComputeRanges(context.Background(), sampleCatalog())
	require.NoError(t, err)

	// SHIRT001 540 л, SWEAT001 0.45*(0.7*2700+0.3*70), DRESS001 0.22*(0.6*2700+0.4*500)
	water := got[impacts.Water]
	assert.InDelta(t, 400.4, water.Best, 1e-9)
	assert.InDelta(t, 859.95, water.Worst, 1e-9)
	assert.Len(t, got, 3)
}

func TestComputeRanges_IgnoresCategoriesWithoutData(t *testing.T) {
	cat := newMemCatalog()
	cat.addCoef("cotton", impacts.Water, 1000, "L/kg")
	cat.addItem(items.Item{Code: "A", WeightGrams: 100}, pct("cotton", 100))
	cat.addItem(items.Item{Code: "B", WeightGrams: 300}, pct("cotton", 100))

	got, err := ComputeRanges(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, map[impacts.Category]Range{impacts.Water: {Best: 100, Worst: 300}}, got)
}

func TestRangeCache_FallbackFillsGaps(t *testing.T) {
	cat := newMemCatalog()
	cat.addCoef("cotton", impacts.Water, 1000, "L/kg")
	cat.addItem(items.Item{Code: "A", WeightGrams: 100}, pct("cotton", 100))

	fallback := map[impacts.Category]Range{
		impacts.Water:  {Best: 1, Worst: 2},
		impacts.Energy: {Best: 3, Worst: 4},
	}
	rc := NewRangeCache(0)
	got, err := rc.Get(context.Background(), cat, fallback)
	require.NoError(t, err)
	assert.Equal(t, Range{Best: 100, Worst: 100}, got[impacts.Water])
	assert.Equal(t, Range{Best: 3, Worst: 4}, got[impacts.Energy])
	assert.Equal(t, Range{Best: 1, Worst: 2}, fallback[impacts.Water])
}

func TestRangeCache_InvalidateAndTTL(t *testing.T) {
	cat := sampleCatalog()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rc := NewRangeCache(time.Minute)
	rc.now = func() time.Time { return now }

	computes := 0
	rc.OnCompute(func(time.Duration) { computes++ })

	get := func() {
		_, err := rc.Get(context.Background(), cat, nil)
		require.NoError(t, err)
	}

	get()
	get()
	assert.Equal(t, 1, computes)

	now = now.Add(30 * time.Second)
	get()
	assert.Equal(t, 1, computes)

	now = now.Add(31 * time.Second)
	get()
	assert.Equal(t, 2, computes)

	rc.Invalidate()
	assert.True(t, rc.ComputedAt().IsZero())
	get()
	assert.Equal(t, 3, computes)
}

func TestRangeCache_SeesCatalogChangesAfterInvalidate(t *testing.T) {
	cat := newMemCatalog()
	cat.addCoef("cotton", impacts.Water, 1000, "L/kg")
	cat.addItem(items.Item{Code: "A", WeightGrams: 100}, pct("cotton", 100))
	rc := NewRangeCache(0)

	got, err := rc.Get(context.Background(), cat, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got[impacts.Water].Worst)

	cat.addItem(items.Item{Code: "B", WeightGrams: 900}, pct("cotton", 100))
	got, err = rc.Get(context.Background(), cat, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got[impacts.Water].Worst)

	rc.Invalidate()
	got, err = rc.Get(context.Background(), cat, nil)
	require.NoError(t, err)
	assert.Equal(t, 900.0, got[impacts.Water].Worst)
}

func TestRangeCache_ConcurrentGetIsIdempotent(t *testing.T) {
	cat := sampleCatalog()
	rc := NewRangeCache(0)
	want, err := ComputeRanges(context.Background(), cat)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]map[impacts.Category]Range, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				rc.Invalidate()
			}
			r, err := rc.Get(context.Background(), cat, nil)
			if err == nil {
				results[i] = r
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, want, r)
	}
}

func TestScorer_RefreshRangesPicksUpNewItems(t *testing.T) {
	cat := sampleCatalog()
	s := New(cat, mustProfile(t, "enhanced"))

	before, at, err := s.RefreshRanges(context.Background())
	require.NoError(t, err)
	assert.False(t, at.IsZero())
	assert.InDelta(t, 859.95, before[impacts.Water].Worst, 1e-9)

	cat.addItem(items.Item{Code: "BIG", Name: "Big", WeightGrams: 1000}, pct("cotton", 100))
	after, _, err := s.RefreshRanges(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2700.0, after[impacts.Water].Worst, 1e-9)
	assert.Same(t, s.Ranges(), s.WithProfile(mustProfile(t, "basic")).Ranges())
}
