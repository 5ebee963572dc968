package scoring

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
)

// RangeCache динамические диапазоны (min, max сырого воздействия по всему
// каталогу). Пересчёт при первом обращении, по истечении ttl (0 — без срока)
// и после Invalidate. Пересчёт под мьютексом.
type RangeCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	now        func() time.Time
	ranges     map[impacts.Category]Range
	computedAt time.Time
	valid      bool
	onCompute  func(time.Duration)
}

func NewRangeCache(ttl time.Duration) *RangeCache {
	return &RangeCache{ttl: ttl, now: time.Now}
}

// OnCompute вызывается после каждого пересчёта с его длительностью.
func (c *RangeCache) OnCompute(fn func(time.Duration)) {
	c.mu.Lock()
	c.onCompute = fn
	c.mu.Unlock()
}

// Invalidate следующий Get пересчитает диапазоны.
func (c *RangeCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// ComputedAt время последнего пересчёта; ноль, если кэш пуст.
func (c *RangeCache) ComputedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return time.Time{}
	}
	return c.computedAt
}

// Get диапазоны категорий; для категорий без данных в каталоге берётся fallback.
func (c *RangeCache) Get(ctx context.Context, catalog Catalog, fallback map[impacts.Category]Range) (map[impacts.Category]Range, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid || (c.ttl > 0 && c.now().Sub(c.computedAt) >= c.ttl) {
		start := c.now()
		computed, err := ComputeRanges(ctx, catalog)
		if err != nil {
			return nil, err
		}
		c.ranges = computed
		c.computedAt = c.now()
		c.valid = true
		if c.onCompute != nil {
			c.onCompute(c.computedAt.Sub(start))
		}
	}

	out := maps.Clone(fallback)
	if out == nil {
		out = map[impacts.Category]Range{}
	}
	for cat, r := range c.ranges {
		out[cat] = r
	}
	return out, nil
}

// ComputeRanges минимум и максимум сырого воздействия среди вещей каталога.
// Вещи без состава и категории без единого коэффициента не учитываются.
func ComputeRanges(ctx context.Context, catalog Catalog) (map[impacts.Category]Range, error) {
	all, err := catalog.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	lookup := func(material string, category impacts.Category) (*impacts.Coefficient, error) {
		return catalog.GetCoefficient(ctx, material, category)
	}

	out := map[impacts.Category]Range{}
	for _, it := range all {
		comps, err := catalog.GetComposition(ctx, it.Code)
		if err != nil {
			return nil, fmt.Errorf("composition %s: %w", it.Code, err)
		}
		if len(comps) == 0 {
			continue
		}
		raw, breakdown, err := RawImpact(it, comps, lookup)
		if err != nil {
			return nil, err
		}
		known := map[impacts.Category]bool{}
		for _, b := range breakdown {
			if !b.Missing {
				known[b.Category] = true
			}
		}
		for cat, v := range raw {
			if !known[cat] {
				continue
			}
			r, ok := out[cat]
			if !ok {
				out[cat] = Range{Best: v, Worst: v}
				continue
			}
			if v < r.Best {
				r.Best = v
			}
			if v > r.Worst {
				r.Worst = v
			}
			out[cat] = r
		}
	}
	return out, nil
}

// Ranges общий кэш диапазонов скорера.
func (s *Scorer) Ranges() *RangeCache { return s.ranges }

// RefreshRanges сбрасывает кэш и сразу пересчитывает диапазоны по каталогу.
func (s *Scorer) RefreshRanges(ctx context.Context) (map[impacts.Category]Range, time.Time, error) {
	s.ranges.Invalidate()
	r, err := s.ranges.Get(ctx, s.catalog, s.profile.Ranges)
	if err != nil {
		return nil, time.Time{}, err
	}
	return r, s.ranges.ComputedAt(), nil
}
