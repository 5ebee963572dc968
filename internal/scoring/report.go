package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
)

// MaterialImpact вклад материала в категорию отчёта.
type MaterialImpact struct {
	Material   string  `json:"material"`
	Percentage float64 `json:"percentage"`
	Value      float64 `json:"value"`
	Source     string  `json:"source,omitempty"`
	Missing    bool    `json:"missing,omitempty"`
}

type CategoryImpact struct {
	Category  impacts.Category `json:"category"`
	Title     string           `json:"title"`
	Total     float64          `json:"total"`
	Unit      string           `json:"unit"`
	Materials []MaterialImpact `json:"materials"`
}

// ImpactReport сырые воздействия вещи без нормализации и оценки.
type ImpactReport struct {
	Item        items.Item        `json:"item"`
	Composition []items.Component `json:"composition"`
	Valid       bool              `json:"composition_valid"`
	Categories  []CategoryImpact  `json:"categories"`
	WaterTubeML float64           `json:"water_tube_ml"`
}

// Report отчёт по категориям для вещи; ошибки те же, что у ScoreItem.
func (s *Scorer) Report(ctx context.Context, code string) (*ImpactReport, error) {
	code = strings.TrimSpace(code)
	it, err := s.catalog.GetItem(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", code, err)
	}
	if it == nil {
		return nil, s.notFound(ctx, code)
	}
	comps, err := s.catalog.GetComposition(ctx, it.Code)
	if err != nil {
		return nil, fmt.Errorf("get composition %s: %w", code, err)
	}
	if len(comps) == 0 {
		return nil, fmt.Errorf("item %s: %w", code, ErrNoComposition)
	}

	raw, breakdown, err := RawImpact(*it, comps, s.lookup(ctx))
	if err != nil {
		return nil, err
	}

	rep := &ImpactReport{
		Item:        *it,
		Composition: comps,
		Valid:       items.ValidComposition(comps),
		WaterTubeML: WaterTube(raw[impacts.Water]),
	}
	for _, cat := range impacts.Categories {
		ci := CategoryImpact{
			Category: cat,
			Title:    cat.Title(),
			Total:    round2(raw[cat]),
			Unit:     unitFor(cat, breakdown),
		}
		for _, b := range breakdown {
			if b.Category != cat {
				continue
			}
			ci.Materials = append(ci.Materials, MaterialImpact{
				Material:   b.Material,
				Percentage: b.Percentage,
				Value:      round2(b.Impact),
				Source:     b.Source,
				Missing:    b.Missing,
			})
		}
		rep.Categories = append(rep.Categories, ci)
	}
	return rep, nil
}
