package scoring

import (
	"math"
	"strings"

	"github.com/Spok95/eco-wardrobe/internal/domain/items"
)

// weightedMaterial среднее значение таблицы, взвешенное долями материалов.
func weightedMaterial(comps []items.Component, table map[string]float64, def float64) float64 {
	score := 0.0
	for _, c := range comps {
		v, ok := table[strings.ToLower(strings.TrimSpace(c.Material))]
		if !ok {
			v = def
		}
		score += v * c.Percentage / 100
	}
	return score
}

func lookupOr(table map[string]float64, key string, def float64) float64 {
	if v, ok := table[strings.ToLower(strings.TrimSpace(key))]; ok {
		return v
	}
	return def
}

// lastingScore без штрафа за состав: его вычитает Compute.
func lastingScore(l Lasting, it items.Item, comps []items.Component) LastingScore {
	durability := weightedMaterial(comps, l.Durability, l.DefaultScore) *
		lookupOr(l.CategoryExpectation, it.Category, 1.0) *
		l.weightFactor(it.WeightGrams) *
		lookupOr(l.BrandQuality, it.Brand, 1.0)
	durability = math.Min(100, durability)

	s := LastingScore{
		Durability:   durability,
		EndOfLife:    weightedMaterial(comps, l.EndOfLife, l.DefaultScore),
		Microplastic: weightedMaterial(comps, l.Microplastic, l.DefaultScore),
		Replacement:  durability,
	}
	w := l.Weights
	s.Score = w.Durability*s.Durability + w.EndOfLife*s.EndOfLife +
		w.Microplastic*s.Microplastic + w.Replacement*s.Replacement
	return s
}
