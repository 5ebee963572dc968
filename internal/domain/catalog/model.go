package catalog

import (
	"context"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
	"github.com/Spok95/eco-wardrobe/internal/domain/materials"
)

// Stats сводка по каталогу для /api/stats и бота.
type Stats struct {
	Items            int     `json:"items"`
	Materials        int     `json:"materials"`
	Impacts          int     `json:"impacts"`
	Brands           int     `json:"brands"`
	Categories       int     `json:"categories"`
	ImpactCategories int     `json:"impact_categories"`
	AvgWeightGrams   float64 `json:"avg_weight_grams"`
}

// Sink запись каталога при импорте и заполнении демо-данными.
// Материалы должны быть записаны раньше коэффициентов и составов.
type Sink interface {
	UpsertMaterial(ctx context.Context, m materials.Material) error
	UpsertCoefficient(ctx context.Context, c impacts.Coefficient) error
	UpsertItem(ctx context.Context, it items.Item) error
	SetComposition(ctx context.Context, code string, comps []items.Component) error
}
