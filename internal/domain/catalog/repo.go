package catalog

import (
	"context"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
	"github.com/Spok95/eco-wardrobe/internal/domain/materials"
)

// Repo каталог поверх Postgres: чтение для расчёта, статистика и запись при импорте.
type Repo struct {
	pool      *pgxpool.Pool
	items     *items.Repo
	materials *materials.Repo
	impacts   *impacts.Repo
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool:      pool,
		items:     items.NewRepo(pool),
		materials: materials.NewRepo(pool),
		impacts:   impacts.NewRepo(pool),
	}
}

/* Чтение для расчёта */

func (r *Repo) GetItem(ctx context.Context, code string) (*items.Item, error) {
	return r.items.GetByCode(ctx, code)
}

func (r *Repo) GetComposition(ctx context.Context, code string) ([]items.Component, error) {
	return r.items.Composition(ctx, code)
}

func (r *Repo) GetCoefficient(ctx context.Context, material string, category impacts.Category) (*impacts.Coefficient, error) {
	return r.impacts.Get(ctx, material, category)
}

func (r *Repo) ListItems(ctx context.Context) ([]items.Item, error) {
	return r.items.List(ctx)
}

func (r *Repo) SearchItems(ctx context.Context, q string) ([]items.Item, error) {
	return r.items.Search(ctx, q)
}

/* Запись при импорте */

func (r *Repo) UpsertMaterial(ctx context.Context, m materials.Material) error {
	_, err := r.materials.Upsert(ctx, m)
	return err
}

func (r *Repo) UpsertCoefficient(ctx context.Context, c impacts.Coefficient) error {
	return r.impacts.Upsert(ctx, c)
}

func (r *Repo) UpsertItem(ctx context.Context, it items.Item) error {
	return r.items.Upsert(ctx, it)
}

func (r *Repo) SetComposition(ctx context.Context, code string, comps []items.Component) error {
	return r.items.SetComposition(ctx, code, comps)
}

/* Справочник материалов */

func (r *Repo) ListMaterials(ctx context.Context) ([]materials.WithUsage, error) {
	return r.materials.List(ctx)
}

func (r *Repo) SearchMaterials(ctx context.Context, q string) ([]materials.WithUsage, error) {
	return r.materials.SearchByName(ctx, q)
}

func (r *Repo) GetMaterial(ctx context.Context, name string) (*materials.Material, error) {
	return r.materials.GetByName(ctx, name)
}

func (r *Repo) ItemsByMaterial(ctx context.Context, name string) ([]items.Item, error) {
	return r.items.ListByMaterial(ctx, name)
}

func (r *Repo) MaterialCoefficients(ctx context.Context, name string) ([]impacts.Coefficient, error) {
	return r.impacts.ListByMaterial(ctx, name)
}

func (r *Repo) ListCoefficients(ctx context.Context) ([]impacts.Coefficient, error) {
	return r.impacts.List(ctx)
}

func (r *Repo) Dedupe(ctx context.Context, dryRun bool) ([]impacts.Conflict, error) {
	return r.impacts.Dedupe(ctx, dryRun)
}

// Stats количество записей и средний вес вещи.
func (r *Repo) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	var avg *float64
	err := r.pool.QueryRow(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM clothing_items),
		  (SELECT COUNT(*) FROM materials),
		  (SELECT COUNT(*) FROM impact_coefficients),
		  (SELECT COUNT(DISTINCT brand) FROM clothing_items WHERE brand IS NOT NULL),
		  (SELECT COUNT(DISTINCT category) FROM clothing_items WHERE category IS NOT NULL),
		  (SELECT COUNT(DISTINCT category) FROM impact_coefficients),
		  (SELECT AVG(weight_grams)::float8 FROM clothing_items)
	`).Scan(&s.Items, &s.Materials, &s.Impacts, &s.Brands, &s.Categories, &s.ImpactCategories, &avg)
	if err != nil {
		return nil, err
	}
	if avg != nil {
		s.AvgWeightGrams = math.Round(*avg*10) / 10
	}
	return &s, nil
}
