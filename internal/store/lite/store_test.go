package lite

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
	"github.com/Spok95/eco-wardrobe/internal/domain/materials"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
	"github.com/Spok95/eco-wardrobe/internal/seed"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, seed.Load(ctx, s))
	return s
}

func TestStore_SeedIsIdempotent(t *testing.T) {
	s := seeded(t)
	require.NoError(t, seed.Load(context.Background(), s))

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, st.Items)
	assert.Equal(t, 8, st.Materials)
	assert.Equal(t, 14, st.Impacts)
	assert.Equal(t, 1, st.Brands)
	assert.Equal(t, 5, st.Categories)
	assert.Equal(t, 3, st.ImpactCategories)
	assert.InDelta(t, 300.0, st.AvgWeightGrams, 1e-9)
}

func TestStore_ItemAndComposition(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	it, err := s.GetItem(ctx, "JEANS001")
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, "Denim Jeans", it.Name)
	assert.Equal(t, 600, it.WeightGrams)
	assert.False(t, it.CreatedAt.IsZero())

	comps, err := s.GetComposition(ctx, "JEANS001")
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, "cotton", comps[0].Material)
	assert.Equal(t, 98.0, comps[0].Percentage)

	missing, err := s.GetItem(ctx, "NOPE")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	none, err := s.GetComposition(ctx, "NOPE")
	assert.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_SearchItems(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	got, err := s.SearchItems(ctx, "cotton")
	require.NoError(t, err)
	var codes []string
	for _, it := range got {
		codes = append(codes, it.Code)
	}
	assert.ElementsMatch(t, []string{"SHIRT001", "SWEAT001", "SOCK001"}, codes)

	got, err = s.SearchItems(ctx, "DRESS")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = s.SearchItems(ctx, "  ")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_CoefficientPicksHighestPrioritySource(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCoefficient(ctx, impacts.Coefficient{
		Material: "Cotton", Category: impacts.Water, Value: 9999, Unit: "L/kg", Source: "Higg MSI",
	}))

	c, err := s.GetCoefficient(ctx, "COTTON", impacts.Water)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 2700.0, c.Value)
	assert.Equal(t, "Textile Exchange 2017", c.Source)

	c, err = s.GetCoefficient(ctx, "silk", impacts.Water)
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestStore_UpsertCoefficientSameSourceUpdates(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCoefficient(ctx, impacts.Coefficient{
		Material: "linen", Category: impacts.Water, Value: 450, Unit: "L/kg", Source: "European Flax",
	}))
	all, err := s.ListCoefficients(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 14)

	c, err := s.GetCoefficient(ctx, "linen", impacts.Water)
	require.NoError(t, err)
	assert.Equal(t, 450.0, c.Value)

	err = s.UpsertCoefficient(ctx, impacts.Coefficient{Material: "hemp", Category: impacts.Water, Value: 1, Unit: "L/kg"})
	assert.ErrorIs(t, err, ErrUnknownMaterial)

	err = s.UpsertCoefficient(ctx, impacts.Coefficient{Material: "linen", Category: "noise", Value: 1})
	assert.Error(t, err)
}

func TestStore_SetCompositionReplacesAtomically(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	err := s.SetComposition(ctx, "SHIRT001", []items.Component{
		{Material: "linen", Percentage: 50},
		{Material: "unobtainium", Percentage: 50},
	})
	assert.ErrorIs(t, err, ErrUnknownMaterial)

	comps, err := s.GetComposition(ctx, "SHIRT001")
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, "cotton", comps[0].Material)

	require.NoError(t, s.SetComposition(ctx, "SHIRT001", []items.Component{{Material: "Linen", Percentage: 100}}))
	comps, err = s.GetComposition(ctx, "SHIRT001")
	require.NoError(t, err)
	assert.Equal(t, "linen", comps[0].Material)
}

func TestStore_ListMaterialsUsage(t *testing.T) {
	s := seeded(t)
	ms, err := s.ListMaterials(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 8)

	byName := map[string]materials.WithUsage{}
	for _, m := range ms {
		byName[m.Name] = m
	}
	assert.Equal(t, 3, byName["cotton"].ImpactCount)
	assert.Equal(t, 5, byName["cotton"].ItemCount)
	assert.Equal(t, 0, byName["silk"].ImpactCount)
	require.NotNil(t, byName["silk"].Density)
	assert.InDelta(t, 1.25, *byName["silk"].Density, 1e-9)
}

func TestStore_MaterialQueries(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	found, err := s.SearchMaterials(ctx, "Synthetic")
	require.NoError(t, err)
	var names []string
	for _, m := range found {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"elastane", "nylon", "polyester", "viscose"}, names)

	none, err := s.SearchMaterials(ctx, "  ")
	require.NoError(t, err)
	assert.Nil(t, none)

	m, err := s.GetMaterial(ctx, " Linen ")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "linen", m.Name)
	assert.InDelta(t, 1.5, *m.Density, 1e-9)

	m, err = s.GetMaterial(ctx, "kevlar")
	require.NoError(t, err)
	assert.Nil(t, m)

	its, err := s.ItemsByMaterial(ctx, "ELASTANE")
	require.NoError(t, err)
	require.Len(t, its, 2)
	assert.Equal(t, "SOCK001", its[0].Code)
	assert.Equal(t, "JEANS001", its[1].Code)

	cs, err := s.MaterialCoefficients(ctx, "cotton")
	require.NoError(t, err)
	require.Len(t, cs, 3)
	assert.Equal(t, impacts.Carbon, cs[0].Category)
	assert.Equal(t, impacts.Energy, cs[1].Category)
	assert.Equal(t, impacts.Water, cs[2].Category)
}

func TestStore_Dedupe(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertCoefficient(ctx, impacts.Coefficient{
		Material: "wool", Category: impacts.Carbon, Value: 17, Unit: "kg_CO2/kg", Source: "sample data",
	}))

	conflicts, err := s.Dedupe(ctx, true)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "wool", conflicts[0].Material)
	all, _ := s.ListCoefficients(ctx)
	assert.Len(t, all, 15)

	_, err = s.Dedupe(ctx, false)
	require.NoError(t, err)
	all, _ = s.ListCoefficients(ctx)
	assert.Len(t, all, 14)

	c, err := s.GetCoefficient(ctx, "wool", impacts.Carbon)
	require.NoError(t, err)
	assert.Equal(t, 10.4, c.Value)
}

func TestStore_ServesScorer(t *testing.T) {
	s := seeded(t)
	p, err := scoring.LoadBuiltin("basic")
	require.NoError(t, err)

	res, err := scoring.New(s, p).ScoreItem(context.Background(), "SHIRT001")
	require.NoError(t, err)
	water, ok := res.Category(impacts.Water)
	require.True(t, ok)
	assert.InDelta(t, 486.0, water.Raw, 1e-9)
	assert.False(t, res.HasMissingData())
}

/* sqlmock: ошибки драйвера */

func TestStore_GetItemPropagatesDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM clothing_items")).
		WithArgs("SHIRT001").
		WillReturnError(errors.New("database is locked"))

	_, err = New(db).GetItem(context.Background(), "SHIRT001")
	assert.EqualError(t, err, "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetItemNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM clothing_items")).
		WithArgs("GHOST").
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "brand", "category", "weight_grams", "created_at"}))

	it, err := New(db).GetItem(context.Background(), "GHOST")
	assert.NoError(t, err)
	assert.Nil(t, it)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SetCompositionRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM item_composition")).
		WithArgs("SHIRT001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM materials")).
		WithArgs("cotton").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO item_composition")).
		WithArgs("SHIRT001", int64(1), 100.0).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err = New(db).SetComposition(context.Background(), "SHIRT001", []items.Component{{Material: "cotton", Percentage: 100}})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
