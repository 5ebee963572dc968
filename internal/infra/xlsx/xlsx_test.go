package xlsx

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
	"github.com/Spok95/eco-wardrobe/internal/domain/materials"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
	"github.com/Spok95/eco-wardrobe/internal/seed"
)

type memSink struct {
	materials    []materials.Material
	coefficients []impacts.Coefficient
	items        []items.Item
	comps        map[string][]items.Component
}

func newMemSink() *memSink { return &memSink{comps: map[string][]items.Component{}} }

func (s *memSink) UpsertMaterial(_ context.Context, m materials.Material) error {
	s.materials = append(s.materials, m)
	return nil
}

func (s *memSink) UpsertCoefficient(_ context.Context, c impacts.Coefficient) error {
	s.coefficients = append(s.coefficients, c)
	return nil
}

func (s *memSink) UpsertItem(_ context.Context, it items.Item) error {
	s.items = append(s.items, it)
	return nil
}

func (s *memSink) SetComposition(_ context.Context, code string, comps []items.Component) error {
	if code == "BROKEN" {
		return errors.New("unknown material")
	}
	s.comps[code] = comps
	return nil
}

func workbook(t *testing.T, sheets map[string][][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, f.Write(buf))
	return buf
}

func TestImport_ReadsAllSheets(t *testing.T) {
	buf := workbook(t, map[string][][]interface{}{
		SheetMaterials: {
			{"name", "density", "description"},
			{"Hemp", "1,48", "Bast fiber"},
			{"tencel", "", ""},
		},
		SheetImpacts: {
			{"material", "category", "value", "unit", "source"},
			{"hemp", "Water_Usage", "2123", "", "Higg MSI"},
			{"hemp", "carbon_footprint", "1.6", "kg_CO2/kg"},
		},
		SheetItems: {
			{"code", "name", "brand", "category", "weight_grams"},
			{"HEMP001", "Hemp Tee", "", "shirt", "170"},
			{},
		},
		SheetComposition: {
			{"item_code", "material", "percentage"},
			{"HEMP001", "hemp", "55"},
			{"HEMP001", "tencel", "45"},
		},
	})

	sink := newMemSink()
	rep, err := Import(context.Background(), buf, sink)
	require.NoError(t, err)
	assert.Equal(t, &ImportReport{Materials: 2, Impacts: 2, Items: 1, Compositions: 1}, rep)

	require.NotNil(t, sink.materials[0].Density)
	assert.InDelta(t, 1.48, *sink.materials[0].Density, 1e-9)
	assert.Nil(t, sink.materials[1].Density)

	assert.Equal(t, impacts.Water, sink.coefficients[0].Category)
	assert.Equal(t, "L/kg", sink.coefficients[0].Unit)
	assert.Equal(t, "", sink.items[0].Brand)
	assert.Equal(t, 170, sink.items[0].WeightGrams)
	assert.Equal(t, []items.Component{
		{Material: "hemp", Percentage: 55},
		{Material: "tencel", Percentage: 45},
	}, sink.comps["HEMP001"])
}

func TestImport_RowErrors(t *testing.T) {
	cases := []struct {
		name  string
		sheet string
		rows  [][]interface{}
		want  string
	}{
		{"bad weight", SheetItems, [][]interface{}{itemsHeaderRow(), {"X", "X", "", "", "heavy"}}, "items row 2: bad weight_grams"},
		{"zero weight", SheetItems, [][]interface{}{itemsHeaderRow(), {"X", "X", "", "", "0"}}, "items row 2"},
		{"bad category", SheetImpacts, [][]interface{}{{"material", "category", "value"}, {"cotton", "noise", "1"}}, "impacts row 2: unknown category"},
		{"percentage over 100", SheetComposition, [][]interface{}{{"item_code", "material", "percentage"}, {"X", "cotton", "101"}}, "composition row 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := workbook(t, map[string][][]interface{}{tc.sheet: tc.rows})
			_, err := Import(context.Background(), buf, newMemSink())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)

			var rowErr *RowError
			assert.True(t, errors.As(err, &rowErr))
		})
	}
}

func itemsHeaderRow() []interface{} {
	return []interface{}{"code", "name", "brand", "category", "weight_grams"}
}

func TestImport_SinkErrorStops(t *testing.T) {
	buf := workbook(t, map[string][][]interface{}{
		SheetComposition: {{"item_code", "material", "percentage"}, {"BROKEN", "x", "100"}},
	})
	rep, err := Import(context.Background(), buf, newMemSink())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "composition BROKEN")
	assert.Zero(t, rep.Compositions)
}

func TestImport_NotAWorkbook(t *testing.T) {
	_, err := Import(context.Background(), bytes.NewBufferString("code,name\n"), newMemSink())
	assert.Error(t, err)
}

func TestExportCatalog_ImportsBack(t *testing.T) {
	ds := &Dataset{Materials: seed.Materials(), Coefficients: seed.Coefficients()}
	for _, si := range seed.Items() {
		ds.Items = append(ds.Items, Entry{Item: si.Item, Composition: si.Composition})
	}

	data, err := ExportCatalog(ds)
	require.NoError(t, err)

	sink := newMemSink()
	rep, err := Import(context.Background(), bytes.NewReader(data), sink)
	require.NoError(t, err)
	assert.Equal(t, &ImportReport{Materials: 8, Impacts: 14, Items: 5, Compositions: 5}, rep)
	assert.Equal(t, seed.Items()[4].Composition, sink.comps["SOCK001"])
}

func TestExportScores(t *testing.T) {
	res := &scoring.Result{
		Item:    items.Item{Code: "SHIRT001", Name: "Cotton T-Shirt", WeightGrams: 180},
		Profile: "basic",
		Categories: []scoring.CategoryScore{
			{Category: impacts.Water, Raw: 486, Score: 41.234},
		},
		CompositionTotal: 100,
		Production:       41.234,
		Score:            41.234,
		Grade:            "D",
		Breakdown:        []scoring.BreakdownEntry{{Material: "cotton", Category: impacts.Carbon, Missing: true}},
	}

	data, err := ExportScores([]*scoring.Result{res})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetScores)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, scoresHeader, rows[0])
	assert.Equal(t, "SHIRT001", rows[1][0])
	assert.Equal(t, "486", rows[1][6])
	assert.Equal(t, "", rows[1][7])
	assert.Equal(t, "41.23", rows[1][9])
	assert.Equal(t, "D", rows[1][17])
	assert.Equal(t, "TRUE", rows[1][18])
	assert.Equal(t, []string{SheetScores}, f.GetSheetList())
}
