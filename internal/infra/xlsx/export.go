package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
	"github.com/Spok95/eco-wardrobe/internal/domain/materials"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
)

// Source чтение каталога для выгрузки (catalog.Repo, lite.Store).
type Source interface {
	ListMaterials(ctx context.Context) ([]materials.WithUsage, error)
	ListCoefficients(ctx context.Context) ([]impacts.Coefficient, error)
	ListItems(ctx context.Context) ([]items.Item, error)
	GetComposition(ctx context.Context, code string) ([]items.Component, error)
}

type Entry struct {
	Item        items.Item
	Composition []items.Component
}

// Dataset весь каталог в памяти.
type Dataset struct {
	Materials    []materials.Material
	Coefficients []impacts.Coefficient
	Items        []Entry
}

func Collect(ctx context.Context, src Source) (*Dataset, error) {
	ms, err := src.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	cs, err := src.ListCoefficients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coefficients: %w", err)
	}
	its, err := src.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	ds := &Dataset{Coefficients: cs}
	for _, m := range ms {
		ds.Materials = append(ds.Materials, m.Material)
	}
	for _, it := range its {
		comps, err := src.GetComposition(ctx, it.Code)
		if err != nil {
			return nil, fmt.Errorf("composition %s: %w", it.Code, err)
		}
		ds.Items = append(ds.Items, Entry{Item: it, Composition: comps})
	}
	return ds, nil
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func newSheet(f *excelize.File, name string, header []string) (*sheetWriter, error) {
	if _, err := f.NewSheet(name); err != nil {
		return nil, err
	}
	w := &sheetWriter{f: f, sheet: name, row: 1}
	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	return w, w.write(hdr...)
}

func (w *sheetWriter) write(values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &values); err != nil {
		return err
	}
	w.row++
	return nil
}

// finish убирает лист по умолчанию и сериализует книгу.
func finish(f *excelize.File) ([]byte, error) {
	if idx, _ := f.GetSheetIndex("Sheet1"); idx >= 0 && f.SheetCount > 1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportCatalog книга в формате, который понимает Import.
func ExportCatalog(ds *Dataset) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	ms, err := newSheet(f, SheetMaterials, materialsHeader)
	if err != nil {
		return nil, err
	}
	for _, m := range ds.Materials {
		var density interface{} = ""
		if m.Density != nil {
			density = *m.Density
		}
		if err := ms.write(m.Name, density, m.Description); err != nil {
			return nil, err
		}
	}

	is, err := newSheet(f, SheetImpacts, impactsHeader)
	if err != nil {
		return nil, err
	}
	for _, c := range ds.Coefficients {
		if err := is.write(c.Material, string(c.Category), c.Value, c.Unit, c.Source); err != nil {
			return nil, err
		}
	}

	its, err := newSheet(f, SheetItems, itemsHeader)
	if err != nil {
		return nil, err
	}
	cs, err := newSheet(f, SheetComposition, compositionHeader)
	if err != nil {
		return nil, err
	}
	for _, e := range ds.Items {
		it := e.Item
		if err := its.write(it.Code, it.Name, it.Brand, it.Category, it.WeightGrams); err != nil {
			return nil, err
		}
		for _, c := range e.Composition {
			if err := cs.write(it.Code, c.Material, c.Percentage); err != nil {
				return nil, err
			}
		}
	}

	return finish(f)
}

const SheetScores = "scores"

var scoresHeader = []string{
	"code", "name", "brand", "category", "weight_grams", "profile",
	"water_l", "carbon_kg", "energy_mj",
	"water_score", "carbon_score", "energy_score",
	"composition_total", "composition_penalty",
	"production", "lasting", "score", "grade", "missing_data",
}

// ExportScores одна строка на оценённую вещь.
func ExportScores(results []*scoring.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	w, err := newSheet(f, SheetScores, scoresHeader)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		row := []interface{}{
			r.Item.Code, r.Item.Name, r.Item.Brand, r.Item.Category, r.Item.WeightGrams, r.Profile,
		}
		var scores []interface{}
		for _, cat := range impacts.Categories {
			cs, ok := r.Category(cat)
			if !ok {
				row = append(row, "")
				scores = append(scores, "")
				continue
			}
			row = append(row, round2(cs.Raw))
			scores = append(scores, round2(cs.Score))
		}
		row = append(row, scores...)

		var lasting interface{} = ""
		if r.Lasting != nil {
			lasting = round2(r.Lasting.Score)
		}
		row = append(row,
			r.CompositionTotal, r.CompositionPenalty,
			round2(r.Production), lasting, round2(r.Score), r.Grade, r.HasMissingData(),
		)
		if err := w.write(row...); err != nil {
			return nil, err
		}
	}
	return finish(f)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
