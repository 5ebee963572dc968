// Package xlsx импорт и выгрузка каталога и оценок в Excel.
//
// Книга каталога: листы materials, impacts, items, composition; первая
// строка каждого листа — заголовок. Отсутствующий лист пропускается.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/eco-wardrobe/internal/domain/catalog"
	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
	"github.com/Spok95/eco-wardrobe/internal/domain/materials"
)

const (
	SheetMaterials   = "materials"
	SheetImpacts     = "impacts"
	SheetItems       = "items"
	SheetComposition = "composition"
)

var (
	materialsHeader   = []string{"name", "density", "description"}
	impactsHeader     = []string{"material", "category", "value", "unit", "source"}
	itemsHeader       = []string{"code", "name", "brand", "category", "weight_grams"}
	compositionHeader = []string{"item_code", "material", "percentage"}
)

// ImportReport сколько строк каждого листа записано.
type ImportReport struct {
	Materials    int `json:"materials"`
	Impacts      int `json:"impacts"`
	Items        int `json:"items"`
	Compositions int `json:"compositions"`
}

// RowError ошибка в конкретной строке листа (номер как в Excel).
type RowError struct {
	Sheet string
	Row   int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Sheet, e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Import читает книгу и пишет её в sink в порядке materials → impacts →
// items → composition. Останавливается на первой ошибке; уже записанное
// не откатывается.
func Import(ctx context.Context, r io.Reader, sink catalog.Sink) (*ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rep := &ImportReport{}

	if err := eachRow(f, SheetMaterials, 1, func(row []string) error {
		m := materials.Material{Name: cell(row, 0), Description: cell(row, 2)}
		if m.Name == "" {
			return fmt.Errorf("empty material name")
		}
		if v := cell(row, 1); v != "" {
			d, err := parseFloat(v)
			if err != nil || d <= 0 {
				return fmt.Errorf("bad density %q", v)
			}
			m.Density = &d
		}
		if err := sink.UpsertMaterial(ctx, m); err != nil {
			return err
		}
		rep.Materials++
		return nil
	}); err != nil {
		return rep, err
	}

	if err := eachRow(f, SheetImpacts, 3, func(row []string) error {
		c := impacts.Coefficient{
			Material: cell(row, 0),
			Category: impacts.Category(strings.ToLower(cell(row, 1))),
			Unit:     cell(row, 3),
			Source:   cell(row, 4),
		}
		if !c.Category.Valid() {
			return fmt.Errorf("unknown category %q", cell(row, 1))
		}
		v, err := parseFloat(cell(row, 2))
		if err != nil || v < 0 {
			return fmt.Errorf("bad value %q", cell(row, 2))
		}
		c.Value = v
		if c.Unit == "" {
			c.Unit = defaultUnit(c.Category)
		}
		if err := sink.UpsertCoefficient(ctx, c); err != nil {
			return err
		}
		rep.Impacts++
		return nil
	}); err != nil {
		return rep, err
	}

	if err := eachRow(f, SheetItems, 5, func(row []string) error {
		it := items.Item{
			Code:     cell(row, 0),
			Name:     cell(row, 1),
			Brand:    cell(row, 2),
			Category: cell(row, 3),
		}
		if it.Code == "" || it.Name == "" {
			return fmt.Errorf("code and name are required")
		}
		w, err := strconv.Atoi(cell(row, 4))
		if err != nil || w <= 0 {
			return fmt.Errorf("bad weight_grams %q", cell(row, 4))
		}
		it.WeightGrams = w
		if err := sink.UpsertItem(ctx, it); err != nil {
			return err
		}
		rep.Items++
		return nil
	}); err != nil {
		return rep, err
	}

	// строки состава группируются по вещи, состав заменяется целиком
	var order []string
	byItem := map[string][]items.Component{}
	if err := eachRow(f, SheetComposition, 3, func(row []string) error {
		code := cell(row, 0)
		if code == "" {
			return fmt.Errorf("empty item_code")
		}
		p, err := parseFloat(cell(row, 2))
		if err != nil || p < 0 || p > 100 {
			return fmt.Errorf("bad percentage %q", cell(row, 2))
		}
		if _, ok := byItem[code]; !ok {
			order = append(order, code)
		}
		byItem[code] = append(byItem[code], items.Component{Material: cell(row, 1), Percentage: p})
		return nil
	}); err != nil {
		return rep, err
	}
	for _, code := range order {
		if err := sink.SetComposition(ctx, code, byItem[code]); err != nil {
			return rep, fmt.Errorf("%s %s: %w", SheetComposition, code, err)
		}
		rep.Compositions++
	}

	return rep, nil
}

// eachRow вызывает fn для строк листа после заголовка; пустые строки и
// строки короче minCols пропускаются.
func eachRow(f *excelize.File, sheet string, minCols int, fn func(row []string) error) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < minCols || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		if err := fn(row); err != nil {
			return &RowError{Sheet: sheet, Row: i + 1, Err: err}
		}
	}
	return nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

func defaultUnit(c impacts.Category) string {
	switch c {
	case impacts.Water:
		return "L/kg"
	case impacts.Carbon:
		return "kg_CO2/kg"
	default:
		return "MJ/kg"
	}
}
