// Package seed демонстрационный каталог: 8 материалов, 14 коэффициентов, 5 вещей.
package seed

import (
	"context"
	"fmt"

	"github.com/Spok95/eco-wardrobe/internal/domain/catalog"
	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
	"github.com/Spok95/eco-wardrobe/internal/domain/materials"
)

// Sample демонстрационная вещь вместе с составом.
type Sample struct {
	Item        items.Item
	Composition []items.Component
}

func density(v float64) *float64 { return &v }

func Materials() []materials.Material {
	return []materials.Material{
		{Name: "cotton", Density: density(1.54), Description: "Natural fiber from cotton plants"},
		{Name: "polyester", Density: density(1.38), Description: "Synthetic polymer fiber"},
		{Name: "wool", Density: density(1.31), Description: "Natural fiber from sheep"},
		{Name: "nylon", Density: density(1.14), Description: "Synthetic polymer fiber"},
		{Name: "linen", Density: density(1.50), Description: "Natural fiber from flax plants"},
		{Name: "silk", Density: density(1.25), Description: "Natural protein fiber from silkworms"},
		{Name: "elastane", Density: density(1.20), Description: "Synthetic elastic fiber (spandex)"},
		{Name: "viscose", Density: density(1.50), Description: "Semi-synthetic fiber from wood pulp"},
	}
}

func coef(material string, cat impacts.Category, v float64, unit, source string) impacts.Coefficient {
	return impacts.Coefficient{Material: material, Category: cat, Value: v, Unit: unit, Source: source}
}

func Coefficients() []impacts.Coefficient {
	const (
		te    = "Textile Exchange 2017"
		higg  = "Higg MSI"
		flax  = "European Flax"
		ecoin = "Ecoinvent 3.0"
	)
	return []impacts.Coefficient{
		coef("cotton", impacts.Water, 2700, "L/kg", te),
		coef("polyester", impacts.Water, 70, "L/kg", te),
		coef("wool", impacts.Water, 6000, "L/kg", te),
		coef("nylon", impacts.Water, 60, "L/kg", higg),
		coef("linen", impacts.Water, 500, "L/kg", flax),

		coef("cotton", impacts.Carbon, 5.9, "kg_CO2/kg", te),
		coef("polyester", impacts.Carbon, 9.5, "kg_CO2/kg", te),
		coef("wool", impacts.Carbon, 10.4, "kg_CO2/kg", te),
		coef("nylon", impacts.Carbon, 7.6, "kg_CO2/kg", higg),
		coef("linen", impacts.Carbon, 0.9, "kg_CO2/kg", flax),

		coef("cotton", impacts.Energy, 55, "MJ/kg", ecoin),
		coef("polyester", impacts.Energy, 125, "MJ/kg", ecoin),
		coef("wool", impacts.Energy, 63, "MJ/kg", ecoin),
		coef("nylon", impacts.Energy, 138, "MJ/kg", ecoin),
	}
}

func comp(material string, p float64) items.Component {
	return items.Component{Material: material, Percentage: p}
}

func Items() []Sample {
	return []Sample{
		{items.Item{Code: "SHIRT001", Name: "Cotton T-Shirt", Brand: "Generic", Category: "shirt", WeightGrams: 180},
			[]items.Component{comp("cotton", 100)}},
		{items.Item{Code: "JEANS001", Name: "Denim Jeans", Brand: "Generic", Category: "pants", WeightGrams: 600},
			[]items.Component{comp("cotton", 98), comp("elastane", 2)}},
		{items.Item{Code: "SWEAT001", Name: "Cotton-Poly Hoodie", Brand: "Generic", Category: "sweatshirt", WeightGrams: 450},
			[]items.Component{comp("cotton", 70), comp("polyester", 30)}},
		{items.Item{Code: "DRESS001", Name: "Summer Dress", Brand: "Generic", Category: "dress", WeightGrams: 220},
			[]items.Component{comp("cotton", 60), comp("linen", 40)}},
		{items.Item{Code: "SOCK001", Name: "Cotton Socks", Brand: "Generic", Category: "socks", WeightGrams: 50},
			[]items.Component{comp("cotton", 80), comp("nylon", 18), comp("elastane", 2)}},
	}
}

// Load записывает демо-каталог; повторный вызов ничего не дублирует.
func Load(ctx context.Context, sink catalog.Sink) error {
	for _, m := range Materials() {
		if err := sink.UpsertMaterial(ctx, m); err != nil {
			return fmt.Errorf("material %s: %w", m.Name, err)
		}
	}
	for _, c := range Coefficients() {
		if err := sink.UpsertCoefficient(ctx, c); err != nil {
			return fmt.Errorf("coefficient %s/%s: %w", c.Material, c.Category, err)
		}
	}
	for _, si := range Items() {
		if err := sink.UpsertItem(ctx, si.Item); err != nil {
			return fmt.Errorf("item %s: %w", si.Item.Code, err)
		}
		if err := sink.SetComposition(ctx, si.Item.Code, si.Composition); err != nil {
			return fmt.Errorf("composition %s: %w", si.Item.Code, err)
		}
	}
	return nil
}
