package impacts

import (
	"sort"
	"strings"
	"time"
)

type Category string

const (
	Water  Category = "water_usage"
	Carbon Category = "carbon_footprint"
	Energy Category = "energy_usage"
)

// Categories порядок категорий в отчётах
var Categories = []Category{Water, Carbon, Energy}

func (c Category) Valid() bool {
	switch c {
	case Water, Carbon, Energy:
		return true
	}
	return false
}

// Title человекочитаемое название категории
func (c Category) Title() string {
	switch c {
	case Water:
		return "Water usage"
	case Carbon:
		return "Carbon footprint"
	case Energy:
		return "Energy usage"
	}
	return string(c)
}

type Coefficient struct {
	ID        int64     `json:"id"`
	Material  string    `json:"material"`
	Category  Category  `json:"category"`
	Value     float64   `json:"value"` // на 1 кг материала
	Unit      string    `json:"unit"`  // "L/kg", "kg_CO2/kg", "MJ/kg"
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalUnit единица измерения итогового значения (без "/kg").
func (c Coefficient) TotalUnit() string {
	return strings.TrimSuffix(c.Unit, "/kg")
}

// sourcePriority надёжность источников данных: больше — надёжнее
var sourcePriority = map[string]int{
	"textile exchange 2017":             10,
	"ecoinvent 3.0":                     9,
	"higg msi":                          8,
	"european flax":                     7,
	"plastic textiles industry dataset": 6,
	"sample data for demonstration":     1,
}

// SourcePriority 0 для неизвестного источника.
func SourcePriority(source string) int {
	return sourcePriority[strings.ToLower(strings.TrimSpace(source))]
}

// Rank сортирует коэффициенты одной пары (материал, категория):
// сначала самый надёжный источник, при равенстве — меньший ID.
func Rank(cs []Coefficient) {
	sort.SliceStable(cs, func(i, j int) bool {
		pi, pj := SourcePriority(cs[i].Source), SourcePriority(cs[j].Source)
		if pi != pj {
			return pi > pj
		}
		return cs[i].ID < cs[j].ID
	})
}

// Best единственный коэффициент, который учитывается при расчёте.
func Best(cs []Coefficient) *Coefficient {
	if len(cs) == 0 {
		return nil
	}
	ranked := append([]Coefficient(nil), cs...)
	Rank(ranked)
	return &ranked[0]
}

// Conflict несколько значений для одной пары (материал, категория)
type Conflict struct {
	Material string
	Category Category
	Values   []Coefficient // отсортированы через Rank, первый сохраняется
}

// FindConflicts группирует коэффициенты и возвращает пары с дублями.
func FindConflicts(all []Coefficient) []Conflict {
	type key struct {
		material string
		category Category
	}
	groups := map[key][]Coefficient{}
	var order []key
	for _, c := range all {
		k := key{c.Material, c.Category}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	var out []Conflict
	for _, k := range order {
		g := groups[k]
		if len(g) < 2 {
			continue
		}
		Rank(g)
		out = append(out, Conflict{Material: k.material, Category: k.category, Values: g})
	}
	return out
}
