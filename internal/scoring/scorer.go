package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
)

// Catalog источник данных для расчёта. Отсутствующие записи — nil, nil.
type Catalog interface {
	GetItem(ctx context.Context, code string) (*items.Item, error)
	GetComposition(ctx context.Context, code string) ([]items.Component, error)
	GetCoefficient(ctx context.Context, material string, category impacts.Category) (*impacts.Coefficient, error)
	ListItems(ctx context.Context) ([]items.Item, error)
}

// Observer получает события расчёта (метрики).
type Observer interface {
	ItemScored(profile, grade string, score float64)
	CartScored(profile, grade string, items int)
	CoefficientMissing(category impacts.Category)
}

type nopObserver struct{}

func (nopObserver) ItemScored(string, string, float64)  {}
func (nopObserver) CartScored(string, string, int)      {}
func (nopObserver) CoefficientMissing(impacts.Category) {}

// CoefficientFunc поиск коэффициента для пары (материал, категория).
type CoefficientFunc func(material string, category impacts.Category) (*impacts.Coefficient, error)

// BreakdownEntry вклад одного материала в одну категорию.
type BreakdownEntry struct {
	Material    string           `json:"material"`
	Category    impacts.Category `json:"category"`
	Percentage  float64          `json:"percentage"`
	Coefficient float64          `json:"coefficient"`
	Unit        string           `json:"unit,omitempty"`
	Source      string           `json:"source,omitempty"`
	Impact      float64          `json:"impact"`
	Missing     bool             `json:"missing,omitempty"`
	Note        string           `json:"note,omitempty"`
}

const noDataNote = "no impact data available"

// CategoryScore сырое воздействие категории и его нормализованный балл.
type CategoryScore struct {
	Category impacts.Category `json:"category"`
	Raw      float64          `json:"raw"`
	Unit     string           `json:"unit"`
	Score    float64          `json:"score"`
	Range    *Range           `json:"range,omitempty"`
}

// LastingScore вторая ось: долговечность и жизнь после использования.
type LastingScore struct {
	Durability   float64 `json:"durability"`
	EndOfLife    float64 `json:"end_of_life"`
	Microplastic float64 `json:"microplastic"`
	Replacement  float64 `json:"replacement"`
	Score        float64 `json:"score"`
	Grade        string  `json:"grade"`
}

// Result оценка одной вещи. Не сохраняется.
type Result struct {
	Item               items.Item        `json:"item"`
	Profile            string            `json:"profile"`
	Composition        []items.Component `json:"composition"`
	CompositionTotal   float64           `json:"composition_total"`
	CompositionPenalty float64           `json:"composition_penalty"`
	Categories         []CategoryScore   `json:"categories"`
	MaterialAdjustment float64           `json:"material_adjustment"`
	CategoryMultiplier float64           `json:"category_multiplier"`
	Production         float64           `json:"production"`
	ProductionGrade    string            `json:"production_grade"`
	Lasting            *LastingScore     `json:"lasting,omitempty"`
	Score              float64           `json:"score"`
	Grade              string            `json:"grade"`
	Breakdown          []BreakdownEntry  `json:"breakdown"`
	Insight            *Insight          `json:"insight,omitempty"`
	WaterTubeML        float64           `json:"water_tube_ml"`
}

// Category балл категории; false, если категории нет в результате.
func (r *Result) Category(c impacts.Category) (CategoryScore, bool) {
	for _, cs := range r.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// HasMissingData хотя бы для одного материала нет коэффициента.
func (r *Result) HasMissingData() bool {
	for _, b := range r.Breakdown {
		if b.Missing {
			return true
		}
	}
	return false
}

type Scorer struct {
	catalog Catalog
	profile *Profile
	ranges  *RangeCache
	cart    CartOptions
	obs     Observer
	log     *slog.Logger
}

type Option func(*Scorer)

func WithRangeCache(rc *RangeCache) Option { return func(s *Scorer) { s.ranges = rc } }
func WithCartOptions(o CartOptions) Option { return func(s *Scorer) { s.cart = o } }
func WithObserver(o Observer) Option       { return func(s *Scorer) { s.obs = o } }
func WithLogger(l *slog.Logger) Option     { return func(s *Scorer) { s.log = l } }

// New скорер для профиля p. Без WithRangeCache динамические диапазоны
// считаются в собственном кэше без срока жизни.
func New(catalog Catalog, p *Profile, opts ...Option) *Scorer {
	s := &Scorer{
		catalog: catalog,
		profile: p,
		cart:    DefaultCartOptions(),
		obs:     nopObserver{},
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.ranges == nil {
		s.ranges = NewRangeCache(0)
	}
	return s
}

// WithProfile копия скорера с другим профилем; кэш диапазонов общий.
func (s *Scorer) WithProfile(p *Profile) *Scorer {
	c := *s
	c.profile = p
	return &c
}

func (s *Scorer) Profile() *Profile { return s.profile }

func (s *Scorer) Catalog() Catalog { return s.catalog }

// ScoreItem оценка вещи по коду.
func (s *Scorer) ScoreItem(ctx context.Context, code string) (*Result, error) {
	res, err := s.score(ctx, code)
	if err != nil {
		return nil, err
	}
	s.obs.ItemScored(s.profile.Name, res.Grade, res.Score)
	return res, nil
}

// score расчёт без события ItemScored: вещи корзины учитываются через CartScored.
func (s *Scorer) score(ctx context.Context, code string) (*Result, error) {
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

	ranges, err := s.categoryRanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("impact ranges: %w", err)
	}

	res, err := Compute(s.profile, *it, comps, s.lookup(ctx), ranges)
	if err != nil {
		return nil, err
	}
	for _, b := range res.Breakdown {
		if b.Missing {
			s.obs.CoefficientMissing(b.Category)
			s.log.Debug("coefficient missing", "code", it.Code, "material", b.Material, "category", b.Category)
		}
	}
	s.log.Debug("item scored", "code", it.Code, "profile", s.profile.Name, "score", res.Score, "grade", res.Grade)
	return res, nil
}

func (s *Scorer) lookup(ctx context.Context) CoefficientFunc {
	return func(material string, category impacts.Category) (*impacts.Coefficient, error) {
		c, err := s.catalog.GetCoefficient(ctx, material, category)
		if err != nil {
			return nil, fmt.Errorf("coefficient %s/%s: %w", material, category, err)
		}
		return c, nil
	}
}

func (s *Scorer) categoryRanges(ctx context.Context) (map[impacts.Category]Range, error) {
	if !s.profile.DynamicRanges {
		return s.profile.Ranges, nil
	}
	return s.ranges.Get(ctx, s.catalog, s.profile.Ranges)
}

const maxSuggestions = 5

func (s *Scorer) notFound(ctx context.Context, code string) error {
	nf := &NotFoundError{Code: code}
	all, err := s.catalog.ListItems(ctx)
	if err != nil {
		s.log.Warn("list items for suggestions failed", "err", err)
		return nf
	}
	nf.Suggestions = suggest(code, all, maxSuggestions)
	return nf
}

// suggest похожие коды: совпадение подстроки в коде или названии, либо общий префикс.
func suggest(code string, all []items.Item, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(code))
	if q == "" {
		return nil
	}
	prefix := q
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	var out []string
	for _, it := range all {
		c := strings.ToLower(it.Code)
		n := strings.ToLower(it.Name)
		if strings.Contains(c, q) || strings.Contains(q, c) || strings.Contains(n, q) || strings.HasPrefix(c, prefix) {
			out = append(out, it.Code)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// RawImpact суммарное воздействие вещи по категориям и вклад каждого материала.
// Нет коэффициента — нулевой вклад и отметка Missing, не ошибка.
func RawImpact(it items.Item, comps []items.Component, coeff CoefficientFunc) (map[impacts.Category]float64, []BreakdownEntry, error) {
	raw := make(map[impacts.Category]float64, len(impacts.Categories))
	var breakdown []BreakdownEntry
	kg := float64(it.WeightGrams) / 1000

	for _, cat := range impacts.Categories {
		raw[cat] = 0
		for _, comp := range comps {
			e := BreakdownEntry{Material: comp.Material, Category: cat, Percentage: comp.Percentage}
			c, err := coeff(comp.Material, cat)
			if err != nil {
				return nil, nil, err
			}
			if c == nil {
				e.Missing = true
				e.Note = noDataNote
			} else {
				e.Coefficient = c.Value
				e.Unit = c.Unit
				e.Source = c.Source
				e.Impact = c.Value * comp.Percentage / 100 * kg
				raw[cat] += e.Impact
			}
			breakdown = append(breakdown, e)
		}
	}
	return raw, breakdown, nil
}

// Compute чистый расчёт оценки по профилю: без обращений к хранилищу, кроме coeff.
func Compute(p *Profile, it items.Item, comps []items.Component, coeff CoefficientFunc, ranges map[impacts.Category]Range) (*Result, error) {
	if len(comps) == 0 {
		return nil, fmt.Errorf("item %s: %w", it.Code, ErrNoComposition)
	}

	raw, breakdown, err := RawImpact(it, comps, coeff)
	if err != nil {
		return nil, err
	}

	total := items.TotalPercentage(comps)
	res := &Result{
		Item:               it,
		Profile:            p.Name,
		Composition:        comps,
		CompositionTotal:   total,
		CompositionPenalty: p.CompositionPenalty.Apply(total),
		Breakdown:          breakdown,
	}

	weighted := 0.0
	for _, cat := range impacts.Categories {
		cs := CategoryScore{Category: cat, Raw: raw[cat], Unit: unitFor(cat, breakdown)}
		norm := 0.5
		if r, ok := ranges[cat]; ok {
			rr := r
			cs.Range = &rr
			if r.Worst > r.Best {
				norm = Normalize(raw[cat], r.Best, r.Worst)
			} else {
				norm = p.Degenerate()
			}
		}
		cs.Score = norm * 100
		weighted += p.Weights[cat] * cs.Score
		res.Categories = append(res.Categories, cs)
	}

	res.MaterialAdjustment = materialAdjustment(p, comps)
	res.CategoryMultiplier = p.Multiplier(it.Category)
	res.Production = clamp((weighted+res.MaterialAdjustment-res.CompositionPenalty)/res.CategoryMultiplier, 0, 100)
	res.ProductionGrade = Grade(res.Production)
	res.Score = res.Production

	if p.Lasting != nil {
		l := lastingScore(*p.Lasting, it, comps)
		l.Score = math.Max(0, l.Score-res.CompositionPenalty)
		l.Grade = Grade(l.Score)
		res.Lasting = &l
		share := p.Share()
		res.Score = share*res.Production + (1-share)*l.Score
		res.Insight = insight(res.Production, l.Score, comps)
	}

	res.Grade = Grade(res.Score)
	res.WaterTubeML = WaterTube(raw[impacts.Water])
	return res, nil
}

// materialAdjustment бонус за материал пропорционально его доле; штрафная
// таблица смотрится только для материалов без бонуса.
func materialAdjustment(p *Profile, comps []items.Component) float64 {
	adj := 0.0
	for _, c := range comps {
		name := strings.ToLower(strings.TrimSpace(c.Material))
		share := c.Percentage / 100
		if b, ok := p.MaterialBonus[name]; ok {
			adj += b * share
		} else if pen, ok := p.MaterialPenalty[name]; ok {
			adj -= pen * share
		}
	}
	return adj
}

var defaultUnits = map[impacts.Category]string{
	impacts.Water:  "L",
	impacts.Carbon: "kg_CO2",
	impacts.Energy: "MJ",
}

func unitFor(cat impacts.Category, breakdown []BreakdownEntry) string {
	for _, b := range breakdown {
		if b.Category == cat && b.Unit != "" {
			return strings.TrimSuffix(b.Unit, "/kg")
		}
	}
	return defaultUnits[cat]
}

const (
	tubeCapacityML = 400.0
	tubeFullLiters = 4800.0
)

// WaterTube расход воды в миллилитрах индикаторной трубки (4800 л = 400 мл).
func WaterTube(liters float64) float64 {
	if liters <= 0 {
		return 0
	}
	return round2(liters * tubeCapacityML / tubeFullLiters)
}
