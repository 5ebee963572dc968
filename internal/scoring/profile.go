package scoring

import (
	"embed"
	"fmt"
	"maps"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// DefaultProfile используется, когда профиль не указан.
const DefaultProfile = "enhanced"

const weightSumTolerance = 0.001

// Range лучшая и худшая сырая величина категории.
type Range struct {
	Best  float64 `yaml:"best" json:"best"`
	Worst float64 `yaml:"worst" json:"worst"`
}

// PenaltyRule штраф за состав, сумма процентов которого не равна 100.
type PenaltyRule struct {
	Tolerance float64 `yaml:"tolerance"`
	Rate      float64 `yaml:"rate"`
	Cap       float64 `yaml:"cap"`
}

// Apply штраф для отклонения dev = |Σ% - 100|.
func (p PenaltyRule) Apply(total float64) float64 {
	dev := math.Abs(total - 100)
	if dev <= p.Tolerance {
		return 0
	}
	return math.Min(p.Cap, dev*p.Rate)
}

// WeightBand множитель долговечности по весу вещи; срабатывает первая подходящая полоса.
type WeightBand struct {
	Above  float64 `yaml:"above"`
	Below  float64 `yaml:"below"`
	Factor float64 `yaml:"factor"`
}

func (b WeightBand) match(grams float64) bool {
	if b.Above > 0 && grams <= b.Above {
		return false
	}
	if b.Below > 0 && grams >= b.Below {
		return false
	}
	return b.Above > 0 || b.Below > 0
}

type LastingWeights struct {
	Durability   float64 `yaml:"durability"`
	EndOfLife    float64 `yaml:"end_of_life"`
	Microplastic float64 `yaml:"microplastic"`
	Replacement  float64 `yaml:"replacement"`
}

func (w LastingWeights) sum() float64 {
	return w.Durability + w.EndOfLife + w.Microplastic + w.Replacement
}

// Lasting параметры второй оси: сколько вещь прослужит и что с ней будет потом.
type Lasting struct {
	Weights             LastingWeights     `yaml:"weights"`
	DefaultScore        float64            `yaml:"default_score"`
	Durability          map[string]float64 `yaml:"durability"`
	EndOfLife           map[string]float64 `yaml:"end_of_life"`
	Microplastic        map[string]float64 `yaml:"microplastic"`
	CategoryExpectation map[string]float64 `yaml:"category_expectation"`
	BrandQuality        map[string]float64 `yaml:"brand_quality"`
	WeightFactor        []WeightBand       `yaml:"weight_factor"`
}

func (l Lasting) weightFactor(grams int) float64 {
	for _, b := range l.WeightFactor {
		if b.match(float64(grams)) {
			return b.Factor
		}
	}
	return 1.0
}

// Profile набор параметров одного варианта расчёта. После загрузки не меняется:
// LoadBuiltin и Builtins отдают копии.
type Profile struct {
	Name               string                       `yaml:"name"`
	Description        string                       `yaml:"description"`
	Weights            map[impacts.Category]float64 `yaml:"weights"`
	Ranges             map[impacts.Category]Range   `yaml:"ranges"`
	DynamicRanges      bool                         `yaml:"dynamic_ranges"`
	DegenerateScore    *float64                     `yaml:"degenerate_score"`
	CompositionPenalty PenaltyRule                  `yaml:"composition_penalty"`
	MaterialBonus      map[string]float64           `yaml:"material_bonus"`
	MaterialPenalty    map[string]float64           `yaml:"material_penalty"`
	CategoryMultiplier map[string]float64           `yaml:"category_multiplier"`
	ProductionShare    *float64                     `yaml:"production_share"`
	Lasting            *Lasting                     `yaml:"lasting"`
}

// Degenerate нормализованное значение для диапазона best == worst.
func (p *Profile) Degenerate() float64 {
	if p.DegenerateScore == nil {
		return 0.5
	}
	return *p.DegenerateScore
}

// Share доля производственной оси в итоговой оценке.
func (p *Profile) Share() float64 {
	if p.ProductionShare == nil {
		return 0.5
	}
	return *p.ProductionShare
}

// Multiplier множитель категории вещи; неизвестная категория нейтральна.
func (p *Profile) Multiplier(category string) float64 {
	if m, ok := p.CategoryMultiplier[strings.ToLower(strings.TrimSpace(category))]; ok && m > 0 {
		return m
	}
	return 1.0
}

// Validate проверяет веса, долю и штраф.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile: empty name")
	}
	if len(p.Weights) == 0 {
		return fmt.Errorf("profile %s: no category weights", p.Name)
	}
	sum := 0.0
	for c, w := range p.Weights {
		if !c.Valid() {
			return fmt.Errorf("profile %s: unknown category %q", p.Name, c)
		}
		if w < 0 {
			return fmt.Errorf("profile %s: negative weight for %s", p.Name, c)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("profile %s: category weights sum to %.4f, want 1", p.Name, sum)
	}
	for c, r := range p.Ranges {
		if r.Worst < r.Best {
			return fmt.Errorf("profile %s: range for %s has worst < best", p.Name, c)
		}
	}
	if s := p.Share(); s < 0 || s > 1 {
		return fmt.Errorf("profile %s: production_share %.2f outside [0,1]", p.Name, s)
	}
	if d := p.Degenerate(); d < 0 || d > 1 {
		return fmt.Errorf("profile %s: degenerate_score %.2f outside [0,1]", p.Name, d)
	}
	cp := p.CompositionPenalty
	if cp.Cap < 0 || cp.Rate < 0 || cp.Tolerance < 0 {
		return fmt.Errorf("profile %s: composition penalty must be non-negative", p.Name)
	}
	for c, m := range p.CategoryMultiplier {
		if m <= 0 {
			return fmt.Errorf("profile %s: category multiplier for %q must be positive", p.Name, c)
		}
	}
	if l := p.Lasting; l != nil {
		w := l.Weights
		if w.Durability < 0 || w.EndOfLife < 0 || w.Microplastic < 0 || w.Replacement < 0 {
			return fmt.Errorf("profile %s: negative lasting weight", p.Name)
		}
		if math.Abs(w.sum()-1) > weightSumTolerance {
			return fmt.Errorf("profile %s: lasting weights sum to %.4f, want 1", p.Name, w.sum())
		}
	}
	return nil
}

// Clone глубокая копия профиля.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Weights = maps.Clone(p.Weights)
	c.Ranges = maps.Clone(p.Ranges)
	c.MaterialBonus = maps.Clone(p.MaterialBonus)
	c.MaterialPenalty = maps.Clone(p.MaterialPenalty)
	c.CategoryMultiplier = maps.Clone(p.CategoryMultiplier)
	if p.DegenerateScore != nil {
		v := *p.DegenerateScore
		c.DegenerateScore = &v
	}
	if p.ProductionShare != nil {
		v := *p.ProductionShare
		c.ProductionShare = &v
	}
	if p.Lasting != nil {
		l := *p.Lasting
		l.Durability = maps.Clone(p.Lasting.Durability)
		l.EndOfLife = maps.Clone(p.Lasting.EndOfLife)
		l.Microplastic = maps.Clone(p.Lasting.Microplastic)
		l.CategoryExpectation = maps.Clone(p.Lasting.CategoryExpectation)
		l.BrandQuality = maps.Clone(p.Lasting.BrandQuality)
		l.WeightFactor = append([]WeightBand(nil), p.Lasting.WeightFactor...)
		c.Lasting = &l
	}
	return &c
}

// parse разбирает YAML, приводит ключи таблиц к нижнему регистру и валидирует.
func parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
	p.MaterialBonus = lowerKeys(p.MaterialBonus)
	p.MaterialPenalty = lowerKeys(p.MaterialPenalty)
	p.CategoryMultiplier = lowerKeys(p.CategoryMultiplier)
	if l := p.Lasting; l != nil {
		if l.DefaultScore == 0 {
			l.DefaultScore = 50
		}
		l.Durability = lowerKeys(l.Durability)
		l.EndOfLife = lowerKeys(l.EndOfLife)
		l.Microplastic = lowerKeys(l.Microplastic)
		l.CategoryExpectation = lowerKeys(l.CategoryExpectation)
		l.BrandQuality = lowerKeys(l.BrandQuality)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func lowerKeys(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

var (
	builtinOnce sync.Once
	builtins    map[string]*Profile
	builtinErr  error
)

func loadBuiltins() {
	builtins = map[string]*Profile{}
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		builtinErr = err
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := builtinFS.ReadFile("builtin/" + e.Name())
		if err != nil {
			builtinErr = err
			return
		}
		p, err := parse(data)
		if err != nil {
			builtinErr = fmt.Errorf("builtin %s: %w", e.Name(), err)
			return
		}
		builtins[p.Name] = p
	}
}

// LoadBuiltin встроенный профиль по имени (без учёта регистра). Пустое имя — DefaultProfile.
func LoadBuiltin(name string) (*Profile, error) {
	builtinOnce.Do(loadBuiltins)
	if builtinErr != nil {
		return nil, builtinErr
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultProfile
	}
	p, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownProfile, name)
	}
	return p.Clone(), nil
}

// Builtins имена встроенных профилей по алфавиту.
func Builtins() []string {
	builtinOnce.Do(loadBuiltins)
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadFile профиль из произвольного YAML-файла.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
