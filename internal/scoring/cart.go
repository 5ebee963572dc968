package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
)

// CartOptions бонус за небольшую корзину ("капсульный гардероб").
type CartOptions struct {
	DiversityBonus    float64 // множитель, 1 — без бонуса
	DiversityMaxItems int
}

func DefaultCartOptions() CartOptions {
	return CartOptions{DiversityBonus: 1.05, DiversityMaxItems: 3}
}

// CartEntry оценённая вещь корзины.
type CartEntry struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	WeightGrams int      `json:"weight_grams"`
	Score       float64  `json:"score"`
	Grade       string   `json:"grade"`
	Production  float64  `json:"production"`
	Lasting     *float64 `json:"lasting,omitempty"`
	Result      *Result  `json:"-"`
}

// Skipped вещь корзины, которую не удалось оценить.
type Skipped struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type CartResult struct {
	Profile          string                       `json:"profile"`
	Items            []CartEntry                  `json:"items"`
	Skipped          []Skipped                    `json:"skipped,omitempty"`
	TotalWeightGrams int                          `json:"total_weight_grams"`
	AverageItemScore float64                      `json:"average_item_score"`
	BaseScore        float64                      `json:"base_score"`
	DiversityFactor  float64                      `json:"diversity_factor"`
	Score            float64                      `json:"score"`
	Grade            string                       `json:"grade"`
	Production       float64                      `json:"production"`
	Lasting          *float64                     `json:"lasting,omitempty"`
	Categories       map[impacts.Category]float64 `json:"categories"`
	Recommendations  []string                     `json:"recommendations,omitempty"`
}

// ScoreCart оценка корзины: среднее оценок вещей, взвешенное их весом.
// Не найденные вещи и вещи без состава попадают в Skipped; ошибки хранилища прерывают расчёт.
func (s *Scorer) ScoreCart(ctx context.Context, codes []string) (*CartResult, error) {
	if len(codes) == 0 {
		return nil, ErrEmptyCart
	}

	out := &CartResult{Profile: s.profile.Name}
	var results []*Result
	for _, code := range codes {
		res, err := s.score(ctx, code)
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoComposition):
			out.Skipped = append(out.Skipped, Skipped{Code: code, Reason: skipReason(err)})
			continue
		case err != nil:
			return nil, err
		}
		results = append(results, res)
	}
	if len(results) == 0 {
		return out, fmt.Errorf("%w (%d skipped)", ErrNoScorableItems, len(out.Skipped))
	}

	aggregate(out, results, s.cart)
	out.Recommendations = recommendations(results, out)
	s.obs.CartScored(out.Profile, out.Grade, len(results))
	return out, nil
}

func skipReason(err error) string {
	if errors.Is(err, ErrNotFound) {
		return "not found"
	}
	return "no composition data"
}

// weightedMean среднее с весами; при нулевой сумме весов — простое среднее.
func weightedMean(values []float64, weights []float64) float64 {
	var sum, wsum float64
	for i, v := range values {
		sum += v * weights[i]
		wsum += weights[i]
	}
	if wsum > 0 {
		return sum / wsum
	}
	sum = 0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func aggregate(out *CartResult, results []*Result, opts CartOptions) {
	n := len(results)
	scores := make([]float64, n)
	prod := make([]float64, n)
	weights := make([]float64, n)
	var lasting []float64
	catValues := map[impacts.Category][]float64{}

	simple := 0.0
	for i, r := range results {
		e := CartEntry{
			Code:        r.Item.Code,
			Name:        r.Item.Name,
			WeightGrams: r.Item.WeightGrams,
			Score:       round1(r.Score),
			Grade:       r.Grade,
			Production:  round1(r.Production),
			Result:      r,
		}
		if r.Lasting != nil {
			v := round1(r.Lasting.Score)
			e.Lasting = &v
			lasting = append(lasting, r.Lasting.Score)
		}
		out.Items = append(out.Items, e)
		out.TotalWeightGrams += r.Item.WeightGrams

		scores[i] = r.Score
		prod[i] = r.Production
		weights[i] = float64(r.Item.WeightGrams)
		simple += r.Score
		for _, cs := range r.Categories {
			catValues[cs.Category] = append(catValues[cs.Category], cs.Score)
		}
	}

	out.AverageItemScore = round1(simple / float64(n))
	out.BaseScore = weightedMean(scores, weights)
	out.Production = round1(weightedMean(prod, weights))
	if len(lasting) == n {
		v := round1(weightedMean(lasting, weights))
		out.Lasting = &v
	}
	out.Categories = make(map[impacts.Category]float64, len(catValues))
	for cat, vs := range catValues {
		if len(vs) == n {
			out.Categories[cat] = round1(weightedMean(vs, weights))
		}
	}

	out.DiversityFactor = 1.0
	if opts.DiversityBonus > 0 && n <= opts.DiversityMaxItems {
		out.DiversityFactor = opts.DiversityBonus
	}
	out.Score = math.Min(100, out.BaseScore*out.DiversityFactor)
	out.Grade = Grade(out.Score)
}

var categoryConcern = map[impacts.Category]string{
	impacts.Water:  "water consumption",
	impacts.Carbon: "carbon emissions",
	impacts.Energy: "energy consumption",
}

const (
	maxRecommendations = 3
	weakCategoryScore  = 60.0
	weakItemScore      = 50.0
	weakItemsListed    = 2
)

func recommendations(results []*Result, cart *CartResult) []string {
	var recs []string

	if cart.Lasting != nil {
		switch p, l := cart.Production, *cart.Lasting; {
		case p >= insightHigh && l >= insightHigh:
			recs = append(recs, "Excellent cart: low production impact with great longevity")
		case p < insightLow && l >= insightHigh:
			recs = append(recs, "Higher initial cost, but these items will last much longer")
		case p >= insightHigh && l < insightLow:
			recs = append(recs, "Low production cost but frequent replacement needed")
		}
	}

	worst, worstScore := impacts.Category(""), math.Inf(1)
	for _, cat := range impacts.Categories {
		if v, ok := cart.Categories[cat]; ok && v < worstScore {
			worst, worstScore = cat, v
		}
	}
	if worst != "" && worstScore < weakCategoryScore {
		recs = append(recs, fmt.Sprintf("Consider replacing items with high %s", categoryConcern[worst]))
	}

	var weak []string
	for _, r := range results {
		if r.Score < weakItemScore && len(weak) < weakItemsListed {
			weak = append(weak, r.Item.Name)
		}
	}
	if len(weak) > 0 {
		recs = append(recs, "Consider alternatives for: "+strings.Join(weak, ", "))
	}

	materials := map[string]bool{}
	for _, r := range results {
		for _, c := range r.Composition {
			materials[strings.ToLower(c.Material)] = true
		}
	}
	if materials["conventional cotton"] {
		recs = append(recs, "Look for organic cotton alternatives to reduce water usage")
	}
	if materials["acrylic"] || materials["nylon"] {
		recs = append(recs, "Consider natural fiber alternatives to synthetic materials")
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
