package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/Spok95/eco-wardrobe/internal/domain/items"
)

// Insight сравнение производственной и долгосрочной оценок.
type Insight struct {
	Recommendation string   `json:"recommendation"`
	Explanation    string   `json:"explanation"`
	MaterialNotes  []string `json:"material_notes,omitempty"`
	ProductionHigh bool     `json:"production_higher"`
	Difference     float64  `json:"difference"`
}

const (
	insightHigh = 70.0
	insightLow  = 40.0
)

func insight(production, lasting float64, comps []items.Component) *Insight {
	dominant, _ := items.Dominant(comps)
	material := strings.ToLower(dominant.Material)

	in := &Insight{
		ProductionHigh: production > lasting,
		Difference:     round1(math.Abs(production - lasting)),
	}
	switch {
	case production >= insightHigh && lasting >= insightHigh:
		in.Recommendation = "Excellent Choice"
		in.Explanation = "Low production impact and great longevity."
	case production < insightLow && lasting >= insightHigh:
		in.Recommendation = "Trade-off Worth Making"
		in.Explanation = fmt.Sprintf("Higher production impact, but %s will last much longer and biodegrade naturally.", material)
	case production >= insightHigh && lasting < insightLow:
		in.Recommendation = "Short-term Thinking"
		in.Explanation = "Low production impact but poor longevity, so it will likely need frequent replacement."
	case production < insightLow && lasting < insightLow:
		in.Recommendation = "Avoid if Possible"
		in.Explanation = "High production impact and poor longevity."
	default:
		in.Recommendation = "Balanced Choice"
		in.Explanation = "Moderate impact in both production and longevity."
	}

	switch {
	case strings.Contains(material, "wool"), strings.Contains(material, "cashmere"):
		in.MaterialNotes = append(in.MaterialNotes, "Natural fibers like wool use more water initially but last decades and biodegrade completely")
	case strings.Contains(material, "polyester"), strings.Contains(material, "acrylic"):
		in.MaterialNotes = append(in.MaterialNotes, "Synthetic materials are cheaper to produce but shed microplastics and never biodegrade")
	case strings.Contains(material, "cotton"):
		in.MaterialNotes = append(in.MaterialNotes, "Cotton is biodegradable but very water-intensive to produce")
	}
	return in
}
