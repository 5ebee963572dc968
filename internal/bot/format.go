package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
)

var categoryIcon = map[impacts.Category]string{
	impacts.Water:  "💧",
	impacts.Carbon: "🌫",
	impacts.Energy: "⚡",
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatResult(r *scoring.Result) string {
	var sb strings.Builder
	it := r.Item

	fmt.Fprintf(&sb, "👕 %s (%s)\n", it.Name, it.Code)
	var meta []string
	if it.Brand != "" {
		meta = append(meta, it.Brand)
	}
	if it.Category != "" {
		meta = append(meta, it.Category)
	}
	meta = append(meta, fmt.Sprintf("%d g", it.WeightGrams))
	sb.WriteString(strings.Join(meta, " · ") + "\n")

	var comp []string
	for _, c := range r.Composition {
		comp = append(comp, fmt.Sprintf("%s%% %s", num(c.Percentage), c.Material))
	}
	sb.WriteString(strings.Join(comp, ", ") + "\n\n")

	fmt.Fprintf(&sb, "Score: %.1f (%s) · profile %s\n", r.Score, r.Grade, r.Profile)
	for _, cs := range r.Categories {
		fmt.Fprintf(&sb, "%s %s: %.2f %s → %.0f/100\n",
			categoryIcon[cs.Category], cs.Category.Title(), cs.Raw, cs.Unit, cs.Score)
	}
	if r.Lasting != nil {
		fmt.Fprintf(&sb, "Production: %.1f (%s)\n", r.Production, r.ProductionGrade)
		fmt.Fprintf(&sb, "Lasting: %.1f (%s)\n", r.Lasting.Score, r.Lasting.Grade)
	}
	if r.WaterTubeML > 0 {
		fmt.Fprintf(&sb, "Water tube: %.0f ml of 400\n", r.WaterTubeML)
	}

	if r.CompositionPenalty > 0 {
		fmt.Fprintf(&sb, "⚠️ Composition adds up to %s%%, penalty %.1f\n", num(r.CompositionTotal), r.CompositionPenalty)
	}
	var missing []string
	seen := map[string]bool{}
	for _, b := range r.Breakdown {
		if b.Missing && !seen[b.Material] {
			seen[b.Material] = true
			missing = append(missing, b.Material)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&sb, "⚠️ No impact data for: %s\n", strings.Join(missing, ", "))
	}

	if in := r.Insight; in != nil {
		fmt.Fprintf(&sb, "\n💡 %s: %s\n", in.Recommendation, in.Explanation)
		for _, n := range in.MaterialNotes {
			sb.WriteString("• " + n + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatCart(codes []string, maxItems int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 Your cart (%d/%d):\n", len(codes), maxItems)
	for i, c := range codes {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatCartResult(r *scoring.CartResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 Cart score: %.1f (%s) · profile %s\n", r.Score, r.Grade, r.Profile)
	fmt.Fprintf(&sb, "%d items, %d g total\n\n", len(r.Items), r.TotalWeightGrams)
	for _, e := range r.Items {
		fmt.Fprintf(&sb, "• %s (%s): %.1f %s\n", e.Name, e.Code, e.Score, e.Grade)
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(&sb, "• %s: skipped, %s\n", s.Code, s.Reason)
	}
	if r.DiversityFactor > 1 {
		fmt.Fprintf(&sb, "\nCapsule bonus ×%s applied\n", num(r.DiversityFactor))
	}
	if len(r.Recommendations) > 0 {
		sb.WriteString("\n")
		for _, rec := range r.Recommendations {
			sb.WriteString("💡 " + rec + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
