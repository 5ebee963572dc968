package scoring

import "math"

// Normalize приводит сырое значение к [0,1], где меньше воздействие — лучше.
// При best == worst возвращает 1.0.
func Normalize(value, best, worst float64) float64 {
	if worst <= best {
		return 1.0
	}
	return clamp((worst-value)/(worst-best), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

type gradeStep struct {
	min   float64
	grade string
}

var gradeScale = []gradeStep{
	{90, "A+"}, {85, "A"}, {80, "A-"},
	{75, "B+"}, {70, "B"}, {65, "B-"},
	{60, "C+"}, {55, "C"}, {50, "C-"},
	{45, "D+"}, {40, "D"},
}

// Grade буквенная оценка для балла 0–100.
func Grade(score float64) string {
	for _, s := range gradeScale {
		if score >= s.min {
			return s.grade
		}
	}
	return "F"
}

// round1 округление до одного знака, как в ответах API.
func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
