package items

import (
	"math"
	"time"
)

type Item struct {
	Code        string    `json:"code"` // QR-код, уникальный
	Name        string    `json:"name"`
	Brand       string    `json:"brand,omitempty"`
	Category    string    `json:"category,omitempty"`
	WeightGrams int       `json:"weight_grams"`
	CreatedAt   time.Time `json:"created_at"`
}

// Component доля материала в составе вещи, 0..100
type Component struct {
	ItemCode   string  `json:"-"`
	Material   string  `json:"material"`
	Percentage float64 `json:"percentage"`
}

// CompositionTolerance допуск на округление при проверке суммы процентов
const CompositionTolerance = 0.1

// TotalPercentage сумма процентов по составу
func TotalPercentage(comps []Component) float64 {
	var total float64
	for _, c := range comps {
		total += c.Percentage
	}
	return total
}

// ValidComposition true, если состав в сумме даёт 100% (с допуском).
func ValidComposition(comps []Component) bool {
	return math.Abs(TotalPercentage(comps)-100) < CompositionTolerance
}

// Dominant возвращает материал с наибольшей долей (первый при равенстве).
func Dominant(comps []Component) (Component, bool) {
	if len(comps) == 0 {
		return Component{}, false
	}
	best := comps[0]
	for _, c := range comps[1:] {
		if c.Percentage > best.Percentage {
			best = c
		}
	}
	return best, true
}
