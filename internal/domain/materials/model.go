package materials

import (
	"strings"
	"time"
)

// Material текстильный материал. Name всегда в нижнем регистре,
// Density (г/см³) может отсутствовать.
type Material struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Density     *float64  `json:"density,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WithUsage материал + сколько коэффициентов и вещей на него ссылаются
type WithUsage struct {
	Material
	ImpactCount int `json:"impact_count"`
	ItemCount   int `json:"item_count"`
}

// NormalizeName приводит имя материала к виду, в котором оно хранится.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
