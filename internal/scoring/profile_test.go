package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
)

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{"basic", "dual", "enhanced"}, Builtins())
}

func TestLoadBuiltinAll(t *testing.T) {
	for _, name := range Builtins() {
		t.Run(name, func(t *testing.T) {
			p, err := LoadBuiltin(name)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name)
			assert.NoError(t, p.Validate())
			assert.Len(t, p.Ranges, 3)
		})
	}
}

func TestLoadBuiltinDetails(t *testing.T) {
	enhanced, err := LoadBuiltin("ENHANCED")
	require.NoError(t, err)
	assert.True(t, enhanced.DynamicRanges)
	assert.InDelta(t, 0.40, enhanced.Weights[impacts.Carbon], 1e-9)
	assert.InDelta(t, 1.0, enhanced.Degenerate(), 1e-9)
	assert.InDelta(t, 20, enhanced.MaterialBonus["hemp"], 1e-9)
	assert.InDelta(t, 1.15, enhanced.Multiplier("Jeans"), 1e-9)
	assert.InDelta(t, 1.0, enhanced.Multiplier("kimono"), 1e-9)
	assert.Nil(t, enhanced.Lasting)

	dual, err := LoadBuiltin("dual")
	require.NoError(t, err)
	require.NotNil(t, dual.Lasting)
	assert.InDelta(t, 0.5, dual.Share(), 1e-9)
	assert.InDelta(t, 0.5, dual.Degenerate(), 1e-9)
	assert.InDelta(t, 1.2, dual.Lasting.BrandQuality["patagonia"], 1e-9)
	assert.InDelta(t, 0.8, dual.Lasting.BrandQuality["h&m"], 1e-9)
	assert.InDelta(t, 1.15, dual.Lasting.weightFactor(600), 1e-9)
	assert.InDelta(t, 1.05, dual.Lasting.weightFactor(400), 1e-9)
	assert.InDelta(t, 1.0, dual.Lasting.weightFactor(300), 1e-9)
	assert.InDelta(t, 0.9, dual.Lasting.weightFactor(50), 1e-9)

	def, err := LoadBuiltin("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, def.Name)
}

func TestLoadBuiltinNotFound(t *testing.T) {
	_, err := LoadBuiltin("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestLoadBuiltinReturnsCopies(t *testing.T) {
	a, err := LoadBuiltin("enhanced")
	require.NoError(t, err)
	a.Weights[impacts.Water] = 99
	a.MaterialBonus["hemp"] = -1

	b, err := LoadBuiltin("enhanced")
	require.NoError(t, err)
	assert.InDelta(t, 0.35, b.Weights[impacts.Water], 1e-9)
	assert.InDelta(t, 20, b.MaterialBonus["hemp"], 1e-9)
}

func TestProfileValidate(t *testing.T) {
	base := func() *Profile {
		p, err := LoadBuiltin("dual")
		require.NoError(t, err)
		return p
	}
	neg := -0.1
	over := 1.5

	tests := []struct {
		name   string
		mutate func(p *Profile)
	}{
		{"weights do not sum to 1", func(p *Profile) { p.Weights[impacts.Water] = 0.5 }},
		{"negative weight", func(p *Profile) {
			p.Weights[impacts.Water] = -0.1
			p.Weights[impacts.Carbon] = 0.85
		}},
		{"unknown category", func(p *Profile) { p.Weights["noise"] = 0 }},
		{"share above 1", func(p *Profile) { p.ProductionShare = &over }},
		{"share below 0", func(p *Profile) { p.ProductionShare = &neg }},
		{"negative cap", func(p *Profile) { p.CompositionPenalty.Cap = -1 }},
		{"inverted range", func(p *Profile) { p.Ranges[impacts.Water] = Range{Best: 10, Worst: 1} }},
		{"lasting weights", func(p *Profile) { p.Lasting.Weights.Durability = 0.9 }},
		{"zero multiplier", func(p *Profile) { p.CategoryMultiplier = map[string]float64{"coat": 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Custom
weights:
  water_usage: 0.5
  carbon_footprint: 0.5
  energy_usage: 0
material_bonus:
  Hemp: 10
production_share: 0.7
`), 0o644))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name)
	assert.InDelta(t, 10, p.MaterialBonus["hemp"], 1e-9)
	assert.InDelta(t, 0.7, p.Share(), 1e-9)
	assert.InDelta(t, 0.5, p.Degenerate(), 1e-9)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\nweights:\n  water_usage: 2\n"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
