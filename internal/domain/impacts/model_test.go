package impacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("noise").Valid())
}

func TestSourcePriority(t *testing.T) {
	assert.Equal(t, 10, SourcePriority("Textile Exchange 2017"))
	assert.Equal(t, 9, SourcePriority(" ecoinvent 3.0 "))
	assert.Equal(t, 1, SourcePriority("Sample data for demonstration"))
	assert.Equal(t, 0, SourcePriority("my spreadsheet"))
	assert.Equal(t, 0, SourcePriority(""))
}

func TestBest(t *testing.T) {
	assert.Nil(t, Best(nil))

	cs := []Coefficient{
		{ID: 3, Value: 1, Source: "Higg MSI"},
		{ID: 1, Value: 2, Source: "Sample data for demonstration"},
		{ID: 7, Value: 3, Source: "Textile Exchange 2017"},
		{ID: 5, Value: 4, Source: "Textile Exchange 2017"},
	}
	best := Best(cs)
	require.NotNil(t, best)
	assert.Equal(t, int64(5), best.ID)
	// исходный срез не переупорядочен
	assert.Equal(t, int64(3), cs[0].ID)
}

func TestBest_UnknownSourcesTieOnID(t *testing.T) {
	best := Best([]Coefficient{{ID: 9}, {ID: 4}, {ID: 6}})
	assert.Equal(t, int64(4), best.ID)
}

func TestFindConflicts(t *testing.T) {
	all := []Coefficient{
		{ID: 1, Material: "cotton", Category: Water, Source: "Sample data for demonstration"},
		{ID: 2, Material: "cotton", Category: Carbon},
		{ID: 3, Material: "cotton", Category: Water, Source: "Ecoinvent 3.0"},
		{ID: 4, Material: "wool", Category: Water},
	}
	got := FindConflicts(all)
	require.Len(t, got, 1)
	assert.Equal(t, "cotton", got[0].Material)
	assert.Equal(t, Water, got[0].Category)
	require.Len(t, got[0].Values, 2)
	assert.Equal(t, int64(3), got[0].Values[0].ID)
	assert.Equal(t, int64(1), got[0].Values[1].ID)
}

func TestTotalUnit(t *testing.T) {
	assert.Equal(t, "L", Coefficient{Unit: "L/kg"}.TotalUnit())
	assert.Equal(t, "MJ", Coefficient{Unit: "MJ"}.TotalUnit())
}
