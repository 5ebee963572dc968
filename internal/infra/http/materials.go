package http

import (
	"net/http"
	"strings"

	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
	"github.com/Spok95/eco-wardrobe/internal/domain/materials"
)

/* Справочник материалов */

func (a *API) listMaterials(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	var (
		list []materials.WithUsage
		err  error
	)
	if q == "" {
		list, err = a.catalog.ListMaterials(r.Context())
	} else {
		list, err = a.catalog.SearchMaterials(r.Context(), q)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []materials.WithUsage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"materials": list, "count": len(list)})
}

type materialView struct {
	materials.Material
	Coefficients []impacts.Coefficient `json:"coefficients"`
	Items        []items.Item          `json:"items"`
}

// getMaterial материал со всеми коэффициентами (включая дубли источников) и вещами.
func (a *API) getMaterial(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	m, err := a.catalog.GetMaterial(r.Context(), name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if m == nil {
		writeError(w, r, http.StatusNotFound, "not_found", "material "+materials.NormalizeName(name)+" not found")
		return
	}

	view := materialView{Material: *m, Coefficients: []impacts.Coefficient{}, Items: []items.Item{}}
	cs, err := a.catalog.MaterialCoefficients(r.Context(), m.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	its, err := a.catalog.ItemsByMaterial(r.Context(), m.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if cs != nil {
		view.Coefficients = cs
	}
	if its != nil {
		view.Items = its
	}
	writeJSON(w, http.StatusOK, view)
}
