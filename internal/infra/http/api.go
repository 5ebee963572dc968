package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/eco-wardrobe/internal/domain/cart"
	"github.com/Spok95/eco-wardrobe/internal/domain/catalog"
	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
	"github.com/Spok95/eco-wardrobe/internal/domain/materials"
	"github.com/Spok95/eco-wardrobe/internal/domain/scans"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
)

// Catalog то, что API читает из каталога помимо данных для расчёта.
type Catalog interface {
	scoring.Catalog
	SearchItems(ctx context.Context, q string) ([]items.Item, error)
	Stats(ctx context.Context) (*catalog.Stats, error)

	ListMaterials(ctx context.Context) ([]materials.WithUsage, error)
	SearchMaterials(ctx context.Context, q string) ([]materials.WithUsage, error)
	GetMaterial(ctx context.Context, name string) (*materials.Material, error)
	ItemsByMaterial(ctx context.Context, name string) ([]items.Item, error)
	MaterialCoefficients(ctx context.Context, name string) ([]impacts.Coefficient, error)
}

// ScanLog история сканов; может отсутствовать (SQLite).
type ScanLog interface {
	Record(ctx context.Context, s scans.Scan) (int64, error)
	Recent(ctx context.Context, limit int) ([]scans.Scan, error)
	ForItem(ctx context.Context, code string, limit int) ([]scans.Scan, error)
}

const sessionCookie = "cart_session"

type API struct {
	catalog  Catalog
	scorer   *scoring.Scorer
	carts    *cart.Service
	scans    ScanLog
	limiter  *RateLimiter
	requests RequestObserver
	log      *slog.Logger
}

type Option func(*API)

func WithScanLog(s ScanLog) Option                 { return func(a *API) { a.scans = s } }
func WithRateLimiter(rl *RateLimiter) Option       { return func(a *API) { a.limiter = rl } }
func WithRequestObserver(o RequestObserver) Option { return func(a *API) { a.requests = o } }
func WithLogger(l *slog.Logger) Option             { return func(a *API) { a.log = l } }

func NewAPI(cat Catalog, scorer *scoring.Scorer, carts *cart.Service, opts ...Option) *API {
	a := &API{catalog: cat, scorer: scorer, carts: carts, log: slog.Default()}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", a.listItems)
	mux.HandleFunc("GET /api/items/{code}", a.getItem)
	mux.HandleFunc("GET /api/items/{code}/score", a.scoreItem)
	mux.HandleFunc("GET /api/items/{code}/impacts", a.itemImpacts)
	mux.HandleFunc("GET /api/materials", a.listMaterials)
	mux.HandleFunc("GET /api/materials/{name}", a.getMaterial)

	mux.HandleFunc("GET /api/cart", a.getCart)
	mux.HandleFunc("POST /api/cart/items/{code}", a.addToCart)
	mux.HandleFunc("DELETE /api/cart/items/{code}", a.removeFromCart)
	mux.HandleFunc("DELETE /api/cart", a.clearCart)
	mux.HandleFunc("GET /api/cart/score", a.scoreCart)

	mux.HandleFunc("GET /api/stats", a.stats)
	mux.HandleFunc("GET /api/profiles", a.profiles)
	mux.HandleFunc("POST /api/ranges/refresh", a.refreshRanges)
	mux.HandleFunc("GET /api/scans", a.listScans)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "no such endpoint")
	})

	return withRequestID(a.limiter.Middleware(a.observe(mux)))
}

// scorerFor скорер с профилем из ?profile=, иначе профиль по умолчанию.
func (a *API) scorerFor(r *http.Request) (*scoring.Scorer, error) {
	name := strings.TrimSpace(r.URL.Query().Get("profile"))
	if name == "" {
		return a.scorer, nil
	}
	p, err := scoring.LoadBuiltin(name)
	if err != nil {
		return nil, err
	}
	return a.scorer.WithProfile(p), nil
}

/* Сессия корзины */

// session id корзины из cookie; create — выдать новую сессию, если её нет.
func (a *API) session(w http.ResponseWriter, r *http.Request, create bool) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if !create {
		return ""
	}
	id := cart.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
	})
	return id
}

/* Каталог */

func (a *API) listItems(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	var (
		list []items.Item
		err  error
	)
	if q == "" {
		list, err = a.catalog.ListItems(r.Context())
	} else {
		list, err = a.catalog.SearchItems(r.Context(), q)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []items.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list, "count": len(list)})
}

type itemView struct {
	items.Item
	Composition      []items.Component `json:"composition"`
	CompositionTotal float64           `json:"composition_total"`
	CompositionValid bool              `json:"composition_valid"`
}

func (a *API) getItem(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	it, err := a.catalog.GetItem(r.Context(), code)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if it == nil {
		a.fail(w, r, &scoring.NotFoundError{Code: code})
		return
	}
	comps, err := a.catalog.GetComposition(r.Context(), code)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if comps == nil {
		comps = []items.Component{}
	}
	writeJSON(w, http.StatusOK, itemView{
		Item:             *it,
		Composition:      comps,
		CompositionTotal: items.TotalPercentage(comps),
		CompositionValid: items.ValidComposition(comps),
	})
}

func (a *API) scoreItem(w http.ResponseWriter, r *http.Request) {
	s, err := a.scorerFor(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := s.ScoreItem(r.Context(), r.PathValue("code"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.record(r.Context(), a.session(w, r, false), res)
	writeJSON(w, http.StatusOK, res)
}

// record пишет скан в историю; ошибка только логируется.
func (a *API) record(ctx context.Context, sessionID string, res *scoring.Result) {
	if a.scans == nil {
		return
	}
	sc := scans.Scan{
		ItemCode:  res.Item.Code,
		SessionID: sessionID,
		Profile:   res.Profile,
		Score:     res.Score,
		Grade:     res.Grade,
		Payload:   toMap(res),
	}
	if _, err := a.scans.Record(ctx, sc); err != nil {
		a.log.Warn("scan record failed", "code", res.Item.Code, "err", err)
	}
}

func toMap(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

func (a *API) itemImpacts(w http.ResponseWriter, r *http.Request) {
	rep, err := a.scorer.Report(r.Context(), r.PathValue("code"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

/* Корзина */

type cartView struct {
	SessionID string   `json:"session_id"`
	Items     []string `json:"items"`
	Count     int      `json:"count"`
	MaxItems  int      `json:"max_items"`
	Added     *bool    `json:"added,omitempty"`
	Removed   *bool    `json:"removed,omitempty"`
}

func (a *API) view(c *cart.Cart) cartView {
	codes := c.Codes
	if codes == nil {
		codes = []string{}
	}
	return cartView{SessionID: c.SessionID, Items: codes, Count: len(codes), MaxItems: a.carts.MaxItems()}
}

func (a *API) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := a.carts.Get(r.Context(), a.session(w, r, true))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.view(c))
}

func (a *API) addToCart(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	it, err := a.catalog.GetItem(r.Context(), code)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if it == nil {
		a.fail(w, r, &scoring.NotFoundError{Code: code})
		return
	}

	c, added, err := a.carts.Add(r.Context(), a.session(w, r, true), it.Code)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	v := a.view(c)
	v.Added = &added
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, v)
}

func (a *API) removeFromCart(w http.ResponseWriter, r *http.Request) {
	c, removed, err := a.carts.Remove(r.Context(), a.session(w, r, true), strings.TrimSpace(r.PathValue("code")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	v := a.view(c)
	v.Removed = &removed
	writeJSON(w, http.StatusOK, v)
}

func (a *API) clearCart(w http.ResponseWriter, r *http.Request) {
	if sid := a.session(w, r, false); sid != "" {
		if err := a.carts.Clear(r.Context(), sid); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) scoreCart(w http.ResponseWriter, r *http.Request) {
	s, err := a.scorerFor(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	codes, err := a.carts.Codes(r.Context(), a.session(w, r, true))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := s.ScoreCart(r.Context(), codes)
	if err != nil {
		if errors.Is(err, scoring.ErrNoScorableItems) && res != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   err.Error(),
				"code":    "no_data",
				"skipped": res.Skipped,
			})
			return
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

/* Служебное */

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	st, err := a.catalog.Stats(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := map[string]any{
		"catalog":  st,
		"profile":  a.scorer.Profile().Name,
		"profiles": scoring.Builtins(),
	}
	if at := a.scorer.Ranges().ComputedAt(); !at.IsZero() {
		out["ranges_computed_at"] = at
	}
	writeJSON(w, http.StatusOK, out)
}

type profileView struct {
	Name            string                       `json:"name"`
	Description     string                       `json:"description"`
	Weights         map[impacts.Category]float64 `json:"weights"`
	DynamicRanges   bool                         `json:"dynamic_ranges"`
	Lasting         bool                         `json:"lasting"`
	ProductionShare float64                      `json:"production_share"`
}

func (a *API) profiles(w http.ResponseWriter, r *http.Request) {
	var out []profileView
	for _, name := range scoring.Builtins() {
		p, err := scoring.LoadBuiltin(name)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		share := 1.0
		if p.Lasting != nil {
			share = p.Share()
		}
		out = append(out, profileView{
			Name:            p.Name,
			Description:     p.Description,
			Weights:         p.Weights,
			DynamicRanges:   p.DynamicRanges,
			Lasting:         p.Lasting != nil,
			ProductionShare: share,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"default": a.scorer.Profile().Name, "profiles": out})
}

func (a *API) refreshRanges(w http.ResponseWriter, r *http.Request) {
	ranges, at, err := a.scorer.RefreshRanges(r.Context())
	if err != nil {
		a.fail(w, r, fmt.Errorf("refresh ranges: %w", err))
		return
	}
	a.log.Info("impact ranges refreshed", "request_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"ranges": ranges, "computed_at": at})
}

func (a *API) listScans(w http.ResponseWriter, r *http.Request) {
	if a.scans == nil {
		writeError(w, r, http.StatusNotImplemented, "not_supported", "scan history is not available for this storage driver")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, r, http.StatusBadRequest, "bad_request", "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	var (
		list []scans.Scan
		err  error
	)
	if code := strings.TrimSpace(r.URL.Query().Get("item")); code != "" {
		list, err = a.scans.ForItem(r.Context(), code, limit)
	} else {
		list, err = a.scans.Recent(r.Context(), limit)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []scans.Scan{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": list, "count": len(list)})
}
