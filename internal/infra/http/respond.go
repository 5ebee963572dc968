package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Spok95/eco-wardrobe/internal/domain/cart"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
)

type errorBody struct {
	Error       string   `json:"error"`
	Code        string   `json:"code"`
	Suggestions []string `json:"suggestions,omitempty"`
	RequestID   string   `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code, RequestID: RequestID(r.Context())})
}

// classify статус и код ответа для доменной ошибки; 500 для остальных.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, scoring.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, scoring.ErrNoComposition), errors.Is(err, scoring.ErrNoScorableItems):
		return http.StatusUnprocessableEntity, "no_data"
	case errors.Is(err, scoring.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, scoring.ErrUnknownProfile):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, cart.ErrFull):
		return http.StatusConflict, "cart_full"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	body := errorBody{Error: err.Error(), Code: code, RequestID: RequestID(r.Context())}
	if status == http.StatusInternalServerError {
		a.log.Error("request failed", "path", r.URL.Path, "request_id", body.RequestID, "err", err)
		body.Error = "internal error"
	}
	var nf *scoring.NotFoundError
	if errors.As(err, &nf) {
		body.Suggestions = nf.Suggestions
	}
	writeJSON(w, status, body)
}
