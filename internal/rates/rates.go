// Package rates implements the exchange-rate service: a fixed quote
// table served over HTTP.
package rates

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultQuotes is the built-in quote table, in base units per one unit
// of the foreign currency.
var DefaultQuotes = map[string]float64{
	"USD": 80.89,
	"EUR": 90.11,
}

// Handler serves quote lookups from a fixed table.
type Handler struct {
	quotes map[string]float64
}

// NewHandler copies quotes so the table is immutable after start. A nil
// map falls back to DefaultQuotes.
func NewHandler(quotes map[string]float64) *Handler {
	if quotes == nil {
		quotes = DefaultQuotes
	}
	copied := make(map[string]float64, len(quotes))
	for code, rate := range quotes {
		copied[strings.ToUpper(code)] = rate
	}
	return &Handler{quotes: copied}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/rate", h.getRate)
	return r
}

func (h *Handler) getRate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	currency := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
	if currency == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "MISSING CURRENCY PARAMETER"})
		return
	}
	rate, ok := h.quotes[currency]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "UNKNOWN CURRENCY"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]float64{"rate": rate})
}
