package backend

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finbot/internal/logger"
	"finbot/internal/model"
	"finbot/internal/report"
)

// Handler serves the persistence API.
type Handler struct {
	storage Storage
	admins  map[int64]struct{}
}

func NewHandler(storage Storage, adminChatIDs []int64) *Handler {
	admins := make(map[int64]struct{}, len(adminChatIDs))
	for _, id := range adminChatIDs {
		admins[id] = struct{}{}
	}
	return &Handler{storage: storage, admins: admins}
}

// Router builds the HTTP surface.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/is_admin/{chatID}", h.isAdmin)
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/{chatID}", h.getUser)
	})
	r.Route("/operations", func(r chi.Router) {
		r.Post("/", h.createOperation)
		r.Get("/{chatID}", h.listOperations)
	})
	r.Route("/currencies", func(r chi.Router) {
		r.Get("/", h.listCurrencies)
		r.Post("/", h.createCurrency)
		r.Get("/{code}", h.getCurrency)
		r.Put("/{code}", h.updateCurrency)
		r.Delete("/{code}", h.deleteCurrency)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.HTTP.Info("request",
			slog.String("event", "http.request"),
			slog.String("payload", r.Method+" "+r.URL.Path),
			slog.Int("code", ww.Status()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}

// writeStorageErr maps repository errors onto the wire contract.
func writeStorageErr(w http.ResponseWriter, err error, existsMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeMessage(w, http.StatusNotFound, "NOT FOUND")
	case errors.Is(err, ErrExists):
		writeMessage(w, http.StatusBadRequest, existsMsg)
	default:
		logger.HTTP.Error("storage failure",
			slog.String("event", "http.request"),
			slog.String("err", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "INTERNAL ERROR")
	}
}

func chatIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	return id, err == nil
}

func (h *Handler) isAdmin(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "INVALID CHAT ID")
		return
	}
	_, isAdmin := h.admins[chatID]
	writeJSON(w, http.StatusOK, map[string]bool{"is_admin": isAdmin})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "INVALID CHAT ID")
		return
	}
	u, err := h.storage.GetUser(r.Context(), chatID)
	if err != nil {
		writeStorageErr(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var u model.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil || u.ChatID == 0 || u.Name == "" {
		writeMessage(w, http.StatusBadRequest, "INVALID USER")
		return
	}
	if err := h.storage.CreateUser(r.Context(), u); err != nil {
		writeStorageErr(w, err, "USER ALREADY EXISTS")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) createOperation(w http.ResponseWriter, r *http.Request) {
	var op model.Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil || op.ChatID == 0 || op.Amount <= 0 {
		writeMessage(w, http.StatusBadRequest, "INVALID OPERATION")
		return
	}
	if op.Type != model.OperationIncome && op.Type != model.OperationExpense {
		writeMessage(w, http.StatusBadRequest, "INVALID OPERATION TYPE")
		return
	}
	if err := h.storage.CreateOperation(r.Context(), op); err != nil {
		writeStorageErr(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, op)
}

func (h *Handler) listOperations(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "INVALID CHAT ID")
		return
	}
	column := report.SortColumn(r.URL.Query().Get("sort_column"))
	direction := report.SortDirection(r.URL.Query().Get("sort_direction"))
	switch column {
	case "", report.ByDate, report.ByAmount, report.ByType:
	default:
		writeMessage(w, http.StatusBadRequest, "INVALID SORT COLUMN")
		return
	}
	switch direction {
	case "", report.Asc, report.Desc:
	default:
		writeMessage(w, http.StatusBadRequest, "INVALID SORT DIRECTION")
		return
	}
	ops, err := h.storage.ListOperations(r.Context(), chatID, column, direction)
	if err != nil {
		writeStorageErr(w, err, "")
		return
	}
	if ops == nil {
		ops = []model.Operation{}
	}
	writeJSON(w, http.StatusOK, ops)
}

func (h *Handler) listCurrencies(w http.ResponseWriter, r *http.Request) {
	cs, err := h.storage.ListCurrencies(r.Context())
	if err != nil {
		writeStorageErr(w, err, "")
		return
	}
	if cs == nil {
		cs = []model.Currency{}
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) getCurrency(w http.ResponseWriter, r *http.Request) {
	c, err := h.storage.GetCurrency(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeStorageErr(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) createCurrency(w http.ResponseWriter, r *http.Request) {
	var c model.Currency
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Name == "" || c.Rate <= 0 {
		writeMessage(w, http.StatusBadRequest, "INVALID CURRENCY")
		return
	}
	if err := h.storage.CreateCurrency(r.Context(), c); err != nil {
		writeStorageErr(w, err, "CURRENCY ALREADY EXISTS")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCurrency(w http.ResponseWriter, r *http.Request) {
	var c model.Currency
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Rate <= 0 {
		writeMessage(w, http.StatusBadRequest, "INVALID CURRENCY")
		return
	}
	c.Name = chi.URLParam(r, "code")
	if err := h.storage.UpdateCurrency(r.Context(), c); err != nil {
		writeStorageErr(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCurrency(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.DeleteCurrency(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeStorageErr(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OK"})
}
