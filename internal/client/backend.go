package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finbot/internal/logger"
	"finbot/internal/model"
	"finbot/internal/report"
)

const defaultTimeout = 5 * time.Second

// Backend talks to the persistence service. Each call is bounded by the
// client timeout; a timeout or transport failure surfaces as
// ErrUnavailable, never as a hang.
type Backend struct {
	baseURL string
	http    *http.Client
}

// NewBackend builds a client for the persistence service rooted at
// baseURL. A zero timeout falls back to the default.
func NewBackend(baseURL string, timeout time.Duration) *Backend {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// errorBody is the collaborator's rejection payload.
type errorBody struct {
	Message string `json:"message"`
}

// do performs one request and decodes a 200 body into out (when out is
// non-nil). Non-2xx statuses map onto the client error taxonomy.
func (b *Backend) do(ctx context.Context, method, path string, in, out any) error {
	start := time.Now()
	err := b.doOnce(ctx, method, path, in, out)
	logger.LogEvent(ctx, logger.Backend, slog.LevelDebug, "backend.call",
		slog.String("status", logger.Status(err)),
		slog.String("payload", method+" "+path),
		slog.Duration("duration", logger.Took(start)),
	)
	return err
}

func (b *Backend) doOnce(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil || eb.Message == "" {
			eb.Message = "BAD REQUEST"
		}
		return &RejectedError{Reason: eb.Message}
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}
}

// IsAdmin reports whether chatID belongs to the configured admin.
func (b *Backend) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	var res struct {
		IsAdmin bool `json:"is_admin"`
	}
	err := b.do(ctx, http.MethodGet, fmt.Sprintf("/is_admin/%d", chatID), nil, &res)
	if err != nil {
		return false, err
	}
	return res.IsAdmin, nil
}

// UserExists reports whether a user is registered for chatID.
func (b *Backend) UserExists(ctx context.Context, chatID int64) (bool, error) {
	err := b.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", chatID), nil, nil)
	switch {
	case err == nil:
		return true, nil
	case err == ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

// CreateUser registers a user. A duplicate registration comes back as a
// RejectedError.
func (b *Backend) CreateUser(ctx context.Context, u model.User) error {
	return b.do(ctx, http.MethodPost, "/users", u, nil)
}

// CreateOperation stores one income or expense record.
func (b *Backend) CreateOperation(ctx context.Context, op model.Operation) error {
	return b.do(ctx, http.MethodPost, "/operations", op, nil)
}

// ListOperations fetches all operations of a chat, sorted server-side.
func (b *Backend) ListOperations(ctx context.Context, chatID int64, column report.SortColumn, direction report.SortDirection) ([]model.Operation, error) {
	path := fmt.Sprintf("/operations/%d?sort_column=%s&sort_direction=%s", chatID, column, direction)
	var ops []model.Operation
	if err := b.do(ctx, http.MethodGet, path, nil, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

// GetCurrency fetches one admin-managed currency by code.
func (b *Backend) GetCurrency(ctx context.Context, code string) (model.Currency, error) {
	var c model.Currency
	if err := b.do(ctx, http.MethodGet, "/currencies/"+code, nil, &c); err != nil {
		return model.Currency{}, err
	}
	return c, nil
}

// CurrencyExists reports whether code is already managed.
func (b *Backend) CurrencyExists(ctx context.Context, code string) (bool, error) {
	_, err := b.GetCurrency(ctx, code)
	switch {
	case err == nil:
		return true, nil
	case err == ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

// ListCurrencies fetches every admin-managed currency.
func (b *Backend) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	var cs []model.Currency
	if err := b.do(ctx, http.MethodGet, "/currencies", nil, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// CreateCurrency adds a managed currency. Duplicates are rejected.
func (b *Backend) CreateCurrency(ctx context.Context, c model.Currency) error {
	return b.do(ctx, http.MethodPost, "/currencies", c, nil)
}

// UpdateCurrency replaces the rate of an existing currency.
func (b *Backend) UpdateCurrency(ctx context.Context, c model.Currency) error {
	return b.do(ctx, http.MethodPut, "/currencies/"+c.Name, c, nil)
}

// DeleteCurrency removes a managed currency.
func (b *Backend) DeleteCurrency(ctx context.Context, code string) error {
	return b.do(ctx, http.MethodDelete, "/currencies/"+code, nil, nil)
}
