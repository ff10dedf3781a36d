package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finbot/internal/logger"
	"finbot/internal/model"
)

// Rates talks to the exchange-rate service.
type Rates struct {
	baseURL string
	http    *http.Client
}

// NewRates builds a client for the rate service rooted at baseURL.
func NewRates(baseURL string, timeout time.Duration) *Rates {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Rates{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// GetRate quotes one unit of currency in base units. The base currency
// is answered locally without a network call.
func (r *Rates) GetRate(ctx context.Context, currency string) (model.RateQuote, error) {
	if currency == model.BaseCurrency {
		return model.BaseQuote(), nil
	}

	start := time.Now()
	quote, err := r.getRate(ctx, currency)
	logger.LogEvent(ctx, logger.Rates, slog.LevelDebug, "rates.get",
		slog.String("status", logger.Status(err)),
		slog.String("currency", currency),
		slog.Float64("rate", quote.Rate),
		slog.Duration("duration", logger.Took(start)),
	)
	return quote, err
}

func (r *Rates) getRate(ctx context.Context, currency string) (model.RateQuote, error) {
	u := r.baseURL + "/rate?currency=" + url.QueryEscape(currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.RateQuote{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return model.RateQuote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Rate float64 `json:"rate"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return model.RateQuote{}, fmt.Errorf("decode response: %w", err)
		}
		return model.RateQuote{Currency: currency, Rate: body.Rate}, nil
	case http.StatusBadRequest:
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil || eb.Message == "" {
			eb.Message = "UNKNOWN CURRENCY"
		}
		return model.RateQuote{}, &RejectedError{Reason: eb.Message}
	default:
		return model.RateQuote{}, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}
}
