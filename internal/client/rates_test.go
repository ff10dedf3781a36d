package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/internal/model"
)

func TestRatesGetRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rate", r.URL.Path)
		require.Equal(t, "USD", r.URL.Query().Get("currency"))
		w.Write([]byte(`{"rate": 80.89}`))
	}))
	defer srv.Close()

	rc := NewRates(srv.URL, 0)
	quote, err := rc.GetRate(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, model.RateQuote{Currency: "USD", Rate: 80.89}, quote)
}

func TestRatesBaseCurrencySkipsNetwork(t *testing.T) {
	// The base currency must never hit the wire; a dead endpoint proves it.
	rc := NewRates("http://127.0.0.1:1", 0)
	quote, err := rc.GetRate(context.Background(), model.BaseCurrency)
	require.NoError(t, err)
	assert.Equal(t, model.BaseQuote(), quote)
}

func TestRatesUnknownCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "UNKNOWN CURRENCY"}`))
	}))
	defer srv.Close()

	rc := NewRates(srv.URL, 0)
	_, err := rc.GetRate(context.Background(), "XXX")
	reason, ok := IsRejected(err)
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN CURRENCY", reason)
}

func TestRatesServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rc := NewRates(srv.URL, 0)
	_, err := rc.GetRate(context.Background(), "EUR")
	assert.ErrorIs(t, err, ErrUnavailable)
}
