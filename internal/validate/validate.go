// Package validate contains the pure input validators used by dialog
// steps. Every function is deterministic and free of side effects.
package validate

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"finbot/internal/model"
)

var (
	// ErrInvalidAmount reports a non-numeric or non-positive amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidDate reports a date outside the strict DD.MM.YYYY format.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidCurrencyFormat reports a malformed currency code.
	ErrInvalidCurrencyFormat = errors.New("invalid currency format")
	// ErrInvalidChoice reports input outside a fixed button set.
	ErrInvalidChoice = errors.New("invalid choice")
)

// Amount parses a positive finite decimal, accepting both ',' and '.'
// as the fraction separator. ParseFloat also understands NaN and the
// infinities, so those are rejected explicitly.
func Amount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// Date parses a strict DD.MM.YYYY calendar date. Round-tripping through
// the layout rejects shorthand such as "1.1.2025" that time.Parse would
// otherwise accept.
func Date(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	if d.Format(model.DateLayout) != s {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// CurrencyCode validates a 2-5 letter ASCII code and normalizes it to
// upper case.
func CurrencyCode(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 || len(s) > 5 {
		return "", ErrInvalidCurrencyFormat
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", ErrInvalidCurrencyFormat
		}
	}
	return strings.ToUpper(s), nil
}

// Choice checks exact membership in the declared option set.
func Choice(raw string, options []string) (string, error) {
	for _, opt := range options {
		if raw == opt {
			return opt, nil
		}
	}
	return "", ErrInvalidChoice
}

// Name validates a registration name: non-empty, at most maxLen runes.
func Name(raw string, maxLen int) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" || len([]rune(s)) > maxLen {
		return "", errors.New("invalid name")
	}
	return s, nil
}
