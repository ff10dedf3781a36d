// Package report renders sorted, currency-converted operation listings.
// Build is a pure function: given the same inputs it always produces the
// same lines.
package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"finbot/internal/model"
)

// SortColumn selects the operation field used for ordering.
type SortColumn string

const (
	ByDate   SortColumn = "date"
	ByAmount SortColumn = "amount"
	ByType   SortColumn = "type"
)

// SortDirection flips the comparator.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Build sorts operations by the chosen column (stable, ties keep the
// input order) and converts amounts into the quote currency. The stored
// rate is base units per one unit of the target currency, so conversion
// from the base currency divides by the rate. Amounts are rounded half
// away from zero to two decimals.
func Build(ops []model.Operation, column SortColumn, direction SortDirection, quote model.RateQuote) []string {
	sorted := make([]model.Operation, len(ops))
	copy(sorted, ops)

	less := comparator(column)
	sort.SliceStable(sorted, func(i, j int) bool {
		if direction == Desc {
			i, j = j, i
		}
		return less(sorted[i], sorted[j])
	})

	lines := make([]string, 0, len(sorted))
	for _, op := range sorted {
		converted := Round2(op.Amount / quote.Rate)
		lines = append(lines, fmt.Sprintf("%s - %s %s - %s",
			op.Date.Format(model.DateLayout),
			FormatAmount(converted),
			quote.Currency,
			op.Type,
		))
	}
	return lines
}

func comparator(column SortColumn) func(a, b model.Operation) bool {
	switch column {
	case ByAmount:
		return func(a, b model.Operation) bool { return a.Amount < b.Amount }
	case ByType:
		return func(a, b model.Operation) bool { return a.Type < b.Type }
	default:
		return func(a, b model.Operation) bool { return a.Date.Before(b.Date) }
	}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount prints a rounded amount without trailing fraction zeros.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
