package report

import (
	"strings"
	"testing"
	"time"

	"finbot/internal/model"
)

func mkOps() []model.Operation {
	return []model.Operation{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: 100, Type: model.OperationIncome},
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Amount: 50, Type: model.OperationExpense},
	}
}

func TestBuildSortByAmountAsc(t *testing.T) {
	lines := Build(mkOps(), ByAmount, Asc, model.BaseQuote())
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "50 RUB") || !strings.Contains(lines[1], "100 RUB") {
		t.Fatalf("unexpected order: %v", lines)
	}
}

func TestBuildSortByAmountDesc(t *testing.T) {
	lines := Build(mkOps(), ByAmount, Desc, model.BaseQuote())
	if !strings.Contains(lines[0], "100 RUB") || !strings.Contains(lines[1], "50 RUB") {
		t.Fatalf("unexpected order: %v", lines)
	}
}

func TestBuildConversionDividesByRate(t *testing.T) {
	ops := []model.Operation{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: 100, Type: model.OperationIncome},
	}
	lines := Build(ops, ByDate, Asc, model.RateQuote{Currency: "USD", Rate: 80.89})
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "1.24 USD") {
		t.Fatalf("line = %q, want 1.24 USD", lines[0])
	}
}

func TestBuildStableOnTies(t *testing.T) {
	ops := []model.Operation{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: 10, Type: model.OperationIncome},
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: 10, Type: model.OperationExpense},
	}
	lines := Build(ops, ByAmount, Asc, model.BaseQuote())
	if !strings.Contains(lines[0], "01.03.2024") {
		t.Fatalf("stable sort broken, first line = %q", lines[0])
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	ops := mkOps()
	Build(ops, ByAmount, Desc, model.BaseQuote())
	if ops[0].Amount != 100 {
		t.Fatal("input slice reordered")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{100.0 / 80.89, 1.24},
		{0.004, 0},
		{0.006, 0.01},
		{123.456, 123.46},
		{50, 50},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Fatalf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
