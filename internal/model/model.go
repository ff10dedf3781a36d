// Package model defines the domain records shared between the bot,
// the dependency clients, and the backend service.
package model

import "time"

// BaseCurrency is the currency operations are stored in. Rates are
// expressed as base units per one unit of the foreign currency.
const BaseCurrency = "RUB"

// OperationType distinguishes income from expense records.
type OperationType string

const (
	OperationIncome  OperationType = "INCOME"
	OperationExpense OperationType = "EXPENSE"
)

// User is created once by the registration flow and never mutated.
type User struct {
	ChatID int64  `json:"chat_id" db:"chat_id"`
	Name   string `json:"name" db:"name"`
}

// Operation is a single income or expense record owned by a chat.
type Operation struct {
	ID     int64         `json:"id" db:"id"`
	Date   time.Time     `json:"-" db:"op_date"`
	Amount float64       `json:"amount" db:"amount"`
	ChatID int64         `json:"chat_id" db:"chat_id"`
	Type   OperationType `json:"type" db:"op_type"`
}

// Currency is an admin-managed exchange rate entry.
type Currency struct {
	Name string  `json:"currency_name" db:"currency_name"`
	Rate float64 `json:"rate" db:"rate"`
}

// RateQuote is an ephemeral rate lookup result; it is never persisted.
type RateQuote struct {
	Currency string
	Rate     float64
}

// BaseQuote returns the identity quote for the base currency.
func BaseQuote() RateQuote {
	return RateQuote{Currency: BaseCurrency, Rate: 1.0}
}
