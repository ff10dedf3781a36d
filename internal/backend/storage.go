// Package backend implements the persistence service: a Postgres
// repository and the HTTP surface the bot calls.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"finbot/internal/model"
	"finbot/internal/report"
)

var (
	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrExists reports a unique-key conflict.
	ErrExists = errors.New("record already exists")
)

// Storage is what the HTTP handler needs from the repository.
type Storage interface {
	GetUser(ctx context.Context, chatID int64) (model.User, error)
	CreateUser(ctx context.Context, u model.User) error
	CreateOperation(ctx context.Context, op model.Operation) error
	ListOperations(ctx context.Context, chatID int64, column report.SortColumn, direction report.SortDirection) ([]model.Operation, error)
	GetCurrency(ctx context.Context, code string) (model.Currency, error)
	ListCurrencies(ctx context.Context) ([]model.Currency, error)
	CreateCurrency(ctx context.Context, c model.Currency) error
	UpdateCurrency(ctx context.Context, c model.Currency) error
	DeleteCurrency(ctx context.Context, code string) error
}

// Repository is the sqlx-backed Storage implementation.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *Repository) GetUser(ctx context.Context, chatID int64) (model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u,
		`SELECT chat_id, name FROM users WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (chat_id, name) VALUES ($1, $2)`, u.ChatID, u.Name)
	if isUniqueViolation(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) CreateOperation(ctx context.Context, op model.Operation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO operations (chat_id, amount, op_date, op_type) VALUES ($1, $2, $3, $4)`,
		op.ChatID, op.Amount, op.Date, op.Type)
	if err != nil {
		return fmt.Errorf("create operation: %w", err)
	}
	return nil
}

// sortExpr whitelists the ORDER BY clause; raw query values never reach
// the SQL text.
func sortExpr(column report.SortColumn, direction report.SortDirection) string {
	col := "op_date"
	switch column {
	case report.ByAmount:
		col = "amount"
	case report.ByType:
		col = "op_type"
	}
	dir := "ASC"
	if direction == report.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", id ASC"
}

func (r *Repository) ListOperations(ctx context.Context, chatID int64, column report.SortColumn, direction report.SortDirection) ([]model.Operation, error) {
	query := `SELECT id, chat_id, amount, op_date, op_type FROM operations
		WHERE chat_id = $1 ORDER BY ` + sortExpr(column, direction)
	var ops []model.Operation
	if err := r.db.SelectContext(ctx, &ops, query, chatID); err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return ops, nil
}

func (r *Repository) GetCurrency(ctx context.Context, code string) (model.Currency, error) {
	var c model.Currency
	err := r.db.GetContext(ctx, &c,
		`SELECT currency_name, rate FROM currencies WHERE currency_name = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Currency{}, ErrNotFound
	}
	if err != nil {
		return model.Currency{}, fmt.Errorf("get currency: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCurrencies(ctx context.Context) ([]model.Currency, error) {
	var cs []model.Currency
	err := r.db.SelectContext(ctx, &cs,
		`SELECT currency_name, rate FROM currencies ORDER BY currency_name`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return cs, nil
}

func (r *Repository) CreateCurrency(ctx context.Context, c model.Currency) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO currencies (currency_name, rate) VALUES ($1, $2)`, c.Name, c.Rate)
	if isUniqueViolation(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("create currency: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCurrency(ctx context.Context, c model.Currency) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE currencies SET rate = $2 WHERE currency_name = $1`, c.Name, c.Rate)
	if err != nil {
		return fmt.Errorf("update currency: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update currency: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteCurrency(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM currencies WHERE currency_name = $1`, code)
	if err != nil {
		return fmt.Errorf("delete currency: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete currency: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
