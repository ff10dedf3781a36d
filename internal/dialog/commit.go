package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"finbot/internal/client"
	"finbot/internal/flow"
	"finbot/internal/logger"
	"finbot/internal/model"
	"finbot/internal/report"
)

// commit runs the terminal side effect of a completed flow. The caller
// has already cleared the session; fields hold every canonical value
// the steps collected.
func (e *Engine) commit(ctx context.Context, chatID int64, id flow.ID, fields map[string]string) Reply {
	start := time.Now()
	rep, err := e.commitFlow(ctx, chatID, id, fields)
	logger.LogEvent(ctx, logger.Dialog, slog.LevelInfo, "flow.commit",
		slog.String("status", logger.Status(err)),
		slog.String("flow", string(id)),
		slog.Duration("duration", logger.Took(start)))
	if err != nil {
		return e.failure(ctx, "flow.commit", err)
	}
	rep.RemoveKeyboard = true
	return rep
}

func (e *Engine) commitFlow(ctx context.Context, chatID int64, id flow.ID, fields map[string]string) (Reply, error) {
	switch id {
	case flow.Registration:
		return e.commitRegistration(ctx, chatID, fields)
	case flow.AddOperation:
		return e.commitAddOperation(ctx, chatID, fields)
	case flow.ListOperations:
		return e.commitListOperations(ctx, chatID, fields)
	case flow.CurrencyAdd:
		return e.commitCurrencyAdd(ctx, fields)
	case flow.CurrencyDelete:
		return e.commitCurrencyDelete(ctx, fields)
	case flow.CurrencyUpdate:
		return e.commitCurrencyUpdate(ctx, fields)
	case flow.Convert:
		return e.commitConvert(ctx, fields)
	default:
		return Reply{}, fmt.Errorf("flow %s has no commit", id)
	}
}

func (e *Engine) commitRegistration(ctx context.Context, chatID int64, fields map[string]string) (Reply, error) {
	err := e.backend.CreateUser(ctx, model.User{ChatID: chatID, Name: fields[flow.FieldName]})
	if _, ok := client.IsRejected(err); ok {
		return Reply{Text: msgAlreadyRegistered}, nil
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgRegistered}, nil
}

func (e *Engine) commitAddOperation(ctx context.Context, chatID int64, fields map[string]string) (Reply, error) {
	amount, err := strconv.ParseFloat(fields[flow.FieldAmount], 64)
	if err != nil {
		return Reply{}, fmt.Errorf("stored amount %q: %w", fields[flow.FieldAmount], err)
	}
	date, err := time.Parse(model.DateLayout, fields[flow.FieldDate])
	if err != nil {
		return Reply{}, fmt.Errorf("stored date %q: %w", fields[flow.FieldDate], err)
	}
	op := model.Operation{
		ChatID: chatID,
		Amount: amount,
		Date:   date,
		Type:   model.OperationType(fields[flow.FieldType]),
	}
	if err := e.backend.CreateOperation(ctx, op); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgOperationAdded}, nil
}

func (e *Engine) commitListOperations(ctx context.Context, chatID int64, fields map[string]string) (Reply, error) {
	column := report.SortColumn(fields[flow.FieldSortColumn])
	direction := report.SortDirection(fields[flow.FieldSortDirection])
	currency := fields[flow.FieldCurrency]

	// A dead rate service degrades the report to base currency instead
	// of failing the whole flow.
	var notice string
	quote := model.BaseQuote()
	if currency != model.BaseCurrency {
		q, err := e.rates.GetRate(ctx, currency)
		switch {
		case err == nil && q.Rate > 0:
			quote = q
		default:
			reason := "nonpositive rate"
			if err != nil {
				reason = err.Error()
			}
			logger.LogEvent(ctx, logger.Dialog, slog.LevelWarn, "rates.fallback",
				slog.String("status", "fallback"),
				slog.String("currency", currency),
				slog.String("err", reason))
			notice = msgRateFallback
		}
	}

	ops, err := e.backend.ListOperations(ctx, chatID, column, direction)
	if err != nil {
		return Reply{}, err
	}
	if len(ops) == 0 {
		return Reply{Text: msgNoOperations}, nil
	}

	lines := report.Build(ops, column, direction, quote)
	return Reply{Text: notice + "📊 Ваши операции:\n\n" + strings.Join(lines, "\n")}, nil
}

func (e *Engine) commitCurrencyAdd(ctx context.Context, fields map[string]string) (Reply, error) {
	rate, err := strconv.ParseFloat(fields[flow.FieldRate], 64)
	if err != nil {
		return Reply{}, fmt.Errorf("stored rate %q: %w", fields[flow.FieldRate], err)
	}
	c := model.Currency{Name: fields[flow.FieldCurrency], Rate: rate}
	if err := e.backend.CreateCurrency(ctx, c); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgCurrencyAdded}, nil
}

func (e *Engine) commitCurrencyDelete(ctx context.Context, fields map[string]string) (Reply, error) {
	if err := e.backend.DeleteCurrency(ctx, fields[flow.FieldCurrency]); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgCurrencyDeleted}, nil
}

func (e *Engine) commitCurrencyUpdate(ctx context.Context, fields map[string]string) (Reply, error) {
	rate, err := strconv.ParseFloat(fields[flow.FieldRate], 64)
	if err != nil {
		return Reply{}, fmt.Errorf("stored rate %q: %w", fields[flow.FieldRate], err)
	}
	c := model.Currency{Name: fields[flow.FieldCurrency], Rate: rate}
	if err := e.backend.UpdateCurrency(ctx, c); err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgCurrencyUpdated}, nil
}

func (e *Engine) commitConvert(ctx context.Context, fields map[string]string) (Reply, error) {
	amount, err := strconv.ParseFloat(fields[flow.FieldAmount], 64)
	if err != nil {
		return Reply{}, fmt.Errorf("stored amount %q: %w", fields[flow.FieldAmount], err)
	}
	code := fields[flow.FieldCurrency]

	c, err := e.backend.GetCurrency(ctx, code)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return Reply{Text: msgCurrencyGone}, nil
		}
		return Reply{}, err
	}

	converted := report.Round2(amount * c.Rate)
	text := fmt.Sprintf("💱 %s %s = %s %s",
		report.FormatAmount(amount), code,
		report.FormatAmount(converted), model.BaseCurrency)
	return Reply{Text: text}, nil
}
