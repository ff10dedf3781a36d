// Package dialog runs the conversation engine: it routes commands and
// free-text messages through the flow tables, owns every dependency
// call, and produces plain replies the transport layer renders.
package dialog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"finbot/internal/client"
	"finbot/internal/flow"
	"finbot/internal/logger"
	"finbot/internal/model"
	"finbot/internal/report"
	"finbot/internal/session"
)

// BackendClient is the slice of the persistence service the engine
// needs. *client.Backend satisfies it.
type BackendClient interface {
	IsAdmin(ctx context.Context, chatID int64) (bool, error)
	UserExists(ctx context.Context, chatID int64) (bool, error)
	CreateUser(ctx context.Context, u model.User) error
	CreateOperation(ctx context.Context, op model.Operation) error
	ListOperations(ctx context.Context, chatID int64, column report.SortColumn, direction report.SortDirection) ([]model.Operation, error)
	GetCurrency(ctx context.Context, code string) (model.Currency, error)
	CurrencyExists(ctx context.Context, code string) (bool, error)
	ListCurrencies(ctx context.Context) ([]model.Currency, error)
	CreateCurrency(ctx context.Context, c model.Currency) error
	UpdateCurrency(ctx context.Context, c model.Currency) error
	DeleteCurrency(ctx context.Context, code string) error
}

// RateClient quotes foreign currencies in base units. *client.Rates
// satisfies it.
type RateClient interface {
	GetRate(ctx context.Context, currency string) (model.RateQuote, error)
}

// Reply is everything the transport needs to answer one message.
type Reply struct {
	Text string
	// Buttons, when set, is rendered as a one-time reply keyboard.
	Buttons []string
	// RemoveKeyboard clears any keyboard left from a previous step.
	RemoveKeyboard bool
}

// Engine drives every dialog. Handle serializes per chat through the
// session store, so at most one update per chat is in flight.
type Engine struct {
	store   *session.Store
	backend BackendClient
	rates   RateClient
	now     func() time.Time
}

func New(store *session.Store, backend BackendClient, rates RateClient) *Engine {
	return &Engine{
		store:   store,
		backend: backend,
		rates:   rates,
		now:     time.Now,
	}
}

// Handle processes one incoming text message for a chat and returns the
// reply to send. It never returns an error: every failure becomes a
// user-facing message.
func (e *Engine) Handle(ctx context.Context, chatID int64, text string) Reply {
	release := e.store.Acquire(chatID)
	defer release()

	ctx = logger.WithChat(ctx, chatID)
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "/") {
		return e.handleCommand(ctx, chatID, text)
	}
	return e.handleMessage(ctx, chatID, text)
}

// handleCommand starts a flow or answers a simple command. Any slash
// command, unrecognized ones included, discards the chat's in-progress
// session first: a user typing a command mid-flow is abandoning the
// dialog, not answering its prompt.
func (e *Engine) handleCommand(ctx context.Context, chatID int64, text string) Reply {
	command := text
	if i := strings.IndexByte(command, ' '); i >= 0 {
		command = command[:i]
	}
	if i := strings.IndexByte(command, '@'); i >= 0 {
		command = command[:i]
	}

	if _, ok := e.store.Get(chatID); ok {
		e.store.Clear(chatID)
		logger.LogEvent(ctx, logger.Dialog, slog.LevelInfo, "flow.discard",
			slog.String("status", "ok"))
	}

	switch command {
	case "/start":
		return e.greet(ctx, chatID)
	case "/help":
		return Reply{Text: helpText(), RemoveKeyboard: true}
	case "/get_currencies":
		return e.listCurrencies(ctx)
	}

	def, ok := flow.ByCommand(command)
	if !ok {
		return Reply{Text: msgUnknownCommand, RemoveKeyboard: true}
	}
	return e.startFlow(ctx, chatID, def)
}

func (e *Engine) startFlow(ctx context.Context, chatID int64, def flow.Definition) Reply {
	if def.AdminOnly {
		// A failed admin lookup denies like a negative one; admin rights
		// are never assumed when the backend cannot confirm them.
		admin, err := e.backend.IsAdmin(ctx, chatID)
		if err != nil {
			logger.LogEvent(ctx, logger.Dialog, slog.LevelWarn, "flow.start",
				slog.String("status", "denied"),
				slog.String("flow", string(def.ID)),
				slog.String("err", err.Error()))
		}
		if err != nil || !admin {
			return Reply{Text: msgAdminOnly, RemoveKeyboard: true}
		}
	}
	if def.RequiresUser {
		exists, err := e.backend.UserExists(ctx, chatID)
		if err != nil {
			return e.failure(ctx, "flow.start", err)
		}
		if !exists {
			return Reply{Text: msgNeedRegister, RemoveKeyboard: true}
		}
	}

	e.store.Replace(chatID, session.New(chatID, def.ID, e.now()))
	logger.LogEvent(ctx, logger.Dialog, slog.LevelInfo, "flow.start",
		slog.String("status", "ok"),
		slog.String("flow", string(def.ID)))
	return stepReply(def.Steps[0], def.Steps[0].Prompt)
}

// handleMessage advances the chat's active flow by one step.
func (e *Engine) handleMessage(ctx context.Context, chatID int64, text string) Reply {
	sess, ok := e.store.Get(chatID)
	if !ok {
		return Reply{Text: msgNoActiveFlow, RemoveKeyboard: true}
	}

	def, ok := flow.Lookup(sess.Flow)
	if !ok || sess.Step >= len(def.Steps) {
		// A stale session for a flow that no longer exists.
		e.store.Clear(chatID)
		return Reply{Text: msgNoActiveFlow, RemoveKeyboard: true}
	}
	step := def.Steps[sess.Step]

	value, ok := parseStep(step, text)
	if !ok {
		// Bad input leaves the session untouched.
		return stepReply(step, step.Retry)
	}

	if rep, ok := e.runGate(ctx, step, value); !ok {
		return rep
	}

	sess.Fields[step.Field] = value
	logger.LogEvent(ctx, logger.Dialog, slog.LevelInfo, "flow.advance",
		slog.String("status", "ok"),
		slog.String("flow", string(sess.Flow)),
		slog.String("field", step.Field))

	if len(step.Branches) > 0 {
		target := step.Branches[value]
		next, ok := flow.Lookup(target)
		if !ok || len(next.Steps) == 0 {
			e.store.Clear(chatID)
			return Reply{Text: msgNoActiveFlow, RemoveKeyboard: true}
		}
		sess.Flow = next.ID
		sess.Step = 0
		e.store.Replace(chatID, sess)
		return stepReply(next.Steps[0], next.Steps[0].Prompt)
	}

	if def.Terminal(sess.Step) {
		// The session is spent whether the commit lands or not.
		e.store.Clear(chatID)
		return e.commit(ctx, chatID, def.ID, sess.Fields)
	}

	sess.Step++
	e.store.Replace(chatID, sess)
	next := def.Steps[sess.Step]
	return stepReply(next, next.Prompt)
}

// parseStep resolves raw input into the step's canonical value.
func parseStep(step flow.Step, text string) (string, bool) {
	if step.IsChoice() {
		return step.Value(text)
	}
	value, err := step.Parse(text)
	if err != nil {
		return "", false
	}
	return value, true
}

// runGate performs the step's dependency-backed existence check. The
// second result is false when the reply should be sent as-is.
func (e *Engine) runGate(ctx context.Context, step flow.Step, value string) (Reply, bool) {
	if step.Gate == flow.GateNone {
		return Reply{}, true
	}
	exists, err := e.backend.CurrencyExists(ctx, value)
	if err != nil {
		return e.failure(ctx, "flow.gate", err), false
	}
	switch step.Gate {
	case flow.GateCurrencyAbsent:
		if exists {
			return stepReply(step, msgCurrencyTaken), false
		}
	case flow.GateCurrencyExists:
		if !exists {
			return stepReply(step, msgCurrencyUnknown), false
		}
	}
	return Reply{}, true
}

func stepReply(step flow.Step, text string) Reply {
	if step.IsChoice() {
		return Reply{Text: text, Buttons: step.Labels()}
	}
	return Reply{Text: text, RemoveKeyboard: true}
}

// failure maps a dependency error to the user-facing reply.
func (e *Engine) failure(ctx context.Context, event string, err error) Reply {
	if reason, ok := client.IsRejected(err); ok {
		logger.LogEvent(ctx, logger.Dialog, slog.LevelWarn, event,
			slog.String("status", "rejected"),
			slog.String("err", reason))
		return Reply{Text: "❌ " + reason, RemoveKeyboard: true}
	}
	level := slog.LevelError
	if errors.Is(err, client.ErrNotFound) {
		level = slog.LevelWarn
	}
	logger.LogEvent(ctx, logger.Dialog, level, event,
		slog.String("status", "fail"),
		slog.String("err", err.Error()))
	return Reply{Text: msgUnavailable, RemoveKeyboard: true}
}

// greet answers /start. The greeting must not depend on the backend
// being up, so lookup failures degrade to the unregistered variant.
func (e *Engine) greet(ctx context.Context, chatID int64) Reply {
	exists, _ := e.backend.UserExists(ctx, chatID)
	admin, _ := e.backend.IsAdmin(ctx, chatID)

	var sb strings.Builder
	if exists {
		sb.WriteString(msgGreetingRegistered)
	} else {
		sb.WriteString(msgGreeting)
	}
	sb.WriteString(msgHelpHeader)
	for _, d := range flow.Commands() {
		if d.AdminOnly && !admin {
			continue
		}
		sb.WriteString("\n" + d.Command + " — " + d.Description)
	}
	sb.WriteString("\n/get_currencies — Список доступных валют")
	return Reply{Text: sb.String(), RemoveKeyboard: true}
}

func (e *Engine) listCurrencies(ctx context.Context) Reply {
	currencies, err := e.backend.ListCurrencies(ctx)
	if err != nil {
		return e.failure(ctx, "currencies.list", err)
	}
	if len(currencies) == 0 {
		return Reply{Text: msgNoCurrencies, RemoveKeyboard: true}
	}
	var sb strings.Builder
	sb.WriteString(msgCurrenciesHeader)
	for _, c := range currencies {
		sb.WriteString("\n" + c.Name + ": " + report.FormatAmount(c.Rate))
	}
	return Reply{Text: sb.String(), RemoveKeyboard: true}
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString(msgHelpHeader)
	for _, d := range flow.Commands() {
		sb.WriteString("\n" + d.Command + " — " + d.Description)
	}
	sb.WriteString("\n/get_currencies — Список доступных валют")
	return sb.String()
}
