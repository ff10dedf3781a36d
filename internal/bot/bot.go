// Package bot binds the dialog engine to the Telegram transport. All
// conversation logic lives in the engine; this package only converts
// updates to engine calls and replies to messages.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"finbot/internal/config"
	"finbot/internal/dialog"
	"finbot/internal/flow"
	"finbot/internal/logger"
)

// Engine is the conversation core the transport feeds. *dialog.Engine
// satisfies it.
type Engine interface {
	Handle(ctx context.Context, chatID int64, text string) dialog.Reply
}

// Options configures Run.
type Options struct {
	Config *config.Config
	Engine Engine
}

// buildPoller returns a telebot poller for the configured run mode.
func buildPoller(cfg *config.Config) tele.Poller {
	if cfg.Telegram.RunMode == config.RunModeWebhook {
		return &tele.Webhook{
			Listen:   fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}

	timeoutSec := cfg.Telegram.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second}
}

// Run builds the bot, registers every route, and polls until ctx is
// done.
func Run(ctx context.Context, opts Options) error {
	if opts.Config == nil {
		return fmt.Errorf("bot: nil config provided")
	}
	if opts.Engine == nil {
		return fmt.Errorf("bot: nil engine provided")
	}
	cfg := opts.Config

	buildStart := time.Now()
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: buildPoller(cfg),
		Client: buildHTTPClient(),
	})
	if err != nil {
		return fmt.Errorf("bot: initialization failed: %w", err)
	}

	logger.TG.Info("bot ready",
		slog.String("event", "tg.build"),
		slog.String("payload", cfg.Telegram.RunMode),
		slog.Duration("duration", logger.RoundMS(time.Since(buildStart))),
	)

	b.Use(recoverMiddleware, loggerMiddleware)

	respond := func(c tele.Context) error {
		hctx := logger.WithHandler(ctx, "dialog")
		if rid, ok := c.Get("rid").(string); ok {
			hctx = logger.WithRID(hctx, rid)
		}
		rep := opts.Engine.Handle(hctx, c.Chat().ID, c.Text())
		return send(c, rep)
	}

	for _, endpoint := range commandEndpoints() {
		b.Handle(endpoint, respond)
	}
	b.Handle(tele.OnText, respond)

	setMenu(b)

	runDone := make(chan struct{})
	go func() {
		b.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		b.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

// send renders one engine reply as a Telegram message.
func send(c tele.Context, rep dialog.Reply) error {
	if len(rep.Buttons) > 0 {
		return c.Send(rep.Text, replyButtons(rep.Buttons))
	}
	if rep.RemoveKeyboard {
		return c.Send(rep.Text, removeKeyboard())
	}
	return c.Send(rep.Text)
}

// commandEndpoints lists every slash command routed to the engine.
func commandEndpoints() []string {
	endpoints := []string{"/start", "/help", "/get_currencies"}
	for _, d := range flow.Commands() {
		endpoints = append(endpoints, d.Command)
	}
	return endpoints
}

// setMenu publishes the visible command menu; admin-only flows stay
// out of it.
func setMenu(b *tele.Bot) {
	menu := []tele.Command{
		{Text: "help", Description: "Список команд"},
	}
	for _, d := range flow.Commands() {
		if d.AdminOnly {
			continue
		}
		menu = append(menu, tele.Command{
			Text:        strings.TrimPrefix(d.Command, "/"),
			Description: d.Description,
		})
	}
	menu = append(menu, tele.Command{Text: "get_currencies", Description: "Список доступных валют"})

	if err := b.SetCommands(menu); err != nil {
		logger.TG.Error("set commands failed",
			slog.String("event", "tg.commands"),
			slog.String("err", err.Error()),
		)
	}
}
