package bot

import (
	"log/slog"
	"runtime/debug"
	"time"

	tele "gopkg.in/telebot.v4"

	"finbot/internal/logger"
)

// recoverMiddleware catches panics in handlers so one bad update cannot
// take the bot down.
func recoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.TG.Error("panic recovered",
					slog.String("event", "tg.panic"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}

// loggerMiddleware logs one receipt line per update and stamps the
// request id.
func loggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()

		chatID := int64(0)
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		rid := logger.BuildRID(c.Update().ID, chatID)
		c.Set("rid", rid)

		err := next(c)

		logger.TG.Info("update handled",
			slog.String("event", "tg.update"),
			slog.String("status", logger.Status(err)),
			slog.String("rid", rid),
			slog.Int64("chat_id", chatID),
			slog.String("payload", logger.SanitizeLimit(c.Text(), 128)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return err
	}
}
