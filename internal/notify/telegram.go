// Package notify pushes approved signals to Telegram.
package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
	"github.com/tradeforge-io/signal-engine-go/internal/observability"
)

// TelegramNotifier sends approved-signal messages to a fixed chat.
// Delivery failures are logged and never surfaced to the caller.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID string
	logger logging.Logger
}

// NewTelegramNotifier builds a notifier, or returns nil when no bot token
// is configured. A nil notifier is valid and does nothing.
func NewTelegramNotifier(token, chatID string, logger logging.Logger) *TelegramNotifier {
	if token == "" || chatID == "" {
		return nil
	}

	b, err := bot.New(token)
	if err != nil {
		logger.WithComponent("notifier").WithError(err).Warn("telegram bot init failed, notifications disabled")
		return nil
	}

	return &TelegramNotifier{
		bot:    b,
		chatID: chatID,
		logger: logger.WithComponent("notifier"),
	}
}

// NotifyApproved announces an approved signal. Safe to call on a nil
// receiver.
func (n *TelegramNotifier) NotifyApproved(ctx context.Context, q *models.SignalQuality, reason string) {
	if n == nil {
		return
	}

	spanCtx, span := observability.StartSpan(ctx, observability.SpanOpNotification, "telegram")
	defer observability.FinishSpan(span, nil)

	text := fmt.Sprintf("*%s* %s (%s)\nQuality: %.2f | Confidence: %.2f\n%s",
		q.Signal, q.Symbol, q.Timeframe, q.QualityScore, q.Confidence, reason)

	_, err := n.bot.SendMessage(spanCtx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		n.logger.WithSymbol(q.Symbol).WithError(err).Warn("telegram notification failed")
		return
	}
	n.logger.WithSymbol(q.Symbol).Debug("approved signal notification sent")
}
