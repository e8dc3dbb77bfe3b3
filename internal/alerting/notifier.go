package alerting

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

// Sender is the slice of the Telegram bot API the notifier needs.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Notifier delivers one text to every subscriber.
type Notifier interface {
	Broadcast(ctx context.Context, text string) error
}

// TelegramNotifier fans a message out to the fixed subscriber allow-list.
// Delivery failures are isolated per subscriber: one rejected send is logged
// and the remaining subscribers still receive the message.
type TelegramNotifier struct {
	sender      Sender
	subscribers []int64
	logger      zerolog.Logger
}

// NewTelegramNotifier constructs the fanout notifier.
func NewTelegramNotifier(sender Sender, subscribers []int64, logger zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:      sender,
		subscribers: subscribers,
		logger:      logger.With().Str("component", "notifier").Logger(),
	}
}

// Broadcast sends text to each subscriber in turn. It only returns an error
// when no subscriber could be reached at all.
func (n *TelegramNotifier) Broadcast(ctx context.Context, text string) error {
	if len(n.subscribers) == 0 {
		return nil
	}

	failed := 0
	for _, chatID := range n.subscribers {
		params := &bot.SendMessageParams{
			ChatID: chatID,
			Text:   text,
		}
		if _, err := n.sender.SendMessage(ctx, params); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("subscriber delivery failed (ignored)")
			failed++
			continue
		}
	}

	if failed == len(n.subscribers) {
		return fmt.Errorf("delivery failed for all %d subscribers", failed)
	}
	return nil
}

var _ Notifier = (*TelegramNotifier)(nil)
