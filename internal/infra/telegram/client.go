// internal/infra/telegram/client.go
package telegram

import (
	"fmt"

	domainTelegram "sunset_reminder_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// Sender is the part of *telebot.Bot the adapter needs.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot Sender
}

func NewTelebotAdapter(b Sender) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to a chat or channel.
func (tba *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.Chat{ID: chatID} // Channels and groups, not only private chats
	if _, err := tba.bot.Send(recipient, text, options); err != nil {
		return fmt.Errorf("%w: chat %d: %w", domainTelegram.ErrDelivery, chatID, err)
	}
	return nil
}
