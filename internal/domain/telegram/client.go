package telegram

import (
	"errors"

	"gopkg.in/telebot.v3"
)

// ErrDelivery is wrapped by Client implementations when a message could not
// be delivered.
var ErrDelivery = errors.New("notification delivery failed")

// Client defines an interface for sending messages via a Telegram bot.
// This helps in decoupling the application logic from the specific bot library.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
