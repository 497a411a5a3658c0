package telegram

import (
	"context"
	"errors"
	"strings"

	"sunset_reminder_bot/internal/app"
	"sunset_reminder_bot/internal/domain/subscriber"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Subscriptions is the part of app.SubscriptionService the handlers use.
type Subscriptions interface {
	OptIn(ctx context.Context, userID int64, displayName string) (*subscriber.Subscriber, error)
	OptOut(ctx context.Context, userID int64) error
}

type SubscriptionHandlers struct {
	ctx    context.Context
	subs   Subscriptions
	logger *logrus.Entry
}

func NewSubscriptionHandlers(ctx context.Context, subs Subscriptions, baseLogger *logrus.Entry) *SubscriptionHandlers {
	return &SubscriptionHandlers{ctx: ctx, subs: subs, logger: baseLogger.WithField("handler_group", "subscription")}
}

func (h *SubscriptionHandlers) Register(r Router) {
	r.Handle("/optin", h.OptIn)
	r.Handle("/optout", h.OptOut)
}

func (h *SubscriptionHandlers) OptIn(c telebot.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	handlerLogger := h.logger.WithFields(logrus.Fields{
		"handler":   "/optin",
		"sender_id": sender.ID,
	})
	handlerLogger.Info("Command received")

	who := subscriber.Subscriber{UserID: sender.ID, DisplayName: displayName(sender)}
	html := &telebot.SendOptions{ParseMode: telebot.ModeHTML}

	_, err := h.subs.OptIn(h.ctx, who.UserID, who.DisplayName)
	switch {
	case err == nil:
		handlerLogger.Info("User opted in")
		return c.Send(who.Mention()+" has opted in to receive sunset reminders.", html)
	case errors.Is(err, app.ErrAlreadySubscribed):
		handlerLogger.Info("User already opted in")
		return c.Send(who.Mention()+" has already opted in to receive sunset reminders.", html)
	default:
		handlerLogger.WithError(err).Error("Failed to opt in user")
		return c.Send("Something went wrong while opting you in. Please try again later.")
	}
}

func (h *SubscriptionHandlers) OptOut(c telebot.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	handlerLogger := h.logger.WithFields(logrus.Fields{
		"handler":   "/optout",
		"sender_id": sender.ID,
	})
	handlerLogger.Info("Command received")

	if err := h.subs.OptOut(h.ctx, sender.ID); err != nil {
		handlerLogger.WithError(err).Error("Failed to opt out user")
		return c.Send("Something went wrong while opting you out. Please try again later.")
	}
	who := subscriber.Subscriber{UserID: sender.ID, DisplayName: displayName(sender)}
	return c.Send(who.Mention()+" has opted out of sunset reminders.", &telebot.SendOptions{ParseMode: telebot.ModeHTML})
}

func displayName(u *telebot.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" && u.Username != "" {
		name = "@" + u.Username
	}
	return name
}
