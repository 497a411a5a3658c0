// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"errors"
	"fmt"
	"strings"

	"sunset_reminder_bot/internal/domain/location"
	"sunset_reminder_bot/internal/domain/reminder"
	"sunset_reminder_bot/internal/domain/sun"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// SunsetSource is the part of app.ReminderLoop the /sunset command uses.
type SunsetSource interface {
	TodayEvent() (reminder.SunsetEvent, error)
}

type BotCommands struct {
	loc    location.Location
	sunset SunsetSource
	logger *logrus.Entry
}

func NewBotCommands(loc location.Location, sunset SunsetSource, baseLogger *logrus.Entry) *BotCommands {
	return &BotCommands{loc: loc, sunset: sunset, logger: baseLogger.WithField("handler_group", "start_help")}
}

func (h *BotCommands) Register(r Router) {
	r.Handle("/start", h.Start)
	r.Handle("/help", h.Help)
	r.Handle("/sunset", h.Sunset)
}

func (h *BotCommands) Start(c telebot.Context) error {
	logCtx := h.logger.WithField("command", "/start")
	name := "there"
	if s := c.Sender(); s != nil {
		logCtx = logCtx.WithField("sender_id", s.ID)
		if s.FirstName != "" {
			name = s.FirstName
		}
	}
	logCtx.Info("Processing /start command")
	return c.Send(fmt.Sprintf("Hi %s! I announce the sunset in %s fifteen minutes ahead and remind about rent at the end of the month. Use /help for the list of commands.", name, h.loc.Name))
}

func (h *BotCommands) Help(c telebot.Context) error {
	h.logger.WithField("command", "/help").Debug("Processing /help command")

	var helpText strings.Builder
	helpText.WriteString("Available commands:\n\n")
	helpText.WriteString("/optin - Get mentioned in the sunset reminder.\n")
	helpText.WriteString("/optout - Stop being mentioned in the sunset reminder.\n")
	helpText.WriteString("/sunset - Show today's sunset time.\n")
	helpText.WriteString("/mark_rent_paid - Mark this month's rent as paid.\n")
	helpText.WriteString("/unmark_rent_paid - Undo marking this month's rent as paid.\n")
	helpText.WriteString("/check_rent_status - Show whether this month's rent is paid.\n")
	helpText.WriteString("/help - Show this message.")
	return c.Send(helpText.String())
}

func (h *BotCommands) Sunset(c telebot.Context) error {
	logCtx := h.logger.WithField("command", "/sunset")

	ev, err := h.sunset.TodayEvent()
	if errors.Is(err, sun.ErrNoSunset) {
		return c.Send(fmt.Sprintf("The sun does not set in %s today.", h.loc.Name))
	}
	if err != nil {
		logCtx.WithError(err).Error("Failed to compute today's sunset")
		return c.Send("Could not compute today's sunset. Please try again later.")
	}
	return c.Send(fmt.Sprintf("Sunset in %s today is at %s. The reminder goes out at %s.",
		h.loc.Name, ev.Sunset.Format("15:04 MST"), ev.Warning.Format("15:04")))
}
