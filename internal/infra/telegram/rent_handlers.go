package telegram

import (
	"context"
	"errors"

	"sunset_reminder_bot/internal/app"
	"sunset_reminder_bot/internal/domain/reminder"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	msgRentMarkedPaid   = "Rent has been marked as paid. Thank you!"
	msgRentUnmarked     = "Rent has been unmarked as paid for this month."
	msgRentStatusPaid   = "Rent has been marked as paid for this month."
	msgRentStatusUnpaid = "Rent has not been marked as paid yet for this month."
	msgStoreUnavailable = "Something went wrong while updating the rent status. Please try again later."
)

// Router is satisfied by *telebot.Bot and *telebot.Group.
type Router interface {
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
}

// RentTracker is the part of app.ObligationTracker the handlers use.
type RentTracker interface {
	MarkPaid(ctx context.Context) (reminder.MonthKey, error)
	MarkUnpaid(ctx context.Context) (reminder.MonthKey, error)
	MarkPaidFor(ctx context.Context, key reminder.MonthKey) error
	QueryPaid(ctx context.Context) (bool, reminder.MonthKey, error)
}

type RentHandlers struct {
	ctx     context.Context
	tracker RentTracker
	logger  *logrus.Entry
}

func NewRentHandlers(ctx context.Context, tracker RentTracker, baseLogger *logrus.Entry) *RentHandlers {
	return &RentHandlers{ctx: ctx, tracker: tracker, logger: baseLogger.WithField("handler_group", "rent")}
}

// Register wires the rent commands and the inline "paid" button.
func (h *RentHandlers) Register(r Router) {
	r.Handle("/mark_rent_paid", h.MarkPaid)
	r.Handle("/unmark_rent_paid", h.UnmarkPaid)
	r.Handle("/check_rent_status", h.CheckStatus)
	r.Handle(&telebot.Btn{Unique: app.RentPaidButtonUnique}, h.PaidButton)
}

func (h *RentHandlers) MarkPaid(c telebot.Context) error {
	handlerLogger := h.commandLogger(c, "/mark_rent_paid")
	handlerLogger.Info("Command received")

	key, err := h.tracker.MarkPaid(h.ctx)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to mark rent as paid")
		return c.Send(msgStoreUnavailable)
	}
	handlerLogger.WithField("month", key.String()).Info("Rent marked as paid")
	return c.Send(msgRentMarkedPaid)
}

func (h *RentHandlers) UnmarkPaid(c telebot.Context) error {
	handlerLogger := h.commandLogger(c, "/unmark_rent_paid")
	handlerLogger.Info("Command received")

	key, err := h.tracker.MarkUnpaid(h.ctx)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to unmark rent as paid")
		return c.Send(msgStoreUnavailable)
	}
	handlerLogger.WithField("month", key.String()).Info("Rent unmarked as paid")
	return c.Send(msgRentUnmarked)
}

func (h *RentHandlers) CheckStatus(c telebot.Context) error {
	handlerLogger := h.commandLogger(c, "/check_rent_status")

	paid, key, err := h.tracker.QueryPaid(h.ctx)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to read rent status")
		return c.Send("Could not read the rent status. Please try again later.")
	}
	handlerLogger.WithFields(logrus.Fields{"month": key.String(), "paid": paid}).Debug("Rent status checked")
	if paid {
		return c.Send(msgRentStatusPaid)
	}
	return c.Send(msgRentStatusUnpaid)
}

// PaidButton handles the inline button under a rent reminder. The payload
// is the month the reminder was sent for.
func (h *RentHandlers) PaidButton(c telebot.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	handlerLogger := h.commandLogger(c, "rent_paid_button").WithField("payload", cb.Data)

	key, err := reminder.ParseMonthKey(cb.Data)
	if err != nil {
		handlerLogger.WithError(err).Warn("Invalid rent button payload")
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
	}

	err = h.tracker.MarkPaidFor(h.ctx, key)
	switch {
	case err == nil:
		handlerLogger.Info("Rent marked as paid from reminder button")
		if err := c.Send(msgRentMarkedPaid); err != nil {
			handlerLogger.WithError(err).Warn("Failed to confirm paid status")
		}
		return c.Respond(&telebot.CallbackResponse{Text: "Marked as paid!"})
	case errors.Is(err, app.ErrStaleMonth):
		handlerLogger.WithError(err).Info("Button pressed for a past month")
		return c.Respond(&telebot.CallbackResponse{Text: "This reminder is for a past month."})
	default:
		handlerLogger.WithError(err).Error("Failed to mark rent as paid from button")
		return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong, try /mark_rent_paid."})
	}
}

func (h *RentHandlers) commandLogger(c telebot.Context, handler string) *logrus.Entry {
	fields := logrus.Fields{"handler": handler}
	if s := c.Sender(); s != nil {
		fields["sender_id"] = s.ID
	}
	return h.logger.WithFields(fields)
}
