package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

func (h *Handler) confirmSent(ctx context.Context, userID int64) {
	count, err := h.reminders.ConfirmSent(ctx, userID, h.today())
	if err != nil {
		h.answerReminderError(ctx, userID, err)
		return
	}
	if count == 0 {
		h.send(ctx, userID, textNoVideosYet, mainMenu())
		return
	}
	h.send(ctx, userID, fmt.Sprintf(textConfirmedCount, count), mainMenu())
}

func (h *Handler) gotReason(ctx context.Context, userID int64, text string) {
	reason := strings.TrimSpace(text)
	if reason == "" {
		h.send(ctx, userID, textReasonEmpty, nil)
		return
	}
	if err := h.reminders.ReportNotSent(ctx, userID, h.today(), reason); err != nil {
		h.answerReminderError(ctx, userID, err)
		return
	}
	h.clearSession(ctx, userID)
	h.send(ctx, userID, textReasonSaved, mainMenu())
}

func (h *Handler) answerReminderError(ctx context.Context, userID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownUser):
		h.clearSession(ctx, userID)
		h.send(ctx, userID, textRegisterFirst, nil)
	case errors.Is(err, domain.ErrValidation):
		h.send(ctx, userID, textReasonEmpty, nil)
	default:
		h.logger.ErrorContext(ctx, "Reminder answer failed", "error", err, "user_id", userID)
		h.send(ctx, userID, textSomethingWentWrong, nil)
	}
}
