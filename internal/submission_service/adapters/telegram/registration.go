package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/deliveryproof/golang_services/internal/submission_service/app"
	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

const minPlateLength = 5

func (h *Handler) start(ctx context.Context, userID int64) {
	h.clearSession(ctx, userID)
	_, err := h.users.Require(ctx, userID)
	switch {
	case err == nil:
		h.send(ctx, userID, textMainMenu, mainMenu())
	case errors.Is(err, domain.ErrUnknownUser):
		h.guide(ctx, userID, nil)
		h.send(ctx, userID, textContinue, onboardingKeyboard())
	default:
		h.logger.ErrorContext(ctx, "Failed to load user on start", "error", err, "user_id", userID)
		h.send(ctx, userID, textSomethingWentWrong, nil)
	}
}

func (h *Handler) continueRegistration(ctx context.Context, sess *domain.Session, msg *tgbotapi.Message) {
	userID := sess.UserID
	text := strings.TrimSpace(msg.Text)

	switch sess.State {
	case domain.DialogAwaitFirstName:
		if text == "" {
			h.send(ctx, userID, textAskFirstName, nil)
			return
		}
		sess.Data.FirstName = text
		sess.State = domain.DialogAwaitLastName
		h.saveSession(ctx, sess)
		h.send(ctx, userID, textAskLastName, nil)

	case domain.DialogAwaitLastName:
		if text == "" {
			h.send(ctx, userID, textAskLastName, nil)
			return
		}
		sess.Data.LastName = text
		sess.State = domain.DialogAwaitPhone
		h.saveSession(ctx, sess)
		h.send(ctx, userID, textAskPhone, contactKeyboard())

	case domain.DialogAwaitPhone:
		if msg.Contact == nil || msg.Contact.PhoneNumber == "" {
			h.send(ctx, userID, textPhoneButtonOnly, contactKeyboard())
			return
		}
		sess.Data.Phone = msg.Contact.PhoneNumber
		sess.State = domain.DialogAwaitPlate
		h.saveSession(ctx, sess)
		h.send(ctx, userID, textAskPlate, tgbotapi.NewRemoveKeyboard(true))

	case domain.DialogAwaitPlate:
		plate := app.NormalizePlate(text)
		if len(plate) < minPlateLength {
			h.send(ctx, userID, textBadPlate, nil)
			return
		}
		user := &domain.User{
			ID:        userID,
			FirstName: sess.Data.FirstName,
			LastName:  sess.Data.LastName,
			Phone:     sess.Data.Phone,
			CarPlate:  plate,
		}
		if err := h.users.Register(ctx, user); err != nil {
			if errors.Is(err, domain.ErrValidation) {
				h.send(ctx, userID, textBadPlate, nil)
				return
			}
			h.logger.ErrorContext(ctx, "Registration failed", "error", err, "user_id", userID)
			h.send(ctx, userID, textSomethingWentWrong, nil)
			return
		}
		h.clearSession(ctx, userID)
		h.send(ctx, userID, fmt.Sprintf(textRegistered, user.FirstName, user.LastName, user.Phone, user.CarPlate), mainMenu())
	}
}
