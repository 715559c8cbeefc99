package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/deliveryproof/golang_services/internal/submission_service/app"
	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

var destinationPattern = regexp.MustCompile(`^\d+$`)

func (h *Handler) askDestination(ctx context.Context, userID int64) {
	if _, ok := h.requireUser(ctx, userID); !ok {
		return
	}
	h.saveSession(ctx, &domain.Session{UserID: userID, State: domain.DialogAwaitDestination})
	h.send(ctx, userID, textAskDestination, mainMenu())
}

func (h *Handler) gotDestination(ctx context.Context, sess *domain.Session, text string) {
	dest := strings.TrimSpace(text)
	if !destinationPattern.MatchString(dest) {
		h.send(ctx, sess.UserID, textBadDestination, nil)
		return
	}
	sess.Data.Destination = dest
	sess.State = domain.DialogAwaitVideo
	h.saveSession(ctx, sess)
	h.send(ctx, sess.UserID, textAskVideo, nil)
}

func (h *Handler) gotVideo(ctx context.Context, sess *domain.Session, msg *tgbotapi.Message) {
	userID := sess.UserID
	if msg.Video == nil {
		h.send(ctx, userID, textVideoExpected, nil)
		return
	}
	user, ok := h.requireUser(ctx, userID)
	if !ok {
		return
	}
	if sess.Data.Destination == "" {
		h.askDestination(ctx, userID)
		return
	}

	now := h.now()
	contact := domain.SnapshotOf(user, handleOf(msg.From))
	sub := domain.VideoSubmission{
		UserID:      userID,
		Date:        domain.DateOf(now, h.loc),
		Destination: sess.Data.Destination,
		MediaRef:    msg.Video.FileID,
		Caption:     app.BuildCaption(sess.Data.Destination, contact, now.In(h.loc)),
		Contact:     contact,
		SubmittedAt: now.UTC(),
	}
	res, err := h.videos.AcceptVideo(ctx, sub)
	if err != nil {
		h.logger.ErrorContext(ctx, "Video not accepted", "error", err, "user_id", userID)
		h.send(ctx, userID, textSomethingWentWrong, nil)
		return
	}

	switch res.Outcome {
	case app.AcceptQueued:
		h.send(ctx, userID, textVideoQueued, mainMenu())
	default:
		h.send(ctx, userID, textVideoDelivered, mainMenu())
	}

	h.saveSession(ctx, &domain.Session{UserID: userID, State: domain.DialogAwaitDestination})
	h.send(ctx, userID, textNextDestination, nil)
}

func (h *Handler) todayStatus(ctx context.Context, userID int64) {
	if _, ok := h.requireUser(ctx, userID); !ok {
		return
	}
	st, err := h.status.Today(ctx, userID, h.today())
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load today's status", "error", err, "user_id", userID)
		h.send(ctx, userID, textSomethingWentWrong, nil)
		return
	}
	text := fmt.Sprintf(textStatusHeader, st.Date, st.VideoCount)
	if st.VideoCount == 0 {
		reason := textReasonNotProvided
		if st.Reason != nil && *st.Reason != "" {
			reason = *st.Reason
		}
		text += fmt.Sprintf(textStatusReason, reason)
	}
	h.send(ctx, userID, text, mainMenu())
}
