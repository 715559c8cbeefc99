package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/deliveryproof/golang_services/internal/submission_service/app"
	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// UserDirectory is satisfied by *app.UserService.
type UserDirectory interface {
	Register(ctx context.Context, u *domain.User) error
	Require(ctx context.Context, id int64) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// VideoIntake is satisfied by *app.OutboxQueue.
type VideoIntake interface {
	AcceptVideo(ctx context.Context, sub domain.VideoSubmission) (app.AcceptResult, error)
}

// DayStatusReader is satisfied by *app.StatusMachine.
type DayStatusReader interface {
	Today(ctx context.Context, userID int64, date string) (app.DayStatus, error)
}

// ReminderAnswers is satisfied by *app.ReminderService.
type ReminderAnswers interface {
	ConfirmSent(ctx context.Context, userID int64, date string) (int, error)
	ReportNotSent(ctx context.Context, userID int64, date, reason string) error
}

type HandlerConfig struct {
	AdminIDs []int64
	Location *time.Location

	// TutorialVideoID is a Telegram file id sent before the rules; empty skips it.
	TutorialVideoID string
}

// Handler drives the bot dialog. Updates are handled one at a time, so a
// user's messages are always seen in order.
type Handler struct {
	client    *Client
	users     UserDirectory
	videos    VideoIntake
	status    DayStatusReader
	reminders ReminderAnswers
	sessions  domain.SessionRepository
	admins    map[int64]struct{}
	loc       *time.Location
	tutorial  string
	logger    *slog.Logger
	now       func() time.Time
}

func NewHandler(
	client *Client,
	users UserDirectory,
	videos VideoIntake,
	status DayStatusReader,
	reminders ReminderAnswers,
	sessions domain.SessionRepository,
	cfg HandlerConfig,
	logger *slog.Logger,
) *Handler {
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		client:    client,
		users:     users,
		videos:    videos,
		status:    status,
		reminders: reminders,
		sessions:  sessions,
		admins:    admins,
		loc:       loc,
		tutorial:  cfg.TutorialVideoID,
		logger:    logger.With("component", "telegram_handler"),
		now:       time.Now,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) error {
	updates := h.client.Updates(60)
	h.logger.InfoContext(ctx, "Telegram update loop started")
	for {
		select {
		case <-ctx.Done():
			h.client.StopUpdates()
			h.logger.InfoContext(ctx, "Telegram update loop stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		h.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		h.handleMessage(ctx, upd.Message)
	}
}

func (h *Handler) today() string {
	return domain.DateOf(h.now(), h.loc)
}

func (h *Handler) isAdmin(id int64) bool {
	_, ok := h.admins[id]
	return ok
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	if len(msg.NewChatMembers) > 0 {
		h.welcome(ctx, msg)
		return
	}
	if !msg.Chat.IsPrivate() {
		return
	}

	userID := msg.From.ID
	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.start(ctx, userID)
			return
		case "cancel":
			h.clearSession(ctx, userID)
			h.send(ctx, userID, textCancelled, mainMenu())
			return
		case "delete":
			h.deleteUser(ctx, userID, msg.CommandArguments())
			return
		}
	}

	sess, err := h.sessions.Get(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load session", "error", err, "user_id", userID)
		h.send(ctx, userID, textSomethingWentWrong, nil)
		return
	}

	if !inRegistration(sess.State) {
		switch msg.Text {
		case buttonSendVideo:
			h.askDestination(ctx, userID)
			return
		case buttonTodayStatus:
			h.clearSession(ctx, userID)
			h.todayStatus(ctx, userID)
			return
		case buttonGuide:
			h.clearSession(ctx, userID)
			h.guide(ctx, userID, mainMenu())
			return
		}
	}

	switch sess.State {
	case domain.DialogAwaitFirstName, domain.DialogAwaitLastName, domain.DialogAwaitPhone, domain.DialogAwaitPlate:
		h.continueRegistration(ctx, sess, msg)
	case domain.DialogAwaitDestination:
		h.gotDestination(ctx, sess, msg.Text)
	case domain.DialogAwaitVideo:
		h.gotVideo(ctx, sess, msg)
	case domain.DialogAwaitReason:
		h.gotReason(ctx, userID, msg.Text)
	default:
		if msg.Video != nil {
			h.send(ctx, userID, textVideoWithoutFlow, mainMenu())
		}
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}
	userID := cb.From.ID
	defer func() {
		if err := h.client.AnswerCallback(ctx, cb.ID, ""); err != nil {
			h.logger.WarnContext(ctx, "Failed to answer callback", "error", err, "user_id", userID)
		}
	}()

	switch cb.Data {
	case callbackOnboarded:
		h.saveSession(ctx, &domain.Session{UserID: userID, State: domain.DialogAwaitFirstName})
		h.send(ctx, userID, textAskFirstName, nil)
	case callbackReminderYes:
		h.confirmSent(ctx, userID)
	case callbackReminderNo:
		if _, ok := h.requireUser(ctx, userID); !ok {
			return
		}
		h.saveSession(ctx, &domain.Session{UserID: userID, State: domain.DialogAwaitReason})
		h.send(ctx, userID, textAskReason, nil)
	default:
		h.logger.DebugContext(ctx, "Unknown callback data", "data", cb.Data, "user_id", userID)
	}
}

// requireUser answers "register first" and returns false for unknown users.
func (h *Handler) requireUser(ctx context.Context, userID int64) (*domain.User, bool) {
	user, err := h.users.Require(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownUser) {
			h.clearSession(ctx, userID)
			h.send(ctx, userID, textRegisterFirst, nil)
			return nil, false
		}
		h.logger.ErrorContext(ctx, "Failed to load user", "error", err, "user_id", userID)
		h.send(ctx, userID, textSomethingWentWrong, nil)
		return nil, false
	}
	return user, true
}

// guide sends the tutorial video, when configured, followed by the rules.
// A failed video never holds back the rules.
func (h *Handler) guide(ctx context.Context, userID int64, markup interface{}) {
	if h.tutorial != "" {
		if _, err := h.client.SendVideo(ctx, userID, h.tutorial, ""); err != nil {
			h.logger.WarnContext(ctx, "Failed to send tutorial video", "error", err, "user_id", userID)
		}
	}
	h.send(ctx, userID, textRules, markup)
}

func (h *Handler) send(ctx context.Context, chatID int64, text string, markup interface{}) {
	if err := h.client.reply(ctx, chatID, text, markup); err != nil {
		h.logger.WarnContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

func (h *Handler) saveSession(ctx context.Context, sess *domain.Session) {
	sess.UpdatedAt = h.now().UTC()
	if err := h.sessions.Save(ctx, sess); err != nil {
		h.logger.ErrorContext(ctx, "Failed to save session", "error", err, "user_id", sess.UserID, "state", sess.State)
	}
}

func (h *Handler) clearSession(ctx context.Context, userID int64) {
	if err := h.sessions.Clear(ctx, userID); err != nil {
		h.logger.ErrorContext(ctx, "Failed to clear session", "error", err, "user_id", userID)
	}
}

func inRegistration(s domain.DialogState) bool {
	switch s {
	case domain.DialogAwaitFirstName, domain.DialogAwaitLastName, domain.DialogAwaitPhone, domain.DialogAwaitPlate:
		return true
	}
	return false
}

func handleOf(u *tgbotapi.User) string {
	if u == nil || u.UserName == "" {
		return ""
	}
	return "@" + u.UserName
}
