package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

const reminderText = "🎥 Did you send today's delivery video?"

// FanOutStats counts one reminder run.
type FanOutStats struct {
	Recipients int
	Sent       int
	Failed     int
}

// ReminderService sends reminders and correlates the answers with the
// status machine and the ledger.
type ReminderService struct {
	users    domain.UserRepository
	subs     domain.SubmissionRepository
	status   *StatusMachine
	ledger   Ledger
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewReminderService(
	users domain.UserRepository,
	subs domain.SubmissionRepository,
	status *StatusMachine,
	ledger Ledger,
	notifier Notifier,
	logger *slog.Logger,
) *ReminderService {
	return &ReminderService{
		users:    users,
		subs:     subs,
		status:   status,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger.With("component", "reminder_service"),
		now:      time.Now,
	}
}

// FanOut reminds every registered user, one after another. A failing
// recipient is counted and skipped, never retried within the run.
func (s *ReminderService) FanOut(ctx context.Context, date string) (FanOutStats, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return FanOutStats{}, fmt.Errorf("list users for reminders: %w", err)
	}

	stats := FanOutStats{Recipients: len(users)}
	for _, u := range users {
		if ctx.Err() != nil {
			break
		}
		if err := s.remind(ctx, u.ID, date); err != nil {
			stats.Failed++
			remoteCallCounter.WithLabelValues("notify.reminder", "error").Inc()
			s.logger.WarnContext(ctx, "Reminder not delivered", "user_id", u.ID, "error", err)
			continue
		}
		stats.Sent++
		remoteCallCounter.WithLabelValues("notify.reminder", "ok").Inc()
	}
	s.logger.InfoContext(ctx, "Reminder run finished", "date", date,
		"recipients", stats.Recipients, "sent", stats.Sent, "failed", stats.Failed)
	return stats, nil
}

func (s *ReminderService) remind(ctx context.Context, userID int64, date string) error {
	if _, err := s.status.Ensure(ctx, userID, date); err != nil {
		return err
	}
	return s.notifier.SendReminder(ctx, userID, reminderText)
}

// ConfirmSent handles a "sent" answer and returns the day's video count.
func (s *ReminderService) ConfirmSent(ctx context.Context, userID int64, date string) (int, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if _, err := s.status.Ensure(ctx, userID, date); err != nil {
		return 0, err
	}

	s.correlate(ctx, user, date, domain.ActionSent, "")

	count, err := s.subs.CountVideos(ctx, userID, date)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ReportNotSent records the reason and mirrors it to the ledger.
func (s *ReminderService) ReportNotSent(ctx context.Context, userID int64, date, reason string) error {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.status.RecordReason(ctx, userID, date, reason); err != nil {
		return err
	}
	s.correlate(ctx, user, date, domain.ActionNotSent, reason)
	return nil
}

// correlate writes the standalone event row, then patches the newest video
// row of the day when there is one. Both steps are best-effort.
func (s *ReminderService) correlate(ctx context.Context, user *domain.User, date string, action domain.ReminderAction, reason string) {
	bestEffort(ctx, s.logger, "ledger.append_reminder", func() error {
		_, err := s.ledger.AppendReminderEvent(ctx, domain.LedgerReminderRow{
			Timestamp: s.now(),
			Date:      date,
			Contact:   domain.SnapshotOf(user, ""),
			Action:    action,
			Reason:    reason,
		})
		return err
	}, "user_id", user.ID)

	row, err := s.subs.LatestLedgerRow(ctx, user.ID, date)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "Could not look up latest ledger row", "error", err, "user_id", user.ID)
		}
		return
	}

	bestEffort(ctx, s.logger, "ledger.patch_action", func() error {
		return s.ledger.PatchReminderAction(ctx, row, action)
	}, "user_id", user.ID, "row", row)
	if action == domain.ActionNotSent {
		bestEffort(ctx, s.logger, "ledger.patch_reason", func() error {
			return s.ledger.PatchReason(ctx, row, reason)
		}, "user_id", user.ID, "row", row)
	}
}

func (s *ReminderService) requireUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownUser
		}
		return nil, err
	}
	return user, nil
}
