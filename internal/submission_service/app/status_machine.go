package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// StatusMachine owns the per-user, per-day status transitions:
// PENDING -> SUBMITTED, PENDING/SUBMITTED -> NOT_SUBMITTED, NOT_SUBMITTED -> SUBMITTED.
type StatusMachine struct {
	subs   domain.SubmissionRepository
	logger *slog.Logger
}

func NewStatusMachine(subs domain.SubmissionRepository, logger *slog.Logger) *StatusMachine {
	return &StatusMachine{subs: subs, logger: logger.With("component", "status_machine")}
}

// Ensure creates the day row if needed and returns its current state.
func (m *StatusMachine) Ensure(ctx context.Context, userID int64, date string) (*domain.DailySubmission, error) {
	return m.subs.Ensure(ctx, userID, date)
}

// RecordVideo appends the video and marks the day SUBMITTED, clearing any reason.
func (m *StatusMachine) RecordVideo(ctx context.Context, v *domain.VideoRecord) error {
	if _, err := m.subs.RecordVideo(ctx, v); err != nil {
		return fmt.Errorf("record video for user %d on %s: %w", v.UserID, v.Date, err)
	}
	return nil
}

// RecordReason marks the day NOT_SUBMITTED with text, even when videos exist.
func (m *StatusMachine) RecordReason(ctx context.Context, userID int64, date, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: reason must not be empty", domain.ErrValidation)
	}
	if err := m.subs.RecordReason(ctx, userID, date, text); err != nil {
		return fmt.Errorf("record reason for user %d on %s: %w", userID, date, err)
	}
	m.logger.InfoContext(ctx, "Day marked not submitted", "user_id", userID, "date", date)
	return nil
}

// DayStatus is the "today's status" view of one user.
type DayStatus struct {
	Date       string
	VideoCount int
	Status     domain.SubmissionStatus
	Reason     *string
}

func (m *StatusMachine) Today(ctx context.Context, userID int64, date string) (DayStatus, error) {
	ds, err := m.subs.Ensure(ctx, userID, date)
	if err != nil {
		return DayStatus{}, err
	}
	n, err := m.subs.CountVideos(ctx, userID, date)
	if err != nil {
		return DayStatus{}, err
	}
	return DayStatus{Date: date, VideoCount: n, Status: ds.Status, Reason: ds.Reason}, nil
}

// Videos lists the recorded videos of one user and day, oldest first.
func (m *StatusMachine) Videos(ctx context.Context, userID int64, date string) ([]*domain.VideoRecord, error) {
	videos, err := m.subs.ListVideos(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list videos for user %d on %s: %w", userID, date, err)
	}
	return videos, nil
}
