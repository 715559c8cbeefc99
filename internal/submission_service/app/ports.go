package app

import (
	"context"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// Broadcaster posts videos to the supervisory chat. Errors are always
// retryable; implementations must not retry themselves.
type Broadcaster interface {
	Deliver(ctx context.Context, mediaRef, caption string) (domain.DeliveryHandle, error)
	Permalink(h domain.DeliveryHandle) string
}

// Ledger is the external append-and-patch sheet.
type Ledger interface {
	AppendVideoRow(ctx context.Context, row domain.LedgerVideoRow) (int, error)
	AppendReminderEvent(ctx context.Context, row domain.LedgerReminderRow) (int, error)
	PatchReminderAction(ctx context.Context, row int, action domain.ReminderAction) error
	PatchReason(ctx context.Context, row int, reason string) error
}

// Notifier sends chat messages to users and to the group.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	// SendReminder sends text with the Sent / Not sent answer buttons.
	SendReminder(ctx context.Context, chatID int64, text string) error
}

// EventPublisher is satisfied by *messagebroker.NATSClient.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}
