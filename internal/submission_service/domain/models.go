package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the storage format of submission dates.
const DateLayout = "2006-01-02"

// DateOf formats t as a submission date in loc.
func DateOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// SubmissionStatus is the per-user, per-day state.
type SubmissionStatus string

const (
	StatusPending      SubmissionStatus = "PENDING"
	StatusSubmitted    SubmissionStatus = "SUBMITTED"     // set only by a recorded video
	StatusNotSubmitted SubmissionStatus = "NOT_SUBMITTED" // set only by a recorded reason
)

// User is a registered driver. ID is the Telegram user id.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name" validate:"required,max=64"`
	LastName     string    `json:"last_name" validate:"required,max=64"`
	Phone        string    `json:"phone" validate:"required,max=32"`
	CarPlate     string    `json:"car_plate" validate:"required,min=5,max=16"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DailySubmission is keyed by (UserID, Date).
type DailySubmission struct {
	UserID int64            `json:"user_id"`
	Date   string           `json:"date"`
	Status SubmissionStatus `json:"status"`
	Reason *string          `json:"reason,omitempty"`
}

// VideoRecord is an accepted and delivered video. Append-only.
type VideoRecord struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Date        string    `json:"date"`
	Destination string    `json:"destination"`
	MediaRef    string    `json:"media_ref"`
	LedgerRow   *int      `json:"ledger_row,omitempty"` // never reassigned once set
	SubmittedAt time.Time `json:"submitted_at"`
}

// ContactSnapshot freezes the sender's profile at acceptance time.
type ContactSnapshot struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	CarPlate  string `json:"car_plate"`
	Handle    string `json:"handle,omitempty"` // @username, may be empty
}

// SnapshotOf copies the mutable profile fields of u.
func SnapshotOf(u *User, handle string) ContactSnapshot {
	return ContactSnapshot{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		CarPlate:  u.CarPlate,
		Handle:    handle,
	}
}

// VideoSubmission carries everything needed to deliver and record a video
// without re-reading user state.
type VideoSubmission struct {
	UserID      int64           `json:"user_id" validate:"required"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	Destination string          `json:"destination" validate:"required,max=64"`
	MediaRef    string          `json:"media_ref" validate:"required"`
	Caption     string          `json:"caption"`
	Contact     ContactSnapshot `json:"contact"`
	SubmittedAt time.Time       `json:"submitted_at" validate:"required"`
}

// OutboxEntry is a video durably accepted but not yet delivered.
type OutboxEntry struct {
	ID uuid.UUID `json:"id"`
	VideoSubmission
	Attempts     int        `json:"attempts"`
	LastError    *string    `json:"last_error,omitempty"`
	ClaimedUntil *time.Time `json:"claimed_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewOutboxEntry wraps sub into a fresh entry with zero attempts.
func NewOutboxEntry(id uuid.UUID, sub VideoSubmission) *OutboxEntry {
	return &OutboxEntry{
		ID:              id,
		VideoSubmission: sub,
		Attempts:        0,
		CreatedAt:       time.Now().UTC(),
	}
}

// DeliveryHandle identifies a message posted to the broadcast chat.
type DeliveryHandle struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}
