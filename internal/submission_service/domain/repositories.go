package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository stores registered drivers.
type UserRepository interface {
	// Upsert creates the user or updates the profile fields, keeping RegisteredAt.
	Upsert(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	ListAll(ctx context.Context) ([]*User, error)
	Delete(ctx context.Context, id int64) error
}

// SubmissionRepository owns daily status rows and video records. Every
// method is a single atomic statement.
type SubmissionRepository interface {
	Ensure(ctx context.Context, userID int64, date string) (*DailySubmission, error)
	// RecordVideo inserts the video and sets the day to SUBMITTED with no reason.
	RecordVideo(ctx context.Context, video *VideoRecord) (int64, error)
	// RecordReason sets the day to NOT_SUBMITTED with reason, whatever was there.
	RecordReason(ctx context.Context, userID int64, date, reason string) error
	CountVideos(ctx context.Context, userID int64, date string) (int, error)
	ListVideos(ctx context.Context, userID int64, date string) ([]*VideoRecord, error)
	// LatestLedgerRow returns the ledger row of the newest video of the day
	// that has one, or ErrNotFound.
	LatestLedgerRow(ctx context.Context, userID int64, date string) (int, error)
}

// OutboxRepository is the durable pending-delivery queue.
type OutboxRepository interface {
	Enqueue(ctx context.Context, entry *OutboxEntry) error
	// Claim leases up to limit unclaimed entries until now+lease.
	Claim(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*OutboxEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkFailed increments attempts, stores lastErr, releases the lease and
	// returns the new attempt count.
	MarkFailed(ctx context.Context, id uuid.UUID, lastErr string) (int, error)
	List(ctx context.Context, limit int) ([]*OutboxEntry, error)
}

// SessionRepository persists dialog positions.
type SessionRepository interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Clear(ctx context.Context, userID int64) error
}

// ReportRepository serves read-only report queries.
type ReportRepository interface {
	Roster(ctx context.Context, date string) ([]RosterEntry, error)
	Senders(ctx context.Context, date string) ([]SenderCount, error)
}
