package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// PgSubmissionRepository keeps daily status rows and videos. Every write is
// one statement so a failure never leaves a half-updated day.
type PgSubmissionRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPgSubmissionRepository(db DBTX, logger *slog.Logger) *PgSubmissionRepository {
	return &PgSubmissionRepository{db: db, logger: logger.With("component", "submission_repository_pg")}
}

// ensureDailyQuery locks the existing row instead of skipping it, so a
// concurrent insert of the same key is waited for and its row returned.
const ensureDailyQuery = `
	INSERT INTO daily_submissions (telegram_id, day, status)
	VALUES ($1, $2, $3)
	ON CONFLICT (telegram_id, day) DO UPDATE
	SET telegram_id = EXCLUDED.telegram_id
	RETURNING status, reason`

func (r *PgSubmissionRepository) Ensure(ctx context.Context, userID int64, date string) (*domain.DailySubmission, error) {
	ds := &domain.DailySubmission{UserID: userID, Date: date}
	var status string
	err := r.db.QueryRow(ctx, ensureDailyQuery, userID, date, domain.StatusPending).Scan(&status, &ds.Reason)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error ensuring daily row", "error", err, "user_id", userID, "date", date)
		return nil, fmt.Errorf("ensure daily row: %w", err)
	}
	ds.Status = domain.SubmissionStatus(status)
	return ds, nil
}

const recordVideoQuery = `
	WITH daily AS (
		INSERT INTO daily_submissions (telegram_id, day, status, reason, updated_at)
		VALUES ($1, $2, $3, NULL, NOW())
		ON CONFLICT (telegram_id, day) DO UPDATE
		SET status = EXCLUDED.status, reason = NULL, updated_at = NOW()
	)
	INSERT INTO videos (telegram_id, day, file_id, destination, submitted_at, ledger_row)
	VALUES ($1, $2, $4, $5, $6, $7)
	RETURNING id`

func (r *PgSubmissionRepository) RecordVideo(ctx context.Context, v *domain.VideoRecord) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, recordVideoQuery,
		v.UserID, v.Date, domain.StatusSubmitted, v.MediaRef, v.Destination, v.SubmittedAt, v.LedgerRow,
	).Scan(&id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error recording video", "error", err, "user_id", v.UserID, "date", v.Date)
		return 0, fmt.Errorf("record video: %w", err)
	}
	v.ID = id
	r.logger.InfoContext(ctx, "Video recorded", "video_id", id, "user_id", v.UserID, "date", v.Date)
	return id, nil
}

const recordReasonQuery = `
	INSERT INTO daily_submissions (telegram_id, day, status, reason, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (telegram_id, day) DO UPDATE
	SET status = EXCLUDED.status, reason = EXCLUDED.reason, updated_at = NOW()`

func (r *PgSubmissionRepository) RecordReason(ctx context.Context, userID int64, date, reason string) error {
	if _, err := r.db.Exec(ctx, recordReasonQuery, userID, date, domain.StatusNotSubmitted, reason); err != nil {
		r.logger.ErrorContext(ctx, "Error recording reason", "error", err, "user_id", userID, "date", date)
		return fmt.Errorf("record reason: %w", err)
	}
	r.logger.InfoContext(ctx, "Reason recorded", "user_id", userID, "date", date)
	return nil
}

func (r *PgSubmissionRepository) CountVideos(ctx context.Context, userID int64, date string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*)::int FROM videos WHERE telegram_id = $1 AND day = $2`, userID, date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}

func (r *PgSubmissionRepository) ListVideos(ctx context.Context, userID int64, date string) ([]*domain.VideoRecord, error) {
	query := `
		SELECT id, telegram_id, day, destination, file_id, ledger_row, submitted_at
		FROM videos
		WHERE telegram_id = $1 AND day = $2
		ORDER BY submitted_at, id`
	rows, err := r.db.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*domain.VideoRecord
	for rows.Next() {
		v := &domain.VideoRecord{}
		if err := rows.Scan(&v.ID, &v.UserID, &v.Date, &v.Destination, &v.MediaRef, &v.LedgerRow, &v.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

const latestLedgerRowQuery = `
	SELECT ledger_row FROM videos
	WHERE telegram_id = $1 AND day = $2 AND ledger_row IS NOT NULL
	ORDER BY submitted_at DESC, id DESC
	LIMIT 1`

func (r *PgSubmissionRepository) LatestLedgerRow(ctx context.Context, userID int64, date string) (int, error) {
	var row int
	err := r.db.QueryRow(ctx, latestLedgerRowQuery, userID, date).Scan(&row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("latest ledger row: %w", err)
	}
	return row, nil
}
