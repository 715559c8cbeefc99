package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

type PgReportRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPgReportRepository(db DBTX, logger *slog.Logger) *PgReportRepository {
	return &PgReportRepository{db: db, logger: logger.With("component", "report_repository_pg")}
}

const rosterQuery = `
	SELECT u.telegram_id, u.first_name, u.last_name,
	       COALESCE(v.cnt, 0) AS video_count,
	       COALESCE(d.status, 'PENDING') AS status,
	       d.reason
	FROM users u
	LEFT JOIN (
		SELECT telegram_id, COUNT(*)::int AS cnt
		FROM videos
		WHERE day = $1
		GROUP BY telegram_id
	) v ON v.telegram_id = u.telegram_id
	LEFT JOIN daily_submissions d ON d.telegram_id = u.telegram_id AND d.day = $1
	ORDER BY u.last_name, u.first_name, u.telegram_id`

// Roster lists every registered user with the day's video count and status.
func (r *PgReportRepository) Roster(ctx context.Context, date string) ([]domain.RosterEntry, error) {
	rows, err := r.db.Query(ctx, rosterQuery, date)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error querying roster", "error", err, "date", date)
		return nil, fmt.Errorf("roster query: %w", err)
	}
	defer rows.Close()

	var out []domain.RosterEntry
	for rows.Next() {
		var e domain.RosterEntry
		var status string
		if err := rows.Scan(&e.UserID, &e.FirstName, &e.LastName, &e.VideoCount, &status, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		e.Status = domain.SubmissionStatus(status)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster rows: %w", err)
	}
	return out, nil
}

const sendersQuery = `
	SELECT u.telegram_id, u.first_name, u.last_name, COUNT(v.id)::int AS video_count
	FROM users u
	JOIN videos v ON v.telegram_id = u.telegram_id AND v.day = $1
	GROUP BY u.telegram_id, u.first_name, u.last_name
	ORDER BY u.last_name, u.first_name, u.telegram_id`

// Senders lists users with at least one video on date.
func (r *PgReportRepository) Senders(ctx context.Context, date string) ([]domain.SenderCount, error) {
	rows, err := r.db.Query(ctx, sendersQuery, date)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error querying senders", "error", err, "date", date)
		return nil, fmt.Errorf("senders query: %w", err)
	}
	defer rows.Close()

	var out []domain.SenderCount
	for rows.Next() {
		var s domain.SenderCount
		if err := rows.Scan(&s.UserID, &s.FirstName, &s.LastName, &s.VideoCount); err != nil {
			return nil, fmt.Errorf("scan senders row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate senders rows: %w", err)
	}
	return out, nil
}
