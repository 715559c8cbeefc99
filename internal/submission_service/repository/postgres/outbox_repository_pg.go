package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

type PgOutboxRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPgOutboxRepository(db DBTX, logger *slog.Logger) *PgOutboxRepository {
	return &PgOutboxRepository{db: db, logger: logger.With("component", "outbox_repository_pg")}
}

const outboxColumns = `id, telegram_id, day, file_id, destination, caption,
	first_name, last_name, phone, car_plate, contact_handle,
	submitted_at, attempts, last_error, claimed_until, created_at`

func scanOutboxEntry(row pgx.Row) (*domain.OutboxEntry, error) {
	e := &domain.OutboxEntry{}
	err := row.Scan(
		&e.ID, &e.UserID, &e.Date, &e.MediaRef, &e.Destination, &e.Caption,
		&e.Contact.FirstName, &e.Contact.LastName, &e.Contact.Phone, &e.Contact.CarPlate, &e.Contact.Handle,
		&e.SubmittedAt, &e.Attempts, &e.LastError, &e.ClaimedUntil, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PgOutboxRepository) Enqueue(ctx context.Context, e *domain.OutboxEntry) error {
	query := `
		INSERT INTO pending_outbox (id, telegram_id, day, file_id, destination, caption,
			first_name, last_name, phone, car_plate, contact_handle,
			submitted_at, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.UserID, e.Date, e.MediaRef, e.Destination, e.Caption,
		e.Contact.FirstName, e.Contact.LastName, e.Contact.Phone, e.Contact.CarPlate, e.Contact.Handle,
		e.SubmittedAt, e.Attempts, e.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error enqueueing outbox entry", "error", err, "outbox_id", e.ID, "user_id", e.UserID)
		return fmt.Errorf("enqueue outbox entry: %w", err)
	}
	r.logger.InfoContext(ctx, "Outbox entry enqueued", "outbox_id", e.ID, "user_id", e.UserID)
	return nil
}

// Claim leases due entries. A lease that ran out (crashed drain) makes the
// entry claimable again; SKIP LOCKED keeps concurrent claims disjoint.
func (r *PgOutboxRepository) Claim(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*domain.OutboxEntry, error) {
	query := `
		WITH due AS (
			SELECT id
			FROM pending_outbox
			WHERE claimed_until IS NULL OR claimed_until < $1
			ORDER BY created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE pending_outbox po
		SET claimed_until = $3
		FROM due
		WHERE po.id = due.id
		RETURNING po.id, po.telegram_id, po.day, po.file_id, po.destination, po.caption,
			po.first_name, po.last_name, po.phone, po.car_plate, po.contact_handle,
			po.submitted_at, po.attempts, po.last_error, po.claimed_until, po.created_at`
	rows, err := r.db.Query(ctx, query, now, limit, now.Add(lease))
	if err != nil {
		r.logger.ErrorContext(ctx, "Error claiming outbox entries", "error", err)
		return nil, fmt.Errorf("claim outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.OutboxEntry
	for rows.Next() {
		e, err := scanOutboxEntry(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Error scanning claimed outbox entry", "error", err)
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}

	// UPDATE ... RETURNING does not keep the CTE order.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	if len(entries) > 0 {
		r.logger.InfoContext(ctx, "Claimed outbox entries", "count", len(entries))
	}
	return entries, nil
}

func (r *PgOutboxRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pending_outbox WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting outbox entry", "error", err, "outbox_id", id)
		return fmt.Errorf("delete outbox entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string) (int, error) {
	query := `
		UPDATE pending_outbox
		SET attempts = attempts + 1, last_error = $2, claimed_until = NULL
		WHERE id = $1
		RETURNING attempts`
	var attempts int
	if err := r.db.QueryRow(ctx, query, id, lastErr).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error marking outbox entry failed", "error", err, "outbox_id", id)
		return 0, fmt.Errorf("mark outbox entry failed: %w", err)
	}
	return attempts, nil
}

func (r *PgOutboxRepository) List(ctx context.Context, limit int) ([]*domain.OutboxEntry, error) {
	query := `SELECT ` + outboxColumns + ` FROM pending_outbox ORDER BY created_at ASC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.OutboxEntry
	for rows.Next() {
		e, err := scanOutboxEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
