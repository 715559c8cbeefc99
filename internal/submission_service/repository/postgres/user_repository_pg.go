package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

type PgUserRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPgUserRepository(db DBTX, logger *slog.Logger) *PgUserRepository {
	return &PgUserRepository{db: db, logger: logger.With("component", "user_repository_pg")}
}

// Upsert registers the user or refreshes the profile. RegisteredAt is set
// from the stored row.
func (r *PgUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (telegram_id, first_name, last_name, phone, car_plate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (telegram_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    phone = EXCLUDED.phone,
		    car_plate = EXCLUDED.car_plate,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at`
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Phone, user.CarPlate, now,
	).Scan(&user.RegisteredAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting user", "error", err, "user_id", user.ID)
		return fmt.Errorf("upsert user %d: %w", user.ID, err)
	}
	r.logger.InfoContext(ctx, "User upserted", "user_id", user.ID)
	return nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT telegram_id, first_name, last_name, phone, car_plate, created_at FROM users WHERE telegram_id = $1`
	u := &domain.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Phone, &u.CarPlate, &u.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting user", "error", err, "user_id", id)
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *PgUserRepository) ListAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT telegram_id, first_name, last_name, phone, car_plate, created_at FROM users ORDER BY last_name, first_name, telegram_id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing users", "error", err)
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Phone, &u.CarPlate, &u.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

const deleteUserQuery = `
	WITH gone AS (
		DELETE FROM users WHERE telegram_id = $1
		RETURNING telegram_id
	), queued AS (
		DELETE FROM pending_outbox WHERE telegram_id IN (SELECT telegram_id FROM gone)
	), session AS (
		DELETE FROM sessions WHERE telegram_id IN (SELECT telegram_id FROM gone)
	)
	SELECT COUNT(*)::int FROM gone`

// Delete removes the user together with their queued videos and session in
// one statement; daily rows go by cascade. Recorded videos are kept as
// history.
func (r *PgUserRepository) Delete(ctx context.Context, id int64) error {
	var n int
	if err := r.db.QueryRow(ctx, deleteUserQuery, id).Scan(&n); err != nil {
		r.logger.ErrorContext(ctx, "Error deleting user", "error", err, "user_id", id)
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	r.logger.InfoContext(ctx, "User deleted", "user_id", id)
	return nil
}
