package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

type PgSessionRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPgSessionRepository(db DBTX, logger *slog.Logger) *PgSessionRepository {
	return &PgSessionRepository{db: db, logger: logger.With("component", "session_repository_pg")}
}

// Get returns the stored session, or an idle one when none exists.
func (r *PgSessionRepository) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	s := &domain.Session{UserID: userID}
	var state string
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT state, data, updated_at FROM sessions WHERE telegram_id = $1`, userID).
		Scan(&state, &data, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.State = domain.DialogIdle
			return s, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	s.State = domain.DialogState(state)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.Data); err != nil {
			r.logger.WarnContext(ctx, "Discarding unreadable session data", "error", err, "user_id", userID)
			s.Data = domain.SessionData{}
		}
	}
	return s, nil
}

func (r *PgSessionRepository) Save(ctx context.Context, s *domain.Session) error {
	data, err := json.Marshal(s.Data)
	if err != nil {
		return fmt.Errorf("marshal session data: %w", err)
	}
	s.UpdatedAt = time.Now().UTC()
	query := `
		INSERT INTO sessions (telegram_id, state, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE
		SET state = EXCLUDED.state, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.Exec(ctx, query, s.UserID, string(s.State), data, s.UpdatedAt); err != nil {
		r.logger.ErrorContext(ctx, "Error saving session", "error", err, "user_id", s.UserID)
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *PgSessionRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE telegram_id = $1`, userID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
