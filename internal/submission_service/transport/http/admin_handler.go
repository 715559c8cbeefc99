package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/deliveryproof/golang_services/internal/submission_service/app"
	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

const defaultOutboxLimit = 100

// ReportReader is satisfied by *app.ReportAggregator.
type ReportReader interface {
	Roster(ctx context.Context, date string) ([]domain.RosterEntry, error)
	Senders(ctx context.Context, date string) (domain.SendersSummary, error)
}

// OutboxAdmin is satisfied by *app.OutboxQueue.
type OutboxAdmin interface {
	Pending(ctx context.Context, limit int) ([]*domain.OutboxEntry, error)
	Drain(ctx context.Context) (app.DrainStats, error)
}

// VideoReader is satisfied by *app.StatusMachine.
type VideoReader interface {
	Videos(ctx context.Context, userID int64, date string) ([]*domain.VideoRecord, error)
}

// UserAdmin is satisfied by *app.UserService.
type UserAdmin interface {
	DeleteUser(ctx context.Context, id int64) error
}

type AdminHandler struct {
	reports  ReportReader
	outbox   OutboxAdmin
	videos   VideoReader
	users    UserAdmin
	loc      *time.Location
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

func NewAdminHandler(reports ReportReader, outbox OutboxAdmin, videos VideoReader, users UserAdmin, loc *time.Location, validate *validator.Validate, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		reports:  reports,
		outbox:   outbox,
		videos:   videos,
		users:    users,
		loc:      loc,
		validate: validate,
		logger:   logger.With("component", "admin_http"),
		now:      time.Now,
	}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/roster", h.GetRoster)
	r.Get("/reports/senders", h.GetSenders)
	r.Get("/outbox", h.ListOutbox)
	r.Post("/outbox/drain", h.DrainOutbox)
	r.Get("/users/{userID}/videos", h.ListVideos)
	r.Delete("/users/{userID}", h.DeleteUser)
}

// reportDate reads ?date=YYYY-MM-DD, defaulting to today.
func (h *AdminHandler) reportDate(r *http.Request) (string, error) {
	q := reportQuery{Date: r.URL.Query().Get("date")}
	if err := h.validate.StructCtx(r.Context(), q); err != nil {
		return "", err
	}
	if q.Date == "" {
		return domain.DateOf(h.now(), h.loc), nil
	}
	return q.Date, nil
}

func (h *AdminHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := h.reportDate(r)
	if err != nil {
		h.logger.WarnContext(ctx, "Validation failed for GetRoster", "error", err)
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	rows, err := h.reports.Roster(ctx, date)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to build roster", "error", err, "date", date)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, toRosterDTO(date, rows))
}

func (h *AdminHandler) GetSenders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := h.reportDate(r)
	if err != nil {
		h.logger.WarnContext(ctx, "Validation failed for GetSenders", "error", err)
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	summary, err := h.reports.Senders(ctx, date)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to build senders summary", "error", err, "date", date)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, toSendersDTO(summary))
}

func (h *AdminHandler) ListOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := outboxQuery{Limit: defaultOutboxLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "limit must be a number", http.StatusBadRequest)
			return
		}
		q.Limit = n
	}
	if err := h.validate.StructCtx(ctx, q); err != nil {
		h.logger.WarnContext(ctx, "Validation failed for ListOutbox", "error", err)
		http.Error(w, fmt.Sprintf("Validation error: %s", err.Error()), http.StatusBadRequest)
		return
	}

	entries, err := h.outbox.Pending(ctx, q.Limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list outbox", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, map[string]any{"entries": toOutboxDTOs(entries)})
}

func (h *AdminHandler) DrainOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.outbox.Drain(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Manual outbox drain failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.logger.InfoContext(ctx, "Manual outbox drain", "subject", ctx.Value(AdminSubjectContextKey), "delivered", stats.Delivered)
	h.writeJSON(ctx, w, http.StatusOK, stats)
}

func (h *AdminHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := app.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "userID must contain digits only", http.StatusBadRequest)
		return
	}
	date, err := h.reportDate(r)
	if err != nil {
		h.logger.WarnContext(ctx, "Validation failed for ListVideos", "error", err)
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	videos, err := h.videos.Videos(ctx, id, date)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list videos", "error", err, "user_id", id, "date", date)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, toVideosDTO(id, date, videos))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := app.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "userID must contain digits only", http.StatusBadRequest)
		return
	}
	if err := h.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete user", "error", err, "user_id", id)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.ErrorContext(ctx, "Failed to encode response", "error", err)
	}
}
