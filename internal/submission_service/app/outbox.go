package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// SubjectVideoDelivered carries a VideoDeliveredEvent for every video that
// reached the group.
const SubjectVideoDelivered = "submission.video.delivered"

// OutboxConfig holds the drain knobs.
type OutboxConfig struct {
	BatchSize   int           `mapstructure:"OUTBOX_BATCH_SIZE"`
	MaxAttempts int           `mapstructure:"OUTBOX_MAX_ATTEMPTS"`
	ClaimLease  time.Duration `mapstructure:"OUTBOX_CLAIM_LEASE"`
}

// AcceptOutcome tells the sender what happened to their video.
type AcceptOutcome string

const (
	AcceptDelivered AcceptOutcome = "delivered"
	AcceptQueued    AcceptOutcome = "queued"
)

type AcceptResult struct {
	Outcome   AcceptOutcome
	VideoID   int64     // set when delivered
	Permalink string    // set when delivered
	OutboxID  uuid.UUID // set when queued
	Ledger    domain.RemoteResult
}

// DrainStats summarises one drain run.
type DrainStats struct {
	Claimed   int `json:"claimed"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`

	// Unrecorded counts videos that reached the group but could not be
	// stored locally. Their entries are removed all the same.
	Unrecorded int `json:"unrecorded"`
}

// VideoDeliveredEvent is published on SubjectVideoDelivered.
type VideoDeliveredEvent struct {
	VideoID     int64     `json:"video_id"`
	UserID      int64     `json:"user_id"`
	Date        string    `json:"date"`
	Destination string    `json:"destination"`
	Permalink   string    `json:"permalink"`
	LedgerRow   *int      `json:"ledger_row,omitempty"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// OutboxQueue accepts videos durably and retries their delivery.
type OutboxQueue struct {
	outbox      domain.OutboxRepository
	status      *StatusMachine
	broadcaster Broadcaster
	ledger      Ledger
	events      EventPublisher // optional
	validate    *validator.Validate
	config      OutboxConfig
	logger      *slog.Logger
	now         func() time.Time
}

func NewOutboxQueue(
	outbox domain.OutboxRepository,
	status *StatusMachine,
	broadcaster Broadcaster,
	ledger Ledger,
	events EventPublisher,
	logger *slog.Logger,
	cfg OutboxConfig,
) *OutboxQueue {
	return &OutboxQueue{
		outbox:      outbox,
		status:      status,
		broadcaster: broadcaster,
		ledger:      ledger,
		events:      events,
		validate:    validator.New(),
		config:      cfg,
		logger:      logger.With("component", "outbox_queue"),
		now:         time.Now,
	}
}

// AcceptVideo tries an inline delivery and falls back to the outbox. A
// delivery failure is never returned; only a failed local write is.
func (q *OutboxQueue) AcceptVideo(ctx context.Context, sub domain.VideoSubmission) (AcceptResult, error) {
	if err := q.validate.StructCtx(ctx, sub); err != nil {
		return AcceptResult{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	handle, err := q.broadcaster.Deliver(ctx, sub.MediaRef, sub.Caption)
	if err != nil {
		q.logger.WarnContext(ctx, "Inline delivery failed, queueing video", "error", err, "user_id", sub.UserID, "date", sub.Date)
		entry := domain.NewOutboxEntry(uuid.New(), sub)
		if err := q.outbox.Enqueue(ctx, entry); err != nil {
			return AcceptResult{}, fmt.Errorf("queue video for user %d: %w", sub.UserID, err)
		}
		videosAcceptedCounter.WithLabelValues("queued").Inc()
		return AcceptResult{Outcome: AcceptQueued, OutboxID: entry.ID}, nil
	}

	video, ledgerRes, err := q.finalize(ctx, sub, handle)
	if err != nil {
		return AcceptResult{}, err
	}
	videosAcceptedCounter.WithLabelValues("inline").Inc()
	return AcceptResult{
		Outcome:   AcceptDelivered,
		VideoID:   video.ID,
		Permalink: q.broadcaster.Permalink(handle),
		Ledger:    ledgerRes,
	}, nil
}

// finalize runs after a confirmed delivery: ledger append (best-effort),
// then the local video record.
func (q *OutboxQueue) finalize(ctx context.Context, sub domain.VideoSubmission, handle domain.DeliveryHandle) (*domain.VideoRecord, domain.RemoteResult, error) {
	link := q.broadcaster.Permalink(handle)

	var row *int
	ledgerRes := bestEffort(ctx, q.logger, "ledger.append_video", func() error {
		n, err := q.ledger.AppendVideoRow(ctx, domain.LedgerVideoRow{
			Timestamp:   q.now(),
			Date:        sub.Date,
			Contact:     sub.Contact,
			Destination: sub.Destination,
			VideoLink:   link,
		})
		if err != nil {
			return err
		}
		row = &n
		return nil
	}, "user_id", sub.UserID)

	video := &domain.VideoRecord{
		UserID:      sub.UserID,
		Date:        sub.Date,
		Destination: sub.Destination,
		MediaRef:    sub.MediaRef,
		LedgerRow:   row,
		SubmittedAt: sub.SubmittedAt,
	}
	if err := q.status.RecordVideo(ctx, video); err != nil {
		return nil, ledgerRes, err
	}

	q.publishDelivered(ctx, video, link)
	return video, ledgerRes, nil
}

func (q *OutboxQueue) publishDelivered(ctx context.Context, v *domain.VideoRecord, link string) {
	if q.events == nil {
		return
	}
	payload, err := json.Marshal(VideoDeliveredEvent{
		VideoID:     v.ID,
		UserID:      v.UserID,
		Date:        v.Date,
		Destination: v.Destination,
		Permalink:   link,
		LedgerRow:   v.LedgerRow,
		DeliveredAt: q.now().UTC(),
	})
	if err != nil {
		q.logger.ErrorContext(ctx, "Failed to marshal delivered event", "error", err, "video_id", v.ID)
		return
	}
	if err := q.events.Publish(ctx, SubjectVideoDelivered, payload); err != nil {
		q.logger.WarnContext(ctx, "Failed to publish delivered event", "error", err, "video_id", v.ID)
	}
}

// Drain claims up to BatchSize entries and retries each one. An entry is
// deleted as soon as the group has the video, even when the local record
// fails, or once its attempts exceed MaxAttempts. A delivered video is never
// broadcast again.
func (q *OutboxQueue) Drain(ctx context.Context) (DrainStats, error) {
	timer := prometheus.NewTimer(outboxDrainDurationHist)
	defer timer.ObserveDuration()

	var stats DrainStats
	entries, err := q.outbox.Claim(ctx, q.now().UTC(), q.config.ClaimLease, q.config.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("claim outbox entries: %w", err)
	}
	if len(entries) == 0 {
		q.logger.DebugContext(ctx, "Outbox empty")
		return stats, nil
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			// Unprocessed claims become available again when their lease runs out.
			break
		}
		stats.Claimed++
		handle, err := q.broadcaster.Deliver(ctx, entry.MediaRef, entry.Caption)
		if err != nil {
			q.recordFailure(ctx, entry, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err), &stats)
			continue
		}

		_, _, finalizeErr := q.finalize(ctx, entry.VideoSubmission, handle)
		q.remove(ctx, entry)
		if finalizeErr != nil {
			stats.Unrecorded++
			outboxOutcomeCounter.WithLabelValues("unrecorded").Inc()
			q.logger.ErrorContext(ctx, "Outbox video delivered but not recorded locally",
				"error", finalizeErr, "outbox_id", entry.ID, "user_id", entry.UserID, "date", entry.Date,
				"permalink", q.broadcaster.Permalink(handle))
			continue
		}
		stats.Delivered++
		outboxOutcomeCounter.WithLabelValues("delivered").Inc()
		q.logger.InfoContext(ctx, "Outbox entry delivered", "outbox_id", entry.ID, "user_id", entry.UserID, "attempts", entry.Attempts)
	}

	q.logger.InfoContext(ctx, "Outbox drain finished",
		"claimed", stats.Claimed, "delivered", stats.Delivered, "failed", stats.Failed,
		"dropped", stats.Dropped, "unrecorded", stats.Unrecorded)
	return stats, nil
}

func (q *OutboxQueue) remove(ctx context.Context, entry *domain.OutboxEntry) {
	if err := q.outbox.Delete(ctx, entry.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		q.logger.ErrorContext(ctx, "Delivered outbox entry could not be deleted", "error", err, "outbox_id", entry.ID)
	}
}

func (q *OutboxQueue) recordFailure(ctx context.Context, entry *domain.OutboxEntry, cause error, stats *DrainStats) {
	attempts, err := q.outbox.MarkFailed(ctx, entry.ID, cause.Error())
	if err != nil {
		q.logger.ErrorContext(ctx, "Failed to record outbox failure", "error", err, "outbox_id", entry.ID, "cause", cause)
		stats.Failed++
		return
	}
	if attempts <= q.config.MaxAttempts {
		stats.Failed++
		outboxOutcomeCounter.WithLabelValues("failed").Inc()
		q.logger.WarnContext(ctx, "Outbox delivery failed, will retry",
			"outbox_id", entry.ID, "attempts", attempts, "max_attempts", q.config.MaxAttempts, "error", cause)
		return
	}

	if err := q.outbox.Delete(ctx, entry.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		q.logger.ErrorContext(ctx, "Failed to drop exhausted outbox entry", "error", err, "outbox_id", entry.ID)
		stats.Failed++
		return
	}
	stats.Dropped++
	outboxOutcomeCounter.WithLabelValues("dropped").Inc()
	q.logger.ErrorContext(ctx, "Outbox entry dropped after max attempts",
		"outbox_id", entry.ID, "user_id", entry.UserID, "date", entry.Date, "attempts", attempts, "last_error", cause)
}

// Pending lists queued entries, oldest first.
func (q *OutboxQueue) Pending(ctx context.Context, limit int) ([]*domain.OutboxEntry, error) {
	return q.outbox.List(ctx, limit)
}
