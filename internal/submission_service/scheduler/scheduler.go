package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deliveryproof/golang_services/internal/submission_service/app"
	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// ReminderRunner is satisfied by *app.ReminderService.
type ReminderRunner interface {
	FanOut(ctx context.Context, date string) (app.FanOutStats, error)
}

// ReportRunner is satisfied by *app.ReportPublisher.
type ReportRunner interface {
	Publish(ctx context.Context, date string) error
}

// Drainer is satisfied by *app.OutboxQueue.
type Drainer interface {
	Drain(ctx context.Context) (app.DrainStats, error)
}

type Config struct {
	ReminderSpecs []string
	ReportSpec    string
	DrainInterval time.Duration
	Location      *time.Location
}

// Scheduler runs the daily cron jobs and the outbox drain ticker. A failing
// job is logged and the schedule carries on.
type Scheduler struct {
	reminders ReminderRunner
	reports   ReportRunner
	outbox    Drainer
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

func New(reminders ReminderRunner, reports ReportRunner, outbox Drainer, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		reminders: reminders,
		reports:   reports,
		outbox:    outbox,
		cfg:       cfg,
		logger:    logger.With("component", "scheduler"),
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled. It fails fast only on an invalid cron
// spec.
func (s *Scheduler) Run(ctx context.Context) error {
	c, err := s.cron(ctx)
	if err != nil {
		return err
	}
	c.Start()
	s.logger.InfoContext(ctx, "Scheduler started",
		"reminders", s.cfg.ReminderSpecs, "report", s.cfg.ReportSpec, "drain_interval", s.cfg.DrainInterval)

	ticker := time.NewTicker(s.cfg.DrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.DrainOutbox(ctx)
		case <-ctx.Done():
			<-c.Stop().Done()
			s.logger.InfoContext(ctx, "Scheduler stopped")
			return nil
		}
	}
}

func (s *Scheduler) cron(ctx context.Context) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(s.cfg.Location))
	for _, spec := range s.cfg.ReminderSpecs {
		if _, err := c.AddFunc(spec, func() { s.SendReminders(ctx) }); err != nil {
			return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
		}
	}
	if _, err := c.AddFunc(s.cfg.ReportSpec, func() { s.PublishReport(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", s.cfg.ReportSpec, err)
	}
	return c, nil
}

// SendReminders reminds every user about today.
func (s *Scheduler) SendReminders(ctx context.Context) {
	date := domain.DateOf(s.now(), s.cfg.Location)
	if _, err := s.reminders.FanOut(ctx, date); err != nil {
		s.logger.ErrorContext(ctx, "Reminder job failed", "error", err, "date", date)
	}
}

// PublishReport posts the reports for the previous calendar day.
func (s *Scheduler) PublishReport(ctx context.Context) {
	date := domain.DateOf(s.now().In(s.cfg.Location).AddDate(0, 0, -1), s.cfg.Location)
	if err := s.reports.Publish(ctx, date); err != nil {
		s.logger.ErrorContext(ctx, "Report job failed", "error", err, "date", date)
	}
}

func (s *Scheduler) DrainOutbox(ctx context.Context) {
	if _, err := s.outbox.Drain(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Outbox drain failed", "error", err)
	}
}
