package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

const reasonNotProvided = "(not provided)"

// ReportAggregator answers the read-only daily report queries.
type ReportAggregator struct {
	reports domain.ReportRepository
}

func NewReportAggregator(reports domain.ReportRepository) *ReportAggregator {
	return &ReportAggregator{reports: reports}
}

// Roster lists every user ordered by surname, then given name.
func (a *ReportAggregator) Roster(ctx context.Context, date string) ([]domain.RosterEntry, error) {
	rows, err := a.reports.Roster(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("roster for %s: %w", date, err)
	}
	return rows, nil
}

// Senders lists users with at least one video plus the totals.
func (a *ReportAggregator) Senders(ctx context.Context, date string) (domain.SendersSummary, error) {
	rows, err := a.reports.Senders(ctx, date)
	if err != nil {
		return domain.SendersSummary{}, fmt.Errorf("senders for %s: %w", date, err)
	}
	summary := domain.SendersSummary{Date: date, Senders: make([]domain.SenderCount, 0, len(rows))}
	for _, r := range rows {
		if r.VideoCount <= 0 {
			continue
		}
		summary.Senders = append(summary.Senders, r)
		summary.TotalVideos += r.VideoCount
	}
	summary.TotalSenders = len(summary.Senders)
	return summary, nil
}

// RenderRoster formats the full roster for the group chat.
func RenderRoster(date string, rows []domain.RosterEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Delivery report for %s", date)
	for i, r := range rows {
		fmt.Fprintf(&b, "\n\n%d) %s %s", i+1, r.FirstName, r.LastName)
		fmt.Fprintf(&b, "\n   📌 Videos sent: %d", r.VideoCount)
		if r.VideoCount == 0 {
			reason := reasonNotProvided
			if r.Reason != nil && *r.Reason != "" {
				reason = *r.Reason
			}
			fmt.Fprintf(&b, "\n   ✍️ Reason: %s", reason)
		}
	}
	return b.String()
}

// RenderSenders formats the senders-only summary.
func RenderSenders(s domain.SendersSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚚 Videos received on %s", s.Date)
	for i, r := range s.Senders {
		fmt.Fprintf(&b, "\n%d) %s %s: %d", i+1, r.FirstName, r.LastName, r.VideoCount)
	}
	fmt.Fprintf(&b, "\n\nTotal videos: %d\nDrivers: %d", s.TotalVideos, s.TotalSenders)
	return b.String()
}

// ReportPublisher posts the daily reports to the group chat.
type ReportPublisher struct {
	aggregator  *ReportAggregator
	notifier    Notifier
	groupChatID int64
	logger      *slog.Logger
}

func NewReportPublisher(aggregator *ReportAggregator, notifier Notifier, groupChatID int64, logger *slog.Logger) *ReportPublisher {
	return &ReportPublisher{
		aggregator:  aggregator,
		notifier:    notifier,
		groupChatID: groupChatID,
		logger:      logger.With("component", "report_publisher"),
	}
}

// Publish posts the roster and the senders summary for date. A failed send
// of one report does not stop the other.
func (p *ReportPublisher) Publish(ctx context.Context, date string) error {
	roster, err := p.aggregator.Roster(ctx, date)
	if err != nil {
		return err
	}
	senders, err := p.aggregator.Senders(ctx, date)
	if err != nil {
		return err
	}

	rosterRes := bestEffort(ctx, p.logger, "notify.report_roster", func() error {
		return p.notifier.SendText(ctx, p.groupChatID, RenderRoster(date, roster))
	}, "date", date)
	sendersRes := bestEffort(ctx, p.logger, "notify.report_senders", func() error {
		return p.notifier.SendText(ctx, p.groupChatID, RenderSenders(senders))
	}, "date", date)

	if !rosterRes.OK() && !sendersRes.OK() {
		return fmt.Errorf("%w: %s; %s", domain.ErrDeliveryFailed, rosterRes, sendersRes)
	}
	p.logger.InfoContext(ctx, "Daily report published", "date", date, "users", len(roster), "senders", senders.TotalSenders)
	return nil
}
