package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// memStore is an in-memory stand-in for the Postgres repositories with the
// same row semantics.
type memStore struct {
	mu        sync.Mutex
	users     map[int64]domain.User
	days      map[dayKey]domain.DailySubmission
	videos    []domain.VideoRecord
	nextVideo int64
	outbox    map[uuid.UUID]domain.OutboxEntry
	mutations int

	failRecordVideo error
}

type dayKey struct {
	user int64
	date string
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[int64]domain.User{},
		days:   map[dayKey]domain.DailySubmission{},
		outbox: map[uuid.UUID]domain.OutboxEntry{},
	}
}

func (s *memStore) Users() *memUsers     { return &memUsers{s} }
func (s *memStore) Subs() *memSubs       { return &memSubs{s} }
func (s *memStore) Outbox() *memOutbox   { return &memOutbox{s} }
func (s *memStore) Reports() *memReports { return &memReports{s} }

func (s *memStore) mutationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations
}

func (s *memStore) day(user int64, date string) (domain.DailySubmission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[dayKey{user, date}]
	return d, ok
}

func (s *memStore) dayRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.days)
}

func (s *memStore) videosFor(user int64, date string) []domain.VideoRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.VideoRecord
	for _, v := range s.videos {
		if v.UserID == user && v.Date == date {
			out = append(out, v)
		}
	}
	return out
}

func (s *memStore) outboxEntry(id uuid.UUID) (domain.OutboxEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.outbox[id]
	return e, ok
}

func (s *memStore) outboxLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

type memUsers struct{ s *memStore }

func (r *memUsers) Upsert(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.mutations++
	if old, ok := r.s.users[u.ID]; ok {
		u.RegisteredAt = old.RegisteredAt
	} else if u.RegisteredAt.IsZero() {
		u.RegisteredAt = time.Now().UTC()
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) ListAll(_ context.Context) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrNotFound
	}
	r.s.mutations++
	delete(r.s.users, id)
	for k := range r.s.days {
		if k.user == id {
			delete(r.s.days, k)
		}
	}
	for k, e := range r.s.outbox {
		if e.UserID == id {
			delete(r.s.outbox, k)
		}
	}
	return nil
}

type memSubs struct{ s *memStore }

func (r *memSubs) Ensure(_ context.Context, userID int64, date string) (*domain.DailySubmission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := dayKey{userID, date}
	d, ok := r.s.days[k]
	if !ok {
		r.s.mutations++
		d = domain.DailySubmission{UserID: userID, Date: date, Status: domain.StatusPending}
		r.s.days[k] = d
	}
	return &d, nil
}

func (r *memSubs) RecordVideo(_ context.Context, v *domain.VideoRecord) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failRecordVideo != nil {
		return 0, r.s.failRecordVideo
	}
	r.s.mutations++
	r.s.nextVideo++
	v.ID = r.s.nextVideo
	r.s.videos = append(r.s.videos, *v)
	r.s.days[dayKey{v.UserID, v.Date}] = domain.DailySubmission{UserID: v.UserID, Date: v.Date, Status: domain.StatusSubmitted}
	return v.ID, nil
}

func (r *memSubs) RecordReason(_ context.Context, userID int64, date, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.mutations++
	text := reason
	r.s.days[dayKey{userID, date}] = domain.DailySubmission{UserID: userID, Date: date, Status: domain.StatusNotSubmitted, Reason: &text}
	return nil
}

func (r *memSubs) CountVideos(_ context.Context, userID int64, date string) (int, error) {
	return len(r.s.videosFor(userID, date)), nil
}

func (r *memSubs) ListVideos(_ context.Context, userID int64, date string) ([]*domain.VideoRecord, error) {
	var out []*domain.VideoRecord
	for _, v := range r.s.videosFor(userID, date) {
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memSubs) LatestLedgerRow(_ context.Context, userID int64, date string) (int, error) {
	var best *domain.VideoRecord
	for _, v := range r.s.videosFor(userID, date) {
		v := v
		if v.LedgerRow == nil {
			continue
		}
		if best == nil || v.SubmittedAt.After(best.SubmittedAt) ||
			(v.SubmittedAt.Equal(best.SubmittedAt) && v.ID > best.ID) {
			best = &v
		}
	}
	if best == nil {
		return 0, domain.ErrNotFound
	}
	return *best.LedgerRow, nil
}

type memOutbox struct{ s *memStore }

func (r *memOutbox) Enqueue(_ context.Context, e *domain.OutboxEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.mutations++
	r.s.outbox[e.ID] = *e
	return nil
}

func (r *memOutbox) Claim(_ context.Context, now time.Time, lease time.Duration, limit int) ([]*domain.OutboxEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var due []domain.OutboxEntry
	for _, e := range r.s.outbox {
		if e.ClaimedUntil == nil || e.ClaimedUntil.Before(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	out := make([]*domain.OutboxEntry, 0, len(due))
	until := now.Add(lease)
	for _, e := range due {
		r.s.mutations++
		e.ClaimedUntil = &until
		r.s.outbox[e.ID] = e
		e := e
		out = append(out, &e)
	}
	return out, nil
}

func (r *memOutbox) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.outbox[id]; !ok {
		return domain.ErrNotFound
	}
	r.s.mutations++
	delete(r.s.outbox, id)
	return nil
}

func (r *memOutbox) MarkFailed(_ context.Context, id uuid.UUID, lastErr string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.outbox[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	r.s.mutations++
	e.Attempts++
	msg := lastErr
	e.LastError = &msg
	e.ClaimedUntil = nil
	r.s.outbox[id] = e
	return e.Attempts, nil
}

func (r *memOutbox) List(_ context.Context, limit int) ([]*domain.OutboxEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.OutboxEntry, 0, len(r.s.outbox))
	for _, e := range r.s.outbox {
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memReports struct{ s *memStore }

func (r *memReports) Roster(ctx context.Context, date string) ([]domain.RosterEntry, error) {
	users, _ := r.s.Users().ListAll(ctx)
	out := make([]domain.RosterEntry, 0, len(users))
	for _, u := range users {
		e := domain.RosterEntry{
			UserID: u.ID, FirstName: u.FirstName, LastName: u.LastName,
			VideoCount: len(r.s.videosFor(u.ID, date)), Status: domain.StatusPending,
		}
		if d, ok := r.s.day(u.ID, date); ok {
			e.Status = d.Status
			e.Reason = d.Reason
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memReports) Senders(ctx context.Context, date string) ([]domain.SenderCount, error) {
	roster, _ := r.Roster(ctx, date)
	var out []domain.SenderCount
	for _, e := range roster {
		if e.VideoCount > 0 {
			out = append(out, domain.SenderCount{UserID: e.UserID, FirstName: e.FirstName, LastName: e.LastName, VideoCount: e.VideoCount})
		}
	}
	return out, nil
}
