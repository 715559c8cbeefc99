package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deliveryproof/golang_services/internal/submission_service/adapters/broadcast"
	"github.com/deliveryproof/golang_services/internal/submission_service/adapters/ledger"
	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

const (
	testGroupChatID = int64(-1001234567890)
	testDate        = "2024-05-01"
)

var testNow = time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSender plays the chat API for the broadcast dispatcher.
type fakeSender struct {
	mu   sync.Mutex
	fail error
	next int
	sent []string
}

func (f *fakeSender) SendVideo(_ context.Context, _ int64, mediaRef, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return 0, f.fail
	}
	f.next++
	f.sent = append(f.sent, mediaRef)
	return f.next, nil
}

func (f *fakeSender) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendText(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

func (m *MockNotifier) SendReminder(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

type brokenSheet struct{}

func (brokenSheet) AppendRow(context.Context, []string) (int, error) {
	return 0, errors.New("sheets unavailable")
}
func (brokenSheet) UpdateCell(context.Context, int, int, string) error {
	return errors.New("sheets unavailable")
}
func (brokenSheet) ReadRow(context.Context, int) ([]string, error) {
	return nil, errors.New("sheets unavailable")
}

type harness struct {
	store     *memStore
	sender    *fakeSender
	ledger    *ledger.Writer
	events    *fakePublisher
	notifier  *MockNotifier
	status    *StatusMachine
	queue     *OutboxQueue
	reminders *ReminderService
	users     *UserService
}

func newHarness(t *testing.T, maxAttempts int) *harness {
	t.Helper()
	sheet, err := ledger.NewCSVSheet(filepath.Join(t.TempDir(), "ledger.csv"))
	require.NoError(t, err)
	return newHarnessWithSheet(t, sheet, maxAttempts)
}

func newHarnessWithSheet(t *testing.T, sheet ledger.Sheet, maxAttempts int) *harness {
	t.Helper()
	logger := discardLogger()
	h := &harness{
		store:    newMemStore(),
		sender:   &fakeSender{},
		events:   &fakePublisher{},
		notifier: new(MockNotifier),
	}
	h.ledger = ledger.NewWriter(sheet, time.UTC, logger)
	dispatcher := broadcast.NewDispatcher(h.sender, testGroupChatID, "https://t.me/c", logger)

	h.status = NewStatusMachine(h.store.Subs(), logger)
	h.queue = NewOutboxQueue(h.store.Outbox(), h.status, dispatcher, h.ledger, h.events, logger,
		OutboxConfig{BatchSize: 10, MaxAttempts: maxAttempts, ClaimLease: time.Minute})
	h.queue.now = func() time.Time { return testNow }
	h.reminders = NewReminderService(h.store.Users(), h.store.Subs(), h.status, h.ledger, h.notifier, logger)
	h.reminders.now = func() time.Time { return testNow }
	h.users = NewUserService(h.store.Users(), h.notifier, logger)
	return h
}

func (h *harness) register(t *testing.T, id int64, first, last string) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, FirstName: first, LastName: last, Phone: "+99890000000", CarPlate: "01A123BC"}
	require.NoError(t, h.users.Register(context.Background(), u))
	return u
}

func submission(u *domain.User, destination, media string) domain.VideoSubmission {
	contact := domain.SnapshotOf(u, "")
	return domain.VideoSubmission{
		UserID:      u.ID,
		Date:        testDate,
		Destination: destination,
		MediaRef:    media,
		Caption:     BuildCaption(destination, contact, testNow),
		Contact:     contact,
		SubmittedAt: testNow,
	}
}
