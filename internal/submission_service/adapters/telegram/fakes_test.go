package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"

	"github.com/deliveryproof/golang_services/internal/submission_service/app"
	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// fakeBot records everything the adapter sends.
type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	videoErr error
	nextID   int
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update, 16)}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return tgbotapi.Message{}, b.sendErr
	}
	if _, ok := c.(tgbotapi.VideoConfig); ok && b.videoErr != nil {
		return tgbotapi.Message{}, b.videoErr
	}
	b.sent = append(b.sent, c)
	b.nextID++
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

// texts returns the text of every plain message sent so far.
func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

// videos returns the file ids of every video sent so far.
func (b *fakeBot) videos() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		if v, ok := c.(tgbotapi.VideoConfig); ok {
			if f, ok := v.File.(tgbotapi.FileID); ok {
				out = append(out, string(f))
			}
		}
	}
	return out
}

func (b *fakeBot) lastMessage() tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.sent) - 1; i >= 0; i-- {
		if m, ok := b.sent[i].(tgbotapi.MessageConfig); ok {
			return m
		}
	}
	return tgbotapi.MessageConfig{}
}

func (b *fakeBot) lastText() string {
	return b.lastMessage().Text
}

type MockUsers struct{ mock.Mock }

func (m *MockUsers) Register(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUsers) Require(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUsers) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockVideos struct{ mock.Mock }

func (m *MockVideos) AcceptVideo(ctx context.Context, sub domain.VideoSubmission) (app.AcceptResult, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(app.AcceptResult), args.Error(1)
}

type MockStatus struct{ mock.Mock }

func (m *MockStatus) Today(ctx context.Context, userID int64, date string) (app.DayStatus, error) {
	args := m.Called(ctx, userID, date)
	return args.Get(0).(app.DayStatus), args.Error(1)
}

type MockReminders struct{ mock.Mock }

func (m *MockReminders) ConfirmSent(ctx context.Context, userID int64, date string) (int, error) {
	args := m.Called(ctx, userID, date)
	return args.Int(0), args.Error(1)
}

func (m *MockReminders) ReportNotSent(ctx context.Context, userID int64, date, reason string) error {
	return m.Called(ctx, userID, date, reason).Error(0)
}

// memSessions is an in-memory SessionRepository.
type memSessions struct {
	mu   sync.Mutex
	rows map[int64]domain.Session
}

func (s *memSessions) Get(_ context.Context, userID int64) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.rows[userID]; ok {
		return &sess, nil
	}
	return &domain.Session{UserID: userID, State: domain.DialogIdle}, nil
}

func (s *memSessions) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[sess.UserID] = *sess
	return nil
}

func (s *memSessions) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, userID)
	return nil
}

func (s *memSessions) state(userID int64) domain.DialogState {
	sess, _ := s.Get(context.Background(), userID)
	return sess.State
}

const (
	driverID = int64(501)
	adminID  = int64(900)
)

var (
	fixedNow  = time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC) // 11:30 in Tashkent
	errLookup = errors.New("db down")
)

type botHarness struct {
	bot       *fakeBot
	users     *MockUsers
	videos    *MockVideos
	status    *MockStatus
	reminders *MockReminders
	sessions  *memSessions
	handler   *Handler
}

func newBotHarness(t *testing.T) *botHarness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tashkent := time.FixedZone("Asia/Tashkent", 5*60*60)
	b := &botHarness{
		bot:       newFakeBot(),
		users:     new(MockUsers),
		videos:    new(MockVideos),
		status:    new(MockStatus),
		reminders: new(MockReminders),
		sessions:  &memSessions{rows: map[int64]domain.Session{}},
	}
	client := newClient(b.bot, "delivery_proof_bot", logger)
	b.handler = NewHandler(client, b.users, b.videos, b.status, b.reminders, b.sessions,
		HandlerConfig{AdminIDs: []int64{adminID}, Location: tashkent}, logger)
	b.handler.now = func() time.Time { return fixedNow }
	return b
}

func privateMessage(from int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from, UserName: "driver"},
		Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
		Text:      text,
	}
	if len(text) > 1 && text[0] == '/' {
		cmdLen := len(text)
		for i, r := range text {
			if r == ' ' {
				cmdLen = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	}
	return tgbotapi.Update{Message: msg}
}

func callback(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: from},
		Data: data,
	}}
}

func registeredDriver() *domain.User {
	return &domain.User{ID: driverID, FirstName: "Ali", LastName: "Karimov", Phone: "+998901112233", CarPlate: "01A123BC"}
}
