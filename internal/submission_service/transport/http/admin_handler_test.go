package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deliveryproof/golang_services/internal/submission_service/app"
	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

const testSecret = "test-secret"

type MockReportReader struct{ mock.Mock }

func (m *MockReportReader) Roster(ctx context.Context, date string) ([]domain.RosterEntry, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RosterEntry), args.Error(1)
}

func (m *MockReportReader) Senders(ctx context.Context, date string) (domain.SendersSummary, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(domain.SendersSummary), args.Error(1)
}

type MockOutboxAdmin struct{ mock.Mock }

func (m *MockOutboxAdmin) Pending(ctx context.Context, limit int) ([]*domain.OutboxEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEntry), args.Error(1)
}

func (m *MockOutboxAdmin) Drain(ctx context.Context) (app.DrainStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(app.DrainStats), args.Error(1)
}

type MockVideoReader struct{ mock.Mock }

func (m *MockVideoReader) Videos(ctx context.Context, userID int64, date string) ([]*domain.VideoRecord, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.VideoRecord), args.Error(1)
}

type MockUserAdmin struct{ mock.Mock }

func (m *MockUserAdmin) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type testAPI struct {
	reports *MockReportReader
	outbox  *MockOutboxAdmin
	videos  *MockVideoReader
	users   *MockUserAdmin
	server  *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := &testAPI{reports: new(MockReportReader), outbox: new(MockOutboxAdmin), videos: new(MockVideoReader), users: new(MockUserAdmin)}
	handler := NewAdminHandler(api.reports, api.outbox, api.videos, api.users, time.UTC, validator.New(), logger)
	handler.now = func() time.Time { return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC) }
	api.server = httptest.NewServer(NewRouter(handler, testSecret, logger))
	t.Cleanup(api.server.Close)
	return api
}

func signToken(t *testing.T, secret string, admin bool) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"adm": admin,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health", "").StatusCode)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/metrics", "").StatusCode)
}

func TestAdminAuth(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/v1/outbox", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/v1/outbox", signToken(t, "wrong", true)).StatusCode)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/v1/outbox", signToken(t, testSecret, false)).StatusCode)
	api.outbox.AssertNotCalled(t, "Pending", mock.Anything, mock.Anything)
}

func TestGetRoster(t *testing.T) {
	api := newTestAPI(t)
	sick := "sick"
	api.reports.On("Roster", mock.Anything, "2024-05-01").Return([]domain.RosterEntry{
		{UserID: 1, FirstName: "Ali", LastName: "Aliyev", VideoCount: 2, Status: domain.StatusSubmitted},
		{UserID: 2, FirstName: "Bek", LastName: "Bekov", Status: domain.StatusNotSubmitted, Reason: &sick},
	}, nil).Once()

	resp := api.do(t, http.MethodGet, "/api/v1/reports/roster?date=2024-05-01", signToken(t, testSecret, true))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body RosterResponseDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "2024-05-01", body.Date)
	require.Len(t, body.Users, 2)
	assert.Equal(t, 2, body.Users[0].VideoCount)
	assert.Equal(t, "NOT_SUBMITTED", body.Users[1].Status)
	api.reports.AssertExpectations(t)
}

func TestGetSenders_DefaultsToToday(t *testing.T) {
	api := newTestAPI(t)
	api.reports.On("Senders", mock.Anything, "2024-05-02").Return(domain.SendersSummary{
		Date:         "2024-05-02",
		Senders:      []domain.SenderCount{{UserID: 1, FirstName: "Ali", LastName: "Aliyev", VideoCount: 3}},
		TotalVideos:  3,
		TotalSenders: 1,
	}, nil).Once()

	resp := api.do(t, http.MethodGet, "/api/v1/reports/senders", signToken(t, testSecret, true))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body SendersResponseDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.TotalVideos)
	assert.Equal(t, 1, body.TotalSenders)
}

func TestReports_RejectBadDate(t *testing.T) {
	api := newTestAPI(t)
	token := signToken(t, testSecret, true)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/v1/reports/roster?date=01.05.2024", token).StatusCode)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/v1/reports/senders?date=2024-13-01", token).StatusCode)
	api.reports.AssertNotCalled(t, "Roster", mock.Anything, mock.Anything)
}

func TestListOutbox(t *testing.T) {
	api := newTestAPI(t)
	token := signToken(t, testSecret, true)
	lastErr := "timeout"
	entry := &domain.OutboxEntry{ID: uuid.New(), Attempts: 2, LastError: &lastErr}
	entry.UserID = 7
	entry.Date = "2024-05-01"
	api.outbox.On("Pending", mock.Anything, 10).Return([]*domain.OutboxEntry{entry}, nil).Once()

	resp := api.do(t, http.MethodGet, "/api/v1/outbox?limit=10", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Entries []OutboxEntryDTO `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, entry.ID.String(), body.Entries[0].ID)
	assert.Equal(t, 2, body.Entries[0].Attempts)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/v1/outbox?limit=0", token).StatusCode)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/v1/outbox?limit=ten", token).StatusCode)
	api.outbox.AssertExpectations(t)
}

func TestDrainOutbox(t *testing.T) {
	api := newTestAPI(t)
	api.outbox.On("Drain", mock.Anything).Return(app.DrainStats{Claimed: 2, Delivered: 1, Failed: 1}, nil).Once()

	resp := api.do(t, http.MethodPost, "/api/v1/outbox/drain", signToken(t, testSecret, true))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats app.DrainStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, app.DrainStats{Claimed: 2, Delivered: 1, Failed: 1}, stats)
}

func TestListVideos(t *testing.T) {
	api := newTestAPI(t)
	token := signToken(t, testSecret, true)
	row := 12
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	api.videos.On("Videos", mock.Anything, int64(42), "2024-05-01").Return([]*domain.VideoRecord{
		{ID: 3, UserID: 42, Date: "2024-05-01", Destination: "17", MediaRef: "file-a", LedgerRow: &row, SubmittedAt: at},
		{ID: 4, UserID: 42, Date: "2024-05-01", Destination: "18", MediaRef: "file-b", SubmittedAt: at.Add(time.Hour)},
	}, nil).Once()
	api.videos.On("Videos", mock.Anything, int64(42), "2024-05-02").Return(nil, nil).Once()

	resp := api.do(t, http.MethodGet, "/api/v1/users/42/videos?date=2024-05-01", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body VideosResponseDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(42), body.UserID)
	require.Len(t, body.Videos, 2)
	assert.Equal(t, "17", body.Videos[0].Destination)
	require.NotNil(t, body.Videos[0].LedgerRow)
	assert.Equal(t, 12, *body.Videos[0].LedgerRow)
	assert.Nil(t, body.Videos[1].LedgerRow)

	resp = api.do(t, http.MethodGet, "/api/v1/users/42/videos", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "2024-05-02", body.Date)
	assert.NotNil(t, body.Videos)
	assert.Empty(t, body.Videos)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/v1/users/x1/videos", token).StatusCode)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/v1/users/42/videos?date=May", token).StatusCode)
	api.videos.AssertExpectations(t)
}

func TestDeleteUser(t *testing.T) {
	api := newTestAPI(t)
	token := signToken(t, testSecret, true)
	api.users.On("DeleteUser", mock.Anything, int64(42)).Return(nil).Once()
	api.users.On("DeleteUser", mock.Anything, int64(43)).Return(domain.ErrNotFound).Once()
	api.users.On("DeleteUser", mock.Anything, int64(44)).Return(errors.New("db down")).Once()

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/v1/users/42", token).StatusCode)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/api/v1/users/43", token).StatusCode)
	assert.Equal(t, http.StatusInternalServerError, api.do(t, http.MethodDelete, "/api/v1/users/44", token).StatusCode)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodDelete, "/api/v1/users/abc", token).StatusCode)
	api.users.AssertExpectations(t)
}

func TestNewRouter_WithoutSecretHasNoAdminAPI(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewAdminHandler(new(MockReportReader), new(MockOutboxAdmin), new(MockVideoReader), new(MockUserAdmin), time.UTC, validator.New(), logger)
	srv := httptest.NewServer(NewRouter(handler, "", logger))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/outbox")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
