package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bettersaved/application/commands"
	"bettersaved/application/commands/bus"
	"bettersaved/application/queries"
	querybus "bettersaved/application/queries/bus"
	"bettersaved/interfaces/http/rest/handlers"
	"bettersaved/pkg/auth"
	pkgerrors "bettersaved/pkg/errors"
	"bettersaved/pkg/observability"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockCommandSender struct {
	mock.Mock
}

func (m *MockCommandSender) Send(ctx context.Context, cmd bus.Command) error {
	if err := cmd.Validate(); err != nil {
		return errors.Join(bus.ErrValidationFailed, err)
	}
	return m.Called(ctx, cmd).Error(0)
}

type MockQueryAsker struct {
	mock.Mock
}

func (m *MockQueryAsker) Ask(ctx context.Context, q querybus.Query) (interface{}, error) {
	args := m.Called(ctx, q)
	return args.Get(0), args.Error(1)
}

type recordingDispatcher struct {
	updates []tgbotapi.Update
	err     error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, update tgbotapi.Update) error {
	d.updates = append(d.updates, update)
	return d.err
}

type testServer struct {
	handler    http.Handler
	commands   *MockCommandSender
	queries    *MockQueryAsker
	dispatcher *recordingDispatcher
	collector  *observability.Collector
	tokens     *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	errs := pkgerrors.NewErrorHandler(logger, false)

	tokens, err := auth.NewTokenManager("secret", "bettersaved", time.Hour)
	require.NoError(t, err)

	s := &testServer{
		commands:   &MockCommandSender{},
		queries:    &MockQueryAsker{},
		dispatcher: &recordingDispatcher{},
		collector:  observability.NewCollector("bettersaved"),
		tokens:     tokens,
	}
	router := NewRouter(
		handlers.NewWebhookHandler(s.dispatcher, "hook-secret", errs, logger),
		handlers.NewProfileHandler(s.commands, s.queries, errs, logger),
		errs,
		RouterOptions{
			Tokens:    tokens,
			Limiter:   auth.NewIPRateLimiter(600),
			Collector: s.collector,
		},
		logger,
	)
	s.handler = router.Setup()
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) bearer(t *testing.T, roles ...string) map[string]string {
	t.Helper()
	token, err := s.tokens.Issue("ops", roles...)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestWebhook(t *testing.T) {
	update := `{"update_id": 10, "message": {"message_id": 1, "text": "hi", "chat": {"id": 5}, "from": {"id": 5}}}`

	tests := []struct {
		name        string
		secret      string
		body        string
		dispatchErr error
		wantStatus  int
		wantUpdates int
	}{
		{name: "dispatches", secret: "hook-secret", body: update, wantStatus: http.StatusOK, wantUpdates: 1},
		{name: "wrong secret", secret: "nope", body: update, wantStatus: http.StatusUnauthorized},
		{name: "missing secret", body: update, wantStatus: http.StatusUnauthorized},
		{name: "bad payload", secret: "hook-secret", body: "{", wantStatus: http.StatusBadRequest},
		{
			name:        "processing failure still acknowledged",
			secret:      "hook-secret",
			body:        update,
			dispatchErr: errors.New("boom"),
			wantStatus:  http.StatusOK,
			wantUpdates: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.dispatcher.err = tt.dispatchErr
			header := map[string]string{}
			if tt.secret != "" {
				header["X-Telegram-Bot-Api-Secret-Token"] = tt.secret
			}

			rec := s.do(t, http.MethodPost, "/webhook/telegram", tt.body, header)

			assert.Equal(t, tt.wantStatus, rec.Code)
			require.Len(t, s.dispatcher.updates, tt.wantUpdates)
			if tt.wantUpdates > 0 {
				assert.Equal(t, 10, s.dispatcher.updates[0].UpdateID)
				assert.Equal(t, "hi", s.dispatcher.updates[0].Message.Text)
			}
		})
	}
}

func TestAdminAPI_Authentication(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/profiles/user_1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/profiles/user_1", "", map[string]string{"Authorization": "Bearer junk"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/profiles/user_1", "", s.bearer(t, "viewer"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s.queries.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestAdminAPI_GetProfile(t *testing.T) {
	s := newTestServer(t)
	s.queries.On("Ask", mock.Anything, queries.GetProfileQuery{UserID: "user_1"}).
		Return(&queries.ProfileSummary{UserID: "user_1", Name: "Ada", Connected: true}, nil)
	s.queries.On("Ask", mock.Anything, queries.GetProfileQuery{UserID: "user_2"}).
		Return(nil, pkgerrors.NewNotFoundError("profile"))

	rec := s.do(t, http.MethodGet, "/api/v1/profiles/user_1", "", s.bearer(t, auth.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                   `json:"success"`
		Data    queries.ProfileSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Ada", body.Data.Name)
	assert.True(t, body.Data.Connected)
	assert.NotContains(t, rec.Body.String(), "credential")

	rec = s.do(t, http.MethodGet, "/api/v1/profiles/user_2", "", s.bearer(t, auth.RoleAdmin))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminAPI_Mutations(t *testing.T) {
	summary := &queries.ProfileSummary{UserID: "user_1", Connected: true}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		command    bus.Command
		commandErr error
		wantStatus int
	}{
		{
			name:       "connect",
			method:     http.MethodPut,
			path:       "/api/v1/profiles/user_1/credential",
			body:       `{"credential": "{\"refresh_token\": \"r\"}"}`,
			command:    commands.ConnectStorageCommand{UserID: "user_1", Credential: `{"refresh_token": "r"}`},
			wantStatus: http.StatusOK,
		},
		{
			name:       "connect with unknown field",
			method:     http.MethodPut,
			path:       "/api/v1/profiles/user_1/credential",
			body:       `{"token": "x"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "disconnect",
			method:     http.MethodDelete,
			path:       "/api/v1/profiles/user_1/credential",
			command:    commands.DisconnectStorageCommand{UserID: "user_1"},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "repair",
			method:     http.MethodPost,
			path:       "/api/v1/profiles/user_1/repair",
			command:    commands.RepairResourcesCommand{UserID: "user_1"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "repair without connection",
			method:     http.MethodPost,
			path:       "/api/v1/profiles/user_1/repair",
			command:    commands.RepairResourcesCommand{UserID: "user_1"},
			commandErr: pkgerrors.NewNotConnectedError("user_1"),
			wantStatus: http.StatusPreconditionFailed,
		},
		{
			name:       "delete",
			method:     http.MethodDelete,
			path:       "/api/v1/profiles/user_1",
			command:    commands.DeleteProfileCommand{UserID: "user_1"},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "malformed user id",
			method:     http.MethodDelete,
			path:       "/api/v1/profiles/bob",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			if tt.command != nil {
				s.commands.On("Send", mock.Anything, tt.command).Return(tt.commandErr)
			}
			s.queries.On("Ask", mock.Anything, mock.Anything).Return(summary, nil).Maybe()

			rec := s.do(t, tt.method, tt.path, tt.body, s.bearer(t, auth.RoleAdmin))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			s.commands.AssertExpectations(t)
		})
	}
}

func TestMetricsAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	s.do(t, http.MethodPost, "/webhook/telegram", "{", map[string]string{"X-Telegram-Bot-Api-Secret-Token": "hook-secret"})

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bettersaved_http_requests_total{method="POST",route="/webhook/telegram",status="400"} 1`)
}
