package telegram

import (
	"context"
	"errors"
	"testing"

	"bettersaved/application/commands"
	"bettersaved/application/commands/bus"
	"bettersaved/application/ports/fakes"
	"bettersaved/application/queries"
	querybus "bettersaved/application/queries/bus"
	"bettersaved/domain/core/entities"
	pkgerrors "bettersaved/pkg/errors"

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
	return m.Called(ctx, cmd).Error(0)
}

type MockQueryAsker struct {
	mock.Mock
}

func (m *MockQueryAsker) Ask(ctx context.Context, q querybus.Query) (interface{}, error) {
	args := m.Called(ctx, q)
	return args.Get(0), args.Error(1)
}

type staticLinker string

func (s staticLinker) AuthCodeURL(state string) string {
	if s == "" {
		return ""
	}
	return string(s) + "?state=" + state
}

type MockIngestor struct {
	mock.Mock
}

func (m *MockIngestor) Handle(ctx context.Context, event entities.InboundEvent) error {
	return m.Called(ctx, event).Error(0)
}

type countingObserver map[string]int

func (c countingObserver) ObserveUpdate(kind string) { c[kind]++ }

func commandMessage(text string) *tgbotapi.Message {
	cmd := text
	for i, r := range text {
		if r == ' ' {
			cmd = text[:i]
			break
		}
	}
	return &tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: 42, FirstName: "Ada", LastName: "Lovelace", LanguageCode: "en"},
		Chat:      &tgbotapi.Chat{ID: 42},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

type routerFixture struct {
	commands  *MockCommandSender
	queries   *MockQueryAsker
	messenger *fakes.Messenger
	router    *CommandRouter
}

func newRouterFixture(link string) *routerFixture {
	f := &routerFixture{
		commands:  &MockCommandSender{},
		queries:   &MockQueryAsker{},
		messenger: fakes.NewMessenger(),
	}
	f.router = NewCommandRouter(f.commands, f.queries, f.messenger, staticLinker(link), zap.NewNop())
	return f
}

func (f *routerFixture) lastText(t *testing.T) string {
	t.Helper()
	if len(f.messenger.Edits) > 0 {
		return f.messenger.Edits[len(f.messenger.Edits)-1].Text
	}
	require.NotEmpty(t, f.messenger.Sent)
	return f.messenger.Sent[len(f.messenger.Sent)-1].Text
}

func (f *routerFixture) profile(summary *queries.ProfileSummary, err error) {
	var result interface{}
	if summary != nil {
		result = summary
	}
	f.queries.On("Ask", mock.Anything, queries.GetProfileQuery{UserID: "user_42"}).Return(result, err)
}

func TestCommandRouter_Start(t *testing.T) {
	f := newRouterFixture("")
	f.commands.On("Send", mock.Anything, commands.EnsureProfileCommand{
		TelegramID: 42, Name: "Ada Lovelace", Language: "en",
	}).Return(nil)

	require.NoError(t, f.router.Route(context.Background(), commandMessage("/start")))

	assert.Contains(t, f.lastText(t), "Hi Ada!")
	f.commands.AssertExpectations(t)
}

func TestCommandRouter_StaticReplies(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "/help", want: "/fix_spreadsheet"},
		{text: "/cancel", want: msgCancelled},
		{text: "/dance", want: msgUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			f := newRouterFixture("")

			require.NoError(t, f.router.Route(context.Background(), commandMessage(tt.text)))

			assert.Contains(t, f.lastText(t), tt.want)
			f.commands.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestCommandRouter_User(t *testing.T) {
	tests := []struct {
		name    string
		summary *queries.ProfileSummary
		err     error
		want    string
	}{
		{name: "unregistered", err: pkgerrors.NewNotFoundError("profile"), want: msgNotRegistered},
		{
			name:    "connected",
			summary: &queries.ProfileSummary{UserID: "user_42", Name: "Ada", Language: "en", Connected: true},
			want:    "Set Successfully!",
		},
		{
			name:    "not connected",
			summary: &queries.ProfileSummary{UserID: "user_42", Name: "Ada", Language: "en"},
			want:    "Not set up",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture("")
			f.profile(tt.summary, tt.err)

			require.NoError(t, f.router.Route(context.Background(), commandMessage("/user")))

			assert.Contains(t, f.lastText(t), tt.want)
		})
	}
}

func TestCommandRouter_ConnectDrive(t *testing.T) {
	tests := []struct {
		name      string
		link      string
		connected bool
		want      string
	}{
		{name: "sends consent link", link: "https://accounts.example/auth", want: "https://accounts.example/auth?state=user_42"},
		{name: "already connected", link: "https://accounts.example/auth", connected: true, want: msgAlreadyConnected},
		{name: "oauth not configured", want: msgConnectUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(tt.link)
			f.profile(&queries.ProfileSummary{UserID: "user_42", Connected: tt.connected}, nil)

			require.NoError(t, f.router.Route(context.Background(), commandMessage("/connect_drive")))

			assert.Contains(t, f.lastText(t), tt.want)
		})
	}
}

func TestCommandRouter_DisconnectDrive(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		f := newRouterFixture("")
		f.profile(&queries.ProfileSummary{UserID: "user_42", Connected: true}, nil)
		f.commands.On("Send", mock.Anything, commands.DisconnectStorageCommand{UserID: "user_42"}).Return(nil)

		require.NoError(t, f.router.Route(context.Background(), commandMessage("/disconnect_drive")))

		assert.Equal(t, msgDisconnected, f.lastText(t))
		f.commands.AssertExpectations(t)
	})

	t.Run("nothing to disconnect", func(t *testing.T) {
		f := newRouterFixture("")
		f.profile(&queries.ProfileSummary{UserID: "user_42"}, nil)

		require.NoError(t, f.router.Route(context.Background(), commandMessage("/disconnect_drive")))

		assert.Equal(t, msgNoConnection, f.lastText(t))
		f.commands.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestCommandRouter_FixSpreadsheet(t *testing.T) {
	tests := []struct {
		name      string
		repairErr error
		want      string
	}{
		{name: "repaired", want: "https://docs.google.com/spreadsheets/d/ledger"},
		{name: "not connected", repairErr: pkgerrors.NewNotConnectedError("user_42"), want: msgNeedConnection},
		{name: "provider down", repairErr: pkgerrors.NewRecoveryFailedError("ledger", errors.New("503")), want: msgFixFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture("")
			f.commands.On("Send", mock.Anything, commands.RepairResourcesCommand{UserID: "user_42"}).Return(tt.repairErr)
			f.profile(&queries.ProfileSummary{
				UserID:    "user_42",
				FolderURL: "https://drive.google.com/drive/folders/root",
				LedgerURL: "https://docs.google.com/spreadsheets/d/ledger",
			}, nil)

			require.NoError(t, f.router.Route(context.Background(), commandMessage("/fix_spreadsheet")))

			assert.Equal(t, msgFixing, f.messenger.Sent[0].Text)
			assert.Contains(t, f.lastText(t), tt.want)
		})
	}
}

func TestCommandRouter_NukeUser(t *testing.T) {
	t.Run("asks for confirmation", func(t *testing.T) {
		f := newRouterFixture("")
		f.profile(&queries.ProfileSummary{UserID: "user_42"}, nil)

		require.NoError(t, f.router.Route(context.Background(), commandMessage("/nuke_user")))

		assert.Contains(t, f.lastText(t), "/nuke_user CONFIRM")
		f.commands.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("confirmed", func(t *testing.T) {
		f := newRouterFixture("")
		f.profile(&queries.ProfileSummary{UserID: "user_42"}, nil)
		f.commands.On("Send", mock.Anything, commands.DeleteProfileCommand{UserID: "user_42"}).Return(nil)

		require.NoError(t, f.router.Route(context.Background(), commandMessage("/nuke_user CONFIRM")))

		assert.Equal(t, msgNuked, f.lastText(t))
		f.commands.AssertExpectations(t)
	})

	t.Run("no account", func(t *testing.T) {
		f := newRouterFixture("")
		f.profile(nil, pkgerrors.NewNotFoundError("profile"))

		require.NoError(t, f.router.Route(context.Background(), commandMessage("/nuke_user CONFIRM")))

		assert.Equal(t, msgNoAccount, f.lastText(t))
	})
}

func TestCommandRouter_FailureRepliesAndReturnsError(t *testing.T) {
	f := newRouterFixture("")
	f.commands.On("Send", mock.Anything, mock.Anything).Return(pkgerrors.NewDatabaseError("upsert_profile", errors.New("locked")))

	err := f.router.Route(context.Background(), commandMessage("/start"))

	assert.Error(t, err)
	assert.Equal(t, msgCommandFail, f.lastText(t))
}

func TestMenu_ListsEveryCommand(t *testing.T) {
	names := make([]string, 0)
	for _, c := range Menu() {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.Description)
	}
	assert.ElementsMatch(t, []string{"start", "help", "user", "connect_drive", "disconnect_drive", "fix_spreadsheet", "nuke_user"}, names)
}

func TestDispatcher(t *testing.T) {
	t.Run("commands go to the router", func(t *testing.T) {
		f := newRouterFixture("")
		ingestor := &MockIngestor{}
		observer := countingObserver{}
		d := NewDispatcher(f.router, ingestor, observer, zap.NewNop())

		require.NoError(t, d.Dispatch(context.Background(), tgbotapi.Update{Message: commandMessage("/help")}))

		assert.Equal(t, 1, observer["command"])
		ingestor.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("content goes to ingestion", func(t *testing.T) {
		f := newRouterFixture("")
		ingestor := &MockIngestor{}
		ingestor.On("Handle", mock.Anything, mock.MatchedBy(func(e entities.InboundEvent) bool {
			return e.UserID == 42 && e.Text == "remember this" && entities.Kind(e.Payload) == "text"
		})).Return(nil)
		observer := countingObserver{}
		d := NewDispatcher(f.router, ingestor, observer, zap.NewNop())

		err := d.Dispatch(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
			MessageID: 3,
			From:      &tgbotapi.User{ID: 42, FirstName: "Ada"},
			Chat:      &tgbotapi.Chat{ID: 42},
			Text:      "remember this",
		}})

		require.NoError(t, err)
		assert.Equal(t, 1, observer["text"])
		ingestor.AssertExpectations(t)
	})

	t.Run("non-message updates are dropped", func(t *testing.T) {
		f := newRouterFixture("")
		ingestor := &MockIngestor{}
		d := NewDispatcher(f.router, ingestor, nil, zap.NewNop())

		require.NoError(t, d.Dispatch(context.Background(), tgbotapi.Update{EditedMessage: &tgbotapi.Message{Text: "x"}}))

		ingestor.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})
}
