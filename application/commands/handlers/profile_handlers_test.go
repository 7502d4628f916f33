package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"bettersaved/application/commands"
	"bettersaved/application/commands/bus"
	"bettersaved/application/ports/fakes"
	"bettersaved/application/ports/mocks"
	"bettersaved/application/queries"
	querybus "bettersaved/application/queries/bus"
	"bettersaved/application/services"
	"bettersaved/domain/config"
	"bettersaved/domain/core/entities"
	"bettersaved/infrastructure/persistence/memory"
	pkgerrors "bettersaved/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)

type fixture struct {
	repo     *memory.ProfileRepository
	ws       *fakes.Workspace
	commands *bus.CommandBus
	queries  *querybus.QueryBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     memory.NewProfileRepository(),
		ws:       fakes.NewWorkspace(),
		commands: bus.NewCommandBus(bus.LoggingMiddleware(zap.NewNop())),
		queries:  querybus.NewQueryBus(zap.NewNop()),
	}
	clock := mocks.FixedClock{At: now}
	resolver := services.NewResourceResolver(f.repo, &fakes.Factory{Workspace: f.ws}, nil, clock, config.DefaultDomainConfig(), zap.NewNop())
	require.NoError(t, NewProfileHandlers(f.repo, resolver, clock, zap.NewNop()).RegisterAll(f.commands))
	require.NoError(t, f.queries.Register(queries.GetProfileQuery{}, queries.NewGetProfileHandler(f.repo)))
	return f
}

func (f *fixture) summary(t *testing.T, userID string) *queries.ProfileSummary {
	t.Helper()
	result, err := f.queries.Ask(context.Background(), queries.GetProfileQuery{UserID: userID})
	require.NoError(t, err)
	return result.(*queries.ProfileSummary)
}

func TestEnsureProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Act
	require.NoError(t, f.commands.Send(ctx, commands.EnsureProfileCommand{TelegramID: 7, Name: "Ada"}))
	require.NoError(t, f.commands.Send(ctx, commands.EnsureProfileCommand{TelegramID: 7, Name: "Ada L."}))

	// Assert
	summary := f.summary(t, "user_7")
	assert.Equal(t, "Ada L.", summary.Name)
	assert.Equal(t, "en", summary.Language)
	assert.False(t, summary.Connected)
	assert.Equal(t, 1, f.repo.Count())
}

func TestEnsureProfile_KeepsCredentialAndResources(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := entities.NewProfile(7, "Ada", "", now)
	require.NoError(t, err)
	p.Credential = `{"access_token":"x"}`
	p.LedgerURL = "https://docs.google.com/spreadsheets/d/l1"
	require.NoError(t, f.repo.Upsert(ctx, p))

	require.NoError(t, f.commands.Send(ctx, commands.EnsureProfileCommand{TelegramID: 7, Name: "Ada"}))

	summary := f.summary(t, "user_7")
	assert.True(t, summary.Connected)
	assert.Equal(t, p.LedgerURL, summary.LedgerURL)
}

func TestCommandValidation(t *testing.T) {
	tests := []struct {
		name string
		cmd  bus.Command
	}{
		{name: "missing telegram id", cmd: commands.EnsureProfileCommand{Name: "x"}},
		{name: "bad user id", cmd: commands.DisconnectStorageCommand{UserID: "42"}},
		{name: "credential not json", cmd: commands.ConnectStorageCommand{UserID: "user_1", Credential: "token"}},
		{name: "empty repair", cmd: commands.RepairResourcesCommand{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.commands.Send(context.Background(), tt.cmd)
			assert.True(t, errors.Is(err, bus.ErrValidationFailed))
		})
	}
}

func TestConnectRepairDisconnectDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.commands.Send(ctx, commands.EnsureProfileCommand{TelegramID: 9, Name: "Grace"}))

	// Repair before connecting is refused
	err := f.commands.Send(ctx, commands.RepairResourcesCommand{UserID: "user_9"})
	assert.True(t, pkgerrors.IsNotConnected(err))

	require.NoError(t, f.commands.Send(ctx, commands.ConnectStorageCommand{UserID: "user_9", Credential: `{"refresh_token":"r"}`}))
	require.NoError(t, f.commands.Send(ctx, commands.RepairResourcesCommand{UserID: "user_9"}))

	summary := f.summary(t, "user_9")
	assert.True(t, summary.Connected)
	assert.True(t, summary.ResourcesComplete)
	assert.NotEmpty(t, summary.FolderURL)
	assert.Equal(t, 1, f.ws.LedgerCreates)

	// a second repair finds the existing ledger
	require.NoError(t, f.commands.Send(ctx, commands.RepairResourcesCommand{UserID: "user_9"}))
	assert.Equal(t, 1, f.ws.LedgerCreates)

	require.NoError(t, f.commands.Send(ctx, commands.DisconnectStorageCommand{UserID: "user_9"}))
	assert.False(t, f.summary(t, "user_9").Connected)

	require.NoError(t, f.commands.Send(ctx, commands.DeleteProfileCommand{UserID: "user_9"}))
	_, err = f.queries.Ask(ctx, queries.GetProfileQuery{UserID: "user_9"})
	assert.True(t, pkgerrors.IsNotFound(err))

	// deleting twice is fine
	assert.NoError(t, f.commands.Send(ctx, commands.DeleteProfileCommand{UserID: "user_9"}))
}
