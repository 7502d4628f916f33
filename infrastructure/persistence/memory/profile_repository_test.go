package memory

import (
	"context"
	"testing"
	"time"

	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
	pkgerrors "bettersaved/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository()

	// Arrange
	profile, err := entities.NewProfile(42, "Ada", "", time.Now())
	require.NoError(t, err)
	profile.TypeFolderIDs = map[valueobjects.FolderClass]string{valueobjects.FolderClassImages: "img"}

	// Act
	require.NoError(t, repo.Upsert(ctx, profile))
	require.NoError(t, repo.SetCredential(ctx, "user_42", `{"token":"t"}`))
	require.NoError(t, repo.MarkConnectMessageShown(ctx, "user_42"))
	got, err := repo.Get(ctx, "user_42")

	// Assert
	require.NoError(t, err)
	assert.True(t, got.IsConnected())
	assert.True(t, got.ConnectMessageShown)
	assert.Equal(t, "img", got.TypeFolderIDs[valueobjects.FolderClassImages])

	require.NoError(t, repo.ClearCredential(ctx, "user_42"))
	got, err = repo.Get(ctx, "user_42")
	require.NoError(t, err)
	assert.False(t, got.IsConnected())

	require.NoError(t, repo.Delete(ctx, "user_42"))
	_, err = repo.Get(ctx, "user_42")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestProfileRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository()
	profile, err := entities.NewProfile(1, "", "", time.Now())
	require.NoError(t, err)
	profile.TypeFolderIDs = map[valueobjects.FolderClass]string{valueobjects.FolderClassPDF: "pdf"}
	require.NoError(t, repo.Upsert(ctx, profile))

	profile.TypeFolderIDs[valueobjects.FolderClassPDF] = "mutated"
	got, err := repo.Get(ctx, "user_1")
	require.NoError(t, err)
	got.LedgerID = "changed"

	again, err := repo.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "pdf", again.TypeFolderIDs[valueobjects.FolderClassPDF])
	assert.Empty(t, again.LedgerID)
}

func TestProfileRepository_IdempotentRemovals(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository()

	assert.NoError(t, repo.ClearCredential(ctx, "user_9"))
	assert.NoError(t, repo.Delete(ctx, "user_9"))
	assert.NoError(t, repo.MarkConnectMessageShown(ctx, "user_9"))
	assert.Error(t, repo.SetCredential(ctx, "user_9", "x"))
	assert.Equal(t, 0, repo.Count())
}

func TestProfileRepository_SetResourcesNeedsConnection(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository()
	rs := entities.ResourceSet{RootFolderID: "root", LedgerID: "ledger"}

	assert.True(t, pkgerrors.IsNotConnected(repo.SetResources(ctx, "user_3", rs)), "no profile")

	profile, err := entities.NewProfile(3, "Ada", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, profile))
	assert.True(t, pkgerrors.IsNotConnected(repo.SetResources(ctx, "user_3", rs)), "no credential")

	require.NoError(t, repo.SetCredential(ctx, "user_3", `{"token":"t"}`))
	require.NoError(t, repo.SetResources(ctx, "user_3", rs))
	got, err := repo.Get(ctx, "user_3")
	require.NoError(t, err)
	assert.Equal(t, `{"token":"t"}`, got.Credential)
	assert.True(t, got.Resources().Complete())
}
