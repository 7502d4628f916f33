package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
	pkgerrors "bettersaved/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *MockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *MockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *MockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

var now = time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)

func keyOf(av map[string]types.AttributeValue) string {
	return av["PK"].(*types.AttributeValueMemberS).Value + "|" + av["SK"].(*types.AttributeValueMemberS).Value
}

func TestProfileRepository_UpsertThenGet(t *testing.T) {
	ctx := context.Background()
	api := &MockAPI{}
	repo := NewProfileRepository(api, "bettersaved", zap.NewNop())

	p, err := entities.NewProfile(42, "Ada", "", now)
	require.NoError(t, err)
	p.Credential = `{"refresh_token":"r"}`
	p.TypeFolderIDs = map[valueobjects.FolderClass]string{valueobjects.FolderClassPDF: "pdf-folder"}

	// Arrange: capture the written item and serve it back
	var stored map[string]types.AttributeValue
	api.On("PutItem", ctx, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		stored = in.Item
		return *in.TableName == "bettersaved"
	})).Return(&dynamodb.PutItemOutput{}, nil)

	// Act
	require.NoError(t, repo.Upsert(ctx, p))
	api.On("GetItem", ctx, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return keyOf(in.Key) == "USER#user_42|PROFILE" && *in.ConsistentRead
	})).Return(&dynamodb.GetItemOutput{Item: stored}, nil)
	got, err := repo.Get(ctx, "user_42")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "USER#user_42|PROFILE", keyOf(stored))
	assert.Equal(t, p.Credential, got.Credential)
	assert.Equal(t, "pdf-folder", got.TypeFolderIDs[valueobjects.FolderClassPDF])
	assert.True(t, got.CreatedAt.Equal(now))

	var raw profileItem
	require.NoError(t, attributevalue.UnmarshalMap(stored, &raw))
	assert.Equal(t, profileEntityType, raw.EntityType)
	api.AssertExpectations(t)
}

func TestProfileRepository_GetMissing(t *testing.T) {
	api := &MockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewProfileRepository(api, "t", zap.NewNop()).Get(context.Background(), "user_1")

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestProfileRepository_PartialUpdates(t *testing.T) {
	condFailed := &types.ConditionalCheckFailedException{}

	tests := []struct {
		name      string
		updateErr error
		act       func(r *ProfileRepository) error
		check     func(t *testing.T, err error)
	}{
		{
			name:      "set credential on missing profile",
			updateErr: condFailed,
			act:       func(r *ProfileRepository) error { return r.SetCredential(context.Background(), "user_1", "{}") },
			check:     func(t *testing.T, err error) { assert.True(t, pkgerrors.IsNotFound(err)) },
		},
		{
			name:      "clear credential on missing profile",
			updateErr: condFailed,
			act:       func(r *ProfileRepository) error { return r.ClearCredential(context.Background(), "user_1") },
			check:     func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:      "mark shown on missing profile",
			updateErr: condFailed,
			act:       func(r *ProfileRepository) error { return r.MarkConnectMessageShown(context.Background(), "user_1") },
			check:     func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:      "throttled",
			updateErr: errors.New("ProvisionedThroughputExceededException"),
			act:       func(r *ProfileRepository) error { return r.ClearCredential(context.Background(), "user_1") },
			check: func(t *testing.T, err error) {
				assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockAPI{}
			api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
				return in.ConditionExpression != nil && keyOf(in.Key) == "USER#user_1|PROFILE"
			})).Return(nil, tt.updateErr)
			repo := NewProfileRepository(api, "t", zap.NewNop())

			tt.check(t, tt.act(repo))
			api.AssertExpectations(t)
		})
	}
}

func TestProfileRepository_UpsertRejectsBadID(t *testing.T) {
	api := &MockAPI{}
	err := NewProfileRepository(api, "t", zap.NewNop()).Upsert(context.Background(), &entities.Profile{UserID: "bob"})

	assert.True(t, pkgerrors.IsValidation(err))
	api.AssertNotCalled(t, "PutItem", mock.Anything, mock.Anything)
}

func TestProfileRepository_SetResources(t *testing.T) {
	rs := entities.ResourceSet{
		RootFolderID:  "root",
		TypeFolderIDs: map[valueobjects.FolderClass]string{valueobjects.FolderClassImages: "img"},
		LedgerID:      "ledger",
	}

	tests := []struct {
		name      string
		updateErr error
		check     func(t *testing.T, err error)
	}{
		{name: "connected", check: func(t *testing.T, err error) { assert.NoError(t, err) }},
		{
			name:      "missing or disconnected",
			updateErr: &types.ConditionalCheckFailedException{},
			check:     func(t *testing.T, err error) { assert.True(t, pkgerrors.IsNotConnected(err)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockAPI{}
			api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
				names := make(map[string]bool, len(in.ExpressionAttributeNames))
				for _, n := range in.ExpressionAttributeNames {
					names[n] = true
				}
				// the credential is only read by the condition; Name and friends are untouched
				return keyOf(in.Key) == "USER#user_1|PROFILE" &&
					in.ConditionExpression != nil &&
					names["Credential"] && names["RootFolderID"] && names["TypeFolderIDs"] &&
					!names["Name"] && !names["TelegramID"]
			})).Return(&dynamodb.UpdateItemOutput{}, tt.updateErr)
			repo := NewProfileRepository(api, "t", zap.NewNop())

			tt.check(t, repo.SetResources(context.Background(), "user_1", rs))
			api.AssertExpectations(t)
		})
	}
}
