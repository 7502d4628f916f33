package dynamodb

import (
	"context"
	"errors"
	"time"

	"bettersaved/application/ports"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
	pkgerrors "bettersaved/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	profileSK         = "PROFILE"
	profileEntityType = "Profile"
)

// API is the subset of the DynamoDB client used by the repository
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ProfileRepository implements ports.ProfileRepository on a single DynamoDB table
type ProfileRepository struct {
	client    API
	tableName string
	now       func() time.Time
	logger    *zap.Logger
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(client API, tableName string, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		client:    client,
		tableName: tableName,
		now:       time.Now,
		logger:    logger,
	}
}

// profileItem represents the DynamoDB item structure for a profile
type profileItem struct {
	PK                  string            `dynamodbav:"PK"`
	SK                  string            `dynamodbav:"SK"`
	EntityType          string            `dynamodbav:"EntityType"`
	UserID              string            `dynamodbav:"UserID"`
	TelegramID          int64             `dynamodbav:"TelegramID"`
	Name                string            `dynamodbav:"Name"`
	Language            string            `dynamodbav:"Language"`
	Credential          string            `dynamodbav:"Credential,omitempty"`
	RootFolderID        string            `dynamodbav:"RootFolderID,omitempty"`
	RootFolderURL       string            `dynamodbav:"RootFolderURL,omitempty"`
	TypeFolderIDs       map[string]string `dynamodbav:"TypeFolderIDs,omitempty"`
	LedgerID            string            `dynamodbav:"LedgerID,omitempty"`
	LedgerURL           string            `dynamodbav:"LedgerURL,omitempty"`
	ConnectMessageShown bool              `dynamodbav:"ConnectMessageShown"`
	CreatedAt           string            `dynamodbav:"CreatedAt"`
	UpdatedAt           string            `dynamodbav:"UpdatedAt"`
}

func profileKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "USER#" + userID},
		"SK": &types.AttributeValueMemberS{Value: profileSK},
	}
}

func toItem(p *entities.Profile) profileItem {
	item := profileItem{
		PK:                  "USER#" + p.UserID,
		SK:                  profileSK,
		EntityType:          profileEntityType,
		UserID:              p.UserID,
		TelegramID:          p.TelegramID,
		Name:                p.Name,
		Language:            p.Language,
		Credential:          p.Credential,
		RootFolderID:        p.RootFolderID,
		RootFolderURL:       p.RootFolderURL,
		LedgerID:            p.LedgerID,
		LedgerURL:           p.LedgerURL,
		ConnectMessageShown: p.ConnectMessageShown,
		CreatedAt:           p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:           p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if len(p.TypeFolderIDs) > 0 {
		item.TypeFolderIDs = make(map[string]string, len(p.TypeFolderIDs))
		for class, id := range p.TypeFolderIDs {
			item.TypeFolderIDs[string(class)] = id
		}
	}
	return item
}

func (i profileItem) toEntity() *entities.Profile {
	p := &entities.Profile{
		UserID:              i.UserID,
		TelegramID:          i.TelegramID,
		Name:                i.Name,
		Language:            i.Language,
		Credential:          i.Credential,
		RootFolderID:        i.RootFolderID,
		RootFolderURL:       i.RootFolderURL,
		LedgerID:            i.LedgerID,
		LedgerURL:           i.LedgerURL,
		ConnectMessageShown: i.ConnectMessageShown,
	}
	if len(i.TypeFolderIDs) > 0 {
		p.TypeFolderIDs = make(map[valueobjects.FolderClass]string, len(i.TypeFolderIDs))
		for class, id := range i.TypeFolderIDs {
			p.TypeFolderIDs[valueobjects.FolderClass(class)] = id
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, i.CreatedAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, i.UpdatedAt)
	return p
}

// Get retrieves a profile with a consistent read
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*entities.Profile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            profileKey(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get_profile", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("profile")
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal_profile", err)
	}
	return item.toEntity(), nil
}

// Upsert writes the whole record with one PutItem
func (r *ProfileRepository) Upsert(ctx context.Context, p *entities.Profile) error {
	if _, err := valueobjects.ParseUserID(p.UserID); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	av, err := attributevalue.MarshalMap(toItem(p))
	if err != nil {
		return pkgerrors.NewDatabaseError("marshal_profile", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("put_profile", err)
	}

	r.logger.Debug("Profile saved", zap.String("userID", p.UserID))
	return nil
}

// SetCredential stores the credential of an existing profile
func (r *ProfileRepository) SetCredential(ctx context.Context, userID, credential string) error {
	update := expression.Set(expression.Name("Credential"), expression.Value(credential))
	err := r.update(ctx, "set_credential", userID, update)
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return pkgerrors.NewNotFoundError("profile")
	}
	return err
}

// ClearCredential removes the credential; a missing profile is not an error
func (r *ProfileRepository) ClearCredential(ctx context.Context, userID string) error {
	update := expression.Remove(expression.Name("Credential"))
	return r.ignoreMissing(r.update(ctx, "clear_credential", userID, update))
}

// SetResources stores the resource handles of a profile that still holds a credential
func (r *ProfileRepository) SetResources(ctx context.Context, userID string, rs entities.ResourceSet) error {
	update := expression.Set(expression.Name("RootFolderID"), expression.Value(rs.RootFolderID)).
		Set(expression.Name("RootFolderURL"), expression.Value(rs.RootFolderURL)).
		Set(expression.Name("LedgerID"), expression.Value(rs.LedgerID)).
		Set(expression.Name("LedgerURL"), expression.Value(rs.LedgerURL))
	if len(rs.TypeFolderIDs) > 0 {
		typeFolders := make(map[string]string, len(rs.TypeFolderIDs))
		for class, id := range rs.TypeFolderIDs {
			typeFolders[string(class)] = id
		}
		update = update.Set(expression.Name("TypeFolderIDs"), expression.Value(typeFolders))
	} else {
		update = update.Remove(expression.Name("TypeFolderIDs"))
	}

	err := r.update(ctx, "set_resources", userID, update,
		expression.AttributeExists(expression.Name("Credential")),
		expression.Name("Credential").NotEqual(expression.Value("")),
	)
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return pkgerrors.NewNotConnectedError(userID)
	}
	return err
}

// MarkConnectMessageShown sets the connect flag; a missing profile is not an error
func (r *ProfileRepository) MarkConnectMessageShown(ctx context.Context, userID string) error {
	update := expression.Set(expression.Name("ConnectMessageShown"), expression.Value(true))
	return r.ignoreMissing(r.update(ctx, "mark_connect_shown", userID, update))
}

// Delete removes the profile
func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       profileKey(userID),
	}); err != nil {
		return pkgerrors.NewDatabaseError("delete_profile", err)
	}
	return nil
}

// update applies a partial update to an existing item and bumps UpdatedAt.
// A missing item, or one failing extra, fails the condition instead of being created bare.
func (r *ProfileRepository) update(ctx context.Context, op, userID string, update expression.UpdateBuilder, extra ...expression.ConditionBuilder) error {
	update = update.Set(expression.Name("UpdatedAt"), expression.Value(r.now().UTC().Format(time.RFC3339Nano)))
	cond := expression.AttributeExists(expression.Name("PK"))
	for _, c := range extra {
		cond = cond.And(c)
	}
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(cond).
		Build()
	if err != nil {
		return pkgerrors.NewDatabaseError(op, err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       profileKey(userID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return err
		}
		return pkgerrors.NewDatabaseError(op, err)
	}
	return nil
}

func (r *ProfileRepository) ignoreMissing(err error) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	return err
}
