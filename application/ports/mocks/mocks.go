// Package mocks provides testify mocks for the application ports.
package mocks

import (
	"context"
	"time"

	"bettersaved/application/ports"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockProfileRepository mocks ports.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Get(ctx context.Context, userID string) (*entities.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*entities.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileRepository) Upsert(ctx context.Context, profile *entities.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) SetCredential(ctx context.Context, userID, credential string) error {
	args := m.Called(ctx, userID, credential)
	return args.Error(0)
}

func (m *MockProfileRepository) SetResources(ctx context.Context, userID string, rs entities.ResourceSet) error {
	args := m.Called(ctx, userID, rs)
	return args.Error(0)
}

func (m *MockProfileRepository) ClearCredential(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockProfileRepository) MarkConnectMessageShown(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockProfileRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockWorkspace mocks ports.Workspace
type MockWorkspace struct {
	mock.Mock
}

func (m *MockWorkspace) FindFolder(ctx context.Context, name, parentID string) (*ports.Folder, error) {
	args := m.Called(ctx, name, parentID)
	if args.Get(0) != nil {
		return args.Get(0).(*ports.Folder), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkspace) GetFolder(ctx context.Context, id string) (*ports.Folder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*ports.Folder), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkspace) CreateFolder(ctx context.Context, name, parentID string) (*ports.Folder, error) {
	args := m.Called(ctx, name, parentID)
	if args.Get(0) != nil {
		return args.Get(0).(*ports.Folder), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkspace) UploadFile(ctx context.Context, req ports.UploadRequest) (*ports.UploadedFile, error) {
	args := m.Called(ctx, req)
	if args.Get(0) != nil {
		return args.Get(0).(*ports.UploadedFile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkspace) FindSpreadsheet(ctx context.Context, name, parentID string) (*ports.Ledger, error) {
	args := m.Called(ctx, name, parentID)
	if args.Get(0) != nil {
		return args.Get(0).(*ports.Ledger), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkspace) CreateLedger(ctx context.Context, spec ports.LedgerSpec) (*ports.Ledger, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) != nil {
		return args.Get(0).(*ports.Ledger), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkspace) AppendRow(ctx context.Context, ledgerID, sheetName string, values []interface{}) (string, error) {
	args := m.Called(ctx, ledgerID, sheetName, values)
	return args.String(0), args.Error(1)
}

// MockWorkspaceFactory mocks ports.WorkspaceFactory
type MockWorkspaceFactory struct {
	mock.Mock
}

func (m *MockWorkspaceFactory) Open(ctx context.Context, credential string) (ports.Workspace, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) != nil {
		return args.Get(0).(ports.Workspace), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessenger mocks ports.Messenger
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) Send(ctx context.Context, chatID int64, text string) (entities.MessageRef, error) {
	args := m.Called(ctx, chatID, text)
	return args.Get(0).(entities.MessageRef), args.Error(1)
}

func (m *MockMessenger) Reply(ctx context.Context, chatID int64, replyTo int, text string) (entities.MessageRef, error) {
	args := m.Called(ctx, chatID, replyTo, text)
	return args.Get(0).(entities.MessageRef), args.Error(1)
}

func (m *MockMessenger) Edit(ctx context.Context, ref entities.MessageRef, text string) error {
	args := m.Called(ctx, ref, text)
	return args.Error(0)
}

func (m *MockMessenger) Delete(ctx context.Context, ref entities.MessageRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// MockContentFetcher mocks ports.ContentFetcher
type MockContentFetcher struct {
	mock.Mock
}

func (m *MockContentFetcher) Fetch(ctx context.Context, file entities.FileRef) ([]byte, error) {
	args := m.Called(ctx, file)
	if args.Get(0) != nil {
		return args.Get(0).([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEventPublisher mocks ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

// FixedClock always returns the same instant
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
