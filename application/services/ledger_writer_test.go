package services

import (
	"context"
	"errors"
	"testing"

	"bettersaved/application/ports/fakes"
	"bettersaved/application/ports/mocks"
	"bettersaved/domain/config"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
	pkgerrors "bettersaved/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLedgerWriter_BuildRow(t *testing.T) {
	writer := NewLedgerWriter(mocks.FixedClock{At: testNow}, config.DefaultDomainConfig(), zap.NewNop())
	link := "https://drive.google.com/file/d/file-1/view"

	tests := []struct {
		name    string
		item    entities.ContentItem
		fileURL string
		want    entities.LedgerRow
	}{
		{
			name: "plain text",
			item: entities.ContentItem{Category: valueobjects.CategoryText, Text: "buy milk"},
			want: entities.LedgerRow{Timestamp: testNow, Source: "Telegram Bot Chat", Category: "None", Content: "buy milk"},
		},
		{
			name: "forwarded text with a known sender",
			item: entities.ContentItem{Category: valueobjects.CategoryText, Text: "hi", IsForwarded: true, ForwardedFrom: "Grace"},
			want: entities.LedgerRow{Timestamp: testNow, Source: "Forwarded from Grace", Category: "Forwarded", Content: "hi", ForwardedFrom: "Grace"},
		},
		{
			name: "forwarded text from a hidden sender",
			item: entities.ContentItem{Category: valueobjects.CategoryText, Text: "hi", IsForwarded: true},
			want: entities.LedgerRow{Timestamp: testNow, Source: "Forwarded message", Category: "Forwarded", Content: "hi"},
		},
		{
			name:    "photo without caption",
			item:    entities.ContentItem{Category: valueobjects.CategoryImage},
			fileURL: link,
			want:    entities.LedgerRow{Timestamp: testNow, Source: "Telegram Bot Chat", Category: "Image", Content: "<Image>", Link: link},
		},
		{
			name:    "forwarded pdf keeps its category",
			item:    entities.ContentItem{Category: valueobjects.CategoryDocumentPdf, Caption: "tax", IsForwarded: true, ForwardedFrom: "Bank"},
			fileURL: link,
			want:    entities.LedgerRow{Timestamp: testNow, Source: "Forwarded from Bank", Category: "PDF Document", Content: "tax", ForwardedFrom: "Bank", Link: link},
		},
		{
			name:    "voice placeholder",
			item:    entities.ContentItem{Category: valueobjects.CategoryVoice},
			fileURL: link,
			want:    entities.LedgerRow{Timestamp: testNow, Source: "Telegram Bot Chat", Category: "Voice Message", Content: "<Voice Message>", Link: link},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, writer.BuildRow(tt.item, tt.fileURL))
		})
	}
}

func TestLedgerWriter_AppendRow(t *testing.T) {
	ctx := context.Background()
	ws := fakes.NewWorkspace()
	ledgerID := ws.SeedLedger("BetterSavedMessages", "")
	writer := NewLedgerWriter(mocks.FixedClock{At: testNow}, config.DefaultDomainConfig(), zap.NewNop())
	session := &Session{Workspace: ws, Resources: entities.ResourceSet{RootFolderID: "root", LedgerID: ledgerID}}

	// Act
	result, err := writer.AppendRow(ctx, session, entities.ContentItem{Category: valueobjects.CategoryText, Text: "note"}, "")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Messages!A1:F1", result.UpdatedRange)
	assert.Equal(t, [][]interface{}{{"2024-03-09 14:30:05", "Telegram Bot Chat", "None", "note", "", ""}}, ws.Rows(ledgerID))
}

func TestLedgerWriter_AppendFailure(t *testing.T) {
	// Arrange
	ws := &mocks.MockWorkspace{}
	ws.On("AppendRow", mock.Anything, "sheet-9", "Messages", mock.Anything).Return("", errors.New("429 rate limited"))
	writer := NewLedgerWriter(mocks.FixedClock{At: testNow}, config.DefaultDomainConfig(), zap.NewNop())
	session := &Session{Workspace: ws, Resources: entities.ResourceSet{RootFolderID: "root", LedgerID: "sheet-9"}}

	// Act
	result, err := writer.AppendRow(context.Background(), session, entities.ContentItem{Category: valueobjects.CategoryImage}, "url")

	// Assert
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsWriteFailed(err))
	ws.AssertExpectations(t)
}
