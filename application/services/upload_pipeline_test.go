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
	"bettersaved/infrastructure/persistence/cache"
	pkgerrors "bettersaved/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileName(t *testing.T) {
	layout := config.DefaultDomainConfig().FileTimestampLayout

	tests := []struct {
		name string
		item entities.ContentItem
		want string
	}{
		{
			name: "photo",
			item: entities.ContentItem{Category: valueobjects.CategoryImage, UniqueFileID: "AQAD"},
			want: "photo_20240309_143005_AQAD.jpg",
		},
		{
			name: "document keeps source name",
			item: entities.ContentItem{Category: valueobjects.CategoryDocumentPdf, OriginalFileName: "invoice.pdf", UniqueFileID: "u"},
			want: "invoice.pdf",
		},
		{
			name: "png document image",
			item: entities.ContentItem{Category: valueobjects.CategoryDocumentImage, MimeType: "image/png", UniqueFileID: "u"},
			want: "image_20240309_143005_u.png",
		},
		{
			name: "jpeg document image",
			item: entities.ContentItem{Category: valueobjects.CategoryDocumentImage, MimeType: "image/jpeg", UniqueFileID: "u"},
			want: "image_20240309_143005_u.jpg",
		},
		{
			name: "ogg document audio",
			item: entities.ContentItem{Category: valueobjects.CategoryDocumentAudio, MimeType: "application/ogg", UniqueFileID: "u"},
			want: "audio_20240309_143005_u.ogg",
		},
		{
			name: "unknown document audio",
			item: entities.ContentItem{Category: valueobjects.CategoryDocumentAudio, MimeType: "audio/x-unknown", UniqueFileID: "u"},
			want: "audio_20240309_143005_u.mp3",
		},
		{
			name: "misc document",
			item: entities.ContentItem{Category: valueobjects.CategoryDocumentMisc, UniqueFileID: "u"},
			want: "file_20240309_143005_u",
		},
		{
			name: "audio with performer and title",
			item: entities.ContentItem{Category: valueobjects.CategoryAudio, Performer: "Nina", Title: "Sinnerman", OriginalFileName: "x.mp3"},
			want: "Nina - Sinnerman.mp3",
		},
		{
			name: "audio with title only",
			item: entities.ContentItem{Category: valueobjects.CategoryAudio, Title: "Sinnerman"},
			want: "Sinnerman.mp3",
		},
		{
			name: "audio with file name only",
			item: entities.ContentItem{Category: valueobjects.CategoryAudio, OriginalFileName: "track.m4a"},
			want: "track.m4a",
		},
		{
			name: "bare audio",
			item: entities.ContentItem{Category: valueobjects.CategoryAudio, UniqueFileID: "u"},
			want: "audio_20240309_143005_u.mp3",
		},
		{
			name: "voice",
			item: entities.ContentItem{Category: valueobjects.CategoryVoice, UniqueFileID: "u"},
			want: "voice_20240309_143005_u.ogg",
		},
		{
			name: "video note",
			item: entities.ContentItem{Category: valueobjects.CategoryCircularVideo, UniqueFileID: "u"},
			want: "video_note_20240309_143005_u.mp4",
		},
		{
			name: "video without name",
			item: entities.ContentItem{Category: valueobjects.CategoryVideo, UniqueFileID: "u"},
			want: "video_20240309_143005_u.mp4",
		},
		{
			name: "falls back to item id",
			item: entities.ContentItem{Category: valueobjects.CategoryVoice, ItemID: "msg-1-2"},
			want: "voice_20240309_143005_msg-1-2.ogg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.item, testNow, layout))
		})
	}
}

type pipelineFixture struct {
	ws       *fakes.Workspace
	fetcher  *fakes.Fetcher
	pipeline *UploadPipeline
	session  *Session
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	ws := fakes.NewWorkspace()
	rootID := ws.SeedFolder("BetterSaved", "")
	imagesID := ws.SeedFolder("Images", rootID)
	ledgerID := ws.SeedLedger("BetterSavedMessages", rootID)

	fetcher := &fakes.Fetcher{}
	folderCache := cache.NewMemoryCache(100, 0)
	t.Cleanup(folderCache.Stop)

	return &pipelineFixture{
		ws:       ws,
		fetcher:  fetcher,
		pipeline: NewUploadPipeline(fetcher, folderCache, mocks.FixedClock{At: testNow}, config.DefaultDomainConfig(), zap.NewNop()),
		session: &Session{
			Workspace: ws,
			Resources: entities.ResourceSet{
				RootFolderID:  rootID,
				TypeFolderIDs: map[valueobjects.FolderClass]string{valueobjects.FolderClassImages: imagesID},
				LedgerID:      ledgerID,
			},
		},
	}
}

func TestUploadPipeline_UploadsIntoMonthFolder(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	imagesID := f.session.Resources.TypeFolderIDs[valueobjects.FolderClassImages]
	item := entities.ContentItem{
		Category:       valueobjects.CategoryImage,
		MimeType:       "image/jpeg",
		UniqueFileID:   "AQAD",
		RawBytesHandle: entities.FileRef{ID: "file-handle", UniqueID: "AQAD"},
	}

	// Act
	result, err := f.pipeline.Upload(ctx, f.session, item)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, f.ws.FolderCount("2024-03", imagesID))
	assert.Equal(t, []string{"photo_20240309_143005_AQAD.jpg"}, f.ws.FilesIn(result.FolderID))
	assert.Contains(t, result.FileURL, "https://drive.google.com/file/d/")
	assert.Equal(t, []entities.FileRef{item.RawBytesHandle}, f.fetcher.Fetched)
}

func TestUploadPipeline_ReusesMonthFolder(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	item := entities.ContentItem{Category: valueobjects.CategoryImage, RawBytesHandle: entities.FileRef{ID: "a"}}

	for i := 0; i < 3; i++ {
		_, err := f.pipeline.Upload(ctx, f.session, item)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.ws.FolderCreates)
	assert.Equal(t, 3, f.ws.Uploads)
}

func TestUploadPipeline_CreatesMissingTypeFolder(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	item := entities.ContentItem{Category: valueobjects.CategoryDocumentMisc, OriginalFileName: "ticket.txt", RawBytesHandle: entities.FileRef{ID: "t"}}

	result, err := f.pipeline.Upload(ctx, f.session, item)

	require.NoError(t, err)
	assert.Equal(t, 1, f.ws.FolderCount("Tickets", f.session.Resources.RootFolderID))
	assert.Equal(t, []string{"ticket.txt"}, f.ws.FilesIn(result.FolderID))
}

func TestUploadPipeline_Failures(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(f *pipelineFixture)
		item    entities.ContentItem
	}{
		{
			name:    "provider rejects upload",
			arrange: func(f *pipelineFixture) { f.ws.UploadErr = errors.New("503 backend error") },
			item:    entities.ContentItem{Category: valueobjects.CategoryImage, RawBytesHandle: entities.FileRef{ID: "a"}},
		},
		{
			name:    "content cannot be fetched",
			arrange: func(f *pipelineFixture) { f.fetcher.Err = errors.New("file is too big") },
			item:    entities.ContentItem{Category: valueobjects.CategoryImage, RawBytesHandle: entities.FileRef{ID: "a"}},
		},
		{
			name:    "month folder cannot be created",
			arrange: func(f *pipelineFixture) { f.ws.CreateErr = errors.New("forbidden") },
			item:    entities.ContentItem{Category: valueobjects.CategoryImage, RawBytesHandle: entities.FileRef{ID: "a"}},
		},
		{
			name:    "text has nothing to upload",
			arrange: func(f *pipelineFixture) {},
			item:    entities.ContentItem{Category: valueobjects.CategoryText, Text: "hi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipelineFixture(t)
			tt.arrange(f)

			result, err := f.pipeline.Upload(context.Background(), f.session, tt.item)

			assert.Nil(t, result)
			assert.True(t, pkgerrors.IsUploadFailed(err))
			assert.Zero(t, f.ws.Uploads)
		})
	}
}

func TestUploadPipeline_DoesNotRetry(t *testing.T) {
	f := newPipelineFixture(t)
	f.ws.UploadErr = errors.New("connection reset")
	item := entities.ContentItem{Category: valueobjects.CategoryImage, RawBytesHandle: entities.FileRef{ID: "a"}}

	_, err := f.pipeline.Upload(context.Background(), f.session, item)

	require.Error(t, err)
	assert.Len(t, f.fetcher.Fetched, 1)
}

func TestUploadPipeline_FindsFolderAgainAfterFailedUpload(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	item := entities.ContentItem{Category: valueobjects.CategoryImage, RawBytesHandle: entities.FileRef{ID: "a"}}

	// Arrange: the month folder is cached, then the user deletes it in Drive
	first, err := f.pipeline.Upload(ctx, f.session, item)
	require.NoError(t, err)
	f.ws.RemoveFolder(first.FolderID)

	// Act
	_, failed := f.pipeline.Upload(ctx, f.session, item)
	second, err := f.pipeline.Upload(ctx, f.session, item)

	// Assert
	assert.True(t, pkgerrors.IsUploadFailed(failed))
	require.NoError(t, err)
	assert.NotEqual(t, first.FolderID, second.FolderID)
	assert.Equal(t, 2, f.ws.FolderCreates)
	assert.Equal(t, 2, f.ws.Uploads)
}
