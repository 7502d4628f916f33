package services

import (
	"context"
	"errors"
	"testing"

	"bettersaved/application/ports"
	"bettersaved/application/ports/mocks"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.calls++
	return l.allowed, l.err
}

func newIngestion(h *pipelineHarness, limiter *stubLimiter) *IngestionService {
	var l ports.RateLimiter
	if limiter != nil {
		l = limiter
	}
	return NewIngestionService(
		NewClassifier(),
		h.resolver,
		h.saver,
		h.aggregator,
		h.reporter,
		h.repo,
		l,
		nil,
		mocks.FixedClock{At: testNow},
		zap.NewNop(),
	)
}

func textEvent(userID int64, text string) entities.InboundEvent {
	return entities.InboundEvent{
		UserID:     userID,
		UserName:   "Ada",
		ChatID:     userID,
		MessageID:  7,
		Text:       text,
		ReceivedAt: testNow,
		Payload:    entities.TextPayload{},
	}
}

func TestIngestionService_TextRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := newPipelineHarness(t)
	h.connect(t, 1)
	svc := newIngestion(h, nil)

	// Act
	err := svc.Handle(ctx, textEvent(1, "remember the milk"))

	// Assert
	require.NoError(t, err)
	stored, err := h.repo.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t,
		[][]interface{}{{"2024-03-09 14:30:05", "Telegram Bot Chat", "None", "remember the milk", "", ""}},
		h.ws.Rows(stored.LedgerID),
	)
	assert.Zero(t, h.ws.Uploads)

	status := h.messenger.Sent[0].Ref
	assert.Equal(t, "💾 Saving your message...", h.messenger.Sent[0].Text)
	assert.Equal(t, msgSavedText, h.messenger.Text(status))

	h.scheduler.Advance(ctx, h.cfg.MessageDeleteDelay)
	assert.Equal(t, []entities.MessageRef{status}, h.messenger.Deleted)
	assert.Len(t, h.publisher.OfType(events.TypeItemSaved), 1)
}

func TestIngestionService_FailureWithoutDataLoss(t *testing.T) {
	ctx := context.Background()
	h := newPipelineHarness(t)
	h.connect(t, 1)
	svc := newIngestion(h, nil)
	h.ws.AppendErr = errors.New("The caller does not have permission")

	event := entities.InboundEvent{
		UserID:    1,
		ChatID:    1,
		MessageID: 3,
		Payload: entities.DocumentPayload{
			File:     entities.FileRef{ID: "f1", UniqueID: "u1"},
			FileName: "invoice.pdf",
			MimeType: "application/pdf",
		},
	}

	// Act
	var err error
	require.NotPanics(t, func() { err = svc.Handle(ctx, event) })

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, h.ws.Uploads)
	stored, getErr := h.repo.Get(ctx, "user_1")
	require.NoError(t, getErr)
	assert.Empty(t, h.ws.Rows(stored.LedgerID))

	text := h.messenger.Text(h.messenger.Sent[0].Ref)
	assert.Contains(t, text, "⚠️ PDF Document was saved to Google Drive but failed to log in spreadsheet.\nURL: https://")

	failed := h.publisher.OfType(events.TypeItemFailed)
	require.Len(t, failed, 1)
	assert.NotEmpty(t, failed[0].(events.ItemFailed).FileURL)

	// the warning stays visible
	h.scheduler.Advance(ctx, h.cfg.MessageDeleteDelay)
	assert.Empty(t, h.messenger.Deleted)
}

func TestIngestionService_UploadFailure(t *testing.T) {
	ctx := context.Background()
	h := newPipelineHarness(t)
	h.connect(t, 1)
	svc := newIngestion(h, nil)
	h.fetcher.Err = errors.New("file is too big")

	err := svc.Handle(ctx, entities.InboundEvent{
		UserID:    1,
		ChatID:    1,
		MessageID: 4,
		Payload:   entities.VideoPayload{File: entities.FileRef{ID: "v", UniqueID: "vu"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "❌ Failed to save your video. Please try again later.", h.messenger.Text(h.messenger.Sent[0].Ref))
	assert.Zero(t, h.ws.Uploads)
}

func TestIngestionService_ConnectMessageShownOnce(t *testing.T) {
	ctx := context.Background()
	h := newPipelineHarness(t)
	svc := newIngestion(h, nil)

	// Act: an unknown sender writes twice
	require.NoError(t, svc.Handle(ctx, textEvent(42, "first")))
	require.NoError(t, svc.Handle(ctx, textEvent(42, "second")))

	// Assert
	require.Len(t, h.messenger.Sent, 1)
	assert.Equal(t, msgNotConnected, h.messenger.Sent[0].Text)

	profile, err := h.repo.Get(ctx, "user_42")
	require.NoError(t, err)
	assert.True(t, profile.ConnectMessageShown)
	assert.Equal(t, "Ada", profile.Name)
	assert.False(t, profile.IsConnected())
	assert.Zero(t, h.ws.Appends)
}

func TestIngestionService_Unsupported(t *testing.T) {
	ctx := context.Background()
	h := newPipelineHarness(t)
	limiter := &stubLimiter{allowed: true}
	svc := newIngestion(h, limiter)

	err := svc.Handle(ctx, entities.InboundEvent{
		UserID:    5,
		ChatID:    5,
		MessageID: 1,
		Payload:   entities.OtherPayload{Kind: entities.KindSticker},
	})

	require.NoError(t, err)
	require.Len(t, h.messenger.Sent, 1)
	assert.Contains(t, h.messenger.Sent[0].Text, "can't deal with sticker attachments yet")
	assert.Zero(t, h.repo.Count(), "unsupported content never touches the profile store")
	assert.Zero(t, limiter.calls)
}

func TestIngestionService_RateLimited(t *testing.T) {
	tests := []struct {
		name        string
		limiter     *stubLimiter
		wantAppends int
		wantReply   string
	}{
		{
			name:        "denied",
			limiter:     &stubLimiter{allowed: false},
			wantAppends: 0,
			wantReply:   msgRateLimited,
		},
		{
			name:        "limiter error admits",
			limiter:     &stubLimiter{err: errors.New("throttled")},
			wantAppends: 1,
			wantReply:   msgSavingText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newPipelineHarness(t)
			h.connect(t, 1)
			svc := newIngestion(h, tt.limiter)

			require.NoError(t, svc.Handle(ctx, textEvent(1, "hi")))

			assert.Equal(t, tt.wantAppends, h.ws.Appends)
			assert.Equal(t, tt.wantReply, h.messenger.Sent[0].Text)
		})
	}
}

func TestIngestionService_GroupedRecoveryFailureRepliesOnce(t *testing.T) {
	ctx := context.Background()
	h := newPipelineHarness(t)
	h.connect(t, 1)
	h.ws.FindErr = errors.New("drive unavailable")
	svc := newIngestion(h, nil)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, svc.Handle(ctx, entities.InboundEvent{
			UserID:    1,
			ChatID:    1,
			MessageID: 20 + i,
			GroupID:   "G9",
			Payload:   entities.PhotoPayload{File: entities.FileRef{ID: "f" + id, UniqueID: id}},
		}))
	}
	h.scheduler.Advance(ctx, h.cfg.GroupFinalizeDelay)

	recovery := 0
	for _, s := range h.messenger.Sent {
		if s.Text == msgRecoveryFailed {
			recovery++
		}
	}
	assert.Equal(t, 1, recovery)
	assert.Equal(t, "⚠️ Saved 0 of 3 photos. 3 could not be saved, please send them again.", h.messenger.Text(h.messenger.Sent[0].Ref))
	assert.Len(t, h.publisher.OfType(events.TypeItemFailed), 3)
	assert.Equal(t, 0, h.aggregator.OpenGroups())
}

func TestIngestionService_GroupedItemsShareOneStatus(t *testing.T) {
	ctx := context.Background()
	h := newPipelineHarness(t)
	h.connect(t, 1)
	svc := newIngestion(h, nil)

	for i, id := range []string{"a", "b"} {
		require.NoError(t, svc.Handle(ctx, entities.InboundEvent{
			UserID:    1,
			ChatID:    1,
			MessageID: 30 + i,
			GroupID:   "G10",
			Caption:   "trip",
			Payload: entities.DocumentPayload{
				File:     entities.FileRef{ID: "f" + id, UniqueID: id},
				FileName: id + ".pdf",
				MimeType: "application/pdf",
			},
		}))
	}
	h.scheduler.Advance(ctx, h.cfg.GroupFinalizeDelay)

	require.Len(t, h.messenger.Sent, 1)
	assert.Equal(t, "💾 Processing your files...", h.messenger.Sent[0].Text)
	assert.Equal(t, "✅ All 2 files saved to your Google Drive and logged in your spreadsheet!\n\nThis message will disappear in a few seconds.", h.messenger.Text(h.messenger.Sent[0].Ref))
}
