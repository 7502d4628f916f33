package services

import (
	"testing"

	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Classify(t *testing.T) {
	file := entities.FileRef{ID: "file-id", UniqueID: "uniq"}

	tests := []struct {
		name     string
		payload  entities.Payload
		text     string
		want     valueobjects.Category
		wantKind string
	}{
		{name: "photo", payload: entities.PhotoPayload{File: file}, want: valueobjects.CategoryImage},
		{name: "document image", payload: entities.DocumentPayload{File: file, MimeType: "image/png"}, want: valueobjects.CategoryDocumentImage},
		{name: "document pdf", payload: entities.DocumentPayload{File: file, MimeType: "application/pdf"}, want: valueobjects.CategoryDocumentPdf},
		{name: "document audio", payload: entities.DocumentPayload{File: file, MimeType: "audio/mpeg"}, want: valueobjects.CategoryDocumentAudio},
		{name: "document ogg", payload: entities.DocumentPayload{File: file, MimeType: "application/ogg"}, want: valueobjects.CategoryDocumentAudio},
		{name: "document video", payload: entities.DocumentPayload{File: file, MimeType: "video/quicktime"}, want: valueobjects.CategoryDocumentVideo},
		{name: "document misc", payload: entities.DocumentPayload{File: file, MimeType: "application/zip"}, want: valueobjects.CategoryDocumentMisc},
		{name: "document without mime", payload: entities.DocumentPayload{File: file}, want: valueobjects.CategoryDocumentMisc},
		{name: "video", payload: entities.VideoPayload{File: file}, want: valueobjects.CategoryVideo},
		{name: "audio", payload: entities.AudioPayload{File: file}, want: valueobjects.CategoryAudio},
		{name: "voice", payload: entities.VoicePayload{File: file}, want: valueobjects.CategoryVoice},
		{name: "video note", payload: entities.VideoNotePayload{File: file}, want: valueobjects.CategoryCircularVideo},
		{name: "sticker", payload: entities.OtherPayload{Kind: entities.KindSticker}, want: valueobjects.CategoryUnsupported, wantKind: "sticker"},
		{name: "dice", payload: entities.OtherPayload{Kind: entities.KindDice}, want: valueobjects.CategoryUnsupported, wantKind: "dice"},
		{name: "text", payload: entities.TextPayload{}, text: "hello", want: valueobjects.CategoryText},
		{name: "blank text", payload: entities.TextPayload{}, text: "   ", want: valueobjects.CategoryUnsupported, wantKind: UnknownKind},
		{name: "empty", payload: entities.EmptyPayload{}, want: valueobjects.CategoryUnsupported, wantKind: UnknownKind},
		{name: "nil payload", payload: nil, want: valueobjects.CategoryUnsupported, wantKind: UnknownKind},
	}

	classifier := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			event := entities.InboundEvent{UserID: 7, ChatID: 7, MessageID: 1, Text: tt.text, Payload: tt.payload}

			// Act
			item := classifier.Classify(event)

			// Assert
			assert.Equal(t, tt.want, item.Category)
			assert.Equal(t, tt.wantKind, item.UnsupportedKind)
			assert.Equal(t, "user_7", item.SourceUserID)
		})
	}
}

// Every representable event shape maps to exactly one known category.
func TestClassifier_Totality(t *testing.T) {
	file := entities.FileRef{ID: "f", UniqueID: "u"}
	payloads := []entities.Payload{
		nil,
		entities.EmptyPayload{},
		entities.TextPayload{},
		entities.PhotoPayload{File: file},
		entities.VideoPayload{File: file},
		entities.AudioPayload{File: file},
		entities.VoicePayload{File: file},
		entities.VideoNotePayload{File: file},
	}
	for _, mt := range []string{"", "image/jpeg", "application/pdf", "audio/ogg", "application/ogg", "video/mp4", "text/plain"} {
		payloads = append(payloads, entities.DocumentPayload{File: file, MimeType: mt})
	}
	for _, kind := range []string{
		entities.KindSticker, entities.KindAnimation, entities.KindLocation, entities.KindContact,
		entities.KindPoll, entities.KindVenue, entities.KindGame, entities.KindDice, entities.KindMisc, "",
	} {
		payloads = append(payloads, entities.OtherPayload{Kind: kind})
	}

	classifier := NewClassifier()
	for _, p := range payloads {
		for _, text := range []string{"", "body"} {
			for _, caption := range []string{"", "cap"} {
				for _, group := range []string{"", "G"} {
					for _, forwarded := range []bool{false, true} {
						event := entities.InboundEvent{
							UserID:  1,
							ChatID:  1,
							GroupID: group,
							Text:    text,
							Caption: caption,
							Forward: entities.Forward{IsForwarded: forwarded},
							Payload: p,
						}

						item := classifier.Classify(event)

						assert.True(t, item.Category.IsValid(), "payload %T produced %q", p, item.Category)
						assert.NotEmpty(t, item.ItemID)
						if item.Category == valueobjects.CategoryUnsupported {
							assert.NotEmpty(t, item.UnsupportedKind)
							assert.False(t, item.IsGrouped())
						}
						if item.Category.IsAttachment() {
							assert.False(t, item.RawBytesHandle.IsZero())
							assert.Equal(t, group != "", item.IsGrouped())
						}
					}
				}
			}
		}
	}
}

func TestClassifier_ItemIDUsesUniqueFileID(t *testing.T) {
	classifier := NewClassifier()

	first := classifier.Classify(entities.InboundEvent{MessageID: 1, Payload: entities.PhotoPayload{File: entities.FileRef{ID: "a", UniqueID: "same"}}})
	again := classifier.Classify(entities.InboundEvent{MessageID: 2, Payload: entities.PhotoPayload{File: entities.FileRef{ID: "b", UniqueID: "same"}}})

	assert.Equal(t, first.ItemID, again.ItemID)
}

func TestClassifier_KeepsForwardingAndCaption(t *testing.T) {
	item := NewClassifier().Classify(entities.InboundEvent{
		Caption: "receipt",
		Forward: entities.Forward{IsForwarded: true, From: "Alice"},
		Payload: entities.DocumentPayload{File: entities.FileRef{ID: "d"}, FileName: "scan.PDF", MimeType: "application/pdf; charset=binary"},
	})

	assert.Equal(t, valueobjects.CategoryDocumentPdf, item.Category)
	assert.Equal(t, "receipt", item.Caption)
	assert.True(t, item.IsForwarded)
	assert.Equal(t, "Alice", item.ForwardedFrom)
	assert.Equal(t, "scan.PDF", item.OriginalFileName)
}

// The MIME type wins over a contradicting file extension.
func TestClassifyDocumentMime_IgnoresExtension(t *testing.T) {
	item := NewClassifier().Classify(entities.InboundEvent{
		Payload: entities.DocumentPayload{File: entities.FileRef{ID: "d"}, FileName: "song.mp3", MimeType: "application/pdf"},
	})

	assert.Equal(t, valueobjects.CategoryDocumentPdf, item.Category)
}
