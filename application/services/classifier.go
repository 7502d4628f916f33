package services

import (
	"fmt"
	"strings"

	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
)

// UnknownKind names events that carry neither text nor a recognised attachment.
const UnknownKind = "unknown"

// Classifier assigns exactly one category to an inbound event.
// It performs no I/O.
type Classifier struct{}

// NewClassifier creates a classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify turns an event into a ContentItem.
// Priority: photo, document (by MIME type), video, audio, voice, video note,
// other attachment kinds, then text.
func (c *Classifier) Classify(event entities.InboundEvent) entities.ContentItem {
	item := entities.ContentItem{
		SourceUserID:  valueobjects.NewUserIDFromTelegram(event.UserID).String(),
		ChatID:        event.ChatID,
		MessageID:     event.MessageID,
		GroupID:       event.GroupID,
		Caption:       event.Caption,
		IsForwarded:   event.Forward.IsForwarded,
		ForwardedFrom: event.Forward.From,
		ReceivedAt:    event.ReceivedAt,
	}

	switch p := event.Payload.(type) {
	case entities.PhotoPayload:
		item.Category = valueobjects.CategoryImage
		item.MimeType = "image/jpeg"
		withFile(&item, p.File)
	case entities.DocumentPayload:
		item.Category = ClassifyDocumentMime(p.MimeType)
		item.OriginalFileName = p.FileName
		item.MimeType = p.MimeType
		item.SizeBytes = p.Size
		withFile(&item, p.File)
	case entities.VideoPayload:
		item.Category = valueobjects.CategoryVideo
		item.OriginalFileName = p.FileName
		item.MimeType = orDefault(p.MimeType, "video/mp4")
		withFile(&item, p.File)
	case entities.AudioPayload:
		item.Category = valueobjects.CategoryAudio
		item.OriginalFileName = p.FileName
		item.MimeType = orDefault(p.MimeType, "audio/mpeg")
		item.Performer = p.Performer
		item.Title = p.Title
		withFile(&item, p.File)
	case entities.VoicePayload:
		item.Category = valueobjects.CategoryVoice
		item.MimeType = "audio/ogg"
		withFile(&item, p.File)
	case entities.VideoNotePayload:
		item.Category = valueobjects.CategoryCircularVideo
		item.MimeType = "video/mp4"
		withFile(&item, p.File)
	case entities.OtherPayload:
		item.Category = valueobjects.CategoryUnsupported
		item.UnsupportedKind = entities.Kind(p)
	case entities.TextPayload:
		if strings.TrimSpace(event.Text) == "" {
			item.Category = valueobjects.CategoryUnsupported
			item.UnsupportedKind = UnknownKind
			break
		}
		item.Category = valueobjects.CategoryText
		item.Text = event.Text
	default:
		item.Category = valueobjects.CategoryUnsupported
		item.UnsupportedKind = UnknownKind
	}

	if item.ItemID == "" {
		item.ItemID = fmt.Sprintf("msg-%d-%d", event.ChatID, event.MessageID)
	}

	return item
}

// ClassifyDocumentMime sub-dispatches a document by its declared MIME type.
// The file name is never consulted.
func ClassifyDocumentMime(mimeType string) valueobjects.Category {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch {
	case strings.HasPrefix(mt, "image/"):
		return valueobjects.CategoryDocumentImage
	case mt == "application/pdf":
		return valueobjects.CategoryDocumentPdf
	case strings.HasPrefix(mt, "audio/"), mt == "application/ogg":
		return valueobjects.CategoryDocumentAudio
	case strings.HasPrefix(mt, "video/"):
		return valueobjects.CategoryDocumentVideo
	default:
		return valueobjects.CategoryDocumentMisc
	}
}

func withFile(item *entities.ContentItem, f entities.FileRef) {
	item.RawBytesHandle = f
	item.UniqueFileID = f.UniqueID
	item.ItemID = f.UniqueID
	if item.ItemID == "" {
		item.ItemID = f.ID
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
