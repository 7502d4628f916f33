package entities

import (
	"time"

	"bettersaved/domain/core/valueobjects"
)

// ContentItem is the classified form of one inbound event.
// It is built once by the classifier and never mutated afterwards.
type ContentItem struct {
	SourceUserID  string
	ChatID        int64
	MessageID     int
	GroupID       string
	ItemID        string
	Category      valueobjects.Category
	Caption       string
	Text          string
	IsForwarded   bool
	ForwardedFrom string
	ReceivedAt    time.Time

	// Attachment details, empty for text
	RawBytesHandle   FileRef
	UniqueFileID     string
	OriginalFileName string
	MimeType         string
	SizeBytes        int64
	Performer        string
	Title            string

	// UnsupportedKind names the detected kind when Category is Unsupported
	UnsupportedKind string
}

// IsGrouped reports whether the item takes the media group path
func (c ContentItem) IsGrouped() bool {
	return c.GroupID != "" && c.Category.IsAttachment()
}

// HasCaption reports whether the sender supplied a caption
func (c ContentItem) HasCaption() bool {
	return c.Caption != ""
}
