package services

import (
	"fmt"
	"strings"
	"time"

	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
)

// FileName picks the remote file name for an item.
// Source supplied names win; otherwise a name is synthesized from the category
// prefix, the timestamp and the unique file id.
func FileName(item entities.ContentItem, at time.Time, layout string) string {
	switch item.Category {
	case valueobjects.CategoryAudio:
		switch {
		case item.Performer != "" && item.Title != "":
			return fmt.Sprintf("%s - %s.mp3", item.Performer, item.Title)
		case item.Title != "":
			return item.Title + ".mp3"
		}
	case valueobjects.CategoryImage, valueobjects.CategoryVoice, valueobjects.CategoryCircularVideo:
		// these never carry a source name
		return synthesizedName(item, at, layout)
	}

	if name := strings.TrimSpace(item.OriginalFileName); name != "" {
		return name
	}
	return synthesizedName(item, at, layout)
}

func synthesizedName(item entities.ContentItem, at time.Time, layout string) string {
	id := item.UniqueFileID
	if id == "" {
		id = item.ItemID
	}
	return fmt.Sprintf("%s_%s_%s%s", item.Category.FilePrefix(), at.Format(layout), id, FileExtension(item.Category, item.MimeType))
}

// FileExtension returns the extension, with its dot, used for synthesized names
func FileExtension(category valueobjects.Category, mimeType string) string {
	mt := strings.ToLower(mimeType)
	switch category {
	case valueobjects.CategoryImage:
		return ".jpg"
	case valueobjects.CategoryDocumentImage:
		if mt == "image/jpeg" {
			return ".jpg"
		}
		return ".png"
	case valueobjects.CategoryDocumentPdf:
		return ".pdf"
	case valueobjects.CategoryDocumentAudio:
		if mt == "application/ogg" {
			return ".ogg"
		}
		return ".mp3"
	case valueobjects.CategoryAudio:
		return ".mp3"
	case valueobjects.CategoryVoice:
		return ".ogg"
	case valueobjects.CategoryVideo, valueobjects.CategoryDocumentVideo, valueobjects.CategoryCircularVideo:
		return ".mp4"
	default:
		return ""
	}
}
