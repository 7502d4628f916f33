package valueobjects

import (
	"strings"

	"bettersaved/domain/config"
)

// Category is the single classification assigned to an inbound item
type Category string

const (
	CategoryText          Category = "text"
	CategoryImage         Category = "image"
	CategoryVideo         Category = "video"
	CategoryAudio         Category = "audio"
	CategoryVoice         Category = "voice"
	CategoryCircularVideo Category = "circular_video"
	CategoryDocumentImage Category = "document_image"
	CategoryDocumentPdf   Category = "document_pdf"
	CategoryDocumentAudio Category = "document_audio"
	CategoryDocumentVideo Category = "document_video"
	CategoryDocumentMisc  Category = "document_misc"
	CategoryUnsupported   Category = "unsupported"
)

// AllCategories lists every category in classification priority order
func AllCategories() []Category {
	return []Category{
		CategoryImage,
		CategoryDocumentImage,
		CategoryDocumentPdf,
		CategoryDocumentAudio,
		CategoryDocumentVideo,
		CategoryDocumentMisc,
		CategoryVideo,
		CategoryAudio,
		CategoryVoice,
		CategoryCircularVideo,
		CategoryUnsupported,
		CategoryText,
	}
}

// NoneLabel is written to the ledger for plain text rows.
const NoneLabel = "None"

var categoryLabels = map[Category]string{
	CategoryText:          NoneLabel,
	CategoryImage:         "Image",
	CategoryVideo:         "Video",
	CategoryAudio:         "Audio",
	CategoryVoice:         "Voice Message",
	CategoryCircularVideo: "Video Note",
	CategoryDocumentImage: "Image Document",
	CategoryDocumentPdf:   "PDF Document",
	CategoryDocumentAudio: "Audio Document",
	CategoryDocumentVideo: "Video Document",
	CategoryDocumentMisc:  "Document",
	CategoryUnsupported:   "Unsupported",
}

// Label returns the human readable ledger label
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return NoneLabel
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// IsAttachment reports whether items of this category carry bytes to upload
func (c Category) IsAttachment() bool {
	return c != CategoryText && c != CategoryUnsupported && c.IsValid()
}

// IsDocument reports whether the category came from a document attachment
func (c Category) IsDocument() bool {
	return strings.HasPrefix(string(c), "document_")
}

// FolderClass returns the storage class the category is filed under
func (c Category) FolderClass() FolderClass {
	switch c {
	case CategoryImage, CategoryDocumentImage:
		return FolderClassImages
	case CategoryVideo, CategoryDocumentVideo, CategoryCircularVideo:
		return FolderClassVideo
	case CategoryAudio, CategoryDocumentAudio, CategoryVoice:
		return FolderClassAudio
	case CategoryDocumentPdf:
		return FolderClassPDF
	case CategoryDocumentMisc:
		return FolderClassMisc
	default:
		return ""
	}
}

// FilePrefix returns the prefix used for synthesized file names
func (c Category) FilePrefix() string {
	switch c {
	case CategoryImage:
		return "photo"
	case CategoryDocumentImage:
		return "image"
	case CategoryDocumentPdf:
		return "document"
	case CategoryAudio, CategoryDocumentAudio:
		return "audio"
	case CategoryVideo, CategoryDocumentVideo:
		return "video"
	case CategoryVoice:
		return "voice"
	case CategoryCircularVideo:
		return "video_note"
	default:
		return "file"
	}
}

// FolderClass groups categories that share a type subfolder
type FolderClass string

const (
	FolderClassImages FolderClass = "images"
	FolderClassVideo  FolderClass = "video"
	FolderClassAudio  FolderClass = "audio"
	FolderClassPDF    FolderClass = "pdf"
	FolderClassMisc   FolderClass = "misc"
)

// AllFolderClasses lists the classes in the order their folders are created
func AllFolderClasses() []FolderClass {
	return []FolderClass{FolderClassImages, FolderClassVideo, FolderClassAudio, FolderClassPDF, FolderClassMisc}
}

// FolderName returns the remote folder name for the class
func (f FolderClass) FolderName() string {
	switch f {
	case FolderClassImages:
		return config.FolderImages
	case FolderClassVideo:
		return config.FolderVideo
	case FolderClassAudio:
		return config.FolderAudio
	case FolderClassPDF:
		return config.FolderPDF
	case FolderClassMisc:
		return config.FolderTickets
	default:
		return ""
	}
}
