package entities

import "time"

// FileRef is an opaque handle to remote bytes held by the transport.
// UniqueID stays stable across re-deliveries of the same physical file.
type FileRef struct {
	ID       string
	UniqueID string
}

// IsZero reports whether the reference is empty
func (f FileRef) IsZero() bool {
	return f.ID == ""
}

// Forward describes forwarding metadata of an inbound message
type Forward struct {
	IsForwarded bool
	From        string
}

// InboundEvent is one content submission built at the transport boundary.
// Exactly one Payload variant is set.
type InboundEvent struct {
	UserID     int64
	UserName   string
	ChatID     int64
	MessageID  int
	GroupID    string
	Text       string
	Caption    string
	Forward    Forward
	ReceivedAt time.Time
	Payload    Payload
}

// HasGroup reports whether the event belongs to a media group
func (e InboundEvent) HasGroup() bool {
	return e.GroupID != ""
}

// Payload is the closed set of inbound content variants
type Payload interface {
	payloadKind() string
}

// Kind returns the variant name of the payload
func Kind(p Payload) string {
	if p == nil {
		return EmptyPayload{}.payloadKind()
	}
	return p.payloadKind()
}

// TextPayload marks a plain text message
type TextPayload struct{}

// PhotoPayload carries the largest rendition of a photo
type PhotoPayload struct {
	File FileRef
}

// DocumentPayload is a generic file attachment
type DocumentPayload struct {
	File     FileRef
	FileName string
	MimeType string
	Size     int64
}

// VideoPayload is a video attachment
type VideoPayload struct {
	File     FileRef
	FileName string
	MimeType string
}

// AudioPayload is a music/audio attachment
type AudioPayload struct {
	File      FileRef
	FileName  string
	MimeType  string
	Performer string
	Title     string
}

// VoicePayload is a recorded voice message
type VoicePayload struct {
	File FileRef
}

// VideoNotePayload is a circular video message
type VideoNotePayload struct {
	File FileRef
}

// OtherPayload is an attachment kind with no storage handler
type OtherPayload struct {
	Kind string
}

// EmptyPayload is an event with neither text nor attachment
type EmptyPayload struct{}

// Other payload kinds reported by the transport
const (
	KindSticker   = "sticker"
	KindAnimation = "animation"
	KindLocation  = "location"
	KindContact   = "contact"
	KindPoll      = "poll"
	KindVenue     = "venue"
	KindGame      = "game"
	KindDice      = "dice"
	KindMisc      = "misc"
)

func (TextPayload) payloadKind() string      { return "text" }
func (PhotoPayload) payloadKind() string     { return "photo" }
func (DocumentPayload) payloadKind() string  { return "document" }
func (VideoPayload) payloadKind() string     { return "video" }
func (AudioPayload) payloadKind() string     { return "audio" }
func (VoicePayload) payloadKind() string     { return "voice" }
func (VideoNotePayload) payloadKind() string { return "video_note" }
func (p OtherPayload) payloadKind() string {
	if p.Kind == "" {
		return KindMisc
	}
	return p.Kind
}
func (EmptyPayload) payloadKind() string { return "empty" }
