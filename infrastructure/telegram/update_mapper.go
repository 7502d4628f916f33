package telegram

import (
	"strings"
	"time"

	"bettersaved/domain/core/entities"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MapUpdate builds the inbound event for a new message update.
// Edits, callbacks and channel posts are not content submissions and yield false.
func MapUpdate(u tgbotapi.Update, receivedAt time.Time) (entities.InboundEvent, bool) {
	msg := u.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return entities.InboundEvent{}, false
	}

	return entities.InboundEvent{
		UserID:     msg.From.ID,
		UserName:   FullName(msg.From),
		ChatID:     msg.Chat.ID,
		MessageID:  msg.MessageID,
		GroupID:    msg.MediaGroupID,
		Text:       msg.Text,
		Caption:    msg.Caption,
		Forward:    forwardOf(msg),
		ReceivedAt: receivedAt,
		Payload:    payloadOf(msg),
	}, true
}

// FullName joins first and last name, falling back to the username
func FullName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.UserName
	}
	return name
}

func forwardOf(msg *tgbotapi.Message) entities.Forward {
	if msg.ForwardDate == 0 {
		return entities.Forward{}
	}

	f := entities.Forward{IsForwarded: true}
	switch {
	case msg.ForwardFrom != nil:
		f.From = FullName(msg.ForwardFrom)
	case msg.ForwardFromChat != nil:
		f.From = msg.ForwardFromChat.Title
		if f.From == "" {
			f.From = msg.ForwardFromChat.UserName
		}
	default:
		f.From = msg.ForwardSenderName
	}
	return f
}

// payloadOf picks the single payload variant. Animations also carry a Document
// and venues also carry a Location, so both are checked first.
func payloadOf(msg *tgbotapi.Message) entities.Payload {
	switch {
	case len(msg.Photo) > 0:
		return entities.PhotoPayload{File: largestPhoto(msg.Photo)}
	case msg.Animation != nil:
		return entities.OtherPayload{Kind: entities.KindAnimation}
	case msg.Document != nil:
		d := msg.Document
		return entities.DocumentPayload{
			File:     fileRef(d.FileID, d.FileUniqueID),
			FileName: d.FileName,
			MimeType: d.MimeType,
			Size:     int64(d.FileSize),
		}
	case msg.Video != nil:
		v := msg.Video
		return entities.VideoPayload{File: fileRef(v.FileID, v.FileUniqueID), FileName: v.FileName, MimeType: v.MimeType}
	case msg.Audio != nil:
		a := msg.Audio
		return entities.AudioPayload{
			File:      fileRef(a.FileID, a.FileUniqueID),
			FileName:  a.FileName,
			MimeType:  a.MimeType,
			Performer: a.Performer,
			Title:     a.Title,
		}
	case msg.Voice != nil:
		return entities.VoicePayload{File: fileRef(msg.Voice.FileID, msg.Voice.FileUniqueID)}
	case msg.VideoNote != nil:
		return entities.VideoNotePayload{File: fileRef(msg.VideoNote.FileID, msg.VideoNote.FileUniqueID)}
	case msg.Sticker != nil:
		return entities.OtherPayload{Kind: entities.KindSticker}
	case msg.Venue != nil:
		return entities.OtherPayload{Kind: entities.KindVenue}
	case msg.Location != nil:
		return entities.OtherPayload{Kind: entities.KindLocation}
	case msg.Contact != nil:
		return entities.OtherPayload{Kind: entities.KindContact}
	case msg.Poll != nil:
		return entities.OtherPayload{Kind: entities.KindPoll}
	case msg.Game != nil:
		return entities.OtherPayload{Kind: entities.KindGame}
	case msg.Dice != nil:
		return entities.OtherPayload{Kind: entities.KindDice}
	case msg.Text != "":
		return entities.TextPayload{}
	default:
		return entities.EmptyPayload{}
	}
}

// largestPhoto returns the biggest rendition; Telegram lists them smallest first
func largestPhoto(sizes []tgbotapi.PhotoSize) entities.FileRef {
	best := sizes[len(sizes)-1]
	for _, s := range sizes {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return fileRef(best.FileID, best.FileUniqueID)
}

func fileRef(id, uniqueID string) entities.FileRef {
	if uniqueID == "" {
		uniqueID = id
	}
	return entities.FileRef{ID: id, UniqueID: uniqueID}
}
