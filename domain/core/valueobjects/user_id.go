package valueobjects

import (
	"errors"
	"strconv"
	"strings"
)

const userIDPrefix = "user_"

// UserID identifies a profile. It is derived from the chat user id.
type UserID struct {
	value string
}

// NewUserIDFromTelegram builds the profile id for a chat user
func NewUserIDFromTelegram(telegramID int64) UserID {
	return UserID{value: userIDPrefix + strconv.FormatInt(telegramID, 10)}
}

// ParseUserID validates an existing profile id
func ParseUserID(id string) (UserID, error) {
	if id == "" {
		return UserID{}, errors.New("user ID cannot be empty")
	}
	if !strings.HasPrefix(id, userIDPrefix) {
		return UserID{}, errors.New("user ID must start with " + userIDPrefix)
	}
	if _, err := strconv.ParseInt(strings.TrimPrefix(id, userIDPrefix), 10, 64); err != nil {
		return UserID{}, errors.New("user ID must end with a numeric chat id")
	}
	return UserID{value: id}, nil
}

// String returns the string representation of the UserID
func (id UserID) String() string {
	return id.value
}

// TelegramID returns the numeric chat user id
func (id UserID) TelegramID() int64 {
	n, _ := strconv.ParseInt(strings.TrimPrefix(id.value, userIDPrefix), 10, 64)
	return n
}

// IsZero checks if the UserID is the zero value
func (id UserID) IsZero() bool {
	return id.value == ""
}
