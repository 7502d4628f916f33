package entities

// MessageRef points at an outbound chat message so it can be edited or deleted
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// IsZero reports whether the reference points nowhere
func (m MessageRef) IsZero() bool {
	return m.MessageID == 0
}
