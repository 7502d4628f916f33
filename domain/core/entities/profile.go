package entities

import (
	"time"

	"bettersaved/domain/core/valueobjects"
	pkgerrors "bettersaved/pkg/errors"
)

// Profile is the persisted per-user record
type Profile struct {
	UserID              string
	TelegramID          int64
	Name                string
	Credential          string
	RootFolderID        string
	RootFolderURL       string
	TypeFolderIDs       map[valueobjects.FolderClass]string
	LedgerID            string
	LedgerURL           string
	ConnectMessageShown bool
	Language            string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewProfile creates a profile for a chat user
func NewProfile(telegramID int64, name, language string, now time.Time) (*Profile, error) {
	if telegramID == 0 {
		return nil, pkgerrors.NewValidationError("telegram id cannot be empty")
	}
	if language == "" {
		language = "en"
	}
	return &Profile{
		UserID:     valueobjects.NewUserIDFromTelegram(telegramID).String(),
		TelegramID: telegramID,
		Name:       name,
		Language:   language,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsConnected reports whether a storage credential is stored
func (p *Profile) IsConnected() bool {
	return p.Credential != ""
}

// Resources returns the stored handles as a ResourceSet
func (p *Profile) Resources() ResourceSet {
	return ResourceSet{
		RootFolderID:  p.RootFolderID,
		RootFolderURL: p.RootFolderURL,
		TypeFolderIDs: p.TypeFolderIDs,
		LedgerID:      p.LedgerID,
		LedgerURL:     p.LedgerURL,
	}.Clone()
}

// ApplyResources records a resolved set in a single update
func (p *Profile) ApplyResources(rs ResourceSet, now time.Time) {
	rs = rs.Clone()
	p.RootFolderID = rs.RootFolderID
	p.RootFolderURL = rs.RootFolderURL
	p.TypeFolderIDs = rs.TypeFolderIDs
	p.LedgerID = rs.LedgerID
	p.LedgerURL = rs.LedgerURL
	p.UpdatedAt = now
}

// ForgetLedger drops the cached ledger handle so the next resolution searches again.
// The root folder id is kept as the recovery hint.
func (p *Profile) ForgetLedger(now time.Time) {
	p.LedgerID = ""
	p.LedgerURL = ""
	p.UpdatedAt = now
}

// ClearCredential removes the stored credential
func (p *Profile) ClearCredential(now time.Time) {
	p.Credential = ""
	p.UpdatedAt = now
}
