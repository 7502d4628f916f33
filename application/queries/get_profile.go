package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bettersaved/application/ports"
	"bettersaved/application/queries/bus"
)

// GetProfileQuery represents a query to get the summary of one profile
type GetProfileQuery struct {
	UserID string
}

// Validate validates the GetProfileQuery
func (q GetProfileQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// ProfileSummary is the read model of a profile. The credential is never exposed.
type ProfileSummary struct {
	UserID              string    `json:"userId"`
	Name                string    `json:"name"`
	Language            string    `json:"language"`
	Connected           bool      `json:"connected"`
	FolderURL           string    `json:"folderUrl,omitempty"`
	LedgerURL           string    `json:"ledgerUrl,omitempty"`
	ResourcesComplete   bool      `json:"resourcesComplete"`
	ConnectMessageShown bool      `json:"connectMessageShown"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// GetProfileHandler answers GetProfileQuery
type GetProfileHandler struct {
	profiles ports.ProfileRepository
}

// NewGetProfileHandler creates a new handler
func NewGetProfileHandler(profiles ports.ProfileRepository) *GetProfileHandler {
	return &GetProfileHandler{profiles: profiles}
}

// Handle implements bus.QueryHandler
func (h *GetProfileHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(GetProfileQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query %T", query)
	}

	p, err := h.profiles.Get(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	rs := p.Resources()
	return &ProfileSummary{
		UserID:              p.UserID,
		Name:                p.Name,
		Language:            p.Language,
		Connected:           p.IsConnected(),
		FolderURL:           rs.RootFolderURL,
		LedgerURL:           rs.LedgerURL,
		ResourcesComplete:   rs.Complete(),
		ConnectMessageShown: p.ConnectMessageShown,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}, nil
}
