// Package memory provides an in-process profile store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"bettersaved/application/ports"
	"bettersaved/domain/core/entities"
	pkgerrors "bettersaved/pkg/errors"
)

// ProfileRepository keeps profiles in a map. Records are copied on the way in and out.
type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*entities.Profile
	now      func() time.Time
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates an empty repository
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{
		profiles: make(map[string]*entities.Profile),
		now:      time.Now,
	}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*entities.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("profile")
	}
	return copyProfile(p), nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, profile *entities.Profile) error {
	if profile == nil || profile.UserID == "" {
		return pkgerrors.NewValidationError("profile user id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = copyProfile(profile)
	return nil
}

func (r *ProfileRepository) SetCredential(ctx context.Context, userID, credential string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return pkgerrors.NewNotFoundError("profile")
	}
	p.Credential = credential
	p.UpdatedAt = r.now()
	return nil
}

func (r *ProfileRepository) ClearCredential(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		p.ClearCredential(r.now())
	}
	return nil
}

func (r *ProfileRepository) SetResources(ctx context.Context, userID string, rs entities.ResourceSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok || !p.IsConnected() {
		return pkgerrors.NewNotConnectedError(userID)
	}
	p.ApplyResources(rs, r.now())
	return nil
}

func (r *ProfileRepository) MarkConnectMessageShown(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		p.ConnectMessageShown = true
		p.UpdatedAt = r.now()
	}
	return nil
}

func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, userID)
	return nil
}

// Count returns the number of stored profiles
func (r *ProfileRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

func copyProfile(p *entities.Profile) *entities.Profile {
	cp := *p
	cp.TypeFolderIDs = p.Resources().TypeFolderIDs
	return &cp
}
