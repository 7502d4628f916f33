package cache

import (
	"context"
	"time"

	"bettersaved/application/ports"
	"bettersaved/domain/core/entities"
)

// CachingConfig controls the profile cache
type CachingConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

// DefaultCachingConfig returns the defaults used by the bot
func DefaultCachingConfig() CachingConfig {
	return CachingConfig{
		TTL:       5 * time.Minute,
		KeyPrefix: "bettersaved:profile:",
	}
}

// CachingProfileRepository is a cache-aside decorator over a ProfileRepository.
// Reads are served from the cache; every write goes to the inner store and then
// invalidates the cached entry.
type CachingProfileRepository struct {
	inner  ports.ProfileRepository
	cache  ports.Cache
	config CachingConfig
}

var _ ports.ProfileRepository = (*CachingProfileRepository)(nil)

// NewCachingProfileRepository wraps inner with a read cache
func NewCachingProfileRepository(inner ports.ProfileRepository, cache ports.Cache, config CachingConfig) *CachingProfileRepository {
	return &CachingProfileRepository{inner: inner, cache: cache, config: config}
}

func (r *CachingProfileRepository) Get(ctx context.Context, userID string) (*entities.Profile, error) {
	key := r.key(userID)
	if v, ok := r.cache.Get(ctx, key); ok {
		if p, ok := v.(entities.Profile); ok {
			return clone(&p), nil
		}
	}

	p, err := r.inner.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, *clone(p), int(r.config.TTL.Seconds()))
	return p, nil
}

func (r *CachingProfileRepository) Upsert(ctx context.Context, profile *entities.Profile) error {
	if err := r.inner.Upsert(ctx, profile); err != nil {
		return err
	}
	return r.invalidate(ctx, profile.UserID)
}

func (r *CachingProfileRepository) SetCredential(ctx context.Context, userID, credential string) error {
	if err := r.inner.SetCredential(ctx, userID, credential); err != nil {
		return err
	}
	return r.invalidate(ctx, userID)
}

func (r *CachingProfileRepository) ClearCredential(ctx context.Context, userID string) error {
	if err := r.inner.ClearCredential(ctx, userID); err != nil {
		return err
	}
	return r.invalidate(ctx, userID)
}

func (r *CachingProfileRepository) SetResources(ctx context.Context, userID string, rs entities.ResourceSet) error {
	if err := r.inner.SetResources(ctx, userID, rs); err != nil {
		return err
	}
	return r.invalidate(ctx, userID)
}

func (r *CachingProfileRepository) MarkConnectMessageShown(ctx context.Context, userID string) error {
	if err := r.inner.MarkConnectMessageShown(ctx, userID); err != nil {
		return err
	}
	return r.invalidate(ctx, userID)
}

func (r *CachingProfileRepository) Delete(ctx context.Context, userID string) error {
	if err := r.inner.Delete(ctx, userID); err != nil {
		return err
	}
	return r.invalidate(ctx, userID)
}

func (r *CachingProfileRepository) invalidate(ctx context.Context, userID string) error {
	return r.cache.Delete(ctx, r.key(userID))
}

func (r *CachingProfileRepository) key(userID string) string {
	return r.config.KeyPrefix + userID
}

func clone(p *entities.Profile) *entities.Profile {
	cp := *p
	cp.TypeFolderIDs = p.Resources().TypeFolderIDs
	return &cp
}
