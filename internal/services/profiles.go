package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"redsocial/internal/models"
	"redsocial/internal/utils"
)

// ProfileProvider serves public user profiles from a small LRU cache in
// front of the users table.
type ProfileProvider struct {
	db    *gorm.DB
	cache *utils.TTLCache[uint, models.Profile]
}

func NewProfileProvider(db *gorm.DB, size int, ttl time.Duration) (*ProfileProvider, error) {
	cache, err := utils.NewTTLCache[uint, models.Profile](size, ttl)
	if err != nil {
		return nil, err
	}
	return &ProfileProvider{db: db, cache: cache}, nil
}

// PublicProfile returns name, surnames, handle and avatar of a user.
func (p *ProfileProvider) PublicProfile(ctx context.Context, userID uint) (models.Profile, error) {
	if profile, ok := p.cache.Get(userID); ok {
		return profile, nil
	}

	var user models.User
	err := p.db.WithContext(ctx).
		Select("id", "name", "paternal_surname", "maternal_surname", "username", "avatar").
		Take(&user, userID).Error
	if err != nil {
		return models.Profile{}, notFoundOr(err, "user %d", userID)
	}
	profile := user.Profile()
	p.cache.Set(userID, profile)
	return profile, nil
}

// Invalidate drops the cached profile after the user changes it.
func (p *ProfileProvider) Invalidate(userID uint) {
	p.cache.Delete(userID)
}
