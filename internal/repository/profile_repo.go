package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/emberdate/match-engine/internal/db"
)

// ProfileRepository provides data access for member profiles.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetByID returns the profile for id, or gorm.ErrRecordNotFound.
func (r *ProfileRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListCandidatePool fetches the raw discovery pool for a viewer: active,
// visible, matchable profiles, minus the excluded ids, ordered by profile
// creation recency. Reciprocity and distance are evaluated per candidate
// by the eligibility filter, not here.
func (r *ProfileRepository) ListCandidatePool(
	ctx context.Context,
	viewerID uint64,
	excludedIDs []uint64,
) ([]db.User, error) {
	var users []db.User
	query := r.db.WithContext(ctx).
		Where("active = ? AND hidden = ? AND matchable = ?", true, false, true).
		Where("id <> ?", viewerID).
		Order("created_at DESC")

	if len(excludedIDs) > 0 {
		query = query.Where("id NOT IN ?", excludedIDs)
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// TouchLastActive stamps the user's last-active timestamp.
func (r *ProfileRepository) TouchLastActive(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("last_active_at", at).Error
}
