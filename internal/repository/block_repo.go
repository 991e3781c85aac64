package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emberdate/match-engine/internal/db"
)

// BlockRepository provides data access for directed block edges and the
// cascade they trigger on the match ledger.
type BlockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new repository bound to the given DB connection.
func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Create records blocker -> blocked and cascades in the same transaction:
// every MatchAction between the two users, in both directions, is deleted.
// The cascade bypasses the undo window.
//
// Re-blocking an already blocked user is a no-op on the blocks table
// (unique (blocker_id, blocked_id) pair, insert ignored on conflict) but
// still runs the cascade, which is idempotent.
func (r *BlockRepository) Create(ctx context.Context, blockerID, blockedID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		block := db.Block{BlockerID: blockerID, BlockedID: blockedID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoNothing: true,
		}).Create(&block).Error; err != nil {
			return err
		}

		return tx.
			Where("(actor_id = ? AND target_id = ?) OR (actor_id = ? AND target_id = ?)",
				blockerID, blockedID, blockedID, blockerID).
			Delete(&db.MatchAction{}).Error
	})
}

// ListInvolvedUserIDs returns every user id with a block edge to or from
// the given user, either direction. Discovery excludes all of them.
func (r *BlockRepository) ListInvolvedUserIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var blocked []uint64
	if err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &blocked).Error; err != nil {
		return nil, err
	}

	var blockers []uint64
	if err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("blocked_id = ?", userID).
		Pluck("blocker_id", &blockers).Error; err != nil {
		return nil, err
	}

	return append(blocked, blockers...), nil
}

// Exists reports whether a block edge exists between a and b in either
// direction.
func (r *BlockRepository) Exists(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			a, b, b, a).
		Count(&count).Error
	return count > 0, err
}
