package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emberdate/match-engine/internal/db"
	svcErr "github.com/emberdate/match-engine/internal/errors"
	"github.com/emberdate/match-engine/internal/utils/pagination"
)

// positiveKinds are the action kinds that participate in mutual matching.
var positiveKinds = []db.ActionKind{db.ActionLike, db.ActionSuperLike}

// ActionRepository provides data access for the match ledger.
// It is the single write path for MatchAction rows.
type ActionRepository struct {
	db *gorm.DB
}

// NewActionRepository creates a new repository bound to the given DB connection.
func NewActionRepository(database *gorm.DB) *ActionRepository {
	return &ActionRepository{db: database}
}

// ReplaceAction records actor -> target with the given kind, replacing any
// prior decision on the same target.
//
// Behavior:
//   - Deletes the existing (actor_id, target_id) row if present, then
//     inserts a fresh one, inside a single transaction: a failure midway
//     leaves either the old row or the new row, never both or neither.
//   - The fresh insert resets CreatedAt, and with it the undo window.
//   - The composite PK makes the operation idempotent under concurrent
//     double-submission from the same user (double-tap): the loser of the
//     race hits the unique constraint instead of duplicating the pair.
func (r *ActionRepository) ReplaceAction(
	ctx context.Context,
	actorID, targetID uint64,
	kind db.ActionKind,
) (*db.MatchAction, error) {
	action := &db.MatchAction{
		ActorID:  actorID,
		TargetID: targetID,
		Kind:     kind,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("actor_id = ? AND target_id = ?", actorID, targetID).
			Delete(&db.MatchAction{}).Error; err != nil {
			return err
		}
		return tx.Create(action).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", svcErr.ErrStoreUnavailable, err)
	}
	return action, nil
}

// GetAction returns the decision for (actor, target), or
// gorm.ErrRecordNotFound if the pair has none.
func (r *ActionRepository) GetAction(
	ctx context.Context,
	actorID, targetID uint64,
) (*db.MatchAction, error) {
	var action db.MatchAction
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		First(&action).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// DeleteAction removes the decision for (actor, target). Returns the
// number of rows removed (0 or 1).
func (r *ActionRepository) DeleteAction(
	ctx context.Context,
	actorID, targetID uint64,
) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("actor_id = ? AND target_id = ?", actorID, targetID).
		Delete(&db.MatchAction{})
	return res.RowsAffected, res.Error
}

// LatestByActor returns the actor's most recent decision by creation time,
// or gorm.ErrRecordNotFound if the actor has none.
func (r *ActionRepository) LatestByActor(
	ctx context.Context,
	actorID uint64,
) (*db.MatchAction, error) {
	var action db.MatchAction
	err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at DESC").
		First(&action).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// HasPositiveAction checks whether actor has a like or super_like recorded
// on target. This is the reverse lookup mutual-match detection runs on.
func (r *ActionRepository) HasPositiveAction(
	ctx context.Context,
	actorID, targetID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.MatchAction{}).
		Where("actor_id = ? AND target_id = ? AND kind IN ?", actorID, targetID, positiveKinds).
		Count(&count).Error
	return count > 0, err
}

// ListActedTargetIDs returns every target the actor has decided on, any
// kind. Discovery excludes these ids from the candidate pool.
func (r *ActionRepository) ListActedTargetIDs(
	ctx context.Context,
	actorID uint64,
) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.MatchAction{}).
		Where("actor_id = ?", actorID).
		Pluck("target_id", &ids).Error
	return ids, err
}

// GetLikers returns all users with a positive decision on the given target.
//
// Behavior:
//   - Only like/super_like rows count.
//   - Excludes users the target explicitly passed.
//   - Ordered by updated_at DESC, actor_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Blocked pairs need no extra filter: the block cascade removes their
// ledger rows.
func (r *ActionRepository) GetLikers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]db.MatchAction, *string, error) {
	var actions []db.MatchAction

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Table("match_actions m").
		Where("m.target_id = ? AND m.kind IN ?", targetID, positiveKinds).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM match_actions m2
				WHERE m2.actor_id = ?
				  AND m2.target_id = m.actor_id
				  AND m2.kind = ?
			)`, targetID, db.ActionPass).
		Order("m.updated_at DESC, m.actor_id DESC").
		Limit(limit + 1)

	if cursor.ActorID > 0 && cursor.UpdatedUnix > 0 {
		ts := time.UnixMilli(cursor.UpdatedUnix)
		query = query.Where(
			"(m.updated_at < ? OR (m.updated_at = ? AND m.actor_id < ?))",
			ts, ts, cursor.ActorID,
		)
	}

	if err := query.Find(&actions).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(actions) > limit {
		last := actions[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ActorID:     last.ActorID,
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		actions = actions[:limit]
	}

	return actions, nextToken, nil
}

// GetNewLikers returns positive deciders on the target that the target has
// not positively reciprocated (i.e. likes that are not yet mutual).
func (r *ActionRepository) GetNewLikers(
	ctx context.Context,
	targetID uint64,
	paginationToken *string,
	limit int,
) ([]db.MatchAction, *string, error) {
	var actions []db.MatchAction

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	// exclude mutual pairs
	subQuery := r.db.
		Table("match_actions").
		Select("1").
		Where("actor_id = m.target_id AND target_id = m.actor_id AND kind IN ?", positiveKinds)

	query := r.db.WithContext(ctx).
		Table("match_actions m").
		Where("m.target_id = ? AND m.kind IN ? AND NOT EXISTS (?)", targetID, positiveKinds, subQuery).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM match_actions m2
				WHERE m2.actor_id = ?
				  AND m2.target_id = m.actor_id
				  AND m2.kind = ?
			)`, targetID, db.ActionPass).
		Order("m.updated_at DESC, m.actor_id DESC").
		Limit(limit + 1)

	if cursor.ActorID > 0 && cursor.UpdatedUnix > 0 {
		ts := time.UnixMilli(cursor.UpdatedUnix)
		query = query.Where(
			"(m.updated_at < ? OR (m.updated_at = ? AND m.actor_id < ?))",
			ts, ts, cursor.ActorID,
		)
	}

	if err := query.Find(&actions).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(actions) > limit {
		last := actions[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ActorID:     last.ActorID,
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		actions = actions[:limit]
	}

	return actions, nextToken, nil
}

// CountLikers returns how many users have a positive decision on the
// target, excluding users the target passed. Redis caches this; the DB is
// the fallback.
func (r *ActionRepository) CountLikers(
	ctx context.Context,
	targetID uint64,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("match_actions m").
		Where("m.target_id = ? AND m.kind IN ?", targetID, positiveKinds).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM match_actions m2
				WHERE m2.actor_id = ?
				  AND m2.target_id = m.actor_id
				  AND m2.kind = ?
			)`, targetID, db.ActionPass).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
