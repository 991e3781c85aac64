package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/emberdate/match-engine/internal/db"
	"github.com/emberdate/match-engine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&db.User{}, &db.MatchAction{}, &db.Block{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestReplaceAction_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	_, err := repo.ReplaceAction(ctx, 1, 2, db.ActionPass)
	require.NoError(t, err)

	// change of heart: pass becomes like, still one row
	_, err = repo.ReplaceAction(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)

	var actions []db.MatchAction
	require.NoError(t, dbase.Find(&actions).Error)
	require.Len(t, actions, 1)
	assert.Equal(t, db.ActionLike, actions[0].Kind)
}

func TestReplaceAction_ResetsCreatedAt(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	old := time.Now().UTC().Add(-10 * time.Minute).Truncate(time.Millisecond)
	require.NoError(t, dbase.Create(&db.MatchAction{
		ActorID: 1, TargetID: 2, Kind: db.ActionPass, CreatedAt: old,
	}).Error)

	_, err := repo.ReplaceAction(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)

	action, err := repo.GetAction(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, action.CreatedAt.After(old), "replace must reset the undo clock")
}

func TestGetAction_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewActionRepository(setupTestDB(t))

	_, err := repo.GetAction(ctx, 1, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLatestByActor(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, dbase.Create(&db.MatchAction{
		ActorID: 1, TargetID: 2, Kind: db.ActionLike, CreatedAt: base.Add(-3 * time.Minute),
	}).Error)
	require.NoError(t, dbase.Create(&db.MatchAction{
		ActorID: 1, TargetID: 3, Kind: db.ActionPass, CreatedAt: base.Add(-1 * time.Minute),
	}).Error)

	latest, err := repo.LatestByActor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), latest.TargetID)
	assert.Equal(t, db.ActionPass, latest.Kind)
}

func TestHasPositiveAction(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	_, err := repo.ReplaceAction(ctx, 1, 2, db.ActionSuperLike)
	require.NoError(t, err)
	_, err = repo.ReplaceAction(ctx, 1, 3, db.ActionPass)
	require.NoError(t, err)

	got, err := repo.HasPositiveAction(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, got)

	// a pass never counts as positive
	got, err = repo.HasPositiveAction(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = repo.HasPositiveAction(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestListActedTargetIDs(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewActionRepository(setupTestDB(t))

	_, err := repo.ReplaceAction(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)
	_, err = repo.ReplaceAction(ctx, 1, 3, db.ActionPass)
	require.NoError(t, err)
	_, err = repo.ReplaceAction(ctx, 2, 1, db.ActionLike)
	require.NoError(t, err)

	ids, err := repo.ListActedTargetIDs(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3}, ids)
}

func TestGetLikersAndPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewActionRepository(dbase)

	// actors 1,2,3 liked target 99
	for _, actor := range []uint64{1, 2, 3} {
		_, err := repo.ReplaceAction(ctx, actor, 99, db.ActionLike)
		require.NoError(t, err)
	}
	// target passed actor 2 → excluded from the list
	_, err := repo.ReplaceAction(ctx, 99, 2, db.ActionPass)
	require.NoError(t, err)

	page, next, err := repo.GetLikers(ctx, 99, nil, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.NotNil(t, next)

	page2, next2, err := repo.GetLikers(ctx, 99, next, 10)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Nil(t, next2)
	assert.NotEqual(t, page[0].ActorID, page2[0].ActorID)
}

func TestGetNewLikers_ExcludesMutual(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewActionRepository(setupTestDB(t))

	// 1 liked 99 and 99 liked back → mutual, not "new"
	_, err := repo.ReplaceAction(ctx, 1, 99, db.ActionLike)
	require.NoError(t, err)
	_, err = repo.ReplaceAction(ctx, 99, 1, db.ActionLike)
	require.NoError(t, err)

	// 2 liked 99, no reciprocation
	_, err = repo.ReplaceAction(ctx, 2, 99, db.ActionLike)
	require.NoError(t, err)

	likers, _, err := repo.GetNewLikers(ctx, 99, nil, 10)
	require.NoError(t, err)
	require.Len(t, likers, 1)
	assert.Equal(t, uint64(2), likers[0].ActorID)
}

func TestCountLikers(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewActionRepository(setupTestDB(t))

	_, err := repo.ReplaceAction(ctx, 1, 99, db.ActionLike)
	require.NoError(t, err)
	_, err = repo.ReplaceAction(ctx, 2, 99, db.ActionSuperLike)
	require.NoError(t, err)
	_, err = repo.ReplaceAction(ctx, 3, 99, db.ActionPass)
	require.NoError(t, err)
	// 99 passed actor 2 → excluded from the count
	_, err = repo.ReplaceAction(ctx, 99, 2, db.ActionPass)
	require.NoError(t, err)

	count, err := repo.CountLikers(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteAction(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewActionRepository(setupTestDB(t))

	_, err := repo.ReplaceAction(ctx, 1, 2, db.ActionLike)
	require.NoError(t, err)

	deleted, err := repo.DeleteAction(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = repo.DeleteAction(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
