package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberdate/match-engine/internal/app"
	"github.com/emberdate/match-engine/internal/auth"
	"github.com/emberdate/match-engine/internal/cache"
	"github.com/emberdate/match-engine/internal/config"
	"github.com/emberdate/match-engine/internal/db"
	"github.com/emberdate/match-engine/internal/server"
	"github.com/emberdate/match-engine/internal/service/discovery"
	"github.com/emberdate/match-engine/internal/service/likes"
	"github.com/emberdate/match-engine/internal/service/match"
	"github.com/emberdate/match-engine/internal/service/safety"
)

func f64(v float64) *float64 { return &v }

// setupAPI boots the full router over sqlite + miniredis and returns the
// test server plus a token minting helper.
func setupAPI(t *testing.T) (*httptest.Server, *app.AppContext, func(userID uint64) string) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(&db.User{}, &db.MatchAction{}, &db.Block{}))

	dob := time.Date(1996, 2, 2, 0, 0, 0, 0, time.UTC)
	users := []db.User{
		{ID: 1, Email: "m@test.com", PasswordHash: "x", FirstName: "Marc", DateOfBirth: dob,
			Gender: "male", GenderPreference: []string{"female"},
			Latitude: f64(40.0), Longitude: f64(-75.0), MaxDistanceKM: f64(50),
			Active: true, Matchable: true},
		{ID: 2, Email: "n@test.com", PasswordHash: "x", FirstName: "Nina", DateOfBirth: dob,
			Gender: "female", GenderPreference: []string{"male"},
			Latitude: f64(40.3), Longitude: f64(-75.2),
			Active: true, Matchable: true},
	}
	require.NoError(t, dbase.Create(&users).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	appCtx := app.New(dbase, cache.NewRedisCache(cfg), slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)

	router := server.NewRouter(cfg,
		discovery.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		likes.NewRegistrar(appCtx),
		safety.NewRegistrar(appCtx),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	mint := func(userID uint64) string {
		token, err := auth.GenerateToken(userID, cfg)
		require.NoError(t, err)
		return token
	}

	return srv, appCtx, mint
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func TestAPI_RequiresSession(t *testing.T) {
	srv, _, _ := setupAPI(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/discovery/candidates", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/match-actions", "not-a-token", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_SwipeLoop(t *testing.T) {
	srv, _, mint := setupAPI(t)
	marc, nina := mint(1), mint(2)

	// Marc sees Nina in discovery
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/discovery/candidates?limit=10", marc, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var disc struct {
		Candidates []struct {
			ID        uint64 `json:"id"`
			FirstName string `json:"firstName"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(body, &disc))
	require.Len(t, disc.Candidates, 1)
	assert.Equal(t, "Nina", disc.Candidates[0].FirstName)

	// Marc likes Nina: no match yet
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/match-actions", marc,
		map[string]any{"targetUserId": 2, "kind": "like"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var act struct {
		Created     bool `json:"created"`
		MutualMatch bool `json:"mutualMatch"`
	}
	require.NoError(t, json.Unmarshal(body, &act))
	assert.True(t, act.Created)
	assert.False(t, act.MutualMatch)

	// Nina sees the like arrive
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/likes/received/count", nina, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"count":1}`, string(body))

	// Nina likes back: mutual
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/match-actions", nina,
		map[string]any{"targetUserId": 1, "kind": "like"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &act))
	assert.True(t, act.MutualMatch)

	// Nina can still undo it
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/match-actions/undoable", nina, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var undoable struct {
		CanUndo bool `json:"canUndo"`
		Action  *struct {
			TargetUserID     uint64 `json:"targetUserId"`
			Kind             string `json:"kind"`
			SecondsRemaining int    `json:"secondsRemaining"`
		} `json:"action"`
	}
	require.NoError(t, json.Unmarshal(body, &undoable))
	require.True(t, undoable.CanUndo)
	assert.Equal(t, uint64(1), undoable.Action.TargetUserID)
	assert.Equal(t, "like", undoable.Action.Kind)
	assert.Greater(t, undoable.Action.SecondsRemaining, 290)

	// ... and does
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/match-actions/undo", nina,
		map[string]any{"targetUserId": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"undoneKind":"like"}`, string(body))

	// Marc reappears in Nina's discovery afterwards
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/discovery/candidates", nina, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &disc))
	require.Len(t, disc.Candidates, 1)
	assert.Equal(t, uint64(1), disc.Candidates[0].ID)
}

func TestAPI_UndoErrors(t *testing.T) {
	srv, appCtx, mint := setupAPI(t)
	marc := mint(1)

	// nothing recorded → NotFound
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/match-actions/undo", marc,
		map[string]any{"targetUserId": 2})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// stale action → Expired, distinguishable from NotFound
	require.NoError(t, appCtx.DB.Create(&db.MatchAction{
		ActorID: 1, TargetID: 2, Kind: db.ActionLike,
		CreatedAt: time.Now().UTC().Add(-20 * time.Minute),
	}).Error)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/match-actions/undo", marc,
		map[string]any{"targetUserId": 2})
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestAPI_BlockCascade(t *testing.T) {
	srv, appCtx, mint := setupAPI(t)
	marc, nina := mint(1), mint(2)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/match-actions", marc,
		map[string]any{"targetUserId": 2, "kind": "like"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/match-actions", nina,
		map[string]any{"targetUserId": 1, "kind": "like"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/blocks", marc,
		map[string]any{"blockedUserId": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, appCtx.DB.Model(&db.MatchAction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// neither appears in the other's discovery anymore
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/discovery/candidates", nina, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"candidates":[]}`, string(body))

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/discovery/candidates", marc, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"candidates":[]}`, string(body))
}

func TestAPI_ReceivedLikesList(t *testing.T) {
	srv, _, mint := setupAPI(t)
	marc, nina := mint(1), mint(2)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/match-actions", marc,
		map[string]any{"targetUserId": 2, "kind": "super_like"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/likes/received", nina, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Likers []struct {
			ActorID uint64 `json:"actorId"`
		} `json:"likers"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Likers, 1)
	assert.Equal(t, uint64(1), list.Likers[0].ActorID)

	// unreciprocated, so it also shows under /new
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/likes/received/new", nina, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Likers, 1)
}
