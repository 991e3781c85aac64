package likes

import (
	"net/http"

	"github.com/emberdate/match-engine/internal/app"
	"github.com/emberdate/match-engine/internal/auth"
	svcErr "github.com/emberdate/match-engine/internal/errors"
	"github.com/emberdate/match-engine/internal/repository"
)

// pageSize is how many likers each page of the received-likes lists holds.
const pageSize = 20

// Service implements the "liked you" API on top of the match ledger.
type Service struct {
	appCtx     *app.AppContext
	actionRepo *repository.ActionRepository
}

// NewService creates a likes service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		actionRepo: repository.NewActionRepository(appCtx.DB),
	}
}

// Liker is one entry in a received-likes list.
type Liker struct {
	ActorID       uint64 `json:"actorId"`
	UnixTimestamp int64  `json:"unixTimestamp"`
}

type likersResponse struct {
	Likers              []Liker `json:"likers"`
	NextPaginationToken *string `json:"nextPaginationToken,omitempty"`
}

// HandleListReceived serves GET /likes/received?paginationToken=.
//
// Returns everyone with a positive decision on the caller, excluding users
// the caller passed, newest first, cursor-paginated.
func (s *Service) HandleListReceived(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		svcErr.WriteError(w, svcErr.ErrUnauthenticated)
		return
	}

	token := tokenParam(r)
	s.appCtx.Logger.Debug("ListReceived called", "user", userID)

	actions, nextToken, err := s.actionRepo.GetLikers(r.Context(), userID, token, pageSize)
	if err != nil {
		s.appCtx.Logger.Error("GetLikers failed", "user", userID, "err", err)
		svcErr.WriteError(w, err)
		return
	}

	resp := likersResponse{Likers: make([]Liker, 0, len(actions)), NextPaginationToken: nextToken}
	for _, a := range actions {
		resp.Likers = append(resp.Likers, Liker{ActorID: a.ActorID, UnixTimestamp: a.UpdatedAt.UnixMilli()})
	}

	svcErr.WriteJSON(w, http.StatusOK, resp)
}

// HandleListReceivedNew serves GET /likes/received/new?paginationToken=.
//
// Same as HandleListReceived but limited to likes the caller has not yet
// reciprocated.
func (s *Service) HandleListReceivedNew(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		svcErr.WriteError(w, svcErr.ErrUnauthenticated)
		return
	}

	token := tokenParam(r)

	actions, nextToken, err := s.actionRepo.GetNewLikers(r.Context(), userID, token, pageSize)
	if err != nil {
		s.appCtx.Logger.Error("GetNewLikers failed", "user", userID, "err", err)
		svcErr.WriteError(w, err)
		return
	}

	resp := likersResponse{Likers: make([]Liker, 0, len(actions)), NextPaginationToken: nextToken}
	for _, a := range actions {
		resp.Likers = append(resp.Likers, Liker{ActorID: a.ActorID, UnixTimestamp: a.UpdatedAt.UnixMilli()})
	}

	svcErr.WriteJSON(w, http.StatusOK, resp)
}

type countResponse struct {
	Count uint64 `json:"count"`
}

// HandleCountReceived serves GET /likes/received/count.
//
// Cache-first strategy:
//  1. Attempts to read the counter from Redis (likes:count:<id>).
//  2. On a miss, falls back to the DB and repopulates the cache with TTL.
func (s *Service) HandleCountReceived(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		svcErr.WriteError(w, svcErr.ErrUnauthenticated)
		return
	}

	if cached, hit, err := s.appCtx.RedisCache.GetLikeCount(r.Context(), userID); err == nil && hit {
		svcErr.WriteJSON(w, http.StatusOK, countResponse{Count: uint64(cached)})
		return
	}

	count, err := s.actionRepo.CountLikers(r.Context(), userID)
	if err != nil {
		s.appCtx.Logger.Error("CountLikers failed", "user", userID, "err", err)
		svcErr.WriteError(w, err)
		return
	}

	if err := s.appCtx.RedisCache.SetLikeCount(r.Context(), userID, count); err != nil {
		s.appCtx.Logger.Warn("failed to cache like count", "user", userID, "err", err)
	}

	svcErr.WriteJSON(w, http.StatusOK, countResponse{Count: uint64(count)})
}

// tokenParam pulls the optional pagination token query parameter.
func tokenParam(r *http.Request) *string {
	if v := r.URL.Query().Get("paginationToken"); v != "" {
		return &v
	}
	return nil
}
