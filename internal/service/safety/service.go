package safety

import (
	"context"
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/emberdate/match-engine/internal/app"
	"github.com/emberdate/match-engine/internal/auth"
	svcErr "github.com/emberdate/match-engine/internal/errors"
	"github.com/emberdate/match-engine/internal/repository"
)

// Service implements user blocking and its cascade over the match ledger.
type Service struct {
	appCtx      *app.AppContext
	blockRepo   *repository.BlockRepository
	profileRepo *repository.ProfileRepository
}

// NewService creates a safety service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		blockRepo:   repository.NewBlockRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// BlockUser records blocker -> blocked and cascades: every match action
// between the pair, in both directions, is deleted in the same
// transaction, which also dissolves any mutual match. The cascade ignores
// the undo window.
func (s *Service) BlockUser(ctx context.Context, blockerID, blockedID uint64) error {
	if blockerID == blockedID {
		return svcErr.ErrInvalidTarget
	}
	if _, err := s.profileRepo.GetByID(ctx, blockedID); err != nil {
		if svcErr.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.ErrInvalidTarget
		}
		return err
	}

	if err := s.blockRepo.Create(ctx, blockerID, blockedID); err != nil {
		return err
	}

	// ledger rows between the pair are gone; drop both cached counters
	// rather than guessing deltas
	if err := s.appCtx.RedisCache.InvalidateLikeCount(ctx, blockerID); err != nil {
		s.appCtx.Logger.Warn("failed to invalidate like count", "user", blockerID, "err", err)
	}
	if err := s.appCtx.RedisCache.InvalidateLikeCount(ctx, blockedID); err != nil {
		s.appCtx.Logger.Warn("failed to invalidate like count", "user", blockedID, "err", err)
	}

	return nil
}

type blockRequest struct {
	BlockedUserID uint64 `json:"blockedUserId"`
}

type blockResponse struct {
	Blocked bool `json:"blocked"`
}

// HandleBlock serves POST /blocks.
func (s *Service) HandleBlock(w http.ResponseWriter, r *http.Request) {
	blockerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		svcErr.WriteError(w, svcErr.ErrUnauthenticated)
		return
	}

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		svcErr.WriteError(w, svcErr.ErrInvalidTarget)
		return
	}
	defer r.Body.Close()

	s.appCtx.Logger.Debug("BlockUser called", "blocker", blockerID, "blocked", req.BlockedUserID)

	if err := s.BlockUser(r.Context(), blockerID, req.BlockedUserID); err != nil {
		s.appCtx.Logger.Error("BlockUser failed", "blocker", blockerID, "blocked", req.BlockedUserID, "err", err)
		svcErr.WriteError(w, err)
		return
	}

	svcErr.WriteJSON(w, http.StatusOK, blockResponse{Blocked: true})
}
