package match

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/emberdate/match-engine/internal/app"
	"github.com/emberdate/match-engine/internal/auth"
	"github.com/emberdate/match-engine/internal/db"
	svcErr "github.com/emberdate/match-engine/internal/errors"
	"github.com/emberdate/match-engine/internal/repository"
)

// Service implements the match-action API: recording decisions, detecting
// mutual matches, and time-boxed undo.
type Service struct {
	appCtx      *app.AppContext
	actionRepo  *repository.ActionRepository
	profileRepo *repository.ProfileRepository

	undoWindow time.Duration

	// now is swappable so tests can pin the clock at window boundaries.
	now func() time.Time
}

// NewService creates a match service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		actionRepo:  repository.NewActionRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
		undoWindow:  appCtx.Config.Undo.Window,
		now:         time.Now,
	}
}

// ActionResult is what RecordAction reports back to the caller.
type ActionResult struct {
	Action      *db.MatchAction
	MutualMatch bool
}

// RecordAction persists actor's decision on target, replacing any prior
// decision on the same target (a user can change a pass into a like; it is
// never an "already decided" error).
//
// Behavior:
//   - Self-action and unknown kinds/targets are rejected before any write.
//   - The replace runs as one transaction; the new row's CreatedAt resets
//     the undo window.
//   - Stamps the actor's last-active timestamp.
//   - For positive kinds, runs mutual-match detection synchronously via
//     reverse lookup so the caller sees a consistent answer immediately.
//   - Adjusts the target's cached received-like count by the net delta of
//     the replace (best effort; cache repopulates from DB on miss).
func (s *Service) RecordAction(
	ctx context.Context,
	actorID, targetID uint64,
	kind db.ActionKind,
) (*ActionResult, error) {
	if actorID == targetID {
		return nil, svcErr.ErrInvalidTarget
	}
	if !kind.Valid() {
		return nil, svcErr.ErrInvalidTarget
	}
	if _, err := s.profileRepo.GetByID(ctx, targetID); err != nil {
		if svcErr.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.ErrInvalidTarget
		}
		return nil, err
	}

	prior, err := s.actionRepo.GetAction(ctx, actorID, targetID)
	if err != nil && !svcErr.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	action, err := s.actionRepo.ReplaceAction(ctx, actorID, targetID, kind)
	if err != nil {
		return nil, err
	}

	if err := s.profileRepo.TouchLastActive(ctx, actorID, s.now()); err != nil {
		s.appCtx.Logger.Warn("failed to touch last active", "actor", actorID, "err", err)
	}

	s.adjustLikeCount(ctx, targetID, prior, kind)

	mutual := false
	if kind.Positive() {
		mutual, err = s.actionRepo.HasPositiveAction(ctx, targetID, actorID)
		if err != nil {
			return nil, err
		}
	}

	return &ActionResult{Action: action, MutualMatch: mutual}, nil
}

// adjustLikeCount keeps the target's cached received-like count in step
// with a replace. A like→pass replace decrements, pass→like increments,
// like→super_like is a wash.
func (s *Service) adjustLikeCount(ctx context.Context, targetID uint64, prior *db.MatchAction, kind db.ActionKind) {
	var delta int64
	if prior != nil && prior.Kind.Positive() {
		delta--
	}
	if kind.Positive() {
		delta++
	}
	if delta == 0 {
		return
	}
	if err := s.appCtx.RedisCache.AdjustLikeCount(ctx, targetID, delta); err != nil {
		s.appCtx.Logger.Warn("failed to adjust like count", "target", targetID, "err", err)
	}
}

// IsMutual reports whether a and b currently have positive decisions on
// each other. Mutuality is derived from the ledger at read time; it is
// never stored, so it disappears the instant either side's action does.
func (s *Service) IsMutual(ctx context.Context, a, b uint64) (bool, error) {
	ab, err := s.actionRepo.HasPositiveAction(ctx, a, b)
	if err != nil || !ab {
		return false, err
	}
	return s.actionRepo.HasPositiveAction(ctx, b, a)
}

// UndoableAction describes the single action a user may still reverse.
type UndoableAction struct {
	TargetUserID     uint64        `json:"targetUserId"`
	Kind             db.ActionKind `json:"kind"`
	SecondsRemaining int           `json:"secondsRemaining"`
}

// GetUndoable returns the user's most recent action if it is still inside
// the undo window, or nil if there is nothing to undo.
func (s *Service) GetUndoable(ctx context.Context, userID uint64) (*UndoableAction, error) {
	action, err := s.actionRepo.LatestByActor(ctx, userID)
	if err != nil {
		if svcErr.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	age := s.now().Sub(action.CreatedAt)
	if age > s.undoWindow {
		return nil, nil
	}

	return &UndoableAction{
		TargetUserID:     action.TargetID,
		Kind:             action.Kind,
		SecondsRemaining: int((s.undoWindow - age) / time.Second),
	}, nil
}

// Undo reverses the user's action on target.
//
// Behavior:
//   - ErrNotFound if no action exists for the pair.
//   - ErrExpired if the action is older than the undo window, measured at
//     call time. The boundary is inclusive: an action aged exactly the
//     window length still undoes.
//   - On success the row is deleted and the undone kind returned. No
//     re-surfacing side effects: the candidate reappears in discovery only
//     because the exclusion list no longer contains them.
func (s *Service) Undo(ctx context.Context, userID, targetID uint64) (db.ActionKind, error) {
	action, err := s.actionRepo.GetAction(ctx, userID, targetID)
	if err != nil {
		if svcErr.Is(err, gorm.ErrRecordNotFound) {
			return "", svcErr.ErrNotFound
		}
		return "", err
	}

	if s.now().Sub(action.CreatedAt) > s.undoWindow {
		return "", svcErr.ErrExpired
	}

	deleted, err := s.actionRepo.DeleteAction(ctx, userID, targetID)
	if err != nil {
		return "", err
	}
	if deleted == 0 {
		// raced with a block cascade or a concurrent undo
		return "", svcErr.ErrNotFound
	}

	if action.Kind.Positive() {
		if err := s.appCtx.RedisCache.AdjustLikeCount(ctx, targetID, -1); err != nil {
			s.appCtx.Logger.Warn("failed to adjust like count", "target", targetID, "err", err)
		}
	}

	return action.Kind, nil
}

//
// HTTP handlers
//

type recordActionRequest struct {
	TargetUserID uint64 `json:"targetUserId"`
	Kind         string `json:"kind"`
}

type recordActionResponse struct {
	Created     bool `json:"created"`
	MutualMatch bool `json:"mutualMatch"`
}

// HandleRecordAction serves POST /match-actions.
func (s *Service) HandleRecordAction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		svcErr.WriteError(w, svcErr.ErrUnauthenticated)
		return
	}

	var req recordActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		svcErr.WriteError(w, svcErr.ErrInvalidTarget)
		return
	}
	defer r.Body.Close()

	s.appCtx.Logger.Debug("RecordAction called", "actor", actorID, "target", req.TargetUserID, "kind", req.Kind)

	result, err := s.RecordAction(r.Context(), actorID, req.TargetUserID, db.ActionKind(req.Kind))
	if err != nil {
		s.appCtx.Logger.Error("RecordAction failed", "actor", actorID, "target", req.TargetUserID, "err", err)
		svcErr.WriteError(w, err)
		return
	}

	svcErr.WriteJSON(w, http.StatusOK, recordActionResponse{
		Created:     true,
		MutualMatch: result.MutualMatch,
	})
}

type undoableResponse struct {
	CanUndo bool            `json:"canUndo"`
	Action  *UndoableAction `json:"action,omitempty"`
}

// HandleGetUndoable serves GET /match-actions/undoable.
func (s *Service) HandleGetUndoable(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		svcErr.WriteError(w, svcErr.ErrUnauthenticated)
		return
	}

	action, err := s.GetUndoable(r.Context(), userID)
	if err != nil {
		s.appCtx.Logger.Error("GetUndoable failed", "user", userID, "err", err)
		svcErr.WriteError(w, err)
		return
	}

	svcErr.WriteJSON(w, http.StatusOK, undoableResponse{CanUndo: action != nil, Action: action})
}

type undoRequest struct {
	TargetUserID uint64 `json:"targetUserId"`
}

type undoResponse struct {
	UndoneKind db.ActionKind `json:"undoneKind"`
}

// HandleUndo serves POST /match-actions/undo.
func (s *Service) HandleUndo(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		svcErr.WriteError(w, svcErr.ErrUnauthenticated)
		return
	}

	var req undoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		svcErr.WriteError(w, svcErr.ErrInvalidTarget)
		return
	}
	defer r.Body.Close()

	kind, err := s.Undo(r.Context(), userID, req.TargetUserID)
	if err != nil {
		s.appCtx.Logger.Error("Undo failed", "user", userID, "target", req.TargetUserID, "err", err)
		svcErr.WriteError(w, err)
		return
	}

	svcErr.WriteJSON(w, http.StatusOK, undoResponse{UndoneKind: kind})
}
