package discovery

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/emberdate/match-engine/internal/app"
	"github.com/emberdate/match-engine/internal/auth"
	"github.com/emberdate/match-engine/internal/db"
	svcErr "github.com/emberdate/match-engine/internal/errors"
	"github.com/emberdate/match-engine/internal/geo"
	"github.com/emberdate/match-engine/internal/repository"
)

// Service implements the discovery API: which profiles a viewer is allowed
// to see next, in profile-creation-recency order.
type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository
	actionRepo  *repository.ActionRepository
	blockRepo   *repository.BlockRepository

	defaultLimit int
	maxLimit     int

	now func() time.Time
}

// NewService creates a discovery service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		profileRepo:  repository.NewProfileRepository(appCtx.DB),
		actionRepo:   repository.NewActionRepository(appCtx.DB),
		blockRepo:    repository.NewBlockRepository(appCtx.DB),
		defaultLimit: appCtx.Config.Discovery.DefaultLimit,
		maxLimit:     appCtx.Config.Discovery.MaxLimit,
		now:          time.Now,
	}
}

// Candidate is the profile projection returned to clients.
type Candidate struct {
	ID         uint64   `json:"id"`
	FirstName  string   `json:"firstName"`
	Age        int      `json:"age"`
	Gender     string   `json:"gender"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	Verified   bool     `json:"verified"`
	PhotoURL   string   `json:"photoUrl,omitempty"`
	DistanceKM *float64 `json:"distanceKm,omitempty"`
}

// SelectCandidates returns up to limit eligible candidates for the viewer
// starting at offset, ordered by profile creation time descending.
//
// Behavior:
//   - Builds the exclusion set: self, blocked either direction, every
//     target the viewer has already acted on (any kind).
//   - Fetches the active/visible/matchable pool minus exclusions in SQL,
//     then applies the per-candidate eligibility filter (reciprocity,
//     distance) in order.
//   - Offset and limit are applied to the filtered survivor list, so a
//     candidate turning ineligible between pages shifts the pages rather
//     than erroring.
func (s *Service) SelectCandidates(
	ctx context.Context,
	viewerID uint64,
	limit, offset int,
	mode Mode,
) ([]Candidate, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	viewer, err := s.profileRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	blockedIDs, err := s.blockRepo.ListInvolvedUserIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	actedIDs, err := s.actionRepo.ListActedTargetIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	excluded := make(map[uint64]struct{}, len(blockedIDs)+len(actedIDs)+1)
	excluded[viewerID] = struct{}{}
	excludedList := make([]uint64, 0, len(blockedIDs)+len(actedIDs))
	for _, id := range blockedIDs {
		excluded[id] = struct{}{}
		excludedList = append(excludedList, id)
	}
	for _, id := range actedIDs {
		excluded[id] = struct{}{}
		excludedList = append(excludedList, id)
	}

	pool, err := s.profileRepo.ListCandidatePool(ctx, viewerID, excludedList)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, limit)
	skipped := 0
	for i := range pool {
		c := &pool[i]
		if !IsEligible(viewer, c, excluded, mode) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		candidates = append(candidates, s.toCandidate(viewer, c))
		if len(candidates) == limit {
			break
		}
	}

	return candidates, nil
}

func (s *Service) toCandidate(viewer, c *db.User) Candidate {
	out := Candidate{
		ID:        c.ID,
		FirstName: c.FirstName,
		Age:       c.Age(s.now()),
		Gender:    c.Gender,
		City:      c.City,
		State:     c.State,
		Verified:  c.Verified,
		PhotoURL:  c.PhotoURL,
	}
	if viewer.HasCoordinates() && c.HasCoordinates() {
		d := geo.DistanceKM(*viewer.Latitude, *viewer.Longitude, *c.Latitude, *c.Longitude)
		out.DistanceKM = &d
	}
	return out
}

type candidatesResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// HandleCandidates serves GET /discovery/candidates?limit&offset.
func (s *Service) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		svcErr.WriteError(w, svcErr.ErrUnauthenticated)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	s.appCtx.Logger.Debug("SelectCandidates called", "viewer", viewerID, "limit", limit, "offset", offset)

	candidates, err := s.SelectCandidates(r.Context(), viewerID, limit, offset, ModeMember)
	if err != nil {
		s.appCtx.Logger.Error("SelectCandidates failed", "viewer", viewerID, "err", err)
		svcErr.WriteError(w, err)
		return
	}

	svcErr.WriteJSON(w, http.StatusOK, candidatesResponse{Candidates: candidates})
}
