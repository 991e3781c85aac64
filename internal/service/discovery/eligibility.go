package discovery

import (
	"github.com/emberdate/match-engine/internal/db"
	"github.com/emberdate/match-engine/internal/geo"
)

// Mode selects which eligibility rules apply.
type Mode int

const (
	// ModeMember is normal discovery: reciprocity and the viewer's
	// distance ceiling are enforced.
	ModeMember Mode = iota

	// ModeMatchmaker is the administrative variant: a third party
	// browsing on behalf of a client sees every structurally eligible
	// candidate, so reciprocity and distance are skipped.
	ModeMatchmaker
)

// IsEligible decides whether candidate may be shown to viewer.
//
// A candidate is eligible iff all of:
//  1. not in the exclusion set (self, blocked either direction, already
//     acted upon);
//  2. visible (not hidden/paused);
//  3. matchable (system-level eligibility flag);
//  4. account active;
//  5. reciprocity, both directions: viewer's gender is in the candidate's
//     preference set AND vice versa (member mode only);
//  6. if the viewer configured a distance ceiling and both coordinate
//     pairs are present, the great-circle distance is within it. Missing
//     coordinates on either side never disqualify: unknown distance is
//     treated as acceptable so new users without geodata still surface.
func IsEligible(viewer, candidate *db.User, excluded map[uint64]struct{}, mode Mode) bool {
	if candidate.ID == viewer.ID {
		return false
	}
	if _, skip := excluded[candidate.ID]; skip {
		return false
	}
	if candidate.Hidden || !candidate.Matchable || !candidate.Active {
		return false
	}

	if mode == ModeMatchmaker {
		return true
	}

	// one-sided preference match is insufficient
	if !candidate.PrefersGender(viewer.Gender) || !viewer.PrefersGender(candidate.Gender) {
		return false
	}

	if viewer.MaxDistanceKM != nil && viewer.HasCoordinates() && candidate.HasCoordinates() {
		d := geo.DistanceKM(*viewer.Latitude, *viewer.Longitude, *candidate.Latitude, *candidate.Longitude)
		if d > *viewer.MaxDistanceKM {
			return false
		}
	}

	return true
}
