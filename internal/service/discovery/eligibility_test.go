package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emberdate/match-engine/internal/db"
)

func ptr(f float64) *float64 { return &f }

func baseViewer() *db.User {
	return &db.User{
		ID: 1, Gender: "male", GenderPreference: []string{"female"},
		Latitude: ptr(40.0), Longitude: ptr(-75.0), MaxDistanceKM: ptr(50),
		Active: true, Matchable: true,
	}
}

func baseCandidate() *db.User {
	return &db.User{
		ID: 2, Gender: "female", GenderPreference: []string{"male"},
		Latitude: ptr(40.1), Longitude: ptr(-75.1),
		Active: true, Matchable: true,
	}
}

func TestIsEligible_HappyPath(t *testing.T) {
	assert.True(t, IsEligible(baseViewer(), baseCandidate(), nil, ModeMember))
}

func TestIsEligible_SelfNeverEligible(t *testing.T) {
	v := baseViewer()
	c := baseViewer()
	assert.False(t, IsEligible(v, c, nil, ModeMember))
	assert.False(t, IsEligible(v, c, nil, ModeMatchmaker))
}

func TestIsEligible_ExclusionSet(t *testing.T) {
	excluded := map[uint64]struct{}{2: {}}
	assert.False(t, IsEligible(baseViewer(), baseCandidate(), excluded, ModeMember))
	// exclusions hold in matchmaker mode too
	assert.False(t, IsEligible(baseViewer(), baseCandidate(), excluded, ModeMatchmaker))
}

func TestIsEligible_VisibilityAndStatusFlags(t *testing.T) {
	c := baseCandidate()
	c.Hidden = true
	assert.False(t, IsEligible(baseViewer(), c, nil, ModeMember))

	c = baseCandidate()
	c.Matchable = false
	assert.False(t, IsEligible(baseViewer(), c, nil, ModeMember))

	c = baseCandidate()
	c.Active = false
	assert.False(t, IsEligible(baseViewer(), c, nil, ModeMember))
	// status flags bind matchmakers as well
	assert.False(t, IsEligible(baseViewer(), c, nil, ModeMatchmaker))
}

func TestIsEligible_ReciprocityBothDirections(t *testing.T) {
	// candidate does not accept viewer's gender
	c := baseCandidate()
	c.GenderPreference = []string{"female"}
	assert.False(t, IsEligible(baseViewer(), c, nil, ModeMember))

	// viewer does not accept candidate's gender
	v := baseViewer()
	v.GenderPreference = []string{"male"}
	assert.False(t, IsEligible(v, baseCandidate(), nil, ModeMember))

	// matchmaker mode ignores both
	assert.True(t, IsEligible(baseViewer(), c, nil, ModeMatchmaker))
}

func TestIsEligible_DistanceCeiling(t *testing.T) {
	far := baseCandidate()
	far.Latitude, far.Longitude = ptr(45.0), ptr(-70.0)
	assert.False(t, IsEligible(baseViewer(), far, nil, ModeMember))

	// no ceiling configured → distance never excludes
	v := baseViewer()
	v.MaxDistanceKM = nil
	assert.True(t, IsEligible(v, far, nil, ModeMember))
}

func TestIsEligible_MissingCoordinatesArePermissive(t *testing.T) {
	// candidate without coordinates is not excluded by distance
	c := baseCandidate()
	c.Latitude, c.Longitude = nil, nil
	assert.True(t, IsEligible(baseViewer(), c, nil, ModeMember))

	// viewer without coordinates cannot measure, so far candidates stay in
	v := baseViewer()
	v.Latitude, v.Longitude = nil, nil
	far := baseCandidate()
	far.Latitude, far.Longitude = ptr(45.0), ptr(-70.0)
	assert.True(t, IsEligible(v, far, nil, ModeMember))
}
