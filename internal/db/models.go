package db

import (
	"time"
)

// ActionKind is a viewer's decision on a candidate.
type ActionKind string

const (
	ActionLike      ActionKind = "like"
	ActionPass      ActionKind = "pass"
	ActionSuperLike ActionKind = "super_like"
)

// Valid reports whether k is one of the known action kinds.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionLike, ActionPass, ActionSuperLike:
		return true
	}
	return false
}

// Positive reports whether k participates in mutual matching.
// A pass never does.
func (k ActionKind) Positive() bool {
	return k == ActionLike || k == ActionSuperLike
}

// User is a member profile. Rows are never hard-deleted; profiles are
// hidden instead so the match ledger keeps referential integrity.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	FirstName   string    `gorm:"size:64;not null"`
	LastName    string    `gorm:"size:64"`
	DateOfBirth time.Time `gorm:"not null"`
	Gender      string    `gorm:"size:16;not null"`

	// GenderPreference is the set of genders the user wants to see.
	GenderPreference []string `gorm:"serializer:json;type:text"`

	City  string `gorm:"size:64"`
	State string `gorm:"size:64"`

	// Optional coordinates. A nil pair means location unknown; the
	// distance filter treats unknown as not disqualifying.
	Latitude  *float64
	Longitude *float64

	// MaxDistanceKM is the viewer's optional distance ceiling for
	// discovery. nil means no distance preference.
	MaxDistanceKM *float64

	Hidden    bool `gorm:"default:false"` // user paused/hid their profile
	Matchable bool `gorm:"default:true"`  // system-level eligibility flag
	Active    bool `gorm:"default:true"`  // account status
	Verified  bool `gorm:"default:false"`

	PhotoURL     string `gorm:"size:255"`
	LastActiveAt time.Time

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Age derives the user's age in whole years at the given instant.
func (u *User) Age(now time.Time) int {
	years := now.Year() - u.DateOfBirth.Year()
	anniversary := u.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// PrefersGender reports whether g is in the user's stated preference set.
func (u *User) PrefersGender(g string) bool {
	for _, p := range u.GenderPreference {
		if p == g {
			return true
		}
	}
	return false
}

// HasCoordinates reports whether both latitude and longitude are present.
func (u *User) HasCoordinates() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// MatchAction records an actor's decision on a target.
//
// Composite PK: (ActorID, TargetID)
//   - At most one row per ordered pair; a new decision on the same target
//     replaces the old row (transactional delete-then-insert in the
//     repository, with the PK as the uniqueness backstop under races).
//
// Indexes:
//   - idx_target_kind_updated_actor(target_id, kind, updated_at DESC, actor_id)
//     serves "who liked me" lists with cursor pagination.
//   - idx_actor_created(actor_id, created_at DESC)
//     serves the most-recent-action lookup for undo.
//
// CreatedAt is the undo clock: replacing a row inserts a fresh one, which
// resets the window.
type MatchAction struct {
	ActorID   uint64     `gorm:"primaryKey;index:idx_actor_created,priority:1"`
	TargetID  uint64     `gorm:"primaryKey;index:idx_target_kind_updated_actor,priority:1"`
	Kind      ActionKind `gorm:"size:16;not null;index:idx_target_kind_updated_actor,priority:2"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index:idx_actor_created,priority:2,sort:desc"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime;index:idx_target_kind_updated_actor,priority:3,sort:desc"`
}

// Block is a directed blocker -> blocked edge, unique per ordered pair.
// Creating one cascades deletion of match actions between the two users in
// both directions (same transaction, bypassing the undo window).
type Block struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	BlockerID uint64    `gorm:"not null;uniqueIndex:idx_block_pair,priority:1"`
	BlockedID uint64    `gorm:"not null;uniqueIndex:idx_block_pair,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
