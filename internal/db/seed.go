package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// seed cities with rough downtown coordinates. A few users get no
// coordinates at all to exercise the permissive-on-unknown distance rule.
var seedCities = []struct {
	city, state string
	lat, lon    float64
}{
	{"Philadelphia", "PA", 39.9526, -75.1652},
	{"New York", "NY", 40.7128, -74.0060},
}

// SeedTestData resets the database and populates it with demo users and a
// realistic decision graph.
//
// Behavior:
//  1. Clears `users`, `match_actions` and `blocks`.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords, mutual
//     gender preferences, and coordinates scattered around two cities
//     (two users are left without coordinates).
//  3. Generates ~200 decisions with ~70% likes; every 3rd guarantees a
//     mutual pair. A sprinkle of super likes.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"match_actions", "blocks", "users"} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch database.Dialector.Name() {
	case "mysql":
		database.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		database.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	maxDistance := 80.0
	for i := 1; i <= 20; i++ {
		gender, pref := "male", []string{"female"}
		if i > 10 {
			gender, pref = "female", []string{"male"}
		}

		home := seedCities[i%len(seedCities)]
		user := User{
			Email:            fmt.Sprintf("user%d@example.com", i),
			PasswordHash:     string(hash),
			FirstName:        fmt.Sprintf("User%d", i),
			DateOfBirth:      time.Date(1990+r.Intn(12), time.Month(1+r.Intn(12)), 1+r.Intn(28), 0, 0, 0, 0, time.UTC),
			Gender:           gender,
			GenderPreference: pref,
			City:             home.city,
			State:            home.state,
			Matchable:        true,
			Active:           true,
			Verified:         r.Intn(100) < 60,
			LastActiveAt:     time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}

		// two users stay location-less
		if i%9 != 0 {
			lat := home.lat + (r.Float64()-0.5)*0.4
			lon := home.lon + (r.Float64()-0.5)*0.4
			user.Latitude, user.Longitude = &lat, &lon
			user.MaxDistanceKM = &maxDistance
		}

		if err := database.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	var users []User
	if err := database.Order("id").Find(&users).Error; err != nil {
		return err
	}

	counter := 0
	for _, actor := range users {
		for j := 0; j < 12; j++ {
			target := users[r.Intn(len(users))]
			if actor.ID == target.ID || actor.Gender == target.Gender {
				continue
			}

			kind := ActionPass
			if roll := r.Intn(100); roll < 60 {
				kind = ActionLike
			} else if roll < 70 {
				kind = ActionSuperLike
			}

			// guarantee mutual pairs every 3rd decision
			if counter%3 == 0 {
				kind = ActionLike
				if err := replaceSeedAction(database, target.ID, actor.ID, ActionLike); err != nil {
					return err
				}
			}

			if err := replaceSeedAction(database, actor.ID, target.ID, kind); err != nil {
				return err
			}
			counter++
		}
	}
	log.Printf("Seeded %d decisions.", counter)

	return nil
}

// replaceSeedAction mirrors the repository's delete-then-insert replace so
// the seed graph never violates the one-row-per-pair invariant.
func replaceSeedAction(database *gorm.DB, actorID, targetID uint64, kind ActionKind) error {
	return database.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("actor_id = ? AND target_id = ?", actorID, targetID).
			Delete(&MatchAction{}).Error; err != nil {
			return err
		}
		return tx.Create(&MatchAction{ActorID: actorID, TargetID: targetID, Kind: kind}).Error
	})
}
