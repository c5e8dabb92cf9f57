// Package seed populates the database with realistic development data.
package seed

import (
	"fmt"
	"log"

	"alliancefeed/internal/models"

	"gorm.io/gorm"
)

// Options controls how much data the seeder generates.
type Options struct {
	NumUsers    int
	NumComments int
	// ReplyRatio is the fraction of comments created as replies, 0..1.
	ReplyRatio float64
	// MaxDays spreads comment timestamps backwards over this many days.
	MaxDays     int
	ShouldClean bool
	SkipBcrypt  bool
	DryRun      bool
}

// DefaultOptions returns a sensible development preset.
func DefaultOptions() Options {
	return Options{
		NumUsers:    10,
		NumComments: 80,
		ReplyRatio:  0.3,
		MaxDays:     30,
		ShouldClean: true,
	}
}

// Seed populates the database with test users and a comment feed.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d users and %d comments...", opts.NumUsers, opts.NumComments)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Created %d users", len(users))

	if len(users) == 0 {
		return nil
	}

	created := make([]*models.Comment, 0, opts.NumComments)
	for i := 0; i < opts.NumComments; i++ {
		user := users[f.rand.Intn(len(users))]

		if len(created) > 0 && f.rand.Float64() < opts.ReplyRatio {
			parent := created[f.rand.Intn(len(created))]
			reply, err := f.CreateReply(user, parent)
			if err != nil {
				return fmt.Errorf("failed to create reply: %w", err)
			}
			created = append(created, reply)
			continue
		}

		comment, err := f.CreateComment(user)
		if err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		created = append(created, comment)
	}
	log.Printf("Created %d comments", len(created))

	log.Println("Database seeding completed")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE comments, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}
