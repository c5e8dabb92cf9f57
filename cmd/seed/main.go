// Command main runs the database seeder for Alliance Feed.
package main

import (
	"flag"
	"log"

	"alliancefeed/internal/config"
	"alliancefeed/internal/database"
	"alliancefeed/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 10, "Number of users to create")
	numComments := flag.Int("comments", 80, "Number of comments to create")
	replyRatio := flag.Float64("replies", 0.3, "Fraction of comments created as replies (0..1)")
	maxDays := flag.Int("days", 30, "Spread comment timestamps backwards over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("fast", false, "Skip bcrypt hashing (dev only, passwords unusable)")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d comments, clean=%v\n", *numUsers, *numComments, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumUsers:    *numUsers,
		NumComments: *numComments,
		ReplyRatio:  *replyRatio,
		MaxDays:     *maxDays,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *skipBcrypt,
		DryRun:      *dryRun,
	}

	if err := seed.Seed(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
