// Command migrate applies the database schema for Alliance Feed.
package main

import (
	"log"

	"alliancefeed/internal/config"
	"alliancefeed/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	// Connect automigrates outside production; run explicitly so the
	// command also works against production databases.
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("schema applied")
}
