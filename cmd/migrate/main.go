package main

import (
	"log"

	"convohealth-be/internal/config"
	"convohealth-be/internal/model"
	"convohealth-be/pkg/database"
)

func main() {
	// 1. Load Configuration (.env or system env)
	cfg := config.Load()

	// 2. Connect to Database
	db, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. AutoMigrate All Models
	log.Printf("Running AutoMigrate for %d tables...", len(model.All()))
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Success: Database migration completed.")
}
