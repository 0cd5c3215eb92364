package main

import (
	"flag"
	"log"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/johnquangdev/video-dubber/internal/infrastructure/database"
	"github.com/johnquangdev/video-dubber/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "roll back instead of applying")
	steps := flag.Int("steps", 0, "maximum migrations to run (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	direction := migrate.Up
	if *down {
		direction = migrate.Down
		if *steps == 0 {
			*steps = 1
		}
	}

	n, err := database.Migrate(db, direction, *steps)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("✅ Successfully ran %d migration(s)!\n", n)
}
