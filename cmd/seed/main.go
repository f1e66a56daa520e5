// Command seed populates the development database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"ampcast/internal/config"
	"ampcast/internal/credentials"
	"ampcast/internal/database"
	"ampcast/internal/middleware"
	"ampcast/internal/repository"
	"ampcast/internal/seed"
)

func main() {
	owners := flag.Int("owners", 3, "number of demo owners")
	posts := flag.Int("posts", 40, "posts per owner")
	clean := flag.Bool("clean", false, "delete existing rows first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("Refusing to seed a production database")
	}
	middleware.InitMiddleware(cfg)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	resolver, err := credentials.NewResolver(
		repository.NewCredentialRepository(db), cfg.CredentialMasterKey, middleware.Logger)
	if err != nil {
		log.Fatalf("Credential resolver init failed: %v", err)
	}

	opts := seed.DefaultOptions()
	opts.NumOwners = *owners
	opts.PostsPerOwner = *posts
	opts.ShouldClean = *clean

	if err := seed.NewSeeder(db, resolver, opts).Run(context.Background()); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
