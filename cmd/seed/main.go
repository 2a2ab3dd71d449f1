// Command main runs the database seeder for Blogly.
package main

import (
	"context"
	"flag"
	"log"

	"blogly/internal/cache"
	"blogly/internal/config"
	"blogly/internal/database"
	"blogly/internal/seed"
)

func main() {
	// Parse command line flags
	fakeUsers := flag.Int("fake-users", 0, "Number of generated users to add on top of the fixtures")
	postsPerUser := flag.Int("posts-per-user", 3, "Number of generated posts per fake user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: fixtures + %d fake users (%d posts each), clean=%v\n", *fakeUsers, *postsPerUser, *shouldClean)

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
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("❌ Schema setup failed: %v", err)
	}

	// Connect to the server's Redis so seeding drops its cached lists.
	cache.InitRedis(cfg.RedisURL)
	defer func() { _ = cache.Close() }()

	if err := seed.Seed(ctx, db, seed.Options{
		ShouldClean:  *shouldClean,
		FakeUsers:    *fakeUsers,
		PostsPerUser: *postsPerUser,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo data.")
}
