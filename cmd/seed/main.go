// Command main fills the database with demo blog content.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"lukeblog/internal/config"
	"lukeblog/internal/database"
	"lukeblog/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	users := flag.Int("users", defaults.Users, "Number of authors to create")
	posts := flag.Int("posts", defaults.PostsEach, "Posts per author")
	categories := flag.Int("categories", defaults.CategoriesEach, "Categories per author")
	tags := flag.Int("tags", defaults.TagsEach, "Tags per author")
	links := flag.Int("links", defaults.Links, "Friend links to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Comments per published page")
	randSeed := flag.Int64("seed", 0, "Random seed, 0 for a random one")
	fixtures := flag.String("fixtures", "", "Load this YAML fixture file instead of generating data")
	shouldClean := flag.Bool("clean", false, "Delete all rows before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if *fixtures != "" {
		f, err := os.Open(*fixtures)
		if err != nil {
			log.Fatalf("Failed to open fixtures: %v", err)
		}
		defer func() { _ = f.Close() }()
		set, err := seed.LoadFixtures(f)
		if err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
		if err := s.Apply(ctx, set); err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
		log.Printf("Loaded fixtures from %s", *fixtures)
		return
	}

	sum, err := s.Run(ctx, seed.Options{
		Users:           *users,
		CategoriesEach:  *categories,
		TagsEach:        *tags,
		PostsEach:       *posts,
		Links:           *links,
		CommentsPerPost: *comments,
		Seed:            *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d categories, %d tags, %d posts, %d links, %d sidebars, %d comments",
		sum.Users, sum.Categories, sum.Tags, sum.Posts, sum.Links, sum.SideBars, sum.Comments)
	log.Printf("All generated authors have the password: %s", seed.DefaultPassword)
}
