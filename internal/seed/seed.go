// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"time"

	"blogly/internal/cache"
	"blogly/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Options configuration for the seeder
type Options struct {
	ShouldClean bool
	// FakeUsers adds generated authors on top of the fixtures.
	FakeUsers int
	// PostsPerUser is how many generated posts each fake author gets.
	PostsPerUser int
}

// Fixture is the demo data set shipped with the binary.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
	Posts []FixturePost `yaml:"posts"`
	Tags  []string      `yaml:"tags"`
}

type FixtureUser struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	ImageURL  string `yaml:"image_url"`
}

type FixturePost struct {
	Title   string   `yaml:"title"`
	Content string   `yaml:"content"`
	Author  string   `yaml:"author"`
	Tags    []string `yaml:"tags"`
}

// LoadFixture parses the embedded fixture file.
func LoadFixture() (*Fixture, error) {
	return ParseFixture(fixturesYAML)
}

// ParseFixture parses raw YAML and checks every post references a declared author and tag.
func ParseFixture(raw []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	authors := map[string]bool{}
	for _, u := range f.Users {
		authors[u.FirstName+" "+u.LastName] = true
	}
	tags := map[string]bool{}
	for _, t := range f.Tags {
		tags[t] = true
	}
	for _, p := range f.Posts {
		if !authors[p.Author] {
			return nil, fmt.Errorf("post %q: unknown author %q", p.Title, p.Author)
		}
		for _, t := range p.Tags {
			if !tags[t] {
				return nil, fmt.Errorf("post %q: unknown tag %q", p.Title, t)
			}
		}
	}
	return &f, nil
}

// Seed populates the database with the fixture set and optional generated data.
func Seed(ctx context.Context, db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding (fake users: %d)...", opts.FakeUsers)

	if opts.ShouldClean {
		if err := ClearAll(ctx, db); err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
	}

	fixture, err := LoadFixture()
	if err != nil {
		return err
	}
	if err := SeedFixture(db, fixture); err != nil {
		return err
	}
	log.Printf("✓ %d users, %d posts, %d tags from fixtures", len(fixture.Users), len(fixture.Posts), len(fixture.Tags))

	if opts.FakeUsers > 0 {
		f := NewFactory(db)
		users, posts, err := f.SeedFake(opts.FakeUsers, opts.PostsPerUser)
		if err != nil {
			return fmt.Errorf("seed fake data: %w", err)
		}
		log.Printf("✓ %d fake users with %d posts", users, posts)
	}
	invalidateLists(ctx)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

// ClearAll removes every row, children first.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.PostTag{}, &models.Post{}, &models.Tag{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	invalidateLists(ctx)
	return nil
}

// invalidateLists drops the cached user and tag lists so a running server
// never serves rows from before the seed.
func invalidateLists(ctx context.Context) {
	cache.Invalidate(ctx, cache.UsersListKey, cache.TagsListKey)
}

// SeedFixture inserts the fixture rows in one transaction. Tags that already exist by name
// are reused, so seeding twice does not fail on the unique index.
func SeedFixture(db *gorm.DB, f *Fixture) error {
	return db.Transaction(func(tx *gorm.DB) error {
		tagIDs := make(map[string]uint, len(f.Tags))
		for _, name := range f.Tags {
			tag := models.Tag{Name: name}
			if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
				return fmt.Errorf("tag %q: %w", name, err)
			}
			tagIDs[name] = tag.ID
		}

		userIDs := make(map[string]uint, len(f.Users))
		for _, fu := range f.Users {
			u := models.User{FirstName: fu.FirstName, LastName: fu.LastName, ImageURL: fu.ImageURL}
			if err := tx.Omit(clause.Associations).Create(&u).Error; err != nil {
				return fmt.Errorf("user %s: %w", u.FullName(), err)
			}
			userIDs[u.FullName()] = u.ID
		}

		// Spread creation times so the dashboard ordering is stable.
		base := time.Now().Add(-time.Duration(len(f.Posts)) * time.Hour)
		for i, fp := range f.Posts {
			p := models.Post{
				Title:     fp.Title,
				Content:   fp.Content,
				UserID:    userIDs[fp.Author],
				CreatedAt: base.Add(time.Duration(i) * time.Hour),
			}
			if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
				return fmt.Errorf("post %q: %w", fp.Title, err)
			}
			if len(fp.Tags) == 0 {
				continue
			}
			links := make([]models.PostTag, 0, len(fp.Tags))
			for _, name := range fp.Tags {
				links = append(links, models.PostTag{PostID: p.ID, TagID: tagIDs[name]})
			}
			if err := tx.Create(&links).Error; err != nil {
				return fmt.Errorf("post %q tags: %w", fp.Title, err)
			}
		}
		return nil
	})
}
