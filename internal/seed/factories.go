package seed

import (
	"fmt"
	"math/rand"
	"time"

	"blogly/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
	fake *gofakeit.Faker
	// MaxDays bounds how far back generated posts are dated.
	MaxDays int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	seed := time.Now().UnixNano()
	return &Factory{
		db:      db,
		rand:    rand.New(rand.NewSource(seed)),
		fake:    gofakeit.New(seed),
		MaxDays: 90,
	}
}

// BuildUser returns an unsaved author with a generated name and portrait.
func (f *Factory) BuildUser() *models.User {
	return &models.User{
		FirstName: f.fake.FirstName(),
		LastName:  f.fake.LastName(),
		ImageURL:  fmt.Sprintf("https://i.pravatar.cc/300?u=%s", f.fake.UUID()),
	}
}

// BuildPost returns an unsaved post for user with a realistic created_at spread.
func (f *Factory) BuildPost(user *models.User) *models.Post {
	maxDays := f.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rand.Intn(maxDays)
	hoursBack := f.rand.Intn(24)
	minsBack := f.rand.Intn(60)

	return &models.Post{
		Title:     f.fake.Sentence(5),
		Content:   f.fake.Paragraph(2, 3, 12, "\n\n"),
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute),
	}
}

// SeedFake inserts users fake authors with postsPerUser posts each, tagging every post with
// up to two of the existing tags. It returns the number of users and posts written.
func (f *Factory) SeedFake(users, postsPerUser int) (int, int, error) {
	var tags []models.Tag
	if err := f.db.Order("id").Find(&tags).Error; err != nil {
		return 0, 0, err
	}

	var nUsers, nPosts int
	err := f.db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < users; i++ {
			u := f.BuildUser()
			if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			nUsers++

			for j := 0; j < postsPerUser; j++ {
				p := f.BuildPost(u)
				if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
					return fmt.Errorf("create post: %w", err)
				}
				nPosts++

				if links := f.pickTags(p.ID, tags); len(links) > 0 {
					if err := tx.Create(&links).Error; err != nil {
						return fmt.Errorf("tag post: %w", err)
					}
				}
			}
		}
		return nil
	})
	return nUsers, nPosts, err
}

func (f *Factory) pickTags(postID uint, tags []models.Tag) []models.PostTag {
	if len(tags) == 0 {
		return nil
	}
	n := f.rand.Intn(3)
	if n > len(tags) {
		n = len(tags)
	}
	links := make([]models.PostTag, 0, n)
	for _, i := range f.rand.Perm(len(tags))[:n] {
		links = append(links, models.PostTag{PostID: postID, TagID: tags[i].ID})
	}
	return links
}
