package repository

import (
	"context"

	"blogly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	List(ctx context.Context) ([]models.Post, error)
	Recent(ctx context.Context, limit int) ([]models.Post, error)
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	ReplaceTags(ctx context.Context, postID uint, tagIDs []uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func orderTagsByName(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC")
}

// List returns all posts ordered by title with their authors.
func (r *postRepository) List(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("title ASC").Order("id ASC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Recent returns up to limit posts, newest first.
func (r *postRepository) Recent(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 5
	}
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags", orderTagsByName).
		First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

// GetByIDs returns the posts among ids that exist, ordered by id.
func (r *postRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	posts := []models.Post{}
	if len(ids) == 0 {
		return posts, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the post and its tag links.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	res := db.Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// ReplaceTags makes tagIDs the post's complete tag set.
func (r *postRepository) ReplaceTags(ctx context.Context, postID uint, tagIDs []uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]models.PostTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		links = append(links, models.PostTag{PostID: postID, TagID: id})
	}
	if err := db.Create(&links).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
