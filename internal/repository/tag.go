package repository

import (
	"context"
	"errors"
	"fmt"

	"blogly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	List(ctx context.Context) ([]models.Tag, error)
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Tag, error)
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id uint) error
	ReplacePosts(ctx context.Context, tagID uint, postIDs []uint) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func duplicateTagError(name string) error {
	return models.NewValidationError(fmt.Sprintf("A tag named %q already exists", name))
}

// List returns every tag ordered by name.
func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

// GetByID loads the tag with its posts ordered by title.
func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).
		Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Order("title ASC").Order("id ASC")
		}).
		First(&tag, id).Error; err != nil {
		return nil, notFoundOr(err, "Tag", id)
	}
	return &tag, nil
}

// GetByIDs returns the tags among ids that exist, ordered by id.
func (r *tagRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

// GetByName returns nil, nil when no tag has that name.
func (r *tagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &tag, nil
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(tag).Error; err != nil {
		if isUniqueConstraintError(err) {
			return duplicateTagError(tag.Name)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tagRepository) Update(ctx context.Context, tag *models.Tag) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(tag).Error; err != nil {
		if isUniqueConstraintError(err) {
			return duplicateTagError(tag.Name)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the tag and its post links. Posts are kept.
func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("tag_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	res := db.Delete(&models.Tag{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Tag", id)
	}
	return nil
}

// ReplacePosts makes postIDs the tag's complete post set.
func (r *tagRepository) ReplacePosts(ctx context.Context, tagID uint, postIDs []uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("tag_id = ?", tagID).Delete(&models.PostTag{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if len(postIDs) == 0 {
		return nil
	}
	links := make([]models.PostTag, 0, len(postIDs))
	for _, id := range postIDs {
		links = append(links, models.PostTag{PostID: id, TagID: tagID})
	}
	if err := db.Create(&links).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
