package service

import (
	"context"

	"blogly/internal/cache"
	"blogly/internal/middleware"
	"blogly/internal/models"
	"blogly/internal/repository"
)

// TagService manages tags and their post sets.
type TagService struct {
	store repository.Store
}

// TagForm is everything the new and edit tag pages render.
type TagForm struct {
	Tag      *models.Tag
	Posts    []models.Post
	Selected map[uint]bool
}

type CreateTagInput struct {
	Name    string
	PostIDs []uint
}

// UpdateTagInput carries the edit form. Name is always overwritten; PostIDs is the complete
// new post set.
type UpdateTagInput struct {
	ID      uint
	Name    string
	PostIDs []uint
}

// TagUpdate reports the saved tag and whether its name changed.
type TagUpdate struct {
	Tag          *models.Tag
	PreviousName string
	Renamed      bool
}

func NewTagService(store repository.Store) *TagService {
	return &TagService{store: store}
}

// ListTags returns all tags ordered by name.
func (s *TagService) ListTags(ctx context.Context) (tags []models.Tag, err error) {
	ctx, span := startSpan(ctx, "TagService", "ListTags")
	defer func() { finishSpan(span, err) }()

	return listTagsCached(ctx, s.store)
}

// NewTagForm loads every post for the new tag page.
func (s *TagService) NewTagForm(ctx context.Context) (form *TagForm, err error) {
	ctx, span := startSpan(ctx, "TagService", "NewTagForm")
	defer func() { finishSpan(span, err) }()

	posts, err := s.store.Posts().List(ctx)
	if err != nil {
		return nil, err
	}
	return &TagForm{Posts: posts, Selected: map[uint]bool{}}, nil
}

func (s *TagService) CreateTag(ctx context.Context, in CreateTagInput) (tag *models.Tag, err error) {
	ctx, span := startSpan(ctx, "TagService", "CreateTag")
	defer func() { finishSpan(span, err) }()

	name, err := required("Tag name", in.Name)
	if err != nil {
		return nil, err
	}
	postIDs := uniqueIDs(in.PostIDs)

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		existing, err := tx.Tags().GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return duplicateName(name)
		}
		if _, err := resolvePosts(ctx, tx.Posts(), postIDs); err != nil {
			return err
		}
		t := &models.Tag{Name: name}
		if err := tx.Tags().Create(ctx, t); err != nil {
			return err
		}
		if err := tx.Tags().ReplacePosts(ctx, t.ID, postIDs); err != nil {
			return err
		}
		tag = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, cache.TagsListKey)
	recordMutation("tag", "create")
	middleware.Logger.InfoContext(ctx, "tag created", "tag_id", tag.ID, "posts", len(postIDs))
	return tag, nil
}

// GetTag returns the tag with its posts ordered by title.
func (s *TagService) GetTag(ctx context.Context, id uint) (tag *models.Tag, err error) {
	ctx, span := startSpan(ctx, "TagService", "GetTag")
	defer func() { finishSpan(span, err) }()

	return s.store.Tags().GetByID(ctx, id)
}

// EditTagForm loads the tag, every post and the currently selected post ids.
func (s *TagService) EditTagForm(ctx context.Context, id uint) (form *TagForm, err error) {
	ctx, span := startSpan(ctx, "TagService", "EditTagForm")
	defer func() { finishSpan(span, err) }()

	tag, err := s.store.Tags().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.Posts().List(ctx)
	if err != nil {
		return nil, err
	}
	return &TagForm{Tag: tag, Posts: posts, Selected: idSet(tag.PostIDs())}, nil
}

// UpdateTag renames the tag and replaces its post set wholesale.
func (s *TagService) UpdateTag(ctx context.Context, in UpdateTagInput) (result *TagUpdate, err error) {
	ctx, span := startSpan(ctx, "TagService", "UpdateTag")
	defer func() { finishSpan(span, err) }()

	postIDs := uniqueIDs(in.PostIDs)

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		t, err := tx.Tags().GetByID(ctx, in.ID)
		if err != nil {
			return err
		}
		name, err := required("Tag name", in.Name)
		if err != nil {
			return err
		}
		if name != t.Name {
			other, err := tx.Tags().GetByName(ctx, name)
			if err != nil {
				return err
			}
			if other != nil && other.ID != t.ID {
				return duplicateName(name)
			}
		}
		if _, err := resolvePosts(ctx, tx.Posts(), postIDs); err != nil {
			return err
		}

		res := &TagUpdate{PreviousName: t.Name, Renamed: name != t.Name}
		t.Name = name
		t.Posts = nil
		if err := tx.Tags().Update(ctx, t); err != nil {
			return err
		}
		if err := tx.Tags().ReplacePosts(ctx, t.ID, postIDs); err != nil {
			return err
		}
		res.Tag = t
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, cache.TagsListKey)
	recordMutation("tag", "update")
	return result, nil
}

// DeleteTag removes the tag and its post links. Posts are kept.
func (s *TagService) DeleteTag(ctx context.Context, id uint) (err error) {
	ctx, span := startSpan(ctx, "TagService", "DeleteTag")
	defer func() { finishSpan(span, err) }()

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		return tx.Tags().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	cache.Invalidate(ctx, cache.TagsListKey)
	recordMutation("tag", "delete")
	middleware.Logger.InfoContext(ctx, "tag deleted", "tag_id", id)
	return nil
}

func duplicateName(name string) error {
	return models.NewValidationError("A tag named \"" + name + "\" already exists")
}
