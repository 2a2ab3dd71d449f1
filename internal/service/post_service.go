package service

import (
	"context"
	"time"

	"blogly/internal/middleware"
	"blogly/internal/models"
	"blogly/internal/repository"
)

// PostService manages posts and their tag sets.
type PostService struct {
	store repository.Store
	now   func() time.Time
}

// PostForm is everything the new and edit post pages render.
type PostForm struct {
	User     *models.User
	Post     *models.Post
	Tags     []models.Tag
	Selected map[uint]bool
}

type CreatePostInput struct {
	UserID  uint
	Title   string
	Content string
	TagIDs  []uint
}

// UpdatePostInput carries the edit form. Title and Content are optional; TagIDs is always
// the complete new tag set.
type UpdatePostInput struct {
	ID      uint
	Title   *string
	Content *string
	TagIDs  []uint
}

func NewPostService(store repository.Store) *PostService {
	return &PostService{store: store, now: time.Now}
}

// NewPostForm loads the author and all tags for the new post page.
func (s *PostService) NewPostForm(ctx context.Context, userID uint) (form *PostForm, err error) {
	ctx, span := startSpan(ctx, "PostService", "NewPostForm")
	defer func() { finishSpan(span, err) }()

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	tags, err := listTagsCached(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return &PostForm{User: user, Tags: tags, Selected: map[uint]bool{}}, nil
}

// CreatePost writes the post and its tag links in one transaction.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := startSpan(ctx, "PostService", "CreatePost")
	defer func() { finishSpan(span, err) }()

	tagIDs := uniqueIDs(in.TagIDs)

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, in.UserID); err != nil {
			return err
		}
		title, err := required("Title", in.Title)
		if err != nil {
			return err
		}
		content, err := required("Content", in.Content)
		if err != nil {
			return err
		}
		if _, err := resolveTags(ctx, tx.Tags(), tagIDs); err != nil {
			return err
		}

		p := &models.Post{
			Title:     title,
			Content:   content,
			UserID:    in.UserID,
			CreatedAt: s.now().UTC(),
		}
		if err := tx.Posts().Create(ctx, p); err != nil {
			return err
		}
		if err := tx.Posts().ReplaceTags(ctx, p.ID, tagIDs); err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordMutation("post", "create")
	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.ID, "user_id", post.UserID, "tags", len(tagIDs))
	return post, nil
}

// GetPost returns the post with its author and tags.
func (s *PostService) GetPost(ctx context.Context, id uint) (post *models.Post, err error) {
	ctx, span := startSpan(ctx, "PostService", "GetPost")
	defer func() { finishSpan(span, err) }()

	return s.store.Posts().GetByID(ctx, id)
}

// EditPostForm loads the post, all tags and the currently selected tag ids.
func (s *PostService) EditPostForm(ctx context.Context, id uint) (form *PostForm, err error) {
	ctx, span := startSpan(ctx, "PostService", "EditPostForm")
	defer func() { finishSpan(span, err) }()

	post, err := s.store.Posts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tags, err := listTagsCached(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return &PostForm{User: post.User, Post: post, Tags: tags, Selected: idSet(post.TagIDs())}, nil
}

// UpdatePost applies the supplied fields and replaces the tag set wholesale.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, span := startSpan(ctx, "PostService", "UpdatePost")
	defer func() { finishSpan(span, err) }()

	title, content := optional(in.Title), optional(in.Content)
	tagIDs := uniqueIDs(in.TagIDs)

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		p, err := tx.Posts().GetByID(ctx, in.ID)
		if err != nil {
			return err
		}
		if _, err := resolveTags(ctx, tx.Tags(), tagIDs); err != nil {
			return err
		}
		if title != nil {
			p.Title = *title
		}
		if content != nil {
			p.Content = *content
		}
		if err := tx.Posts().Update(ctx, p); err != nil {
			return err
		}
		if err := tx.Posts().ReplaceTags(ctx, p.ID, tagIDs); err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordMutation("post", "update")
	return post, nil
}

// DeletePost removes the post and its tag links. It returns the owner's id, or 0 when the
// owner could not be resolved.
func (s *PostService) DeletePost(ctx context.Context, id uint) (ownerID uint, err error) {
	ctx, span := startSpan(ctx, "PostService", "DeletePost")
	defer func() { finishSpan(span, err) }()

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		p, err := tx.Posts().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.User != nil {
			ownerID = p.User.ID
		}
		return tx.Posts().Delete(ctx, id)
	})
	if err != nil {
		return 0, err
	}

	recordMutation("post", "delete")
	middleware.Logger.InfoContext(ctx, "post deleted", "post_id", id, "user_id", ownerID)
	return ownerID, nil
}
