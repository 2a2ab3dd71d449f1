package service

import (
	"context"

	"blogly/internal/cache"
	"blogly/internal/middleware"
	"blogly/internal/models"
	"blogly/internal/repository"
)

// UserService manages blog authors.
type UserService struct {
	store repository.Store
}

// CreateUserInput carries the new-user form.
type CreateUserInput struct {
	FirstName string
	LastName  string
	ImageURL  string
}

// UpdateUserInput carries the edit form. Nil or blank fields leave the stored value alone.
type UpdateUserInput struct {
	ID        uint
	FirstName *string
	LastName  *string
	ImageURL  *string
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// ListUsers returns all users ordered by last name, then first name.
func (s *UserService) ListUsers(ctx context.Context) (users []models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "ListUsers")
	defer func() { finishSpan(span, err) }()

	return listUsersCached(ctx, s.store)
}

// GetUser returns the user with their posts, newest first.
func (s *UserService) GetUser(ctx context.Context, id uint) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "GetUser")
	defer func() { finishSpan(span, err) }()

	return s.store.Users().GetByIDWithPosts(ctx, id)
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "CreateUser")
	defer func() { finishSpan(span, err) }()

	first, err := required("First name", in.FirstName)
	if err != nil {
		return nil, err
	}
	last, err := required("Last name", in.LastName)
	if err != nil {
		return nil, err
	}

	user = &models.User{FirstName: first, LastName: last}
	if img := optional(&in.ImageURL); img != nil {
		user.ImageURL = *img
	}

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, cache.UsersListKey)
	recordMutation("user", "create")
	middleware.Logger.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

// UpdateUser overwrites only the supplied fields. A request that supplies none is rejected
// without touching the database.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "UpdateUser")
	defer func() { finishSpan(span, err) }()

	first, last, img := optional(in.FirstName), optional(in.LastName), optional(in.ImageURL)

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByID(ctx, in.ID)
		if err != nil {
			return err
		}
		if first == nil && last == nil && img == nil {
			return models.NewValidationError("No changes submitted")
		}
		if first != nil {
			u.FirstName = *first
		}
		if last != nil {
			u.LastName = *last
		}
		if img != nil {
			u.ImageURL = *img
		}
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, cache.UsersListKey)
	recordMutation("user", "update")
	return user, nil
}

// DeleteUser removes the user together with their posts and those posts' tag links.
func (s *UserService) DeleteUser(ctx context.Context, id uint) (err error) {
	ctx, span := startSpan(ctx, "UserService", "DeleteUser")
	defer func() { finishSpan(span, err) }()

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		return tx.Users().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	cache.Invalidate(ctx, cache.UsersListKey)
	recordMutation("user", "delete")
	middleware.Logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}
