package service

import (
	"context"
	"errors"
	"testing"

	"blogly/internal/models"
	"blogly/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore runs Transact callbacks against itself.
type stubStore struct {
	users     repository.UserRepository
	posts     repository.PostRepository
	tags      repository.TagRepository
	transacts int
}

func (s *stubStore) Users() repository.UserRepository { return s.users }
func (s *stubStore) Posts() repository.PostRepository { return s.posts }
func (s *stubStore) Tags() repository.TagRepository   { return s.tags }

func (s *stubStore) Transact(_ context.Context, fn func(repository.Store) error) error {
	s.transacts++
	return fn(s)
}

type userRepoStub struct {
	listFn             func(context.Context) ([]models.User, error)
	getByIDFn          func(context.Context, uint) (*models.User, error)
	getByIDWithPostsFn func(context.Context, uint) (*models.User, error)
	createFn           func(context.Context, *models.User) error
	updateFn           func(context.Context, *models.User) error
	deleteFn           func(context.Context, uint) error
}

func (s *userRepoStub) List(ctx context.Context) ([]models.User, error) { return s.listFn(ctx) }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDWithPosts(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDWithPostsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) Update(ctx context.Context, u *models.User) error { return s.updateFn(ctx, u) }
func (s *userRepoStub) Delete(ctx context.Context, id uint) error        { return s.deleteFn(ctx, id) }

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		listFn:             func(context.Context) ([]models.User, error) { return nil, nil },
		getByIDFn:          func(context.Context, uint) (*models.User, error) { return &models.User{}, nil },
		getByIDWithPostsFn: func(context.Context, uint) (*models.User, error) { return &models.User{}, nil },
		createFn:           func(context.Context, *models.User) error { return nil },
		updateFn:           func(context.Context, *models.User) error { return nil },
		deleteFn:           func(context.Context, uint) error { return nil },
	}
}

func strPtr(s string) *string { return &s }

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}
