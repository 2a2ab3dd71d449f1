package repository

import (
	"context"
	"testing"
	"time"

	"blogly/internal/models"
	"blogly/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	store Store
	ada   models.User
	alan  models.User
	math  models.Tag
	fun   models.Tag
	first models.Post
	later models.Post
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &fixture{db: db, store: NewStore(db)}
	ctx := context.Background()

	f.ada = models.User{FirstName: "Ada", LastName: "Lovelace"}
	f.alan = models.User{FirstName: "Alan", LastName: "Kay"}
	require.NoError(t, f.store.Users().Create(ctx, &f.ada))
	require.NoError(t, f.store.Users().Create(ctx, &f.alan))

	f.math = models.Tag{Name: "math"}
	f.fun = models.Tag{Name: "fun"}
	require.NoError(t, f.store.Tags().Create(ctx, &f.math))
	require.NoError(t, f.store.Tags().Create(ctx, &f.fun))

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f.first = models.Post{Title: "Notes", Content: "engine", UserID: f.ada.ID, CreatedAt: base}
	f.later = models.Post{Title: "Analytical", Content: "more", UserID: f.ada.ID, CreatedAt: base.Add(time.Hour)}
	require.NoError(t, f.store.Posts().Create(ctx, &f.first))
	require.NoError(t, f.store.Posts().Create(ctx, &f.later))
	require.NoError(t, f.store.Posts().ReplaceTags(ctx, f.first.ID, []uint{f.math.ID, f.fun.ID}))
	return f
}

func (f *fixture) linkCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.PostTag{}).Count(&n).Error)
	return n
}

func TestUserRepository_ListOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Users().Create(ctx, &models.User{FirstName: "Bea", LastName: "Kay"}))

	users, err := f.store.Users().List(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.FullName())
	}
	assert.Equal(t, []string{"Alan Kay", "Bea Kay", "Ada Lovelace"}, names)
}

func TestUserRepository_GetByIDWithPostsNewestFirst(t *testing.T) {
	f := newFixture(t)

	user, err := f.store.Users().GetByIDWithPosts(context.Background(), f.ada.ID)
	require.NoError(t, err)
	require.Len(t, user.Posts, 2)
	assert.Equal(t, "Analytical", user.Posts[0].Title)
	assert.Equal(t, "Notes", user.Posts[1].Title)

	_, err = f.store.Users().GetByIDWithPosts(context.Background(), 999)
	assert.True(t, models.IsNotFound(err))
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.Transact(ctx, func(tx Store) error {
		return tx.Users().Delete(ctx, f.ada.ID)
	})
	require.NoError(t, err)

	var posts int64
	require.NoError(t, f.db.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, posts)
	assert.Zero(t, f.linkCount(t))

	tags, err := f.store.Tags().List(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2, "tags survive their posts")

	err = f.store.Users().Delete(ctx, f.ada.ID)
	assert.True(t, models.IsNotFound(err))
}

func TestPostRepository_GetByIDLoadsOwnerAndTags(t *testing.T) {
	f := newFixture(t)

	post, err := f.store.Posts().GetByID(context.Background(), f.first.ID)
	require.NoError(t, err)
	require.NotNil(t, post.User)
	assert.Equal(t, "Ada Lovelace", post.User.FullName())
	require.Len(t, post.Tags, 2)
	assert.Equal(t, "fun", post.Tags[0].Name)
	assert.Equal(t, "math", post.Tags[1].Name)
}

func TestPostRepository_ListAndRecent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	all, err := f.store.Posts().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Analytical", all[0].Title)

	recent, err := f.store.Posts().Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, f.later.ID, recent[0].ID)
	require.NotNil(t, recent[0].User)
}

func TestPostRepository_ReplaceTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Posts().ReplaceTags(ctx, f.first.ID, []uint{f.fun.ID}))
	post, err := f.store.Posts().GetByID(ctx, f.first.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.fun.ID}, post.TagIDs())

	require.NoError(t, f.store.Posts().ReplaceTags(ctx, f.first.ID, nil))
	assert.Zero(t, f.linkCount(t))
}

func TestPostRepository_DeleteRemovesLinksOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Posts().Delete(ctx, f.first.ID))
	assert.Zero(t, f.linkCount(t))

	_, err := f.store.Posts().GetByID(ctx, f.first.ID)
	assert.True(t, models.IsNotFound(err))

	tags, err := f.store.Tags().List(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	assert.True(t, models.IsNotFound(f.store.Posts().Delete(ctx, f.first.ID)))
}

func TestPostRepository_GetByIDs(t *testing.T) {
	f := newFixture(t)

	posts, err := f.store.Posts().GetByIDs(context.Background(), []uint{f.later.ID, 404})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, f.later.ID, posts[0].ID)

	empty, err := f.store.Posts().GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTagRepository_GetByIDPostsByTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Tags().ReplacePosts(ctx, f.math.ID, []uint{f.first.ID, f.later.ID}))

	tag, err := f.store.Tags().GetByID(ctx, f.math.ID)
	require.NoError(t, err)
	require.Len(t, tag.Posts, 2)
	assert.Equal(t, "Analytical", tag.Posts[0].Title)
	assert.Equal(t, "Notes", tag.Posts[1].Title)

	// Membership is one join table, so the post sees the tag too.
	post, err := f.store.Posts().GetByID(ctx, f.later.ID)
	require.NoError(t, err)
	assert.Contains(t, post.TagIDs(), f.math.ID)
}

func TestTagRepository_DuplicateNameIsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.Tags().Create(ctx, &models.Tag{Name: "math"})
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	renamed := f.fun
	renamed.Name = "math"
	assert.True(t, models.IsValidation(f.store.Tags().Update(ctx, &renamed)))

	found, err := f.store.Tags().GetByName(ctx, "math")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, f.math.ID, found.ID)

	missing, err := f.store.Tags().GetByName(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTagRepository_DeleteKeepsPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Tags().Delete(ctx, f.math.ID))

	post, err := f.store.Posts().GetByID(ctx, f.first.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.fun.ID}, post.TagIDs())

	assert.True(t, models.IsNotFound(f.store.Tags().Delete(ctx, f.math.ID)))
}

func TestStore_TransactRollsBackPartialWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.Transact(ctx, func(tx Store) error {
		if err := tx.Posts().ReplaceTags(ctx, f.first.ID, nil); err != nil {
			return err
		}
		return models.NewNotFoundError("Tag", 404)
	})
	require.True(t, models.IsNotFound(err))
	assert.Equal(t, int64(2), f.linkCount(t))
}
