package service

import (
	"context"
	"testing"
	"time"

	"blogly/internal/cache"
	"blogly/internal/models"
	"blogly/internal/repository"
	"blogly/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type services struct {
	db        *gorm.DB
	users     *UserService
	posts     *PostService
	tags      *TagService
	dashboard *DashboardService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	store := repository.NewStore(db)
	return &services{
		db:        db,
		users:     NewUserService(store),
		posts:     NewPostService(store),
		tags:      NewTagService(store),
		dashboard: NewDashboardService(store),
	}
}

func (s *services) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

func (s *services) mustUser(t *testing.T, first, last string) *models.User {
	t.Helper()
	u, err := s.users.CreateUser(context.Background(), CreateUserInput{FirstName: first, LastName: last})
	require.NoError(t, err)
	return u
}

func (s *services) mustTag(t *testing.T, name string, postIDs ...uint) *models.Tag {
	t.Helper()
	tag, err := s.tags.CreateTag(context.Background(), CreateTagInput{Name: name, PostIDs: postIDs})
	require.NoError(t, err)
	return tag
}

func (s *services) mustPost(t *testing.T, userID uint, title string, tagIDs ...uint) *models.Post {
	t.Helper()
	p, err := s.posts.CreatePost(context.Background(), CreatePostInput{
		UserID: userID, Title: title, Content: title + " body", TagIDs: tagIDs,
	})
	require.NoError(t, err)
	return p
}

func TestCreateUser_FullNameAndDefaultImage(t *testing.T) {
	s := newServices(t)
	u := s.mustUser(t, "Ada", "Lovelace")

	got, err := s.users.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.FullName())
	assert.Equal(t, models.DefaultImageURL, got.ImageURL)
}

func TestCreateUser_EmptyNameLeavesTableUnchanged(t *testing.T) {
	s := newServices(t)
	s.mustUser(t, "Ada", "Lovelace")

	_, err := s.users.CreateUser(context.Background(), CreateUserInput{FirstName: "", LastName: "Kay"})
	assertValidationError(t, err)
	assert.Equal(t, int64(1), s.count(t, &models.User{}))
}

func TestUpdateUser_OnlyLastName(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u, err := s.users.CreateUser(ctx, CreateUserInput{FirstName: "Ada", LastName: "Byron", ImageURL: "https://example.com/a.png"})
	require.NoError(t, err)

	_, err = s.users.UpdateUser(ctx, UpdateUserInput{ID: u.ID, LastName: strPtr("Lovelace")})
	require.NoError(t, err)

	got, err := s.users.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "Lovelace", got.LastName)
	assert.Equal(t, "https://example.com/a.png", got.ImageURL)
}

func TestDeleteUser_CascadesPosts(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := s.mustUser(t, "Ada", "Lovelace")
	tag := s.mustTag(t, "math")
	p := s.mustPost(t, u.ID, "Notes", tag.ID)

	require.NoError(t, s.users.DeleteUser(ctx, u.ID))

	_, err := s.posts.GetPost(ctx, p.ID)
	assertNotFoundError(t, err)
	assert.Zero(t, s.count(t, &models.PostTag{}))

	_, err = s.tags.GetTag(ctx, tag.ID)
	require.NoError(t, err)

	assertNotFoundError(t, s.users.DeleteUser(ctx, u.ID))
}

func TestCreatePost_SymmetricTagMembership(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := s.mustUser(t, "Ada", "Lovelace")
	math := s.mustTag(t, "math")
	fun := s.mustTag(t, "fun")
	s.mustTag(t, "unused")

	p := s.mustPost(t, u.ID, "Notes", math.ID, fun.ID, math.ID)

	got, err := s.posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{math.ID, fun.ID}, got.TagIDs())
	assert.Equal(t, u.ID, got.User.ID)

	for _, id := range []uint{math.ID, fun.ID} {
		tag, err := s.tags.GetTag(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []uint{p.ID}, tag.PostIDs())
	}
}

func TestCreatePost_Failures(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := s.mustUser(t, "Ada", "Lovelace")

	_, err := s.posts.CreatePost(ctx, CreatePostInput{UserID: 999, Title: "t", Content: "c"})
	assertNotFoundError(t, err)

	_, err = s.posts.CreatePost(ctx, CreatePostInput{UserID: u.ID, Title: " ", Content: "c"})
	assertValidationError(t, err)

	_, err = s.posts.CreatePost(ctx, CreatePostInput{UserID: u.ID, Title: "t", Content: "c", TagIDs: []uint{404}})
	assertNotFoundError(t, err)

	assert.Zero(t, s.count(t, &models.Post{}))
}

func TestUpdatePost_PartialFieldsAndTagReplacement(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := s.mustUser(t, "Ada", "Lovelace")
	math := s.mustTag(t, "math")
	fun := s.mustTag(t, "fun")
	p := s.mustPost(t, u.ID, "Notes", math.ID)

	_, err := s.posts.UpdatePost(ctx, UpdatePostInput{ID: p.ID, Content: strPtr("revised"), TagIDs: []uint{fun.ID}})
	require.NoError(t, err)

	got, err := s.posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Notes", got.Title)
	assert.Equal(t, "revised", got.Content)
	assert.Equal(t, []uint{fun.ID}, got.TagIDs())

	_, err = s.posts.UpdatePost(ctx, UpdatePostInput{ID: p.ID})
	require.NoError(t, err)
	got, err = s.posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	_, err = s.posts.UpdatePost(ctx, UpdatePostInput{ID: p.ID, TagIDs: []uint{math.ID, 404}})
	assertNotFoundError(t, err)
	got, err = s.posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags, "failed update must not leave partial links")
}

func TestDeletePost_ReturnsOwner(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := s.mustUser(t, "Ada", "Lovelace")
	tag := s.mustTag(t, "math")
	p := s.mustPost(t, u.ID, "Notes", tag.ID)

	owner, err := s.posts.DeletePost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner)
	assert.Zero(t, s.count(t, &models.PostTag{}))

	_, err = s.posts.DeletePost(ctx, p.ID)
	assertNotFoundError(t, err)
}

func TestDeletePost_MissingOwnerReturnsZero(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := s.mustUser(t, "Sonny", "Rollins")
	p := s.mustPost(t, u.ID, "Jazz Time")

	require.NoError(t, s.db.Exec("PRAGMA foreign_keys = OFF").Error)
	require.NoError(t, s.db.Exec("DELETE FROM users WHERE id = ?", u.ID).Error)

	owner, err := s.posts.DeletePost(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, owner)
	assert.Zero(t, s.count(t, &models.Post{}))
}

func TestUpdateTag_EmptyPostSetDetachesEverywhere(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := s.mustUser(t, "Ada", "Lovelace")
	p1 := s.mustPost(t, u.ID, "One")
	p2 := s.mustPost(t, u.ID, "Two")
	tag := s.mustTag(t, "math", p1.ID, p2.ID)

	res, err := s.tags.UpdateTag(ctx, UpdateTagInput{ID: tag.ID, Name: "math"})
	require.NoError(t, err)
	assert.False(t, res.Renamed)

	for _, id := range []uint{p1.ID, p2.ID} {
		p, err := s.posts.GetPost(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, p.Tags)
	}
}

func TestUpdateTag_RenameAndValidation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	math := s.mustTag(t, "math")
	s.mustTag(t, "fun")

	res, err := s.tags.UpdateTag(ctx, UpdateTagInput{ID: math.ID, Name: "maths"})
	require.NoError(t, err)
	assert.True(t, res.Renamed)
	assert.Equal(t, "math", res.PreviousName)
	assert.Equal(t, "maths", res.Tag.Name)

	_, err = s.tags.UpdateTag(ctx, UpdateTagInput{ID: math.ID, Name: "  "})
	assertValidationError(t, err)

	_, err = s.tags.UpdateTag(ctx, UpdateTagInput{ID: math.ID, Name: "fun"})
	assertValidationError(t, err)

	_, err = s.tags.UpdateTag(ctx, UpdateTagInput{ID: 404, Name: "x"})
	assertNotFoundError(t, err)
}

func TestCreateTag_Failures(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	s.mustTag(t, "math")

	_, err := s.tags.CreateTag(ctx, CreateTagInput{Name: ""})
	assertValidationError(t, err)

	_, err = s.tags.CreateTag(ctx, CreateTagInput{Name: "math"})
	assertValidationError(t, err)

	_, err = s.tags.CreateTag(ctx, CreateTagInput{Name: "new", PostIDs: []uint{404}})
	assertNotFoundError(t, err)

	assert.Equal(t, int64(1), s.count(t, &models.Tag{}))
}

func TestDeleteTag_KeepsPosts(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := s.mustUser(t, "Ada", "Lovelace")
	p := s.mustPost(t, u.ID, "Notes")
	tag := s.mustTag(t, "math", p.ID)

	require.NoError(t, s.tags.DeleteTag(ctx, tag.ID))
	assert.Zero(t, s.count(t, &models.PostTag{}))

	got, err := s.posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	assertNotFoundError(t, s.tags.DeleteTag(ctx, tag.ID))
}

func TestDashboard_RecentPostsAndOrdering(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := s.mustUser(t, "Ada", "Lovelace")
	s.mustUser(t, "Alan", "Kay")

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.posts.now = func() time.Time { return at }
		s.mustPost(t, u.ID, string(rune('A'+i)))
	}

	d, err := s.dashboard.Dashboard(ctx)
	require.NoError(t, err)
	require.Len(t, d.Users, 2)
	assert.Equal(t, "Alan Kay", d.Users[0].FullName())
	require.Len(t, d.RecentPosts, RecentPostsLimit)
	assert.Equal(t, "G", d.RecentPosts[0].Title)
	assert.Equal(t, "C", d.RecentPosts[4].Title)

	idx, err := s.dashboard.AllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, idx.Posts, 7)
	assert.Equal(t, "A", idx.Posts[0].Title)
}

func TestListUsers_CacheInvalidatedAfterCommit(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cache.Close() })

	s := newServices(t)
	ctx := context.Background()
	s.mustUser(t, "Ada", "Lovelace")

	users, err := s.users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, mr.Exists(cache.UsersListKey))

	s.mustUser(t, "Alan", "Kay")
	assert.False(t, mr.Exists(cache.UsersListKey))

	users, err = s.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
