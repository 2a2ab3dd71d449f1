package service

import (
	"context"

	"blogly/internal/models"
	"blogly/internal/repository"
)

// RecentPostsLimit is how many posts the landing page shows.
const RecentPostsLimit = 5

// DashboardService assembles the aggregate pages.
type DashboardService struct {
	store repository.Store
}

type Dashboard struct {
	Users       []models.User
	RecentPosts []models.Post
}

type PostIndex struct {
	Posts []models.Post
	Tags  []models.Tag
}

func NewDashboardService(store repository.Store) *DashboardService {
	return &DashboardService{store: store}
}

// Dashboard returns all users and the most recent posts.
func (s *DashboardService) Dashboard(ctx context.Context) (d *Dashboard, err error) {
	ctx, span := startSpan(ctx, "DashboardService", "Dashboard")
	defer func() { finishSpan(span, err) }()

	users, err := listUsersCached(ctx, s.store)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.Posts().Recent(ctx, RecentPostsLimit)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Users: users, RecentPosts: recent}, nil
}

// AllPosts returns every post ordered by title and every tag ordered by name.
func (s *DashboardService) AllPosts(ctx context.Context) (idx *PostIndex, err error) {
	ctx, span := startSpan(ctx, "DashboardService", "AllPosts")
	defer func() { finishSpan(span, err) }()

	posts, err := s.store.Posts().List(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := listTagsCached(ctx, s.store)
	if err != nil {
		return nil, err
	}
	return &PostIndex{Posts: posts, Tags: tags}, nil
}
