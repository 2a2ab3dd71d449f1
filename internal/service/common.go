// Package service holds the business rules for users, posts and tags: validation,
// partial updates, association replacement and cascades.
package service

import (
	"context"
	"sort"
	"strings"

	"blogly/internal/cache"
	"blogly/internal/models"
	"blogly/internal/observability"
	"blogly/internal/repository"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func startSpan(ctx context.Context, svc, method string) (context.Context, trace.Span) {
	return observability.GetTraceLayer().TraceService(ctx, svc, method)
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// optional trims v and reports nil for absent or blank values.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func required(field, v string) (string, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return "", models.NewValidationError(field + " is required")
	}
	return s, nil
}

// uniqueIDs drops zero and duplicate ids and sorts the rest.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func idSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func firstMissing(want []uint, found map[uint]bool) (uint, bool) {
	for _, id := range want {
		if !found[id] {
			return id, true
		}
	}
	return 0, false
}

// resolveTags loads every tag in ids or fails with NotFound for the first missing one.
func resolveTags(ctx context.Context, repo repository.TagRepository, ids []uint) ([]models.Tag, error) {
	tags, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uint]bool, len(tags))
	for _, t := range tags {
		found[t.ID] = true
	}
	if id, missing := firstMissing(ids, found); missing {
		return nil, models.NewNotFoundError("Tag", id)
	}
	return tags, nil
}

// resolvePosts loads every post in ids or fails with NotFound for the first missing one.
func resolvePosts(ctx context.Context, repo repository.PostRepository, ids []uint) ([]models.Post, error) {
	posts, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uint]bool, len(posts))
	for _, p := range posts {
		found[p.ID] = true
	}
	if id, missing := firstMissing(ids, found); missing {
		return nil, models.NewNotFoundError("Post", id)
	}
	return posts, nil
}

func listUsersCached(ctx context.Context, store repository.Store) ([]models.User, error) {
	var users []models.User
	err := cache.Aside(ctx, cache.UsersListKey, &users, cache.TTL(), func() error {
		list, err := store.Users().List(ctx)
		if err != nil {
			return err
		}
		users = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func listTagsCached(ctx context.Context, store repository.Store) ([]models.Tag, error) {
	var tags []models.Tag
	err := cache.Aside(ctx, cache.TagsListKey, &tags, cache.TTL(), func() error {
		list, err := store.Tags().List(ctx)
		if err != nil {
			return err
		}
		tags = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func recordMutation(entity, action string) {
	observability.EntityMutations.WithLabelValues(entity, action).Inc()
}
