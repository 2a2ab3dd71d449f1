package server

import (
	"fmt"

	"blogly/internal/models"
	"blogly/internal/service"
	"blogly/internal/views"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	idx, err := s.dashboardService.AllPosts(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/index", fiber.Map{
		"Title": "Posts",
		"Posts": idx.Posts,
		"Tags":  idx.Tags,
	})
}

// NewPostForm handles GET /users/:id/posts/new
func (s *Server) NewPostForm(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	form, err := s.postService.NewPostForm(c.UserContext(), userID)
	if err != nil {
		return s.handleServiceError(c, err, "/users")
	}
	return s.render(c, fiber.StatusOK, "posts/new", fiber.Map{
		"Title":    "New post",
		"User":     form.User,
		"Tags":     form.Tags,
		"Selected": form.Selected,
	})
}

// CreatePost handles POST /users/:id/posts/new
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	back := fmt.Sprintf("/users/%d/posts/new", userID)

	tagIDs, err := formIDs(c, "tag_ids")
	if err != nil {
		return s.handleServiceError(c, err, back)
	}
	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:  userID,
		Title:   c.FormValue("title"),
		Content: c.FormValue("content"),
		TagIDs:  tagIDs,
	})
	if err != nil {
		return s.handleServiceError(c, err, back)
	}

	s.addFlash(c, views.FlashSuccess, fmt.Sprintf("Added %q.", post.Title))
	return seeOther(c, fmt.Sprintf("/users/%d", userID))
}

// ShowPost handles GET /posts/:id
func (s *Server) ShowPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return s.handleServiceError(c, err, "/posts")
	}
	return s.render(c, fiber.StatusOK, "posts/show", fiber.Map{
		"Title": post.Title,
		"Post":  post,
	})
}

// EditPostForm handles GET /posts/:id/edit
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	form, err := s.postService.EditPostForm(c.UserContext(), id)
	if err != nil {
		return s.handleServiceError(c, err, "/posts")
	}
	return s.render(c, fiber.StatusOK, "posts/edit", fiber.Map{
		"Title":    "Edit " + form.Post.Title,
		"Post":     form.Post,
		"Tags":     form.Tags,
		"Selected": form.Selected,
	})
}

// UpdatePost handles POST /posts/:id/edit
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	back := fmt.Sprintf("/posts/%d/edit", id)

	tagIDs, err := formIDs(c, "tag_ids")
	if err != nil {
		return s.handleServiceError(c, err, back)
	}
	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		ID:      id,
		Title:   optionalField(c, "title"),
		Content: optionalField(c, "content"),
		TagIDs:  tagIDs,
	})
	if err != nil {
		return s.handleServiceError(c, err, back)
	}

	s.addFlash(c, views.FlashSuccess, fmt.Sprintf("Saved %q.", post.Title))
	return seeOther(c, fmt.Sprintf("/posts/%d", post.ID))
}

// DeletePost handles POST /posts/:id/delete
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ownerID, err := s.postService.DeletePost(c.UserContext(), id)
	if err != nil {
		if !models.IsNotFound(err) {
			return err
		}
		s.addFlash(c, views.FlashError, "That post no longer exists.")
		return seeOther(c, "/posts")
	}

	s.addFlash(c, views.FlashSuccess, "Post deleted.")
	if ownerID == 0 {
		return seeOther(c, "/posts")
	}
	return seeOther(c, fmt.Sprintf("/users/%d", ownerID))
}
