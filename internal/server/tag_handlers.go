package server

import (
	"fmt"

	"blogly/internal/models"
	"blogly/internal/service"
	"blogly/internal/views"

	"github.com/gofiber/fiber/v2"
)

// ListTags handles GET /tags
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.tagService.ListTags(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "tags/index", fiber.Map{
		"Title": "Tags",
		"Tags":  tags,
	})
}

// NewTagForm handles GET /tags/new
func (s *Server) NewTagForm(c *fiber.Ctx) error {
	form, err := s.tagService.NewTagForm(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "tags/new", fiber.Map{
		"Title":    "New tag",
		"Posts":    form.Posts,
		"Selected": form.Selected,
	})
}

// CreateTag handles POST /tags/new
func (s *Server) CreateTag(c *fiber.Ctx) error {
	postIDs, err := formIDs(c, "post_ids")
	if err != nil {
		return s.handleServiceError(c, err, "/tags/new")
	}
	tag, err := s.tagService.CreateTag(c.UserContext(), service.CreateTagInput{
		Name:    c.FormValue("name"),
		PostIDs: postIDs,
	})
	if err != nil {
		return s.handleServiceError(c, err, "/tags/new")
	}

	s.addFlash(c, views.FlashSuccess, fmt.Sprintf("Created tag %q.", tag.Name))
	return seeOther(c, "/tags")
}

// ShowTag handles GET /tags/:id
func (s *Server) ShowTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	tag, err := s.tagService.GetTag(c.UserContext(), id)
	if err != nil {
		return s.handleServiceError(c, err, "/tags")
	}
	return s.render(c, fiber.StatusOK, "tags/show", fiber.Map{
		"Title": tag.Name,
		"Tag":   tag,
	})
}

// EditTagForm handles GET /tags/:id/edit
func (s *Server) EditTagForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	form, err := s.tagService.EditTagForm(c.UserContext(), id)
	if err != nil {
		return s.handleServiceError(c, err, "/tags")
	}
	return s.render(c, fiber.StatusOK, "tags/edit", fiber.Map{
		"Title":    "Edit " + form.Tag.Name,
		"Tag":      form.Tag,
		"Posts":    form.Posts,
		"Selected": form.Selected,
	})
}

// UpdateTag handles POST /tags/:id/edit
func (s *Server) UpdateTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	back := fmt.Sprintf("/tags/%d/edit", id)

	postIDs, err := formIDs(c, "post_ids")
	if err != nil {
		return s.handleServiceError(c, err, back)
	}
	res, err := s.tagService.UpdateTag(c.UserContext(), service.UpdateTagInput{
		ID:      id,
		Name:    c.FormValue("name"),
		PostIDs: postIDs,
	})
	if err != nil {
		return s.handleServiceError(c, err, back)
	}

	if res.Renamed {
		s.addFlash(c, views.FlashSuccess, fmt.Sprintf("Renamed %q to %q.", res.PreviousName, res.Tag.Name))
	} else {
		s.addFlash(c, views.FlashSuccess, fmt.Sprintf("Saved %q; the name is unchanged.", res.Tag.Name))
	}
	return seeOther(c, "/tags")
}

// DeleteTag handles POST /tags/:id/delete
func (s *Server) DeleteTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := s.tagService.DeleteTag(c.UserContext(), id); err != nil {
		if !models.IsNotFound(err) {
			return err
		}
		s.addFlash(c, views.FlashError, "That tag no longer exists.")
		return seeOther(c, "/tags")
	}

	s.addFlash(c, views.FlashSuccess, "Tag deleted.")
	return seeOther(c, "/tags")
}
