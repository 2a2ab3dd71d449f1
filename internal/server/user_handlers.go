package server

import (
	"fmt"

	"blogly/internal/models"
	"blogly/internal/service"
	"blogly/internal/views"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /users
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.userService.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "users/index", fiber.Map{
		"Title": "Users",
		"Users": users,
	})
}

// NewUserForm handles GET /users/new
func (s *Server) NewUserForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "users/new", fiber.Map{"Title": "New user"})
}

// CreateUser handles POST /users/new
func (s *Server) CreateUser(c *fiber.Ctx) error {
	user, err := s.userService.CreateUser(c.UserContext(), service.CreateUserInput{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		ImageURL:  c.FormValue("image_url"),
	})
	if err != nil {
		return s.handleServiceError(c, err, "/users/new")
	}

	s.addFlash(c, views.FlashSuccess, fmt.Sprintf("Created %s.", user.FullName()))
	return seeOther(c, "/users")
}

// ShowUser handles GET /users/:id
func (s *Server) ShowUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	user, err := s.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return s.handleServiceError(c, err, "/users")
	}
	return s.render(c, fiber.StatusOK, "users/show", fiber.Map{
		"Title": user.FullName(),
		"User":  user,
	})
}

// EditUserForm handles GET /users/:id/edit
func (s *Server) EditUserForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	user, err := s.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return s.handleServiceError(c, err, "/users")
	}
	return s.render(c, fiber.StatusOK, "users/edit", fiber.Map{
		"Title": "Edit " + user.FullName(),
		"User":  user,
	})
}

// UpdateUser handles POST /users/:id/edit
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	user, err := s.userService.UpdateUser(c.UserContext(), service.UpdateUserInput{
		ID:        id,
		FirstName: optionalField(c, "first_name"),
		LastName:  optionalField(c, "last_name"),
		ImageURL:  optionalField(c, "image_url"),
	})
	if err != nil {
		return s.handleServiceError(c, err, fmt.Sprintf("/users/%d/edit", id))
	}

	s.addFlash(c, views.FlashSuccess, fmt.Sprintf("Updated %s.", user.FullName()))
	return seeOther(c, "/users")
}

// DeleteUser handles POST /users/:id/delete
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := s.userService.DeleteUser(c.UserContext(), id); err != nil {
		if !models.IsNotFound(err) {
			return err
		}
		s.addFlash(c, views.FlashError, "That user no longer exists.")
		return seeOther(c, "/users")
	}

	s.addFlash(c, views.FlashSuccess, "User deleted.")
	return seeOther(c, "/users")
}
