package server

import (
	"github.com/gofiber/fiber/v2"
)

// Dashboard handles GET /
func (s *Server) Dashboard(c *fiber.Ctx) error {
	d, err := s.dashboardService.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "home", fiber.Map{
		"Users":       d.Users,
		"RecentPosts": d.RecentPosts,
	})
}
