package server

import (
	"errors"
	"strconv"
	"strings"

	"blogly/internal/middleware"
	"blogly/internal/models"
	"blogly/internal/views"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is returned by helpers that already wrote the response,
// so handlers can simply return nil.
var errResponseWritten = errors.New("response already written")

// parseID parses a positive integer route parameter. Anything else renders the not-found page.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		if renderErr := renderNotFound(c, humanizeParam(param)+" "+strconv.Quote(raw)+" does not exist."); renderErr != nil {
			return 0, renderErr
		}
		return 0, errResponseWritten
	}
	return uint(id), nil
}

func humanizeParam(param string) string {
	switch param {
	case "id":
		return "Record"
	default:
		return strings.ToUpper(param[:1]) + param[1:]
	}
}

// render executes a page inside the main layout, attaching any pending flash messages.
func (s *Server) render(c *fiber.Ctx, status int, view string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Flash"] = s.popFlashes(c)
	return c.Status(status).Render(view, data)
}

func renderNotFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).Render("errors/not_found", fiber.Map{
		"Title":   "Not found",
		"Message": message,
	})
}

// seeOther redirects with 303 so the browser follows up with a GET.
func seeOther(c *fiber.Ctx, location string) error {
	return c.Redirect(location, fiber.StatusSeeOther)
}

// handleServiceError maps a service failure onto the response. Validation failures flash
// and go back to the form, missing records render the not-found page, and everything
// else falls through to the error handler.
func (s *Server) handleServiceError(c *fiber.Ctx, err error, back string) error {
	switch {
	case models.IsValidation(err):
		var appErr *models.AppError
		errors.As(err, &appErr)
		s.addFlash(c, views.FlashError, appErr.Message)
		return seeOther(c, back)
	case models.IsNotFound(err):
		var appErr *models.AppError
		errors.As(err, &appErr)
		return renderNotFound(c, appErr.Message)
	default:
		return err
	}
}

// errorHandler renders the error pages for anything a handler did not answer itself.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code == fiber.StatusNotFound {
		return renderNotFound(c, "")
	}

	requestID, _ := c.Locals("requestid").(string)
	if code >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}

	message := ""
	if fe != nil && code < fiber.StatusInternalServerError {
		message = fe.Message
	}
	if renderErr := c.Status(code).Render("errors/error", fiber.Map{
		"Title":     "Error",
		"Message":   message,
		"RequestID": requestID,
	}); renderErr != nil {
		return c.Status(code).SendString("Internal Server Error")
	}
	return nil
}
