package server

import (
	"encoding/json"

	"blogly/internal/middleware"
	"blogly/internal/observability"
	"blogly/internal/views"

	"github.com/gofiber/fiber/v2"
)

const flashKey = "flash"

// addFlash queues a message for the next rendered page. Session failures only lose the
// message; the request itself still succeeds.
func (s *Server) addFlash(c *fiber.Ctx, kind, message string) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "flash session unavailable", "error", err)
		return
	}

	flashes := decodeFlashes(sess.Get(flashKey))
	flashes = append(flashes, views.Flash{Kind: kind, Message: message})
	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	sess.Set(flashKey, string(raw))
	if err := sess.Save(); err != nil {
		observability.RecordErrorInContext(c.UserContext(), err)
		middleware.Logger.WarnContext(c.UserContext(), "failed to save flash", "error", err)
	}
}

// popFlashes returns and clears the queued messages.
func (s *Server) popFlashes(c *fiber.Ctx) []views.Flash {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil
	}

	raw := sess.Get(flashKey)
	if raw == nil {
		// Nothing queued; leave the session untouched so no cookie is issued.
		return nil
	}
	flashes := decodeFlashes(raw)
	sess.Delete(flashKey)
	if err := sess.Save(); err != nil {
		observability.RecordErrorInContext(c.UserContext(), err)
		middleware.Logger.WarnContext(c.UserContext(), "failed to clear flash", "error", err)
	}
	return flashes
}

func decodeFlashes(v interface{}) []views.Flash {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return nil
	}
	var flashes []views.Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil
	}
	return flashes
}
