package server

import (
	"strconv"
	"strings"

	"blogly/internal/models"

	"github.com/gofiber/fiber/v2"
)

// optionalField returns nil for an absent or blank form value.
func optionalField(c *fiber.Ctx, key string) *string {
	v := strings.TrimSpace(c.FormValue(key))
	if v == "" {
		return nil
	}
	return &v
}

// formIDs reads every value submitted under key as an id list. Urlencoded and multipart
// bodies are both accepted; an absent key yields an empty list.
func formIDs(c *fiber.Ctx, key string) ([]uint, error) {
	var raw []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		raw = form.Value[key]
	} else {
		for _, v := range c.Request().PostArgs().PeekMulti(key) {
			raw = append(raw, string(v))
		}
	}

	ids := make([]uint, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil || id == 0 {
			return nil, models.NewValidationError("Invalid id " + strconv.Quote(v))
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
