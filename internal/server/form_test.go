package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blogly/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formApp(t *testing.T, got *[]uint, gotErr *error) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		*got, *gotErr = formIDs(c, "tag_ids")
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestFormIDs_URLEncoded(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []uint
		invalid bool
	}{
		{"absent", "title=x", []uint{}, false},
		{"repeated", "tag_ids=3&tag_ids=1&tag_ids=3", []uint{3, 1, 3}, false},
		{"blank skipped", "tag_ids=&tag_ids=2", []uint{2}, false},
		{"non numeric", "tag_ids=abc", nil, true},
		{"zero", "tag_ids=0", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []uint
			var gotErr error
			app := formApp(t, &got, &gotErr)

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			_, err := app.Test(req, -1)
			require.NoError(t, err)

			if tt.invalid {
				assert.True(t, models.IsValidation(gotErr))
				return
			}
			assert.NoError(t, gotErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormIDs_Multipart(t *testing.T) {
	var got []uint
	var gotErr error
	app := formApp(t, &got, &gotErr)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("tag_ids", "5"))
	require.NoError(t, w.WriteField("tag_ids", "7"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	_, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.NoError(t, gotErr)
	assert.Equal(t, []uint{5, 7}, got)
}

func TestOptionalField(t *testing.T) {
	app := fiber.New()
	var first, last *string
	app.Post("/", func(c *fiber.Ctx) error {
		first = optionalField(c, "first_name")
		last = optionalField(c, "last_name")
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("first_name=+Ada+&last_name=+"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err := app.Test(req, -1)
	require.NoError(t, err)

	require.NotNil(t, first)
	assert.Equal(t, "Ada", *first)
	assert.Nil(t, last)
}
