package views

import (
	"bytes"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser        goldmark.Markdown
	policy          *bluemonday.Policy
	stripTagsPolicy *bluemonday.Policy
)

func init() {
	mdParser = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			// Raw HTML is allowed through and then cleaned by bluemonday.
			html.WithUnsafe(),
		),
	)

	policy = bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "span")
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	stripTagsPolicy = bluemonday.StripTagsPolicy()
}

// MarkdownToHTML converts post content to sanitized HTML.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

// renderMarkdown is the template helper. Content that fails to convert is shown escaped.
func renderMarkdown(md string) template.HTML {
	out, err := MarkdownToHTML(md)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(out)
}

// Excerpt renders md to plain text and cuts it to at most n runes on a word boundary.
func Excerpt(md string, n int) string {
	rendered, err := MarkdownToHTML(md)
	if err != nil {
		rendered = md
	}
	text := strings.Join(strings.Fields(stripTagsPolicy.Sanitize(rendered)), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, ".,;: ") + "…"
}
