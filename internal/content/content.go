// Package content renders news markdown into sanitised HTML.
package content

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	htmlSanitizer = bluemonday.UGCPolicy()
)

// RenderMarkdown converts markdown source to HTML safe to embed in a page.
// Raw HTML in the source is stripped by the sanitiser.
func RenderMarkdown(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}

// Excerpt returns the first n runes of the plain text of source.
func Excerpt(source string, n int) string {
	text := strings.Join(strings.Fields(bluemonday.StrictPolicy().Sanitize(source)), " ")
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
