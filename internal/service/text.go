package service

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/olegiv/folio-go/internal/util"
)

// wordsPerMinute is the reading speed used for blog reading time.
const wordsPerMinute = 200

// excerptLength is the maximum length of a derived excerpt in bytes.
const excerptLength = 200

var (
	// Raw HTML passes through so editor-produced HTML and Markdown both
	// reduce to the same text.
	markdown    = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe()))
	stripPolicy = bluemonday.StrictPolicy()

	// blockTag matches tags that separate words once markup is removed.
	// Inline tags (em, a, code, span) do not.
	blockTag = regexp.MustCompile(`(?i)</?(?:address|article|aside|blockquote|br|dd|div|dl|dt|figcaption|figure|footer|h[1-6]|header|hr|li|main|nav|ol|p|pre|section|table|tbody|td|tfoot|th|thead|tr|ul)\b[^>]*>`)
)

// plainText renders Markdown or HTML content to whitespace-normalized text.
func plainText(content string) string {
	var buf bytes.Buffer
	rendered := content
	if err := markdown.Convert([]byte(content), &buf); err == nil {
		rendered = buf.String()
	}

	rendered = blockTag.ReplaceAllString(rendered, " $0 ")
	text := html.UnescapeString(stripPolicy.Sanitize(rendered))
	return strings.Join(strings.Fields(text), " ")
}

// readingTime returns whole minutes to read content, at least one.
func readingTime(content string) int64 {
	words := len(strings.Fields(plainText(content)))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return int64(minutes)
}

// deriveExcerpt cuts the plain text of content at a word boundary.
func deriveExcerpt(content string) string {
	text := plainText(content)
	if len(text) <= excerptLength {
		return text
	}
	head := util.TruncateString(text, excerptLength)
	if cut := strings.LastIndex(head, " "); cut > 0 {
		head = head[:cut]
	}
	return strings.TrimSpace(head) + "…"
}
