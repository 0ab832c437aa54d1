// Package content turns author Markdown into sanitized HTML and plain-text excerpts.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// MaxLength is the largest document, in characters, that Validate accepts.
const MaxLength = 100000

// DefaultExcerptLength is used when an excerpt length is not positive.
const DefaultExcerptLength = 200

// ErrTooLong is returned by Validate for documents over MaxLength.
var ErrTooLong = errors.New("content exceeds maximum length")

// Rendered is the derived form of a Markdown document.
type Rendered struct {
	HTML    string
	Excerpt string
}

var (
	plainMarkdown = newMarkdown(false)
	// Heading ids are only needed as table-of-contents anchors.
	tocMarkdown = newMarkdown(true)
)

func newMarkdown(headingIDs bool) goldmark.Markdown {
	var popts []parser.Option
	if headingIDs {
		popts = append(popts, parser.WithAutoHeadingID())
	}

	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.DefinitionList,
			extension.Footnote,
		),
		goldmark.WithParserOptions(popts...),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			// raw HTML is left for the sanitizer to strip, so it can drop script bodies
			html.WithUnsafe(),
		),
	)
}

// Render returns the sanitized HTML and the default-length excerpt for md.
func Render(md string) (*Rendered, error) {
	h, err := RenderHTML(md)
	if err != nil {
		return nil, err
	}
	return &Rendered{HTML: h, Excerpt: Excerpt(md, DefaultExcerptLength)}, nil
}

// RenderHTML parses md, sanitizes the result against the allow-list and
// applies presentation rewrites. Output is deterministic for a given input.
func RenderHTML(md string) (string, error) {
	if strings.TrimSpace(md) == "" {
		return "", nil
	}

	raw, err := markdownToHTML(md)
	if err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}

	out, err := decorate(sanitize(raw))
	if err != nil {
		return "", fmt.Errorf("decorate: %w", err)
	}
	return out, nil
}

// Validate reports whether md can be stored as entry content.
func Validate(md string) error {
	if n := len([]rune(md)); n > MaxLength {
		return fmt.Errorf("%d characters: %w", n, ErrTooLong)
	}
	if _, err := RenderHTML(md); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func markdownToHTML(md string) (string, error) {
	src, abbrs := extractAbbreviations(md)
	src = expandAdmonitions(src)

	wantTOC := hasTOCMarker(src)
	m := plainMarkdown
	if wantTOC {
		m = tocMarkdown
	}

	bs := []byte(src)
	pc := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	doc := m.Parser().Parse(text.NewReader(bs), parser.WithContext(pc))

	var buf bytes.Buffer
	if err := m.Renderer().Render(&buf, bs, doc); err != nil {
		return "", err
	}

	out := buf.String()
	if wantTOC {
		out = strings.ReplaceAll(out, tocParagraph, tocHTML(headings(doc, bs)))
	}

	if len(abbrs) == 0 {
		return out, nil
	}
	return wrapAbbreviations(out, abbrs)
}
