package content

import (
	"fmt"

	"github.com/gosimple/slug"
	"github.com/yuin/goldmark/ast"
)

// Slugify returns the URL slug for an entry title.
func Slugify(title string) string {
	return slug.Make(title)
}

// UniqueSlug returns the first of base, base-1, base-2, ... that exists reports as free.
func UniqueSlug(title string, exists func(string) (bool, error)) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "entry"
	}

	s := base
	for n := 1; ; n++ {
		taken, err := exists(s)
		if err != nil {
			return "", fmt.Errorf("exists %q: %w", s, err)
		}
		if !taken {
			return s, nil
		}
		s = fmt.Sprintf("%s-%d", base, n)
	}
}

// headingIDs gives headings transliterated anchors, so "Día" becomes "dia".
type headingIDs struct {
	seen map[string]bool
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{seen: map[string]bool{}}
}

func (h *headingIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	base := Slugify(string(value))
	if base == "" {
		base = "heading"
	}

	id := base
	for n := 1; h.seen[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	h.seen[id] = true
	return []byte(id)
}

func (h *headingIDs) Put(value []byte) {
	h.seen[string(value)] = true
}
