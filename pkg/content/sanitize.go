package content

import (
	"errors"
	"io"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var allowedTags = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	"p", "br", "div", "span",
	"strong", "b", "em", "i", "u", "mark", "del", "s",
	"sup", "sub",
	"a", "img",
	"ul", "ol", "li",
	"blockquote", "cite",
	"pre", "code",
	"table", "thead", "tbody", "tr", "th", "td",
	"dl", "dt", "dd",
	"hr",
	"details", "summary",
	"abbr", "address", "time",
	"input",
}

// presentationClass is added to the matching elements after sanitizing.
var presentationClass = map[string]string{
	"blockquote": "blog-quote",
	"table":      "blog-table",
	"pre":        "blog-code",
	"img":        "blog-image",
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("mailto", "http", "https")
	p.AllowElements(allowedTags...)

	p.AllowAttrs("class", "id", "title").Globally()
	p.AllowAttrs("href", "title", "target", "rel").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height", "class").OnElements("img")
	p.AllowAttrs("scope", "class").OnElements("th", "td")
	p.AllowAttrs("title").OnElements("abbr")
	p.AllowAttrs("datetime").OnElements("time")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	return p
}

func sanitize(s string) string {
	return policy.Sanitize(s)
}

// rewriteTokens re-emits s token by token. fn may write a replacement for a
// token and return true; otherwise the token's original bytes are kept.
func rewriteTokens(s string, fn func(b *strings.Builder, tt html.TokenType, z *html.Tokenizer) bool) (string, error) {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return b.String(), nil
			}
			return "", z.Err()
		}
		raw := string(z.Raw())
		if !fn(&b, tt, z) {
			b.WriteString(raw)
		}
	}
}

// decorate injects presentation classes and hardens external links.
func decorate(s string) (string, error) {
	return rewriteTokens(s, func(b *strings.Builder, tt html.TokenType, z *html.Tokenizer) bool {
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			return false
		}
		tok := z.Token()
		changed := false

		if cls, ok := presentationClass[tok.Data]; ok {
			tok.Attr = addClass(tok.Attr, cls)
			changed = true
		}

		if tok.Data == "a" && isExternal(attrValue(tok.Attr, "href")) {
			tok.Attr = append(dropAttrs(tok.Attr, "target", "rel"),
				html.Attribute{Key: "target", Val: "_blank"},
				html.Attribute{Key: "rel", Val: "noopener noreferrer"})
			changed = true
		}

		if !changed {
			return false
		}
		b.WriteString(tok.String())
		return true
	})
}

func isExternal(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(h, "http://") || strings.HasPrefix(h, "https://")
}

func attrValue(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(attrs []html.Attribute, key, val string) []html.Attribute {
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Val = val
			return attrs
		}
	}
	return append(attrs, html.Attribute{Key: key, Val: val})
}

func dropAttrs(attrs []html.Attribute, keys ...string) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if !slices.Contains(keys, a.Key) {
			out = append(out, a)
		}
	}
	return out
}

func addClass(attrs []html.Attribute, cls string) []html.Attribute {
	cur := attrValue(attrs, "class")
	for _, c := range strings.Fields(cur) {
		if c == cls {
			return attrs
		}
	}
	if cur == "" {
		return setAttr(attrs, "class", cls)
	}
	return setAttr(attrs, "class", cls+" "+cur)
}

// skipAbbr lists elements whose text is never wrapped in <abbr>.
var skipAbbr = map[string]bool{"a": true, "abbr": true, "code": true, "pre": true, "script": true, "style": true}

// wrapAbbreviations marks defined terms in text nodes with <abbr title>.
func wrapAbbreviations(s string, abbrs []abbreviation) (string, error) {
	depth := 0
	return rewriteTokens(s, func(b *strings.Builder, tt html.TokenType, z *html.Tokenizer) bool {
		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			if skipAbbr[string(name)] {
				depth++
			}
			return false
		case html.EndTagToken:
			name, _ := z.TagName()
			if skipAbbr[string(name)] && depth > 0 {
				depth--
			}
			return false
		case html.TextToken:
			if depth > 0 {
				return false
			}
			out, ok := markTerms(string(z.Text()), abbrs)
			if !ok {
				return false
			}
			b.WriteString(out)
			return true
		}
		return false
	})
}

// markTerms returns the escaped text with abbreviations wrapped, and whether
// any term was found.
func markTerms(text string, abbrs []abbreviation) (string, bool) {
	var b strings.Builder
	last := 0
	found := false

	for i := 0; i < len(text); {
		if atBoundary(text, i) {
			if a, ok := termAt(text, i, abbrs); ok {
				b.WriteString(html.EscapeString(text[last:i]))
				b.WriteString(`<abbr title="` + html.EscapeString(a.title) + `">` + html.EscapeString(a.term) + `</abbr>`)
				i += len(a.term)
				last = i
				found = true
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}

	if !found {
		return "", false
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String(), true
}

func termAt(text string, i int, abbrs []abbreviation) (abbreviation, bool) {
	for _, a := range abbrs {
		if strings.HasPrefix(text[i:], a.term) && atBoundary(text, i+len(a.term)) {
			return a, true
		}
	}
	return abbreviation{}, false
}

// atBoundary reports whether position i does not split a word.
func atBoundary(text string, i int) bool {
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		if i < len(text) {
			n, _ := utf8.DecodeRuneInString(text[i:])
			if isWord(r) && isWord(n) {
				return false
			}
		}
	}
	return true
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
