package content

import (
	"regexp"
	"strings"
)

// Applied in order; each pattern works on the previous one's output.
var excerptRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?is)<script\b.*?</script\s*>`), ""},
	{regexp.MustCompile(`(?is)<style\b.*?</style\s*>`), ""},
	{regexp.MustCompile(`</?[A-Za-z][^>]*>`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*!!![ \t]+\S+(?:[ \t]+"[^"]*")?`), ""},
	{regexp.MustCompile(`\[\^[^\]]+\]:?`), ""},
	{regexp.MustCompile(`#{1,6}\s+`), ""},
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`__(.*?)__`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile(`~~(.*?)~~`), "$1"},
	{regexp.MustCompile(`!\[.*?\]\(.*?\)`), ""},
	{regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`), "$1"},
	{regexp.MustCompile(`\[\]\([^)]*\)`), ""},
	{regexp.MustCompile("`([^`]+)`"), "$1"},
	// unbalanced leftovers
	{regexp.MustCompile("`+|\\*{2,}|#{2,}|~{2,}"), ""},
	{regexp.MustCompile(`\s+`), " "},
}

// Excerpt returns a plain-text summary of md of at most maxLength characters
// plus a trailing "..." when truncated. It never goes through HTML rendering.
func Excerpt(md string, maxLength int) string {
	if md == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}

	plain := md
	for _, r := range excerptRules {
		plain = r.re.ReplaceAllString(plain, r.repl)
	}
	plain = strings.TrimSpace(plain)

	rs := []rune(plain)
	if len(rs) <= maxLength {
		return plain
	}

	cut := rs[:maxLength]
	// only back off to a word break near the end of the window
	for i := len(cut) - 1; i >= 0; i-- {
		if cut[i] != ' ' {
			continue
		}
		if float64(i) >= 0.8*float64(maxLength) {
			cut = cut[:i]
		}
		break
	}
	return string(cut) + "..."
}
