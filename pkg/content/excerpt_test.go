package content

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"empty", "", 20, ""},
		{"fits", "# Title\n\n**Bold** and <script>alert(1)</script> text.", 20, "Title Bold and text."},
		{"backtracks to space", "# Title\n\n**Bold** and <script>alert(1)</script> text.", 15, "Title Bold and..."},
		{"late space", "one two three four", 16, "one two three..."},
		{"early space keeps hard cut", "abcdefghij klmnopqrst", 15, "abcdefghij klmn..."},
		{"no spaces", "abcdefghijklmnopqrstuvwxyz", 10, "abcdefghij..."},
		{"images and links", "![pic](a.jpg) See [the site](http://x.com) and `code`", 100, "See the site and code"},
		{"footnotes", "Text[^1] more.\n\n[^1]: note", 100, "Text more. note"},
		{"admonition", "!!! note \"Ojo\"\n    Cold at night.", 100, "Cold at night."},
		{"linked image", "[![img](a.jpg)](http://x.com) after", 100, "after"},
		{"italic", "*very* _fine_", 100, "very _fine_"},
		{"whitespace", "  a\n\n\tb   c  ", 100, "a b c"},
		{"multibyte", "Ñandú más allá", 8, "Ñandú má..."},
		{"default length", strings.Repeat("a", 250), 0, strings.Repeat("a", DefaultExcerptLength) + "..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Excerpt(tc.in, tc.max); got != tc.want {
				t.Errorf("Excerpt(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestExcerpt_NoFormattingMarkers(t *testing.T) {
	inputs := []string{
		"## Heading\n\nSome **bold** and `code` text",
		"###Tight heading with ** stray markers ** and ``double``",
		"Unbalanced **bold and `tick",
		"~~struck~~ and ~~ dangling",
		"> quote with [link](https://example.com) and ![img](x.png)",
	}

	for _, in := range inputs {
		for _, n := range []int{5, 12, 40, 200} {
			got := Excerpt(in, n)
			if l := utf8.RuneCountInString(got); l > n+3 {
				t.Errorf("Excerpt(%q, %d) has %d runes", in, n, l)
			}
			for _, m := range []string{"**", "##", "`", "~~"} {
				if strings.Contains(got, m) {
					t.Errorf("Excerpt(%q, %d) = %q contains %q", in, n, got, m)
				}
			}
		}
	}
}
