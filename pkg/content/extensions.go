package content

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark/ast"
)

const (
	tocMarker    = "[TOC]"
	tocParagraph = "<p>" + tocMarker + "</p>"
)

var (
	abbrDef         = regexp.MustCompile(`^\*\[([^\]]+)\]:[ \t]*(.*)$`)
	admonitionStart = regexp.MustCompile(`^!!!\s+([A-Za-z0-9_-]+)(?:\s+"([^"]*)")?\s*$`)
)

type abbreviation struct {
	term  string
	title string
}

type heading struct {
	level int
	id    string
	text  string
}

// fenceTracker follows fenced code blocks so source rewrites leave code alone.
type fenceTracker struct {
	fence string
}

// inFence consumes line and reports whether it belongs to a fenced block.
func (f *fenceTracker) inFence(line string) bool {
	t := strings.TrimLeft(line, " ")
	if len(line)-len(t) > 3 {
		return f.fence != ""
	}

	for _, m := range []string{"```", "~~~"} {
		if !strings.HasPrefix(t, m) {
			continue
		}
		switch {
		case f.fence == "":
			f.fence = m
			return true
		case f.fence == m:
			f.fence = ""
			return true
		}
	}
	return f.fence != ""
}

// extractAbbreviations removes "*[TERM]: title" definitions from md.
func extractAbbreviations(md string) (string, []abbreviation) {
	if !strings.Contains(md, "*[") {
		return md, nil
	}

	var (
		ft    fenceTracker
		out   []string
		abbrs []abbreviation
		seen  = map[string]bool{}
	)

	for _, line := range strings.Split(md, "\n") {
		if ft.inFence(line) {
			out = append(out, line)
			continue
		}
		m := abbrDef.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			out = append(out, line)
			continue
		}
		term := strings.TrimSpace(m[1])
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		abbrs = append(abbrs, abbreviation{term: term, title: strings.TrimSpace(m[2])})
	}

	// longest first so "HTML5" wins over "HTML"
	sort.SliceStable(abbrs, func(i, j int) bool {
		return len(abbrs[i].term) > len(abbrs[j].term)
	})
	return strings.Join(out, "\n"), abbrs
}

// expandAdmonitions rewrites `!!! kind "Title"` blocks with an indented body
// into a div the Markdown parser treats as an HTML block around Markdown.
func expandAdmonitions(md string) string {
	if !strings.Contains(md, "!!!") {
		return md
	}

	var (
		ft  fenceTracker
		out []string
	)

	lines := strings.Split(md, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if ft.inFence(line) {
			out = append(out, line)
			continue
		}

		idx := admonitionStart.FindStringSubmatchIndex(strings.TrimRight(line, "\r"))
		if idx == nil {
			out = append(out, line)
			continue
		}

		kind := strings.ToLower(line[idx[2]:idx[3]])
		title := strings.ToUpper(kind[:1]) + kind[1:]
		if idx[4] >= 0 {
			title = line[idx[4]:idx[5]]
		}

		var body []string
		for i+1 < len(lines) {
			next := lines[i+1]
			if strings.TrimSpace(next) != "" && !strings.HasPrefix(next, "    ") && !strings.HasPrefix(next, "\t") {
				break
			}
			body = append(body, dedent(next))
			i++
		}
		for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
			body = body[:len(body)-1]
		}

		out = append(out, fmt.Sprintf(`<div class="admonition %s">`, kind))
		if title != "" {
			out = append(out, fmt.Sprintf(`<p class="admonition-title">%s</p>`, html.EscapeString(title)))
		}
		out = append(out, "")
		out = append(out, body...)
		out = append(out, "", "</div>", "")
	}
	return strings.Join(out, "\n")
}

func dedent(line string) string {
	if strings.HasPrefix(line, "\t") {
		return line[1:]
	}
	return strings.TrimPrefix(line, "    ")
}

func hasTOCMarker(md string) bool {
	if !strings.Contains(md, tocMarker) {
		return false
	}
	var ft fenceTracker
	for _, line := range strings.Split(md, "\n") {
		if ft.inFence(line) {
			continue
		}
		if strings.TrimSpace(line) == tocMarker {
			return true
		}
	}
	return false
}

func headings(doc ast.Node, src []byte) []heading {
	var hs []heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		id := ""
		if v, ok := h.AttributeString("id"); ok {
			if bs, ok := v.([]byte); ok {
				id = string(bs)
			}
		}
		hs = append(hs, heading{level: h.Level, id: id, text: nodeText(h, src)})
		return ast.WalkSkipChildren, nil
	})
	return hs
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// tocHTML renders nested lists of links to the document headings.
func tocHTML(hs []heading) string {
	var b strings.Builder
	b.WriteString(`<div class="toc">`)

	var stack []int
	for _, h := range hs {
		if len(stack) == 0 || h.level > stack[len(stack)-1] {
			b.WriteString("<ul>")
			stack = append(stack, h.level)
		} else {
			b.WriteString("</li>")
			for len(stack) > 1 && h.level < stack[len(stack)-1] {
				b.WriteString("</ul></li>")
				stack = stack[:len(stack)-1]
			}
		}
		fmt.Fprintf(&b, `<li><a href="#%s">%s</a>`, html.EscapeString(h.id), html.EscapeString(h.text))
	}

	if len(stack) > 0 {
		b.WriteString("</li>")
		for i := len(stack) - 1; i > 0; i-- {
			b.WriteString("</ul></li>")
		}
		b.WriteString("</ul>")
	}

	b.WriteString("</div>")
	return b.String()
}
