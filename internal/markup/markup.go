// Package markup turns model-generated text into a small fixed HTML
// vocabulary: bold, italic, three heading levels, unordered lists and line
// breaks. Anything else passes through untouched.
package markup

import (
	"regexp"
	"strings"
)

// Pass is one stage of the pipeline. Inline passes see the whole text,
// line passes see the split lines.
type Pass func(string) string

// LinePass transforms the line slice in place or returns a new one.
type LinePass func([]string) []string

const lineBreak = "<br/>"

var boldRe = regexp.MustCompile(`\*\*([^\n\r]*?)\*\*`)

// Bold wraps **x** in <strong>. It runs before Italic so runs of three or
// four asterisks resolve as bold first.
func Bold(s string) string {
	return boldRe.ReplaceAllString(s, "<strong>$1</strong>")
}

// Italic wraps *x* in <em> when neither delimiter touches another asterisk.
// The closing delimiter is the nearest asterisk on the same line that is not
// followed by another asterisk.
func Italic(s string) string {
	if !strings.Contains(s, "*") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	i := 0
	for i < len(s) {
		if s[i] != '*' || !loneOpener(s, i) {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := closer(s, i+1)
		if end < 0 {
			b.WriteByte(s[i])
			i++
			continue
		}
		b.WriteString("<em>")
		b.WriteString(s[i+1 : end])
		b.WriteString("</em>")
		i = end + 1
	}
	return b.String()
}

func loneOpener(s string, i int) bool {
	if i > 0 && s[i-1] == '*' {
		return false
	}
	return i+1 < len(s) && s[i+1] != '*'
}

// closer finds the nearest '*' at or after from that is not followed by '*'.
// A newline before it means there is no closer on this line.
func closer(s string, from int) int {
	for j := from; j < len(s); j++ {
		switch s[j] {
		case '\n', '\r':
			return -1
		case '*':
			if j+1 < len(s) && s[j+1] == '*' {
				continue
			}
			return j
		}
	}
	return -1
}

var headingMarkers = []struct {
	prefix string
	tag    string
}{
	{"### ", "h3"},
	{"## ", "h2"},
	{"# ", "h1"},
}

// Headings converts lines starting with '### ', '## ' or '# ', most specific
// first, consuming the marker.
func Headings(lines []string) []string {
	for i, line := range lines {
		for _, m := range headingMarkers {
			if strings.HasPrefix(line, m.prefix) {
				lines[i] = "<" + m.tag + ">" + line[len(m.prefix):] + "</" + m.tag + ">"
				break
			}
		}
	}
	return lines
}

// Lists groups consecutive lines starting with '- ' (after trimming) into
// one <ul> block. A list still open at the end is closed.
func Lists(lines []string) []string {
	out := make([]string, 0, len(lines)+2)
	open := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") {
			if !open {
				out = append(out, "<ul>")
				open = true
			}
			out = append(out, "<li>"+trimmed[2:]+"</li>")
			continue
		}
		if open {
			out = append(out, "</ul>")
			open = false
		}
		out = append(out, line)
	}
	if open {
		out = append(out, "</ul>")
	}
	return out
}

// Join concatenates lines with an explicit line break.
func Join(lines []string) string { return strings.Join(lines, lineBreak) }

var (
	inlinePasses = []Pass{Bold, Italic}
	linePasses   = []LinePass{Headings, Lists}
)

// Render runs the passes in order: bold, italic, headings, lists, join.
// It is pure and safe for concurrent use.
func Render(text string) string {
	for _, p := range inlinePasses {
		text = p(text)
	}
	lines := strings.Split(text, "\n")
	for _, p := range linePasses {
		lines = p(lines)
	}
	return Join(lines)
}
