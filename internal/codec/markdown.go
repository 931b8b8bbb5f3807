package codec

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/agentic-research/outline/internal/outline"
)

// RenderMarkdown renders the book (or the children of subtreeRoot) as a
// Markdown checklist. Sections become headings, content nodes become
// unchecked boxes, and list items in bodies are turned into boxes too.
func RenderMarkdown(b *outline.Book, includePlaceholders bool, subtreeRoot *outline.NodeID) (string, error) {
	var buf strings.Builder

	title, roots := b.Title(), b.Roots()
	if subtreeRoot != nil {
		n, ok := b.Node(*subtreeRoot)
		if !ok {
			return "", fmt.Errorf("%w: %s", outline.ErrNotFound, *subtreeRoot)
		}
		title, roots = n.Title(), n.Children()
	}

	fmt.Fprintf(&buf, "# %s\n\n", title)
	r := renderer{book: b, buf: &buf, placeholders: includePlaceholders}
	for _, id := range roots {
		r.node(id, 0)
	}
	return buf.String(), nil
}

type renderer struct {
	book         *outline.Book
	buf          *strings.Builder
	placeholders bool
}

// node renders id at level (0 for the top of the rendering).
func (r *renderer) node(id outline.NodeID, level int) {
	n, ok := r.book.Node(id)
	if !ok || level >= outline.MaxDepthLimit {
		return
	}
	indent := strings.Repeat("  ", level)

	switch n.Type() {
	case outline.Section:
		fmt.Fprintf(r.buf, "%s %s\n\n", strings.Repeat("#", min(level+2, 4)), n.Title())
	default:
		fmt.Fprintf(r.buf, "%s- [ ] %s\n", indent, n.Title())
	}

	if body, ok := n.Body(); ok {
		for _, line := range splitLines(body) {
			fmt.Fprintf(r.buf, "%s  %s\n", indent, listToCheckbox(line))
		}
	}
	if r.placeholders {
		if ph, ok := n.Placeholder(); ok {
			fmt.Fprintf(r.buf, "%s  > %s: ___\n", indent, ph)
		}
	}

	if !n.IsLeaf() {
		r.buf.WriteByte('\n')
	}
	for _, c := range n.Children() {
		r.node(c, level+1)
	}
}

// listToCheckbox rewrites a "- " or "* " list item into "- [ ] ",
// keeping its leading whitespace.
func listToCheckbox(line string) string {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	leading := line[:len(line)-len(trimmed)]
	for _, marker := range []string{"- ", "* "} {
		if rest, ok := strings.CutPrefix(trimmed, marker); ok {
			return leading + "- [ ] " + rest
		}
	}
	return line
}

// splitLines splits on "\n", drops a trailing "\r" from each line and
// ignores a single final newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
