package mcpserver

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentic-research/outline/internal/outline"
)

// sanitizeFilename maps a title onto a safe file name stem: characters
// outside [A-Za-z0-9-_.()] become '_', runs of '_' collapse, edge '_' are
// dropped and ".." never survives.
func sanitizeFilename(title string) string {
	var b strings.Builder
	prevUnderscore := true
	for _, r := range title {
		keep := r < 0x80 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			strings.ContainsRune("-_.()", r))
		if !keep {
			r = '_'
		}
		if r == '_' {
			if !prevUnderscore {
				b.WriteRune('_')
			}
			prevUnderscore = true
			continue
		}
		b.WriteRune(r)
		prevUnderscore = false
	}
	out := strings.TrimRight(b.String(), "_")
	for strings.Contains(out, "..") {
		out = strings.ReplaceAll(out, "..", "_")
	}
	if out == "" {
		return "untitled"
	}
	return out
}

func validateFilename(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return errors.New("filename must not contain path separators, '..', or be empty")
	}
	return nil
}

func validateImportPath(path string) error {
	if filepath.Ext(path) != ".json" {
		return errors.New("only .json files can be imported")
	}
	return nil
}

// unescapeNewlines turns literal "\n" sequences sent by clients into
// real newlines.
func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// nodeLabel renders "<position>. <title>" for result messages.
func nodeLabel(b *outline.Book, id outline.NodeID) string {
	title := "?"
	if n, ok := b.Node(id); ok {
		title = n.Title()
	}
	return fmt.Sprintf("%s. %s", b.Label(id), title)
}
