package codec

import (
	"encoding/json"
	"fmt"

	"github.com/agentic-research/outline/api"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// RenderJSON encodes tree as indented JSON with a trailing newline.
func RenderJSON(tree *api.Tree) (string, error) {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tree: %w", err)
	}
	return string(data) + "\n", nil
}

// DecodeTree parses the JSON form written by RenderJSON.
func DecodeTree(data []byte) (*api.Tree, error) {
	var tree api.Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return &tree, nil
}

// Query evaluates a JSONPath expression against tree and returns every
// match in document order. The tree is viewed through its JSON field names,
// so "$.nodes[*].children[*].title" lists every second-level title.
func Query(tree *api.Tree, expr string) ([]any, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", expr, err)
	}

	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	root, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse tree: %w", err)
	}
	return x.Get(root), nil
}

// FormatMatches renders query results as indented JSON with sorted keys.
func FormatMatches(matches []any) string {
	if matches == nil {
		matches = []any{}
	}
	return oj.JSON(matches, &ojg.Options{Indent: 2, Sort: true})
}
