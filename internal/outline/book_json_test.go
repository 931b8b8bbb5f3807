package outline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookJSON_RoundTrip(t *testing.T) {
	b, ids := standardBook(t)
	data, err := json.Marshal(b)
	require.NoError(t, err)

	var got Book
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, b.ID(), got.ID())
	assert.Equal(t, b.Title(), got.Title())
	assert.Equal(t, b.MaxDepth(), got.MaxDepth())
	assert.Equal(t, b.Roots(), got.Roots())
	assert.Equal(t, b.Positions(), got.Positions())

	n, ok := got.Node(ids["requirements"])
	require.True(t, ok)
	ph, ok := n.Placeholder()
	assert.True(t, ok)
	assert.Equal(t, "requirements list", ph)
	_, hasBody := n.Body()
	assert.False(t, hasBody)
	assert.Equal(t, Content, n.Type())
}

func TestBookJSON_FieldNames(t *testing.T) {
	b, _ := standardBook(t)
	data, err := json.Marshal(b)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, k := range []string{"id", "title", "max_depth", "nodes", "root_nodes"} {
		assert.Contains(t, raw, k)
	}
	assert.Contains(t, string(data), `"node_type":"Section"`)
}

func corruptCase(t *testing.T, mutate func(raw map[string]any)) error {
	t.Helper()
	b, _ := standardBook(t)
	data, err := json.Marshal(b)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	mutate(raw)
	data, err = json.Marshal(raw)
	require.NoError(t, err)
	var got Book
	return json.Unmarshal(data, &got)
}

func TestBookJSON_RejectsCorruption(t *testing.T) {
	t.Run("dangling root", func(t *testing.T) {
		err := corruptCase(t, func(raw map[string]any) {
			raw["root_nodes"] = append(raw["root_nodes"].([]any), NewNodeID().String())
		})
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("orphan", func(t *testing.T) {
		err := corruptCase(t, func(raw map[string]any) {
			raw["root_nodes"] = raw["root_nodes"].([]any)[:1]
		})
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("child link without parent link", func(t *testing.T) {
		err := corruptCase(t, func(raw map[string]any) {
			for _, v := range raw["nodes"].(map[string]any) {
				n := v.(map[string]any)
				if n["parent"] != nil {
					n["parent"] = nil
					return
				}
			}
		})
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("unknown node type", func(t *testing.T) {
		err := corruptCase(t, func(raw map[string]any) {
			for _, v := range raw["nodes"].(map[string]any) {
				v.(map[string]any)["node_type"] = "Chapter"
				return
			}
		})
		require.ErrorIs(t, err, ErrCorrupt)
		assert.True(t, strings.Contains(err.Error(), "Chapter"))
	})

	t.Run("too deep for max depth", func(t *testing.T) {
		err := corruptCase(t, func(raw map[string]any) {
			raw["max_depth"] = 1
		})
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, ErrDepthExceeded)
	})

	t.Run("zero max depth", func(t *testing.T) {
		err := corruptCase(t, func(raw map[string]any) {
			raw["max_depth"] = 0
		})
		assert.ErrorIs(t, err, ErrInvalidMaxDepth)
	})
}

func TestBookJSON_AcceptsLowercaseType(t *testing.T) {
	b := newBook(t, 2)
	mustAdd(t, b, nil, "Only", Content)
	data, err := json.Marshal(b)
	require.NoError(t, err)
	data = []byte(strings.Replace(string(data), `"Content"`, `"content"`, 1))

	var got Book
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1, got.NodeCount())
}
