package codec

import (
	"testing"

	"github.com/agentic-research/outline/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown_Full(t *testing.T) {
	b, _ := runbook(t)
	md, err := RenderMarkdown(b, true, nil)
	require.NoError(t, err)

	want := "# Dev Runbook\n\n" +
		"## Design\n\n" +
		"\n" +
		"  - [ ] Define requirements\n" +
		"    > requirements list: ___\n" +
		"  - [ ] API design\n" +
		"    REST endpoints\n" +
		"## Implementation\n\n" +
		"\n" +
		"  - [ ] Write code\n" +
		"  - [ ] Write tests\n" +
		"    - [ ] unit\n" +
		"    - [ ] integration\n"
	assert.Equal(t, want, md)
}

func TestRenderMarkdown_WithoutPlaceholders(t *testing.T) {
	b, _ := runbook(t)
	md, err := RenderMarkdown(b, false, nil)
	require.NoError(t, err)
	assert.NotContains(t, md, "> requirements list")
	assert.Contains(t, md, "- [ ] Define requirements\n")
}

func TestRenderMarkdown_Subtree(t *testing.T) {
	b, ids := runbook(t)
	root := ids["design"]
	md, err := RenderMarkdown(b, true, &root)
	require.NoError(t, err)

	want := "# Design\n\n" +
		"- [ ] Define requirements\n" +
		"  > requirements list: ___\n" +
		"- [ ] API design\n" +
		"  REST endpoints\n"
	assert.Equal(t, want, md)
}

func TestRenderMarkdown_HeadingLevelCapsAtFour(t *testing.T) {
	b, err := outline.New("Deep", 5)
	require.NoError(t, err)
	var parent *outline.NodeID
	for range 5 {
		id := add(t, b, parent, "S", outline.Section, nil, nil)
		parent = &id
	}
	md, err := RenderMarkdown(b, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "# Deep\n\n## S\n\n\n### S\n\n\n#### S\n\n\n#### S\n\n\n#### S\n\n", md)
}

func TestRenderMarkdown_EmptyBook(t *testing.T) {
	b, err := outline.New("Empty", 4)
	require.NoError(t, err)
	md, err := RenderMarkdown(b, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "# Empty\n\n", md)
}

func TestListToCheckbox(t *testing.T) {
	cases := map[string]string{
		"- cargo test":    "- [ ] cargo test",
		"* cargo test":    "- [ ] cargo test",
		"  - nested item": "  - [ ] nested item",
		"plain text":      "plain text",
		"-no space":       "-no space",
	}
	for in, want := range cases {
		assert.Equal(t, want, listToCheckbox(in), in)
	}
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a"}, splitLines("a\n"))
	assert.Equal(t, []string{"a", "", "b"}, splitLines("a\r\n\nb"))
}
