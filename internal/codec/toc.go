package codec

import (
	"fmt"
	"strings"

	"github.com/agentic-research/outline/internal/outline"
)

// RenderTOC lists nodes under a "# title (N nodes)" header. Each line is
// "<position>. <title>", indented two spaces per level below the first
// node. Nodes not reachable from the roots show "?" as their position.
func RenderTOC(b *outline.Book, nodes []*outline.Node) string {
	numbers := make(map[outline.NodeID]string, b.NodeCount())
	for _, p := range b.Positions() {
		numbers[p.ID] = p.Number
	}
	base := 1
	if len(nodes) > 0 {
		base = b.Depth(nodes[0].ID())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s (%d nodes)\n\n", b.Title(), b.NodeCount())
	for _, n := range nodes {
		num, ok := numbers[n.ID()]
		if !ok {
			num = "?"
		}
		indent := strings.Repeat("  ", b.Depth(n.ID())-base)
		fmt.Fprintf(&sb, "%s%s. %s\n", indent, num, n.Title())
	}
	return sb.String()
}
