package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agentic-research/outline/internal/codec"
	"github.com/agentic-research/outline/internal/outline"
	"github.com/agentic-research/outline/internal/service"
	"github.com/agentic-research/outline/internal/store"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/mark3labs/mcp-go/mcp"
)

const refHelp = "ID from `toc` output (e.g. '2-3'). UUID, UUID prefix or title fragment also accepted."

func (s *Server) tools() []toolDef {
	return []toolDef{
		{
			tool: mcp.NewTool("init",
				mcp.WithDescription("Create a new book in the shelf. Requires a slug (filename) and title. Auto-selects the new book."),
				mcp.WithString("title", mcp.Required(), mcp.Description("Book title")),
				mcp.WithString("slug", mcp.Required(),
					mcp.Description("Book slug for filename (e.g. 'rust', 'development'). Alphanumeric, hyphens, underscores only.")),
				mcp.WithNumber("max_depth", mcp.Description(fmt.Sprintf("Maximum tree depth (default: %d, recommended: 3-4)", s.opts.DefaultMaxDepth))),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(false),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			run: s.initBook,
		},
		{
			tool: mcp.NewTool("shelf",
				mcp.WithDescription("List all books in the shelf. Shows book slugs, titles, and node counts. The currently selected book is marked with ★."),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			run: s.listShelf,
		},
		{
			tool: mcp.NewTool("select_book",
				mcp.WithDescription("Select a book to work with. Use a number from `shelf` output or a book slug. Shows the TOC unless quiet=true."),
				mcp.WithString("book", mcp.Required(),
					mcp.Description("Book to select: number from `shelf` output (e.g. '1') or book slug (e.g. 'rust')")),
				mcp.WithBoolean("quiet", mcp.Description("Suppress TOC output (default: false)")),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			run: s.selectBook,
		},
		{
			tool: mcp.NewTool("toc",
				mcp.WithDescription("Show table of contents with numbered IDs (e.g. 1, 1-1, 2-3). Use the returned IDs to specify nodes in other tools."),
				mcp.WithString("subtree_root", mcp.Description("Section "+refHelp+" Omit to show entire book.")),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			run: s.toc,
		},
		{
			tool: mcp.NewTool("node_create",
				mcp.WithDescription("Add a new node to the book. Use a parent ID from `toc` output to nest under a section, or omit for root-level."),
				mcp.WithString("parent", mcp.Description("Parent "+refHelp+" Omit for a root-level node.")),
				mcp.WithString("title", mcp.Required(), mcp.Description("Node title")),
				mcp.WithString("node_type", mcp.Required(), mcp.Enum("section", "content"), mcp.Description("Node type: section or content")),
				mcp.WithString("body", mcp.Description("Optional markdown body content")),
				mcp.WithString("placeholder", mcp.Description("Optional placeholder hint for checklist export (e.g. 'write test cases here')")),
				mcp.WithNumber("position", mcp.Description("Position among siblings (0-based). Omit to append at end.")),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			run: s.nodeCreate,
		},
		{
			tool: mcp.NewTool("node_update",
				mcp.WithDescription("Edit a node's title, body, type, or placeholder. Only specified fields are changed."),
				mcp.WithString("node_id", mcp.Required(), mcp.Description("Node "+refHelp)),
				mcp.WithString("title", mcp.Description("New title (omit to keep current)")),
				mcp.WithString("body", mcp.Description("New body (null to clear, omit to keep current)")),
				mcp.WithString("node_type", mcp.Enum("section", "content"), mcp.Description("New node type: section or content")),
				mcp.WithString("placeholder", mcp.Description("New placeholder hint (null to clear, omit to keep current)")),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			run: s.nodeUpdate,
		},
		{
			tool: mcp.NewTool("node_move",
				mcp.WithDescription("Move or delete a node (and its descendants). Action 'move' relocates, 'remove' deletes."),
				mcp.WithString("node_id", mcp.Required(), mcp.Description("Node "+refHelp)),
				mcp.WithString("action", mcp.Required(), mcp.Enum("move", "remove"), mcp.Description("'move' to relocate, 'remove' to delete with descendants")),
				mcp.WithString("new_parent", mcp.Description("New parent "+refHelp+" Omit for root.")),
				mcp.WithNumber("position", mcp.Description("Position among new siblings (0-based). Default: append at end.")),
				mcp.WithDestructiveHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			run: s.nodeMove,
		},
		{
			tool: mcp.NewTool("checklist",
				mcp.WithDescription("Export the book or one section as a Markdown checklist (or JSON tree). The book is NOT modified."),
				mcp.WithString("output_dir", mcp.Description("Output directory path (default: configured export directory)")),
				mcp.WithString("filename", mcp.Description("Output filename (default: '<book-title>.md')")),
				mcp.WithBoolean("include_placeholders", mcp.Description("Include placeholder hints as fill-in fields")),
				mcp.WithString("format", mcp.Enum("markdown", "json"), mcp.Description("Output format: 'markdown' (default) or 'json' (tree-structured)")),
				mcp.WithString("subtree_root", mcp.Description("Section "+refHelp+" Omit to export entire book.")),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			run: s.checklist,
		},
		{
			tool: mcp.NewTool("import",
				mcp.WithDescription("Import a book from a JSON file exported with `checklist` format json. Replaces the selected book entirely."),
				mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to a .json tree file")),
				mcp.WithDestructiveHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			run: s.importBook,
		},
		{
			tool: mcp.NewTool("query",
				mcp.WithDescription("Evaluate a JSONPath expression against the exported tree of the selected book, e.g. '$..placeholder'."),
				mcp.WithString("expression", mcp.Required(), mcp.Description("JSONPath expression")),
				mcp.WithString("subtree_root", mcp.Description("Section "+refHelp+" Omit to query entire book.")),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			run: s.query,
		},
	}
}

func (s *Server) initBook(_ context.Context, req mcp.CallToolRequest) (string, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return "", err
	}
	slug, err := req.RequireString("slug")
	if err != nil {
		return "", err
	}
	if err := store.ValidateSlug(slug); err != nil {
		return "", err
	}
	exists, err := s.shelf.Exists(slug)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("book '%s' already exists: choose a different slug", slug)
	}

	b, err := service.New(s.shelf.Book(slug)).CreateBook(title, req.GetInt("max_depth", s.opts.DefaultMaxDepth))
	if err != nil {
		return "", err
	}
	s.selected = slug
	s.logger.Info("book created", "slug", slug, "title", b.Title(), "max_depth", b.MaxDepth())
	return fmt.Sprintf("Created book: '%s' (slug: %s, max_depth: %d). Auto-selected.", b.Title(), slug, b.MaxDepth()), nil
}

func (s *Server) listShelf(_ context.Context, _ mcp.CallToolRequest) (string, error) {
	slugs, err := s.shelf.List()
	if err != nil {
		return "", err
	}
	if len(slugs) == 0 {
		return "Shelf is empty. Use `init` to create a new book.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Shelf (%d books)\n\n", len(slugs))
	for i, slug := range slugs {
		title, count := "(failed to load)", 0
		b, err := s.shelf.Book(slug).Load()
		if err != nil {
			s.logger.Warn("book failed to load", "slug", slug, "err", err)
		} else if b != nil {
			title, count = b.Title(), b.NodeCount()
		}
		marker := ""
		if slug == s.selected {
			marker = " ★"
		}
		fmt.Fprintf(&sb, "%d. %s — \"%s\" (%d nodes)%s\n", i+1, slug, title, count, marker)
	}
	return sb.String(), nil
}

func (s *Server) selectBook(_ context.Context, req mcp.CallToolRequest) (string, error) {
	ref, err := req.RequireString("book")
	if err != nil {
		return "", err
	}
	slug, err := s.resolveBook(ref)
	if err != nil {
		return "", err
	}
	b, err := s.shelf.Book(slug).Load()
	if err != nil {
		return "", err
	}
	if b == nil {
		return "", fmt.Errorf("book '%s' not found in shelf: use `shelf` to list available books", slug)
	}
	s.selected = slug

	toc := ""
	if !req.GetBool("quiet", false) {
		if nodes := b.Nodes(); len(nodes) == 0 {
			toc = "\n(empty)"
		} else {
			toc = "\n\n" + codec.RenderTOC(b, nodes)
		}
	}
	return fmt.Sprintf("Selected: %s — \"%s\" (%d nodes)%s", slug, b.Title(), b.NodeCount(), toc), nil
}

// resolveBook maps a 1-based shelf number or a slug onto a slug.
func (s *Server) resolveBook(ref string) (string, error) {
	num, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return ref, nil
	}
	slugs, err := s.shelf.List()
	if err != nil {
		return "", err
	}
	if num == 0 || num > uint64(len(slugs)) {
		return "", fmt.Errorf("book number %d out of range (1-%d): use `shelf` to see available books", num, len(slugs))
	}
	return slugs[num-1], nil
}

func (s *Server) toc(_ context.Context, req mcp.CallToolRequest) (string, error) {
	_, b, err := s.load()
	if err != nil {
		return "", err
	}
	nodes := b.Nodes()
	if ref, ok := optString(req, "subtree_root"); ok {
		id, err := b.Resolve(ref)
		if err != nil {
			return "", err
		}
		nodes = b.Subtree(id)
	}
	if len(nodes) == 0 {
		return "Book is empty. Use `node_create` to add nodes.", nil
	}
	return codec.RenderTOC(b, nodes), nil
}

func (s *Server) nodeCreate(_ context.Context, req mcp.CallToolRequest) (string, error) {
	svc, b, err := s.load()
	if err != nil {
		return "", err
	}
	title, err := req.RequireString("title")
	if err != nil {
		return "", err
	}
	typeTag, err := req.RequireString("node_type")
	if err != nil {
		return "", err
	}
	nodeType, err := outline.ParseNodeType(typeTag)
	if err != nil {
		return "", err
	}

	add := outline.AddRequest{
		Title:    unescapeNewlines(title),
		Type:     nodeType,
		Position: req.GetInt("position", outline.AppendPosition),
	}
	if ref, ok := optString(req, "parent"); ok {
		parent, err := b.Resolve(ref)
		if err != nil {
			return "", err
		}
		add.Parent = &parent
	}
	if body, ok := optString(req, "body"); ok {
		body = unescapeNewlines(body)
		add.Body = &body
	}
	if ph, ok := optString(req, "placeholder"); ok {
		ph = unescapeNewlines(ph)
		add.Placeholder = &ph
	}

	id, err := svc.AddNode(add)
	if err != nil {
		return "", err
	}
	after, err := svc.ReadTree()
	if err != nil {
		return "", err
	}
	return "Created: " + nodeLabel(after, id), nil
}

func (s *Server) nodeUpdate(_ context.Context, req mcp.CallToolRequest) (string, error) {
	svc, b, err := s.load()
	if err != nil {
		return "", err
	}
	ref, err := req.RequireString("node_id")
	if err != nil {
		return "", err
	}
	id, err := b.Resolve(ref)
	if err != nil {
		return "", err
	}

	var upd outline.UpdateRequest
	if title, ok := optString(req, "title"); ok {
		title = unescapeNewlines(title)
		upd.Title = &title
	}
	if tag, ok := optString(req, "node_type"); ok {
		t, err := outline.ParseNodeType(tag)
		if err != nil {
			return "", err
		}
		upd.Type = &t
	}
	if upd.Body, err = patchArg(req, "body"); err != nil {
		return "", err
	}
	if upd.Placeholder, err = patchArg(req, "placeholder"); err != nil {
		return "", err
	}

	if err := svc.UpdateNode(id, upd); err != nil {
		return "", err
	}
	after, err := svc.ReadTree()
	if err != nil {
		return "", err
	}
	return "Updated: " + nodeLabel(after, id), nil
}

func (s *Server) nodeMove(_ context.Context, req mcp.CallToolRequest) (string, error) {
	svc, b, err := s.load()
	if err != nil {
		return "", err
	}
	ref, err := req.RequireString("node_id")
	if err != nil {
		return "", err
	}
	id, err := b.Resolve(ref)
	if err != nil {
		return "", err
	}
	action, err := req.RequireString("action")
	if err != nil {
		return "", err
	}

	switch action {
	case "move":
		var parent *outline.NodeID
		if pref, ok := optString(req, "new_parent"); ok {
			p, err := b.Resolve(pref)
			if err != nil {
				return "", err
			}
			parent = &p
		}
		if err := svc.MoveNode(id, parent, req.GetInt("position", outline.AppendPosition)); err != nil {
			return "", err
		}
		after, err := svc.ReadTree()
		if err != nil {
			return "", err
		}
		return "Moved → " + nodeLabel(after, id), nil
	case "remove":
		label := nodeLabel(b, id)
		if err := svc.RemoveNode(id); err != nil {
			return "", err
		}
		return fmt.Sprintf("Removed: %s (and descendants)", label), nil
	default:
		return "", fmt.Errorf("unknown action '%s': use move or remove", action)
	}
}

func (s *Server) checklist(_ context.Context, req mcp.CallToolRequest) (string, error) {
	_, b, err := s.load()
	if err != nil {
		return "", err
	}

	format := req.GetString("format", "markdown")
	var ext string
	switch format {
	case "markdown":
		ext = "md"
	case "json":
		ext = "json"
	default:
		return "", fmt.Errorf("unknown format '%s': use markdown or json", format)
	}

	var root *outline.NodeID
	if ref, ok := optString(req, "subtree_root"); ok {
		id, err := b.Resolve(ref)
		if err != nil {
			return "", err
		}
		root = &id
	}

	filename, ok := optString(req, "filename")
	if !ok {
		filename = defaultFilename(b, root, ext)
	}
	if err := validateFilename(filename); err != nil {
		return "", err
	}

	var content string
	if format == "json" {
		tree, err := codec.Export(b, root)
		if err != nil {
			return "", err
		}
		if content, err = codec.RenderJSON(tree); err != nil {
			return "", err
		}
	} else {
		placeholders := req.GetBool("include_placeholders", !s.opts.OmitPlaceholders)
		if content, err = codec.RenderMarkdown(b, placeholders, root); err != nil {
			return "", err
		}
	}

	dir, ok := optString(req, "output_dir")
	if !ok {
		dir = s.opts.ExportDir
	}
	fs, abs, err := dirFS(dir)
	if err != nil {
		return "", err
	}
	if err := util.WriteFile(fs, filename, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write checklist: %w", err)
	}
	path := filepath.Join(abs, filename)
	s.logger.Info("checklist exported", "book", s.selected, "path", path, "format", format)
	return "Checklist exported to: " + path, nil
}

func defaultFilename(b *outline.Book, root *outline.NodeID, ext string) string {
	if root == nil {
		return fmt.Sprintf("%s.%s", sanitizeFilename(b.Title()), ext)
	}
	pos, ok := b.PositionOf(*root)
	if !ok {
		pos = "0"
	}
	title := "unknown"
	if n, ok := b.Node(*root); ok {
		title = sanitizeFilename(n.Title())
	}
	return fmt.Sprintf("%s_%s.%s", pos, title, ext)
}

func (s *Server) importBook(_ context.Context, req mcp.CallToolRequest) (string, error) {
	svc, err := s.current()
	if err != nil {
		return "", err
	}
	path, err := req.RequireString("file_path")
	if err != nil {
		return "", err
	}
	if err := validateImportPath(path); err != nil {
		return "", err
	}

	fs, _, err := dirFS(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	data, err := util.ReadFile(fs, filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	tree, err := codec.DecodeTree(data)
	if err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	b, err := codec.Import(tree)
	if err != nil {
		return "", err
	}
	if err := svc.SaveBook(b); err != nil {
		return "", err
	}
	s.logger.Info("book imported", "book", s.selected, "path", path, "nodes", b.NodeCount())
	return fmt.Sprintf("Imported '%s': %d nodes", tree.Title, b.NodeCount()), nil
}

func (s *Server) query(_ context.Context, req mcp.CallToolRequest) (string, error) {
	_, b, err := s.load()
	if err != nil {
		return "", err
	}
	expr, err := req.RequireString("expression")
	if err != nil {
		return "", err
	}
	var root *outline.NodeID
	if ref, ok := optString(req, "subtree_root"); ok {
		id, err := b.Resolve(ref)
		if err != nil {
			return "", err
		}
		root = &id
	}
	tree, err := codec.Export(b, root)
	if err != nil {
		return "", err
	}
	matches, err := codec.Query(tree, expr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d matches\n\n%s", len(matches), codec.FormatMatches(matches)), nil
}

// load returns the service and current state of the selected book.
func (s *Server) load() (*service.BookService, *outline.Book, error) {
	svc, err := s.current()
	if err != nil {
		return nil, nil, err
	}
	b, err := svc.ReadTree()
	if err != nil {
		return nil, nil, err
	}
	return svc, b, nil
}

// optString returns a string argument that is present and not null.
func optString(req mcp.CallToolRequest, key string) (string, bool) {
	v, ok := req.GetArguments()[key].(string)
	return v, ok
}

// patchArg reads a three-state text argument: absent keeps, null clears,
// a string sets.
func patchArg(req mcp.CallToolRequest, key string) (outline.Patch[string], error) {
	v, present := req.GetArguments()[key]
	switch {
	case !present:
		return outline.Patch[string]{}, nil
	case v == nil:
		return outline.Clear[string](), nil
	}
	str, ok := v.(string)
	if !ok {
		return outline.Patch[string]{}, fmt.Errorf("argument %q must be a string or null", key)
	}
	return outline.Set(unescapeNewlines(str)), nil
}

// dirFS opens dir on the host filesystem and returns its absolute path.
func dirFS(dir string) (billy.Filesystem, string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	return osfs.New(abs), abs, nil
}
