// Package mcpserver exposes a shelf of books as MCP tools over stdio.
//
// Every tool call runs under one mutex, so each call is an exclusive
// load, mutate, save unit against the selected book.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agentic-research/outline/internal/outline"
	"github.com/agentic-research/outline/internal/service"
	"github.com/agentic-research/outline/internal/store"
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "outline"

const instructions = `Create and manage action-ready checklists.

Intended flow: capture knowledge as content nodes (one verifiable action each), organize under section nodes, export via ` + "`checklist`" + ` when executing tasks.

Tools: ` + "`shelf` → `select_book` → `toc` → `node_create`/`node_update`/`node_move`, `checklist`. `init`" + ` for a new book.`

var errNoBookSelected = errors.New("no book selected: use `shelf` to list books and `select_book` to choose one")

// Options tune tool defaults. The zero value is usable.
type Options struct {
	Version         string
	DefaultMaxDepth int
	// OmitPlaceholders drops placeholder lines from Markdown checklists
	// unless a call asks for them.
	OmitPlaceholders bool
	ExportDir        string
}

// Server holds the shelf and the currently selected book.
type Server struct {
	shelf  store.Shelf
	opts   Options
	logger *log.Logger

	mu       sync.Mutex
	selected string

	mcp *server.MCPServer
}

// New builds the server and registers every tool.
func New(shelf store.Shelf, opts Options, logger *log.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.DefaultMaxDepth == 0 {
		opts.DefaultMaxDepth = 4
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	s := &Server{shelf: shelf, opts: opts, logger: logger}
	s.mcp = server.NewMCPServer(
		serverName,
		opts.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range s.tools() {
		s.mcp.AddTool(t.tool, s.wrap(t.tool.Name, t.run))
	}
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio", "version", s.opts.Version)
	return server.ServeStdio(s.mcp, server.WithErrorLogger(s.logger.StandardLog()))
}

// Selected returns the slug of the selected book, or "".
func (s *Server) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (string, error)

type toolDef struct {
	tool mcp.Tool
	run  toolFunc
}

// wrap serializes calls and turns errors into tool-result errors.
func (s *Server) wrap(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.logger.Debug("tool call", "tool", name, "book", s.selected)
		text, err := fn(ctx, req)
		if err != nil {
			s.logger.Warn("tool failed", "tool", name, "book", s.selected, "err", err)
			return mcp.NewToolResultError(errorText(err)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func errorText(err error) string {
	var se *store.Error
	switch {
	case errors.Is(err, outline.ErrNotFound):
		return fmt.Sprintf("%v. Run `toc` to see available IDs.", err)
	case errors.As(err, &se):
		return fmt.Sprintf("storage failure: %v", err)
	default:
		return err.Error()
	}
}

// current returns the service for the selected book. Callers hold s.mu.
func (s *Server) current() (*service.BookService, error) {
	if s.selected == "" {
		return nil, errNoBookSelected
	}
	return service.New(s.shelf.Book(s.selected)), nil
}
