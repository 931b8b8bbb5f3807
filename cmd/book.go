package cmd

import (
	"fmt"
	"os"

	"github.com/agentic-research/outline/api"
	"github.com/agentic-research/outline/internal/codec"
	"github.com/agentic-research/outline/internal/outline"
	"github.com/agentic-research/outline/internal/service"
	"github.com/agentic-research/outline/internal/store"
	"github.com/spf13/cobra"
)

var (
	tocSubtree string

	exportFormat         string
	exportSubtree        string
	exportNoPlaceholders bool
	exportOutput         string

	querySubtree string
)

func init() {
	tocCmd.Flags().StringVar(&tocSubtree, "subtree", "", "Limit to one section (position, ID or title)")

	f := exportCmd.Flags()
	f.StringVarP(&exportFormat, "format", "f", "markdown", "Output format: markdown or json")
	f.StringVar(&exportSubtree, "subtree", "", "Export one section (position, ID or title)")
	f.BoolVar(&exportNoPlaceholders, "no-placeholders", false, "Omit placeholder fill-in lines")
	f.StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")

	queryCmd.Flags().StringVar(&querySubtree, "subtree", "", "Query one section (position, ID or title)")

	rootCmd.AddCommand(tocCmd, exportCmd, importCmd, queryCmd)
}

var tocCmd = &cobra.Command{
	Use:   "toc <book>",
	Short: "Print a book's table of contents with positional IDs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.ErrOrStderr(), nil)
		if err != nil {
			return err
		}
		defer env.close()

		b, err := readBook(env.shelf, args[0])
		if err != nil {
			return err
		}
		nodes := b.Nodes()
		if tocSubtree != "" {
			id, err := b.Resolve(tocSubtree)
			if err != nil {
				return err
			}
			nodes = b.Subtree(id)
		}
		if len(nodes) == 0 {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Book is empty.")
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), codec.RenderTOC(b, nodes))
		return err
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <book>",
	Short: "Render a book as a Markdown checklist or a JSON tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.ErrOrStderr(), nil)
		if err != nil {
			return err
		}
		defer env.close()

		b, err := readBook(env.shelf, args[0])
		if err != nil {
			return err
		}
		root, err := resolveRoot(b, exportSubtree)
		if err != nil {
			return err
		}

		var content string
		switch exportFormat {
		case "markdown":
			include := env.cfg.IncludePlaceholders && !exportNoPlaceholders
			content, err = codec.RenderMarkdown(b, include, root)
		case "json":
			var tree *api.Tree
			if tree, err = codec.Export(b, root); err == nil {
				content, err = codec.RenderJSON(tree)
			}
		default:
			return fmt.Errorf("unknown format %q: use markdown or json", exportFormat)
		}
		if err != nil {
			return err
		}

		if exportOutput == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), content)
			return err
		}
		if err := os.WriteFile(exportOutput, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOutput, err)
		}
		env.logger.Info("exported", "book", args[0], "path", exportOutput, "format", exportFormat)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <book> <file.json>",
	Short: "Create or replace a book from an exported JSON tree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, path := args[0], args[1]
		if err := store.ValidateSlug(slug); err != nil {
			return err
		}
		env, err := openEnv(cmd.ErrOrStderr(), nil)
		if err != nil {
			return err
		}
		defer env.close()

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tree, err := codec.DecodeTree(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		b, err := codec.Import(tree)
		if err != nil {
			return err
		}
		if err := service.New(env.shelf.Book(slug)).SaveBook(b); err != nil {
			return err
		}
		env.logger.Info("book imported", "book", slug, "path", path, "nodes", b.NodeCount())
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported '%s': %d nodes\n", tree.Title, b.NodeCount())
		return err
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <book> <jsonpath>",
	Short: "Evaluate a JSONPath expression against a book's exported tree",
	Example: `  outline query dev '$..placeholder'
  outline query dev '$.nodes[*].title'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.ErrOrStderr(), nil)
		if err != nil {
			return err
		}
		defer env.close()

		b, err := readBook(env.shelf, args[0])
		if err != nil {
			return err
		}
		root, err := resolveRoot(b, querySubtree)
		if err != nil {
			return err
		}
		tree, err := codec.Export(b, root)
		if err != nil {
			return err
		}
		matches, err := codec.Query(tree, args[1])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), codec.FormatMatches(matches))
		return err
	},
}

func readBook(shelf store.Shelf, slug string) (*outline.Book, error) {
	if err := store.ValidateSlug(slug); err != nil {
		return nil, err
	}
	b, err := service.New(shelf.Book(slug)).ReadTree()
	if err != nil {
		return nil, fmt.Errorf("book %q: %w", slug, err)
	}
	return b, nil
}

func resolveRoot(b *outline.Book, ref string) (*outline.NodeID, error) {
	if ref == "" {
		return nil, nil
	}
	id, err := b.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
