package app

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/blackwell-systems/bookctl/internal/cache"
	"github.com/blackwell-systems/bookctl/internal/catalog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.yml>",
		Short: "Create books from a YAML file",
		Long: `Create every book listed in a YAML file, as written by 'bookctl export'.
Ids and covers in the file are ignored; each entry becomes a new book.

Example file:
  - name: Dune
    author: Frank Herbert
    description: Desert planet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}
			books, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			if len(books) == 0 {
				warn("No books in %s", args[0])
				return nil
			}

			var created, failed int
			for i, nb := range books {
				nb.Cover = ""
				if err := catalog.ValidateBook(nb); err != nil {
					warn("entry %d (%q): %v", i+1, nb.Name, err)
					failed++
					continue
				}
				if dryRun {
					fmt.Fprintf(stdout, "  would add %q by %s\n", nb.Name, nb.Author)
					continue
				}
				b, err := client.CreateBook(cmd.Context(), nb)
				if err != nil {
					warn("entry %d (%q): %v", i+1, nb.Name, err)
					failed++
					continue
				}
				logger.Debug("imported", zap.Int64("id", b.ID))
				created++
			}

			if dryRun {
				return nil
			}
			if created > 0 {
				ok("Imported %d book(s)", created)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d entries failed", failed, len(books))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate only, create nothing")
	return cmd
}

func newExportCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "export <file.yml>",
		Short: "Write the book list to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}
			if err := library.Refresh(cmd.Context()); err != nil {
				return err
			}
			books := catalog.Filter{Search: search}.Apply(library.Books())
			if err := catalog.Save(args[0], books); err != nil {
				return err
			}
			ok("Exported %d book(s) to %s", len(books), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Only books matching this text")
	return cmd
}

func newIndexCmd() *cobra.Command {
	var flagOpen bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Generate a local HTML index of the catalog",
		Long: `Generate an index.html file in your cache directory showing every book
with its cover. Covers are downloaded into the cache as needed. Open the
index in any web browser to browse the catalog offline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}
			if err := library.Refresh(cmd.Context()); err != nil {
				return err
			}

			var indexBooks []cache.IndexBook
			for _, b := range library.Books() {
				coverPath, err := cacheMgr.Cover(cmd.Context(), client, b)
				if err != nil {
					warn("Cover for %q unavailable: %v", b.Name, err)
				}
				indexBooks = append(indexBooks, cache.IndexBook{Book: b, CoverPath: coverPath})
			}

			title := "Books"
			if u := authMgr.User(); u != nil {
				title = u.Username + "'s books"
			}
			indexPath, err := cacheMgr.GenerateHTMLIndex(title, indexBooks)
			if err != nil {
				return err
			}
			ok("Index written to %s (%d books)", indexPath, len(indexBooks))

			if flagOpen {
				return openFile(indexPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagOpen, "open", false, "Open the index in the default browser")
	return cmd
}

func openFile(path string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", path)
	case "windows":
		c = exec.Command("cmd", "/c", "start", "", path)
	default:
		c = exec.Command("xdg-open", path)
	}
	return c.Start()
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local cover cache",
	}
	cmd.AddCommand(newCachePruneCmd())
	return cmd
}

func newCachePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove cached covers of books that no longer exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}
			if err := library.Refresh(cmd.Context()); err != nil {
				return err
			}
			var keep []int64
			for _, b := range library.Books() {
				keep = append(keep, b.ID)
			}
			n, err := cacheMgr.Prune(keep)
			if err != nil {
				return err
			}
			ok("Removed %d cached cover(s)", n)
			return nil
		},
	}
}
