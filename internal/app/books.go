package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/catalog"
	"github.com/blackwell-systems/bookctl/internal/tui"
	"github.com/blackwell-systems/bookctl/internal/util"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats for list and get.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}

func writeStructured(format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
}

func newListCmd() *cobra.Command {
	var (
		search string
		author string
		format string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List books",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}
			if err := library.Refresh(cmd.Context()); err != nil {
				return err
			}
			books := catalog.Filter{Search: search, Author: author}.Apply(library.Books())

			if format != formatTable {
				return writeStructured(format, books)
			}

			if len(books) == 0 {
				fmt.Fprintln(stdout, "No books found.")
				return nil
			}
			header("── books  (%d)", len(books))
			for _, b := range books {
				coverMark := ""
				if b.Cover != "" {
					coverMark = color.GreenString(" ▣")
					if !cacheMgr.HasCover(b.ID, b.Cover) {
						coverMark = " ▣"
					}
				}
				fmt.Fprintf(stdout, "  %-6s  %s  %s%s\n",
					color.WhiteString(strconv.FormatInt(b.ID, 10)),
					b.Name,
					color.CyanString(b.Author),
					coverMark,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Search name, author and description")
	cmd.Flags().StringVar(&author, "author", "", "Only books by this author")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, json or yaml")
	return cmd
}

func newGetCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := library.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if b == nil {
				return fmt.Errorf("book %d not found", id)
			}

			if format != formatTable {
				return writeStructured(format, b)
			}
			printBook(b)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table, json or yaml")
	return cmd
}

func printBook(b *api.Book) {
	header("Book #%d", b.ID)
	printField("name", b.Name)
	printField("author", b.Author)
	if b.Description != "" {
		printField("description", b.Description)
	}
	if b.Cover != "" {
		printField("cover", api.ResolveImageURL(client.BaseURL(), b.Cover))
		if cacheMgr.HasCover(b.ID, b.Cover) {
			printField("cached", color.GreenString(cacheMgr.CoverPath(b.ID, b.Cover)))
		}
	}
}

var (
	// progressWanted reports whether uploads draw a progress bar.
	progressWanted = func() bool { return util.IsTTY() && !flagNoInteractive }
	showProgress   = tui.ShowProgress
)

// uploadCover uploads the file at path through draft, drawing a progress
// bar when attached to a terminal.
func uploadCover(ctx context.Context, draft *catalog.CoverDraft, path string) (string, error) {
	path = util.ExpandHome(path)
	if !progressWanted() {
		return draft.Upload(ctx, path)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	// ShowProgress returns early on ctrl+c while the upload keeps going, so
	// the result only crosses back once op has finished.
	result := make(chan string, 1)
	err = showProgress("Uploading "+fi.Name(), fi.Size(), func(wrap func(io.Reader) io.Reader) error {
		draft.Progress = func(r io.Reader, _ int64) io.Reader { return wrap(r) }
		stored, err := draft.Upload(ctx, path)
		result <- stored
		return err
	})
	if err != nil {
		return "", err
	}
	return <-result, nil
}

func newAddCmd() *cobra.Command {
	var (
		name        string
		author      string
		description string
		coverFile   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Long: `Add a book to the catalog.

The cover, if given, must be a PNG or JPEG of at most 10 MiB. It is
uploaded first and the stored path saved with the book.

Examples:
  bookctl add --name Dune --author "Frank Herbert"
  bookctl add --name Dune --author "Frank Herbert" --cover ~/covers/dune.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}

			nb := api.NewBook{
				Name:        strings.TrimSpace(name),
				Author:      strings.TrimSpace(author),
				Description: strings.TrimSpace(description),
			}
			if err := catalog.ValidateBook(nb); err != nil {
				return err
			}

			draft := catalog.NewCoverDraft(client, nil)
			defer draft.Discard()
			if coverFile != "" {
				if _, err := uploadCover(cmd.Context(), draft, coverFile); err != nil {
					return fmt.Errorf("uploading cover: %w", err)
				}
			}
			nb.Cover = draft.Resolve()

			created, err := library.Create(cmd.Context(), nb)
			if err != nil {
				return err
			}
			ok("Added %q (id %d)", created.Name, created.ID)
			if err := library.RefreshErr(); err != nil {
				warn("Could not reload the list: %v", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Book name (required)")
	cmd.Flags().StringVar(&author, "author", "", "Author (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&coverFile, "cover", "", "Cover image file (PNG or JPEG)")
	return cmd
}

func newEditCmd() *cobra.Command {
	var (
		name        string
		author      string
		description string
		coverFile   string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a book",
		Long: `Change fields of a book. Only the flags given are sent; other fields
keep their current values.

Examples:
  bookctl edit 3 --description "Second edition"
  bookctl edit 3 --cover ~/covers/new.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch catalog.Patch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = catalog.String(strings.TrimSpace(name))
			}
			if flags.Changed("author") {
				patch.Author = catalog.String(strings.TrimSpace(author))
			}
			if flags.Changed("description") {
				patch.Description = catalog.String(strings.TrimSpace(description))
			}
			if patch.Empty() && coverFile == "" {
				return fmt.Errorf("nothing to change (use --name, --author, --description or --cover)")
			}
			if err := catalog.ValidatePatch(patch); err != nil {
				return err
			}

			if coverFile != "" {
				draft := catalog.NewCoverDraft(client, nil)
				defer draft.Discard()
				stored, err := uploadCover(cmd.Context(), draft, coverFile)
				if err != nil {
					return fmt.Errorf("uploading cover: %w", err)
				}
				patch.Cover = catalog.String(stored)
			}

			if err := library.Update(cmd.Context(), id, patch); err != nil {
				return err
			}
			if patch.Cover != nil {
				if err := cacheMgr.RemoveCover(id); err != nil {
					warn("Could not drop the cached cover: %v", err)
				}
			}
			ok("Updated book %d", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&author, "author", "", "New author")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&coverFile, "cover", "", "New cover image file (PNG or JPEG)")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
		Long: `Delete a book from the catalog. This cannot be undone.

Without --yes the book is shown and confirmation asked on a terminal;
non-interactive use requires --yes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if !skipConfirm {
				if !util.IsStdinTTY() {
					return fmt.Errorf("refusing to delete without --yes in non-interactive mode")
				}
				b, err := library.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if b == nil {
					return fmt.Errorf("book %d not found", id)
				}
				printBook(b)
				fmt.Fprint(stderr, color.YellowString("Delete this book? (y/N): "))
				answer, _ := promptLine()
				if answer != "y" && answer != "Y" && answer != "yes" {
					fmt.Fprintln(stdout, "Cancelled.")
					return nil
				}
			}

			if err := library.Delete(cmd.Context(), id); err != nil {
				return err
			}
			if err := cacheMgr.RemoveCover(id); err != nil {
				warn("Could not drop the cached cover: %v", err)
			}
			ok("Deleted book %d", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a cover image and print its stored path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}
			draft := catalog.NewCoverDraft(client, nil)
			stored, err := uploadCover(cmd.Context(), draft, args[0])
			if err != nil {
				return err
			}
			ok("Uploaded %s", stored)
			fmt.Fprintln(stdout, api.ResolveImageURL(client.BaseURL(), stored))
			return nil
		},
	}
}

func newCoverCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "cover <id>",
		Short: "Download a book's cover into the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSignedIn(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := library.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if b == nil {
				return fmt.Errorf("book %d not found", id)
			}
			if b.Cover == "" {
				return fmt.Errorf("book %d has no cover", id)
			}

			path, err := cacheMgr.Cover(cmd.Context(), client, *b)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, path)

			if show && util.IsTTY() {
				if img := tui.RenderInlineImage(path, tui.DetectImageProtocol(), 30, 15); img != "" {
					fmt.Fprintln(stdout, img)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Draw the cover inline (kitty, Ghostty, WezTerm, iTerm2)")
	return cmd
}
