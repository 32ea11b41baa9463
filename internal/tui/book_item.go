package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/tui/delegate"
	"github.com/charmbracelet/bubbles/list"
	xansi "github.com/charmbracelet/x/ansi"
)

// BookItem is a book row in the list.
type BookItem struct {
	Book   api.Book
	Cached bool // cover is in the local cache
}

// FilterValue returns the text the list filter matches against.
func (b BookItem) FilterValue() string {
	return fmt.Sprintf("%d %s %s %s", b.Book.ID, b.Book.Name, b.Book.Author, b.Book.Description)
}

// BookItems wraps books for a list.Model.
func BookItems(books []api.Book, cached func(api.Book) bool) []list.Item {
	items := make([]list.Item, len(books))
	for i, b := range books {
		item := BookItem{Book: b}
		if cached != nil {
			item.Cached = cached(b)
		}
		items[i] = item
	}
	return items
}

// NewBookDelegate returns the one-line book renderer.
func NewBookDelegate() delegate.Base {
	return delegate.New(renderBookItem)
}

func renderBookItem(w io.Writer, m list.Model, index int, item list.Item) {
	bi, ok := item.(BookItem)
	if !ok {
		return
	}

	idStr := fmt.Sprintf("%-6d", bi.Book.ID)

	coverMark := " "
	if bi.Book.Cover != "" {
		coverMark = StyleHelp.Render("▣")
		if bi.Cached {
			coverMark = StyleCached.Render("▣")
		}
	}

	// id + gutter + cover mark + spaces
	avail := m.Width() - 6 - 2 - 2 - 2
	if avail < 20 {
		avail = 20
	}
	authorWidth := avail / 3
	title := xansi.Truncate(bi.Book.Name, avail-authorWidth-1, "…")
	author := xansi.Truncate(bi.Book.Author, authorWidth, "…")
	pad := avail - authorWidth - xansi.StringWidth(title)
	if pad < 1 {
		pad = 1
	}

	var s strings.Builder
	if index == m.Index() {
		s.WriteString(StyleHighlight.Render("› " + idStr + " " + title + strings.Repeat(" ", pad) + author))
		s.WriteString(" " + coverMark)
	} else {
		s.WriteString("  " + StyleNormal.Render(idStr) + " " + title + strings.Repeat(" ", pad) + StyleAuthor.Render(author))
		s.WriteString(" " + coverMark)
	}

	_, _ = fmt.Fprint(w, s.String())
}
