package unified

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/catalog"
	"github.com/blackwell-systems/bookctl/internal/route"
	"github.com/blackwell-systems/bookctl/internal/tui"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// booksMode is the sub-screen of the book listing.
type booksMode int

const (
	booksBrowsing booksMode = iota // list
	booksEditing                   // add/edit form
	booksDeleting                  // delete confirmation
	booksViewing                   // detail
)

type booksLoadedMsg struct {
	books []api.Book
	err   error
}

// BooksModel is the protected listing screen together with the add, edit,
// delete and detail screens layered over it.
type BooksModel struct {
	ctx  context.Context
	deps Deps
	keys tui.BookKeys

	mode   booksMode
	list   list.Model
	form   BookFormModel
	del    DeleteBookModel
	detail DetailModel

	loading   bool
	status    string
	statusErr bool
	activeCmd string
	width     int
	height    int
}

// NewBooksModel creates the listing with the library's current books.
func NewBooksModel(ctx context.Context, deps Deps) BooksModel {
	l := list.New(nil, tui.NewBookDelegate(), 0, 0)
	l.Title = "Books"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = tui.StyleHeader
	l.Styles.PaginationStyle = tui.StyleHelp
	l.Styles.HelpStyle = tui.StyleHelp
	l.SetStatusBarItemName("book", "books")

	keys := tui.NewBookKeys()
	l.AdditionalShortHelpKeys = keys.ShortHelp
	l.AdditionalFullHelpKeys = keys.FullHelp

	m := BooksModel{ctx: ctx, deps: deps, keys: keys, list: l}
	m.setBooks(deps.Library.Books())
	return m
}

func (m BooksModel) Init() tea.Cmd {
	return m.refresh()
}

// refresh returns the command that refetches the list.
func (m *BooksModel) refresh() tea.Cmd {
	m.loading = true
	m.list.Title = "Books (loading…)"
	lib, ctx := m.deps.Library, m.ctx
	return tea.Batch(m.list.StartSpinner(), func() tea.Msg {
		err := lib.Refresh(ctx)
		return booksLoadedMsg{books: lib.Books(), err: err}
	})
}

func (m *BooksModel) setBooks(books []api.Book) {
	var cached func(api.Book) bool
	if c := m.deps.Cache; c != nil {
		cached = func(b api.Book) bool { return b.Cover != "" && c.HasCover(b.ID, b.Cover) }
	}
	m.list.SetItems(tui.BookItems(books, cached))
}

func (m *BooksModel) setStatus(text string, isErr bool) {
	m.status, m.statusErr = text, isErr
}

func (m *BooksModel) resize() {
	h, v := tui.StyleBorder.GetFrameSize()
	// status and footer lines
	m.list.SetSize(m.width-h, m.height-v-2)
}

// selected returns the highlighted book, preferring the library's copy,
// which may be newer than the row.
func (m BooksModel) selected() (api.Book, bool) {
	item, ok := m.list.SelectedItem().(tui.BookItem)
	if !ok {
		return api.Book{}, false
	}
	if b := catalog.ByID(m.deps.Library.Books(), item.Book.ID); b != nil {
		return *b, true
	}
	return item.Book, true
}

func (m BooksModel) Update(msg tea.Msg) (BooksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tui.ClearActiveCmdMsg:
		m.activeCmd = ""

	case booksLoadedMsg:
		m.loading = false
		m.list.Title = "Books"
		m.list.StopSpinner()
		m.setBooks(msg.books)
		if msg.err != nil {
			m.deps.Logger.Warn("refresh failed", zap.Error(msg.err))
			m.setStatus(fmt.Sprintf("Could not load books: %v", msg.err), true)
		}
		return m, nil

	case bookFormDoneMsg:
		m.mode = booksBrowsing
		m.afterMutation(msg.notice, msg.saved)
		return m, nil

	case bookDeletedMsg:
		m.mode = booksBrowsing
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Delete failed: %v", msg.err), true)
			return m, nil
		}
		m.afterMutation(fmt.Sprintf("Deleted %q", msg.book.Name), true)
		return m, nil

	case deleteCanceledMsg, detailClosedMsg:
		m.mode = booksBrowsing
		return m, nil
	}

	switch m.mode {
	case booksEditing:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	case booksDeleting:
		var cmd tea.Cmd
		m.del, cmd = m.del.Update(msg)
		return m, cmd
	case booksViewing:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if model, cmd, handled := m.handleKey(msg); handled {
			return model, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// afterMutation shows the outcome of a mutation. The library has already
// refetched; a refetch failure is reported without undoing the mutation.
func (m *BooksModel) afterMutation(notice string, changed bool) {
	if !changed {
		m.setStatus(notice, false)
		return
	}
	m.setBooks(m.deps.Library.Books())
	if err := m.deps.Library.RefreshErr(); err != nil {
		m.setStatus(fmt.Sprintf("%s (list may be stale: %v)", notice, err), true)
		return
	}
	m.setStatus(notice, false)
}

func (m BooksModel) handleKey(msg tea.KeyMsg) (BooksModel, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, quitApp, true

	case key.Matches(msg, m.keys.Refresh):
		if m.loading {
			return m, nil, true
		}
		m.setStatus("", false)
		m.activeCmd = "r"
		return m, tea.Batch(m.refresh(), tui.HighlightCmd()), true

	case key.Matches(msg, m.keys.Add):
		m.mode = booksEditing
		m.setStatus("", false)
		m.form = NewBookFormModel(m.ctx, m.deps, nil)
		return m, m.form.Init(), true

	case key.Matches(msg, m.keys.Edit):
		b, ok := m.selected()
		if !ok {
			return m, nil, true
		}
		m.mode = booksEditing
		m.setStatus("", false)
		m.form = NewBookFormModel(m.ctx, m.deps, &b)
		return m, m.form.Init(), true

	case key.Matches(msg, m.keys.Delete):
		b, ok := m.selected()
		if !ok {
			return m, nil, true
		}
		m.mode = booksDeleting
		m.setStatus("", false)
		m.del = NewDeleteBookModel(m.ctx, m.deps, b)
		return m, nil, true

	case key.Matches(msg, m.keys.Details):
		b, ok := m.selected()
		if !ok {
			return m, nil, true
		}
		m.mode = booksViewing
		m.detail = NewDetailModel(m.ctx, m.deps, b)
		return m, m.detail.Init(), true

	case key.Matches(msg, m.keys.Logout):
		m.deps.Auth.Logout()
		return m, navigateWithNotice(route.Login, "Signed out", false), true
	}
	return m, nil, false
}

func (m BooksModel) View() string {
	switch m.mode {
	case booksEditing:
		return m.form.View()
	case booksDeleting:
		return m.del.View()
	case booksViewing:
		return m.detail.View()
	}

	footer := tui.RenderFooterBar([]tui.ShortcutEntry{
		{Key: "a", Label: "a add"},
		{Key: "e", Label: "e edit"},
		{Key: "d", Label: "d delete"},
		{Key: "r", Label: "r refresh"},
		{Key: "", Label: "L log out"},
		{Key: "", Label: "q quit"},
	}, m.activeCmd)

	status := tui.RenderNotice(m.status, m.statusErr)
	if user := m.deps.Auth.User(); user != nil && status == "" {
		status = tui.StyleHelp.Render("signed in as " + user.Username)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		tui.StyleBorder.Render(m.list.View()),
		" "+status,
		footer,
	)
}
