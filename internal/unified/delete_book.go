package unified

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// bookDeletedMsg is emitted when the delete call returns.
type bookDeletedMsg struct {
	book api.Book
	err  error
}

type deleteCanceledMsg struct{}

// DeleteBookModel asks for confirmation and deletes one book.
type DeleteBookModel struct {
	ctx       context.Context
	deps      Deps
	book      api.Book
	busy      bool
	activeCmd string
}

// NewDeleteBookModel creates the confirmation screen for b.
func NewDeleteBookModel(ctx context.Context, deps Deps, b api.Book) DeleteBookModel {
	return DeleteBookModel{ctx: ctx, deps: deps, book: b}
}

func (m DeleteBookModel) Update(msg tea.Msg) (DeleteBookModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.ClearActiveCmdMsg:
		m.activeCmd = ""
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc", "n", "N", "q":
			return m, func() tea.Msg { return deleteCanceledMsg{} }

		case "y", "Y":
			m.busy = true
			m.activeCmd = "y"
			return m, tea.Batch(m.delete(), tui.HighlightCmd())
		}
	}
	return m, nil
}

func (m DeleteBookModel) delete() tea.Cmd {
	ctx, deps, b := m.ctx, m.deps, m.book
	return func() tea.Msg {
		if err := deps.Library.Delete(ctx, b.ID); err != nil {
			return bookDeletedMsg{book: b, err: err}
		}
		if deps.Cache != nil {
			if err := deps.Cache.RemoveCover(b.ID); err != nil {
				deps.Logger.Warn("remove cached cover", zap.Int64("id", b.ID), zap.Error(err))
			}
		}
		return bookDeletedMsg{book: b}
	}
}

func (m DeleteBookModel) View() string {
	outerStyle := lipgloss.NewStyle().Padding(2, 4)
	innerPadding := lipgloss.NewStyle().Padding(0, 2, 0, 1)

	var s strings.Builder
	s.WriteString(warningHeader.Render("Delete book"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("  #%d  %s\n", m.book.ID, tui.StyleHighlight.Render(m.book.Name)))
	s.WriteString(fmt.Sprintf("       %s\n\n", tui.StyleAuthor.Render(m.book.Author)))
	s.WriteString(tui.StyleHelp.Render("  This cannot be undone."))
	s.WriteString("\n\n")

	if m.busy {
		s.WriteString(tui.StyleHighlight.Render("  Deleting…"))
	} else {
		s.WriteString(tui.RenderFooterBar([]tui.ShortcutEntry{
			{Key: "y", Label: "y delete"},
			{Key: "", Label: "n/esc keep"},
		}, m.activeCmd))
	}
	s.WriteString("\n")

	return outerStyle.Render(tui.StyleBorder.Render(innerPadding.Render(s.String())))
}

// warningHeader titles destructive confirmations.
var warningHeader = lipgloss.NewStyle().Foreground(tui.ColorRed).Bold(true)
