package unified

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type detailClosedMsg struct{}

type bookFetchedMsg struct {
	book *api.Book
	err  error
}

type coverLoadedMsg struct {
	path string
	err  error
}

// Inline cover size in terminal cells.
const (
	coverCols = 24
	coverRows = 12
)

// DetailModel shows one book, refetched by id, with its cover inline when
// the terminal supports images.
type DetailModel struct {
	ctx      context.Context
	deps     Deps
	book     api.Book
	missing  bool
	err      error
	cover    string
	coverErr error
	protocol tui.TerminalImageProtocol
}

// NewDetailModel shows b until the fresh copy arrives.
func NewDetailModel(ctx context.Context, deps Deps, b api.Book) DetailModel {
	return DetailModel{ctx: ctx, deps: deps, book: b, protocol: tui.DetectImageProtocol()}
}

func (m DetailModel) Init() tea.Cmd {
	ctx, lib, id := m.ctx, m.deps.Library, m.book.ID
	return func() tea.Msg {
		b, err := lib.Get(ctx, id)
		return bookFetchedMsg{book: b, err: err}
	}
}

func (m DetailModel) loadCover() tea.Cmd {
	if m.book.Cover == "" || m.deps.Cache == nil {
		return nil
	}
	ctx, c, client, b := m.ctx, m.deps.Cache, m.deps.Client, m.book
	return func() tea.Msg {
		path, err := c.Cover(ctx, client, b)
		return coverLoadedMsg{path: path, err: err}
	}
}

func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case bookFetchedMsg:
		switch {
		case msg.err != nil:
			m.err = msg.err
		case msg.book == nil:
			m.missing = true
		default:
			m.book = *msg.book
		}
		return m, m.loadCover()

	case coverLoadedMsg:
		m.cover, m.coverErr = msg.path, msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q", "enter", "backspace":
			return m, func() tea.Msg { return detailClosedMsg{} }
		}
	}
	return m, nil
}

func (m DetailModel) View() string {
	outerStyle := lipgloss.NewStyle().Padding(2, 4)
	innerPadding := lipgloss.NewStyle().Padding(0, 2, 0, 1)
	label := lipgloss.NewStyle().Foreground(tui.ColorGray).Width(12)

	var s strings.Builder
	s.WriteString(tui.StyleHeader.Render(m.book.Name))
	s.WriteString("\n\n")

	switch {
	case m.missing:
		s.WriteString(tui.StyleError.Render("This book no longer exists."))
		s.WriteString("\n\n")
	case m.err != nil:
		s.WriteString(tui.StyleError.Render(fmt.Sprintf("Could not refresh: %v", m.err)))
		s.WriteString("\n\n")
	}

	row := func(k, v string) {
		s.WriteString(label.Render(k))
		s.WriteString(v)
		s.WriteString("\n")
	}
	row("ID", fmt.Sprintf("%d", m.book.ID))
	row("Author", tui.StyleAuthor.Render(m.book.Author))
	if m.book.Description != "" {
		row("Description", lipgloss.NewStyle().Width(60).Render(m.book.Description))
	}
	if m.book.Cover != "" {
		row("Cover", api.ResolveImageURL(m.deps.Client.BaseURL(), m.book.Cover))
	}

	switch {
	case m.coverErr != nil:
		s.WriteString("\n")
		s.WriteString(tui.StyleError.Render(fmt.Sprintf("Cover unavailable: %v", m.coverErr)))
		s.WriteString("\n")
	case m.cover != "":
		if img := tui.RenderInlineImage(m.cover, m.protocol, coverCols, coverRows); img != "" {
			s.WriteString("\n")
			s.WriteString(img)
			s.WriteString(strings.Repeat("\n", coverRows))
		} else {
			row("Cached", tui.StyleCached.Render(m.cover))
		}
	}

	s.WriteString("\n")
	s.WriteString(tui.RenderFooterBar([]tui.ShortcutEntry{{Key: "", Label: "esc back"}}, ""))
	s.WriteString("\n")

	return outerStyle.Render(tui.StyleBorder.Render(innerPadding.Render(s.String())))
}
