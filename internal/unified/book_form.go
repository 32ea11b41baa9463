package unified

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/catalog"
	"github.com/blackwell-systems/bookctl/internal/tui"
	"github.com/blackwell-systems/bookctl/internal/util"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const (
	bookFieldName = iota
	bookFieldAuthor
	bookFieldDescription
	bookFieldCover
)

// bookFormDoneMsg closes the form. saved is false when nothing was sent.
type bookFormDoneMsg struct {
	saved  bool
	notice string
}

type bookSaveFailedMsg struct{ err error }

// BookFormModel adds a book, or edits one when editing is set.
type BookFormModel struct {
	ctx     context.Context
	deps    Deps
	editing *api.Book
	draft   *catalog.CoverDraft
	form    tui.Form
}

// NewBookFormModel creates the form. A nil existing book means add.
func NewBookFormModel(ctx context.Context, deps Deps, existing *api.Book) BookFormModel {
	var name, author, description string
	title := "Add book"
	coverHint := "path to a .png or .jpg (optional)"
	if existing != nil {
		name, author, description = existing.Name, existing.Author, existing.Description
		title = fmt.Sprintf("Edit book #%d", existing.ID)
		if existing.Cover != "" {
			coverHint = "keep current cover"
		}
	}

	form := tui.NewForm(title, []tui.FormField{
		{Label: "Name", Value: name, CharLimit: catalog.NameMaxLen},
		{Label: "Author", Value: author, CharLimit: catalog.AuthorMaxLen},
		{Label: "Description", Value: description, CharLimit: catalog.DescriptionMaxLen},
		{Label: "Cover file", Placeholder: coverHint},
	})
	form.ConfirmPrompt = "Save book?"
	if existing != nil && existing.Cover != "" {
		form.Subtitle = "cover: " + existing.Cover
	}

	return BookFormModel{
		ctx:     ctx,
		deps:    deps,
		editing: existing,
		draft:   catalog.NewCoverDraft(deps.Client, existing),
		form:    form,
	}
}

func (m BookFormModel) Init() tea.Cmd {
	return nil
}

func (m BookFormModel) Update(msg tea.Msg) (BookFormModel, tea.Cmd) {
	if failed, ok := msg.(bookSaveFailedMsg); ok {
		m.form.SetErr(failed.err)
		return m, nil
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)

	switch {
	case m.form.Canceled():
		m.form.Reset()
		m.draft.Discard()
		return m, func() tea.Msg { return bookFormDoneMsg{} }

	case m.form.Submitted():
		m.form.Reset()
		save, err := m.prepare()
		if err != nil {
			m.form.SetErr(err)
			return m, cmd
		}
		if save == nil {
			m.draft.Discard()
			return m, func() tea.Msg { return bookFormDoneMsg{notice: "No changes"} }
		}
		if m.form.Value(bookFieldCover) != "" {
			m.form.SetBusy("Uploading cover…")
		} else {
			m.form.SetBusy("Saving…")
		}
		return m, tea.Batch(cmd, save)
	}
	return m, cmd
}

// prepare validates the form and returns the command that saves it, or nil
// when an edit changes nothing.
func (m BookFormModel) prepare() (tea.Cmd, error) {
	name := m.form.Value(bookFieldName)
	author := m.form.Value(bookFieldAuthor)
	description := m.form.Value(bookFieldDescription)
	coverPath := util.ExpandHome(m.form.Value(bookFieldCover))

	if coverPath != "" {
		check, err := catalog.CheckFile(coverPath)
		if err != nil {
			return nil, err
		}
		if err := check.Err(); err != nil {
			return nil, err
		}
	}

	ctx, lib, draft, logger := m.ctx, m.deps.Library, m.draft, m.deps.Logger
	upload := func() error {
		if coverPath == "" {
			return nil
		}
		_, err := draft.Upload(ctx, coverPath)
		return err
	}

	if m.editing == nil {
		nb := api.NewBook{Name: name, Author: author, Description: description}
		if err := catalog.ValidateBook(nb); err != nil {
			return nil, err
		}
		return func() tea.Msg {
			if err := upload(); err != nil {
				return bookSaveFailedMsg{err: err}
			}
			nb.Cover = draft.Resolve()
			created, err := lib.Create(ctx, nb)
			if err != nil {
				return bookSaveFailedMsg{err: err}
			}
			draft.Discard()
			logger.Info("book created", zap.Int64("id", created.ID))
			return bookFormDoneMsg{saved: true, notice: fmt.Sprintf("Added %q", created.Name)}
		}, nil
	}

	id := m.editing.ID
	patch := changedFields(*m.editing, name, author, description)
	if err := catalog.ValidatePatch(patch); err != nil {
		return nil, err
	}
	if patch.Empty() && coverPath == "" {
		return nil, nil
	}
	return func() tea.Msg {
		if err := upload(); err != nil {
			return bookSaveFailedMsg{err: err}
		}
		if coverPath != "" {
			patch.Cover = catalog.String(draft.Resolve())
		}
		if err := lib.Update(ctx, id, patch); err != nil {
			return bookSaveFailedMsg{err: err}
		}
		draft.Discard()
		logger.Info("book updated", zap.Int64("id", id))
		return bookFormDoneMsg{saved: true, notice: fmt.Sprintf("Updated book #%d", id)}
	}, nil
}

// changedFields builds a patch holding only the values that differ from b.
func changedFields(b api.Book, name, author, description string) catalog.Patch {
	var p catalog.Patch
	if name != b.Name {
		p.Name = catalog.String(name)
	}
	if author != b.Author {
		p.Author = catalog.String(author)
	}
	if description != b.Description {
		p.Description = catalog.String(description)
	}
	return p
}

func (m BookFormModel) View() string {
	return m.form.View()
}
