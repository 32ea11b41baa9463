package unified

import (
	"context"

	"github.com/blackwell-systems/bookctl/internal/auth"
	"github.com/blackwell-systems/bookctl/internal/route"
	"github.com/blackwell-systems/bookctl/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	loginUsername = iota
	loginPassword
)

type loginDoneMsg struct{ err error }

// LoginModel is the sign-in screen.
type LoginModel struct {
	ctx  context.Context
	auth *auth.Manager
	form tui.Form
}

// NewLoginModel creates the sign-in screen.
func NewLoginModel(ctx context.Context, a *auth.Manager) LoginModel {
	form := tui.NewForm("Sign in", []tui.FormField{
		{Label: "Username", Placeholder: "username", CharLimit: auth.UsernameMaxLen},
		{Label: "Password", Placeholder: "password", CharLimit: auth.PasswordMaxLen, Secret: true},
	})
	form.Subtitle = "Book catalog"
	form.Extra = []tui.ShortcutEntry{{Key: "ctrl+r", Label: "ctrl+r create account"}}
	return LoginModel{ctx: ctx, auth: a, form: form}
}

func (m LoginModel) Init() tea.Cmd {
	return nil
}

func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		if msg.err != nil {
			m.form.SetErr(msg.err)
			return m, nil
		}
		return m, navigate(route.Books)

	case tea.KeyMsg:
		if msg.String() == "ctrl+r" && !m.form.Busy() {
			return m, navigate(route.Register)
		}
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)

	switch {
	case m.form.Canceled():
		m.form.Reset()
		return m, quitApp

	case m.form.Submitted():
		m.form.Reset()
		username := m.form.Value(loginUsername)
		password := m.form.Value(loginPassword)
		if err := auth.ValidateCredentials(username, password); err != nil {
			m.form.SetErr(err)
			return m, cmd
		}
		m.form.SetBusy("Signing in…")
		return m, tea.Batch(cmd, m.submit(username, password))
	}
	return m, cmd
}

func (m LoginModel) submit(username, password string) tea.Cmd {
	ctx, a := m.ctx, m.auth
	return func() tea.Msg {
		return loginDoneMsg{err: a.Login(ctx, username, password)}
	}
}

func (m LoginModel) View() string {
	return m.form.View()
}
