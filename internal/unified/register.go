package unified

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/bookctl/internal/auth"
	"github.com/blackwell-systems/bookctl/internal/route"
	"github.com/blackwell-systems/bookctl/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	registerUsername = iota
	registerPassword
	registerConfirm
)

type registerDoneMsg struct {
	username string
	err      error
}

// RegisterModel is the sign-up screen. A successful registration does not
// sign in; it returns to the login screen.
type RegisterModel struct {
	ctx  context.Context
	auth *auth.Manager
	form tui.Form
}

// NewRegisterModel creates the sign-up screen.
func NewRegisterModel(ctx context.Context, a *auth.Manager) RegisterModel {
	form := tui.NewForm("Create account", []tui.FormField{
		{Label: "Username", Placeholder: "letters, digits, _", CharLimit: auth.UsernameMaxLen},
		{Label: "Password", Placeholder: fmt.Sprintf("at least %d characters", auth.PasswordMinLen), CharLimit: auth.PasswordMaxLen, Secret: true},
		{Label: "Confirm", Placeholder: "repeat password", CharLimit: auth.PasswordMaxLen, Secret: true},
	})
	form.ConfirmPrompt = "Create this account?"
	return RegisterModel{ctx: ctx, auth: a, form: form}
}

func (m RegisterModel) Init() tea.Cmd {
	return nil
}

func (m RegisterModel) Update(msg tea.Msg) (RegisterModel, tea.Cmd) {
	if done, ok := msg.(registerDoneMsg); ok {
		if done.err != nil {
			m.form.SetErr(done.err)
			return m, nil
		}
		return m, navigateWithNotice(route.Login, fmt.Sprintf("Account %s created, please sign in", done.username), false)
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)

	switch {
	case m.form.Canceled():
		m.form.Reset()
		return m, navigate(route.Login)

	case m.form.Submitted():
		m.form.Reset()
		username := m.form.Value(registerUsername)
		password := m.form.Value(registerPassword)
		confirm := m.form.Value(registerConfirm)
		if err := auth.ValidateRegistration(username, password, confirm); err != nil {
			m.form.SetErr(err)
			return m, cmd
		}
		m.form.SetBusy("Creating account…")
		return m, tea.Batch(cmd, m.submit(username, password))
	}
	return m, cmd
}

func (m RegisterModel) submit(username, password string) tea.Cmd {
	ctx, a := m.ctx, m.auth
	return func() tea.Msg {
		_, err := a.Register(ctx, username, password)
		return registerDoneMsg{username: username, err: err}
	}
}

func (m RegisterModel) View() string {
	return m.form.View()
}
