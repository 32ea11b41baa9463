package unified

import (
	"context"
	"fmt"
	"sync"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/auth"
	"github.com/blackwell-systems/bookctl/internal/cache"
	"github.com/blackwell-systems/bookctl/internal/catalog"
	"github.com/blackwell-systems/bookctl/internal/logging"
	"github.com/blackwell-systems/bookctl/internal/route"
	"github.com/blackwell-systems/bookctl/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Deps are the services the screens drive.
type Deps struct {
	Auth    *auth.Manager
	Library *catalog.Library
	Client  *api.Client
	Router  *route.Router
	Cache   *cache.Manager // optional
	Logger  *zap.Logger
}

// Model is the application shell. It owns the current screen and lets the
// router decide which one that is.
type Model struct {
	ctx    context.Context
	deps   Deps
	logger *zap.Logger

	route  string
	width  int
	height int

	notice    string
	noticeErr bool
	err       error

	login    LoginModel
	register RegisterModel
	books    BooksModel

	expired     chan struct{}
	stop        chan struct{} // closed by Close
	closeOnce   *sync.Once
	unsubscribe func()
}

// New builds the shell and subscribes it to session-expired events. Call
// Close when the program has exited.
func New(ctx context.Context, deps Deps) Model {
	expired := make(chan struct{}, 1)
	unsubscribe := deps.Client.OnSessionExpired(func(context.Context) {
		select {
		case expired <- struct{}{}:
		default:
			// one pending signal is enough; RedirectToLogin is idempotent
		}
	})
	logger := logging.OrNop(deps.Logger).Named("tui")
	deps.Logger = logger
	return Model{
		ctx:         ctx,
		deps:        deps,
		logger:      logger,
		expired:     expired,
		stop:        make(chan struct{}),
		closeOnce:   &sync.Once{},
		unsubscribe: unsubscribe,
	}
}

// Close drops the session-expired subscription and releases the pending
// expiry wait. Safe to call more than once.
func (m Model) Close() {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		close(m.stop)
	})
}

// Route returns the route currently rendered.
func (m Model) Route() string {
	return m.route
}

func waitForExpiry(ch, stop <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ch:
			return sessionExpiredMsg{}
		case <-stop:
			return nil
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForExpiry(m.expired, m.stop),
		navigate(route.Root),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.updateCurrentView(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.updateCurrentView(msg)

	case NavigateMsg:
		return m.handleNavigation(msg)

	case sessionExpiredMsg:
		wait := waitForExpiry(m.expired, m.stop)
		if !m.deps.Router.RedirectToLogin() {
			return m, wait
		}
		m.logger.Info("session expired, back to login")
		m.notice, m.noticeErr = api.MsgAuthExpired, true
		return m, tea.Batch(wait, m.enter(route.Login))

	case QuitAppMsg:
		return m, tea.Quit

	default:
		return m.updateCurrentView(msg)
	}
}

func (m Model) handleNavigation(msg NavigateMsg) (tea.Model, tea.Cmd) {
	move := m.deps.Router.Navigate
	if msg.Replace {
		move = m.deps.Router.Replace
	}
	target, err := move(msg.Path)
	if err != nil {
		m.logger.Error("navigation failed", zap.String("path", msg.Path), zap.Error(err))
		m.err = err
		return m, nil
	}
	m.notice, m.noticeErr = msg.Notice, msg.NoticeErr
	return m, m.enter(target)
}

// enter builds a fresh screen for path.
func (m *Model) enter(path string) tea.Cmd {
	m.route = path
	size := tea.WindowSizeMsg{Width: m.width, Height: m.height}

	switch path {
	case route.Login:
		m.login = NewLoginModel(m.ctx, m.deps.Auth)
		return m.login.Init()
	case route.Register:
		m.register = NewRegisterModel(m.ctx, m.deps.Auth)
		return m.register.Init()
	case route.Books:
		m.books = NewBooksModel(m.ctx, m.deps)
		m.books, _ = m.books.Update(size)
		return m.books.Init()
	}
	return nil
}

func (m Model) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.route {
	case route.Login:
		m.login, cmd = m.login.Update(msg)
	case route.Register:
		m.register, cmd = m.register.Update(msg)
	case route.Books:
		m.books, cmd = m.books.Update(msg)
	}

	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return tui.RenderNotice(fmt.Sprintf("%v", m.err), true) + "\n"
	}

	var body string
	switch m.route {
	case route.Login:
		body = m.login.View()
	case route.Register:
		body = m.register.View()
	case route.Books:
		body = m.books.View()
	default:
		return ""
	}

	if n := tui.RenderNotice(m.notice, m.noticeErr); n != "" {
		return "  " + n + "\n" + body
	}
	return body
}

// Run starts the shell on the alternate screen and blocks until it exits.
func Run(ctx context.Context, deps Deps) error {
	m := New(ctx, deps)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
