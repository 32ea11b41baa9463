package unified

import tea "github.com/charmbracelet/bubbletea"

// NavigateMsg asks the shell to move to Path through the router. Notice is
// shown above the screen that ends up rendering.
type NavigateMsg struct {
	Path      string
	Replace   bool
	Notice    string
	NoticeErr bool
}

// QuitAppMsg is emitted when the entire application should quit
type QuitAppMsg struct{}

// sessionExpiredMsg arrives once per session-expired event from the client.
type sessionExpiredMsg struct{}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path} }
}

func navigateWithNotice(path, notice string, isErr bool) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path, Notice: notice, NoticeErr: isErr} }
}

func quitApp() tea.Msg { return QuitAppMsg{} }
