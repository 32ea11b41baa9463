package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FormField describes one text input of a Form.
type FormField struct {
	Label       string
	Placeholder string
	Value       string
	CharLimit   int
	Secret      bool // mask input (passwords)
}

// Form is a vertical stack of labelled text inputs with tab navigation,
// an optional Y/n confirmation, and an error line. It is embedded by the
// login, register and book screens.
type Form struct {
	Title    string
	Subtitle string
	// ConfirmPrompt, when set, is asked before a submit is reported.
	ConfirmPrompt string
	// Extra shortcuts appended to the footer.
	Extra []ShortcutEntry

	labels     []string
	inputs     []textinput.Model
	focused    int
	confirming bool
	submitted  bool
	canceled   bool
	busy       string
	err        error
	activeCmd  string
}

const formFieldWidth = 42

// NewForm builds a form with the first field focused.
func NewForm(title string, fields []FormField) Form {
	f := Form{
		Title:  title,
		labels: make([]string, len(fields)),
		inputs: make([]textinput.Model, len(fields)),
	}
	for i, fd := range fields {
		in := textinput.New()
		in.Placeholder = fd.Placeholder
		in.SetValue(fd.Value)
		if fd.CharLimit > 0 {
			in.CharLimit = fd.CharLimit
		}
		in.Width = formFieldWidth
		in.Prompt = "│ "
		if fd.Secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		if i == 0 {
			in.Focus()
		}
		f.labels[i] = fd.Label
		f.inputs[i] = in
	}
	return f
}

// Value returns the trimmed content of field i (untrimmed for secrets).
func (f Form) Value(i int) string {
	if f.inputs[i].EchoMode == textinput.EchoPassword {
		return f.inputs[i].Value()
	}
	return strings.TrimSpace(f.inputs[i].Value())
}

// Submitted reports whether the user submitted since the last Reset.
func (f Form) Submitted() bool { return f.submitted }

// Canceled reports whether the user pressed esc.
func (f Form) Canceled() bool { return f.canceled }

// Busy reports whether a submission is in flight.
func (f Form) Busy() bool { return f.busy != "" }

// Reset clears the submit/cancel flags after the parent has acted on them.
func (f *Form) Reset() {
	f.submitted = false
	f.canceled = false
	f.confirming = false
}

// SetErr shows err above the fields and ends any busy state.
func (f *Form) SetErr(err error) {
	f.err = err
	f.busy = ""
}

// SetBusy shows label in the footer and ignores input until cleared.
func (f *Form) SetBusy(label string) {
	f.busy = label
	f.err = nil
}

// Focus moves focus to field i.
func (f *Form) Focus(i int) tea.Cmd {
	if i < 0 || i >= len(f.inputs) {
		return nil
	}
	f.focused = i
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == i {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

// Update handles navigation, confirmation and text entry.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	switch msg := msg.(type) {
	case ClearActiveCmdMsg:
		f.activeCmd = ""
		return f, nil

	case tea.KeyMsg:
		if f.busy != "" {
			return f, nil
		}
		switch msg.String() {
		case "esc":
			f.canceled = true
			return f, nil

		case "enter":
			if f.confirming || f.ConfirmPrompt == "" {
				f.confirming = false
				f.submitted = true
				return f, nil
			}
			if f.focused < len(f.inputs)-1 {
				f.activeCmd = "tab"
				return f, tea.Batch(f.Focus(f.focused+1), HighlightCmd())
			}
			f.confirming = true
			return f, nil

		case "y", "Y":
			if f.confirming {
				f.confirming = false
				f.submitted = true
				return f, nil
			}

		case "n", "N":
			if f.confirming {
				f.confirming = false
				return f, nil
			}

		case "tab", "shift+tab", "up", "down":
			if f.confirming {
				return f, nil
			}
			next := f.focused + 1
			if msg.String() == "up" || msg.String() == "shift+tab" {
				next = f.focused - 1
			}
			if next < 0 {
				next = len(f.inputs) - 1
			} else if next >= len(f.inputs) {
				next = 0
			}
			f.activeCmd = "tab"
			return f, tea.Batch(f.Focus(next), HighlightCmd())
		}
		if f.confirming {
			return f, nil
		}
	}

	cmds := make([]tea.Cmd, len(f.inputs))
	for i := range f.inputs {
		f.inputs[i], cmds[i] = f.inputs[i].Update(msg)
	}
	return f, tea.Batch(cmds...)
}

// View renders the form inside the standard bordered frame.
func (f Form) View() string {
	outerStyle := lipgloss.NewStyle().Padding(2, 4)

	sepStyle := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#444444"})
	formLabel := lipgloss.NewStyle().
		Foreground(ColorGray).
		Width(14).
		Align(lipgloss.Right).
		PaddingRight(1)
	formLabelActive := formLabel.
		Foreground(ColorYellow).
		Bold(true)

	const w = 60
	sep := sepStyle.Render(strings.Repeat("─", w))

	var b strings.Builder

	b.WriteString(StyleHeader.Render(f.Title))
	b.WriteString("\n")
	if f.Subtitle != "" {
		b.WriteString(StyleHelp.Render(f.Subtitle))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(sep)
	b.WriteString("\n\n")

	if f.err != nil {
		b.WriteString(StyleError.Render(fmt.Sprintf("Error: %v", f.err)))
		b.WriteString("\n\n")
	}

	for i, label := range f.labels {
		if i == f.focused && !f.confirming {
			b.WriteString(formLabelActive.Render("› " + label))
		} else {
			b.WriteString(formLabel.Render(label))
		}
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n\n")
	}

	b.WriteString(sep)
	b.WriteString("\n")

	switch {
	case f.busy != "":
		b.WriteString(StyleHighlight.Render("  " + f.busy))
	case f.confirming:
		b.WriteString(StyleHighlight.Render("  " + f.ConfirmPrompt + " "))
		b.WriteString(StyleHelp.Render("Y/n"))
	default:
		shortcuts := []ShortcutEntry{
			{Key: "tab", Label: "Tab/↑↓ navigate"},
			{Key: "enter", Label: "enter submit"},
			{Key: "", Label: "esc cancel"},
		}
		b.WriteString(RenderFooterBar(append(shortcuts, f.Extra...), f.activeCmd))
	}
	b.WriteString("\n")

	innerPadding := lipgloss.NewStyle().Padding(0, 2, 0, 1)
	return outerStyle.Render(StyleBorder.Render(innerPadding.Render(b.String())))
}
