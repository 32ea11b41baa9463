package tui

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCanceled is returned when the user interrupts a progress display.
var ErrCanceled = errors.New("cancelled by user")

// ProgressReader wraps an io.Reader and reports bytes read through a channel.
type ProgressReader struct {
	reader      io.Reader
	total       int64
	read        int64
	progressMsg chan<- int64
	lastReport  int64
}

// NewProgressReader creates a reader that reports progress.
func NewProgressReader(r io.Reader, total int64, progressMsg chan<- int64) *ProgressReader {
	return &ProgressReader{
		reader:      r,
		total:       total,
		progressMsg: progressMsg,
	}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.read += int64(n)

	if pr.progressMsg != nil && n > 0 {
		// covers are at most 10MiB; report every 256KiB
		const updateInterval = 256 * 1024
		sinceLast := pr.read - pr.lastReport
		isComplete := err == io.EOF || pr.read >= pr.total

		if sinceLast >= updateInterval || isComplete {
			select {
			case pr.progressMsg <- pr.read:
				pr.lastReport = pr.read
			default:
			}
		}
	}
	return n, err
}

type progressMsg int64

type tickMsg time.Time

type progressDoneMsg struct{ err error }

type progressModel struct {
	progress   progress.Model
	total      int64
	current    int64
	label      string
	done       bool
	err        error
	cancelled  bool
	progressCh <-chan int64
	doneCh     <-chan error
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitForProgress(m.progressCh),
		waitForDone(m.doneCh),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForProgress(ch <-chan int64) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return progressMsg(-1)
		}
		return progressMsg(n)
	}
}

func waitForDone(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		return progressDoneMsg{err: <-ch}
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		}

	case tickMsg:
		if m.done {
			return m, tea.Quit
		}
		return m, tickCmd()

	case progressMsg:
		if int64(msg) == -1 {
			return m, nil
		}
		m.current = int64(msg)
		return m, waitForProgress(m.progressCh)

	case progressDoneMsg:
		// the operation, not the byte count, decides completion
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		return m, nil
	}

	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.current) / float64(m.total)
	}

	return fmt.Sprintf(
		"%s\n%s\n%s / %s (%.0f%%)\n",
		m.label,
		m.progress.ViewAs(percent),
		formatBytes(m.current),
		formatBytes(m.total),
		percent*100,
	)
}

// ShowProgress runs op while drawing a progress bar fed by the ProgressReader
// passed to it. It returns op's error, or ErrCanceled on ctrl+c (op keeps
// running until its own context is cancelled).
func ShowProgress(label string, total int64, op func(wrap func(io.Reader) io.Reader) error) error {
	progressCh := make(chan int64, 16)
	doneCh := make(chan error, 1)

	go func() {
		err := op(func(r io.Reader) io.Reader {
			return NewProgressReader(r, total, progressCh)
		})
		close(progressCh)
		doneCh <- err
	}()

	m := progressModel{
		progress:   progress.New(progress.WithDefaultGradient()),
		total:      total,
		label:      label,
		progressCh: progressCh,
		doneCh:     doneCh,
	}

	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	fm, ok := finalModel.(progressModel)
	if !ok {
		return fmt.Errorf("unexpected model type")
	}
	if fm.cancelled {
		return ErrCanceled
	}
	return fm.err
}

// formatBytes formats bytes as human-readable size
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n := n / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
