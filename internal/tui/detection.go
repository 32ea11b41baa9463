package tui

import (
	"github.com/blackwell-systems/bookctl/internal/util"
	"github.com/spf13/cobra"
)

// ShouldUseTUI returns true if the command should use interactive TUI mode.
// TUI mode is enabled when:
// - stdin and stdout are TTYs (not piped or redirected)
// - --no-interactive flag is not set
// - no output format flag is set (indicates scripting intent)
func ShouldUseTUI(cmd *cobra.Command) bool {
	if !util.IsTTY() || !util.IsStdinTTY() {
		return false
	}

	if noInteractive, _ := cmd.Flags().GetBool("no-interactive"); noInteractive {
		return false
	}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return false
	}

	return true
}
