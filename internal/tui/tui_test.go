package tui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestForm_SubmitWithoutConfirm(t *testing.T) {
	f := NewForm("Sign in", []FormField{{Label: "Username"}, {Label: "Password", Secret: true}})
	f, _ = f.Update(keyMsg("alice"))
	f, _ = f.Update(keyMsg("tab"))
	f, _ = f.Update(keyMsg(" pw "))
	f, _ = f.Update(keyMsg("enter"))

	if !f.Submitted() {
		t.Fatal("enter should submit a form without a confirm prompt")
	}
	if got := f.Value(0); got != "alice" {
		t.Errorf("Value(0) = %q, want %q", got, "alice")
	}
	if got := f.Value(1); got != " pw " {
		t.Errorf("secret values must not be trimmed, got %q", got)
	}
}

func TestForm_ConfirmFlow(t *testing.T) {
	f := NewForm("Add book", []FormField{{Label: "Name"}, {Label: "Author"}})
	f.ConfirmPrompt = "Save book?"

	f, _ = f.Update(keyMsg("enter"))
	if f.Submitted() {
		t.Fatal("enter on a non-last field should advance, not submit")
	}
	f, _ = f.Update(keyMsg("enter"))
	if !strings.Contains(f.View(), "Save book?") {
		t.Fatal("enter on the last field should ask for confirmation")
	}

	f, _ = f.Update(keyMsg("n"))
	if f.Submitted() {
		t.Fatal("n should abort the confirmation")
	}
	if strings.Contains(f.View(), "Save book?") {
		t.Error("prompt should be gone after n")
	}

	f, _ = f.Update(keyMsg("enter"))
	f, _ = f.Update(keyMsg("y"))
	if !f.Submitted() {
		t.Fatal("y should submit")
	}
	f.Reset()
	if f.Submitted() {
		t.Error("Reset should clear the submitted flag")
	}
}

func TestForm_CancelAndBusy(t *testing.T) {
	f := NewForm("x", []FormField{{Label: "A"}})
	f.SetBusy("Saving…")
	f, _ = f.Update(keyMsg("esc"))
	if f.Canceled() {
		t.Error("input should be ignored while busy")
	}
	if !strings.Contains(f.View(), "Saving…") {
		t.Error("busy label should be shown")
	}

	f.SetErr(errors.New("boom"))
	if f.Busy() {
		t.Error("SetErr should end the busy state")
	}
	if !strings.Contains(f.View(), "boom") {
		t.Error("error should be shown")
	}
	f, _ = f.Update(keyMsg("esc"))
	if !f.Canceled() {
		t.Error("esc should cancel")
	}
}

func TestForm_PrefilledValue(t *testing.T) {
	f := NewForm("Edit", []FormField{{Label: "Name", Value: "  Dune  "}})
	if got := f.Value(0); got != "Dune" {
		t.Errorf("Value(0) = %q, want %q", got, "Dune")
	}
}

func TestRenderFooterBar_HighlightsActive(t *testing.T) {
	out := RenderFooterBar([]ShortcutEntry{{Key: "a", Label: "a add"}, {Key: "d", Label: "d delete"}}, "a")
	plain := xansi.Strip(out)
	if !strings.Contains(plain, "[ a add ]") {
		t.Errorf("active shortcut not bracketed: %q", plain)
	}
	if strings.Contains(plain, "[ d delete ]") {
		t.Errorf("inactive shortcut bracketed: %q", plain)
	}
}

func TestRenderNotice(t *testing.T) {
	if RenderNotice("", true) != "" {
		t.Error("empty notice should render nothing")
	}
	if got := xansi.Strip(RenderNotice("saved", false)); got != "✓ saved" {
		t.Errorf("success notice = %q", got)
	}
	if got := xansi.Strip(RenderNotice("failed", true)); got != "✗ failed" {
		t.Errorf("error notice = %q", got)
	}
}

func TestBookItem_FilterValue(t *testing.T) {
	item := BookItem{Book: api.Book{ID: 7, Name: "Dune", Author: "Frank Herbert", Description: "spice"}}
	fv := item.FilterValue()
	for _, want := range []string{"7", "Dune", "Frank Herbert", "spice"} {
		if !strings.Contains(fv, want) {
			t.Errorf("FilterValue %q missing %q", fv, want)
		}
	}
}

func TestBookItems_MarksCached(t *testing.T) {
	books := []api.Book{{ID: 1, Cover: "/a.png"}, {ID: 2}}
	items := BookItems(books, func(b api.Book) bool { return b.Cover != "" })
	if !items[0].(BookItem).Cached || items[1].(BookItem).Cached {
		t.Errorf("cached flags = %v, %v", items[0].(BookItem).Cached, items[1].(BookItem).Cached)
	}
}

func TestRenderBookItem_Truncates(t *testing.T) {
	long := strings.Repeat("Very Long Title ", 20)
	items := []list.Item{BookItem{Book: api.Book{ID: 1, Name: long, Author: "Someone"}}}
	l := list.New(items, NewBookDelegate(), 60, 10)

	var buf bytes.Buffer
	renderBookItem(&buf, l, 0, items[0])
	if w := xansi.StringWidth(buf.String()); w > 60 {
		t.Errorf("row width = %d, want <= 60", w)
	}
	if !strings.Contains(buf.String(), "…") {
		t.Error("long title should be truncated with an ellipsis")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		512:         "512 B",
		2048:        "2.0 KiB",
		1536 * 1024: "1.5 MiB",
		10 << 20:    "10.0 MiB",
		3 << 30:     "3.0 GiB",
	}
	for n, want := range cases {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestProgressReader_Reports(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 600*1024)
	ch := make(chan int64, 16)
	pr := NewProgressReader(bytes.NewReader(data), int64(len(data)), ch)
	if _, err := io.Copy(io.Discard, pr); err != nil {
		t.Fatal(err)
	}
	close(ch)

	var last int64
	var n int
	for v := range ch {
		if v < last {
			t.Errorf("progress went backwards: %d after %d", v, last)
		}
		last = v
		n++
	}
	if n == 0 {
		t.Fatal("no progress reported")
	}
	if last != int64(len(data)) {
		t.Errorf("final progress = %d, want %d", last, len(data))
	}
}

func TestRenderInlineImageBytes(t *testing.T) {
	if RenderInlineImageBytes([]byte("png"), ProtocolNone, 10, 5) != "" {
		t.Error("ProtocolNone should render nothing")
	}

	iterm := RenderInlineImageBytes([]byte("png"), ProtocolITerm2, 10, 5)
	if !strings.HasPrefix(iterm, "\x1b]1337;File=inline=1;size=3;width=10;height=5") {
		t.Errorf("iTerm2 sequence = %q", iterm)
	}

	big := bytes.Repeat([]byte{0xff}, 9000)
	kitty := RenderInlineImageBytes(big, ProtocolKitty, 10, 5)
	if got := strings.Count(kitty, "\x1b_G"); got < 3 {
		t.Errorf("kitty chunks = %d, want >= 3", got)
	}
	if !strings.Contains(kitty, "a=T,f=100,c=10,r=5,m=1;") {
		t.Error("first kitty chunk should carry the placement and m=1")
	}
	if !strings.Contains(kitty, "\x1b_Gm=0;") {
		t.Error("last kitty chunk should carry m=0")
	}
}

func TestDetectImageProtocol(t *testing.T) {
	t.Setenv("BOOKCTL_IMAGES", "")
	t.Setenv("TERM", "xterm-kitty")
	t.Setenv("TERM_PROGRAM", "")
	if got := DetectImageProtocol(); got != ProtocolKitty {
		t.Errorf("kitty TERM: got %v", got)
	}

	t.Setenv("TERM", "xterm-256color")
	t.Setenv("TERM_PROGRAM", "iTerm.app")
	if got := DetectImageProtocol(); got != ProtocolITerm2 {
		t.Errorf("iTerm: got %v", got)
	}

	t.Setenv("BOOKCTL_IMAGES", "off")
	if got := DetectImageProtocol(); got != ProtocolNone {
		t.Errorf("disabled: got %v", got)
	}
}
