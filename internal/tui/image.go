package tui

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// TerminalImageProtocol represents the image protocol supported by the terminal
type TerminalImageProtocol int

// Terminal image protocol types
const (
	ProtocolNone TerminalImageProtocol = iota
	ProtocolKitty
	ProtocolITerm2
)

func (p TerminalImageProtocol) String() string {
	switch p {
	case ProtocolKitty:
		return "kitty"
	case ProtocolITerm2:
		return "iterm2"
	default:
		return "none"
	}
}

// DetectImageProtocol detects which terminal image protocol is supported.
// BOOKCTL_IMAGES=off disables inline images.
func DetectImageProtocol() TerminalImageProtocol {
	if strings.EqualFold(os.Getenv("BOOKCTL_IMAGES"), "off") {
		return ProtocolNone
	}

	termProgram := os.Getenv("TERM_PROGRAM")
	term := os.Getenv("TERM")

	switch {
	case strings.Contains(term, "kitty"), termProgram == "ghostty", termProgram == "WezTerm":
		return ProtocolKitty
	case termProgram == "iTerm.app":
		return ProtocolITerm2
	}
	return ProtocolNone
}

// RenderInlineImage renders the image at imagePath within cols x rows
// terminal cells. Returns "" when the protocol is none or the file cannot
// be read.
func RenderInlineImage(imagePath string, protocol TerminalImageProtocol, cols, rows int) string {
	if protocol == ProtocolNone {
		return ""
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return ""
	}
	return RenderInlineImageBytes(data, protocol, cols, rows)
}

// RenderInlineImageBytes renders image data inline.
func RenderInlineImageBytes(data []byte, protocol TerminalImageProtocol, cols, rows int) string {
	if len(data) == 0 {
		return ""
	}
	switch protocol {
	case ProtocolKitty:
		return renderKittyImage(data, cols, rows)
	case ProtocolITerm2:
		return renderITerm2Image(data, cols, rows)
	}
	return ""
}

// kittyChunk is the largest payload per escape sequence the protocol allows.
const kittyChunk = 4096

// renderKittyImage uses Kitty's graphics protocol: a=T transmit and
// display, f=100 PNG (JPEG is accepted by kitty as well), c/r cell box,
// m=1 on every chunk but the last.
func renderKittyImage(data []byte, cols, rows int) string {
	encoded := base64.StdEncoding.EncodeToString(data)

	var b strings.Builder
	for first := true; len(encoded) > 0; first = false {
		n := min(kittyChunk, len(encoded))
		chunk := encoded[:n]
		encoded = encoded[n:]

		more := 0
		if len(encoded) > 0 {
			more = 1
		}
		if first {
			fmt.Fprintf(&b, "\x1b_Ga=T,f=100,c=%d,r=%d,m=%d;%s\x1b\\", cols, rows, more, chunk)
		} else {
			fmt.Fprintf(&b, "\x1b_Gm=%d;%s\x1b\\", more, chunk)
		}
	}
	return b.String()
}

// renderITerm2Image uses iTerm2's inline images protocol.
func renderITerm2Image(data []byte, cols, rows int) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("\x1b]1337;File=inline=1;size=%d;width=%d;height=%d;preserveAspectRatio=1:%s\x07",
		len(data), cols, rows, encoded)
}
