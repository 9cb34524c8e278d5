package notify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Terminal prints notifications as lines, colored when w is a terminal.
// Everything printed stays on screen, so persistent is not distinguished.
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewTerminal detects colour support of f.
func NewTerminal(f *os.File) *Terminal {
	return NewTerminalWriter(f, useColor(f))
}

func NewTerminalWriter(w io.Writer, color bool) *Terminal {
	return &Terminal{w: w, color: color}
}

func (t *Terminal) Success(heading, body string) {
	t.print("32", "✔", heading, body)
}

func (t *Terminal) Error(heading, detail string) {
	t.print("31", "✖", heading, detail)
}

func (t *Terminal) Warning(heading, body string, _ bool) {
	t.print("33", "!", heading, body)
}

func (t *Terminal) Info(heading, body string, _ bool) {
	t.print("36", "i", heading, body)
}

func (t *Terminal) print(code, mark, heading, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	line := mark + " " + heading
	if t.color {
		line = "\x1b[" + code + "m" + line + "\x1b[0m"
	}
	_, _ = fmt.Fprintln(t.w, line)
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	for _, l := range strings.Split(body, "\n") {
		_, _ = fmt.Fprintln(t.w, "  "+l)
	}
}

// SetRunningIndicator makes Terminal usable as a View.
func (t *Terminal) SetRunningIndicator(running bool) {
	if !running {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	msg := "… script running, waiting for the job to finish"
	if t.color {
		msg = "\x1b[2m" + msg + "\x1b[0m"
	}
	_, _ = fmt.Fprintln(t.w, msg)
}

// SetControlsEnabled is a no-op, a terminal has no controls to lock.
func (t *Terminal) SetControlsEnabled(bool) {}

func useColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
