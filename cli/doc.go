// Package cli provides a terminal-within-a-terminal adapter for termcore.
//
// It runs a child process under a pseudo-terminal, feeds its output
// through a termcore.History, and renders the result into a window inside
// the actual host terminal: a border, an optional status bar, and a
// scrollback view that tracks the live screen by default.
//
// # Features
//
//   - Full C0/CSI/OSC/DCS escape sequence interpretation via termcore
//   - Scrollback navigation with Shift+PageUp/PageDown and friends
//   - Multiple border styles (single, double, heavy, rounded)
//   - Window resizing that tracks the host terminal (SIGWINCH)
//   - Differential, row-granularity rendering
//   - True color (24-bit) and 256-color support, elastic tabstops
//
// # Basic usage
//
//	term := cli.New(cli.Options{
//	    BorderStyle:   cli.BorderRounded,
//	    Title:         "termcore",
//	    ShowStatusBar: true,
//	})
//	if err := term.RunShell(); err != nil {
//	    log.Fatal(err)
//	}
//
// RunShell blocks until the child exits and restores the host terminal on
// return.
//
// # Scrollback navigation
//
//   - Shift+PageUp / Shift+PageDown: scroll by a page
//   - Shift+Up / Shift+Down: scroll by a line
//   - Shift+Home / Shift+End: jump to the top or bottom of scrollback
//
// Any other keystroke snaps the view back to the live screen before being
// forwarded to the child.
//
// # Architecture
//
//   - Terminal owns the termcore.History, the ChildProcess, and the
//     render/input goroutines.
//   - Renderer walks History's visible lines and writes ANSI output,
//     recomputing elastic-tabs column widths for dirty groups as it goes.
//   - InputHandler decodes host keystrokes with its own small CSI/SS3
//     recognizer and translates them against History's current modes
//     (application cursor keys, bracketed paste).
package cli
