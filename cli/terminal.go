// Package cli adapts termcore.History to a real host terminal: it drives a
// child process under a pty, feeds its output through History.AddInput,
// and differentially renders History's lines back to stdout.
package cli

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/term"

	"github.com/phroun/termcore"
)

// BorderStyle selects the box-drawing character set used to frame the
// terminal window when it does not occupy the whole host screen.
type BorderStyle int

const (
	BorderNone BorderStyle = iota
	BorderSingle
	BorderDouble
	BorderHeavy
	BorderRounded
)

// Options configures a Terminal at construction time.
type Options struct {
	Cols, Rows     int
	ScrollbackSize int64
	Shell          string
	WorkingDir     string

	DefaultForeground termcore.Color
	DefaultBackground termcore.Color

	BorderStyle   BorderStyle
	Title         string
	OffsetX       int
	OffsetY       int
	AutoSize      bool
	ShowStatusBar bool

	// Embedded suppresses raw-mode/alt-screen takeover of the host
	// terminal, for use inside a larger TUI that manages its own screen.
	Embedded bool
}

func (o *Options) setDefaults() {
	if o.Cols <= 0 {
		o.Cols = 80
	}
	if o.Rows <= 0 {
		o.Rows = 24
	}
	if o.ScrollbackSize <= 0 {
		o.ScrollbackSize = 10000
	}
	if o.Shell == "" {
		o.Shell = os.Getenv("SHELL")
		if o.Shell == "" {
			o.Shell = "/bin/sh"
		}
	}
	if o.WorkingDir == "" {
		if wd, err := os.Getwd(); err == nil {
			o.WorkingDir = wd
		}
	}
}

// Terminal owns a termcore.History fed by a pty-backed child process, and
// renders it to the host terminal (or hands bytes to an embedding TUI).
type Terminal struct {
	mu sync.Mutex

	history *termcore.History
	child   *ChildProcess
	options Options

	renderer *Renderer
	input    *InputHandler

	title string

	running    bool
	done       chan struct{}
	stopRender chan struct{}

	oldState *term.State

	onExit        func(error)
	onResize      func(cols, rows int)
	onTitleChange func(string)
	inputCallback func([]byte) bool
	scrollOffset  int64
}

// New constructs a Terminal and its History, but does not yet start a
// child process or take over the host terminal; call Start or RunShell.
func New(opts Options) *Terminal {
	opts.setDefaults()

	t := &Terminal{
		options:    opts,
		done:       make(chan struct{}),
		stopRender: make(chan struct{}),
	}

	settings := termcore.Settings{
		DefaultForegroundColor: opts.DefaultForeground,
		DefaultBackgroundColor: opts.DefaultBackground,
		DefaultAutoWrap:        true,
	}
	t.history = termcore.NewHistory(opts.ScrollbackSize, settings, nil, t)
	t.history.SetLinesOnScreen(opts.Rows)
	t.history.SetCharactersPerLine(opts.Cols)

	t.renderer = NewRenderer(t)
	t.input = NewInputHandler(t)
	return t
}

// SetTitle implements termcore.Display: History calls this for OSC 0/2.
func (t *Terminal) SetTitle(title string) {
	t.mu.Lock()
	t.title = title
	cb := t.onTitleChange
	t.mu.Unlock()
	if cb != nil {
		cb(title)
	}
}

// Title returns the most recently set window title.
func (t *Terminal) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// OnExit/OnResize/OnTitleChange/OnInput register callbacks invoked from
// the terminal's background goroutines.
func (t *Terminal) OnExit(fn func(error))            { t.onExit = fn }
func (t *Terminal) OnResize(fn func(cols, rows int)) { t.onResize = fn }
func (t *Terminal) OnTitleChange(fn func(string))    { t.onTitleChange = fn }
func (t *Terminal) OnInput(fn func([]byte) bool)     { t.inputCallback = fn }

// History exposes the underlying state machine for read access by a
// Display implementation outside this package.
func (t *Terminal) History() *termcore.History {
	return t.history
}

// RunShell starts the configured shell as the child process and takes
// over the host terminal (unless Embedded).
func (t *Terminal) RunShell() error {
	return t.RunCommand(t.options.Shell)
}

// RunCommand starts the given command (with optional arguments) as the
// child process.
func (t *Terminal) RunCommand(command string, args ...string) error {
	child, err := StartChild(command, t.options.WorkingDir, t.options.Cols, t.options.Rows, args...)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.child = child
	t.mu.Unlock()

	go t.readLoop()
	go func() {
		err := child.Wait()
		close(t.done)
		if t.onExit != nil {
			t.onExit(err)
		}
	}()

	if !t.options.Embedded {
		return t.Start()
	}
	return nil
}

// Start takes over the host terminal: raw mode, alternate screen, SIGWINCH
// handling, and the render loop. No-op (callers drive rendering
// themselves) when Embedded.
func (t *Terminal) Start() error {
	if t.options.Embedded {
		return nil
	}
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	t.oldState = oldState

	os.Stdout.WriteString("\033[?1049h\033[?25l")

	sigwinch := make(chan os.Signal, 1)
	signal.Notify(sigwinch, syscall.SIGWINCH)
	go t.handleSIGWINCH(sigwinch)

	t.mu.Lock()
	t.running = true
	t.mu.Unlock()

	go t.input.InputLoop()
	go t.renderer.RenderLoop()

	<-t.done
	t.Stop()
	return nil
}

// Stop restores the host terminal to its pre-Start state.
func (t *Terminal) Stop() {
	t.mu.Lock()
	running := t.running
	t.running = false
	t.mu.Unlock()
	if !running {
		return
	}
	close(t.stopRender)
	os.Stdout.WriteString("\033[?25h\033[?1049l")
	if t.oldState != nil {
		term.Restore(int(os.Stdin.Fd()), t.oldState)
	}
}

func (t *Terminal) handleSIGWINCH(sig chan os.Signal) {
	for range sig {
		cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			continue
		}
		t.handleResize(cols, rows)
	}
}

func (t *Terminal) handleResize(cols, rows int) {
	t.mu.Lock()
	t.options.Cols = cols
	t.options.Rows = rows
	child := t.child
	t.mu.Unlock()

	t.history.SetCharactersPerLine(cols)
	t.history.SetLinesOnScreen(rows)
	if child != nil {
		child.Resize(cols, rows)
	}
	t.renderer.RequestRender()
	if t.onResize != nil {
		t.onResize(cols, rows)
	}
}

// readLoop reads child output and feeds it into History, re-buffering any
// bytes History reports as an incomplete trailing escape sequence.
func (t *Terminal) readLoop() {
	buf := make([]byte, 4096)
	var pending []byte
	for {
		n, err := t.child.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for len(pending) > 0 {
				consumed := t.history.AddInput(pending)
				if consumed == 0 {
					break
				}
				pending = pending[consumed:]
			}
			t.renderer.RequestRender()
		}
		if err != nil {
			return
		}
	}
}

// Feed injects bytes directly into History, bypassing the child process —
// used by embedders replaying a recorded session or testing output.
func (t *Terminal) Feed(b []byte) {
	pending := b
	for len(pending) > 0 {
		consumed := t.history.AddInput(pending)
		if consumed == 0 {
			break
		}
		pending = pending[consumed:]
	}
	t.renderer.RequestRender()
}

// Write sends bytes to the child process (keyboard input path).
func (t *Terminal) Write(b []byte) (int, error) {
	t.mu.Lock()
	child := t.child
	t.mu.Unlock()
	if child == nil {
		return 0, nil
	}
	if err := child.Send(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// GetSize returns the configured terminal grid size.
func (t *Terminal) GetSize() (cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.options.Cols, t.options.Rows
}

// Resize changes the terminal grid size and propagates it to History and
// the child pty.
func (t *Terminal) Resize(cols, rows int) {
	t.handleResize(cols, rows)
}

// GetScrollOffset returns how many lines up from the bottom the view is
// currently scrolled (0 = pinned to live output).
func (t *Terminal) GetScrollOffset() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrollOffset
}

func (t *Terminal) clampScrollOffset() {
	maxOffset := t.history.NumLines() - int64(t.options.Rows)
	if maxOffset < 0 {
		maxOffset = 0
	}
	if t.scrollOffset > maxOffset {
		t.scrollOffset = maxOffset
	}
	if t.scrollOffset < 0 {
		t.scrollOffset = 0
	}
}

// ScrollUp/ScrollDown/ScrollToTop/ScrollToBottom move the local scrollback
// viewport; they do not affect History's own state, only which lines the
// Renderer displays.
func (t *Terminal) ScrollUp(n int) {
	t.mu.Lock()
	t.scrollOffset += int64(n)
	t.clampScrollOffset()
	t.mu.Unlock()
}

func (t *Terminal) ScrollDown(n int) {
	t.mu.Lock()
	t.scrollOffset -= int64(n)
	t.clampScrollOffset()
	t.mu.Unlock()
}

func (t *Terminal) ScrollToTop() {
	t.mu.Lock()
	t.scrollOffset = t.history.NumLines()
	t.clampScrollOffset()
	t.mu.Unlock()
}

func (t *Terminal) ScrollToBottom() {
	t.mu.Lock()
	t.scrollOffset = 0
	t.mu.Unlock()
}
