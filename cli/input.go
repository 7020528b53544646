package cli

import "os"

// InputHandler reads raw bytes from the host tty, recognizes the small set
// of modified cursor/navigation keys used for local scrollback control,
// and forwards everything else straight to the child process.
type InputHandler struct {
	term *Terminal
}

// NewInputHandler creates an input handler bound to term.
func NewInputHandler(term *Terminal) *InputHandler {
	return &InputHandler{term: term}
}

// InputLoop reads os.Stdin until the terminal is stopped.
func (h *InputHandler) InputLoop() {
	buf := make([]byte, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				h.ProcessInput(append([]byte(nil), buf[:n]...))
			}
			if err != nil {
				return
			}
			select {
			case <-h.term.stopRender:
				return
			default:
			}
		}
	}()
	select {
	case <-h.term.stopRender:
	case <-done:
	}
}

// ProcessInput decodes a chunk of raw keyboard bytes. Recognized
// local-scrollback sequences are consumed; other recognized keys are
// re-encoded for History's current modes, or forwarded as received when
// they have no table entry; everything else (plain characters and
// unrecognized escape sequences) is forwarded to the child unchanged,
// preserving the stream's byte-for-byte meaning.
func (h *InputHandler) ProcessInput(data []byte) {
	for len(data) > 0 {
		name, n := decodeKey(data)
		if name != "" && h.handleLocalKey(name) {
			data = data[n:]
			continue
		}
		if name != "" {
			seq := data[:n]
			data = data[n:]
			h.scrollToBottomOnInput()
			if b := keyToBytes(name, h.term.history); b != nil {
				h.sendToChild(b)
			} else {
				h.sendToChild(seq)
			}
			continue
		}
		h.scrollToBottomOnInput()
		h.sendToChild(data[:1])
		data = data[1:]
	}
}

func (h *InputHandler) scrollToBottomOnInput() {
	if h.term.GetScrollOffset() > 0 {
		h.term.ScrollToBottom()
		h.term.renderer.RequestRender()
	}
}

// handleLocalKey intercepts scroll-navigation keys before they reach the
// child process.
func (h *InputHandler) handleLocalKey(key string) bool {
	_, rows := h.term.GetSize()
	switch key {
	case "S-PageUp":
		h.term.ScrollUp(rows - 1)
	case "S-PageDown":
		h.term.ScrollDown(rows - 1)
	case "S-Up":
		h.term.ScrollUp(1)
	case "S-Down":
		h.term.ScrollDown(1)
	case "S-Home":
		h.term.ScrollToTop()
	case "S-End":
		h.term.ScrollToBottom()
	default:
		return false
	}
	h.term.renderer.RequestRender()
	return true
}

// PasteText forwards a block of pasted text, bracketing it in CSI
// 200~/201~ when History has negotiated bracketed paste mode.
func (h *InputHandler) PasteText(data []byte) {
	h.term.mu.Lock()
	child := h.term.child
	hist := h.term.history
	h.term.mu.Unlock()
	if child != nil {
		child.Send(bracketedPasteWrap(data, hist))
	}
}

func (h *InputHandler) sendToChild(data []byte) {
	if len(data) == 0 {
		return
	}
	h.term.mu.Lock()
	child := h.term.child
	h.term.mu.Unlock()
	if child != nil {
		child.Send(data)
	}
}
