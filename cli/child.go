package cli

import (
	"os"
	"os/exec"

	"github.com/creack/pty"

	"github.com/phroun/termcore"
)

// ChildProcess runs a command under a pseudo-terminal and implements
// termcore.ChildIO by writing keyboard bytes to the pty master. It is the
// Go-native replacement for the teacher's custom PTY abstraction
// (pty.go/pty_unix.go/pty_windows.go), delegated entirely to creack/pty.
type ChildProcess struct {
	cmd  *exec.Cmd
	file *os.File
}

// StartChild forks shell (or the given command) attached to a new pty of
// the given size.
func StartChild(shell, workingDir string, cols, rows int, args ...string) (*ChildProcess, error) {
	cmd := exec.Command(shell, args...)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, err
	}
	return &ChildProcess{cmd: cmd, file: f}, nil
}

// Send implements termcore.ChildIO: bytes from History (DSR/DA replies,
// translated keystrokes) go straight to the pty master.
func (c *ChildProcess) Send(b []byte) error {
	_, err := c.file.Write(b)
	return err
}

// Read reads child output into b, blocking like any os.File read.
func (c *ChildProcess) Read(b []byte) (int, error) {
	return c.file.Read(b)
}

// Resize informs the pty and the child of a new window size.
func (c *ChildProcess) Resize(cols, rows int) error {
	return pty.Setsize(c.file, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Wait blocks until the child exits and returns its error, if any.
func (c *ChildProcess) Wait() error {
	return c.cmd.Wait()
}

// Close releases the pty master.
func (c *ChildProcess) Close() error {
	return c.file.Close()
}

var _ termcore.ChildIO = (*ChildProcess)(nil)
