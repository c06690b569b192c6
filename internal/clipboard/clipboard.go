// Package clipboard copies short strings (bundle paths, identifiers) to the
// user's clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// ErrEmpty is returned when there is nothing to copy.
var ErrEmpty = errors.New("clipboard: no content to copy")

// Method names reported by Copy.
const (
	MethodNative = "native"
	MethodOSC52  = "osc52"
)

// Copier places text on the clipboard. The zero value uses the system
// clipboard and falls back to an OSC 52 escape sequence on /dev/tty.
type Copier struct {
	// native writes to the OS clipboard; nil means atotto/clipboard
	native func(string) error

	// terminal opens the stream OSC 52 sequences are written to
	terminal func() (io.WriteCloser, error)

	// inTmux wraps sequences for tmux passthrough
	inTmux bool
}

// Copy copies text with the default Copier.
func Copy(text string) (string, error) {
	return Copier{inTmux: os.Getenv("TMUX") != ""}.Copy(text)
}

// Copy returns the method that succeeded.
func (c Copier) Copy(text string) (string, error) {
	if text == "" {
		return "", ErrEmpty
	}

	native := c.native
	if native == nil && !clipboard.Unsupported {
		native = clipboard.WriteAll
	}
	var nativeErr error
	if native != nil {
		if nativeErr = native(text); nativeErr == nil {
			return MethodNative, nil
		}
	}

	open := c.terminal
	if open == nil {
		open = openTTY
	}
	w, err := open()
	if err != nil {
		return "", fmt.Errorf("clipboard: no method available: %w", errors.Join(nativeErr, err))
	}
	defer w.Close()

	seq := osc52.New(text)
	if c.inTmux {
		seq = seq.Tmux()
	}
	if _, err := seq.WriteTo(w); err != nil {
		return "", fmt.Errorf("clipboard: osc52: %w", err)
	}
	return MethodOSC52, nil
}

// openTTY writes to /dev/tty so redirected stdout does not swallow the
// sequence.
func openTTY() (io.WriteCloser, error) {
	return os.OpenFile("/dev/tty", os.O_WRONLY, 0)
}
