package clipboard

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufCloser struct{ bytes.Buffer }

func (b *bufCloser) Close() error { return nil }

func TestCopy_Empty(t *testing.T) {
	_, err := Copier{}.Copy("")
	require.ErrorIs(t, err, ErrEmpty)
}

func TestCopy_Native(t *testing.T) {
	var got string
	c := Copier{
		native:   func(s string) error { got = s; return nil },
		terminal: func() (io.WriteCloser, error) { t.Fatal("terminal should not be used"); return nil, nil },
	}
	method, err := c.Copy("/Applications/Safari.app")
	require.NoError(t, err)
	assert.Equal(t, MethodNative, method)
	assert.Equal(t, "/Applications/Safari.app", got)
}

func TestCopy_FallsBackToOSC52(t *testing.T) {
	buf := &bufCloser{}
	c := Copier{
		native:   func(string) error { return errors.New("no pbcopy") },
		terminal: func() (io.WriteCloser, error) { return buf, nil },
	}
	method, err := c.Copy("com.apple.Safari")
	require.NoError(t, err)
	assert.Equal(t, MethodOSC52, method)

	out := buf.String()
	assert.Contains(t, out, "\x1b]52;c;")
	assert.Contains(t, out, base64.StdEncoding.EncodeToString([]byte("com.apple.Safari")))
}

func TestCopy_TmuxPassthrough(t *testing.T) {
	buf := &bufCloser{}
	c := Copier{
		native:   func(string) error { return errors.New("no pbcopy") },
		terminal: func() (io.WriteCloser, error) { return buf, nil },
		inTmux:   true,
	}
	_, err := c.Copy("x")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\x1bPtmux;")
}

func TestCopy_NoMethod(t *testing.T) {
	c := Copier{
		native:   func(string) error { return errors.New("no pbcopy") },
		terminal: func() (io.WriteCloser, error) { return nil, errors.New("no tty") },
	}
	_, err := c.Copy("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pbcopy")
	assert.Contains(t, err.Error(), "no tty")
}
