package display

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether the given file is a TTY.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// RawInput switches stdin to raw mode so single keypresses arrive
// without a newline. The returned restore function must run before the
// process exits, or the user's shell is left in raw mode.
func RawInput() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enable raw input: %w", err)
	}
	return func() {
		_ = term.Restore(fd, state) //nolint:errcheck
	}, nil
}
