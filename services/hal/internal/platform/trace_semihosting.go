//go:build stm32c0 && semihosting

package platform

import (
	"io"

	"tinygo.org/x/drivers/semihosting"
)

// semihostingConsole forwards trace lines to the debugger's stdout
// (OpenOCD: "arm semihosting enable"). Without a debugger attached the
// BKPT traps, so this is only built with the semihosting tag.
type semihostingConsole struct{}

func (semihostingConsole) Write(p []byte) (int, error) {
	if err := semihosting.Stdout.Write(p); err != nil {
		if ioe, ok := err.(*semihosting.IOError); ok {
			return ioe.BytesWritten, err
		}
		return 0, err
	}
	return len(p), nil
}

func console() io.Writer { return semihostingConsole{} }
