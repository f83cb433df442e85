//go:build !stm32c0

// Command c0sim runs the blink firmware against the register-level
// simulator on the host.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "c0sim",
		Short:         "Run the STM32C0 blink firmware on a simulated chip",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newBoardsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		println("c0sim:", err.Error())
		os.Exit(1)
	}
}
