//go:build !stm32c0

package main

import (
	"github.com/spf13/cobra"

	"c0blink/services/config"
	"c0blink/x/conv"
)

func newBoardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List the compiled-in board setups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, name := range config.Boards() {
				c, err := config.Lookup(name)
				if err != nil {
					return err
				}
				line := append([]byte(name), " led=P"...)
				line = append(line, c.LED.Port.String()...)
				line = conv.AppendUint(line, uint64(c.LED.Pin))
				line = append(line, " hsi_div="...)
				line = conv.AppendUint(line, uint64(c.Osc.HSIDiv))
				line = append(line, " latency="...)
				line = conv.AppendUint(line, uint64(c.Clock.FlashLatency))
				line = append(line, " period_ms="...)
				line = conv.AppendUint(line, uint64(c.PeriodMs))
				if name == config.DefaultBoard {
					line = append(line, " (default)"...)
				}
				if _, err := w.Write(append(line, '\n')); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
