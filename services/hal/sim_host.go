// services/hal/sim_host.go
//go:build !stm32c0

package hal

import "c0blink/services/hal/internal/platform"

type (
	Sim        = platform.Sim
	SimOptions = platform.SimOptions
)

// NewSim returns a HAL bound to a fresh simulated STM32C011.
func NewSim(opts SimOptions) (*HAL, *Sim) {
	s := platform.NewSim(opts)
	return newHAL(s.Chip()), s
}
