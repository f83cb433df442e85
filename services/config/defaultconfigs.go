package config

import (
	"sort"

	"c0blink/types"
)

// -----------------------------------------------------------------------------
// Compiled-in board setups
//
// Key: board name (same value placed in ctx under CtxDeviceKey)
// -----------------------------------------------------------------------------

// hsi48 runs everything from HSI48 undivided with one flash wait state.
var (
	hsi48Osc = types.OscConfig{Type: types.OscHSI, On: true, HSIDiv: 1}
	hsi48Bus = types.ClockConfig{
		Types:        types.ClockSYSCLK | types.ClockHCLK | types.ClockPCLK1,
		Source:       types.SysclkHSI,
		AHBDiv:       1,
		APBDiv:       1,
		FlashLatency: 1,
	}
)

var boards = map[string]types.BoardConfig{
	"stm32c011": {
		Name:  "stm32c011",
		Osc:   hsi48Osc,
		Clock: hsi48Bus,
		LED: types.PinConfig{
			Port: types.PortA, Pin: 0,
			Mode: types.ModeOutputPP, Pull: types.PullNone, Speed: types.SpeedLow,
		},
		InitialHigh: true,
		PeriodMs:    100,
	},
	// NUCLEO-C031C6: user LED LD4 on PA5.
	"nucleo-c031c6": {
		Name:  "nucleo-c031c6",
		Osc:   hsi48Osc,
		Clock: hsi48Bus,
		LED: types.PinConfig{
			Port: types.PortA, Pin: 5,
			Mode: types.ModeOutputPP, Pull: types.PullNone, Speed: types.SpeedLow,
		},
		InitialHigh: true,
		PeriodMs:    100,
	},
}

// Boards lists the compiled-in board names in order.
func Boards() []string {
	out := make([]string, 0, len(boards))
	for name := range boards {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
