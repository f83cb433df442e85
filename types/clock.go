package types

// ------------------------
// Oscillator
// ------------------------

// OscType selects which oscillator an OscConfig addresses.
type OscType uint8

const (
	OscNone OscType = iota
	OscHSI          // internal 48 MHz RC oscillator
)

// OscConfig describes one oscillator bring-up request.
type OscConfig struct {
	Type   OscType `json:"type"`
	On     bool    `json:"on"`
	HSIDiv uint8   `json:"hsi_div"` // 1, 2, 4 .. 128
}

// ------------------------
// Bus clocks
// ------------------------

// ClockType is a bitmask of the clock domains a ClockConfig touches.
type ClockType uint8

const (
	ClockSYSCLK ClockType = 1 << iota
	ClockHCLK
	ClockPCLK1
)

// SysclkSource mirrors the RCC_CFGR.SW encoding.
type SysclkSource uint8

const (
	SysclkHSI SysclkSource = 0 // HSISYS
	SysclkHSE SysclkSource = 1
	SysclkLSI SysclkSource = 3
	SysclkLSE SysclkSource = 4
)

// ClockConfig describes the SYSCLK source, bus dividers and flash latency.
type ClockConfig struct {
	Types        ClockType    `json:"types"`
	Source       SysclkSource `json:"source"`
	AHBDiv       uint16       `json:"ahb_div"`       // 1, 2, 4 .. 512 (no /32)
	APBDiv       uint8        `json:"apb_div"`       // 1, 2, 4, 8, 16
	FlashLatency uint8        `json:"flash_latency"` // wait states
}
