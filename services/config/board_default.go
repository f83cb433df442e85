//go:build !nucleo_c031c6

package config

// DefaultBoard is the setup the firmware boots with.
const DefaultBoard = "stm32c011"
