//go:build nucleo_c031c6

package config

const DefaultBoard = "nucleo-c031c6"
