package config

import (
	"context"

	"c0blink/bus"
	"c0blink/errcode"
	"c0blink/types"
	"c0blink/x/mathx"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for board name
)

var TopicBoard = bus.T(configPrefix, "board")

// BoardLookup allows overriding how board setups are resolved.
var BoardLookup = func(name string) (types.BoardConfig, bool) {
	c, ok := boards[name]
	return c, ok
}

// Lookup returns a validated board setup.
func Lookup(name string) (types.BoardConfig, error) {
	c, ok := BoardLookup(name)
	if !ok {
		return types.BoardConfig{}, &errcode.E{C: errcode.InvalidParams, Op: "lookup", Msg: "no board " + name}
	}
	if err := Validate(c); err != nil {
		return types.BoardConfig{}, err
	}
	return c, nil
}

// Selected returns the setup compiled in for this build.
func Selected() (types.BoardConfig, error) { return Lookup(DefaultBoard) }

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

const zeroWaitMaxHz = 24_000_000

// Validate checks a setup against what the clock tree and flash allow.
func Validate(c types.BoardConfig) error {
	bad := func(msg string) error {
		return &errcode.E{C: errcode.InvalidParams, Op: "validate", Msg: c.Name + ": " + msg}
	}
	if c.Osc.Type != types.OscHSI || !c.Osc.On {
		return bad("HSI must be on")
	}
	if !mathx.IsPow2(c.Osc.HSIDiv) || c.Osc.HSIDiv > 128 {
		return bad("hsi_div")
	}
	if c.Clock.Source != types.SysclkHSI {
		return bad("sysclk source")
	}
	if !mathx.IsPow2(c.Clock.AHBDiv) || c.Clock.AHBDiv == 32 || c.Clock.AHBDiv > 512 {
		return bad("ahb_div")
	}
	if !mathx.IsPow2(c.Clock.APBDiv) || c.Clock.APBDiv > 16 {
		return bad("apb_div")
	}
	hclk := uint32(48_000_000) / uint32(c.Osc.HSIDiv) / uint32(c.Clock.AHBDiv)
	if c.Clock.FlashLatency > 1 || (hclk > zeroWaitMaxHz && c.Clock.FlashLatency == 0) {
		return bad("flash_latency")
	}
	if !chipHasPort(c.LED.Port) || !mathx.Between(c.LED.Pin, 0, 15) {
		return bad("led pin")
	}
	if c.LED.Mode != types.ModeOutputPP && c.LED.Mode != types.ModeOutputOD {
		return bad("led mode")
	}
	if c.PeriodMs == 0 {
		return bad("period_ms")
	}
	return nil
}

// chipHasPort reports whether the STM32C0 package bonds out a GPIO bank.
func chipHasPort(p types.Port) bool {
	switch p {
	case types.PortA, types.PortB, types.PortC, types.PortF:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// Publish puts a board setup on config/board as a retained message.
func Publish(conn *bus.Connection, c types.BoardConfig) {
	conn.Publish(conn.NewMessage(TopicBoard, c, true))
}

// publishConfig resolves the board named in ctx (default build board when
// absent) and publishes it.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) (types.BoardConfig, error) {
	name, _ := ctx.Value(CtxDeviceKey).(string)
	if name == "" {
		name = DefaultBoard
	}
	c, err := Lookup(name)
	if err != nil {
		return c, err
	}
	Publish(conn, c)
	return c, nil
}

// Start publishes the board setup synchronously, so the retained message is
// in place before any service that depends on it runs.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) (types.BoardConfig, error) {
	c, err := s.publishConfig(ctx, conn)
	if err != nil {
		println("[config] error:", err.Error())
	}
	return c, err
}
