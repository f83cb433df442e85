// services/hal/gpio.go
package hal

import (
	"c0blink/errcode"
	"c0blink/services/hal/internal/halcore"
	"c0blink/services/hal/internal/halerr"
	"c0blink/types"
)

// InitPin gates the port clock on and programs one pin. Writing the same
// configuration again leaves every register unchanged.
func (h *HAL) InitPin(c types.PinConfig) error {
	const op = "init_pin"
	g, ok := h.chip.GPIO[c.Port]
	if !ok || c.Pin > 15 {
		return errcode.Wrap(op, errcode.UnknownPin, halerr.ErrUnknownPin)
	}
	if c.Mode > types.ModeOutputOD || c.Pull > types.PullDown || c.Speed > types.SpeedVeryHigh {
		return errcode.Wrap(op, errcode.InvalidParams, halerr.ErrInvalidMode)
	}

	rcc := h.chip.RCC
	rcc.IOPENR.SetBits(halcore.PortEnableBit(c.Port))
	_ = rcc.IOPENR.Get() // read back: the port needs the gate to settle

	pos := c.Pin * 2
	if c.Mode == types.ModeOutputPP || c.Mode == types.ModeOutputOD {
		g.OSPEEDR.ReplaceBits(uint32(c.Speed), 0x3, pos)
		var od uint32
		if c.Mode == types.ModeOutputOD {
			od = 1
		}
		g.OTYPER.ReplaceBits(od, 0x1, c.Pin)
	}
	g.PUPDR.ReplaceBits(uint32(c.Pull), 0x3, pos)
	g.MODER.ReplaceBits(halcore.EncodeModer(c.Mode), 0x3, pos)
	return nil
}

// WritePin drives one output through BSRR.
func (h *HAL) WritePin(p types.Port, pin uint8, high bool) {
	g, ok := h.chip.GPIO[p]
	if !ok {
		return
	}
	if high {
		g.BSRR.Set(1 << pin)
	} else {
		g.BSRR.Set(1 << (pin + 16))
	}
}

// TogglePin inverts one output in a single BSRR write.
func (h *HAL) TogglePin(p types.Port, pin uint8) {
	g, ok := h.chip.GPIO[p]
	if !ok {
		return
	}
	odr := g.ODR.Get()
	mask := uint32(1) << pin
	g.BSRR.Set((odr&mask)<<16 | ^odr&mask)
}

// OutputHigh reports the output latch of one pin.
func (h *HAL) OutputHigh(p types.Port, pin uint8) bool {
	g, ok := h.chip.GPIO[p]
	if !ok {
		return false
	}
	return g.ODR.Get()&(1<<pin) != 0
}
