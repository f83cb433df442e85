//go:build !stm32c0

package hal

import (
	"testing"

	"c0blink/errcode"
	"c0blink/services/hal/internal/halcore"
	"c0blink/types"
)

var pa0 = types.PinConfig{Port: types.PortA, Pin: 0, Mode: types.ModeOutputPP, Pull: types.PullNone, Speed: types.SpeedLow}

func TestInitPin_PA0(t *testing.T) {
	h, s := NewSim(SimOptions{})
	if err := h.InitPin(pa0); err != nil {
		t.Fatalf("InitPin: %v", err)
	}
	if !s.IOPENR.HasBits(halcore.PortEnableBit(types.PortA)) {
		t.Fatal("GPIOA clock not enabled")
	}
	g := s.Ports[types.PortA]
	if got := g.MODER.Get() & 0x3; got != halcore.ModerOutput {
		t.Fatalf("MODER0=%d", got)
	}
	if got := g.MODER.Get() &^ 0x3; got != halcore.GPIOA_MODER_ResetValue&^0x3 {
		t.Fatalf("other MODER fields changed: %#x", got)
	}
	if g.OTYPER.Get()&1 != 0 || g.OSPEEDR.Get()&0x3 != 0 || g.PUPDR.Get()&0x3 != 0 {
		t.Fatal("PA0 should be push-pull, low speed, no pull")
	}
	if g.PUPDR.Get() != halcore.GPIOA_PUPDR_ResetValue {
		t.Fatal("SWD pulls must survive")
	}
	if s.OutputWrites(types.PortA) != 0 {
		t.Fatal("configuration must not drive the pin")
	}
}

func TestInitPin_Idempotent(t *testing.T) {
	h, s := NewSim(SimOptions{})
	if err := h.InitPin(pa0); err != nil {
		t.Fatal(err)
	}
	g := s.Ports[types.PortA]
	snap := func() [5]uint32 {
		return [5]uint32{s.IOPENR.Get(), g.MODER.Get(), g.OTYPER.Get(), g.OSPEEDR.Get(), g.PUPDR.Get()}
	}
	first := snap()
	if err := h.InitPin(pa0); err != nil {
		t.Fatal(err)
	}
	if snap() != first {
		t.Fatalf("second InitPin changed registers: %v -> %v", first, snap())
	}
}

func TestInitPin_Rejects(t *testing.T) {
	h, _ := NewSim(SimOptions{})
	bad := pa0
	bad.Port = types.PortD
	if got := errcode.Of(h.InitPin(bad)); got != errcode.UnknownPin {
		t.Fatalf("port D: %v", got)
	}
	bad = pa0
	bad.Pin = 16
	if got := errcode.Of(h.InitPin(bad)); got != errcode.UnknownPin {
		t.Fatalf("pin 16: %v", got)
	}
	bad = pa0
	bad.Speed = 7
	if got := errcode.Of(h.InitPin(bad)); got != errcode.InvalidParams {
		t.Fatalf("speed 7: %v", got)
	}
}

func TestWriteAndToggle(t *testing.T) {
	h, s := NewSim(SimOptions{})
	if err := h.InitPin(pa0); err != nil {
		t.Fatal(err)
	}
	h.WritePin(types.PortA, 1, true) // neighbour must not move

	h.WritePin(types.PortA, 0, true)
	if !h.OutputHigh(types.PortA, 0) {
		t.Fatal("WritePin high")
	}
	for i := 0; i < 4; i++ {
		was := h.OutputHigh(types.PortA, 0)
		h.TogglePin(types.PortA, 0)
		if h.OutputHigh(types.PortA, 0) == was {
			t.Fatalf("toggle %d did not invert", i)
		}
		if !s.PinHigh(types.PortA, 1) {
			t.Fatal("toggle disturbed PA1")
		}
	}
	h.WritePin(types.PortA, 0, false)
	if h.OutputHigh(types.PortA, 0) {
		t.Fatal("WritePin low")
	}
}
