//go:build !stm32c0

package hal

import (
	"testing"

	"c0blink/services/hal/internal/halcore"
)

func TestNewHAL_ResetClock(t *testing.T) {
	h, _ := NewSim(SimOptions{})
	if got := h.CoreClockHz(); got != 12_000_000 {
		t.Fatalf("reset core clock=%d want 12 MHz", got)
	}
	if got := h.PCLK1Hz(); got != 12_000_000 {
		t.Fatalf("reset PCLK1=%d", got)
	}
	if h.FlashLatency() != 0 {
		t.Fatal("reset latency should be 0")
	}
}

func TestInit_StartsTick(t *testing.T) {
	h, s := NewSim(SimOptions{})
	if err := h.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !s.ACR.HasBits(halcore.FLASH_ACR_PRFTEN) {
		t.Fatal("prefetch not enabled")
	}
	if got := s.RVR.Get(); got != 11_999 {
		t.Fatalf("RVR=%d want 11999", got)
	}
	want := uint32(halcore.SysTick_CSR_ENABLE | halcore.SysTick_CSR_TICKINT | halcore.SysTick_CSR_CLKSOURCE)
	if got := s.CSR.Get(); got != want {
		t.Fatalf("CSR=%#x want %#x", got, want)
	}

	s.FireTick()
	s.FireTick()
	if h.GetTick() != 2 {
		t.Fatalf("tick=%d want 2", h.GetTick())
	}
}

func TestPrimask_PassThrough(t *testing.T) {
	h, _ := NewSim(SimOptions{Primask: 1})
	if h.Primask() != 1 {
		t.Fatal("primask not reported")
	}
	if h.Trace() == nil {
		t.Fatal("trace writer must not be nil")
	}
}
