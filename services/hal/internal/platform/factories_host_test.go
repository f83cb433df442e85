//go:build !stm32c0

package platform

import (
	"testing"
	"time"

	"c0blink/services/hal/internal/halcore"
	"c0blink/types"
)

func TestSim_ResetState(t *testing.T) {
	s := NewSim(SimOptions{})
	if !s.CR.HasBits(halcore.RCC_CR_HSIRDY) {
		t.Fatal("HSI should be ready out of reset")
	}
	if got := s.Ports[types.PortA].MODER.Get(); got != halcore.GPIOA_MODER_ResetValue {
		t.Fatalf("GPIOA MODER reset=%#x", got)
	}
	if s.OutputWrites(types.PortA) != 0 {
		t.Fatal("fresh chip should have no ODR writes")
	}
	if s.Chip().Trace == nil {
		t.Fatal("trace writer must never be nil")
	}
}

func TestSim_HSIReadyFollowsEnable(t *testing.T) {
	s := NewSim(SimOptions{})
	s.CR.ClearBits(halcore.RCC_CR_HSION)
	if s.CR.HasBits(halcore.RCC_CR_HSIRDY) {
		t.Fatal("HSIRDY should drop with HSION")
	}
	s.CR.SetBits(halcore.RCC_CR_HSION)
	if !s.CR.HasBits(halcore.RCC_CR_HSIRDY) {
		t.Fatal("HSIRDY should follow HSION")
	}

	f := NewSim(SimOptions{FailOscillator: true})
	f.CR.SetBits(halcore.RCC_CR_HSION)
	if f.CR.HasBits(halcore.RCC_CR_HSIRDY) {
		t.Fatal("FailOscillator must keep HSIRDY low")
	}
}

func TestSim_SWSMirrorsSW(t *testing.T) {
	s := NewSim(SimOptions{})
	s.CFGR.ReplaceBits(4, halcore.RCC_CFGR_SW_Msk, halcore.RCC_CFGR_SW_Pos)
	if sws := (s.CFGR.Get() >> halcore.RCC_CFGR_SWS_Pos) & halcore.RCC_CFGR_SWS_Msk; sws != 4 {
		t.Fatalf("SWS=%d want 4", sws)
	}

	f := NewSim(SimOptions{FailClockSwitch: true})
	f.CFGR.ReplaceBits(0, halcore.RCC_CFGR_SW_Msk, halcore.RCC_CFGR_SW_Pos)
	if sws := (f.CFGR.Get() >> halcore.RCC_CFGR_SWS_Pos) & halcore.RCC_CFGR_SWS_Msk; sws == 0 {
		t.Fatal("FailClockSwitch must keep SWS away from SW")
	}
}

func TestSim_LatencyFault(t *testing.T) {
	f := NewSim(SimOptions{FailLatency: true})
	f.ACR.ReplaceBits(1, halcore.FLASH_ACR_LATENCY_Msk, halcore.FLASH_ACR_LATENCY_Pos)
	if f.ACR.Get()&halcore.FLASH_ACR_LATENCY_Msk != 0 {
		t.Fatal("latency should not stick")
	}
	f.ACR.SetBits(halcore.FLASH_ACR_PRFTEN)
	if !f.ACR.HasBits(halcore.FLASH_ACR_PRFTEN) {
		t.Fatal("other ACR bits must still be writable")
	}
}

func TestSim_BSRRDrivesODR(t *testing.T) {
	s := NewSim(SimOptions{})
	g := s.Ports[types.PortA]
	g.BSRR.Set(1 << 0)
	if !s.PinHigh(types.PortA, 0) {
		t.Fatal("BSRR set should raise PA0")
	}
	if g.BSRR.Get() != 0 {
		t.Fatal("BSRR must read as zero")
	}
	g.BSRR.Set(1 << 16)
	if s.PinHigh(types.PortA, 0) {
		t.Fatal("BSRR reset should lower PA0")
	}
	g.BSRR.Set(1<<16 | 1)
	if !s.PinHigh(types.PortA, 0) {
		t.Fatal("set must win over reset")
	}
	if n := s.OutputWrites(types.PortA); n != 3 {
		t.Fatalf("OutputWrites=%d want 3", n)
	}
}

func TestSim_IdleFiresTickOnlyWhenLive(t *testing.T) {
	s := NewSim(SimOptions{})
	n := 0
	s.SetTickHandler(func() { n++ })

	s.Idle()
	if n != 0 {
		t.Fatal("tick fired with SysTick disabled")
	}
	s.CSR.Set(halcore.SysTick_CSR_ENABLE | halcore.SysTick_CSR_TICKINT | halcore.SysTick_CSR_CLKSOURCE)
	s.Idle()
	s.Idle()
	if n != 2 {
		t.Fatalf("ticks=%d want 2", n)
	}
	if s.Idles() != 3 {
		t.Fatalf("Idles=%d want 3", s.Idles())
	}

	m := NewSim(SimOptions{Primask: 1})
	fired := false
	m.SetTickHandler(func() { fired = true })
	m.CSR.Set(halcore.SysTick_CSR_ENABLE | halcore.SysTick_CSR_TICKINT)
	m.Idle()
	if fired {
		t.Fatal("tick must not fire with PRIMASK set")
	}
}

func TestSim_RealTimeFiresFromWallClock(t *testing.T) {
	s := NewSim(SimOptions{RealTime: true})
	var n int
	s.SetTickHandler(func() { n++ })
	s.CSR.Set(halcore.SysTick_CSR_ENABLE | halcore.SysTick_CSR_TICKINT)
	deadline := time.Now().Add(2 * time.Second)
	for n < 5 && time.Now().Before(deadline) {
		s.Idle()
	}
	if n < 5 {
		t.Fatalf("only %d ticks in 2s", n)
	}
}

func TestSim_HaltBlocks(t *testing.T) {
	s := NewSim(SimOptions{})
	go s.Halt()
	select {
	case <-s.Halted():
	case <-time.After(time.Second):
		t.Fatal("Halted not signalled")
	}
}
