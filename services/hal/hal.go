// services/hal/hal.go
package hal

import (
	"io"

	"c0blink/errcode"
	"c0blink/services/hal/internal/halcore"
	"c0blink/services/hal/internal/halerr"
	"c0blink/services/hal/internal/platform"
	"c0blink/types"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	// TickFreqMs is the SysTick period in milliseconds.
	TickFreqMs = 1
	// MaxDelay disables the extra tick Delay adds for its minimum guarantee.
	MaxDelay = 0xFFFF_FFFF

	// Timeouts, in ticks.
	HSITimeout         = 2
	ClockSwitchTimeout = 5000

	// Flash needs one wait state above this HCLK.
	ZeroWaitMaxHz = 24_000_000
	MaxLatency    = 1
)

// -----------------------------------------------------------------------------
// HAL
// -----------------------------------------------------------------------------

// HAL drives the clock tree, GPIO and SysTick of one chip.
type HAL struct {
	chip        *halcore.Chip
	tick        Tick
	coreClockHz uint32
}

// Open binds a HAL to the platform's chip: memory-mapped registers on the
// device, a wall-clock simulator on the host.
func Open() *HAL { return newHAL(platform.DefaultChip()) }

func newHAL(chip *halcore.Chip) *HAL {
	h := &HAL{chip: chip}
	h.coreClockHz = h.readCoreClock()
	return h
}

// Init enables flash prefetch and starts the 1 ms tick at the current core
// clock. The SysTick interrupt is live once Init returns.
func (h *HAL) Init() error {
	h.chip.FLASH.ACR.SetBits(halcore.FLASH_ACR_PRFTEN)
	h.coreClockHz = h.readCoreClock()
	h.chip.CPU.SetTickHandler(h.IncTick)
	return h.initTick()
}

func (h *HAL) initTick() error {
	reload := h.coreClockHz/(1000/TickFreqMs) - 1
	if h.coreClockHz == 0 || reload > halcore.SysTick_RVR_Max {
		return &errcode.E{C: errcode.InvalidParams, Op: "init_tick", Err: halerr.ErrTickReload}
	}
	st := h.chip.SysTick
	st.CSR.ClearBits(halcore.SysTick_CSR_ENABLE)
	st.RVR.Set(reload)
	st.CVR.Set(0)
	st.CSR.Set(halcore.SysTick_CSR_CLKSOURCE | halcore.SysTick_CSR_TICKINT | halcore.SysTick_CSR_ENABLE)
	return nil
}

// readCoreClock derives HCLK from the live RCC registers.
func (h *HAL) readCoreClock() uint32 {
	cfgr := h.chip.RCC.CFGR.Get()
	var sys uint32
	if h.sysclkSource() == types.SysclkHSI {
		div := (h.chip.RCC.CR.Get() >> halcore.RCC_CR_HSIDIV_Pos) & halcore.RCC_CR_HSIDIV_Msk
		sys = halcore.HSIFreq >> div
	}
	return sys >> halcore.HPREShift((cfgr>>halcore.RCC_CFGR_HPRE_Pos)&halcore.RCC_CFGR_HPRE_Msk)
}

func (h *HAL) sysclkSource() types.SysclkSource {
	cfgr := h.chip.RCC.CFGR.Get()
	return types.SysclkSource((cfgr >> halcore.RCC_CFGR_SWS_Pos) & halcore.RCC_CFGR_SWS_Msk)
}

// CoreClockHz returns HCLK as last programmed.
func (h *HAL) CoreClockHz() uint32 { return h.coreClockHz }

// PCLK1Hz returns the APB clock.
func (h *HAL) PCLK1Hz() uint32 {
	ppre := (h.chip.RCC.CFGR.Get() >> halcore.RCC_CFGR_PPRE_Pos) & halcore.RCC_CFGR_PPRE_Msk
	return h.coreClockHz >> halcore.PPREShift(ppre)
}

// FlashLatency returns the programmed wait-state count.
func (h *HAL) FlashLatency() uint8 {
	return uint8((h.chip.FLASH.ACR.Get() >> halcore.FLASH_ACR_LATENCY_Pos) & halcore.FLASH_ACR_LATENCY_Msk)
}

// Primask reads the interrupt mask of the core.
func (h *HAL) Primask() uint32 { return h.chip.CPU.Primask() }

// Trace is the debug console.
func (h *HAL) Trace() io.Writer { return h.chip.Trace }

// Halt stops all further execution. It never returns.
func (h *HAL) Halt() {
	h.chip.CPU.Halt()
	for {
	}
}
