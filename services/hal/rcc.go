// services/hal/rcc.go
package hal

import (
	"c0blink/errcode"
	"c0blink/services/hal/internal/halcore"
	"c0blink/services/hal/internal/halerr"
	"c0blink/types"
	"c0blink/x/timex"
)

// -----------------------------------------------------------------------------
// Oscillator
// -----------------------------------------------------------------------------

// OscConfig enables the requested oscillator and waits for it to stabilise.
// The HSI divider feeds HSISYS directly, so when HSI already clocks the core
// the flash latency is raised first if the new frequency needs it, and the
// tick is re-programmed afterwards.
func (h *HAL) OscConfig(c types.OscConfig) error {
	const op = "osc_config"
	if c.Type != types.OscHSI {
		return errcode.Wrap(op, errcode.Unsupported, halerr.ErrUnsupported)
	}
	rcc := h.chip.RCC

	if !c.On {
		if h.sysclkSource() == types.SysclkHSI {
			// HSISYS cannot be stopped while it clocks the core.
			return errcode.Wrap(op, errcode.InvalidParams, halerr.ErrInvalidMode)
		}
		rcc.CR.ClearBits(halcore.RCC_CR_HSION)
		return h.waitFor(op, func() bool { return !rcc.CR.HasBits(halcore.RCC_CR_HSIRDY) },
			HSITimeout, errcode.Timeout, halerr.ErrHSINotReady)
	}

	div, ok := halcore.HSIDIVBits(c.HSIDiv)
	if !ok {
		return errcode.Wrap(op, errcode.InvalidParams, halerr.ErrInvalidDivider)
	}
	if h.sysclkSource() == types.SysclkHSI {
		hclk := h.hclkFor(halcore.HSIFreq>>div, h.hpreBits())
		if hclk > ZeroWaitMaxHz && h.FlashLatency() == 0 {
			if err := h.setLatency(op, MaxLatency); err != nil {
				return err
			}
		}
	}

	rcc.CR.ReplaceBits(div, halcore.RCC_CR_HSIDIV_Msk, halcore.RCC_CR_HSIDIV_Pos)
	rcc.CR.SetBits(halcore.RCC_CR_HSION)
	if err := h.waitFor(op, func() bool { return rcc.CR.HasBits(halcore.RCC_CR_HSIRDY) },
		HSITimeout, errcode.OscNotReady, halerr.ErrHSINotReady); err != nil {
		return err
	}

	h.coreClockHz = h.readCoreClock()
	return h.initTick()
}

// -----------------------------------------------------------------------------
// Bus clocks
// -----------------------------------------------------------------------------

// ClockConfig selects the SYSCLK source, bus dividers and flash latency.
// Order: raise latency, HCLK divider, switch SYSCLK and wait for SWS, lower
// latency, PCLK1 divider, then re-time the tick. Every parameter is checked
// before the first register write.
func (h *HAL) ClockConfig(c types.ClockConfig) error {
	const op = "clock_config"
	rcc := h.chip.RCC

	hpre := h.hpreBits()
	if c.Types&types.ClockHCLK != 0 {
		var ok bool
		if hpre, ok = halcore.HPREBits(c.AHBDiv); !ok {
			return errcode.Wrap(op, errcode.InvalidParams, halerr.ErrInvalidDivider)
		}
	}
	var ppre uint32
	if c.Types&types.ClockPCLK1 != 0 {
		var ok bool
		if ppre, ok = halcore.PPREBits(c.APBDiv); !ok {
			return errcode.Wrap(op, errcode.InvalidParams, halerr.ErrInvalidDivider)
		}
	}
	src := h.sysclkSource()
	if c.Types&types.ClockSYSCLK != 0 {
		if c.Source != types.SysclkHSI {
			return errcode.Wrap(op, errcode.Unsupported, halerr.ErrUnsupported)
		}
		src = c.Source
	}
	if c.FlashLatency > MaxLatency {
		return errcode.Wrap(op, errcode.InvalidParams, halerr.ErrLatencyTooHigh)
	}
	if h.hclkFor(h.sysclkHz(src), hpre) > ZeroWaitMaxHz && c.FlashLatency == 0 {
		return errcode.Wrap(op, errcode.InvalidParams, halerr.ErrLatencyTooLow)
	}

	cur := h.FlashLatency()
	if c.FlashLatency > cur {
		if err := h.setLatency(op, c.FlashLatency); err != nil {
			return err
		}
	}

	if c.Types&types.ClockHCLK != 0 {
		if c.Types&types.ClockPCLK1 != 0 {
			// Keep APB within limits while HCLK moves.
			rcc.CFGR.ReplaceBits(halcore.RCC_CFGR_PPRE_Div16, halcore.RCC_CFGR_PPRE_Msk, halcore.RCC_CFGR_PPRE_Pos)
		}
		rcc.CFGR.ReplaceBits(hpre, halcore.RCC_CFGR_HPRE_Msk, halcore.RCC_CFGR_HPRE_Pos)
	}

	if c.Types&types.ClockSYSCLK != 0 {
		if !rcc.CR.HasBits(halcore.RCC_CR_HSIRDY) {
			return &errcode.E{C: errcode.ClockSwitchFailed, Op: op, Msg: "source not ready", Err: halerr.ErrHSINotReady}
		}
		rcc.CFGR.ReplaceBits(uint32(c.Source), halcore.RCC_CFGR_SW_Msk, halcore.RCC_CFGR_SW_Pos)
		if err := h.waitFor(op, func() bool { return h.sysclkSource() == c.Source },
			ClockSwitchTimeout, errcode.ClockSwitchFailed, halerr.ErrSWSMismatch); err != nil {
			return err
		}
	}

	if c.FlashLatency < cur {
		if err := h.setLatency(op, c.FlashLatency); err != nil {
			return err
		}
	}

	if c.Types&types.ClockPCLK1 != 0 {
		rcc.CFGR.ReplaceBits(ppre, halcore.RCC_CFGR_PPRE_Msk, halcore.RCC_CFGR_PPRE_Pos)
	}

	h.coreClockHz = h.readCoreClock()
	return h.initTick()
}

// ---- helpers ----

func (h *HAL) hpreBits() uint32 {
	return (h.chip.RCC.CFGR.Get() >> halcore.RCC_CFGR_HPRE_Pos) & halcore.RCC_CFGR_HPRE_Msk
}

func (h *HAL) hclkFor(sysclk uint32, hpre uint32) uint32 {
	return sysclk >> halcore.HPREShift(hpre)
}

// sysclkHz is the frequency src would deliver with the current dividers.
func (h *HAL) sysclkHz(src types.SysclkSource) uint32 {
	if src != types.SysclkHSI {
		return 0
	}
	div := (h.chip.RCC.CR.Get() >> halcore.RCC_CR_HSIDIV_Pos) & halcore.RCC_CR_HSIDIV_Msk
	return halcore.HSIFreq >> div
}

func (h *HAL) setLatency(op string, ws uint8) error {
	h.chip.FLASH.ACR.ReplaceBits(uint32(ws), halcore.FLASH_ACR_LATENCY_Msk, halcore.FLASH_ACR_LATENCY_Pos)
	if h.FlashLatency() != ws {
		return &errcode.E{C: errcode.FlashLatency, Op: op, Err: halerr.ErrLatencyReadback}
	}
	return nil
}

// waitFor polls ready until it holds or timeout ticks elapse.
func (h *HAL) waitFor(op string, ready func() bool, timeout uint32, code errcode.Code, cause error) error {
	start := h.GetTick()
	for !ready() {
		if timex.Since(start, h.GetTick()) > timeout {
			return &errcode.E{C: code, Op: op, Msg: "timeout", Err: cause}
		}
		h.chip.CPU.Idle()
	}
	return nil
}
