// services/hal/tick.go
package hal

import (
	"sync/atomic"

	"c0blink/x/timex"
)

// Tick is the millisecond time base. The SysTick interrupt is its only
// writer; readers may see it move between two loads.
type Tick struct {
	n atomic.Uint32
}

func (t *Tick) Inc()        { t.n.Add(TickFreqMs) }
func (t *Tick) Get() uint32 { return t.n.Load() }

// IncTick is the SysTick interrupt body.
func (h *HAL) IncTick() { h.tick.Inc() }

// GetTick returns the milliseconds elapsed since Init, modulo 2^32.
func (h *HAL) GetTick() uint32 { return h.tick.Get() }

// Delay blocks for at least ms milliseconds by polling the tick. One extra
// tick is added because the first one may arrive immediately.
func (h *HAL) Delay(ms uint32) {
	start := h.GetTick()
	wait := ms
	if wait < MaxDelay {
		wait += TickFreqMs
	}
	for !timex.Reached(start, h.GetTick(), wait) {
		h.chip.CPU.Idle()
	}
}
