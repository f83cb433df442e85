// services/hal/internal/platform/factories_host.go
//go:build !stm32c0

package platform

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"c0blink/services/hal/internal/halcore"
	"c0blink/types"
)

// ----------------------------- Registers (host) ------------------------------

// SimReg is a mutex-guarded 32-bit register with optional side effects.
type SimReg struct {
	mu     sync.Mutex
	v      uint32
	writes int
	// onWrite returns the value that actually sticks.
	onWrite func(old, new uint32) uint32
}

func newReg(reset uint32) *SimReg { return &SimReg{v: reset} }

func (r *SimReg) Get() uint32 {
	r.mu.Lock()
	v := r.v
	r.mu.Unlock()
	return v
}

func (r *SimReg) store(next func(old uint32) uint32) {
	r.mu.Lock()
	old := r.v
	v := next(old)
	if r.onWrite != nil {
		v = r.onWrite(old, v)
	}
	r.v = v
	r.writes++
	r.mu.Unlock()
}

func (r *SimReg) Set(value uint32) {
	r.store(func(uint32) uint32 { return value })
}

func (r *SimReg) SetBits(value uint32) {
	r.store(func(old uint32) uint32 { return old | value })
}

func (r *SimReg) ClearBits(value uint32) {
	r.store(func(old uint32) uint32 { return old &^ value })
}

func (r *SimReg) HasBits(value uint32) bool { return r.Get()&value > 0 }

func (r *SimReg) ReplaceBits(value uint32, mask uint32, pos uint8) {
	r.store(func(old uint32) uint32 { return old&^(mask<<pos) | value<<pos })
}

// Writes reports how many stores hit the register.
func (r *SimReg) Writes() int {
	r.mu.Lock()
	n := r.writes
	r.mu.Unlock()
	return n
}

// ----------------------------- Chip (host) -----------------------------------

// SimOptions selects fault injection and timing for a Sim.
type SimOptions struct {
	FailOscillator  bool // HSIRDY never sets once HSI is reprogrammed
	FailClockSwitch bool // RCC_CFGR.SWS reports a source other than SW
	FailLatency     bool // FLASH_ACR.LATENCY ignores writes
	Primask         uint32
	// RealTime fires SysTick from the wall clock instead of once per Idle.
	RealTime bool
	Trace    io.Writer
}

// SimGPIO exposes the simulated registers of one port.
type SimGPIO struct {
	MODER, OTYPER, OSPEEDR, PUPDR, IDR, ODR, BSRR *SimReg
}

// Sim is a register-level model of an STM32C011 that satisfies halcore.CPU.
type Sim struct {
	opts SimOptions

	CR, CFGR, IOPENR *SimReg
	ACR              *SimReg
	CSR, RVR, CVR    *SimReg
	Ports            map[types.Port]*SimGPIO

	mu       sync.Mutex
	tick     func()
	lastFire time.Time

	idles    atomic.Uint64
	halted   chan struct{}
	haltOnce sync.Once
	chip     *halcore.Chip
}

// NewSim builds a chip in its post-reset state.
func NewSim(opts SimOptions) *Sim {
	s := &Sim{
		opts:   opts,
		CR:     newReg(halcore.RCC_CR_ResetValue),
		CFGR:   newReg(0),
		IOPENR: newReg(0),
		ACR:    newReg(halcore.FLASH_ACR_ResetValue),
		CSR:    newReg(0),
		RVR:    newReg(0),
		CVR:    newReg(0),
		Ports:  make(map[types.Port]*SimGPIO),
		halted: make(chan struct{}),
	}

	s.CR.onWrite = func(_, v uint32) uint32 {
		if v&halcore.RCC_CR_HSION == 0 || s.opts.FailOscillator {
			return v &^ halcore.RCC_CR_HSIRDY
		}
		return v | halcore.RCC_CR_HSIRDY
	}
	s.CFGR.onWrite = func(_, v uint32) uint32 {
		sws := (v >> halcore.RCC_CFGR_SW_Pos) & halcore.RCC_CFGR_SW_Msk
		if s.opts.FailClockSwitch {
			sws = ^sws & halcore.RCC_CFGR_SWS_Msk
		}
		v &^= halcore.RCC_CFGR_SWS_Msk << halcore.RCC_CFGR_SWS_Pos
		return v | sws<<halcore.RCC_CFGR_SWS_Pos
	}
	s.ACR.onWrite = func(old, v uint32) uint32 {
		if !s.opts.FailLatency {
			return v
		}
		const m = halcore.FLASH_ACR_LATENCY_Msk << halcore.FLASH_ACR_LATENCY_Pos
		return v&^m | old&m
	}
	s.CVR.onWrite = func(_, _ uint32) uint32 { return 0 }

	for _, p := range []types.Port{types.PortA, types.PortB, types.PortC, types.PortF} {
		s.Ports[p] = newSimGPIO(p)
	}

	trace := opts.Trace
	if trace == nil {
		trace = io.Discard
	}
	gpio := make(map[types.Port]*halcore.GPIO, len(s.Ports))
	for p, g := range s.Ports {
		gpio[p] = &halcore.GPIO{
			MODER: g.MODER, OTYPER: g.OTYPER, OSPEEDR: g.OSPEEDR, PUPDR: g.PUPDR,
			IDR: g.IDR, ODR: g.ODR, BSRR: g.BSRR,
		}
	}
	s.chip = &halcore.Chip{
		RCC:     &halcore.RCC{CR: s.CR, CFGR: s.CFGR, IOPENR: s.IOPENR},
		FLASH:   &halcore.FLASH{ACR: s.ACR},
		GPIO:    gpio,
		SysTick: &halcore.SysTick{CSR: s.CSR, RVR: s.RVR, CVR: s.CVR},
		CPU:     s,
		Trace:   trace,
	}
	return s
}

func newSimGPIO(p types.Port) *SimGPIO {
	g := &SimGPIO{
		MODER:   newReg(halcore.GPIOx_MODER_ResetValue),
		OTYPER:  newReg(0),
		OSPEEDR: newReg(0),
		PUPDR:   newReg(0),
		IDR:     newReg(0),
		ODR:     newReg(0),
		BSRR:    newReg(0),
	}
	if p == types.PortA {
		g.MODER = newReg(halcore.GPIOA_MODER_ResetValue)
		g.OSPEEDR = newReg(halcore.GPIOA_OSPEEDR_ResetValue)
		g.PUPDR = newReg(halcore.GPIOA_PUPDR_ResetValue)
	}
	// BSRR is write-only: apply to ODR, read back as zero. Set wins over reset.
	g.BSRR.onWrite = func(_, v uint32) uint32 {
		set, reset := v&0xFFFF, v>>16
		g.ODR.store(func(old uint32) uint32 { return old&^reset | set })
		return 0
	}
	return g
}

// Chip returns the halcore view of the simulated device.
func (s *Sim) Chip() *halcore.Chip { return s.chip }

// OutputWrites counts ODR stores of a port, including those caused by BSRR.
func (s *Sim) OutputWrites(p types.Port) int {
	g, ok := s.Ports[p]
	if !ok {
		return 0
	}
	return g.ODR.Writes()
}

// PinHigh reports the output latch of one pin.
func (s *Sim) PinHigh(p types.Port, pin uint8) bool {
	g, ok := s.Ports[p]
	if !ok {
		return false
	}
	return g.ODR.Get()&(1<<pin) != 0
}

// Idles reports how many polling iterations the firmware performed.
func (s *Sim) Idles() uint64 { return s.idles.Load() }

// Halted is closed once the firmware enters its terminal halt.
func (s *Sim) Halted() <-chan struct{} { return s.halted }

// FireTick runs the installed SysTick body once, as the interrupt would.
func (s *Sim) FireTick() {
	s.mu.Lock()
	fn := s.tick
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// ---- halcore.CPU ----

func (s *Sim) Primask() uint32 { return s.opts.Primask }

func (s *Sim) SetTickHandler(fn func()) {
	s.mu.Lock()
	s.tick = fn
	s.lastFire = time.Time{}
	s.mu.Unlock()
}

func (s *Sim) Idle() {
	s.idles.Add(1)
	const live = halcore.SysTick_CSR_ENABLE | halcore.SysTick_CSR_TICKINT
	if s.CSR.Get()&live != live || s.opts.Primask != 0 {
		runtime.Gosched()
		return
	}
	if !s.opts.RealTime {
		s.FireTick()
		return
	}
	s.mu.Lock()
	now := time.Now()
	if s.lastFire.IsZero() {
		s.lastFire = now
	}
	n := 0
	for now.Sub(s.lastFire) >= time.Millisecond {
		s.lastFire = s.lastFire.Add(time.Millisecond)
		n++
	}
	s.mu.Unlock()
	for ; n > 0; n-- {
		s.FireTick()
	}
	time.Sleep(50 * time.Microsecond)
}

func (s *Sim) Halt() {
	s.haltOnce.Do(func() { close(s.halted) })
	select {}
}

// DefaultChip provides a wall-clock simulated chip for host builds.
func DefaultChip() *halcore.Chip {
	return NewSim(SimOptions{RealTime: true}).Chip()
}
