// services/hal/internal/platform/factories_stm32c0.go
//go:build stm32c0

package platform

import (
	"device/arm"
	"runtime/volatile"
	"unsafe"

	"c0blink/services/hal/internal/halcore"
	"c0blink/types"
)

// Peripheral base addresses (RM0490 memory map).
const (
	rccBase     = 0x4002_1000
	flashBase   = 0x4002_2000
	gpioABase   = 0x5000_0000
	gpioBBase   = 0x5000_0400
	gpioCBase   = 0x5000_0800
	gpioFBase   = 0x5000_1400
	sysTickBase = 0xE000_E010
)

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

func gpioAt(base uintptr) *halcore.GPIO {
	return &halcore.GPIO{
		MODER:   reg(base + 0x00),
		OTYPER:  reg(base + 0x04),
		OSPEEDR: reg(base + 0x08),
		PUPDR:   reg(base + 0x0C),
		IDR:     reg(base + 0x10),
		ODR:     reg(base + 0x14),
		BSRR:    reg(base + 0x18),
	}
}

// DefaultChip maps the STM32C011 registers in place.
func DefaultChip() *halcore.Chip {
	return &halcore.Chip{
		RCC: &halcore.RCC{
			CR:     reg(rccBase + 0x00),
			CFGR:   reg(rccBase + 0x08),
			IOPENR: reg(rccBase + 0x34),
		},
		FLASH: &halcore.FLASH{ACR: reg(flashBase + 0x00)},
		GPIO: map[types.Port]*halcore.GPIO{
			types.PortA: gpioAt(gpioABase),
			types.PortB: gpioAt(gpioBBase),
			types.PortC: gpioAt(gpioCBase),
			types.PortF: gpioAt(gpioFBase),
		},
		SysTick: &halcore.SysTick{
			CSR: reg(sysTickBase + 0x00),
			RVR: reg(sysTickBase + 0x04),
			CVR: reg(sysTickBase + 0x08),
		},
		CPU:   cortexM0{},
		Trace: console(),
	}
}

// ---- CPU ----

var tickHandler func()

//export SysTick_Handler
func sysTickHandler() {
	if fn := tickHandler; fn != nil {
		fn()
	}
}

type cortexM0 struct{}

func (cortexM0) Primask() uint32 {
	return uint32(arm.AsmFull("mrs {}, PRIMASK", nil))
}

func (cortexM0) Idle() { arm.Asm("nop") }

// Halt spins with interrupts left as they are.
func (cortexM0) Halt() {
	for {
		arm.Asm("nop")
	}
}

func (cortexM0) SetTickHandler(fn func()) { tickHandler = fn }
