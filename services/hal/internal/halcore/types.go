// services/hal/internal/halcore/types.go
package halcore

import (
	"io"

	"c0blink/types"
	"c0blink/x/mathx"
)

// Register is the subset of runtime/volatile.Register32 the HAL touches.
// *volatile.Register32 satisfies it on the device; the host simulator
// provides its own implementation.
type Register interface {
	Get() uint32
	Set(value uint32)
	SetBits(value uint32)
	ClearBits(value uint32)
	HasBits(value uint32) bool
	ReplaceBits(value uint32, mask uint32, pos uint8)
}

// ---- Register blocks ----

type RCC struct {
	CR     Register
	CFGR   Register
	IOPENR Register
}

type FLASH struct {
	ACR Register
}

type GPIO struct {
	MODER   Register
	OTYPER  Register
	OSPEEDR Register
	PUPDR   Register
	IDR     Register
	ODR     Register
	BSRR    Register
}

type SysTick struct {
	CSR Register
	RVR Register
	CVR Register
}

// CPU covers the core-level operations that are not memory mapped.
type CPU interface {
	// Primask returns the current PRIMASK (1 = interrupts masked).
	Primask() uint32
	// Idle is called on every iteration of a polling loop.
	Idle()
	// Halt never returns.
	Halt()
	// SetTickHandler installs the SysTick interrupt body.
	SetTickHandler(fn func())
}

// Chip bundles everything the HAL drives.
type Chip struct {
	RCC     *RCC
	FLASH   *FLASH
	GPIO    map[types.Port]*GPIO
	SysTick *SysTick
	CPU     CPU
	Trace   io.Writer // debug console; never nil
}

// ---- Bit definitions (RM0490) ----

const (
	HSIFreq = 48_000_000

	// RCC_CR
	RCC_CR_HSION      = 1 << 8
	RCC_CR_HSIKERON   = 1 << 9
	RCC_CR_HSIRDY     = 1 << 10
	RCC_CR_HSIDIV_Pos = 11
	RCC_CR_HSIDIV_Msk = 0x7
	RCC_CR_ResetValue = 0x0000_1540 // HSION|HSIRDY, HSIDIV=/4, HSIKERDIV=/3

	// RCC_CFGR
	RCC_CFGR_SW_Pos     = 0
	RCC_CFGR_SW_Msk     = 0x7
	RCC_CFGR_SWS_Pos    = 3
	RCC_CFGR_SWS_Msk    = 0x7
	RCC_CFGR_HPRE_Pos   = 8
	RCC_CFGR_HPRE_Msk   = 0xF
	RCC_CFGR_PPRE_Pos   = 12
	RCC_CFGR_PPRE_Msk   = 0x7
	RCC_CFGR_PPRE_Div16 = 0x7

	// FLASH_ACR
	FLASH_ACR_LATENCY_Pos = 0
	FLASH_ACR_LATENCY_Msk = 0x7
	FLASH_ACR_PRFTEN      = 1 << 8
	FLASH_ACR_ICEN        = 1 << 9
	FLASH_ACR_ResetValue  = 0x0004_0600

	// GPIOA reset values (PA13/PA14 in SWD alternate function)
	GPIOA_MODER_ResetValue   = 0xEBFF_FFFF
	GPIOA_OSPEEDR_ResetValue = 0x0C00_0000
	GPIOA_PUPDR_ResetValue   = 0x2400_0000
	GPIOx_MODER_ResetValue   = 0xFFFF_FFFF

	// SysTick
	SysTick_CSR_ENABLE    = 1 << 0
	SysTick_CSR_TICKINT   = 1 << 1
	SysTick_CSR_CLKSOURCE = 1 << 2
	SysTick_RVR_Max       = 0x00FF_FFFF
)

// MODER / OSPEEDR / PUPDR field values
const (
	ModerInput  = 0x0
	ModerOutput = 0x1
	ModerAF     = 0x2
	ModerAnalog = 0x3
)

// PortEnableBit returns the RCC_IOPENR bit gating a GPIO bank.
func PortEnableBit(p types.Port) uint32 { return 1 << uint32(p) }

// ---- Divider encodings ----

// HSIDIVBits encodes an HSI divider (1..128, power of two).
func HSIDIVBits(div uint8) (uint32, bool) {
	if !mathx.IsPow2(div) {
		return 0, false
	}
	return uint32(mathx.Log2(div)), true
}

// HPREBits encodes an AHB divider. /32 does not exist on this family.
func HPREBits(div uint16) (uint32, bool) {
	switch {
	case div == 1:
		return 0, true
	case !mathx.IsPow2(div) || div == 32 || div > 512:
		return 0, false
	}
	n := uint32(mathx.Log2(div)) // 1..9, skipping 5
	if n > 5 {
		n--
	}
	return 0x8 | (n - 1), true
}

// HPREShift returns the right shift an HPRE field applies to SYSCLK.
func HPREShift(bits uint32) uint8 {
	if bits&0x8 == 0 {
		return 0
	}
	n := uint8(bits&0x7) + 1
	if n > 4 {
		n++
	}
	return n
}

// PPREBits encodes an APB divider (1..16).
func PPREBits(div uint8) (uint32, bool) {
	switch {
	case div == 1:
		return 0, true
	case !mathx.IsPow2(div) || div > 16:
		return 0, false
	}
	return 0x4 | uint32(mathx.Log2(div)-1), true
}

// PPREShift returns the right shift a PPRE field applies to HCLK.
func PPREShift(bits uint32) uint8 {
	if bits&0x4 == 0 {
		return 0
	}
	return uint8(bits&0x3) + 1
}

// EncodeModer maps a pin mode to its MODER field.
func EncodeModer(m types.PinMode) uint32 {
	switch m {
	case types.ModeOutputPP, types.ModeOutputOD:
		return ModerOutput
	default:
		return ModerInput
	}
}
