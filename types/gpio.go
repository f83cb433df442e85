package types

// Port names a GPIO bank.
type Port uint8

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortF = 5
)

func (p Port) String() string {
	switch p {
	case PortA:
		return "A"
	case PortB:
		return "B"
	case PortC:
		return "C"
	case PortD:
		return "D"
	case PortF:
		return "F"
	default:
		return "?"
	}
}

type PinMode uint8

const (
	ModeInput PinMode = iota
	ModeOutputPP
	ModeOutputOD
)

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Speed mirrors the OSPEEDR encoding.
type Speed uint8

const (
	SpeedLow Speed = iota
	SpeedMedium
	SpeedHigh
	SpeedVeryHigh
)

// PinConfig describes one pin's electrical setup.
type PinConfig struct {
	Port  Port    `json:"port"`
	Pin   uint8   `json:"pin"` // 0..15
	Mode  PinMode `json:"mode"`
	Pull  Pull    `json:"pull"`
	Speed Speed   `json:"speed"`
}
