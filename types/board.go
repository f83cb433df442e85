package types

// BoardConfig is the compiled-in setup for one board.
type BoardConfig struct {
	Name        string      `json:"name"`
	Osc         OscConfig   `json:"osc"`
	Clock       ClockConfig `json:"clock"`
	LED         PinConfig   `json:"led"`
	InitialHigh bool        `json:"initial_high"`
	PeriodMs    uint32      `json:"period_ms"`
}
