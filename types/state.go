package types

// ------------------------
// Blinky state (retained)
// ------------------------

const (
	LevelInit    = "init"
	LevelRunning = "running"
	LevelHalted  = "halted"
)

type BlinkState struct {
	Level  string `json:"level"`  // "init", "running", "halted"
	Status string `json:"status"` // errcode string
	Tick   uint32 `json:"tick"`   // tick counter at publish
}

// BlinkValue is published once per loop iteration.
type BlinkValue struct {
	Iteration uint32 `json:"iteration"`
	High      bool   `json:"high"`
	Tick      uint32 `json:"tick"`
}

// ------------------------
// Diagnostics
// ------------------------

type PrimaskSample struct {
	Tag     string `json:"tag"`
	Primask uint32 `json:"primask"`
	Tick    uint32 `json:"tick"`
}
