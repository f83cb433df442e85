// Package blinky is the firmware's foreground loop: bring the clocks up,
// configure the LED pin and toggle it forever.
package blinky

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"c0blink/bus"
	"c0blink/errcode"
	"c0blink/services/diag"
	"c0blink/types"
)

var (
	TopicState = bus.T("blinky", "state")
	TopicValue = bus.T("blinky", "value")
)

// HAL is the slice of services/hal the loop drives.
type HAL interface {
	Init() error
	OscConfig(types.OscConfig) error
	ClockConfig(types.ClockConfig) error
	InitPin(types.PinConfig) error
	WritePin(p types.Port, pin uint8, high bool)
	TogglePin(p types.Port, pin uint8)
	OutputHigh(p types.Port, pin uint8) bool
	Delay(ms uint32)
	GetTick() uint32
	Primask() uint32
	Trace() io.Writer
	Halt()
}

type Service struct {
	h    HAL
	cfg  types.BoardConfig
	conn *bus.Connection

	iter atomic.Uint32

	mu    sync.Mutex
	state types.BlinkState
}

// New binds the loop to a HAL and a board setup. conn may be nil.
func New(h HAL, cfg types.BoardConfig, conn *bus.Connection) *Service {
	return &Service{
		h:     h,
		cfg:   cfg,
		conn:  conn,
		state: types.BlinkState{Level: types.LevelInit, Status: string(errcode.OK)},
	}
}

// Iterations returns the number of completed toggles.
func (s *Service) Iterations() uint32 { return s.iter.Load() }

// State returns the current lifecycle state.
func (s *Service) State() types.BlinkState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) setState(level string, code errcode.Code) {
	st := types.BlinkState{Level: level, Status: string(code), Tick: s.h.GetTick()}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	if s.conn != nil {
		s.conn.Publish(s.conn.NewMessage(TopicState, st, true))
	}
}

// Boot runs library init, clock bring-up and pin setup, then drives the LED
// to its initial level. Any clock failure halts the core; Boot only returns
// in the running state.
func (s *Service) Boot() {
	diag.Checkpoint(s.h, s.conn, diag.TagEntry)
	s.setState(types.LevelInit, errcode.OK)

	if err := s.h.Init(); err != nil {
		s.halt(err)
	}
	diag.Checkpoint(s.h, s.conn, diag.TagAfterHALInit)

	if err := s.h.OscConfig(s.cfg.Osc); err != nil {
		s.halt(err)
	}
	if err := s.h.ClockConfig(s.cfg.Clock); err != nil {
		s.halt(err)
	}
	diag.Checkpoint(s.h, s.conn, diag.TagAfterClockConfig)

	if err := s.h.InitPin(s.cfg.LED); err != nil {
		s.halt(err)
	}
	s.h.WritePin(s.cfg.LED.Port, s.cfg.LED.Pin, s.cfg.InitialHigh)
	s.setState(types.LevelRunning, errcode.OK)
	println("[blinky] running, board", s.cfg.Name)
}

// Step performs one loop iteration: toggle, count, wait one period.
func (s *Service) Step() {
	led := s.cfg.LED
	s.h.TogglePin(led.Port, led.Pin)
	n := s.iter.Add(1)
	if s.conn != nil {
		s.conn.Publish(s.conn.NewMessage(TopicValue, types.BlinkValue{
			Iteration: n,
			High:      s.h.OutputHigh(led.Port, led.Pin),
			Tick:      s.h.GetTick(),
		}, false))
	}
	s.h.Delay(s.cfg.PeriodMs)
}

// Run boots and then loops until ctx is cancelled. The firmware passes
// context.Background and never returns from it.
func (s *Service) Run(ctx context.Context) error {
	s.Boot()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Step()
	}
}

// halt is the terminal error state: no retry, no reset.
func (s *Service) halt(err error) {
	code := errcode.Of(err)
	println("[blinky] halt:", err.Error())
	s.setState(types.LevelHalted, code)
	s.h.Halt()
}
