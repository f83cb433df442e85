//go:build !stm32c0

package blinky

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"c0blink/bus"
	"c0blink/errcode"
	"c0blink/services/config"
	"c0blink/services/hal"
	"c0blink/types"
)

func board(t *testing.T) types.BoardConfig {
	t.Helper()
	c, err := config.Lookup("stm32c011")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func newService(t *testing.T, opts hal.SimOptions) (*Service, *hal.Sim, *bus.Connection) {
	t.Helper()
	h, sim := hal.NewSim(opts)
	conn := bus.NewBus(16).NewConnection("test")
	return New(h, board(t), conn), sim, conn
}

// bootExpectHalt runs Boot on its own goroutine, since a halt never returns.
func bootExpectHalt(t *testing.T, s *Service, sim *hal.Sim) {
	t.Helper()
	returned := make(chan struct{})
	go func() {
		s.Boot()
		close(returned)
	}()
	select {
	case <-sim.Halted():
	case <-returned:
		t.Fatal("Boot returned instead of halting")
	case <-time.After(5 * time.Second):
		t.Fatal("halt not reached")
	}
}

func TestBoot_OscillatorFailureHalts(t *testing.T) {
	s, sim, _ := newService(t, hal.SimOptions{FailOscillator: true})
	bootExpectHalt(t, s, sim)

	st := s.State()
	if st.Level != types.LevelHalted || st.Status != string(errcode.OscNotReady) {
		t.Fatalf("state %+v", st)
	}
	if sim.OutputWrites(types.PortA) != 0 {
		t.Fatal("pin written after oscillator failure")
	}
	// The halt is terminal: nothing moves afterwards.
	time.Sleep(20 * time.Millisecond)
	if sim.OutputWrites(types.PortA) != 0 || s.Iterations() != 0 {
		t.Fatal("activity after halt")
	}
	if sim.PinHigh(types.PortA, 0) {
		t.Fatal("ODR left its reset value")
	}
}

func TestBoot_ClockSwitchFailureHalts(t *testing.T) {
	s, sim, _ := newService(t, hal.SimOptions{FailClockSwitch: true})
	bootExpectHalt(t, s, sim)

	if st := s.State(); st.Level != types.LevelHalted || st.Status != string(errcode.ClockSwitchFailed) {
		t.Fatalf("state %+v", st)
	}
	if sim.OutputWrites(types.PortA) != 0 {
		t.Fatal("pin written after clock switch failure")
	}
	if sim.Ports[types.PortA].MODER.Writes() != 0 {
		t.Fatal("pin configured after clock switch failure")
	}
}

func TestBoot_LatencyFailureHalts(t *testing.T) {
	s, sim, _ := newService(t, hal.SimOptions{FailLatency: true})
	bootExpectHalt(t, s, sim)
	if st := s.State(); st.Status != string(errcode.FlashLatency) {
		t.Fatalf("state %+v", st)
	}
}

func TestBoot_HaltPublishesState(t *testing.T) {
	s, sim, conn := newService(t, hal.SimOptions{FailOscillator: true})
	bootExpectHalt(t, s, sim)

	sub := conn.Subscribe(TopicState)
	select {
	case m := <-sub.Channel():
		st := m.Payload.(types.BlinkState)
		if st.Level != types.LevelHalted {
			t.Fatalf("retained state %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no retained state")
	}
}

func TestBoot_InitialHighThenAlternates(t *testing.T) {
	s, sim, _ := newService(t, hal.SimOptions{})
	s.Boot()
	if st := s.State(); st.Level != types.LevelRunning {
		t.Fatalf("state %+v", st)
	}
	if !sim.PinHigh(types.PortA, 0) {
		t.Fatal("pin should start high")
	}

	t0 := s.h.GetTick()
	s.Step()
	if sim.PinHigh(types.PortA, 0) {
		t.Fatal("first iteration should drive low")
	}
	t1 := s.h.GetTick()
	s.Step()
	if !sim.PinHigh(types.PortA, 0) {
		t.Fatal("second iteration should drive high")
	}
	t2 := s.h.GetTick()
	if t1-t0 < 100 || t2-t1 < 100 {
		t.Fatalf("period too short: %d, %d", t1-t0, t2-t1)
	}
}

func TestStep_CounterAndLevel(t *testing.T) {
	s, sim, _ := newService(t, hal.SimOptions{})
	s.Boot()

	prevLevel := sim.PinHigh(types.PortA, 0)
	prevTick := s.h.GetTick()
	for i := uint32(1); i <= 20; i++ {
		s.Step()
		if got := s.Iterations(); got != i {
			t.Fatalf("iteration %d: counter=%d", i, got)
		}
		level := sim.PinHigh(types.PortA, 0)
		if level == prevLevel {
			t.Fatalf("iteration %d: level did not change", i)
		}
		tick := s.h.GetTick()
		if tick <= prevTick || tick-prevTick < 100 {
			t.Fatalf("iteration %d: tick %d -> %d", i, prevTick, tick)
		}
		prevLevel, prevTick = level, tick
	}
}

func TestStep_PublishesValue(t *testing.T) {
	s, _, conn := newService(t, hal.SimOptions{})
	sub := conn.Subscribe(TopicValue)
	s.Boot()
	s.Step()
	select {
	case m := <-sub.Channel():
		v := m.Payload.(types.BlinkValue)
		if v.Iteration != 1 || v.High {
			t.Fatalf("value %+v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("no value")
	}
}

func TestBoot_Checkpoints(t *testing.T) {
	var trace bytes.Buffer
	h, _ := hal.NewSim(hal.SimOptions{Primask: 1, Trace: &trace})
	conn := bus.NewBus(8).NewConnection("test")
	s := New(h, board(t), conn)
	s.Boot()

	sub := conn.Subscribe(bus.T("diag", "primask", "#"))
	seen := map[string]uint32{}
	for len(seen) < 3 {
		select {
		case m := <-sub.Channel():
			p := m.Payload.(types.PrimaskSample)
			seen[p.Tag] = p.Primask
		case <-time.After(time.Second):
			t.Fatalf("checkpoints %v", seen)
		}
	}
	for _, tag := range []string{"entry", "after_hal_init", "after_clock_config"} {
		if v, ok := seen[tag]; !ok || v != 1 {
			t.Fatalf("%s: %v %v", tag, v, ok)
		}
	}
	lines := strings.Split(strings.TrimSpace(trace.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "[diag] entry ") {
		t.Fatalf("trace %q", trace.String())
	}
}

func TestRun_Cancel(t *testing.T) {
	s, _, _ := newService(t, hal.SimOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for s.Iterations() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err=%v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
	if s.Iterations() < 3 {
		t.Fatalf("iterations=%d", s.Iterations())
	}
}
