//go:build !stm32c0

package main

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"c0blink/bus"
	"c0blink/services/blinky"
	"c0blink/services/config"
	"c0blink/services/hal"
	"c0blink/services/monitor"
	"c0blink/x/conv"
)

var errStalled = errors.New("firmware stalled")

type runOpts struct {
	board       string
	iterations  uint32
	failOsc     bool
	failSwitch  bool
	failLatency bool
	primask     uint32
	realtime    bool
	quiet       bool
	timeout     time.Duration
}

// lockedWriter serialises the monitor, trace and summary output.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func newRunCmd() *cobra.Command {
	opts := runOpts{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the firmware and run a number of loop iterations",
		Long: "Boot the firmware on the simulator, optionally injecting clock faults, " +
			"and report the LED state after the requested iterations.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFirmware(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.board, "board", "b", config.DefaultBoard, "board setup to boot")
	f.Uint32VarP(&opts.iterations, "iterations", "n", 10, "loop iterations to run before stopping")
	f.BoolVar(&opts.failOsc, "fail-osc", false, "HSI never reports ready")
	f.BoolVar(&opts.failSwitch, "fail-switch", false, "SYSCLK switch is never acknowledged")
	f.BoolVar(&opts.failLatency, "fail-latency", false, "flash latency writes do not stick")
	f.Uint32Var(&opts.primask, "primask", 0, "PRIMASK value the core reports")
	f.BoolVar(&opts.realtime, "realtime", false, "fire SysTick from the wall clock")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print bus traffic")
	f.DurationVar(&opts.timeout, "timeout", 10*time.Second, "give up when the firmware makes no progress")
	return cmd
}

func runFirmware(ctx context.Context, w io.Writer, o runOpts) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &lockedWriter{w: w}
	cfg, err := config.Lookup(o.board)
	if err != nil {
		return err
	}

	h, sim := hal.NewSim(hal.SimOptions{
		FailOscillator:  o.failOsc,
		FailClockSwitch: o.failSwitch,
		FailLatency:     o.failLatency,
		Primask:         o.primask,
		RealTime:        o.realtime,
		Trace:           out,
	})

	b := bus.NewBus(32)
	mon := monitor.New(out)
	if !o.quiet {
		_ = mon.Start(ctx, b.NewConnection("monitor"), bus.T("#"))
	}
	conn := b.NewConnection("firmware")
	config.Publish(conn, cfg)

	svc := blinky.New(h, cfg, conn)
	done := make(chan struct{})
	go func() {
		svc.Boot()
		for i := uint32(0); i < o.iterations; i++ {
			svc.Step()
		}
		close(done)
	}()

	select {
	case <-sim.Halted():
	case <-done:
	case <-time.After(o.timeout):
		return errStalled
	case <-ctx.Done():
		return ctx.Err()
	}
	cancel()
	if !o.quiet {
		<-mon.Done()
	}

	st := svc.State()
	line := append([]byte("[c0sim] board="), cfg.Name...)
	line = append(line, " level="...)
	line = append(line, st.Level...)
	line = append(line, " status="...)
	line = append(line, st.Status...)
	line = append(line, " iterations="...)
	line = conv.AppendUint(line, uint64(svc.Iterations()))
	line = append(line, " tick="...)
	line = conv.AppendUint(line, uint64(h.GetTick()))
	line = append(line, " led="...)
	if h.OutputHigh(cfg.LED.Port, cfg.LED.Pin) {
		line = append(line, "high"...)
	} else {
		line = append(line, "low"...)
	}
	line = append(line, " odr_writes="...)
	line = conv.AppendUint(line, uint64(sim.OutputWrites(cfg.LED.Port)))
	_, _ = out.Write(append(line, '\n'))

	if st.Status != "ok" {
		return errors.New("firmware halted: " + st.Status)
	}
	return nil
}
