package main

import (
	"context"

	"c0blink/bus"
	"c0blink/services/blinky"
	"c0blink/services/config"
	"c0blink/services/hal"
)

func main() {
	println("[main] boot")

	b := bus.NewBus(4)
	conn := b.NewConnection("main")

	cfg, err := config.NewConfigService().Start(context.Background(), conn)
	h := hal.Open()
	if err != nil {
		h.Halt()
	}

	// Never returns: the loop runs until power-off or halts on a clock fault.
	_ = blinky.New(h, cfg, conn).Run(context.Background())
}
