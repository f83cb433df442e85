// Package diag records interrupt-mask checkpoints during boot.
package diag

import (
	"io"

	"c0blink/bus"
	"c0blink/types"
	"c0blink/x/conv"
)

// Checkpoint tags, in boot order.
const (
	TagEntry            = "entry"
	TagAfterHALInit     = "after_hal_init"
	TagAfterClockConfig = "after_clock_config"
)

var topicPrimask = bus.T("diag", "primask")

// TopicPrimask returns the retained topic a checkpoint is published on.
func TopicPrimask(tag string) bus.Topic { return topicPrimask.Child(tag) }

// Core is what a checkpoint reads.
type Core interface {
	Primask() uint32
	GetTick() uint32
	Trace() io.Writer
}

// Checkpoint samples PRIMASK, writes one line to the trace console and
// publishes the sample retained. conn may be nil.
func Checkpoint(c Core, conn *bus.Connection, tag string) types.PrimaskSample {
	s := types.PrimaskSample{Tag: tag, Primask: c.Primask(), Tick: c.GetTick()}

	var buf [64]byte
	line := append(buf[:0], "[diag] "...)
	line = append(line, tag...)
	line = append(line, " primask="...)
	line = conv.AppendHex32(line, s.Primask)
	line = append(line, " tick="...)
	line = conv.AppendUint(line, uint64(s.Tick))
	line = append(line, '\n')
	_, _ = c.Trace().Write(line)

	if conn != nil {
		conn.Publish(conn.NewMessage(TopicPrimask(tag), s, true))
	}
	return s
}
