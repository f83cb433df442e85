// Package monitor prints bus traffic as one line per message.
package monitor

import (
	"context"
	"io"
	"sync"
	"time"

	"c0blink/bus"
	"c0blink/types"
	"c0blink/x/conv"
)

type Service struct {
	Out io.Writer
	// Interval > 0 adds a heartbeat line carrying the last seen iteration.
	Interval time.Duration

	mu   sync.Mutex
	last uint32
	done chan struct{}
}

func New(out io.Writer) *Service { return &Service{Out: out} }

// Start subscribes to topics on conn and logs until ctx is cancelled.
// Messages already queued at cancellation are still printed.
func (s *Service) Start(ctx context.Context, conn *bus.Connection, topics ...bus.Topic) error {
	s.done = make(chan struct{})
	var wg sync.WaitGroup
	subs := make([]*bus.Subscription, 0, len(topics))
	for _, t := range topics {
		sub := conn.Subscribe(t)
		subs = append(subs, sub)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serviceLoop(ctx, sub.Channel())
		}()
	}
	if s.Interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.heartbeat(ctx)
		}()
	}
	go func() {
		wg.Wait()
		for _, sub := range subs {
			conn.Unsubscribe(sub)
		}
		close(s.done)
	}()
	return nil
}

// Done is closed once the service has stopped after cancellation.
func (s *Service) Done() <-chan struct{} { return s.done }

func (s *Service) serviceLoop(ctx context.Context, ch <-chan *bus.Message) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case m := <-ch:
					s.write(s.format(m))
				default:
					return
				}
			}
		case m, ok := <-ch:
			if !ok {
				return
			}
			s.write(s.format(m))
		}
	}
}

func (s *Service) heartbeat(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.mu.Lock()
			n := s.last
			s.mu.Unlock()
			line := append([]byte("[monitor] heartbeat iteration="), conv.AppendUint(nil, uint64(n))...)
			s.write(append(line, '\n'))
		}
	}
}

func (s *Service) write(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.Out.Write(b)
}

// format renders one message. Known payloads get a compact form.
func (s *Service) format(m *bus.Message) []byte {
	b := append([]byte("[monitor] "), m.Topic.String()...)
	switch p := m.Payload.(type) {
	case types.BlinkState:
		b = append(b, " level="...)
		b = append(b, p.Level...)
		b = append(b, " status="...)
		b = append(b, p.Status...)
		b = appendTick(b, p.Tick)
	case types.BlinkValue:
		s.mu.Lock()
		s.last = p.Iteration
		s.mu.Unlock()
		b = append(b, " iteration="...)
		b = conv.AppendUint(b, uint64(p.Iteration))
		if p.High {
			b = append(b, " high"...)
		} else {
			b = append(b, " low"...)
		}
		b = appendTick(b, p.Tick)
	case types.PrimaskSample:
		b = append(b, " primask="...)
		b = conv.AppendHex32(b, p.Primask)
		b = appendTick(b, p.Tick)
	case types.BoardConfig:
		b = append(b, " board="...)
		b = append(b, p.Name...)
		b = append(b, " led=P"...)
		b = append(b, p.LED.Port.String()...)
		b = conv.AppendUint(b, uint64(p.LED.Pin))
		b = append(b, " period_ms="...)
		b = conv.AppendUint(b, uint64(p.PeriodMs))
	case string:
		b = append(b, ' ')
		b = append(b, p...)
	case nil:
	default:
		b = append(b, " <payload>"...)
	}
	return append(b, '\n')
}

func appendTick(b []byte, t uint32) []byte {
	b = append(b, " tick="...)
	return conv.AppendUint(b, uint64(t))
}
