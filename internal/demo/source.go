package demo

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"needle-gauge.klederson.com/internal/gauge"
)

// ErrRunning is returned by Start on a source that is already running.
var ErrRunning = errors.New("demo: source already running")

// ValueMsg carries a new target value for one needle.
type ValueMsg struct {
	ID    string
	Value float64
}

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Source emits ValueMsg for each channel on a fixed interval.
type Source struct {
	channels []Channel
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSource creates a stopped source.
func NewSource(interval time.Duration, channels ...Channel) *Source {
	return &Source{channels: channels, interval: interval}
}

// ChannelsFor builds one channel per registry needle. Calibrated needles
// sweep their calibrated range; the rest sweep 0..100. Phases are spread
// so needles do not move in lockstep.
func ChannelsFor(reg *gauge.Registry, period time.Duration) []Channel {
	needles := reg.Needles()
	out := make([]Channel, 0, len(needles))
	for i, n := range needles {
		c := Channel{ID: n.ID, Max: 100, Wave: Wave{Period: period, Phase: float64(i) / float64(len(needles))}}
		if lo, hi, ok := n.Resolver().Range(); ok && hi > lo {
			c.Min, c.Max = lo, hi
		}
		out = append(out, c)
	}
	return out
}

// Channels returns the source's channels.
func (s *Source) Channels() []Channel {
	return s.channels
}

// Sample returns the values of every channel after elapsed time.
func (s *Source) Sample(elapsed time.Duration) []ValueMsg {
	out := make([]ValueMsg, len(s.channels))
	for i, c := range s.channels {
		out[i] = ValueMsg{ID: c.ID, Value: c.Value(elapsed)}
	}
	return out
}

// Start begins emitting to dst until Stop is called.
func (s *Source) Start(dst Sender) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, dst, s.done)
	gauge.Logger().Debug("demo source started", "channels", len(s.channels), "interval", s.interval)
	return nil
}

func (s *Source) loop(ctx context.Context, dst Sender, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, msg := range s.Sample(now.Sub(start)) {
				if ctx.Err() != nil {
					return
				}
				dst.Send(msg)
			}
		}
	}
}

// Stop halts the source without waiting for its goroutine. It is safe to
// call from the receiving program's Update: a Send already blocked on the
// event loop finishes once Update returns, and nothing is sent after it.
// Stopping a stopped source does nothing.
func (s *Source) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	gauge.Logger().Debug("demo source stopped")
}

// Done returns a channel closed when the goroutine of the latest Start has
// exited. It is already closed for a source that was never started.
func (s *Source) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return s.done
}
