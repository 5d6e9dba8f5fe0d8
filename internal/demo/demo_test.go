package demo

import (
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"needle-gauge.klederson.com/internal/gauge"
)

func TestWave(t *testing.T) {
	t.Parallel()

	w := Wave{Period: 4 * time.Second}
	assert.InDelta(t, 0, w.At(0), 1e-9)
	assert.InDelta(t, 0.5, w.At(time.Second), 1e-9)
	assert.InDelta(t, 1, w.At(2*time.Second), 1e-9)
	assert.InDelta(t, 0, w.At(4*time.Second), 1e-9)

	shifted := Wave{Period: 4 * time.Second, Phase: 0.5}
	assert.InDelta(t, 1, shifted.At(0), 1e-9)

	assert.Equal(t, 0.0, Wave{}.At(time.Second))
}

func TestChannelValue(t *testing.T) {
	t.Parallel()

	c := Channel{ID: "main", Min: 1000, Max: 7000, Wave: Wave{Period: 2 * time.Second}}
	assert.InDelta(t, 1000, c.Value(0), 1e-9)
	assert.InDelta(t, 7000, c.Value(time.Second), 1e-9)
}

func TestChannelsFor(t *testing.T) {
	t.Parallel()

	reg := gauge.NewRegistry()
	reg.Add("boost", 0, 1)
	set := gauge.NewCalibrationSet(gauge.GaugePlacement{Pivot: gauge.Vec{X: 50, Y: 50}, Background: gauge.Vec{X: 100, Y: 100}})
	set.Points = []gauge.CalibrationPoint{{X: 10, Y: 50, Value: 0}, {X: 90, Y: 50, Value: 8000}}
	reg.Calibrate(gauge.NeedleMain, nil, set)

	chans := ChannelsFor(reg, time.Second)
	require.Len(t, chans, 2)
	assert.Equal(t, "boost", chans[0].ID)
	assert.Equal(t, 100.0, chans[0].Max)
	assert.Equal(t, 0.0, chans[0].Wave.Phase)
	assert.Equal(t, gauge.NeedleMain, chans[1].ID)
	assert.Equal(t, 8000.0, chans[1].Max)
	assert.Equal(t, 0.5, chans[1].Wave.Phase)
}

type recorder struct {
	mu   sync.Mutex
	msgs []ValueMsg
}

func (r *recorder) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg.(ValueMsg))
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestSourceStartStop(t *testing.T) {
	t.Parallel()

	src := NewSource(5*time.Millisecond, Channel{ID: "a", Max: 10, Wave: Wave{Period: time.Second}})
	rec := &recorder{}

	require.NoError(t, src.Start(rec))
	assert.ErrorIs(t, src.Start(rec), ErrRunning)

	assert.Eventually(t, func() bool { return rec.count() >= 3 }, time.Second, 5*time.Millisecond)
	src.Stop()
	select {
	case <-src.Done():
	case <-time.After(time.Second):
		t.Fatal("source goroutine did not exit")
	}

	n := rec.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, rec.count(), "no sends after Stop")

	rec.mu.Lock()
	for _, m := range rec.msgs {
		assert.Equal(t, "a", m.ID)
		assert.GreaterOrEqual(t, m.Value, 0.0)
		assert.LessOrEqual(t, m.Value, 10.0)
	}
	rec.mu.Unlock()

	src.Stop()
	require.NoError(t, src.Start(rec), "restart after stop")
	src.Stop()
	<-src.Done()
}

// blockingSender holds every Send until release is closed, like a program
// whose event loop is busy.
type blockingSender struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSender) Send(tea.Msg) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
}

func TestSourceStopDoesNotWaitForSend(t *testing.T) {
	t.Parallel()

	src := NewSource(time.Millisecond,
		Channel{ID: "a", Max: 10, Wave: Wave{Period: time.Second}},
		Channel{ID: "b", Max: 10, Wave: Wave{Period: time.Second}},
	)
	dst := &blockingSender{entered: make(chan struct{}), release: make(chan struct{})}
	require.NoError(t, src.Start(dst))
	<-dst.entered

	stopped := make(chan struct{})
	go func() {
		src.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a pending Send")
	}

	close(dst.release)
	select {
	case <-src.Done():
	case <-time.After(time.Second):
		t.Fatal("source goroutine did not exit after the send was released")
	}
}

func TestSample(t *testing.T) {
	t.Parallel()

	src := NewSource(time.Second,
		Channel{ID: "a", Max: 100, Wave: Wave{Period: 2 * time.Second}},
		Channel{ID: "b", Min: 50, Max: 150, Wave: Wave{Period: 2 * time.Second, Phase: 0.5}},
	)
	got := src.Sample(0)
	require.Len(t, got, 2)
	assert.Equal(t, ValueMsg{ID: "a", Value: 0}, got[0])
	assert.Equal(t, "b", got[1].ID)
	assert.InDelta(t, 150, got[1].Value, 1e-9)
}
