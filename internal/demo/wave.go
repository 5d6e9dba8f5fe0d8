// Package demo produces moving needle values when no telemetry is attached.
package demo

import (
	"math"
	"time"
)

// Wave sweeps smoothly from 0 to 1 and back once per Period.
type Wave struct {
	Period time.Duration
	// Phase shifts the wave, in fractions of a period.
	Phase float64
}

// At returns the wave position [0, 1] after elapsed time.
func (w Wave) At(elapsed time.Duration) float64 {
	if w.Period <= 0 {
		return 0
	}
	turns := elapsed.Seconds()/w.Period.Seconds() + w.Phase
	return 0.5 - 0.5*math.Cos(2*math.Pi*turns)
}

// Channel drives one needle between Min and Max.
type Channel struct {
	ID       string
	Min, Max float64
	Wave     Wave
}

// Value returns the channel value after elapsed time.
func (c Channel) Value(elapsed time.Duration) float64 {
	return c.Min + (c.Max-c.Min)*c.Wave.At(elapsed)
}
