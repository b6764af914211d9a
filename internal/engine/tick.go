// Package engine provides the tick-based fleet simulation loop.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTicksPerDay makes one tick a sim-hour.
const DefaultTicksPerDay = 24

// Engine drives the simulation forward.
type Engine struct {
	Tick        uint64        // Current tick counter (monotonic, never resets)
	TicksPerDay uint64        // OnDay fires every this many ticks
	Interval    time.Duration // Pause between ticks; 0 runs flat out

	// Callbacks for each tick layer, populated during setup.
	OnTick func(tick uint64)
	OnDay  func(tick uint64)
}

// NewEngine creates an engine that runs as fast as it can.
func NewEngine(ticksPerDay uint64) *Engine {
	if ticksPerDay == 0 {
		ticksPerDay = DefaultTicksPerDay
	}
	return &Engine{TicksPerDay: ticksPerDay}
}

// RunFor advances the simulation by ticks, stopping early if ctx is done.
func (e *Engine) RunFor(ctx context.Context, ticks uint64) error {
	slog.Info("simulation engine started", "tick", e.Tick, "ticks", ticks)

	for i := uint64(0); i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			slog.Info("simulation engine interrupted", "tick", e.Tick)
			return err
		}

		e.step()

		if e.Interval > 0 {
			select {
			case <-ctx.Done():
				slog.Info("simulation engine interrupted", "tick", e.Tick)
				return ctx.Err()
			case <-time.After(e.Interval):
			}
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
	return nil
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	// Every tick: hauls, regrowth, adaptation.
	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}

	// Every sim-day: statistics and the daily report.
	if e.Tick%e.TicksPerDay == 0 && e.OnDay != nil {
		e.OnDay(e.Tick)
	}
}

// SimTime returns a human-readable simulation time string from a tick number.
func SimTime(tick, ticksPerDay uint64) string {
	if ticksPerDay == 0 {
		ticksPerDay = DefaultTicksPerDay
	}
	totalDays := tick / ticksPerDay
	hour := (tick % ticksPerDay) * 24 / ticksPerDay
	day := totalDays%365 + 1
	year := totalDays/365 + 1
	return fmt.Sprintf("Year %d Day %d, %02d:00", year, day, hour)
}
