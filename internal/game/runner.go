package game

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Runner drives the simulation in real time at a fixed tick interval. The
// loop measures actual elapsed wall time per tick so a slow tick does not
// compress the following ones.
type Runner struct {
	sim      *Simulation
	interval time.Duration
	running  atomic.Bool
	done     chan struct{}
}

func NewRunner(sim *Simulation, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Runner{sim: sim, interval: interval, done: make(chan struct{})}
}

// Run starts the tick loop and blocks until Stop is called.
func (r *Runner) Run() {
	r.running.Store(true)
	slog.Info("simulation loop started", "interval", r.interval)

	last := time.Now()
	for r.running.Load() {
		start := time.Now()
		dt := start.Sub(last).Seconds()
		last = start

		r.sim.Step(dt)

		elapsed := time.Since(start)
		if elapsed < r.interval {
			time.Sleep(r.interval - elapsed)
		}
	}

	slog.Info("simulation loop stopped", "tick", r.sim.Tick())
	close(r.done)
}

// Stop signals the loop to exit and waits for the current tick to finish.
func (r *Runner) Stop() {
	if r.running.CompareAndSwap(true, false) {
		<-r.done
	}
}
