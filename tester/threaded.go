// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tester

import (
	"math/big"
)

// A ThreadedBench multiplexes cooperative test threads over one simulation.
// Peeks and pokes route through the access checker with the scheduler's
// view of the active thread, so accesses whose outcome would depend on
// thread scheduling fail instead of silently racing.
//
type ThreadedBench struct {
	d       Design
	checker *Checker
	sched   *Scheduler
}

// NewThreadedBench returns a threaded bench over the given design and
// simulator. The calling goroutine is the main test thread.
//
func NewThreadedBench(d Design, sim Simulator) *ThreadedBench {
	b := &ThreadedBench{d: d}
	b.sched = NewScheduler(func(from, cycles int) (int, error) {
		return b.checker.SimulationStep(from, cycles)
	})
	b.checker = NewChecker(sim, d, b.sched)
	return b
}

// Scheduler exposes the bench's scheduler, mainly for inspection in tests.
//
func (b *ThreadedBench) Scheduler() *Scheduler { return b.sched }

// PokeBits writes an input signal through the access checker.
//
func (b *ThreadedBench) PokeBits(signal string, v *big.Int) error {
	return b.checker.Poke(signal, v)
}

// PeekBits reads a signal through the access checker.
//
func (b *ThreadedBench) PeekBits(signal string) (*big.Int, error) {
	return b.checker.Peek(signal)
}

// Step advances the calling test thread by the given cycle count on the
// master clock, interleaving other threads as their wake points are
// reached.
//
func (b *ThreadedBench) Step(clock string, cycles int) error {
	if err := checkClock(&b.d, clock); err != nil {
		return err
	}
	return b.sched.Step(cycles)
}

// StepCount returns the current step of the shared clock.
//
func (b *ThreadedBench) StepCount(clock string) (int, error) {
	if err := checkClock(&b.d, clock); err != nil {
		return 0, err
	}
	return b.sched.CurrentStep(), nil
}

// SetTimeout sets the idle cycle limit on the master clock.
//
func (b *ThreadedBench) SetTimeout(clock string, cycles int) error {
	if err := checkClock(&b.d, clock); err != nil {
		return err
	}
	return b.checker.SetTimeout(cycles)
}

// Fork starts a new test thread. The newborn runs up to its first
// suspension before Fork returns.
//
func (b *ThreadedBench) Fork(name string, body func() error) (int, error) {
	return b.sched.Fork(name, body)
}

// Join waits for the given threads to finish, in order, then optionally
// steps the clock.
//
func (b *ThreadedBench) Join(ids []int, stepAfter int) error {
	if err := b.sched.Join(ids...); err != nil {
		return err
	}
	if stepAfter > 0 {
		return b.sched.Step(stepAfter)
	}
	return nil
}

// RunThreaded drives a test function as the main thread of a threaded
// bench. Remaining live threads are joined when the function returns
// cleanly, interrupted otherwise; the simulator is torn down last. It
// returns the simulator's coverage annotations, if supported.
//
func RunThreaded(d Design, sim Simulator, fn func(b Bench) error) (map[string]int64, error) {
	b := NewThreadedBench(d, sim)
	err := fn(b)
	if err == nil {
		err = b.sched.JoinAll()
	}
	b.sched.Shutdown()
	var cov map[string]int64
	if sim.SupportsCoverage() {
		cov = sim.Coverage()
	}
	if ferr := sim.Finish(); err == nil {
		err = ferr
	}
	return cov, err
}

var _ Bench = (*SingleBench)(nil)
var _ Bench = (*ThreadedBench)(nil)
