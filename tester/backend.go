// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tester

import (
	"math/big"

	"github.com/pkg/errors"
)

// A Bench is the user facing surface of a backend: peek and poke by signal
// name, stepping the master clock, and, on the threaded bench, forking and
// joining concurrent test threads that share the simulation.
//
type Bench interface {
	PokeBits(signal string, v *big.Int) error
	PeekBits(signal string) (*big.Int, error)
	Step(clock string, cycles int) error
	StepCount(clock string) (int, error)
	SetTimeout(clock string, cycles int) error
	Fork(name string, body func() error) (int, error)
	Join(ids []int, stepAfter int) error
}

func checkClock(d *Design, clock string) error {
	if clock != d.Clock {
		return errors.Errorf("clock %q is not the master clock of %s", clock, d.Name)
	}
	return nil
}

// A SingleBench drives a simulator from exactly one test goroutine. It
// keeps its own last-poke map so duplicate pokes are dropped, and counts
// user steps. Fork and Join are not supported.
//
type SingleBench struct {
	sim   Simulator
	d     Design
	ports map[string]bool // name -> readOnly

	lastPoke map[string]*big.Int
	steps    int
	timeout  int
	idle     int
}

// NewSingleBench returns a single-threaded bench over the given design and
// simulator.
//
func NewSingleBench(d Design, sim Simulator) *SingleBench {
	b := &SingleBench{
		sim:      sim,
		d:        d,
		ports:    make(map[string]bool, len(d.Ports)),
		lastPoke: make(map[string]*big.Int),
	}
	for _, p := range d.Ports {
		b.ports[p.Name] = p.Output
	}
	return b
}

// PokeBits writes an input signal. A poke repeating the previous value for
// the same signal is dropped and does not reset the idle counter.
//
func (b *SingleBench) PokeBits(signal string, v *big.Int) error {
	ro, ok := b.ports[signal]
	if !ok || ro {
		return errors.WithStack(UnpokeableError(signal))
	}
	if last, ok := b.lastPoke[signal]; ok && last.Cmp(v) == 0 {
		return nil
	}
	if err := b.sim.Poke(signal, v); err != nil {
		return err
	}
	b.lastPoke[signal] = new(big.Int).Set(v)
	b.idle = 0
	return nil
}

// PeekBits reads a signal.
//
func (b *SingleBench) PeekBits(signal string) (*big.Int, error) {
	if _, ok := b.ports[signal]; !ok {
		return nil, errors.WithStack(UnpeekableError(signal))
	}
	return b.sim.Peek(signal)
}

// Step advances the master clock.
//
func (b *SingleBench) Step(clock string, cycles int) error {
	if err := checkClock(&b.d, clock); err != nil {
		return err
	}
	if cycles < 1 {
		return errors.Errorf("step count must be positive: %d", cycles)
	}
	delta := cycles
	if b.timeout > 0 && b.timeout-b.idle < delta {
		delta = b.timeout - b.idle
	}
	res, err := b.sim.Step(delta)
	if err != nil {
		return errors.WithStack(&AssertionError{Step: b.steps, Err: err})
	}
	if res.Interrupted {
		b.steps += res.After
		if res.Assertion {
			return errors.WithStack(&AssertionError{Step: b.steps, Err: res.Payload})
		}
		return errors.WithStack(&StopError{Step: b.steps})
	}
	b.steps += delta
	b.idle += delta
	if b.timeout > 0 && b.idle >= b.timeout {
		return errors.WithStack(&TimeoutError{Cycles: b.timeout})
	}
	return nil
}

// StepCount returns the number of user steps taken on the master clock.
//
func (b *SingleBench) StepCount(clock string) (int, error) {
	if err := checkClock(&b.d, clock); err != nil {
		return 0, err
	}
	return b.steps, nil
}

// SetTimeout sets the idle cycle limit on the master clock. Zero disables
// it.
//
func (b *SingleBench) SetTimeout(clock string, cycles int) error {
	if err := checkClock(&b.d, clock); err != nil {
		return err
	}
	if cycles < 0 {
		return errors.Errorf("invalid timeout %d", cycles)
	}
	b.timeout = cycles
	b.idle = 0
	return nil
}

// Fork is not supported on the single-threaded bench.
//
func (b *SingleBench) Fork(string, func() error) (int, error) {
	return -1, errors.WithStack(ErrNotSupported)
}

// Join is not supported on the single-threaded bench.
//
func (b *SingleBench) Join([]int, int) error {
	return errors.WithStack(ErrNotSupported)
}

// Run drives a test function over the single-threaded bench and tears the
// simulator down afterwards. It returns the simulator's coverage
// annotations, if supported.
//
func Run(d Design, sim Simulator, fn func(b Bench) error) (map[string]int64, error) {
	b := NewSingleBench(d, sim)
	err := fn(b)
	var cov map[string]int64
	if sim.SupportsCoverage() {
		cov = sim.Coverage()
	}
	if ferr := sim.Finish(); err == nil {
		err = ferr
	}
	return cov, err
}
