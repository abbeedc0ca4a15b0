// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tester

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"
)

// An AccessMode tells how a signal was last touched.
//
type AccessMode int

// Access modes.
const (
	ModePeek AccessMode = iota
	ModePoke
)

// A ThreadView is the scheduler state the access checker consults: which
// test thread is running, the current step, and the fork tree ancestry.
// The Scheduler implements it; single threaded callers can use a fixed view.
//
type ThreadView interface {
	ActiveThread() int
	CurrentStep() int
	IsParentOf(parent, child int) bool
}

// a signal is the per-IO-leaf access bookkeeping.
type signal struct {
	id           int
	name         string
	readOnly     bool
	dependsOn    []int
	dependedOnBy []int

	lastPoke   *big.Int
	lastStep   int
	lastThread int
	lastMode   AccessMode
}

// A Checker validates peeks and pokes before forwarding them to the
// underlying simulator. It rejects accesses whose outcome would depend on
// test thread scheduling, coalesces identical pokes, and tracks idle cycles
// for the timeout.
//
type Checker struct {
	sim     Simulator
	view    ThreadView
	signals []*signal
	byName  map[string]*signal

	timeout int
	idle    int

	pending []error
}

// NewChecker builds the signal table for the design's IO leaves, in port
// order. Combinational dependencies come from the design's path map.
//
func NewChecker(sim Simulator, d Design, view ThreadView) *Checker {
	c := &Checker{sim: sim, view: view, byName: make(map[string]*signal, len(d.Ports))}
	signals := make([]*signal, len(d.Ports))
	for i, p := range d.Ports {
		s := &signal{id: i, name: p.Name, readOnly: p.Output, lastStep: -1, lastThread: -1}
		signals[i] = s
		c.byName[p.Name] = s
	}
	for sink, sources := range d.CombPaths {
		sk, ok := c.byName[sink]
		if !ok {
			continue
		}
		for _, src := range sources {
			sc, ok := c.byName[src]
			if !ok {
				continue
			}
			sk.dependsOn = append(sk.dependsOn, sc.id)
			sc.dependedOnBy = append(sc.dependedOnBy, sk.id)
		}
	}
	for _, s := range signals {
		sort.Ints(s.dependsOn)
		sort.Ints(s.dependedOnBy)
	}
	c.signals = signals
	return c
}

// SetTimeout sets the idle cycle limit and restarts idle counting. Zero
// disables the timeout.
//
func (c *Checker) SetTimeout(cycles int) error {
	if cycles < 0 {
		return errors.Errorf("invalid timeout %d", cycles)
	}
	c.timeout = cycles
	c.idle = 0
	return nil
}

// conflicting reports whether the signal's last access came from another
// thread within the current tick. Accesses by the active thread's own
// descendants are absorbed: a joined child acted on its parent's behalf.
// A fresh signal (lastStep -1) never conflicts.
//
func (c *Checker) conflicting(s *signal) bool {
	return s.lastStep == c.view.CurrentStep() &&
		s.lastThread != c.view.ActiveThread() &&
		!c.view.IsParentOf(c.view.ActiveThread(), s.lastThread)
}

// Poke validates and forwards a poke. Pokes repeating the signal's last
// poked value are dropped without touching the simulator or the idle
// counter.
//
func (c *Checker) Poke(name string, v *big.Int) error {
	s, ok := c.byName[name]
	if !ok || s.readOnly {
		return errors.WithStack(UnpokeableError(name))
	}
	if c.conflicting(s) {
		conflict := ConflictPeek
		if s.lastMode == ModePoke {
			conflict = ConflictPoke
		}
		return errors.WithStack(&ThreadOrderError{Signal: name, Conflict: conflict, Thread: s.lastThread})
	}
	for _, id := range s.dependedOnBy {
		d := c.signals[id]
		if d.lastMode == ModePeek && c.conflicting(d) {
			return errors.WithStack(&ThreadOrderError{Signal: d.name, Conflict: ConflictPeekOnDependent, Thread: d.lastThread})
		}
	}
	if s.lastPoke == nil || s.lastPoke.Cmp(v) != 0 {
		if err := c.sim.Poke(name, v); err != nil {
			return err
		}
		s.lastPoke = new(big.Int).Set(v)
		c.idle = 0
	}
	s.lastStep = c.view.CurrentStep()
	s.lastThread = c.view.ActiveThread()
	s.lastMode = ModePoke
	return nil
}

// Peek validates and forwards a peek.
//
func (c *Checker) Peek(name string) (*big.Int, error) {
	s, ok := c.byName[name]
	if !ok {
		return nil, errors.WithStack(UnpeekableError(name))
	}
	if s.lastMode == ModePoke && c.conflicting(s) {
		return nil, errors.WithStack(&ThreadOrderError{Signal: name, Conflict: ConflictPoke, Thread: s.lastThread})
	}
	for _, id := range s.dependsOn {
		d := c.signals[id]
		if d.lastMode == ModePoke && c.conflicting(d) {
			return nil, errors.WithStack(&ThreadOrderError{Signal: d.name, Conflict: ConflictPokeOnDependent, Thread: d.lastThread})
		}
	}
	v, err := c.sim.Peek(name)
	if err != nil {
		return nil, err
	}
	s.lastStep = c.view.CurrentStep()
	s.lastThread = c.view.ActiveThread()
	s.lastMode = ModePeek
	return v, nil
}

// Fault queues an environment level fault (e.g. an assertion raised outside
// a step). The next Checkpoint or SimulationStep surfaces it.
//
func (c *Checker) Fault(err error) {
	c.pending = append(c.pending, err)
}

// Checkpoint surfaces the oldest pending fault, if any.
//
func (c *Checker) Checkpoint() error {
	if len(c.pending) == 0 {
		return nil
	}
	err := c.pending[0]
	c.pending = c.pending[1:]
	return err
}

// SimulationStep advances the simulator by up to the requested cycle count,
// clamped so the idle timeout fires precisely. It returns the cycles
// actually run. Pending faults surface before the simulator is touched, so
// a step can never mask a failure that already occurred.
//
func (c *Checker) SimulationStep(from, cycles int) (int, error) {
	if err := c.Checkpoint(); err != nil {
		return 0, err
	}
	delta := cycles
	if c.timeout > 0 && c.timeout-c.idle < delta {
		delta = c.timeout - c.idle
	}
	res, err := c.sim.Step(delta)
	if err != nil {
		return 0, errors.WithStack(&AssertionError{Step: from, Err: err})
	}
	if res.Interrupted {
		if res.Assertion {
			return res.After, errors.WithStack(&AssertionError{Step: from + res.After, Err: res.Payload})
		}
		return res.After, errors.WithStack(&StopError{Step: from + res.After})
	}
	c.idle += delta
	if c.timeout > 0 && c.idle >= c.timeout {
		return delta, errors.WithStack(&TimeoutError{Cycles: c.timeout})
	}
	return delta, nil
}
