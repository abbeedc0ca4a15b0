// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tester

import (
	"strconv"

	"github.com/pkg/errors"
)

type threadState int

const (
	stateActive threadState = iota
	stateWaitingUntil
	stateWaitingJoin
	stateFinished
)

// threadKilled unwinds a test thread body during teardown.
type threadKilled struct{}

type thread struct {
	id    int
	name  string
	state threadState

	wakeStep   int // valid when stateWaitingUntil
	joinTarget int // valid when stateWaitingJoin

	sem  chan struct{} // private semaphore, one permit max
	done chan struct{} // closed when the host goroutine exits
	err  error
}

// A Scheduler multiplexes cooperative test threads over a single simulation.
// Each test thread runs on its own goroutine but exactly one is ever
// runnable: every other live thread is parked on its private semaphore (or
// on the done channel of a thread it joins). All scheduler state is mutated
// by the currently active thread only; the semaphore hand-off orders those
// mutations, so no locks are needed.
//
// The simulation advances through the step callback, which returns the
// cycles actually run (a timeout window may clamp the request).
//
type Scheduler struct {
	threads []*thread
	tree    *orderTree

	active int
	step   int

	stepFn   func(from, cycles int) (int, error)
	shutdown chan struct{}
}

// NewScheduler returns a scheduler whose main thread (id 0) is the calling
// goroutine, active at step 0.
//
func NewScheduler(stepFn func(from, cycles int) (int, error)) *Scheduler {
	main := &thread{
		id:   0,
		name: "main",
		sem:  make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	return &Scheduler{
		threads:  []*thread{main},
		tree:     newOrderTree(),
		stepFn:   stepFn,
		shutdown: make(chan struct{}),
	}
}

// CurrentStep returns the global clock position.
//
func (s *Scheduler) CurrentStep() int { return s.step }

// ActiveThread returns the id of the running test thread.
//
func (s *Scheduler) ActiveThread() int { return s.active }

// IsParentOf reports fork tree ancestry.
//
func (s *Scheduler) IsParentOf(parent, child int) bool {
	return s.tree.isParentOf(parent, child)
}

// ThreadName returns the name of a thread.
//
func (s *Scheduler) ThreadName(id int) string {
	if id < 0 || id >= len(s.threads) {
		return "?"
	}
	return s.threads[id].name
}

func (s *Scheduler) doStep(n int) error {
	delta, err := s.stepFn(s.step, n)
	s.step += delta
	return err
}

// nextWake returns the smallest wake step over parked WaitingUntil threads.
//
func (s *Scheduler) nextWake() (int, bool) {
	min, ok := 0, false
	for _, t := range s.threads {
		if t.id == s.active || t.state != stateWaitingUntil {
			continue
		}
		if !ok || t.wakeStep < min {
			min, ok = t.wakeStep, true
		}
	}
	return min, ok
}

// findNext returns the first schedulable thread in fork tree order,
// skipping self: a thread waiting for the current step, or a joiner whose
// target has finished.
//
func (s *Scheduler) findNext(self *thread) *thread {
	for _, id := range s.tree.order() {
		t := s.threads[id]
		if t == self {
			continue
		}
		switch t.state {
		case stateWaitingUntil:
			if t.wakeStep == s.step {
				return t
			}
		case stateWaitingJoin:
			if s.threads[t.joinTarget].state == stateFinished {
				return t
			}
		}
	}
	return nil
}

// wake releases the given thread. Joiners need no release: they unblock
// through their target's done channel.
//
func (s *Scheduler) wake(t *thread) {
	if t.state == stateWaitingUntil {
		t.sem <- struct{}{}
	}
}

// yield hands control to the next schedulable thread and parks the calling
// thread, which must already have set its waiting state. It returns once
// the caller is scheduled again.
//
func (s *Scheduler) yield(self *thread) error {
	nt := s.findNext(self)
	if nt == nil {
		self.state = stateActive
		return errors.WithStack(ErrDeadlock)
	}
	s.wake(nt)
	select {
	case <-self.sem:
	case <-s.shutdown:
		panic(threadKilled{})
	}
	s.active = self.id
	self.state = stateActive
	return nil
}

// Fork starts a new test thread as a child of the active thread and yields
// to it, so the newborn runs up to its first suspension before Fork
// returns. The body's error is observed by whoever joins the thread.
//
func (s *Scheduler) Fork(name string, body func() error) (int, error) {
	id := len(s.threads)
	if name == "" {
		name = "thread-" + strconv.Itoa(id)
	}
	th := &thread{
		id:       id,
		name:     name,
		state:    stateWaitingUntil,
		wakeStep: s.step,
		sem:      make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	s.threads = append(s.threads, th)
	if err := s.tree.add(s.active, id); err != nil {
		return -1, err
	}
	go s.run(th, body)

	self := s.threads[s.active]
	self.state = stateWaitingUntil
	self.wakeStep = s.step
	return id, s.yield(self)
}

// run is the host goroutine of a forked thread.
func (s *Scheduler) run(th *thread, body func() error) {
	defer close(th.done)
	select {
	case <-th.sem:
	case <-s.shutdown:
		th.state = stateFinished
		return
	}
	s.active = th.id
	th.state = stateActive

	killed := false
	func() {
		defer func() {
			switch r := recover(); r.(type) {
			case nil:
			case threadKilled:
				killed = true
			default:
				th.err = errors.Errorf("test thread %q panicked: %v", th.name, r)
			}
		}()
		th.err = body()
	}()
	if killed {
		th.state = stateFinished
		return
	}
	s.finish(th)
}

// finish runs the hand-off protocol when a thread's body returns. If a
// thread is waiting to join this one, exiting is enough: closing the done
// channel resumes it. Otherwise the next runnable thread is woken, stepping
// the simulation up to its wake point if necessary.
//
func (s *Scheduler) finish(th *thread) {
	th.state = stateFinished
	if err := s.tree.finish(th.id); err != nil && th.err == nil {
		th.err = err
	}
	if s.joinerOf(th.id) != nil {
		return
	}
	if !s.anyLive() {
		return
	}
	if err := s.advanceToWake(); err != nil && th.err == nil {
		th.err = err
	}
	if nt := s.findNext(th); nt != nil {
		s.wake(nt)
	} else if th.err == nil {
		th.err = errors.WithStack(ErrDeadlock)
	}
}

func (s *Scheduler) joinerOf(id int) *thread {
	for _, t := range s.threads {
		if t.state == stateWaitingJoin && t.joinTarget == id {
			return t
		}
	}
	return nil
}

func (s *Scheduler) anyLive() bool {
	for _, t := range s.threads {
		if t.state != stateFinished {
			return true
		}
	}
	return false
}

// advanceToWake steps the simulation to the nearest wake point of any
// parked thread.
//
func (s *Scheduler) advanceToWake() error {
	if next, ok := s.nextWake(); ok && next > s.step {
		return s.doStep(next - s.step)
	}
	return nil
}

// Step advances the active thread's view of the clock by n cycles,
// interleaving any other thread whose wake point falls within the window.
//
func (s *Scheduler) Step(n int) error {
	if n < 1 {
		return errors.Errorf("step count must be positive: %d", n)
	}
	next, ok := s.nextWake()
	if !ok || next > s.step+n {
		// no other thread becomes eligible within our window
		return s.doStep(n)
	}
	self := s.threads[s.active]
	self.state = stateWaitingUntil
	self.wakeStep = s.step + n
	if next > s.step {
		// the largest step all paused threads can jointly take
		if err := s.doStep(next - s.step); err != nil {
			self.state = stateActive
			return err
		}
	}
	return s.yield(self)
}

// Join blocks until each of the given threads has finished, in order. It
// returns the first error recorded by a joined thread, or a scheduler
// error (e.g. deadlock) immediately.
//
func (s *Scheduler) Join(ids ...int) error {
	var firstErr error
	for _, id := range ids {
		if id <= 0 || id >= len(s.threads) {
			return errors.Errorf("join: no thread %d", id)
		}
		t := s.threads[id]
		if t.id == s.active {
			return errors.Errorf("join: thread %q cannot join itself", t.name)
		}
		if t.state != stateFinished {
			if err := s.advanceToWake(); err != nil {
				return err
			}
			self := s.threads[s.active]
			self.state = stateWaitingJoin
			self.joinTarget = id
			nt := s.findNext(self)
			if nt == nil {
				self.state = stateActive
				return errors.WithStack(ErrDeadlock)
			}
			s.wake(nt)
			select {
			case <-t.done:
			case <-s.shutdown:
				panic(threadKilled{})
			}
			s.active = self.id
			self.state = stateActive
		}
		if t.err != nil && firstErr == nil {
			firstErr = t.err
		}
	}
	return firstErr
}

// JoinAll joins every unfinished thread, including threads forked while
// joining. A deadlock aborts the sweep; thread errors are collected and the
// first one returned.
//
func (s *Scheduler) JoinAll() error {
	var firstErr error
	for {
		id := -1
		for _, t := range s.threads[1:] {
			if t.state != stateFinished {
				id = t.id
				break
			}
		}
		if id < 0 {
			return firstErr
		}
		err := s.Join(id)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if errors.Cause(err) == ErrDeadlock {
			return firstErr
		}
	}
}

// Shutdown interrupts every parked thread. Their bodies unwind at the next
// suspension point. Must be called at most once, by the main thread, after
// the test function returned.
//
func (s *Scheduler) Shutdown() {
	close(s.shutdown)
}
