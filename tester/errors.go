// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tester

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors.
var (
	// ErrDeadlock is returned when the scheduler cannot find any runnable
	// thread.
	ErrDeadlock = errors.New("deadlock: no runnable test thread")

	// ErrNotSupported is returned by bench operations the backend does not
	// implement, e.g. fork on the single-threaded bench.
	ErrNotSupported = errors.New("operation not supported by this bench")
)

// An UnpokeableError reports a poke of a read-only or unknown signal.
//
type UnpokeableError string

func (e UnpokeableError) Error() string {
	return fmt.Sprintf("signal %q cannot be poked", string(e))
}

// An UnpeekableError reports a peek of a signal that is not an IO leaf of
// the design.
//
type UnpeekableError string

func (e UnpeekableError) Error() string {
	return fmt.Sprintf("signal %q cannot be peeked", string(e))
}

// A Conflict is the reason a signal access was rejected as thread order
// dependent.
//
type Conflict int

// Conflict reasons.
const (
	ConflictPoke Conflict = iota
	ConflictPeek
	ConflictPeekOnDependent
	ConflictPokeOnDependent
)

func (c Conflict) String() string {
	switch c {
	case ConflictPoke:
		return "conflicting poke"
	case ConflictPeek:
		return "conflicting peek"
	case ConflictPeekOnDependent:
		return "conflicting peek on dependent signal"
	case ConflictPokeOnDependent:
		return "conflicting poke on dependent signal"
	}
	return "conflict"
}

// A ThreadOrderError reports an access whose outcome would depend on test
// thread scheduling order: another, unrelated thread touched the signal (or
// a combinationally dependent signal) in the same tick.
//
type ThreadOrderError struct {
	Signal   string
	Conflict Conflict
	Thread   int // the previously accessing thread
}

func (e *ThreadOrderError) Error() string {
	return fmt.Sprintf("access to %q is thread order dependent: %s by thread %d", e.Signal, e.Conflict, e.Thread)
}

// A TimeoutError reports that the idle cycle counter reached the configured
// timeout.
//
type TimeoutError struct {
	Cycles int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %d cycles without a value changing poke", e.Cycles)
}

// An AssertionError reports a simulator assertion failure, including an
// underlying simulator that exited early.
//
type AssertionError struct {
	Step int
	Err  error // optional payload
}

func (e *AssertionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assertion failed at step %d: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("assertion failed at step %d", e.Step)
}

// Unwrap returns the payload.
func (e *AssertionError) Unwrap() error { return e.Err }

// A StopError reports a simulator stop request.
//
type StopError struct {
	Step int
}

func (e *StopError) Error() string {
	return fmt.Sprintf("simulation stopped at step %d", e.Step)
}
