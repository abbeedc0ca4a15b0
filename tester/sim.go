// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package tester drives a compiled design from procedural test code.
//
// A Design describes the IO surface of a device under test; a Simulator is
// the underlying engine stepping it. Two benches are provided: a plain
// single-threaded one, and a threaded one that multiplexes cooperative test
// threads over one clock while policing cross-thread signal access.
//
package tester

import (
	"math/big"

	"github.com/db47h/cyclesim"
)

// A StepResult is the outcome of an underlying simulator step. The zero
// value means the step ran to completion.
//
type StepResult struct {
	Interrupted bool
	After       int   // cycles completed before the interruption
	Assertion   bool  // interrupted by an assertion rather than a stop
	Payload     error // optional assertion detail
}

// A Simulator is the underlying engine a bench drives. Implementations are
// single-threaded: the benches guarantee sequential access.
//
// Step returns an error only when the simulator itself broke (e.g. a native
// harness process died); the bench reports that as an assertion failure at
// the current step. Assertions raised by the design surface through the
// StepResult instead.
//
type Simulator interface {
	Step(cycles int) (StepResult, error)
	Peek(name string) (*big.Int, error)
	Poke(name string, v *big.Int) error
	Finish() error
	SupportsCoverage() bool
	Coverage() map[string]int64
}

// A Design describes the IO surface of a device under test: its ports in id
// assignment order, the master clock, and for every output reachable from an
// input through stateless logic, the list of source inputs.
//
type Design struct {
	Name      string
	Clock     string
	Ports     []cyclesim.Port
	CombPaths map[string][]string
}

// An EngineSim adapts a cyclesim façade to the Simulator contract. Symbol
// ids are resolved once and cached.
//
type EngineSim struct {
	sim *cyclesim.Sim
	ids map[string]int
}

// NewEngineSim returns a Simulator backed by the given simulation façade.
//
func NewEngineSim(s *cyclesim.Sim) *EngineSim {
	return &EngineSim{sim: s, ids: make(map[string]int)}
}

func (e *EngineSim) id(name string) (int, error) {
	if id, ok := e.ids[name]; ok {
		return id, nil
	}
	id, err := e.sim.SymbolID(name)
	if err != nil {
		return -1, err
	}
	e.ids[name] = id
	return id, nil
}

// Step runs the requested number of ticks. The engine has no assertion
// mechanism, so the result is never an interruption.
//
func (e *EngineSim) Step(cycles int) (StepResult, error) {
	for i := 0; i < cycles; i++ {
		e.sim.Step()
	}
	return StepResult{}, nil
}

// Peek reads a symbol by name.
//
func (e *EngineSim) Peek(name string) (*big.Int, error) {
	id, err := e.id(name)
	if err != nil {
		return nil, err
	}
	return e.sim.PeekBits(id)
}

// Poke writes a symbol by name.
//
func (e *EngineSim) Poke(name string, v *big.Int) error {
	id, err := e.id(name)
	if err != nil {
		return err
	}
	return e.sim.PokeBits(id, v)
}

// Finish is a no-op: there is no external process and no waveform stream.
//
func (e *EngineSim) Finish() error { return nil }

// SupportsCoverage reports whether the executable carries coverage
// counters.
//
func (e *EngineSim) SupportsCoverage() bool {
	return e.sim.Executable().Coverage() != nil
}

// Coverage returns the executable's mux arm selection counts.
//
func (e *EngineSim) Coverage() map[string]int64 {
	return e.sim.Executable().Coverage()
}
