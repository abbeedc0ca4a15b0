// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tester

import (
	"fmt"
	"math/big"

	"github.com/db47h/cyclesim"
)

// fakeSim records every poke and step request and serves peeks from a value
// map.
type fakeSim struct {
	values map[string]*big.Int
	pokes  []string
	steps  []int
	stepFn func(cycles int) (StepResult, error)
}

func newFakeSim() *fakeSim {
	return &fakeSim{values: make(map[string]*big.Int)}
}

func (f *fakeSim) Step(cycles int) (StepResult, error) {
	f.steps = append(f.steps, cycles)
	if f.stepFn != nil {
		return f.stepFn(cycles)
	}
	return StepResult{}, nil
}

func (f *fakeSim) Peek(name string) (*big.Int, error) {
	if v, ok := f.values[name]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (f *fakeSim) Poke(name string, v *big.Int) error {
	f.pokes = append(f.pokes, fmt.Sprintf("%s=%v", name, v))
	f.values[name] = new(big.Int).Set(v)
	return nil
}

func (f *fakeSim) Finish() error              { return nil }
func (f *fakeSim) SupportsCoverage() bool     { return false }
func (f *fakeSim) Coverage() map[string]int64 { return nil }

func (f *fakeSim) totalSteps() int {
	n := 0
	for _, s := range f.steps {
		n += s
	}
	return n
}

// fakeView is a hand controlled ThreadView.
type fakeView struct {
	active  int
	step    int
	parents map[[2]int]bool // {parent, child} pairs
}

func (v *fakeView) ActiveThread() int { return v.active }
func (v *fakeView) CurrentStep() int  { return v.step }
func (v *fakeView) IsParentOf(parent, child int) bool {
	return v.parents[[2]int{parent, child}]
}

// testDesign returns a design with input x, input y and output sum, where
// sum combinationally depends on x and y.
func testDesign() Design {
	return Design{
		Name:  "fake",
		Clock: "clk",
		Ports: []cyclesim.Port{
			{Name: "x", Width: 8},
			{Name: "y", Width: 8},
			{Name: "sum", Output: true, Width: 9},
		},
		CombPaths: map[string][]string{"sum": {"x", "y"}},
	}
}
