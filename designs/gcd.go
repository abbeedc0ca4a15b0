// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package designs provides a library of small compiled designs for tests,
// examples and the cyclesim command.
//
package designs

import (
	"github.com/db47h/cyclesim"
	"github.com/db47h/cyclesim/tester"
)

// newDesign builds the tester side descriptor from a built design.
func newDesign(name string, b *cyclesim.Builder) tester.Design {
	return tester.Design{
		Name:      name,
		Clock:     "clk",
		Ports:     b.Ports(),
		CombPaths: b.CombPaths(),
	}
}

// GCD returns a Euclid GCD unit. Inputs a and b are latched while e is
// high; the unit then swaps and subtracts until y reaches zero. The result
// appears on z with v high.
//
//	Inputs: a[width], b[width], e
//	Outputs: z[width], v
//
func GCD(width int) (*cyclesim.Sim, tester.Design, error) {
	b := cyclesim.NewBuilder("GCD")
	b.Clock("clk")
	b.Input("a", width)
	b.Input("b", width)
	b.Input("e", 1)
	b.Register("x", width)
	b.Register("y", width)
	b.Output("z", width)
	b.Output("v", 1)

	x, y := b.Long("x"), b.Long("y")
	lt := cyclesim.GtUnsignedLong(y, x) // x < y: swap
	b.Store("x", b.MuxLong(b.Bool("e"), b.Long("a"),
		b.MuxLong(lt, y, cyclesim.SubLong(x, y))))
	b.Store("y", b.MuxLong(b.Bool("e"), b.Long("b"),
		b.MuxLong(lt, x, y)))
	b.Store("z", b.Long("x"))
	b.Store("v", cyclesim.EqualLong(b.Long("y"), cyclesim.ConstLong(0)))

	exe, err := b.Build()
	if err != nil {
		return nil, tester.Design{}, err
	}
	return cyclesim.New(exe), newDesign("GCD", b), nil
}
