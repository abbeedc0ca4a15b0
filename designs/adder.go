// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package designs

import (
	"github.com/db47h/cyclesim"
	"github.com/db47h/cyclesim/tester"
)

// Adder returns a purely combinational adder, useful to exercise
// combinational dependency checking: sum depends on both inputs within the
// same tick.
//
//	Inputs: a[width], b[width]
//	Outputs: sum[width+1]
//
func Adder(width int) (*cyclesim.Sim, tester.Design, error) {
	b := cyclesim.NewBuilder("Adder")
	b.Clock("clk")
	b.Input("a", width)
	b.Input("b", width)
	b.Output("sum", width+1)

	b.Store("sum", cyclesim.AddLong(b.Long("a"), b.Long("b")))

	exe, err := b.Build()
	if err != nil {
		return nil, tester.Design{}, err
	}
	return cyclesim.New(exe), newDesign("Adder", b), nil
}
