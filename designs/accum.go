// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package designs

import (
	"github.com/db47h/cyclesim"
	"github.com/db47h/cyclesim/tester"
)

// Accumulator returns a wide accumulator running entirely in the
// arbitrary-precision class.
//
//	Inputs: din[80]
//	Outputs: total[96], hi, low[64]
//
// total is the running sum of din truncated to 96 bits, hi its top bit and
// low its low 64 bits.
//
func Accumulator() (*cyclesim.Sim, tester.Design, error) {
	b := cyclesim.NewBuilder("Accumulator")
	b.Clock("clk")
	b.Input("din", 80)
	b.Register("acc", 96)
	b.Output("total", 96)
	b.Output("hi", 1)
	b.Output("low", 64)

	b.Store("acc", cyclesim.AddBig(b.Big("acc"), b.Big("din")))
	b.Store("total", b.Big("acc"))
	b.Store("hi", cyclesim.BitBoolBig(b.Big("acc"), 95))
	b.Store("low", cyclesim.BitsLongOfBig(b.Big("acc"), 63, 0))

	exe, err := b.Build()
	if err != nil {
		return nil, tester.Design{}, err
	}
	return cyclesim.New(exe), newDesign("Accumulator", b), nil
}
