// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package designs

import (
	"github.com/db47h/cyclesim"
	"github.com/db47h/cyclesim/tester"
)

// Counter returns a loadable counter.
//
//	Inputs: en, ld, d[width]
//	Outputs: out[width]
//
// The count increments while en is high and loads d while ld is high; ld
// wins.
//
func Counter(width int) (*cyclesim.Sim, tester.Design, error) {
	b := cyclesim.NewBuilder("Counter")
	b.Clock("clk")
	b.Input("en", 1)
	b.Input("ld", 1)
	b.Input("d", width)
	b.Register("count", width)
	b.Output("out", width)

	count := b.Long("count")
	b.Store("count", b.MuxLong(b.Bool("ld"), b.Long("d"),
		b.MuxLong(b.Bool("en"), cyclesim.AddLong(count, cyclesim.ConstLong(1)), count)))
	b.Store("out", b.Long("count"))

	exe, err := b.Build()
	if err != nil {
		return nil, tester.Design{}, err
	}
	return cyclesim.New(exe), newDesign("Counter", b), nil
}
