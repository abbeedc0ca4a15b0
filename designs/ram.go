// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package designs

import (
	"github.com/db47h/cyclesim"
	"github.com/db47h/cyclesim/tester"
)

// RAM returns a single write port, single read port memory. Writes apply on
// the clock edge while wen is high; the read port is combinational and sees
// the element written in the same tick.
//
//	Inputs: wen, waddr[addrBits], wdata[width], raddr[addrBits]
//	Outputs: rdata[width]
//
func RAM(width, addrBits int) (*cyclesim.Sim, tester.Design, error) {
	b := cyclesim.NewBuilder("RAM")
	b.Clock("clk")
	b.Input("wen", 1)
	b.Input("waddr", addrBits)
	b.Input("wdata", width)
	b.Input("raddr", addrBits)
	b.Output("rdata", width)
	mem := b.Memory("mem", width, 1<<uint(addrBits))

	waddr := b.Long("waddr")
	b.StoreMem("mem", waddr,
		b.MuxLong(b.Bool("wen"), b.Long("wdata"), cyclesim.MemReadLong(mem.Index, waddr)))
	b.Store("rdata", cyclesim.MemReadLong(mem.Index, b.Long("raddr")))

	exe, err := b.Build()
	if err != nil {
		return nil, tester.Design{}, err
	}
	return cyclesim.New(exe), newDesign("RAM", b), nil
}
