// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cyclesim

import "math/big"

// Data is the flat value storage of an executable: one dense vector per width
// class plus the backing stores for array symbols. Cells are addressed by the
// index recorded on their Symbol. During evaluation only store operations
// mutate Data; between ticks the simulation façade pokes cells directly.
//
type Data struct {
	Bools []bool
	Longs []int64
	Bigs  []*big.Int

	LongMems [][]int64
	BigMems  [][]*big.Int
}

// newData allocates storage for the given cell counts. Big cells and big
// memory elements are initialized to zero values so loads never see nil.
//
func newData(bools, longs, bigs int, longMems, bigMems []int) *Data {
	d := &Data{
		Bools: make([]bool, bools),
		Longs: make([]int64, longs),
		Bigs:  make([]*big.Int, bigs),
	}
	for i := range d.Bigs {
		d.Bigs[i] = new(big.Int)
	}
	for _, n := range longMems {
		d.LongMems = append(d.LongMems, make([]int64, n))
	}
	for _, n := range bigMems {
		m := make([]*big.Int, n)
		for i := range m {
			m[i] = new(big.Int)
		}
		d.BigMems = append(d.BigMems, m)
	}
	return d
}

// Clone returns a deep copy of d. Expression trees hold no reference to Data,
// so evaluating an executable against a clone is just a matter of passing the
// clone to each op's Execute. Executable.Update always runs against the
// executable's own Data field.
//
func (d *Data) Clone() *Data {
	c := &Data{
		Bools: append([]bool(nil), d.Bools...),
		Longs: append([]int64(nil), d.Longs...),
		Bigs:  make([]*big.Int, len(d.Bigs)),
	}
	for i, v := range d.Bigs {
		c.Bigs[i] = new(big.Int).Set(v)
	}
	for _, m := range d.LongMems {
		c.LongMems = append(c.LongMems, append([]int64(nil), m...))
	}
	for _, m := range d.BigMems {
		cm := make([]*big.Int, len(m))
		for i, v := range m {
			cm[i] = new(big.Int).Set(v)
		}
		c.BigMems = append(c.BigMems, cm)
	}
	return c
}
