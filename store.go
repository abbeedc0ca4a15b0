// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cyclesim

// An Op is a single store operation: it evaluates one expression tree and
// writes the result into one storage cell. A tick is one pass over an
// executable's op list.
//
type Op interface {
	Execute(d *Data)
}

type storeBool struct {
	idx int
	e   BoolExpr
}

func (s *storeBool) Execute(d *Data) { d.Bools[s.idx] = s.e.EvalBool(d) }

type storeLong struct {
	idx int
	e   LongExpr
}

func (s *storeLong) Execute(d *Data) { d.Longs[s.idx] = s.e.EvalLong(d) }

type storeBig struct {
	idx int
	e   BigExpr
}

// Set rather than assign: big cells are stable, expression results may alias
// constants or memory elements.
func (s *storeBig) Execute(d *Data) { d.Bigs[s.idx].Set(s.e.EvalBig(d)) }

// StoreBool stores a 1 bit expression into boolean cell idx.
//
func StoreBool(idx int, e BoolExpr) Op { return &storeBool{idx, e} }

// StoreLong stores a long expression into int64 cell idx.
//
func StoreLong(idx int, e LongExpr) Op { return &storeLong{idx, e} }

// StoreBig stores a big expression into big cell idx.
//
func StoreBig(idx int, e BigExpr) Op { return &storeBig{idx, e} }

// memory stores. An out of range address drops the write.

type storeLongMem struct {
	mem  int
	addr LongExpr
	e    LongExpr
}

func (s *storeLongMem) Execute(d *Data) {
	m := d.LongMems[s.mem]
	a := s.addr.EvalLong(d)
	if a < 0 || a >= int64(len(m)) {
		return
	}
	m[a] = s.e.EvalLong(d)
}

type storeBigMem struct {
	mem  int
	addr LongExpr
	e    BigExpr
}

func (s *storeBigMem) Execute(d *Data) {
	m := d.BigMems[s.mem]
	a := s.addr.EvalLong(d)
	if a < 0 || a >= int64(len(m)) {
		return
	}
	m[a].Set(s.e.EvalBig(d))
}

// StoreLongMem stores a long expression into element addr of long memory mem.
//
func StoreLongMem(mem int, addr, e LongExpr) Op { return &storeLongMem{mem, addr, e} }

// StoreBigMem stores a big expression into element addr of big memory mem.
//
func StoreBigMem(mem int, addr LongExpr, e BigExpr) Op { return &storeBigMem{mem, addr, e} }
