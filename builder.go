// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cyclesim

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// A Builder assembles symbols and stores into an Executable.
//
// Stores to Node symbols evaluate before the clock edge, in declaration
// order; they feed register next values. Register and memory stores apply
// the edge. Stores to Output symbols evaluate last, so a peek after Update
// sees post-edge values.
//
// Construction errors (unknown names, class mismatches, duplicate stores)
// are sticky: expression helpers return a usable zero expression and the
// first error is reported by Build.
//
type Builder struct {
	name  string
	clock *Symbol

	syms  []*Symbol
	index map[string]*Symbol

	nBool, nLong, nBig int
	longMemSizes       []int
	bigMemSizes        []int

	boolOwner, longOwner, bigOwner map[int]*Symbol

	stores []buildStore
	cover  []muxCover
	muxN   int

	ports []Port
	paths map[string][]string

	err error
}

// a buildStore is one user-declared assignment, before compilation into the
// final op list.
type buildStore struct {
	dest *Symbol
	addr LongExpr // nil unless dest is an array
	expr interface{}
}

// A Port describes one IO leaf of a built design. The master clock is not a
// port: it is driven by stepping, not by pokes.
//
type Port struct {
	Name   string
	Output bool
	Width  int
}

// NewBuilder returns an empty builder for a design with the given name.
//
func NewBuilder(name string) *Builder {
	return &Builder{
		name:      name,
		index:     make(map[string]*Symbol),
		boolOwner: make(map[int]*Symbol),
		longOwner: make(map[int]*Symbol),
		bigOwner:  make(map[int]*Symbol),
	}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) declare(name string, kind Kind, width int, clock bool, elems int) *Symbol {
	if width < 1 {
		b.fail(errors.Errorf("symbol %q has invalid width %d", name, width))
		width = 1
	}
	if _, ok := b.index[name]; ok {
		b.fail(errors.Errorf("symbol %q declared twice", name))
	}
	s := &Symbol{Name: name, Kind: kind, Width: width, Clock: clock, Elems: elems}
	if elems > 0 {
		if s.Class() == ClassBig {
			s.Index = len(b.bigMemSizes)
			b.bigMemSizes = append(b.bigMemSizes, elems)
		} else {
			s.Index = len(b.longMemSizes)
			b.longMemSizes = append(b.longMemSizes, elems)
		}
	} else {
		switch s.Class() {
		case ClassBool:
			s.Index = b.nBool
			b.nBool++
			b.boolOwner[s.Index] = s
		case ClassLong:
			s.Index = b.nLong
			b.nLong++
			b.longOwner[s.Index] = s
		default:
			s.Index = b.nBig
			b.nBig++
			b.bigOwner[s.Index] = s
		}
	}
	b.syms = append(b.syms, s)
	b.index[name] = s
	return s
}

// Clock declares the master clock input. A design has at most one clock.
//
func (b *Builder) Clock(name string) *Symbol {
	if b.clock != nil {
		b.fail(errors.Errorf("clock %q declared twice", name))
	}
	s := b.declare(name, Input, 1, true, 0)
	b.clock = s
	return s
}

// Input declares an input symbol.
//
func (b *Builder) Input(name string, width int) *Symbol {
	return b.declare(name, Input, width, false, 0)
}

// Output declares an output symbol.
//
func (b *Builder) Output(name string, width int) *Symbol {
	return b.declare(name, Output, width, false, 0)
}

// Register declares a clocked register.
//
func (b *Builder) Register(name string, width int) *Symbol {
	return b.declare(name, Register, width, false, 0)
}

// Node declares a combinational cell.
//
func (b *Builder) Node(name string, width int) *Symbol {
	return b.declare(name, Node, width, false, 0)
}

// Memory declares an array symbol of elems cells. Memories are never clocks
// and are stored in the long class up to width 64, the big class beyond.
//
func (b *Builder) Memory(name string, width, elems int) *Symbol {
	if elems < 1 {
		b.fail(errors.Errorf("memory %q has invalid element count %d", name, elems))
		elems = 1
	}
	return b.declare(name, Register, width, false, elems)
}

// Inputs declares a list of inputs from a declaration string, e.g.
// "a[16], b[16], e".
//
func (b *Builder) Inputs(spec string) {
	b.declareAll(spec, Input)
}

// Outputs declares a list of outputs from a declaration string.
//
func (b *Builder) Outputs(spec string) {
	b.declareAll(spec, Output)
}

// Registers declares a list of registers from a declaration string.
//
func (b *Builder) Registers(spec string) {
	b.declareAll(spec, Register)
}

func (b *Builder) declareAll(spec string, kind Kind) {
	ds, err := parseDecls(spec)
	if err != nil {
		b.fail(errors.Wrap(err, b.name))
		return
	}
	for _, d := range ds {
		b.declare(d.name, kind, d.width, false, 0)
	}
}

func (b *Builder) lookup(name string, class Class) *Symbol {
	s, ok := b.index[name]
	if !ok {
		b.fail(errors.WithStack(UnknownSymbolError(name)))
		return nil
	}
	if s.IsArray() {
		b.fail(errors.Errorf("symbol %q is an array, use MemReadLong/MemReadBig", name))
		return nil
	}
	if s.Class() != class {
		b.fail(errors.WithStack(&ClassError{Name: name, Want: s.Class(), Got: class}))
		return nil
	}
	return s
}

// Bool returns a load of the named 1 bit symbol.
//
func (b *Builder) Bool(name string) BoolExpr {
	s := b.lookup(name, ClassBool)
	if s == nil {
		return ConstBool(false)
	}
	return LoadBool(s.Index)
}

// Long returns a load of the named long symbol.
//
func (b *Builder) Long(name string) LongExpr {
	s := b.lookup(name, ClassLong)
	if s == nil {
		return ConstLong(0)
	}
	return LoadLong(s.Index)
}

// Big returns a load of the named big symbol.
//
func (b *Builder) Big(name string) BigExpr {
	return b.bigLoad(name)
}

func (b *Builder) bigLoad(name string) BigExpr {
	s := b.lookup(name, ClassBig)
	if s == nil {
		return ConstBig(bigZero)
	}
	return LoadBig(s.Index)
}

func (b *Builder) muxLabel() *[2]int64 {
	cnt := new([2]int64)
	b.cover = append(b.cover, muxCover{label: b.name + "/mux" + strconv.Itoa(b.muxN), cnt: cnt})
	b.muxN++
	return cnt
}

// MuxBool is MuxBool with an arm coverage counter registered on the design.
//
func (b *Builder) MuxBool(cond, tru, fals BoolExpr) BoolExpr {
	return &muxBool{cond: cond, tru: tru, fals: fals, cnt: b.muxLabel()}
}

// MuxLong is MuxLong with an arm coverage counter registered on the design.
//
func (b *Builder) MuxLong(cond BoolExpr, tru, fals LongExpr) LongExpr {
	return &muxLong{cond: cond, tru: tru, fals: fals, cnt: b.muxLabel()}
}

// MuxBig is MuxBig with an arm coverage counter registered on the design.
//
func (b *Builder) MuxBig(cond BoolExpr, tru, fals BigExpr) BigExpr {
	return &muxBig{cond: cond, tru: tru, fals: fals, cnt: b.muxLabel()}
}

// Store declares an assignment to the named symbol. Nodes and outputs are
// combinational, registers are clocked. The expression kind must match the
// symbol's class; long and big results are truncated to the symbol width.
//
func (b *Builder) Store(name string, e interface{}) {
	s, ok := b.index[name]
	if !ok {
		b.fail(errors.WithStack(UnknownSymbolError(name)))
		return
	}
	if s.IsArray() {
		b.fail(errors.Errorf("array symbol %q needs StoreMem", name))
		return
	}
	if s.Kind == Input {
		b.fail(errors.Errorf("cannot store to input %q", name))
		return
	}
	if !b.checkExprClass(name, s.Class(), e) {
		return
	}
	b.stores = append(b.stores, buildStore{dest: s, expr: e})
}

// StoreMem declares a clocked write of element addr of the named array
// symbol. Unconditional: a write enable is expressed by muxing the old
// element value back in.
//
func (b *Builder) StoreMem(name string, addr LongExpr, e interface{}) {
	s, ok := b.index[name]
	if !ok {
		b.fail(errors.WithStack(UnknownSymbolError(name)))
		return
	}
	if !s.IsArray() {
		b.fail(errors.Errorf("symbol %q is not an array", name))
		return
	}
	if !b.checkExprClass(name, s.Class(), e) {
		return
	}
	b.stores = append(b.stores, buildStore{dest: s, addr: addr, expr: e})
}

func (b *Builder) checkExprClass(name string, class Class, e interface{}) bool {
	var got Class
	switch e.(type) {
	case BoolExpr:
		got = ClassBool
	case LongExpr:
		got = ClassLong
	case BigExpr:
		got = ClassBig
	default:
		b.fail(errors.Errorf("store to %q: not an expression: %T", name, e))
		return false
	}
	if got != class {
		b.fail(errors.WithStack(&ClassError{Name: name, Want: class, Got: got}))
		return false
	}
	return true
}

// maskExpr wraps a combinational result to the destination width.
func maskExpr(e interface{}, width int) interface{} {
	switch x := e.(type) {
	case BoolExpr:
		return x
	case LongExpr:
		if width >= 64 {
			return x
		}
		return BitsLong(x, width-1, 0)
	case BigExpr:
		return BitsBig(x, width-1, 0)
	}
	return e
}

// Build compiles the declared symbols and stores into an executable,
// checking that every node, register and output has exactly one store, that
// no input is stored, and that the resulting store order reads every
// combinational cell after it was written.
//
func (b *Builder) Build() (*Executable, error) {
	if b.err != nil {
		return nil, errors.Wrap(b.err, b.name)
	}

	counts := make(map[*Symbol]int)
	for _, st := range b.stores {
		counts[st.dest]++
	}
	for _, s := range b.syms {
		switch {
		case s.Kind == Input:
			// never stored, checked in Store
		case s.IsArray():
			if counts[s] > 1 {
				return nil, errors.Errorf("%s: array %q written by %d stores", b.name, s.Name, counts[s])
			}
		case counts[s] != 1:
			return nil, errors.Errorf("%s: symbol %q has %d stores, want 1", b.name, s.Name, counts[s])
		}
	}

	b.derivePaths()

	// compile, introducing one hidden next cell per register so register
	// updates read pre-edge state.
	var comb, edge, outs []Op
	for _, st := range b.stores {
		e := maskExpr(st.expr, st.dest.Width)
		switch {
		case st.dest.IsArray():
			if st.dest.Class() == ClassBig {
				edge = append(edge, StoreBigMem(st.dest.Index, st.addr, e.(BigExpr)))
			} else {
				edge = append(edge, StoreLongMem(st.dest.Index, st.addr, e.(LongExpr)))
			}
		case st.dest.Kind == Register:
			next := b.declare(st.dest.Name+"$next", Node, st.dest.Width, false, 0)
			if b.err != nil {
				return nil, errors.Wrap(b.err, b.name)
			}
			switch x := e.(type) {
			case BoolExpr:
				comb = append(comb, StoreBool(next.Index, x))
				edge = append(edge, StoreBool(st.dest.Index, LoadBool(next.Index)))
			case LongExpr:
				comb = append(comb, StoreLong(next.Index, x))
				edge = append(edge, StoreLong(st.dest.Index, LoadLong(next.Index)))
			case BigExpr:
				comb = append(comb, StoreBig(next.Index, x))
				edge = append(edge, StoreBig(st.dest.Index, LoadBig(next.Index)))
			}
		case st.dest.Kind == Output:
			switch x := e.(type) {
			case BoolExpr:
				outs = append(outs, StoreBool(st.dest.Index, x))
			case LongExpr:
				outs = append(outs, StoreLong(st.dest.Index, x))
			case BigExpr:
				outs = append(outs, StoreBig(st.dest.Index, x))
			}
		default: // Node
			switch x := e.(type) {
			case BoolExpr:
				comb = append(comb, StoreBool(st.dest.Index, x))
			case LongExpr:
				comb = append(comb, StoreLong(st.dest.Index, x))
			case BigExpr:
				comb = append(comb, StoreBig(st.dest.Index, x))
			}
		}
	}
	ops := append(append(comb, edge...), outs...)

	if err := b.checkOrder(ops); err != nil {
		return nil, errors.Wrap(err, b.name)
	}

	for _, s := range b.syms {
		if s.Kind == Input && !s.Clock {
			b.ports = append(b.ports, Port{Name: s.Name, Width: s.Width})
		} else if s.Kind == Output {
			b.ports = append(b.ports, Port{Name: s.Name, Output: true, Width: s.Width})
		}
	}

	exe := &Executable{
		Info:  NewInfo(b.syms),
		Data:  newData(b.nBool, b.nLong, b.nBig, b.longMemSizes, b.bigMemSizes),
		Ops:   ops,
		cover: b.cover,
	}
	return exe, nil
}

// Ports returns the design's IO leaves in declaration order. Valid after
// Build.
//
func (b *Builder) Ports() []Port { return b.ports }

// CombPaths returns, for every output with a purely combinational path from
// an input, the sorted list of source input names. Valid after Build.
//
func (b *Builder) CombPaths() map[string][]string { return b.paths }

// checkOrder verifies that the compiled op list reads every combinational
// cell after the store producing it, i.e. that the store order is a valid
// topological order.
//
func (b *Builder) checkOrder(ops []Op) error {
	written := make(map[ref]bool)
	owner := func(r ref) *Symbol {
		switch r.class {
		case ClassBool:
			return b.boolOwner[r.idx]
		case ClassLong:
			return b.longOwner[r.idx]
		default:
			return b.bigOwner[r.idx]
		}
	}
	for _, op := range ops {
		var err error
		opRefs(op, func(r ref) {
			if r.mem || err != nil {
				return
			}
			s := owner(r)
			if s == nil || (s.Kind != Node && s.Kind != Output) {
				return
			}
			if !written[ref{class: r.class, idx: r.idx}] {
				err = errors.Errorf("store reads %q before it is written", s.Name)
			}
		})
		if err != nil {
			return err
		}
		if dst, ok := opDest(op); ok {
			written[dst] = true
		}
	}
	return nil
}

// derivePaths computes the combinational input sources of every output by
// walking store expressions through node cells. Registers and memories stop
// propagation.
//
func (b *Builder) derivePaths() {
	srcs := make(map[*Symbol][]*Symbol) // immediate sources per comb dest
	for _, st := range b.stores {
		if st.dest.Kind == Register || st.dest.IsArray() {
			continue
		}
		var list []*Symbol
		collect := func(r ref) {
			if r.mem {
				return
			}
			var s *Symbol
			switch r.class {
			case ClassBool:
				s = b.boolOwner[r.idx]
			case ClassLong:
				s = b.longOwner[r.idx]
			default:
				s = b.bigOwner[r.idx]
			}
			if s != nil {
				list = append(list, s)
			}
		}
		exprRefs(st.expr, collect)
		if st.addr != nil {
			exprRefs(st.addr, collect)
		}
		srcs[st.dest] = list
	}

	b.paths = make(map[string][]string)
	for _, s := range b.syms {
		if s.Kind != Output {
			continue
		}
		leaves := make(map[string]bool)
		seen := make(map[*Symbol]bool)
		var walk func(sym *Symbol)
		walk = func(sym *Symbol) {
			if seen[sym] {
				return
			}
			seen[sym] = true
			for _, src := range srcs[sym] {
				switch {
				case src.Kind == Input && !src.Clock:
					leaves[src.Name] = true
				case src.Kind == Node:
					walk(src)
				}
			}
		}
		walk(s)
		if len(leaves) == 0 {
			continue
		}
		names := make([]string, 0, len(leaves))
		for n := range leaves {
			names = append(names, n)
		}
		sort.Strings(names)
		b.paths[s.Name] = names
	}
}
