// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cyclesim

import (
	"math/big"

	"github.com/pkg/errors"
)

// A Sim is the simulation façade over a compiled executable: symbol lookup
// by name, typed peek and poke by id, and Step. Name resolution happens once
// through SymbolID; the typed accessors take the resulting integer id.
//
// Sim is not safe for concurrent use. The tester package guarantees
// single-threaded access even under its multi-threaded bench.
//
type Sim struct {
	exe   *Executable
	steps int
}

// New returns a simulation façade over exe.
//
func New(exe *Executable) *Sim {
	return &Sim{exe: exe}
}

// Executable returns the underlying executable.
//
func (s *Sim) Executable() *Executable { return s.exe }

// SymbolID resolves a symbol name to its id.
//
func (s *Sim) SymbolID(name string) (int, error) {
	id := s.exe.Info.ID(name)
	if id < 0 {
		return -1, errors.WithStack(UnknownSymbolError(name))
	}
	return id, nil
}

// Symbol returns the symbol with the given id, or nil if out of range.
//
func (s *Sim) Symbol(id int) *Symbol {
	if id < 0 || id >= len(s.exe.Info.Symbols) {
		return nil
	}
	return s.exe.Info.Symbols[id]
}

func (s *Sim) symbol(id int, class Class) (*Symbol, error) {
	sym := s.Symbol(id)
	if sym == nil {
		return nil, errors.Errorf("symbol id %d out of range", id)
	}
	if sym.Class() != class {
		return nil, errors.WithStack(&ClassError{Name: sym.Name, Want: sym.Class(), Got: class})
	}
	return sym, nil
}

// PokeBool writes a 1 bit symbol.
//
func (s *Sim) PokeBool(id int, v bool) error {
	sym, err := s.symbol(id, ClassBool)
	if err != nil {
		return err
	}
	s.exe.Data.Bools[sym.Index] = v
	return nil
}

// PokeLong writes a long symbol. The value is truncated to the symbol width.
//
func (s *Sim) PokeLong(id int, v int64) error {
	sym, err := s.symbol(id, ClassLong)
	if err != nil {
		return err
	}
	s.exe.Data.Longs[sym.Index] = v & LongMask(sym.Width)
	return nil
}

// PokeBig writes a big symbol. The value is truncated to the symbol width.
//
func (s *Sim) PokeBig(id int, v *big.Int) error {
	sym, err := s.symbol(id, ClassBig)
	if err != nil {
		return err
	}
	c := s.exe.Data.Bigs[sym.Index]
	c.And(v, BigMask(sym.Width))
	return nil
}

// PeekBool reads a 1 bit symbol.
//
func (s *Sim) PeekBool(id int) (bool, error) {
	sym, err := s.symbol(id, ClassBool)
	if err != nil {
		return false, err
	}
	return s.exe.Data.Bools[sym.Index], nil
}

// PeekLong reads a long symbol.
//
func (s *Sim) PeekLong(id int) (int64, error) {
	sym, err := s.symbol(id, ClassLong)
	if err != nil {
		return 0, err
	}
	return s.exe.Data.Longs[sym.Index], nil
}

// PeekBig reads a big symbol. The returned value is a copy.
//
func (s *Sim) PeekBig(id int) (*big.Int, error) {
	sym, err := s.symbol(id, ClassBig)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(s.exe.Data.Bigs[sym.Index]), nil
}

// PokeBits writes any scalar symbol, dispatching on its width class. The
// value is interpreted as unsigned and truncated to the symbol width.
//
func (s *Sim) PokeBits(id int, v *big.Int) error {
	sym := s.Symbol(id)
	if sym == nil {
		return errors.Errorf("symbol id %d out of range", id)
	}
	switch sym.Class() {
	case ClassBool:
		return s.PokeBool(id, v.Bit(0) == 1)
	case ClassLong:
		return s.PokeLong(id, int64(v.Uint64()&uint64(LongMask(sym.Width))))
	default:
		return s.PokeBig(id, v)
	}
}

// PeekBits reads any scalar symbol as an unsigned big integer.
//
func (s *Sim) PeekBits(id int) (*big.Int, error) {
	sym := s.Symbol(id)
	if sym == nil {
		return nil, errors.Errorf("symbol id %d out of range", id)
	}
	switch sym.Class() {
	case ClassBool:
		v, err := s.PeekBool(id)
		if err != nil {
			return nil, err
		}
		if v {
			return big.NewInt(1), nil
		}
		return new(big.Int), nil
	case ClassLong:
		v, err := s.PeekLong(id)
		if err != nil {
			return nil, err
		}
		return new(big.Int).SetUint64(uint64(v & LongMask(sym.Width))), nil
	default:
		return s.PeekBig(id)
	}
}

// PokeMem writes element addr of an array symbol.
//
func (s *Sim) PokeMem(id int, addr int, v *big.Int) error {
	sym := s.Symbol(id)
	if sym == nil {
		return errors.Errorf("symbol id %d out of range", id)
	}
	if !sym.IsArray() {
		return errors.Errorf("symbol %q is not an array", sym.Name)
	}
	if addr < 0 || addr >= sym.Elems {
		return errors.Errorf("address %d out of range for %q[%d]", addr, sym.Name, sym.Elems)
	}
	if sym.Class() == ClassBig {
		s.exe.Data.BigMems[sym.Index][addr].And(v, BigMask(sym.Width))
		return nil
	}
	s.exe.Data.LongMems[sym.Index][addr] = int64(v.Uint64()) & LongMask(sym.Width)
	return nil
}

// PeekMem reads element addr of an array symbol.
//
func (s *Sim) PeekMem(id int, addr int) (*big.Int, error) {
	sym := s.Symbol(id)
	if sym == nil {
		return nil, errors.Errorf("symbol id %d out of range", id)
	}
	if !sym.IsArray() {
		return nil, errors.Errorf("symbol %q is not an array", sym.Name)
	}
	if addr < 0 || addr >= sym.Elems {
		return nil, errors.Errorf("address %d out of range for %q[%d]", addr, sym.Name, sym.Elems)
	}
	if sym.Class() == ClassBig {
		return new(big.Int).Set(s.exe.Data.BigMems[sym.Index][addr]), nil
	}
	v := s.exe.Data.LongMems[sym.Index][addr]
	return new(big.Int).SetUint64(uint64(v & LongMask(sym.Width))), nil
}

// Step advances the simulation by one tick.
//
func (s *Sim) Step() {
	s.exe.Update()
	s.steps++
}

// StepCount returns the number of ticks run so far.
//
func (s *Sim) StepCount() int { return s.steps }
