// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cyclesim

import "math/big"

// Expression trees come in three result kinds, one interface per kind.
// Trees are immutable once built; evaluation threads the storage through
// every call, so the same tree can run against cloned Data.
//
// Nodes that narrow their result (bit slices, not) carry a mask computed once
// at construction; LongToBig zero-extends through an unsigned conversion
// instead. Add and Sub deliberately do not mask: the
// store writing their result truncates to the destination width.

// A BoolExpr produces a 1 bit value.
//
type BoolExpr interface {
	EvalBool(d *Data) bool
}

// A LongExpr produces a value of width 2 to 64, held in two's complement in
// an int64.
//
type LongExpr interface {
	EvalLong(d *Data) int64
}

// A BigExpr produces a value of width 65 or more, held in a non-negative
// arbitrary-precision integer unless explicitly sign-extended.
//
type BigExpr interface {
	EvalBig(d *Data) *big.Int
}

// loads

type loadBool struct{ idx int }
type loadLong struct{ idx int }
type loadBig struct{ idx int }

func (n *loadBool) EvalBool(d *Data) bool   { return d.Bools[n.idx] }
func (n *loadLong) EvalLong(d *Data) int64  { return d.Longs[n.idx] }
func (n *loadBig) EvalBig(d *Data) *big.Int { return d.Bigs[n.idx] }

// LoadBool reads the boolean cell at index i.
//
func LoadBool(i int) BoolExpr { return &loadBool{i} }

// LoadLong reads the int64 cell at index i.
//
func LoadLong(i int) LongExpr { return &loadLong{i} }

// LoadBig reads the big integer cell at index i.
//
func LoadBig(i int) BigExpr { return &loadBig{i} }

// memory reads. An out of range address reads as zero.

type memReadLong struct {
	mem  int
	addr LongExpr
}

func (n *memReadLong) EvalLong(d *Data) int64 {
	m := d.LongMems[n.mem]
	a := n.addr.EvalLong(d)
	if a < 0 || a >= int64(len(m)) {
		return 0
	}
	return m[a]
}

type memReadBig struct {
	mem  int
	addr LongExpr
}

func (n *memReadBig) EvalBig(d *Data) *big.Int {
	m := d.BigMems[n.mem]
	a := n.addr.EvalLong(d)
	if a < 0 || a >= int64(len(m)) {
		return new(big.Int)
	}
	return m[a]
}

// MemReadLong reads element addr of long memory mem.
//
func MemReadLong(mem int, addr LongExpr) LongExpr { return &memReadLong{mem, addr} }

// MemReadBig reads element addr of big memory mem.
//
func MemReadBig(mem int, addr LongExpr) BigExpr { return &memReadBig{mem, addr} }

// constants

type constBool struct{ v bool }
type constLong struct{ v int64 }
type constBig struct{ v *big.Int }

func (n *constBool) EvalBool(d *Data) bool   { return n.v }
func (n *constLong) EvalLong(d *Data) int64  { return n.v }
func (n *constBig) EvalBig(d *Data) *big.Int { return n.v }

// ConstBool returns a constant 1 bit expression.
//
func ConstBool(v bool) BoolExpr { return &constBool{v} }

// ConstLong returns a constant long expression.
//
func ConstLong(v int64) LongExpr { return &constLong{v} }

// ConstBig returns a constant big expression. The value is not copied and
// must not be mutated afterwards.
//
func ConstBig(v *big.Int) BigExpr { return &constBig{v} }

// width casts

type boolToLong struct{ e BoolExpr }

func (n *boolToLong) EvalLong(d *Data) int64 {
	if n.e.EvalBool(d) {
		return 1
	}
	return 0
}

type boolToBig struct{ e BoolExpr }

func (n *boolToBig) EvalBig(d *Data) *big.Int {
	if n.e.EvalBool(d) {
		return bigOne
	}
	return bigZero
}

type longToBig struct{ e LongExpr }

// zero-extends: the int64 bit pattern is taken as a 64 bit unsigned value.
func (n *longToBig) EvalBig(d *Data) *big.Int {
	return new(big.Int).SetUint64(uint64(n.e.EvalLong(d)))
}

// BoolToLong widens a 1 bit value to a long (0 or 1).
//
func BoolToLong(e BoolExpr) LongExpr { return &boolToLong{e} }

// BoolToBig widens a 1 bit value to a big integer (0 or 1).
//
func BoolToBig(e BoolExpr) BigExpr { return &boolToBig{e} }

// LongToBig zero-extends a long to a big integer.
//
func LongToBig(e LongExpr) BigExpr { return &longToBig{e} }

// arithmetic

type addLong struct{ a, b LongExpr }
type subLong struct{ a, b LongExpr }

func (n *addLong) EvalLong(d *Data) int64 { return n.a.EvalLong(d) + n.b.EvalLong(d) }
func (n *subLong) EvalLong(d *Data) int64 { return n.a.EvalLong(d) - n.b.EvalLong(d) }

type addBig struct{ a, b BigExpr }
type subBig struct{ a, b BigExpr }

func (n *addBig) EvalBig(d *Data) *big.Int {
	return new(big.Int).Add(n.a.EvalBig(d), n.b.EvalBig(d))
}

func (n *subBig) EvalBig(d *Data) *big.Int {
	return new(big.Int).Sub(n.a.EvalBig(d), n.b.EvalBig(d))
}

// AddLong returns a + b. The result is not masked.
//
func AddLong(a, b LongExpr) LongExpr { return &addLong{a, b} }

// SubLong returns a - b. The result is not masked.
//
func SubLong(a, b LongExpr) LongExpr { return &subLong{a, b} }

// AddBig returns a + b. The result is not masked.
//
func AddBig(a, b BigExpr) BigExpr { return &addBig{a, b} }

// SubBig returns a - b. The result is not masked and may be negative.
//
func SubBig(a, b BigExpr) BigExpr { return &subBig{a, b} }

// bit slicing

type bitBool struct {
	e   LongExpr
	bit uint
}

func (n *bitBool) EvalBool(d *Data) bool {
	return (n.e.EvalLong(d)>>n.bit)&1 == 1
}

type bitBoolBig struct {
	e   BigExpr
	bit uint
}

func (n *bitBoolBig) EvalBool(d *Data) bool {
	return n.e.EvalBig(d).Bit(int(n.bit)) == 1
}

type bitsLong struct {
	e     LongExpr
	mask  int64
	shift uint
}

func (n *bitsLong) EvalLong(d *Data) int64 {
	return (n.e.EvalLong(d) >> n.shift) & n.mask
}

type bitsLongOfBig struct {
	e     BigExpr
	mask  *big.Int
	shift uint
}

func (n *bitsLongOfBig) EvalLong(d *Data) int64 {
	v := new(big.Int).Rsh(n.e.EvalBig(d), n.shift)
	return int64(v.And(v, n.mask).Uint64())
}

type bitsBig struct {
	e     BigExpr
	mask  *big.Int
	shift uint
}

func (n *bitsBig) EvalBig(d *Data) *big.Int {
	v := new(big.Int).Rsh(n.e.EvalBig(d), n.shift)
	return v.And(v, n.mask)
}

// BitBool extracts a single bit of a long as a boolean.
//
func BitBool(e LongExpr, bit int) BoolExpr { return &bitBool{e, uint(bit)} }

// BitBoolBig extracts a single bit of a big integer as a boolean.
//
func BitBoolBig(e BigExpr, bit int) BoolExpr { return &bitBoolBig{e, uint(bit)} }

// BitsLong extracts bits msb..lsb of a long. The mask is computed here, once.
//
func BitsLong(e LongExpr, msb, lsb int) LongExpr {
	return &bitsLong{e, LongMask(msb - lsb + 1), uint(lsb)}
}

// BitsLongOfBig extracts bits msb..lsb of a big integer into a long.
// msb-lsb+1 must not exceed 64.
//
func BitsLongOfBig(e BigExpr, msb, lsb int) LongExpr {
	return &bitsLongOfBig{e, BigMask(msb - lsb + 1), uint(lsb)}
}

// BitsBig extracts bits msb..lsb of a big integer.
//
func BitsBig(e BigExpr, msb, lsb int) BigExpr {
	return &bitsBig{e, BigMask(msb - lsb + 1), uint(lsb)}
}

// not

type notBool struct{ e BoolExpr }

func (n *notBool) EvalBool(d *Data) bool { return !n.e.EvalBool(d) }

type notLong struct {
	e    LongExpr
	mask int64
}

func (n *notLong) EvalLong(d *Data) int64 { return ^n.e.EvalLong(d) & n.mask }

type notBig struct {
	e    BigExpr
	mask *big.Int
}

func (n *notBig) EvalBig(d *Data) *big.Int {
	v := new(big.Int).Not(n.e.EvalBig(d))
	return v.And(v, n.mask)
}

// NotBool returns !e.
//
func NotBool(e BoolExpr) BoolExpr { return &notBool{e} }

// NotLong returns the complement of e truncated to width bits.
//
func NotLong(e LongExpr, width int) LongExpr { return &notLong{e, LongMask(width)} }

// NotBig returns the complement of e truncated to width bits.
//
func NotBig(e BigExpr, width int) BigExpr { return &notBig{e, BigMask(width)} }

// mux. The cnt field, when set by the Builder, counts selections of the
// true and false arms for coverage.

type muxBool struct {
	cond      BoolExpr
	tru, fals BoolExpr
	cnt       *[2]int64
}

func (n *muxBool) EvalBool(d *Data) bool {
	if n.cond.EvalBool(d) {
		if n.cnt != nil {
			n.cnt[0]++
		}
		return n.tru.EvalBool(d)
	}
	if n.cnt != nil {
		n.cnt[1]++
	}
	return n.fals.EvalBool(d)
}

type muxLong struct {
	cond      BoolExpr
	tru, fals LongExpr
	cnt       *[2]int64
}

func (n *muxLong) EvalLong(d *Data) int64 {
	if n.cond.EvalBool(d) {
		if n.cnt != nil {
			n.cnt[0]++
		}
		return n.tru.EvalLong(d)
	}
	if n.cnt != nil {
		n.cnt[1]++
	}
	return n.fals.EvalLong(d)
}

type muxBig struct {
	cond      BoolExpr
	tru, fals BigExpr
	cnt       *[2]int64
}

func (n *muxBig) EvalBig(d *Data) *big.Int {
	if n.cond.EvalBool(d) {
		if n.cnt != nil {
			n.cnt[0]++
		}
		return n.tru.EvalBig(d)
	}
	if n.cnt != nil {
		n.cnt[1]++
	}
	return n.fals.EvalBig(d)
}

// MuxBool returns tru if cond else fals.
//
func MuxBool(cond, tru, fals BoolExpr) BoolExpr { return &muxBool{cond: cond, tru: tru, fals: fals} }

// MuxLong returns tru if cond else fals.
//
func MuxLong(cond BoolExpr, tru, fals LongExpr) LongExpr {
	return &muxLong{cond: cond, tru: tru, fals: fals}
}

// MuxBig returns tru if cond else fals.
//
func MuxBig(cond BoolExpr, tru, fals BigExpr) BigExpr {
	return &muxBig{cond: cond, tru: tru, fals: fals}
}

// comparisons

type equalBool struct{ a, b BoolExpr }
type equalLong struct{ a, b LongExpr }
type equalBig struct{ a, b BigExpr }

func (n *equalBool) EvalBool(d *Data) bool { return n.a.EvalBool(d) == n.b.EvalBool(d) }
func (n *equalLong) EvalBool(d *Data) bool { return n.a.EvalLong(d) == n.b.EvalLong(d) }
func (n *equalBig) EvalBool(d *Data) bool  { return n.a.EvalBig(d).Cmp(n.b.EvalBig(d)) == 0 }

// EqualBool returns a == b.
//
func EqualBool(a, b BoolExpr) BoolExpr { return &equalBool{a, b} }

// EqualLong returns a == b.
//
func EqualLong(a, b LongExpr) BoolExpr { return &equalLong{a, b} }

// EqualBig returns a == b.
//
func EqualBig(a, b BigExpr) BoolExpr { return &equalBig{a, b} }

type gtLong struct{ a, b LongExpr }

func (n *gtLong) EvalBool(d *Data) bool { return n.a.EvalLong(d) > n.b.EvalLong(d) }

type gtBig struct{ a, b BigExpr }

func (n *gtBig) EvalBool(d *Data) bool { return n.a.EvalBig(d).Cmp(n.b.EvalBig(d)) > 0 }

type gtUnsignedLong struct{ a, b LongExpr }

// Unsigned > over values held in signed cells. When the sign bits agree the
// host's signed compare gives the unsigned answer; otherwise the operand
// with the sign bit set is the larger one.
func (n *gtUnsignedLong) EvalBool(d *Data) bool {
	a, b := n.a.EvalLong(d), n.b.EvalLong(d)
	aMsb, bMsb := a < 0, b < 0
	switch {
	case aMsb == bMsb:
		return a > b
	case aMsb:
		return true
	default:
		return false
	}
}

type gtUnsignedBool struct{ a, b BoolExpr }

func (n *gtUnsignedBool) EvalBool(d *Data) bool { return n.a.EvalBool(d) && !n.b.EvalBool(d) }

type gtSignedBool struct{ a, b BoolExpr }

// 1 bit two's complement: a set bit is -1, so 0 > 1.
func (n *gtSignedBool) EvalBool(d *Data) bool { return !n.a.EvalBool(d) && n.b.EvalBool(d) }

// GtLong returns the signed comparison a > b.
//
func GtLong(a, b LongExpr) BoolExpr { return &gtLong{a, b} }

// GtBig returns a > b.
//
func GtBig(a, b BigExpr) BoolExpr { return &gtBig{a, b} }

// GtUnsignedLong returns the unsigned comparison a > b for 64 bit values
// stored in signed cells.
//
func GtUnsignedLong(a, b LongExpr) BoolExpr { return &gtUnsignedLong{a, b} }

// GtUnsignedBool returns the unsigned comparison a > b on 1 bit values.
//
func GtUnsignedBool(a, b BoolExpr) BoolExpr { return &gtUnsignedBool{a, b} }

// GtSignedBool returns the signed comparison a > b on 1 bit values.
//
func GtSignedBool(a, b BoolExpr) BoolExpr { return &gtSignedBool{a, b} }
