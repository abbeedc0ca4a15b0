// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cyclesim

// a ref identifies one storage cell (or whole memory) read by an expression.
type ref struct {
	class Class
	idx   int
	mem   bool
}

// exprRefs walks an expression tree post-order and calls f for every load.
//
func exprRefs(e interface{}, f func(ref)) {
	switch n := e.(type) {
	case *loadBool:
		f(ref{ClassBool, n.idx, false})
	case *loadLong:
		f(ref{ClassLong, n.idx, false})
	case *loadBig:
		f(ref{ClassBig, n.idx, false})
	case *memReadLong:
		exprRefs(n.addr, f)
		f(ref{ClassLong, n.mem, true})
	case *memReadBig:
		exprRefs(n.addr, f)
		f(ref{ClassBig, n.mem, true})
	case *constBool, *constLong, *constBig:
	case *boolToLong:
		exprRefs(n.e, f)
	case *boolToBig:
		exprRefs(n.e, f)
	case *longToBig:
		exprRefs(n.e, f)
	case *addLong:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *subLong:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *addBig:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *subBig:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *bitBool:
		exprRefs(n.e, f)
	case *bitBoolBig:
		exprRefs(n.e, f)
	case *bitsLong:
		exprRefs(n.e, f)
	case *bitsLongOfBig:
		exprRefs(n.e, f)
	case *bitsBig:
		exprRefs(n.e, f)
	case *notBool:
		exprRefs(n.e, f)
	case *notLong:
		exprRefs(n.e, f)
	case *notBig:
		exprRefs(n.e, f)
	case *muxBool:
		exprRefs(n.cond, f)
		exprRefs(n.tru, f)
		exprRefs(n.fals, f)
	case *muxLong:
		exprRefs(n.cond, f)
		exprRefs(n.tru, f)
		exprRefs(n.fals, f)
	case *muxBig:
		exprRefs(n.cond, f)
		exprRefs(n.tru, f)
		exprRefs(n.fals, f)
	case *equalBool:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *equalLong:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *equalBig:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *gtLong:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *gtBig:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *gtUnsignedLong:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *gtUnsignedBool:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	case *gtSignedBool:
		exprRefs(n.a, f)
		exprRefs(n.b, f)
	}
}

// opRefs calls f for every cell read by a store operation.
//
func opRefs(op Op, f func(ref)) {
	switch s := op.(type) {
	case *storeBool:
		exprRefs(s.e, f)
	case *storeLong:
		exprRefs(s.e, f)
	case *storeBig:
		exprRefs(s.e, f)
	case *storeLongMem:
		exprRefs(s.addr, f)
		exprRefs(s.e, f)
	case *storeBigMem:
		exprRefs(s.addr, f)
		exprRefs(s.e, f)
	}
}

// opDest returns the scalar cell written by a store operation. Memory
// stores have no scalar destination.
//
func opDest(op Op) (ref, bool) {
	switch s := op.(type) {
	case *storeBool:
		return ref{ClassBool, s.idx, false}, true
	case *storeLong:
		return ref{ClassLong, s.idx, false}, true
	case *storeBig:
		return ref{ClassBig, s.idx, false}, true
	}
	return ref{}, false
}
