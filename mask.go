// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cyclesim

import "math/big"

// LongMask returns an int64 with the low bits set. Arguments outside
// [0, 64] are clamped: LongMask(0) is 0 and LongMask(64) is all ones.
//
func LongMask(bits int) int64 {
	switch {
	case bits <= 0:
		return 0
	case bits >= 64:
		return -1
	default:
		return (int64(1) << uint(bits)) - 1
	}
}

// BigMask returns a big integer with the low bits set.
//
func BigMask(bits int) *big.Int {
	if bits <= 0 {
		return new(big.Int)
	}
	m := new(big.Int).Lsh(bigOne, uint(bits))
	return m.Sub(m, bigOne)
}

var (
	bigZero = new(big.Int)
	bigOne  = big.NewInt(1)
)
