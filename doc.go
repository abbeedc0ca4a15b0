// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package cyclesim provides a cycle-accurate functional simulator for synchronous
digital designs.

A design is compiled down to an Executable: a symbol table, flat value storage
and an ordered list of store operations. Each store evaluates an expression
tree and writes a single storage cell; one call to Update runs every store in
order and constitutes one clock tick. Values live in one of three width
classes: booleans for 1 bit signals, two's-complement int64 cells for widths
up to 64, and arbitrary-precision integers beyond that.

Executables are usually assembled with a Builder, which checks widths,
validates that the store order respects combinational dependencies, and
derives the IO dependency information consumed by the tester package.

The tester package drives a compiled design from procedural test code,
including a cooperative multi-threaded bench; the designs package holds a
few ready-made sample designs.
*/
package cyclesim
