// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cyclesim

import "fmt"

// An UnknownSymbolError reports a name lookup on a symbol the executable
// does not have.
//
type UnknownSymbolError string

func (e UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", string(e))
}

// A ClassError reports a typed peek or poke whose width class does not match
// the symbol's storage class.
//
type ClassError struct {
	Name string
	Want Class
	Got  Class
}

func (e *ClassError) Error() string {
	return fmt.Sprintf("symbol %q holds a %s value, not a %s value", e.Name, className(e.Want), className(e.Got))
}

func className(c Class) string {
	switch c {
	case ClassBool:
		return "bool"
	case ClassLong:
		return "long"
	case ClassBig:
		return "big"
	}
	return "invalid"
}
