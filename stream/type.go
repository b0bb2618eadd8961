/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package stream

// Type identifies the kind of data a stream carries. Values are single bits
// so a set of accepted types forms a mask.
type Type uint8

const (
	// Serial is an opaque byte run; element width is always 1.
	Serial Type = 1 << iota
	// Struct is a run of fixed-width opaque records.
	Struct
	// Numeric is a run of fixed-width little-endian integers with
	// arithmetic meaning; width is 1, 2, 4 or 8.
	Numeric
	// String is a run of variable-length byte runs with a per-element
	// length array.
	String

	// Any is the mask accepting every type.
	Any = Serial | Struct | Numeric | String
)

// List returns the closed set of stream types.
func List() []Type {
	return []Type{Serial, Struct, Numeric, String}
}

// IsSingle reports whether t is exactly one type, not a mask.
func (t Type) IsSingle() bool {
	return t != 0 && t&(t-1) == 0 && t&Any == t
}

// Has reports whether the mask t accepts the single type o.
func (t Type) Has(o Type) bool {
	return t&o != 0
}

func (t Type) String() string {
	switch t {
	case Serial:
		return "serial"
	case Struct:
		return "struct"
	case Numeric:
		return "numeric"
	case String:
		return "string"
	case Any:
		return "any"
	}
	return "mask"
}

// ValidWidth reports whether w is a legal element width for the single type
// t.
func (t Type) ValidWidth(w int) bool {
	switch t {
	case Serial:
		return w == 1
	case Numeric:
		return w == 1 || w == 2 || w == 4 || w == 8
	case Struct:
		return w >= 1
	case String:
		// width is implicit per element
		return w == 1
	}
	return false
}
