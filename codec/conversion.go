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

package codec

import (
	libstr "github.com/nabbar/zstream/stream"
)

// ConversionFor returns the zero-copy conversion codec turning a stream of
// single type from, width w, into a type the mask accepts. The second return
// holds the conversion's local parameters. ok is false when the mask already
// accepts the type (no conversion needed) or when no conversion exists.
func ConversionFor(from libstr.Type, w int, toMask libstr.Type) (id uint32, p Params, ok bool) {
	if toMask.Has(from) {
		return 0, nil, false
	}

	switch from {
	case libstr.Serial:
		if toMask.Has(libstr.Struct) {
			return IDConvSerialToStruct, Params{ParamWidth: 1}, true
		}
		if toMask.Has(libstr.Numeric) {
			return IDConvSerialToNumeric, Params{ParamWidth: 1}, true
		}
	case libstr.Struct:
		if toMask.Has(libstr.Numeric) && libstr.Numeric.ValidWidth(w) {
			return IDConvStructToNumeric, nil, true
		}
		if toMask.Has(libstr.Serial) {
			return IDConvStructToSerial, nil, true
		}
	case libstr.Numeric:
		if toMask.Has(libstr.Serial) {
			return IDConvNumericToSerial, nil, true
		}
	}
	return 0, nil, false
}

// Convertible reports whether a stream of single type from, width w, can
// reach the mask, directly or through one conversion.
func Convertible(from libstr.Type, w int, toMask libstr.Type) bool {
	if toMask.Has(from) {
		return true
	}
	_, _, ok := ConversionFor(from, w, toMask)
	return ok
}
