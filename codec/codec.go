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
	libarn "github.com/nabbar/zstream/arena"
	libstr "github.com/nabbar/zstream/stream"
)

// Params is an integer parameter bundle keyed by small id.
type Params map[int]int64

// Parameter keys understood by the built-in codec set.
const (
	ParamWidth = iota + 1
	ParamLevel
	ParamSorted
	ParamEndianBig
)

// Get returns one parameter.
func (p Params) Get(key int) (int64, bool) {
	v, ok := p[key]
	return v, ok
}

// GetDefault returns one parameter, or def when absent.
func (p Params) GetDefault(key int, def int64) int64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Clone returns an independent copy; cloning nil yields nil.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Merge returns p overlaid with o; keys of o win.
func (p Params) Merge(o Params) Params {
	if len(o) == 0 {
		return p.Clone()
	}
	c := p.Clone()
	if c == nil {
		c = make(Params, len(o))
	}
	for k, v := range o {
		c[k] = v
	}
	return c
}

// Kind classifies a codec descriptor.
type Kind uint8

const (
	// KindTyped is a typed transform with fixed input/output arity.
	KindTyped Kind = iota
	// KindPipe is a typed transform accepting a variable number of inputs
	// of one mask (concat codecs).
	KindPipe
	// KindSplit produces a variable number of outputs driven by
	// caller-supplied segment sizes.
	KindSplit
	// KindTerminal serializes one stream into the chunk payload.
	KindTerminal
)

// EncodeFn transforms committed input streams into committed output streams.
// The returned header is opaque to the engine; it is recorded into the trace
// and handed back to DecodeFn. aux carries caller-supplied data for split
// codecs (the serialized segment sizes) and is nil elsewhere.
type EncodeFn func(ar libarn.Arena, p Params, aux []byte, in []libstr.Stream) (out []libstr.Stream, header []byte, err error)

// DecodeFn is the strict inverse of EncodeFn: given the reconstructed output
// streams and the recorded header, it rebuilds the original inputs.
type DecodeFn func(ar libarn.Arena, p Params, header []byte, out []libstr.Stream) (in []libstr.Stream, err error)

// TerminalEncodeFn compresses the byte serialization of one stream. The
// returned payload must be self-contained given the raw size.
type TerminalEncodeFn func(p Params, src []byte) ([]byte, error)

// TerminalDecodeFn decompresses a terminal payload back to exactly rawSize
// bytes.
type TerminalDecodeFn func(p Params, src []byte, rawSize int) ([]byte, error)

// Descriptor is the plain record describing one codec: functions plus
// metadata. Polymorphism is over the capability set (accepted input types,
// produced output types), not over an object hierarchy.
type Descriptor struct {
	// ID is the stable codec identifier recorded in the trace.
	ID uint32

	// Name is the unique human-readable name.
	Name string

	Kind Kind

	// InputMasks holds the accepted type mask per input port. Empty for
	// variadic codecs.
	InputMasks []libstr.Type

	// VariadicInput, when nonzero, accepts any number of inputs matching
	// the mask.
	VariadicInput libstr.Type

	// OutputTypes holds the produced type per output port. Empty for
	// variadic outputs.
	OutputTypes []libstr.Type

	// VariadicOutput, when nonzero, declares a variable number of outputs
	// of that type.
	VariadicOutput libstr.Type

	// MinVersion is the oldest wire version in which the codec's inverse
	// exists.
	MinVersion uint32

	// Defaults are the parameter defaults merged under local parameters.
	Defaults Params

	Encode EncodeFn
	Decode DecodeFn

	TermEncode TerminalEncodeFn
	TermDecode TerminalDecodeFn
}

// NumOutputs returns the fixed output arity, or -1 when variadic.
func (d *Descriptor) NumOutputs() int {
	if d.VariadicOutput != 0 {
		return -1
	}
	if d.Kind == KindTerminal {
		return 0
	}
	return len(d.OutputTypes)
}

// AcceptsInput reports whether port i accepts the single type t.
func (d *Descriptor) AcceptsInput(i int, t libstr.Type) bool {
	if d.VariadicInput != 0 {
		return d.VariadicInput.Has(t)
	}
	if i < 0 || i >= len(d.InputMasks) {
		return false
	}
	return d.InputMasks[i].Has(t)
}

// Stable identifiers of the built-in codec set.
const (
	IDStore uint32 = iota + 1
	IDZstd
	IDLZ4
	IDLZMA
	IDBZ2
	IDHuffman
	IDFSE
)

const (
	IDDelta uint32 = iota + 16
	IDZigzag
	IDBitpack
	IDTranspose
	IDRangePack
	IDDivideBy
	IDFloat32Deconstruct
	IDTokenizeNumeric
	IDTokenizeString
)

const (
	IDConvSerialToStruct uint32 = iota + 32
	IDConvStructToSerial
	IDConvSerialToNumeric
	IDConvNumericToSerial
	IDConvStructToNumeric
)

const (
	IDConcatSerial uint32 = iota + 48
	IDConcatNumeric
	IDConcatString
	IDSplitSerial
)

// Builtin returns the built-in codec set, terminals first.
func Builtin() []Descriptor {
	var d []Descriptor
	d = append(d, builtinTerminals()...)
	d = append(d, builtinTransforms()...)
	d = append(d, builtinTokenize()...)
	d = append(d, builtinConversions()...)
	d = append(d, builtinConcatSplit()...)
	return d
}
