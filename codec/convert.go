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

// Conversion codecs reinterpret a stream's framing without touching content
// ordering; the executor inserts them when a graph accepts a type the
// current stream does not carry.

import (
	libarn "github.com/nabbar/zstream/arena"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
	libwir "github.com/nabbar/zstream/wire"
)

func builtinConversions() []Descriptor {
	return []Descriptor{
		{
			ID:          IDConvSerialToStruct,
			Name:        "conv-serial-struct",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Serial},
			OutputTypes: []libstr.Type{libstr.Struct},
			MinVersion:  8,
			Defaults:    Params{ParamWidth: 1},
			Encode:      convReframeEncode(libstr.Struct),
			Decode:      convReframeDecode(libstr.Serial, 1),
		},
		{
			ID:          IDConvStructToSerial,
			Name:        "conv-struct-serial",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Struct},
			OutputTypes: []libstr.Type{libstr.Serial},
			MinVersion:  8,
			Encode:      convFlattenEncode,
			Decode:      convFlattenDecode(libstr.Struct),
		},
		{
			ID:          IDConvSerialToNumeric,
			Name:        "conv-serial-numeric",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Serial},
			OutputTypes: []libstr.Type{libstr.Numeric},
			MinVersion:  8,
			Defaults:    Params{ParamWidth: 1, ParamEndianBig: 0},
			Encode:      convReframeEncode(libstr.Numeric),
			Decode:      convReframeDecode(libstr.Serial, 1),
		},
		{
			ID:          IDConvNumericToSerial,
			Name:        "conv-numeric-serial",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Numeric},
			OutputTypes: []libstr.Type{libstr.Serial},
			MinVersion:  8,
			Encode:      convFlattenEncode,
			Decode:      convFlattenDecode(libstr.Numeric),
		},
		{
			ID:          IDConvStructToNumeric,
			Name:        "conv-struct-numeric",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Struct},
			OutputTypes: []libstr.Type{libstr.Numeric},
			MinVersion:  8,
			Encode:      convWidthKeepEncode(libstr.Numeric),
			Decode:      convWidthKeepDecode(libstr.Struct),
		},
	}
}

// convReframeEncode regroups a width-1 serial run into wider elements of the
// target type; the byte order is preserved (explicit big-endian requests
// swap each element).
func convReframeEncode(to libstr.Type) EncodeFn {
	return func(_ libarn.Arena, p Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
		if len(in) != 1 {
			return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "expected 1 input stream, got %d", len(in))
		}
		s := in[0]

		w := int(p.GetDefault(ParamWidth, 1))
		if !to.ValidWidth(w) {
			return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "width %d is invalid for %s", w, to.String())
		}
		src := s.Content()
		if len(src)%w != 0 {
			return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "%d bytes do not regroup into width %d", len(src), w)
		}

		n := len(src) / w
		out, dst, err := newFixed(to, w, n)
		if err != nil {
			return nil, nil, err
		}
		copy(dst, src)
		if to == libstr.Numeric && p.GetDefault(ParamEndianBig, 0) != 0 {
			swapElems(dst, w)
		}
		if err = out.Commit(n); err != nil {
			return nil, nil, err
		}

		hdr := libwir.AppendVarint(nil, uint64(w))
		hdr = append(hdr, byte(p.GetDefault(ParamEndianBig, 0)))
		return []libstr.Stream{out}, hdr, nil
	}
}

func convReframeDecode(from libstr.Type, fromWidth int) DecodeFn {
	return func(_ libarn.Arena, _ Params, hdr []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
		if len(outs) != 1 {
			return nil, liberr.New(liberr.CodeCorruption, "conversion inverse expects 1 stream")
		}
		s := outs[0]

		w64, c, err := libwir.DecodeVarint(hdr)
		if err != nil {
			return nil, err
		}
		if len(hdr) != c+1 {
			return nil, liberr.New(liberr.CodeCorruption, "conversion header is malformed")
		}
		big := hdr[c] != 0
		w := int(w64)
		if w != s.Width() {
			return nil, liberr.New(liberr.CodeCorruption, "conversion header width %d disagrees with stream width %d", w, s.Width())
		}

		n := s.NumElts() * w / fromWidth
		in, dst, err := newFixed(from, fromWidth, n)
		if err != nil {
			return nil, err
		}
		copy(dst, s.Content())
		if big {
			swapElems(dst, w)
		}
		if err = in.Commit(n); err != nil {
			return nil, err
		}
		return []libstr.Stream{in}, nil
	}
}

// convFlattenEncode drops element framing, producing the serial byte run.
func convFlattenEncode(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	if len(in) != 1 {
		return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "expected 1 input stream, got %d", len(in))
	}
	s := in[0]

	out, dst, err := newFixed(libstr.Serial, 1, s.ByteSize())
	if err != nil {
		return nil, nil, err
	}
	copy(dst, s.Content())
	if err = out.Commit(s.ByteSize()); err != nil {
		return nil, nil, err
	}

	return []libstr.Stream{out}, libwir.AppendVarint(nil, uint64(s.Width())), nil
}

func convFlattenDecode(to libstr.Type) DecodeFn {
	return func(_ libarn.Arena, _ Params, hdr []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
		if len(outs) != 1 || outs[0].Type() != libstr.Serial {
			return nil, liberr.New(liberr.CodeCorruption, "conversion inverse expects 1 serial stream")
		}
		s := outs[0]

		w64, c, err := libwir.DecodeVarint(hdr)
		if err != nil {
			return nil, err
		}
		w := int(w64)
		if len(hdr) != c || !to.ValidWidth(w) || s.ByteSize()%w != 0 {
			return nil, liberr.New(liberr.CodeCorruption, "conversion header declares width %d over %d bytes", w, s.ByteSize())
		}

		n := s.ByteSize() / w
		in, dst, err := newFixed(to, w, n)
		if err != nil {
			return nil, err
		}
		copy(dst, s.Content())
		if err = in.Commit(n); err != nil {
			return nil, err
		}
		return []libstr.Stream{in}, nil
	}
}

// convWidthKeepEncode changes the type keeping width and count, for
// struct(w) <-> numeric(w) with w in the numeric widths.
func convWidthKeepEncode(to libstr.Type) EncodeFn {
	return func(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
		if len(in) != 1 {
			return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "expected 1 input stream, got %d", len(in))
		}
		s := in[0]
		if !to.ValidWidth(s.Width()) {
			return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "width %d is invalid for %s", s.Width(), to.String())
		}

		out, dst, err := newFixed(to, s.Width(), s.NumElts())
		if err != nil {
			return nil, nil, err
		}
		copy(dst, s.Content())
		if err = out.Commit(s.NumElts()); err != nil {
			return nil, nil, err
		}
		return []libstr.Stream{out}, nil, nil
	}
}

func convWidthKeepDecode(from libstr.Type) DecodeFn {
	return func(_ libarn.Arena, _ Params, _ []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
		if len(outs) != 1 {
			return nil, liberr.New(liberr.CodeCorruption, "conversion inverse expects 1 stream")
		}
		s := outs[0]

		in, dst, err := newFixed(from, s.Width(), s.NumElts())
		if err != nil {
			return nil, err
		}
		copy(dst, s.Content())
		if err = in.Commit(s.NumElts()); err != nil {
			return nil, err
		}
		return []libstr.Stream{in}, nil
	}
}

func swapElems(b []byte, w int) {
	for off := 0; off+w <= len(b); off += w {
		for i, j := off, off+w-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
	}
}
