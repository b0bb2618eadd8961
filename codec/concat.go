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

// Concat codecs fold many streams sharing a clustering key into one
// super-stream; the recorded boundaries let decompression split back into
// the original count and sizes. The split codec is their caller-driven dual.

import (
	libarn "github.com/nabbar/zstream/arena"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
	libwir "github.com/nabbar/zstream/wire"
)

func builtinConcatSplit() []Descriptor {
	return []Descriptor{
		{
			ID:            IDConcatSerial,
			Name:          "concat-serial",
			Kind:          KindPipe,
			VariadicInput: libstr.Serial,
			OutputTypes:   []libstr.Type{libstr.Serial},
			MinVersion:    11,
			Encode:        concatFixedEncode(libstr.Serial),
			Decode:        concatFixedDecode(libstr.Serial),
		},
		{
			ID:            IDConcatNumeric,
			Name:          "concat-numeric",
			Kind:          KindPipe,
			VariadicInput: libstr.Numeric,
			OutputTypes:   []libstr.Type{libstr.Numeric},
			MinVersion:    11,
			Encode:        concatFixedEncode(libstr.Numeric),
			Decode:        concatFixedDecode(libstr.Numeric),
		},
		{
			ID:            IDConcatString,
			Name:          "concat-string",
			Kind:          KindPipe,
			VariadicInput: libstr.String,
			OutputTypes:   []libstr.Type{libstr.String},
			MinVersion:    11,
			Encode:        concatStringEncode,
			Decode:        concatStringDecode,
		},
		{
			ID:             IDSplitSerial,
			Name:           "split-serial",
			Kind:           KindSplit,
			InputMasks:     []libstr.Type{libstr.Serial},
			VariadicOutput: libstr.Serial,
			MinVersion:     11,
			Encode:         splitSerialEncode,
			Decode:         splitSerialDecode,
		},
	}
}

func concatFixedEncode(t libstr.Type) EncodeFn {
	return func(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
		if len(in) == 0 {
			return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "concat needs at least one input")
		}

		w := in[0].Width()
		total := 0
		for _, s := range in {
			if s.Type() != t || s.Width() != w {
				return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "concat inputs must all be %s of width %d", t.String(), w)
			}
			total += s.NumElts()
		}

		out, dst, err := newFixed(t, w, total)
		if err != nil {
			return nil, nil, err
		}

		hdr := libwir.AppendVarint(nil, uint64(len(in)))
		hdr = append(hdr, byte(w))

		off := 0
		for _, s := range in {
			copy(dst[off:], s.Content())
			off += s.ByteSize()
			hdr = libwir.AppendVarint(hdr, uint64(s.NumElts()))
		}
		if err = out.Commit(total); err != nil {
			return nil, nil, err
		}
		return []libstr.Stream{out}, hdr, nil
	}
}

func concatFixedDecode(t libstr.Type) DecodeFn {
	return func(_ libarn.Arena, _ Params, hdr []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
		if len(outs) != 1 || outs[0].Type() != t {
			return nil, liberr.New(liberr.CodeCorruption, "concat inverse expects 1 %s stream", t.String())
		}
		s := outs[0]

		k64, c, err := libwir.DecodeVarint(hdr)
		if err != nil {
			return nil, err
		}
		if c >= len(hdr) {
			return nil, liberr.New(liberr.CodeCorruption, "concat header is malformed")
		}
		w := int(hdr[c])
		c++
		if w != s.Width() {
			return nil, liberr.New(liberr.CodeCorruption, "concat header width %d disagrees with stream width %d", w, s.Width())
		}

		k := int(k64)
		if k <= 0 || k > s.NumElts()+1 {
			return nil, liberr.New(liberr.CodeCorruption, "concat header declares %d members over %d elements", k, s.NumElts())
		}

		ins := make([]libstr.Stream, 0, k)
		src := s.Content()
		off := 0
		for i := 0; i < k; i++ {
			n64, n, e := libwir.DecodeVarint(hdr[c:])
			if e != nil {
				return nil, e
			}
			c += n
			cnt := int(n64)
			if off+cnt*w > len(src) {
				return nil, liberr.New(liberr.CodeCorruption, "concat member %d overruns the super-stream", i)
			}
			member, dst, e2 := newFixed(t, w, cnt)
			if e2 != nil {
				return nil, e2
			}
			copy(dst, src[off:off+cnt*w])
			off += cnt * w
			if e2 = member.Commit(cnt); e2 != nil {
				return nil, e2
			}
			ins = append(ins, member)
		}
		if off != len(src) || c != len(hdr) {
			return nil, liberr.New(liberr.CodeCorruption, "concat members do not cover the super-stream")
		}
		return ins, nil
	}
}

func concatStringEncode(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	if len(in) == 0 {
		return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "concat needs at least one input")
	}

	total := 0
	for _, s := range in {
		if s.Type() != libstr.String {
			return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "concat inputs must all be string streams")
		}
		total += s.NumElts()
	}

	out, err := libstr.New(libstr.String, 1)
	if err != nil {
		return nil, nil, err
	}
	if err = out.Reserve(total); err != nil {
		return nil, nil, err
	}

	hdr := libwir.AppendVarint(nil, uint64(len(in)))
	for _, s := range in {
		if err = out.AppendBytes(s.Content()); err != nil {
			return nil, nil, err
		}
		for _, l := range s.StringLens() {
			if err = out.AppendStringLen(l); err != nil {
				return nil, nil, err
			}
		}
		hdr = libwir.AppendVarint(hdr, uint64(s.NumElts()))
	}
	if err = out.Commit(total); err != nil {
		return nil, nil, err
	}
	return []libstr.Stream{out}, hdr, nil
}

func concatStringDecode(_ libarn.Arena, _ Params, hdr []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	if len(outs) != 1 || outs[0].Type() != libstr.String {
		return nil, liberr.New(liberr.CodeCorruption, "concat inverse expects 1 string stream")
	}
	s := outs[0]

	k64, c, err := libwir.DecodeVarint(hdr)
	if err != nil {
		return nil, err
	}
	k := int(k64)
	if k <= 0 || k > s.NumElts()+1 {
		return nil, liberr.New(liberr.CodeCorruption, "concat header declares %d members over %d elements", k, s.NumElts())
	}

	lens, src := s.StringLens(), s.Content()
	ins := make([]libstr.Stream, 0, k)
	eltOff, byteOff := 0, 0
	for i := 0; i < k; i++ {
		n64, n, e := libwir.DecodeVarint(hdr[c:])
		if e != nil {
			return nil, e
		}
		c += n
		cnt := int(n64)
		if eltOff+cnt > len(lens) {
			return nil, liberr.New(liberr.CodeCorruption, "concat member %d overruns the super-stream", i)
		}

		member, e2 := libstr.New(libstr.String, 1)
		if e2 != nil {
			return nil, e2
		}
		if e2 = member.Reserve(cnt); e2 != nil {
			return nil, e2
		}
		for j := 0; j < cnt; j++ {
			l := int(lens[eltOff+j])
			if byteOff+l > len(src) {
				return nil, liberr.New(liberr.CodeCorruption, "concat member %d overruns the content", i)
			}
			if e2 = member.AppendString(src[byteOff : byteOff+l]); e2 != nil {
				return nil, e2
			}
			byteOff += l
		}
		eltOff += cnt
		if e2 = member.Commit(cnt); e2 != nil {
			return nil, e2
		}
		ins = append(ins, member)
	}
	if eltOff != len(lens) || byteOff != len(src) || c != len(hdr) {
		return nil, liberr.New(liberr.CodeCorruption, "concat members do not cover the super-stream")
	}
	return ins, nil
}

// EncodeSegmentSizes builds the aux payload driving a split codec.
func EncodeSegmentSizes(sizes []int) []byte {
	b := libwir.AppendVarint(nil, uint64(len(sizes)))
	for _, s := range sizes {
		b = libwir.AppendVarint(b, uint64(s))
	}
	return b
}

func decodeSegmentSizes(b []byte) ([]int, error) {
	k64, c, err := libwir.DecodeVarint(b)
	if err != nil {
		return nil, err
	}
	sizes := make([]int, 0, int(k64))
	for i := 0; i < int(k64); i++ {
		v, n, e := libwir.DecodeVarint(b[c:])
		if e != nil {
			return nil, e
		}
		c += n
		sizes = append(sizes, int(v))
	}
	if c != len(b) {
		return nil, liberr.New(liberr.CodeCorruption, "segment sizes are malformed")
	}
	return sizes, nil
}

func splitSerialEncode(_ libarn.Arena, _ Params, aux []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	if len(in) != 1 || in[0].Type() != libstr.Serial {
		return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "split expects 1 serial stream")
	}
	sizes, err := decodeSegmentSizes(aux)
	if err != nil {
		return nil, nil, liberr.Forward(err, "caller-supplied segment sizes")
	}

	src := in[0].Content()
	total := 0
	for _, sz := range sizes {
		if sz < 0 {
			return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "negative segment size %d", sz)
		}
		total += sz
	}
	if total != len(src) {
		return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "segment sizes sum to %d, stream holds %d bytes", total, len(src))
	}

	outs := make([]libstr.Stream, 0, len(sizes))
	off := 0
	for _, sz := range sizes {
		seg, dst, e := newFixed(libstr.Serial, 1, sz)
		if e != nil {
			return nil, nil, e
		}
		copy(dst, src[off:off+sz])
		off += sz
		if e = seg.Commit(sz); e != nil {
			return nil, nil, e
		}
		outs = append(outs, seg)
	}
	return outs, append([]byte(nil), aux...), nil
}

func splitSerialDecode(_ libarn.Arena, _ Params, hdr []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	sizes, err := decodeSegmentSizes(hdr)
	if err != nil {
		return nil, err
	}
	if len(sizes) != len(outs) {
		return nil, liberr.New(liberr.CodeCorruption, "split header declares %d segments, %d streams arrived", len(sizes), len(outs))
	}

	total := 0
	for i, s := range outs {
		if s.Type() != libstr.Serial {
			return nil, liberr.New(liberr.CodeCorruption, "split inverse expects serial streams")
		}
		if s.ByteSize() != sizes[i] {
			return nil, liberr.New(liberr.CodeCorruption, "split segment %d holds %d bytes, declared %d", i, s.ByteSize(), sizes[i])
		}
		total += sizes[i]
	}

	in, dst, err := newFixed(libstr.Serial, 1, total)
	if err != nil {
		return nil, err
	}
	off := 0
	for _, s := range outs {
		copy(dst[off:], s.Content())
		off += s.ByteSize()
	}
	if err = in.Commit(total); err != nil {
		return nil, err
	}
	return []libstr.Stream{in}, nil
}
