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
	"math/bits"

	libarn "github.com/nabbar/zstream/arena"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
	libwir "github.com/nabbar/zstream/wire"
)

func builtinTransforms() []Descriptor {
	return []Descriptor{
		{
			ID:          IDDelta,
			Name:        "delta",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Numeric},
			OutputTypes: []libstr.Type{libstr.Numeric},
			MinVersion:  8,
			Encode:      deltaEncode,
			Decode:      deltaDecode,
		},
		{
			ID:          IDZigzag,
			Name:        "zigzag",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Numeric},
			OutputTypes: []libstr.Type{libstr.Numeric},
			MinVersion:  8,
			Encode:      zigzagEncode,
			Decode:      zigzagDecode,
		},
		{
			ID:          IDBitpack,
			Name:        "bitpack",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Numeric},
			OutputTypes: []libstr.Type{libstr.Serial},
			MinVersion:  10,
			Encode:      bitpackEncode,
			Decode:      bitpackDecode,
		},
		{
			ID:          IDTranspose,
			Name:        "transpose",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Numeric | libstr.Struct},
			OutputTypes: []libstr.Type{libstr.Serial},
			MinVersion:  9,
			Encode:      transposeEncode,
			Decode:      transposeDecode,
		},
		{
			ID:          IDRangePack,
			Name:        "range-pack",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Numeric},
			OutputTypes: []libstr.Type{libstr.Numeric},
			MinVersion:  13,
			Encode:      rangePackEncode,
			Decode:      rangePackDecode,
		},
		{
			ID:          IDDivideBy,
			Name:        "divide-by",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Numeric},
			OutputTypes: []libstr.Type{libstr.Numeric},
			MinVersion:  13,
			Encode:      divideByEncode,
			Decode:      divideByDecode,
		},
		{
			ID:          IDFloat32Deconstruct,
			Name:        "float32-deconstruct",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Numeric},
			OutputTypes: []libstr.Type{libstr.Serial, libstr.Struct},
			MinVersion:  14,
			Encode:      float32DeconEncode,
			Decode:      float32DeconDecode,
		},
	}
}

func deltaEncode(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	s, err := oneNumericInput(in)
	if err != nil {
		return nil, nil, err
	}

	w, n, src := s.Width(), s.NumElts(), s.Content()
	out, dst, err := newFixed(libstr.Numeric, w, n)
	if err != nil {
		return nil, nil, err
	}

	mask := widthMask(w)
	var prev uint64
	for i := 0; i < n; i++ {
		v := readElt(src[i*w:], w)
		writeElt(dst[i*w:], w, (v-prev)&mask)
		prev = v
	}
	if err = out.Commit(n); err != nil {
		return nil, nil, err
	}
	return []libstr.Stream{out}, nil, nil
}

func deltaDecode(_ libarn.Arena, _ Params, _ []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	s, err := oneNumericInput(outs)
	if err != nil {
		return nil, err
	}

	w, n, src := s.Width(), s.NumElts(), s.Content()
	in, dst, err := newFixed(libstr.Numeric, w, n)
	if err != nil {
		return nil, err
	}

	mask := widthMask(w)
	var acc uint64
	for i := 0; i < n; i++ {
		acc = (acc + readElt(src[i*w:], w)) & mask
		writeElt(dst[i*w:], w, acc)
	}
	if err = in.Commit(n); err != nil {
		return nil, err
	}
	return []libstr.Stream{in}, nil
}

func zigzagMap(s libstr.Stream, fwd bool) (libstr.Stream, error) {
	w, n, src := s.Width(), s.NumElts(), s.Content()
	out, dst, err := newFixed(libstr.Numeric, w, n)
	if err != nil {
		return nil, err
	}

	mask := widthMask(w)
	shift := uint(8*w - 1)
	for i := 0; i < n; i++ {
		v := readElt(src[i*w:], w)
		if fwd {
			// sign-extend, then (v << 1) ^ (v >> bits-1)
			sg := -((v >> shift) & 1) & mask
			writeElt(dst[i*w:], w, ((v<<1)^sg)&mask)
		} else {
			writeElt(dst[i*w:], w, ((v>>1)^(-(v&1)&mask))&mask)
		}
	}
	if err = out.Commit(n); err != nil {
		return nil, err
	}
	return out, nil
}

func zigzagEncode(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	s, err := oneNumericInput(in)
	if err != nil {
		return nil, nil, err
	}
	out, err := zigzagMap(s, true)
	if err != nil {
		return nil, nil, err
	}
	return []libstr.Stream{out}, nil, nil
}

func zigzagDecode(_ libarn.Arena, _ Params, _ []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	s, err := oneNumericInput(outs)
	if err != nil {
		return nil, err
	}
	in, err := zigzagMap(s, false)
	if err != nil {
		return nil, err
	}
	return []libstr.Stream{in}, nil
}

func bitpackEncode(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	s, err := oneNumericInput(in)
	if err != nil {
		return nil, nil, err
	}

	w, n, src := s.Width(), s.NumElts(), s.Content()

	nb := 1
	for i := 0; i < n; i++ {
		if l := bits.Len64(readElt(src[i*w:], w)); l > nb {
			nb = l
		}
	}

	packed := (n*nb + 7) / 8
	out, dst, err := newFixed(libstr.Serial, 1, packed)
	if err != nil {
		return nil, nil, err
	}

	bitPos := 0
	for i := 0; i < n; i++ {
		v := readElt(src[i*w:], w)
		for b := 0; b < nb; b++ {
			if v&(1<<uint(b)) != 0 {
				dst[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	if err = out.Commit(packed); err != nil {
		return nil, nil, err
	}

	hdr := libwir.AppendVarint(nil, uint64(nb))
	hdr = libwir.AppendVarint(hdr, uint64(n))
	hdr = append(hdr, byte(w))
	return []libstr.Stream{out}, hdr, nil
}

func bitpackDecode(_ libarn.Arena, _ Params, hdr []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	if len(outs) != 1 || outs[0].Type() != libstr.Serial {
		return nil, liberr.New(liberr.CodeCorruption, "bitpack inverse expects 1 serial stream")
	}

	nb64, c, err := libwir.DecodeVarint(hdr)
	if err != nil {
		return nil, err
	}
	n64, c2, err := libwir.DecodeVarint(hdr[c:])
	if err != nil {
		return nil, err
	}
	if len(hdr) != c+c2+1 {
		return nil, liberr.New(liberr.CodeCorruption, "bitpack header is malformed")
	}
	nb, n, w := int(nb64), int(n64), int(hdr[c+c2])

	if nb < 1 || nb > 64 || w != 1 && w != 2 && w != 4 && w != 8 || nb > 8*w {
		return nil, liberr.New(liberr.CodeCorruption, "bitpack header declares %d bits over width %d", nb, w)
	}
	src := outs[0].Content()
	if len(src) != (n*nb+7)/8 {
		return nil, liberr.New(liberr.CodeCorruption, "bitpack payload holds %d bytes, %d elements of %d bits need %d", len(src), n, nb, (n*nb+7)/8)
	}

	in, dst, err := newFixed(libstr.Numeric, w, n)
	if err != nil {
		return nil, err
	}

	bitPos := 0
	for i := 0; i < n; i++ {
		var v uint64
		for b := 0; b < nb; b++ {
			if src[bitPos/8]&(1<<uint(bitPos%8)) != 0 {
				v |= 1 << uint(b)
			}
			bitPos++
		}
		writeElt(dst[i*w:], w, v)
	}
	if err = in.Commit(n); err != nil {
		return nil, err
	}
	return []libstr.Stream{in}, nil
}

func transposeEncode(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	if len(in) != 1 {
		return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "expected 1 input stream, got %d", len(in))
	}
	s := in[0]
	if s.Type() != libstr.Numeric && s.Type() != libstr.Struct {
		return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "transpose applies to fixed-width records, got %s", s.Type().String())
	}

	w, n, src := s.Width(), s.NumElts(), s.Content()
	out, dst, err := newFixed(libstr.Serial, 1, w*n)
	if err != nil {
		return nil, nil, err
	}

	for p := 0; p < w; p++ {
		for i := 0; i < n; i++ {
			dst[p*n+i] = src[i*w+p]
		}
	}
	if err = out.Commit(w * n); err != nil {
		return nil, nil, err
	}

	hdr := libwir.AppendVarint(nil, uint64(w))
	hdr = libwir.AppendVarint(hdr, uint64(n))
	hdr = append(hdr, byte(s.Type()))
	return []libstr.Stream{out}, hdr, nil
}

func transposeDecode(_ libarn.Arena, _ Params, hdr []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	if len(outs) != 1 || outs[0].Type() != libstr.Serial {
		return nil, liberr.New(liberr.CodeCorruption, "transpose inverse expects 1 serial stream")
	}

	w64, c, err := libwir.DecodeVarint(hdr)
	if err != nil {
		return nil, err
	}
	n64, c2, err := libwir.DecodeVarint(hdr[c:])
	if err != nil {
		return nil, err
	}
	if len(hdr) != c+c2+1 {
		return nil, liberr.New(liberr.CodeCorruption, "transpose header is malformed")
	}
	w, n, typ := int(w64), int(n64), libstr.Type(hdr[c+c2])

	if typ != libstr.Numeric && typ != libstr.Struct || !typ.ValidWidth(w) {
		return nil, liberr.New(liberr.CodeCorruption, "transpose header declares %s of width %d", typ.String(), w)
	}
	src := outs[0].Content()
	if len(src) != w*n {
		return nil, liberr.New(liberr.CodeCorruption, "transpose payload holds %d bytes, need %d", len(src), w*n)
	}

	in, dst, err := newFixed(typ, w, n)
	if err != nil {
		return nil, err
	}
	for p := 0; p < w; p++ {
		for i := 0; i < n; i++ {
			dst[i*w+p] = src[p*n+i]
		}
	}
	if err = in.Commit(n); err != nil {
		return nil, err
	}
	return []libstr.Stream{in}, nil
}

func rangePackEncode(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	s, err := oneNumericInput(in)
	if err != nil {
		return nil, nil, err
	}

	w, n, src := s.Width(), s.NumElts(), s.Content()

	minV := ^uint64(0)
	maxV := uint64(0)
	for i := 0; i < n; i++ {
		v := readElt(src[i*w:], w)
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if n == 0 {
		minV = 0
	}

	nw := 1
	for _, cand := range []int{1, 2, 4, 8} {
		if maxV-minV <= widthMask(cand) {
			nw = cand
			break
		}
	}

	out, dst, err := newFixed(libstr.Numeric, nw, n)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < n; i++ {
		writeElt(dst[i*nw:], nw, readElt(src[i*w:], w)-minV)
	}
	if err = out.Commit(n); err != nil {
		return nil, nil, err
	}

	hdr := libwir.AppendVarint(nil, minV)
	hdr = append(hdr, byte(w))
	return []libstr.Stream{out}, hdr, nil
}

func rangePackDecode(_ libarn.Arena, _ Params, hdr []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	s, err := oneNumericInput(outs)
	if err != nil {
		return nil, err
	}

	minV, c, err := libwir.DecodeVarint(hdr)
	if err != nil {
		return nil, err
	}
	if len(hdr) != c+1 {
		return nil, liberr.New(liberr.CodeCorruption, "range-pack header is malformed")
	}
	w := int(hdr[c])
	if !libstr.Numeric.ValidWidth(w) {
		return nil, liberr.New(liberr.CodeCorruption, "range-pack header declares width %d", w)
	}

	nw, n, src := s.Width(), s.NumElts(), s.Content()
	in, dst, err := newFixed(libstr.Numeric, w, n)
	if err != nil {
		return nil, err
	}

	mask := widthMask(w)
	for i := 0; i < n; i++ {
		writeElt(dst[i*w:], w, (readElt(src[i*nw:], nw)+minV)&mask)
	}
	if err = in.Commit(n); err != nil {
		return nil, err
	}
	return []libstr.Stream{in}, nil
}

func divideByEncode(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	s, err := oneNumericInput(in)
	if err != nil {
		return nil, nil, err
	}

	w, n, src := s.Width(), s.NumElts(), s.Content()

	var d uint64
	for i := 0; i < n; i++ {
		d = gcd64(d, readElt(src[i*w:], w))
		if d == 1 {
			break
		}
	}
	if d == 0 {
		d = 1
	}

	out, dst, err := newFixed(libstr.Numeric, w, n)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < n; i++ {
		writeElt(dst[i*w:], w, readElt(src[i*w:], w)/d)
	}
	if err = out.Commit(n); err != nil {
		return nil, nil, err
	}

	return []libstr.Stream{out}, libwir.AppendVarint(nil, d), nil
}

func divideByDecode(_ libarn.Arena, _ Params, hdr []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	s, err := oneNumericInput(outs)
	if err != nil {
		return nil, err
	}

	d, c, err := libwir.DecodeVarint(hdr)
	if err != nil {
		return nil, err
	}
	if len(hdr) != c || d == 0 {
		return nil, liberr.New(liberr.CodeCorruption, "divide-by header is malformed")
	}

	w, n, src := s.Width(), s.NumElts(), s.Content()
	in, dst, err := newFixed(libstr.Numeric, w, n)
	if err != nil {
		return nil, err
	}
	mask := widthMask(w)
	for i := 0; i < n; i++ {
		writeElt(dst[i*w:], w, (readElt(src[i*w:], w)*d)&mask)
	}
	if err = in.Commit(n); err != nil {
		return nil, err
	}
	return []libstr.Stream{in}, nil
}

func float32DeconEncode(_ libarn.Arena, _ Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	s, err := oneNumericInput(in)
	if err != nil {
		return nil, nil, err
	}
	if s.Width() != 4 {
		return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "float32-deconstruct needs width 4, got %d", s.Width())
	}

	n, src := s.NumElts(), s.Content()

	hi, hiDst, err := newFixed(libstr.Serial, 1, n)
	if err != nil {
		return nil, nil, err
	}
	lo, loDst, err := newFixed(libstr.Struct, 3, n)
	if err != nil {
		return nil, nil, err
	}

	for i := 0; i < n; i++ {
		hiDst[i] = src[i*4+3]
		copy(loDst[i*3:], src[i*4:i*4+3])
	}
	if err = hi.Commit(n); err != nil {
		return nil, nil, err
	}
	if err = lo.Commit(n); err != nil {
		return nil, nil, err
	}
	return []libstr.Stream{hi, lo}, nil, nil
}

func float32DeconDecode(_ libarn.Arena, _ Params, _ []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	if len(outs) != 2 || outs[0].Type() != libstr.Serial || outs[1].Type() != libstr.Struct || outs[1].Width() != 3 {
		return nil, liberr.New(liberr.CodeCorruption, "float32-deconstruct inverse expects serial + struct(3) streams")
	}
	if outs[0].NumElts() != outs[1].NumElts() {
		return nil, liberr.New(liberr.CodeCorruption, "float32-deconstruct streams disagree on count")
	}

	n := outs[0].NumElts()
	hi, lo := outs[0].Content(), outs[1].Content()

	in, dst, err := newFixed(libstr.Numeric, 4, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		copy(dst[i*4:], lo[i*3:i*3+3])
		dst[i*4+3] = hi[i]
	}
	if err = in.Commit(n); err != nil {
		return nil, err
	}
	return []libstr.Stream{in}, nil
}

func gcd64(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
