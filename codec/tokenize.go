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
	"encoding/binary"
	"sort"

	libarn "github.com/nabbar/zstream/arena"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

func builtinTokenize() []Descriptor {
	return []Descriptor{
		{
			ID:          IDTokenizeNumeric,
			Name:        "tokenize-numeric",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.Numeric},
			OutputTypes: []libstr.Type{libstr.Numeric, libstr.Numeric},
			MinVersion:  12,
			Defaults:    Params{ParamSorted: 0},
			Encode:      tokenizeNumEncode,
			Decode:      tokenizeNumDecode,
		},
		{
			ID:          IDTokenizeString,
			Name:        "tokenize-string",
			Kind:        KindTyped,
			InputMasks:  []libstr.Type{libstr.String},
			OutputTypes: []libstr.Type{libstr.String, libstr.Numeric},
			MinVersion:  12,
			Defaults:    Params{ParamSorted: 0},
			Encode:      tokenizeStrEncode,
			Decode:      tokenizeStrDecode,
		},
	}
}

func tokenizeNumEncode(_ libarn.Arena, p Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	s, err := oneNumericInput(in)
	if err != nil {
		return nil, nil, err
	}

	w, n, src := s.Width(), s.NumElts(), s.Content()

	seen := make(map[uint64]uint32, n)
	var alphabet []uint64
	idx := make([]uint32, n)

	for i := 0; i < n; i++ {
		v := readElt(src[i*w:], w)
		pos, ok := seen[v]
		if !ok {
			pos = uint32(len(alphabet))
			seen[v] = pos
			alphabet = append(alphabet, v)
		}
		idx[i] = pos
	}

	if p.GetDefault(ParamSorted, 0) != 0 {
		order := make([]uint32, len(alphabet))
		sorted := append([]uint64(nil), alphabet...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for i, v := range sorted {
			order[seen[v]] = uint32(i)
		}
		for i := range idx {
			idx[i] = order[idx[i]]
		}
		alphabet = sorted
	}

	alpha, aDst, err := newFixed(libstr.Numeric, w, len(alphabet))
	if err != nil {
		return nil, nil, err
	}
	for i, v := range alphabet {
		writeElt(aDst[i*w:], w, v)
	}
	if err = alpha.Commit(len(alphabet)); err != nil {
		return nil, nil, err
	}

	idxs, iDst, err := newFixed(libstr.Numeric, 4, n)
	if err != nil {
		return nil, nil, err
	}
	for i, v := range idx {
		binary.LittleEndian.PutUint32(iDst[i*4:], v)
	}
	if err = idxs.Commit(n); err != nil {
		return nil, nil, err
	}

	return []libstr.Stream{alpha, idxs}, nil, nil
}

func tokenizeNumDecode(_ libarn.Arena, _ Params, _ []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	if len(outs) != 2 || outs[0].Type() != libstr.Numeric || outs[1].Type() != libstr.Numeric || outs[1].Width() != 4 {
		return nil, liberr.New(liberr.CodeCorruption, "tokenize inverse expects alphabet + u32 index streams")
	}

	w := outs[0].Width()
	na, n := outs[0].NumElts(), outs[1].NumElts()
	aSrc, iSrc := outs[0].Content(), outs[1].Content()

	in, dst, err := newFixed(libstr.Numeric, w, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		pos := binary.LittleEndian.Uint32(iSrc[i*4:])
		if int(pos) >= na {
			return nil, liberr.New(liberr.CodeCorruption, "token index %d outside alphabet of %d", pos, na)
		}
		writeElt(dst[i*w:], w, readElt(aSrc[int(pos)*w:], w))
	}
	if err = in.Commit(n); err != nil {
		return nil, err
	}
	return []libstr.Stream{in}, nil
}

func tokenizeStrEncode(_ libarn.Arena, p Params, _ []byte, in []libstr.Stream) ([]libstr.Stream, []byte, error) {
	if len(in) != 1 || in[0].Type() != libstr.String {
		return nil, nil, liberr.New(liberr.CodeNodeInvalidInput, "tokenize-string expects 1 string stream")
	}
	s := in[0]

	lens, cnt := s.StringLens(), s.Content()
	n := s.NumElts()

	seen := make(map[string]uint32, n)
	var alphabet []string
	idx := make([]uint32, n)

	off := 0
	for i := 0; i < n; i++ {
		v := string(cnt[off : off+int(lens[i])])
		off += int(lens[i])
		pos, ok := seen[v]
		if !ok {
			pos = uint32(len(alphabet))
			seen[v] = pos
			alphabet = append(alphabet, v)
		}
		idx[i] = pos
	}

	if p.GetDefault(ParamSorted, 0) != 0 {
		order := make([]uint32, len(alphabet))
		sorted := append([]string(nil), alphabet...)
		sort.Strings(sorted)
		for i, v := range sorted {
			order[seen[v]] = uint32(i)
		}
		for i := range idx {
			idx[i] = order[idx[i]]
		}
		alphabet = sorted
	}

	alpha, err := libstr.New(libstr.String, 1)
	if err != nil {
		return nil, nil, err
	}
	if err = alpha.Reserve(len(alphabet)); err != nil {
		return nil, nil, err
	}
	for _, v := range alphabet {
		if err = alpha.AppendString([]byte(v)); err != nil {
			return nil, nil, err
		}
	}
	if err = alpha.Commit(len(alphabet)); err != nil {
		return nil, nil, err
	}

	idxs, iDst, err := newFixed(libstr.Numeric, 4, n)
	if err != nil {
		return nil, nil, err
	}
	for i, v := range idx {
		binary.LittleEndian.PutUint32(iDst[i*4:], v)
	}
	if err = idxs.Commit(n); err != nil {
		return nil, nil, err
	}

	return []libstr.Stream{alpha, idxs}, nil, nil
}

func tokenizeStrDecode(_ libarn.Arena, _ Params, _ []byte, outs []libstr.Stream) ([]libstr.Stream, error) {
	if len(outs) != 2 || outs[0].Type() != libstr.String || outs[1].Type() != libstr.Numeric || outs[1].Width() != 4 {
		return nil, liberr.New(liberr.CodeCorruption, "tokenize-string inverse expects string alphabet + u32 index streams")
	}

	aLens, aCnt := outs[0].StringLens(), outs[0].Content()
	na, n := outs[0].NumElts(), outs[1].NumElts()
	iSrc := outs[1].Content()

	starts := make([]int, na+1)
	for i := 0; i < na; i++ {
		starts[i+1] = starts[i] + int(aLens[i])
	}

	in, err := libstr.New(libstr.String, 1)
	if err != nil {
		return nil, err
	}
	if err = in.Reserve(n); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		pos := binary.LittleEndian.Uint32(iSrc[i*4:])
		if int(pos) >= na {
			return nil, liberr.New(liberr.CodeCorruption, "token index %d outside alphabet of %d", pos, na)
		}
		if err = in.AppendString(aCnt[starts[pos]:starts[pos+1]]); err != nil {
			return nil, err
		}
	}
	if err = in.Commit(n); err != nil {
		return nil, err
	}
	return []libstr.Stream{in}, nil
}
