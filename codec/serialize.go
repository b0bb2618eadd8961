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
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
	libwir "github.com/nabbar/zstream/wire"
)

// StreamInfo is the declaration of one stream carried by the encode side so
// the decoder can allocate before decoding: type, width, element count, and
// the byte size of the stream's serialization.
type StreamInfo struct {
	Type     libstr.Type
	Width    int
	NumElts  int
	ByteSize int
}

// InfoOf returns the StreamInfo describing the committed stream s.
func InfoOf(s libstr.Stream) StreamInfo {
	return StreamInfo{
		Type:     s.Type(),
		Width:    s.Width(),
		NumElts:  s.NumElts(),
		ByteSize: len(SerializeStream(s)),
	}
}

// SerializeStream flattens a committed stream to bytes: the content for
// fixed-width types, the varint-encoded lengths followed by the content for
// string streams.
func SerializeStream(s libstr.Stream) []byte {
	if s.Type() != libstr.String {
		return s.Content()
	}
	var b []byte
	for _, l := range s.StringLens() {
		b = libwir.AppendVarint(b, uint64(l))
	}
	return append(b, s.Content()...)
}

// DeserializeStream rebuilds a committed stream from its serialization and
// declaration. Any disagreement between declaration and bytes fails with
// CodeCorruption.
func DeserializeStream(info StreamInfo, b []byte) (libstr.Stream, error) {
	if len(b) != info.ByteSize {
		return nil, liberr.New(liberr.CodeCorruption, "stream declares %d bytes, payload holds %d", info.ByteSize, len(b))
	}

	if info.Type != libstr.String {
		if info.Width <= 0 || info.NumElts < 0 || len(b) != info.Width*info.NumElts {
			return nil, liberr.New(liberr.CodeCorruption, "declared %d elements of width %d over %d bytes", info.NumElts, info.Width, len(b))
		}
		s, err := libstr.New(info.Type, info.Width)
		if err != nil {
			return nil, liberr.Forward(err, "rebuilding %s stream", info.Type.String())
		}
		if err = s.Reserve(info.NumElts); err != nil {
			return nil, err
		}
		w, err := s.Writable()
		if err != nil {
			return nil, err
		}
		copy(w, b)
		if err = s.Commit(info.NumElts); err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := libstr.New(libstr.String, 1)
	if err != nil {
		return nil, err
	}
	if err = s.Reserve(info.NumElts); err != nil {
		return nil, err
	}

	lens := make([]uint32, info.NumElts)
	off := 0
	var total uint64
	for i := 0; i < info.NumElts; i++ {
		v, n, e := libwir.DecodeVarint(b[off:])
		if e != nil {
			return nil, liberr.Forward(e, "string length %d", i)
		}
		if v > uint64(len(b)) {
			return nil, liberr.New(liberr.CodeCorruption, "string length %d exceeds payload", v)
		}
		lens[i] = uint32(v)
		total += v
		off += n
	}
	if total != uint64(len(b)-off) {
		return nil, liberr.New(liberr.CodeCorruption, "string lengths sum to %d, payload holds %d bytes", total, len(b)-off)
	}
	if err = s.AppendBytes(b[off:]); err != nil {
		return nil, err
	}
	for _, l := range lens {
		if err = s.AppendStringLen(l); err != nil {
			return nil, err
		}
	}
	if err = s.Commit(info.NumElts); err != nil {
		return nil, err
	}
	return s, nil
}
