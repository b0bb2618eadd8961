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

package engine

import (
	libcdc "github.com/nabbar/zstream/codec"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
	libwir "github.com/nabbar/zstream/wire"
)

type frameHeader struct {
	version            uint32
	contentChecksum    bool
	compressedChecksum bool
	outputs            []libcdc.StreamInfo
	metas              []libcdc.Params
	numChunks          int

	// hdrSize is the parsed header length; the compressed checksum covers
	// everything from here to its own slot.
	hdrSize int
}

func (h *frameHeader) flags() uint64 {
	var f uint64
	if h.contentChecksum {
		f |= 1
	}
	if h.compressedChecksum {
		f |= 2
	}
	return f
}

func (h *frameHeader) serialize() ([]byte, error) {
	b := make([]byte, libwir.MagicSize, 64)
	if err := libwir.WriteMagic(b, h.version); err != nil {
		return nil, err
	}

	b = libwir.AppendVarint(b, h.flags())
	b = libwir.AppendVarint(b, uint64(len(h.outputs)))
	for i, o := range h.outputs {
		b = append(b, byte(o.Type))
		b = libwir.AppendVarint(b, uint64(o.Width))
		b = libwir.AppendVarint(b, uint64(o.NumElts))
		b = libwir.AppendVarint(b, uint64(o.ByteSize))
		var m libcdc.Params
		if i < len(h.metas) {
			m = h.metas[i]
		}
		b = appendParams(b, m)
	}
	b = libwir.AppendVarint(b, uint64(h.numChunks))
	return b, nil
}

func parseFrameHeader(frame []byte) (*frameHeader, error) {
	v, err := libwir.VersionFromFrame(frame)
	if err != nil {
		return nil, err
	}

	h := &frameHeader{version: v}
	c := libwir.MagicSize

	f, n, err := libwir.DecodeVarint(frame[c:])
	if err != nil {
		return nil, liberr.Forward(err, "frame flags")
	}
	c += n
	if f > 3 {
		return nil, liberr.New(liberr.CodeCorruption, "frame declares unknown flags 0x%X", f)
	}
	h.contentChecksum = f&1 != 0
	h.compressedChecksum = f&2 != 0

	no, n, err := libwir.DecodeVarint(frame[c:])
	if err != nil {
		return nil, liberr.Forward(err, "frame output count")
	}
	c += n
	if int(no) > libwir.MaxFrameOutputs(v) {
		return nil, liberr.New(liberr.CodeCorruption, "frame declares %d outputs, limit is %d", no, libwir.MaxFrameOutputs(v))
	}

	h.outputs = make([]libcdc.StreamInfo, 0, no)
	for i := 0; i < int(no); i++ {
		if c >= len(frame) {
			return nil, liberr.New(liberr.CodeSrcSizeTooSmall, "truncated frame header")
		}
		var o libcdc.StreamInfo
		o.Type = libstr.Type(frame[c])
		c++
		if !o.Type.IsSingle() {
			return nil, liberr.New(liberr.CodeCorruption, "frame output %d declares invalid type", i)
		}
		for _, field := range []*int{&o.Width, &o.NumElts, &o.ByteSize} {
			fv, fn, fe := libwir.DecodeVarint(frame[c:])
			if fe != nil {
				return nil, liberr.Forward(fe, "frame output %d", i)
			}
			c += fn
			*field = int(fv)
		}
		if o.ByteSize > len(frame)*4096 {
			// a frame cannot plausibly expand this much; refuse before
			// allocating
			return nil, liberr.New(liberr.CodeCorruption, "frame output %d declares an implausible %d bytes", i, o.ByteSize)
		}
		m, mn, me := parseParams(frame[c:])
		if me != nil {
			return nil, liberr.Forward(me, "frame output %d metadata", i)
		}
		c += mn
		h.outputs = append(h.outputs, o)
		h.metas = append(h.metas, m)
	}

	nc, n, err := libwir.DecodeVarint(frame[c:])
	if err != nil {
		return nil, liberr.Forward(err, "frame chunk count")
	}
	c += n
	if nc == 0 || int(nc) > libwir.MaxChunkCount(v) {
		return nil, liberr.New(liberr.CodeCorruption, "frame declares %d chunks, limit is %d", nc, libwir.MaxChunkCount(v))
	}
	h.numChunks = int(nc)
	h.hdrSize = c
	return h, nil
}

// checksumRegion returns the byte range covered by the compressed checksum:
// everything after the frame header up to the compressed-checksum slot
// (the content-checksum slot, when present, is covered).
func (h *frameHeader) checksumRegion(frame []byte) ([]byte, error) {
	end := len(frame) - libwir.ChecksumSize
	if end < h.hdrSize {
		return nil, liberr.New(liberr.CodeSrcSizeTooSmall, "frame is too small for its checksum")
	}
	return frame[h.hdrSize:end], nil
}
