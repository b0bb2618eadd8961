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
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

// FrameInfo inspects a frame header without decoding any payload.
type FrameInfo interface {
	// FormatVersion returns the frame's negotiated wire version.
	FormatVersion() uint32

	// NumOutputs returns the declared output count.
	NumOutputs() int

	// OutputType returns the declared type of output i.
	OutputType(i int) (libstr.Type, error)

	// OutputWidth returns the declared element width of output i.
	OutputWidth(i int) (int, error)

	// OutputNumElts returns the declared element count of output i.
	OutputNumElts(i int) (int, error)

	// DecompressedSize returns the declared serialized byte size of
	// output i.
	DecompressedSize(i int) (int, error)

	// TotalDecompressedSize sums the declared sizes of every output.
	TotalDecompressedSize() int

	// HeaderSize returns the parsed frame-header length in bytes.
	HeaderSize() int

	// HasContentChecksum reports the content-checksum flag.
	HasContentChecksum() bool

	// HasCompressedChecksum reports the compressed-checksum flag.
	HasCompressedChecksum() bool
}

// NewFrameInfo parses the header of frame bytes.
func NewFrameInfo(frame []byte) (FrameInfo, error) {
	h, err := parseFrameHeader(frame)
	if err != nil {
		return nil, err
	}
	return &finfo{h: h}, nil
}

type finfo struct {
	h *frameHeader
}

func (f *finfo) FormatVersion() uint32 {
	return f.h.version
}

func (f *finfo) NumOutputs() int {
	return len(f.h.outputs)
}

func (f *finfo) check(i int) error {
	if i < 0 || i >= len(f.h.outputs) {
		return liberr.New(liberr.CodeInvalidRequest, "frame has %d outputs, requested %d", len(f.h.outputs), i)
	}
	return nil
}

func (f *finfo) OutputType(i int) (libstr.Type, error) {
	if err := f.check(i); err != nil {
		return 0, err
	}
	return f.h.outputs[i].Type, nil
}

func (f *finfo) OutputWidth(i int) (int, error) {
	if err := f.check(i); err != nil {
		return 0, err
	}
	return f.h.outputs[i].Width, nil
}

func (f *finfo) OutputNumElts(i int) (int, error) {
	if err := f.check(i); err != nil {
		return 0, err
	}
	return f.h.outputs[i].NumElts, nil
}

func (f *finfo) DecompressedSize(i int) (int, error) {
	if err := f.check(i); err != nil {
		return 0, err
	}
	return f.h.outputs[i].ByteSize, nil
}

func (f *finfo) TotalDecompressedSize() int {
	total := 0
	for _, o := range f.h.outputs {
		total += o.ByteSize
	}
	return total
}

func (f *finfo) HeaderSize() int {
	return f.h.hdrSize
}

func (f *finfo) HasContentChecksum() bool {
	return f.h.contentChecksum
}

func (f *finfo) HasCompressedChecksum() bool {
	return f.h.compressedChecksum
}
