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

package thrift

// DynamicOutput32 receives inner-container values whose cardinality may far
// exceed the outer container's. Next commits the previous slice in full and
// returns fresh room; i and total hint how much to allocate. Finish commits
// the used prefix of the last slice and invalidates all slices.
type DynamicOutput32 interface {
	Next(i, total int) []uint32
	Finish(used int)
}

// DynamicOutput64 is DynamicOutput32 over 64-bit values.
type DynamicOutput64 interface {
	Next(i, total int) []uint64
	Finish(used int)
}

const (
	minChunk = 1024
	maxChunk = 1024 * 1024
)

func chunkSize(written, i, total int) int {
	expected := 0
	if i > 0 {
		expected = written * total / i
	}
	size := expected - written
	if size < minChunk {
		size = minChunk
	}
	if size > maxChunk {
		size = maxChunk
	}
	return size
}

// SliceOutput32 backs a DynamicOutput32 with one growing slice.
type SliceOutput32 struct {
	buf     []uint32
	written int
}

// Next commits the previous slice and grows the buffer.
func (s *SliceOutput32) Next(i, total int) []uint32 {
	s.written = len(s.buf)
	s.buf = append(s.buf, make([]uint32, chunkSize(s.written, i, total))...)
	return s.buf[s.written:]
}

// Finish truncates to the written prefix.
func (s *SliceOutput32) Finish(used int) {
	s.buf = s.buf[:s.written+used]
	s.written = len(s.buf)
}

// Written returns the committed values.
func (s *SliceOutput32) Written() []uint32 {
	return s.buf
}

// SliceOutput64 backs a DynamicOutput64 with one growing slice.
type SliceOutput64 struct {
	buf     []uint64
	written int
}

func (s *SliceOutput64) Next(i, total int) []uint64 {
	s.written = len(s.buf)
	s.buf = append(s.buf, make([]uint64, chunkSize(s.written, i, total))...)
	return s.buf[s.written:]
}

func (s *SliceOutput64) Finish(used int) {
	s.buf = s.buf[:s.written+used]
	s.written = len(s.buf)
}

func (s *SliceOutput64) Written() []uint64 {
	return s.buf
}

// ChunkedOutput64 keeps the produced chunks, copying only on CopyTo. The
// same shape serves rope-like backends.
type ChunkedOutput64 struct {
	chunks [][]uint64
	size   int
	last   int
}

func (c *ChunkedOutput64) Next(i, total int) []uint64 {
	if len(c.chunks) > 0 {
		c.size += c.last
	}
	chunk := make([]uint64, chunkSize(c.size, i, total))
	c.chunks = append(c.chunks, chunk)
	c.last = len(chunk)
	return chunk
}

func (c *ChunkedOutput64) Finish(used int) {
	if len(c.chunks) == 0 {
		return
	}
	c.size += used
	c.chunks[len(c.chunks)-1] = c.chunks[len(c.chunks)-1][:used]
	c.last = 0
}

// Size returns the committed value count.
func (c *ChunkedOutput64) Size() int {
	return c.size
}

// CopyTo flattens the committed values into dst, which must be large
// enough.
func (c *ChunkedOutput64) CopyTo(dst []uint64) int {
	off := 0
	remaining := c.size
	for _, chunk := range c.chunks {
		n := len(chunk)
		if n > remaining {
			n = remaining
		}
		copy(dst[off:], chunk[:n])
		off += n
		remaining -= n
	}
	return off
}

// ChunkedOutput32 is ChunkedOutput64 over 32-bit values.
type ChunkedOutput32 struct {
	chunks [][]uint32
	size   int
	last   int
}

func (c *ChunkedOutput32) Next(i, total int) []uint32 {
	if len(c.chunks) > 0 {
		c.size += c.last
	}
	chunk := make([]uint32, chunkSize(c.size, i, total))
	c.chunks = append(c.chunks, chunk)
	c.last = len(chunk)
	return chunk
}

func (c *ChunkedOutput32) Finish(used int) {
	if len(c.chunks) == 0 {
		return
	}
	c.size += used
	c.chunks[len(c.chunks)-1] = c.chunks[len(c.chunks)-1][:used]
	c.last = 0
}

func (c *ChunkedOutput32) Size() int {
	return c.size
}

func (c *ChunkedOutput32) CopyTo(dst []uint32) int {
	off := 0
	remaining := c.size
	for _, chunk := range c.chunks {
		n := len(chunk)
		if n > remaining {
			n = remaining
		}
		copy(dst[off:], chunk[:n])
		off += n
		remaining -= n
	}
	return off
}
