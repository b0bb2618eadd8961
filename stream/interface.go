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

package stream

import (
	liberr "github.com/nabbar/zstream/errors"
)

// Stream is one typed stream. Read methods may be called at any time;
// consumers must only observe committed streams (the executor keeps
// uncommitted streams out of the ready set). Write methods apply to owned,
// uncommitted streams only.
type Stream interface {

	// Type returns the stream type (always a single type, never a mask).
	Type() Type

	// Width returns the element width in bytes. For string streams the
	// width is implicit per element and Width returns 1.
	Width() int

	// NumElts returns the committed element count; 0 before commit.
	NumElts() int

	// ByteSize returns the committed content size in bytes.
	ByteSize() int

	// Content returns the committed content. The slice must not be
	// modified.
	Content() []byte

	// StringLens returns the per-element lengths of a string stream, nil
	// for other types. The slice must not be modified.
	StringLens() []uint32

	// Committed reports whether the stream has been committed.
	Committed() bool

	// Owned reports whether the stream owns its content buffer. Borrowed
	// streams reject all writes and never free the referred buffer.
	Owned() bool

	// Reserve grows the owned buffer to hold at least capElts elements
	// (for string streams: capElts length slots and a byte-capacity hint).
	// Idempotent; shrinking is a no-op.
	Reserve(capElts int) error

	// Writable returns the reserved, uncommitted content buffer for
	// fixed-width streams. The producing node writes elements into it
	// before Commit.
	Writable() ([]byte, error)

	// AppendString appends one string element (payload bytes and its
	// length slot) to an uncommitted string stream.
	AppendString(p []byte) error

	// AppendStringLen grows the lengths array by one slot covering the
	// next l bytes already accounted in the content buffer.
	AppendStringLen(l uint32) error

	// AppendBytes appends raw payload bytes to an uncommitted string
	// stream without adding a length slot.
	AppendBytes(p []byte) error

	// Commit freezes the stream at numElts elements. It fails if numElts
	// exceeds the reserved capacity, if the stream is borrowed, or if it
	// is already committed. After Commit the element count never changes.
	Commit(numElts int) error

	// SetIntMeta sets one integer metadata entry. Allowed before and after
	// commit; metadata is not content.
	SetIntMeta(key int, value int64)

	// GetIntMeta returns one integer metadata entry.
	GetIntMeta(key int) (int64, bool)

	// IntMetaKeys returns the metadata keys in ascending order.
	IntMetaKeys() []int

	// CopyFrom deep-copies content, lengths and metadata of src into this
	// uncommitted owned stream and commits it.
	CopyFrom(src Stream) error

	// ValidateContent checks the content-size invariants of the stream.
	ValidateContent() error

	// Retain adds one reference.
	Retain()

	// Release drops one reference; on the last release an owned stream
	// drops its content buffer.
	Release()
}

// New creates an empty, uncommitted, owned stream of the given single type
// and element width.
func New(t Type, width int) (Stream, error) {
	if !t.IsSingle() {
		return nil, liberr.New(liberr.CodeInvalidRequest, "stream type must be a single type, got %s", t.String())
	}
	if !t.ValidWidth(width) {
		return nil, liberr.New(liberr.CodeInvalidRequest, "invalid width %d for %s stream", width, t.String())
	}
	s := &str{
		typ:   t,
		wdt:   width,
		owned: true,
	}
	s.ref.Store(1)
	return s, nil
}

// RefConst creates a borrowed, immediately committed stream over an existing
// fixed-width buffer. The buffer must hold exactly width*count bytes and
// must outlive the stream.
func RefConst(content []byte, t Type, width int, count int) (Stream, error) {
	if !t.IsSingle() || t == String {
		return nil, liberr.New(liberr.CodeInvalidRequest, "ref stream type must be a single fixed-width type, got %s", t.String())
	}
	if !t.ValidWidth(width) {
		return nil, liberr.New(liberr.CodeInvalidRequest, "invalid width %d for %s stream", width, t.String())
	}
	if len(content) != width*count {
		return nil, liberr.New(liberr.CodeSrcSizeTooSmall, "buffer holds %d bytes, %d elements of width %d need %d", len(content), count, width, width*count)
	}
	s := &str{
		typ:       t,
		wdt:       width,
		cnt:       content,
		num:       count,
		committed: true,
	}
	s.ref.Store(1)
	return s, nil
}

// RefString creates a borrowed, immediately committed string stream over an
// existing payload buffer and its per-element lengths. The lengths must sum
// to the payload size.
func RefString(content []byte, lens []uint32) (Stream, error) {
	var total uint64
	for _, l := range lens {
		total += uint64(l)
	}
	if total != uint64(len(content)) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "string lengths sum to %d, content holds %d bytes", total, len(content))
	}
	s := &str{
		typ:       String,
		wdt:       1,
		cnt:       content,
		lens:      lens,
		num:       len(lens),
		committed: true,
	}
	s.ref.Store(1)
	return s, nil
}
