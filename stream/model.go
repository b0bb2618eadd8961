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
	"sort"
	"sync/atomic"

	liberr "github.com/nabbar/zstream/errors"
)

type str struct {
	typ       Type
	wdt       int
	cnt       []byte
	used      int // bytes written, string streams only
	lens      []uint32
	num       int
	committed bool
	owned     bool
	meta      map[int]int64
	ref       atomic.Int32
}

func (s *str) Type() Type {
	return s.typ
}

func (s *str) Width() int {
	return s.wdt
}

func (s *str) NumElts() int {
	if !s.committed {
		return 0
	}
	return s.num
}

func (s *str) ByteSize() int {
	if !s.committed {
		return 0
	}
	if s.typ == String {
		return s.used
	}
	return s.num * s.wdt
}

func (s *str) Content() []byte {
	if !s.committed {
		return nil
	}
	return s.cnt[:s.ByteSize()]
}

func (s *str) StringLens() []uint32 {
	if s.typ != String || !s.committed {
		return nil
	}
	return s.lens
}

func (s *str) Committed() bool {
	return s.committed
}

func (s *str) Owned() bool {
	return s.owned
}

func (s *str) Reserve(capElts int) error {
	if !s.owned {
		return liberr.New(liberr.CodeInvalidRequest, "cannot reserve on a borrowed stream")
	}
	if s.committed {
		return liberr.New(liberr.CodeInvalidRequest, "cannot reserve on a committed stream")
	}
	if capElts < 0 {
		return liberr.New(liberr.CodeInvalidRequest, "negative capacity %d", capElts)
	}

	if s.typ == String {
		if cap(s.lens) < capElts {
			l := make([]uint32, len(s.lens), capElts)
			copy(l, s.lens)
			s.lens = l
		}
		// byte capacity is a hint for string streams; payload grows on
		// append
		if len(s.cnt) < capElts {
			c := make([]byte, capElts)
			copy(c, s.cnt[:s.used])
			s.cnt = c
		}
		return nil
	}

	need := capElts * s.wdt
	if len(s.cnt) < need {
		c := make([]byte, need)
		copy(c, s.cnt)
		s.cnt = c
	}
	return nil
}

func (s *str) Writable() ([]byte, error) {
	if !s.owned {
		return nil, liberr.New(liberr.CodeInvalidRequest, "cannot write to a borrowed stream")
	}
	if s.committed {
		return nil, liberr.New(liberr.CodeInvalidRequest, "cannot write to a committed stream")
	}
	if s.typ == String {
		return nil, liberr.New(liberr.CodeInvalidRequest, "string streams grow by append, not by direct write")
	}
	return s.cnt, nil
}

func (s *str) AppendString(p []byte) error {
	if e := s.AppendBytes(p); e != nil {
		return e
	}
	return s.AppendStringLen(uint32(len(p)))
}

func (s *str) AppendBytes(p []byte) error {
	if !s.owned || s.committed {
		return liberr.New(liberr.CodeInvalidRequest, "cannot append to a %s stream", s.state())
	}
	if s.typ != String {
		return liberr.New(liberr.CodeInvalidRequest, "append is only valid on string streams")
	}
	if s.used+len(p) > len(s.cnt) {
		c := make([]byte, max(2*len(s.cnt), s.used+len(p)))
		copy(c, s.cnt[:s.used])
		s.cnt = c
	}
	copy(s.cnt[s.used:], p)
	s.used += len(p)
	return nil
}

func (s *str) AppendStringLen(l uint32) error {
	if !s.owned || s.committed {
		return liberr.New(liberr.CodeInvalidRequest, "cannot append to a %s stream", s.state())
	}
	if s.typ != String {
		return liberr.New(liberr.CodeInvalidRequest, "string lengths are only valid on string streams")
	}
	s.lens = append(s.lens, l)
	return nil
}

func (s *str) Commit(numElts int) error {
	if !s.owned {
		return liberr.New(liberr.CodeInvalidRequest, "cannot commit a borrowed stream")
	}
	if s.committed {
		return liberr.New(liberr.CodeInvalidRequest, "stream is already committed")
	}
	if numElts < 0 {
		return liberr.New(liberr.CodeInvalidRequest, "negative element count %d", numElts)
	}

	if s.typ == String {
		if numElts != len(s.lens) {
			return liberr.New(liberr.CodeInvalidRequest, "committing %d elements but %d string lengths were appended", numElts, len(s.lens))
		}
		var total uint64
		for _, l := range s.lens {
			total += uint64(l)
		}
		if total != uint64(s.used) {
			return liberr.New(liberr.CodeNodeInvalidInput, "string lengths sum to %d, content holds %d bytes", total, s.used)
		}
	} else if numElts*s.wdt > len(s.cnt) {
		return liberr.New(liberr.CodeDstCapacityTooSmall, "committing %d elements of width %d exceeds reserved %d bytes", numElts, s.wdt, len(s.cnt))
	}

	s.num = numElts
	s.committed = true
	return nil
}

func (s *str) SetIntMeta(key int, value int64) {
	if s.meta == nil {
		s.meta = make(map[int]int64)
	}
	s.meta[key] = value
}

func (s *str) GetIntMeta(key int) (int64, bool) {
	v, ok := s.meta[key]
	return v, ok
}

func (s *str) IntMetaKeys() []int {
	k := make([]int, 0, len(s.meta))
	for key := range s.meta {
		k = append(k, key)
	}
	sort.Ints(k)
	return k
}

func (s *str) CopyFrom(src Stream) error {
	if !s.owned || s.committed {
		return liberr.New(liberr.CodeInvalidRequest, "copy destination must be an uncommitted owned stream")
	}
	if !src.Committed() {
		return liberr.New(liberr.CodeInvalidRequest, "copy source must be committed")
	}
	if s.typ != src.Type() || s.wdt != src.Width() {
		return liberr.New(liberr.CodeNodeInvalidInput, "copy between %s/%d and %s/%d streams", src.Type(), src.Width(), s.typ, s.wdt)
	}

	if s.typ == String {
		if e := s.Reserve(src.NumElts()); e != nil {
			return e
		}
		if e := s.AppendBytes(src.Content()); e != nil {
			return e
		}
		s.lens = append(s.lens[:0], src.StringLens()...)
	} else {
		if e := s.Reserve(src.NumElts()); e != nil {
			return e
		}
		copy(s.cnt, src.Content())
	}

	for _, k := range src.IntMetaKeys() {
		if v, ok := src.GetIntMeta(k); ok {
			s.SetIntMeta(k, v)
		}
	}

	return s.Commit(src.NumElts())
}

func (s *str) ValidateContent() error {
	if !s.committed {
		return liberr.New(liberr.CodeInvalidRequest, "stream is not committed")
	}
	if s.typ == String {
		var total uint64
		for _, l := range s.lens {
			total += uint64(l)
		}
		if total != uint64(s.used) || len(s.lens) != s.num {
			return liberr.New(liberr.CodeCorruption, "string stream invariant broken: %d lengths summing to %d over %d bytes", len(s.lens), total, s.used)
		}
		return nil
	}
	if len(s.cnt) < s.num*s.wdt {
		return liberr.New(liberr.CodeCorruption, "content holds %d bytes, %d elements of width %d need %d", len(s.cnt), s.num, s.wdt, s.num*s.wdt)
	}
	return nil
}

func (s *str) Retain() {
	s.ref.Add(1)
}

func (s *str) Release() {
	if s.ref.Add(-1) != 0 {
		return
	}
	// borrowed content is never freed here, only unlinked
	s.cnt = nil
	s.lens = nil
	s.meta = nil
}

func (s *str) state() string {
	switch {
	case !s.owned:
		return "borrowed"
	case s.committed:
		return "committed"
	default:
		return "writable"
	}
}
