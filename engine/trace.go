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
	"sort"

	libcdc "github.com/nabbar/zstream/codec"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
	libwir "github.com/nabbar/zstream/wire"
)

const (
	entryTransform byte = 0
	entryTerminal  byte = 1
)

// traceEntry is one executed node invocation. Entries are recorded in
// execution order; decompression replays their inverses in reverse order.
type traceEntry struct {
	kind byte

	// codecID is the stable codec identifier (shared by clones of one
	// node), not the per-builder node id.
	codecID uint32

	params libcdc.Params
	header []byte

	// transform wiring, by runtime stream id
	inputIDs  []int
	outputIDs []int

	// terminal
	streamID   int
	info       libcdc.StreamInfo
	payload    []byte
	payloadLen int
}

func appendParams(b []byte, p libcdc.Params) []byte {
	keys := make([]int, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	b = libwir.AppendVarint(b, uint64(len(keys)))
	for _, k := range keys {
		b = libwir.AppendVarint(b, uint64(k))
		v := p[k]
		b = libwir.AppendVarint(b, uint64((v<<1)^(v>>63)))
	}
	return b
}

func parseParams(b []byte) (libcdc.Params, int, error) {
	n64, c, err := libwir.DecodeVarint(b)
	if err != nil {
		return nil, 0, err
	}
	if n64 > 256 {
		return nil, 0, liberr.New(liberr.CodeCorruption, "trace entry declares %d parameters", n64)
	}
	var p libcdc.Params
	if n64 > 0 {
		p = make(libcdc.Params, n64)
	}
	for i := 0; i < int(n64); i++ {
		k, kn, e := libwir.DecodeVarint(b[c:])
		if e != nil {
			return nil, 0, e
		}
		c += kn
		z, vn, e := libwir.DecodeVarint(b[c:])
		if e != nil {
			return nil, 0, e
		}
		c += vn
		p[int(k)] = int64(z>>1) ^ -int64(z&1)
	}
	return p, c, nil
}

func appendIDs(b []byte, ids []int) []byte {
	b = libwir.AppendVarint(b, uint64(len(ids)))
	for _, id := range ids {
		b = libwir.AppendVarint(b, uint64(id))
	}
	return b
}

func parseIDs(b []byte, limit int) ([]int, int, error) {
	n64, c, err := libwir.DecodeVarint(b)
	if err != nil {
		return nil, 0, err
	}
	if int(n64) > limit {
		return nil, 0, liberr.New(liberr.CodeCorruption, "trace entry declares %d streams, limit is %d", n64, limit)
	}
	ids := make([]int, 0, n64)
	for i := 0; i < int(n64); i++ {
		v, n, e := libwir.DecodeVarint(b[c:])
		if e != nil {
			return nil, 0, e
		}
		c += n
		if int(v) > limit {
			return nil, 0, liberr.New(liberr.CodeCorruption, "stream id %d exceeds the runtime limit %d", v, limit)
		}
		ids = append(ids, int(v))
	}
	return ids, c, nil
}

func (e *traceEntry) serialize(b []byte) []byte {
	b = append(b, e.kind)
	b = libwir.AppendVarint(b, uint64(e.codecID))
	b = appendParams(b, e.params)
	b = libwir.AppendVarint(b, uint64(len(e.header)))
	b = append(b, e.header...)

	if e.kind == entryTransform {
		b = appendIDs(b, e.inputIDs)
		b = appendIDs(b, e.outputIDs)
		return b
	}

	b = libwir.AppendVarint(b, uint64(e.streamID))
	b = append(b, byte(e.info.Type))
	b = libwir.AppendVarint(b, uint64(e.info.Width))
	b = libwir.AppendVarint(b, uint64(e.info.NumElts))
	b = libwir.AppendVarint(b, uint64(e.info.ByteSize))
	b = libwir.AppendVarint(b, uint64(len(e.payload)))
	return b
}

func parseTraceEntry(b []byte, streamLimit int) (*traceEntry, int, error) {
	if len(b) < 2 {
		return nil, 0, liberr.New(liberr.CodeCorruption, "truncated trace entry")
	}
	e := &traceEntry{kind: b[0]}
	if e.kind != entryTransform && e.kind != entryTerminal {
		return nil, 0, liberr.New(liberr.CodeCorruption, "trace entry of unknown kind %d", e.kind)
	}
	c := 1

	n64, n, err := libwir.DecodeVarint(b[c:])
	if err != nil {
		return nil, 0, err
	}
	c += n
	e.codecID = uint32(n64)

	p, n, err := parseParams(b[c:])
	if err != nil {
		return nil, 0, err
	}
	c += n
	e.params = p

	h64, n, err := libwir.DecodeVarint(b[c:])
	if err != nil {
		return nil, 0, err
	}
	c += n
	if uint64(len(b)-c) < h64 {
		return nil, 0, liberr.New(liberr.CodeCorruption, "trace entry header overruns the trace")
	}
	e.header = b[c : c+int(h64)]
	c += int(h64)

	if e.kind == entryTransform {
		ins, n2, err2 := parseIDs(b[c:], streamLimit)
		if err2 != nil {
			return nil, 0, err2
		}
		c += n2
		outs, n3, err3 := parseIDs(b[c:], streamLimit)
		if err3 != nil {
			return nil, 0, err3
		}
		c += n3
		e.inputIDs, e.outputIDs = ins, outs
		return e, c, nil
	}

	sid, n, err := libwir.DecodeVarint(b[c:])
	if err != nil {
		return nil, 0, err
	}
	c += n
	if int(sid) > streamLimit {
		return nil, 0, liberr.New(liberr.CodeCorruption, "stream id %d exceeds the runtime limit %d", sid, streamLimit)
	}
	e.streamID = int(sid)

	if c >= len(b) {
		return nil, 0, liberr.New(liberr.CodeCorruption, "truncated trace entry")
	}
	e.info.Type = libstr.Type(b[c])
	c++
	for _, field := range []*int{&e.info.Width, &e.info.NumElts, &e.info.ByteSize} {
		v, n4, err4 := libwir.DecodeVarint(b[c:])
		if err4 != nil {
			return nil, 0, err4
		}
		c += n4
		*field = int(v)
	}

	pl, n, err := libwir.DecodeVarint(b[c:])
	if err != nil {
		return nil, 0, err
	}
	c += n
	// payload bytes live in the chunk blob after the trace; only the
	// length is recorded here
	e.payloadLen = int(pl)
	return e, c, nil
}
