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
	"time"

	libarn "github.com/nabbar/zstream/arena"
	libcpr "github.com/nabbar/zstream/compressor"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

// selctx lets selector callbacks probe candidates. A try runs inside a
// fresh child context sharing the frozen compressor; its arena, trace and
// error state are its own and are dropped when the try returns, so two
// tries of the same input report the same size.
type selctx struct {
	ex *exec
}

func (s *selctx) GraphInputMask(g libcpr.GraphID) (libstr.Type, bool) {
	gd, ok := s.ex.c.b.Graph(g)
	if !ok {
		return 0, false
	}
	return gd.InputMask, true
}

func (s *selctx) TryGraph(g libcpr.GraphID, in libstr.Stream) (libcpr.TryResult, error) {
	var res libcpr.TryResult

	if _, ok := s.ex.c.b.Graph(g); !ok {
		return res, liberr.New(liberr.CodeGraphInvalid, "unknown candidate graph %d", g)
	}

	child := &cctx{
		params: make(map[libcpr.Parameter]int64),
		ar:     libarn.New(0),
		b:      s.ex.c.b,
	}
	// the try must see the parent's effective parameters
	for _, p := range []libcpr.Parameter{
		libcpr.ParamFormatVersion,
		libcpr.ParamCompressionLevel,
		libcpr.ParamDecompressionLevel,
	} {
		if v, ok := s.ex.c.param(p); ok {
			child.params[p] = v
		}
	}

	t0 := time.Now()
	frame, err := child.compressInternal([]libstr.Stream{in}, g, false)
	if err != nil {
		return res, liberr.Forward(err, "trying candidate graph %d", g)
	}
	res.CompressTime = time.Since(t0)
	res.CompressedSize = len(frame)

	d := dctxFor(s.ex.c.b)
	t1 := time.Now()
	if _, err = d.DecompressMulti(frame); err != nil {
		return res, liberr.Forward(err, "round-tripping candidate graph %d", g)
	}
	res.DecompressTime = time.Since(t1)

	return res, nil
}
