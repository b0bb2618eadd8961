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
	libcpr "github.com/nabbar/zstream/compressor"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

// fctx reifies a function-graph callback's operations: node runs execute
// immediately (recording trace entries), routed edges queue as pending
// invocations replayed after the callback returns.
type fctx struct {
	ex      *exec
	edges   []*edge
	pending []invocation
}

type edge struct {
	f    *fctx
	id   int
	s    libstr.Stream
	done bool
}

func (f *fctx) newEdge(id int, s libstr.Stream) *edge {
	e := &edge{f: f, id: id, s: s}
	f.edges = append(f.edges, e)
	return e
}

func (e *edge) Stream() libstr.Stream {
	return e.s
}

func (e *edge) consume() error {
	if e.done {
		return e.f.ex.op.New(liberr.CodeGraphInvalid, "edge is already terminated")
	}
	e.done = true
	return nil
}

func (e *edge) run(n libcpr.NodeID, aux []byte) ([]libcpr.Edge, error) {
	if err := e.consume(); err != nil {
		return nil, err
	}
	return e.f.runNodeOn(n, aux, []int{e.id}, []libstr.Stream{e.s})
}

func (e *edge) RunNode(n libcpr.NodeID) ([]libcpr.Edge, error) {
	return e.run(n, nil)
}

func (e *edge) RunSplitNode(n libcpr.NodeID, segmentSizes []int) ([]libcpr.Edge, error) {
	if len(segmentSizes) == 0 {
		return nil, e.f.ex.op.New(liberr.CodeInvalidRequest, "split needs at least one segment")
	}
	return e.run(n, libcdc.EncodeSegmentSizes(segmentSizes))
}

func (e *edge) SetDestination(g libcpr.GraphID) error {
	if err := e.consume(); err != nil {
		return err
	}
	if _, ok := e.f.ex.c.b.Graph(g); !ok {
		e.done = false
		return e.f.ex.op.New(liberr.CodeGraphInvalid, "unknown destination graph %d", g)
	}
	e.f.pending = append(e.f.pending, invocation{ids: []int{e.id}, streams: []libstr.Stream{e.s}, graph: g})
	return nil
}

func (f *fctx) RunMultiNode(n libcpr.NodeID, edges []libcpr.Edge) ([]libcpr.Edge, error) {
	if len(edges) == 0 {
		return nil, f.ex.op.New(liberr.CodeInvalidRequest, "multi-node run needs at least one edge")
	}

	ids := make([]int, len(edges))
	ins := make([]libstr.Stream, len(edges))
	for i, ei := range edges {
		e, ok := ei.(*edge)
		if !ok || e.f != f {
			return nil, f.ex.op.New(liberr.CodeInvalidRequest, "edge does not belong to this function graph")
		}
		if err := e.consume(); err != nil {
			return nil, err
		}
		ids[i], ins[i] = e.id, e.s
	}
	return f.runNodeOn(n, nil, ids, ins)
}

func (f *fctx) runNodeOn(n libcpr.NodeID, aux []byte, ids []int, ins []libstr.Stream) ([]libcpr.Edge, error) {
	nd, ok := f.ex.c.b.Node(n)
	if !ok {
		return nil, f.ex.op.New(liberr.CodeGraphInvalid, "unknown node %d", n)
	}

	cIDs, cIns, err := f.ex.coerceAll(nd, ids, ins)
	if err != nil {
		return nil, err
	}

	outIDs, outs, err := f.ex.runNode(nd, nil, nil, cIDs, cIns, aux)
	if err != nil {
		return nil, err
	}

	res := make([]libcpr.Edge, len(outs))
	for i := range outs {
		res[i] = f.newEdge(outIDs[i], outs[i])
	}
	return res, nil
}
