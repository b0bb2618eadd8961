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
	libwir "github.com/nabbar/zstream/wire"
)

// invocation is one unit of graph work: a list of runtime streams headed to
// a graph.
type invocation struct {
	ids     []int
	streams []libstr.Stream
	graph   libcpr.GraphID
}

type exec struct {
	c       *cctx
	op      *liberr.OperationContext
	version uint32

	entries    []*traceEntry
	nextStream int
	stack      []invocation
}

func (ex *exec) run(ins []libstr.Stream, start libcpr.GraphID) error {
	ids := make([]int, len(ins))
	for i := range ins {
		ids[i] = ex.allocStreamIDUnchecked()
	}

	ex.stack = append(ex.stack, invocation{ids: ids, streams: ins, graph: start})

	for len(ex.stack) > 0 {
		inv := ex.stack[len(ex.stack)-1]
		ex.stack = ex.stack[:len(ex.stack)-1]
		if err := ex.resolve(inv); err != nil {
			return err
		}
	}

	if len(ex.entries) > libwir.MaxTraceLength(ex.version) {
		return ex.op.New(liberr.CodeInvalidTransform, "trace of %d entries exceeds the limit %d", len(ex.entries), libwir.MaxTraceLength(ex.version))
	}
	return nil
}

func (ex *exec) allocStreamIDUnchecked() int {
	id := ex.nextStream
	ex.nextStream++
	return id
}

func (ex *exec) allocStreamID() (int, error) {
	if ex.nextStream >= libwir.MaxRuntimeStreams(ex.version) {
		return 0, ex.op.New(liberr.CodeInvalidTransform, "chunk exceeds the runtime stream limit %d", libwir.MaxRuntimeStreams(ex.version))
	}
	return ex.allocStreamIDUnchecked(), nil
}

// push preserves leftmost-first depth-first order on the stack.
func (ex *exec) push(invs ...invocation) {
	for i := len(invs) - 1; i >= 0; i-- {
		ex.stack = append(ex.stack, invs[i])
	}
}

func (ex *exec) resolve(inv invocation) error {
	g, ok := ex.c.b.Graph(inv.graph)
	if !ok {
		return ex.op.New(liberr.CodeGraphInvalid, "unknown graph %d", inv.graph)
	}

	scope := liberr.EmptyGraphContext()
	scope.Graph = int64(g.ID)
	ex.op.PushScope(scope)
	defer ex.op.PopScope()

	switch g.Kind {
	case libcpr.GraphTerminal:
		for i := range inv.streams {
			if err := ex.runTerminal(g, inv.ids[i], inv.streams[i]); err != nil {
				return err
			}
		}
		return nil

	case libcpr.GraphStatic:
		return ex.runStatic(g, inv)

	case libcpr.GraphSelector:
		return ex.runSelector(g, inv)

	case libcpr.GraphFunction:
		return ex.runFunction(g, inv)
	}

	return ex.op.New(liberr.CodeGraphInvalid, "graph %q has unknown kind", g.Name)
}

// nodeParams layers codec defaults, the context compression level for
// terminal codecs, the node's local parameters, and the graph's local
// parameters.
func (ex *exec) nodeParams(n *libcpr.NodeDesc, g *libcpr.GraphDesc) libcdc.Params {
	base := n.Codec.Defaults
	if n.Codec.Kind == libcdc.KindTerminal {
		if lvl, ok := ex.c.param(libcpr.ParamCompressionLevel); ok {
			base = base.Merge(libcdc.Params{libcdc.ParamLevel: lvl})
		}
	}
	p := base.Merge(n.LocalParams)
	if g != nil {
		p = p.Merge(g.LocalParams)
	}
	return p
}

func (ex *exec) checkFloor(n *libcpr.NodeDesc) error {
	if n.MinVersion() > ex.version {
		return ex.op.New(liberr.CodeFormatVersionUnsupported, "node %q needs format version >= %d, frame is encoded at %d", n.Name, n.MinVersion(), ex.version)
	}
	return nil
}

func (ex *exec) runTerminal(g *libcpr.GraphDesc, id int, s libstr.Stream) error {
	n, ok := ex.c.b.Node(g.Node)
	if !ok {
		return ex.op.New(liberr.CodeGraphInvalid, "terminal graph %q references unknown node %d", g.Name, g.Node)
	}
	if err := ex.checkFloor(n); err != nil {
		return err
	}

	scope := liberr.EmptyGraphContext()
	scope.Node = int64(n.ID)
	ex.op.PushScope(scope)
	defer ex.op.PopScope()

	params := ex.nodeParams(n, g)
	raw := libcdc.SerializeStream(s)

	if h := ex.c.hooks; h != nil && h.OnNodeStart != nil {
		h.OnNodeStart(n.Codec.ID, g.ID, []int{len(raw)})
	}

	payload, err := n.Codec.TermEncode(params, raw)
	if err != nil {
		return ex.op.Forward(err, "terminal codec %q", n.Name)
	}

	if h := ex.c.hooks; h != nil && h.OnNodeEnd != nil {
		h.OnNodeEnd(n.Codec.ID, []int{len(payload)})
	}

	ex.entries = append(ex.entries, &traceEntry{
		kind:     entryTerminal,
		codecID:  n.Codec.ID,
		params:   params,
		streamID: id,
		info:     libcdc.InfoOf(s),
		payload:  payload,
	})
	return nil
}

// coerce inserts a zero-copy conversion when the mask rejects the stream's
// type, recording it as a regular transform.
func (ex *exec) coerce(id int, s libstr.Stream, mask libstr.Type) (int, libstr.Stream, error) {
	if mask.Has(s.Type()) {
		return id, s, nil
	}

	cid, cp, ok := libcdc.ConversionFor(s.Type(), s.Width(), mask)
	if !ok {
		return 0, nil, ex.op.New(liberr.CodeGraphInvalid, "no conversion from %s/%d to %s", s.Type().String(), s.Width(), mask.String())
	}

	n, ok := ex.c.b.Node(libcpr.NodeID(cid))
	if !ok {
		return 0, nil, ex.op.New(liberr.CodeLogic, "conversion codec %d is not registered", cid)
	}

	outIDs, outs, err := ex.runNode(n, nil, cp, []int{id}, []libstr.Stream{s}, nil)
	if err != nil {
		return 0, nil, err
	}
	return outIDs[0], outs[0], nil
}

// runNode executes one node invocation and records its trace entry. graph
// may be nil for engine-inserted conversions.
func (ex *exec) runNode(n *libcpr.NodeDesc, g *libcpr.GraphDesc, extraParams libcdc.Params, ids []int, ins []libstr.Stream, aux []byte) ([]int, []libstr.Stream, error) {
	if n.Codec.Kind == libcdc.KindTerminal {
		return nil, nil, ex.op.New(liberr.CodeGraphInvalid, "terminal node %q runs through a terminal graph, not as a transform", n.Name)
	}
	if err := ex.checkFloor(n); err != nil {
		return nil, nil, err
	}

	scope := liberr.EmptyGraphContext()
	scope.Node = int64(n.ID)
	scope.Transform = int64(len(ex.entries))
	ex.op.PushScope(scope)
	defer ex.op.PopScope()

	params := ex.nodeParams(n, g).Merge(extraParams)

	if h := ex.c.hooks; h != nil && h.OnNodeStart != nil {
		sizes := make([]int, len(ins))
		for i, s := range ins {
			sizes[i] = s.ByteSize()
		}
		var gid libcpr.GraphID
		if g != nil {
			gid = g.ID
		}
		h.OnNodeStart(n.Codec.ID, gid, sizes)
	}

	outs, hdr, err := n.Codec.Encode(ex.c.ar, params, aux, ins)
	if err != nil {
		return nil, nil, ex.op.Forward(err, "node %q", n.Name)
	}

	if err = ex.checkOutputs(n, outs); err != nil {
		return nil, nil, err
	}

	outIDs := make([]int, len(outs))
	for i := range outs {
		id, e := ex.allocStreamID()
		if e != nil {
			return nil, nil, e
		}
		outIDs[i] = id
	}

	if h := ex.c.hooks; h != nil && h.OnNodeEnd != nil {
		sizes := make([]int, len(outs))
		for i, s := range outs {
			sizes[i] = s.ByteSize()
		}
		h.OnNodeEnd(n.Codec.ID, sizes)
	}

	ex.entries = append(ex.entries, &traceEntry{
		kind:      entryTransform,
		codecID:   n.Codec.ID,
		params:    params,
		header:    hdr,
		inputIDs:  append([]int(nil), ids...),
		outputIDs: outIDs,
	})
	return outIDs, outs, nil
}

func (ex *exec) checkOutputs(n *libcpr.NodeDesc, outs []libstr.Stream) error {
	if len(outs) > libwir.MaxOutputStreams(ex.version) {
		return ex.op.New(liberr.CodeInvalidTransform, "node %q produced %d outputs, limit is %d", n.Name, len(outs), libwir.MaxOutputStreams(ex.version))
	}

	if n.Codec.VariadicOutput == 0 && len(outs) != len(n.Codec.OutputTypes) {
		return ex.op.New(liberr.CodeTransformExecution, "node %q declared %d output ports, produced %d", n.Name, len(n.Codec.OutputTypes), len(outs))
	}

	for i, o := range outs {
		if o == nil || !o.Committed() {
			return ex.op.New(liberr.CodeTransformExecution, "node %q left output %d uncommitted", n.Name, i)
		}
		if err := o.ValidateContent(); err != nil {
			return ex.op.Forward(err, "output %d of node %q", i, n.Name)
		}
		want := n.Codec.VariadicOutput
		if want == 0 {
			want = n.Codec.OutputTypes[i]
		}
		if !want.Has(o.Type()) {
			return ex.op.New(liberr.CodeTransformExecution, "node %q produced %s on port %d, declared %s", n.Name, o.Type().String(), i, want.String())
		}
	}
	return nil
}

func (ex *exec) runStatic(g *libcpr.GraphDesc, inv invocation) error {
	n, ok := ex.c.b.Node(g.Node)
	if !ok {
		return ex.op.New(liberr.CodeGraphInvalid, "graph %q references unknown node %d", g.Name, g.Node)
	}

	ids, ins, err := ex.coerceAll(n, inv.ids, inv.streams)
	if err != nil {
		return err
	}

	outIDs, outs, err := ex.runNode(n, g, nil, ids, ins, nil)
	if err != nil {
		return err
	}

	if n.Codec.VariadicOutput != 0 {
		ex.push(invocation{ids: outIDs, streams: outs, graph: g.Successors[0]})
		return nil
	}

	next := make([]invocation, len(outs))
	for i := range outs {
		next[i] = invocation{
			ids:     outIDs[i : i+1],
			streams: outs[i : i+1],
			graph:   g.Successors[i],
		}
	}
	ex.push(next...)
	return nil
}

func (ex *exec) coerceAll(n *libcpr.NodeDesc, ids []int, ins []libstr.Stream) ([]int, []libstr.Stream, error) {
	if n.Codec.VariadicInput != 0 {
		cIDs := make([]int, len(ins))
		cIns := make([]libstr.Stream, len(ins))
		for i := range ins {
			id, s, err := ex.coerce(ids[i], ins[i], n.Codec.VariadicInput)
			if err != nil {
				return nil, nil, err
			}
			cIDs[i], cIns[i] = id, s
		}
		return cIDs, cIns, nil
	}

	if len(ins) != len(n.Codec.InputMasks) {
		return nil, nil, ex.op.New(liberr.CodeNodeInvalidInput, "node %q has %d input ports, %d streams arrived", n.Name, len(n.Codec.InputMasks), len(ins))
	}

	cIDs := make([]int, len(ins))
	cIns := make([]libstr.Stream, len(ins))
	for i := range ins {
		id, s, err := ex.coerce(ids[i], ins[i], n.Codec.InputMasks[i])
		if err != nil {
			return nil, nil, err
		}
		cIDs[i], cIns[i] = id, s
	}
	return cIDs, cIns, nil
}

func (ex *exec) runSelector(g *libcpr.GraphDesc, inv invocation) error {
	sctx := &selctx{ex: ex}

	// each stream is one decision point; the callback runs once per point
	next := make([]invocation, 0, len(inv.streams))
	for i, s := range inv.streams {
		chosen, err := g.Selector(sctx, s, append([]libcpr.GraphID(nil), g.Candidates...))
		if err != nil {
			return ex.op.Forward(err, "selector %q", g.Name)
		}
		valid := false
		for _, c := range g.Candidates {
			if c == chosen {
				valid = true
				break
			}
		}
		if !valid {
			return ex.op.New(liberr.CodeGraphInvalid, "selector %q chose graph %d outside its candidates", g.Name, chosen)
		}
		next = append(next, invocation{ids: inv.ids[i : i+1], streams: inv.streams[i : i+1], graph: chosen})
	}
	ex.push(next...)
	return nil
}

func (ex *exec) runFunction(g *libcpr.GraphDesc, inv invocation) error {
	f := &fctx{ex: ex}

	edges := make([]libcpr.Edge, len(inv.streams))
	for i := range inv.streams {
		edges[i] = f.newEdge(inv.ids[i], inv.streams[i])
	}

	if err := g.Function(f, edges); err != nil {
		return ex.op.Forward(err, "function graph %q", g.Name)
	}

	for _, e := range f.edges {
		if !e.done {
			return ex.op.New(liberr.CodeGraphInvalid, "function graph %q left an edge unrouted", g.Name)
		}
	}

	ex.push(f.pending...)
	return nil
}
