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

package compressor

import (
	"fmt"
	"sort"
	"sync/atomic"

	libcdc "github.com/nabbar/zstream/codec"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

type bld struct {
	frozen      atomic.Bool
	nodes       map[NodeID]*NodeDesc
	graphs      map[GraphID]*GraphDesc
	nodeByName  map[string]NodeID
	graphByName map[string]GraphID
	params      map[Parameter]int64
	cloneSeq    map[string]int
	nextNode    NodeID
	nextGraph   GraphID
	start       GraphID
	hasStart    bool
}

func (b *bld) mutable() error {
	if b.frozen.Load() {
		return liberr.New(liberr.CodeInvalidRequest, "compressor is frozen, register before the first compress call")
	}
	return nil
}

func (b *bld) addNode(n *NodeDesc) {
	b.nodes[n.ID] = n
	b.nodeByName[n.Name] = n.ID
}

func (b *bld) addGraph(g *GraphDesc) {
	b.graphs[g.ID] = g
	b.graphByName[g.Name] = g.ID
}

func (b *bld) uniqueName(name string) (string, error) {
	if _, ok := b.nodeByName[name]; ok {
		return "", liberr.New(liberr.CodeInvalidRequest, "name %q is already registered", name)
	}
	if _, ok := b.graphByName[name]; ok {
		return "", liberr.New(liberr.CodeInvalidRequest, "name %q is already registered", name)
	}
	return name, nil
}

// cloneName derives the next "#N"-suffixed name for a base.
func (b *bld) cloneName(base string) string {
	for {
		b.cloneSeq[base]++
		name := fmt.Sprintf("%s#%d", base, b.cloneSeq[base])
		if _, ok := b.nodeByName[name]; ok {
			continue
		}
		if _, ok := b.graphByName[name]; ok {
			continue
		}
		return name
	}
}

func (b *bld) registerEncoder(desc libcdc.Descriptor, kind libcdc.Kind) (NodeID, error) {
	if err := b.mutable(); err != nil {
		return 0, err
	}
	if desc.Kind != kind {
		return 0, liberr.New(liberr.CodeInvalidRequest, "descriptor %q declares kind %d, expected %d", desc.Name, desc.Kind, kind)
	}
	if desc.Kind == libcdc.KindTerminal {
		if desc.TermEncode == nil || desc.TermDecode == nil {
			return 0, liberr.New(liberr.CodeInvalidRequest, "terminal codec %q is missing its encode or decode function", desc.Name)
		}
	} else if desc.Encode == nil || desc.Decode == nil {
		return 0, liberr.New(liberr.CodeInvalidRequest, "codec %q is missing its encode or decode function", desc.Name)
	}
	if len(desc.InputMasks) == 0 && desc.VariadicInput == 0 {
		return 0, liberr.New(liberr.CodeInvalidRequest, "codec %q declares no input", desc.Name)
	}

	name, err := b.uniqueName(desc.Name)
	if err != nil {
		return 0, err
	}

	d := desc
	id := b.nextNode
	b.nextNode++
	b.addNode(&NodeDesc{ID: id, Name: name, Codec: &d})
	return id, nil
}

func (b *bld) RegisterTypedEncoder(desc libcdc.Descriptor) (NodeID, error) {
	if desc.Kind == libcdc.KindTerminal {
		return b.registerEncoder(desc, libcdc.KindTerminal)
	}
	return b.registerEncoder(desc, libcdc.KindTyped)
}

func (b *bld) RegisterPipeEncoder(desc libcdc.Descriptor) (NodeID, error) {
	return b.registerEncoder(desc, libcdc.KindPipe)
}

func (b *bld) RegisterSplitEncoder(desc libcdc.Descriptor) (NodeID, error) {
	return b.registerEncoder(desc, libcdc.KindSplit)
}

func (b *bld) RegisterStaticGraph(name string, node NodeID, successors ...GraphID) (GraphID, error) {
	if err := b.mutable(); err != nil {
		return 0, err
	}

	n, ok := b.nodes[node]
	if !ok {
		return 0, liberr.New(liberr.CodeGraphInvalid, "unknown node %d", node)
	}

	kind := GraphStatic
	switch {
	case n.Codec.Kind == libcdc.KindTerminal:
		if len(successors) != 0 {
			return 0, liberr.New(liberr.CodeGraphInvalid, "terminal node %q takes no successors", n.Name)
		}
		kind = GraphTerminal
	case n.Codec.VariadicOutput != 0:
		if len(successors) != 1 {
			return 0, liberr.New(liberr.CodeGraphInvalid, "node %q has variadic outputs and takes exactly one shared successor", n.Name)
		}
	case len(successors) != len(n.Codec.OutputTypes):
		return 0, liberr.New(liberr.CodeGraphInvalid, "node %q has %d output ports, got %d successors", n.Name, len(n.Codec.OutputTypes), len(successors))
	}

	for _, s := range successors {
		if _, ok = b.graphs[s]; !ok {
			return 0, liberr.New(liberr.CodeGraphInvalid, "unknown successor graph %d", s)
		}
	}

	if name == "" {
		name = b.cloneName(n.Name)
	} else if _, err := b.uniqueName(name); err != nil {
		return 0, err
	}

	mask := n.Codec.VariadicInput
	if mask == 0 {
		mask = n.Codec.InputMasks[0]
	}

	id := b.nextGraph
	b.nextGraph++
	b.addGraph(&GraphDesc{
		ID:         id,
		Name:       name,
		Kind:       kind,
		InputMask:  mask,
		Node:       node,
		Successors: append([]GraphID(nil), successors...),
	})
	return id, nil
}

func (b *bld) RegisterSelectorGraph(name string, fn SelectorFn, candidates ...GraphID) (GraphID, error) {
	if err := b.mutable(); err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, liberr.New(liberr.CodeInvalidRequest, "selector graph needs a callback")
	}
	if len(candidates) == 0 {
		return 0, liberr.New(liberr.CodeGraphInvalid, "selector graph needs at least one candidate")
	}

	var mask libstr.Type
	for _, c := range candidates {
		g, ok := b.graphs[c]
		if !ok {
			return 0, liberr.New(liberr.CodeGraphInvalid, "unknown candidate graph %d", c)
		}
		mask |= g.InputMask
	}

	if _, err := b.uniqueName(name); err != nil {
		return 0, err
	}

	id := b.nextGraph
	b.nextGraph++
	b.addGraph(&GraphDesc{
		ID:         id,
		Name:       name,
		Kind:       GraphSelector,
		InputMask:  mask,
		Candidates: append([]GraphID(nil), candidates...),
		Selector:   fn,
	})
	return id, nil
}

func (b *bld) RegisterFunctionGraph(name string, mask libstr.Type, fn FunctionFn) (GraphID, error) {
	if err := b.mutable(); err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, liberr.New(liberr.CodeInvalidRequest, "function graph needs a callback")
	}
	if mask == 0 {
		return 0, liberr.New(liberr.CodeInvalidRequest, "function graph needs an input mask")
	}
	if _, err := b.uniqueName(name); err != nil {
		return 0, err
	}

	id := b.nextGraph
	b.nextGraph++
	b.addGraph(&GraphDesc{
		ID:        id,
		Name:      name,
		Kind:      GraphFunction,
		InputMask: mask,
		Function:  fn,
	})
	return id, nil
}

func (b *bld) RegisterParameterizedGraph(name string, base GraphID, customGraphs []GraphID, localParams libcdc.Params) (GraphID, error) {
	if err := b.mutable(); err != nil {
		return 0, err
	}

	bg, ok := b.graphs[base]
	if !ok {
		return 0, liberr.New(liberr.CodeGraphInvalid, "unknown base graph %d", base)
	}

	g := *bg
	g.Base = base
	g.LocalParams = bg.LocalParams.Merge(localParams)

	if customGraphs != nil {
		for _, s := range customGraphs {
			if _, ok = b.graphs[s]; !ok {
				return 0, liberr.New(liberr.CodeGraphInvalid, "unknown custom graph %d", s)
			}
		}
		switch bg.Kind {
		case GraphStatic:
			if len(customGraphs) != len(bg.Successors) {
				return 0, liberr.New(liberr.CodeGraphInvalid, "base %q has %d successors, got %d", bg.Name, len(bg.Successors), len(customGraphs))
			}
			g.Successors = append([]GraphID(nil), customGraphs...)
		case GraphSelector:
			g.Candidates = append([]GraphID(nil), customGraphs...)
		default:
			return 0, liberr.New(liberr.CodeGraphInvalid, "base %q of kind %s cannot rebind successors", bg.Name, bg.Kind.String())
		}
	}

	if name == "" {
		name = b.cloneName(bg.Name)
	} else if _, err := b.uniqueName(name); err != nil {
		return 0, err
	}

	g.ID = b.nextGraph
	g.Name = name
	b.nextGraph++
	b.addGraph(&g)
	return g.ID, nil
}

func (b *bld) CloneNode(base NodeID, localParams libcdc.Params) (NodeID, error) {
	if err := b.mutable(); err != nil {
		return 0, err
	}

	bn, ok := b.nodes[base]
	if !ok {
		return 0, liberr.New(liberr.CodeInvalidRequest, "unknown node %d", base)
	}

	id := b.nextNode
	b.nextNode++
	b.addNode(&NodeDesc{
		ID:          id,
		Name:        b.cloneName(bn.Name),
		Codec:       bn.Codec,
		LocalParams: bn.LocalParams.Merge(localParams),
		Base:        base,
	})
	return id, nil
}

func (b *bld) SetParameter(p Parameter, v int64) error {
	if err := b.mutable(); err != nil {
		return err
	}
	if err := CheckParameter(p, v); err != nil {
		return err
	}
	b.params[p] = v
	return nil
}

func (b *bld) GetParameter(p Parameter) (int64, bool) {
	v, ok := b.params[p]
	return v, ok
}

func (b *bld) SelectStartingGraph(g GraphID) error {
	if err := b.mutable(); err != nil {
		return err
	}
	if _, ok := b.graphs[g]; !ok {
		return liberr.New(liberr.CodeGraphInvalid, "unknown graph %d", g)
	}
	b.start = g
	b.hasStart = true
	return nil
}

func (b *bld) StartingGraph() (GraphID, bool) {
	return b.start, b.hasStart
}

func (b *bld) Node(id NodeID) (*NodeDesc, bool) {
	n, ok := b.nodes[id]
	return n, ok
}

func (b *bld) NodeByName(name string) (*NodeDesc, bool) {
	id, ok := b.nodeByName[name]
	if !ok {
		return nil, false
	}
	return b.nodes[id], true
}

func (b *bld) Graph(id GraphID) (*GraphDesc, bool) {
	g, ok := b.graphs[id]
	return g, ok
}

func (b *bld) GraphByName(name string) (*GraphDesc, bool) {
	id, ok := b.graphByName[name]
	if !ok {
		return nil, false
	}
	return b.graphs[id], true
}

func (b *bld) Graphs() []GraphID {
	ids := make([]GraphID, 0, len(b.graphs))
	for id := range b.graphs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (b *bld) Nodes() []NodeID {
	ids := make([]NodeID, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (b *bld) Freeze() {
	b.frozen.Store(true)
}

func (b *bld) Frozen() bool {
	return b.frozen.Load()
}
