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

package ace

import (
	"encoding/binary"
	"sort"

	"github.com/zeebo/xxh3"

	libcdc "github.com/nabbar/zstream/codec"
	libcpr "github.com/nabbar/zstream/compressor"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

// Node describes one transform usable inside a search tree.
type Node struct {
	Name        string
	Params      libcdc.Params
	InputType   libstr.Type
	OutputTypes []libstr.Type
}

// GraphRef is a terminal graph leaf of a search tree.
type GraphRef struct {
	Name      string
	InputMask libstr.Type
}

// Compressor is one search individual: a transform node with one child per
// output port, or a terminal graph reference. Trees are immutable;
// mutation and crossover build new trees.
type Compressor struct {
	node       *Node
	successors []*Compressor
	graph      *GraphRef
	hash       uint64
	nodes      int
}

// NewNodeCompressor builds a tree applying node and routing each output
// port to its successor.
func NewNodeCompressor(node Node, successors []*Compressor) (*Compressor, error) {
	if len(successors) != len(node.OutputTypes) {
		return nil, liberr.New(liberr.CodeInvalidRequest, "node %q has %d output ports, got %d successors", node.Name, len(node.OutputTypes), len(successors))
	}
	for i, s := range successors {
		if !s.AcceptsInputType(node.OutputTypes[i]) {
			return nil, liberr.New(liberr.CodeInvalidRequest, "successor %d of node %q rejects %s", i, node.Name, node.OutputTypes[i].String())
		}
	}

	c := &Compressor{node: &node, successors: successors, nodes: 1}
	for _, s := range successors {
		c.nodes += s.nodes
	}
	c.hash = c.computeHash()
	return c, nil
}

// NewGraphCompressor builds a terminal leaf.
func NewGraphCompressor(graph GraphRef) *Compressor {
	c := &Compressor{graph: &graph, nodes: 1}
	c.hash = c.computeHash()
	return c
}

// IsNode reports whether the root is a transform node.
func (c *Compressor) IsNode() bool {
	return c.node != nil
}

// Node returns the root transform of a node tree.
func (c *Compressor) Node() *Node {
	return c.node
}

// Successors returns the children of a node tree.
func (c *Compressor) Successors() []*Compressor {
	return c.successors
}

// Graph returns the leaf reference of a graph tree.
func (c *Compressor) Graph() *GraphRef {
	return c.graph
}

// Hash is the structural hash; equal trees share it.
func (c *Compressor) Hash() uint64 {
	return c.hash
}

// NodeCount counts the tree's components.
func (c *Compressor) NodeCount() int {
	return c.nodes
}

// AcceptsInputType reports whether the tree can consume the type.
func (c *Compressor) AcceptsInputType(t libstr.Type) bool {
	if c.node != nil {
		return c.node.InputType.Has(t)
	}
	return c.graph.InputMask.Has(t)
}

func (c *Compressor) computeHash() uint64 {
	h := xxh3.New()
	var buf [8]byte

	if c.graph != nil {
		_, _ = h.WriteString("g:")
		_, _ = h.WriteString(c.graph.Name)
		return h.Sum64()
	}

	_, _ = h.WriteString("n:")
	_, _ = h.WriteString(c.node.Name)

	keys := make([]int, 0, len(c.node.Params))
	for k := range c.node.Params {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(c.node.Params[k]))
		_, _ = h.Write(buf[:])
	}

	for _, s := range c.successors {
		binary.LittleEndian.PutUint64(buf[:], s.hash)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// ForEachComponent visits every component reachable when feeding the tree
// the given input type, passing the input type arriving at each component.
func (c *Compressor) ForEachComponent(input libstr.Type, fn func(c *Compressor, input libstr.Type)) {
	fn(c, input)
	if c.node == nil {
		return
	}
	for i, s := range c.successors {
		s.ForEachComponent(c.node.OutputTypes[i], fn)
	}
}

// Replace rebuilds the tree, substituting the first component for which fn
// returns a replacement. fn receives the arriving input type and the depth.
func (c *Compressor) Replace(input libstr.Type, fn func(c *Compressor, input libstr.Type, depth int) *Compressor) *Compressor {
	replaced := false
	out := c.replace(input, 0, fn, &replaced)
	return out
}

func (c *Compressor) replace(input libstr.Type, depth int, fn func(*Compressor, libstr.Type, int) *Compressor, done *bool) *Compressor {
	if *done {
		return c
	}
	if r := fn(c, input, depth); r != nil {
		*done = true
		return r
	}
	if c.node == nil {
		return c
	}

	succ := make([]*Compressor, len(c.successors))
	changed := false
	for i, s := range c.successors {
		succ[i] = s.replace(c.node.OutputTypes[i], depth+1, fn, done)
		if succ[i] != s {
			changed = true
		}
	}
	if !changed {
		return c
	}

	out, err := NewNodeCompressor(*c.node, succ)
	if err != nil {
		// the replacement was type-incompatible after all; keep the
		// original subtree
		return c
	}
	return out
}

// Build registers the tree into the builder and returns its root graph.
func (c *Compressor) Build(b libcpr.Builder) (libcpr.GraphID, error) {
	if c.graph != nil {
		g, ok := b.GraphByName(c.graph.Name)
		if !ok {
			return 0, liberr.New(liberr.CodeGraphInvalid, "unknown graph %q", c.graph.Name)
		}
		return g.ID, nil
	}

	succ := make([]libcpr.GraphID, len(c.successors))
	for i, s := range c.successors {
		id, err := s.Build(b)
		if err != nil {
			return 0, err
		}
		succ[i] = id
	}

	base, ok := b.NodeByName(c.node.Name)
	if !ok {
		return 0, liberr.New(liberr.CodeGraphInvalid, "unknown node %q", c.node.Name)
	}

	nodeID := base.ID
	if len(c.node.Params) > 0 {
		cloned, err := b.CloneNode(base.ID, c.node.Params)
		if err != nil {
			return 0, err
		}
		nodeID = cloned
	}

	return b.RegisterStaticGraph("", nodeID, succ...)
}
