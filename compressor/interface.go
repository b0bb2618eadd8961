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
	libcdc "github.com/nabbar/zstream/codec"
	libstr "github.com/nabbar/zstream/stream"
)

// Stable graph identifiers of the built-in terminal backends, registered by
// New in this order.
const (
	GraphStore   = GraphID(libcdc.IDStore)
	GraphZstd    = GraphID(libcdc.IDZstd)
	GraphLZ4     = GraphID(libcdc.IDLZ4)
	GraphLZMA    = GraphID(libcdc.IDLZMA)
	GraphBZ2     = GraphID(libcdc.IDBZ2)
	GraphHuffman = GraphID(libcdc.IDHuffman)
	GraphFSE     = GraphID(libcdc.IDFSE)
)

// FirstUserID is the first identifier assigned to user registrations; the
// range below is reserved for the built-in codec set.
const FirstUserID = 64

// Builder assembles one compressor instance: its node and graph registry,
// parameters, and starting graph. A Builder is mutable until Freeze; a
// frozen builder rejects every mutation, making it safe to share across
// compress contexts.
type Builder interface {

	// RegisterTypedEncoder registers a custom typed transform.
	RegisterTypedEncoder(desc libcdc.Descriptor) (NodeID, error)

	// RegisterPipeEncoder registers a custom variadic-input transform.
	RegisterPipeEncoder(desc libcdc.Descriptor) (NodeID, error)

	// RegisterSplitEncoder registers a custom split transform.
	RegisterSplitEncoder(desc libcdc.Descriptor) (NodeID, error)

	// RegisterStaticGraph registers a graph applying node with one
	// successor per output port. A terminal node takes no successors and
	// yields a terminal graph. An empty name derives one from the node.
	RegisterStaticGraph(name string, node NodeID, successors ...GraphID) (GraphID, error)

	// RegisterSelectorGraph registers a dynamic-dispatch graph picking one
	// candidate per input at compression time.
	RegisterSelectorGraph(name string, fn SelectorFn, candidates ...GraphID) (GraphID, error)

	// RegisterFunctionGraph registers a user-driven graph accepting the
	// mask.
	RegisterFunctionGraph(name string, mask libstr.Type, fn FunctionFn) (GraphID, error)

	// RegisterParameterizedGraph rebinds a base graph's successors and/or
	// local parameters under a new identifier. An empty name derives
	// "base#N".
	RegisterParameterizedGraph(name string, base GraphID, customGraphs []GraphID, localParams libcdc.Params) (GraphID, error)

	// CloneNode registers a new node sharing the base's code with new
	// local parameters, named "base#N".
	CloneNode(base NodeID, localParams libcdc.Params) (NodeID, error)

	// SetParameter sets one builder-level parameter; contexts may
	// override.
	SetParameter(p Parameter, v int64) error

	// GetParameter returns one builder-level parameter.
	GetParameter(p Parameter) (int64, bool)

	// SelectStartingGraph declares the graph compression starts from.
	SelectStartingGraph(g GraphID) error

	// StartingGraph returns the declared starting graph.
	StartingGraph() (GraphID, bool)

	// Validate walks the graph checking wiring arity, type compatibility
	// (allowing one zero-copy conversion per hop), and, when a format
	// version is set, node version floors.
	Validate(g GraphID) error

	// Node resolves a node id.
	Node(id NodeID) (*NodeDesc, bool)

	// NodeByName resolves a node by unique name.
	NodeByName(name string) (*NodeDesc, bool)

	// Graph resolves a graph id.
	Graph(id GraphID) (*GraphDesc, bool)

	// GraphByName resolves a graph by unique name.
	GraphByName(name string) (*GraphDesc, bool)

	// Graphs returns all graph ids in ascending order.
	Graphs() []GraphID

	// Nodes returns all node ids in ascending order.
	Nodes() []NodeID

	// Freeze makes the builder immutable. Idempotent.
	Freeze()

	// Frozen reports whether the builder is immutable.
	Frozen() bool
}

// New returns a Builder pre-loaded with the built-in codec set and one
// terminal graph per built-in backend (store, zstd, lz4, lzma, bz2,
// huffman, fse).
func New() Builder {
	b := &bld{
		nodes:       make(map[NodeID]*NodeDesc),
		graphs:      make(map[GraphID]*GraphDesc),
		nodeByName:  make(map[string]NodeID),
		graphByName: make(map[string]GraphID),
		params:      make(map[Parameter]int64),
		cloneSeq:    make(map[string]int),
		nextNode:    FirstUserID,
		nextGraph:   FirstUserID,
	}

	descs := libcdc.Builtin()
	for i := range descs {
		d := descs[i]
		b.addNode(&NodeDesc{
			ID:    NodeID(d.ID),
			Name:  d.Name,
			Codec: &d,
		})
		if d.Kind == libcdc.KindTerminal {
			b.addGraph(&GraphDesc{
				ID:        GraphID(d.ID),
				Name:      d.Name,
				Kind:      GraphTerminal,
				InputMask: d.InputMasks[0],
				Node:      NodeID(d.ID),
			})
		}
	}

	return b
}
