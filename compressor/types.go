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
	"time"

	libcdc "github.com/nabbar/zstream/codec"
	libstr "github.com/nabbar/zstream/stream"
)

// NodeID addresses a registered node.
type NodeID uint32

// GraphID addresses a registered graph.
type GraphID uint32

// GraphKind classifies a graph descriptor.
type GraphKind uint8

const (
	// GraphStatic applies one node and wires each output port to a fixed
	// successor graph.
	GraphStatic GraphKind = iota
	// GraphTerminal serializes its input through a terminal codec into the
	// chunk payload.
	GraphTerminal
	// GraphSelector asks a user callback to pick one candidate successor
	// per input at compression time.
	GraphSelector
	// GraphFunction hands full control to a user callback driving nodes
	// and routing through an edge API.
	GraphFunction
)

func (k GraphKind) String() string {
	switch k {
	case GraphStatic:
		return "static"
	case GraphTerminal:
		return "terminal"
	case GraphSelector:
		return "selector"
	case GraphFunction:
		return "function"
	}
	return "parameterized"
}

// NodeDesc is one registered node: shared codec code plus instance naming
// and local parameters.
type NodeDesc struct {
	ID          NodeID
	Name        string
	Codec       *libcdc.Descriptor
	LocalParams libcdc.Params
	Base        NodeID
}

// EffectiveParams returns the codec defaults overlaid with the node's local
// parameters.
func (n *NodeDesc) EffectiveParams() libcdc.Params {
	return n.Codec.Defaults.Merge(n.LocalParams)
}

// MinVersion returns the node's format-version floor.
func (n *NodeDesc) MinVersion() uint32 {
	return n.Codec.MinVersion
}

// GraphDesc is one registered graph.
type GraphDesc struct {
	ID   GraphID
	Name string
	Kind GraphKind

	// InputMask is the set of stream types the graph accepts.
	InputMask libstr.Type

	// Node is the applied node for static and terminal graphs.
	Node NodeID

	// Successors wires each output port of a static graph.
	Successors []GraphID

	// Candidates are the successor graphs a selector picks from.
	Candidates []GraphID

	Selector SelectorFn
	Function FunctionFn

	// LocalParams overlay the node's parameters for this graph.
	LocalParams libcdc.Params

	// Base is the origin of a parameterized graph, zero otherwise.
	Base GraphID
}

// TryResult reports one selector trial run: the produced compressed size
// and the measured cost estimates.
type TryResult struct {
	CompressedSize int
	CompressTime   time.Duration
	DecompressTime time.Duration
}

// SelectorContext is handed to selector callbacks. TryGraph runs one
// candidate on the input inside a disposable child context; its side effects
// are discarded when the try returns.
type SelectorContext interface {
	// TryGraph compresses in through candidate g and reports size and
	// cost. The parent context is left untouched.
	TryGraph(g GraphID, in libstr.Stream) (TryResult, error)

	// GraphInputMask exposes a candidate's accepted input types.
	GraphInputMask(g GraphID) (libstr.Type, bool)
}

// SelectorFn picks exactly one candidate successor for the input. It is
// called at most once per decision point.
type SelectorFn func(sctx SelectorContext, in libstr.Stream, candidates []GraphID) (GraphID, error)

// Edge is one routable stream inside a function graph. Every edge must be
// terminated exactly once: either consumed by running a node (which yields
// the node's output edges) or routed to a destination graph.
type Edge interface {
	// Stream returns a read-only view of the edge's stream.
	Stream() libstr.Stream

	// RunNode consumes the edge through the node and returns the output
	// edges.
	RunNode(n NodeID) ([]Edge, error)

	// RunSplitNode consumes the edge through a split node with
	// caller-supplied segment sizes.
	RunSplitNode(n NodeID, segmentSizes []int) ([]Edge, error)

	// SetDestination terminates the edge, routing it to the graph.
	SetDestination(g GraphID) error
}

// FunctionContext is handed to function-graph callbacks for operations
// spanning several edges.
type FunctionContext interface {
	// RunMultiNode consumes several edges through one variadic node
	// invocation and returns the output edges.
	RunMultiNode(n NodeID, edges []Edge) ([]Edge, error)
}

// FunctionFn drives a sub-pipeline imperatively. After it returns, every
// edge it was given (and every edge it created) must be terminated exactly
// once.
type FunctionFn func(fctx FunctionContext, edges []Edge) error
