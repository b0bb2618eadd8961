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
	"math/rand"

	libcdc "github.com/nabbar/zstream/codec"
	libcpr "github.com/nabbar/zstream/compressor"
	libstr "github.com/nabbar/zstream/stream"
)

const defaultMaxDepth = 5

// Catalog enumerates the components the search composes: the transform
// nodes with their parameter variants, the terminal graphs, and the
// hand-curated prebuilt trees seeding the initial population.
type Catalog struct {
	nodes     []Node
	graphs    []GraphRef
	prebuilts map[libstr.Type][]*Compressor
}

// NewCatalog builds the catalog over the built-in codec set.
func NewCatalog() *Catalog {
	b := libcpr.New()

	c := &Catalog{
		prebuilts: make(map[libstr.Type][]*Compressor),
	}

	nodeOf := func(name string, params libcdc.Params) Node {
		n, ok := b.NodeByName(name)
		if !ok {
			panic("unknown built-in node " + name)
		}
		in := n.Codec.VariadicInput
		if in == 0 {
			in = n.Codec.InputMasks[0]
		}
		return Node{
			Name:        name,
			Params:      params,
			InputType:   in,
			OutputTypes: append([]libstr.Type(nil), n.Codec.OutputTypes...),
		}
	}

	c.nodes = []Node{
		nodeOf("delta", nil),
		nodeOf("zigzag", nil),
		nodeOf("bitpack", nil),
		nodeOf("transpose", nil),
		nodeOf("range-pack", nil),
		nodeOf("divide-by", nil),
		nodeOf("float32-deconstruct", nil),
		nodeOf("tokenize-numeric", nil),
		nodeOf("tokenize-numeric", libcdc.Params{libcdc.ParamSorted: 1}),
		nodeOf("tokenize-string", nil),
		nodeOf("tokenize-string", libcdc.Params{libcdc.ParamSorted: 1}),
		nodeOf("conv-numeric-serial", nil),
		nodeOf("conv-struct-serial", nil),
	}

	for _, name := range []string{"store", "zstd", "lz4", "lzma", "bz2", "huffman", "fse"} {
		g, ok := b.GraphByName(name)
		if !ok {
			panic("unknown built-in graph " + name)
		}
		c.graphs = append(c.graphs, GraphRef{Name: name, InputMask: g.InputMask})
	}
	c.buildPrebuilts()
	return c
}

func (c *Catalog) graphLeaf(name string) *Compressor {
	for _, g := range c.graphs {
		if g.Name == name {
			return NewGraphCompressor(g)
		}
	}
	panic("unknown graph leaf " + name)
}

func (c *Catalog) mustNode(name string, params libcdc.Params) Node {
	for _, n := range c.nodes {
		if n.Name != name {
			continue
		}
		if len(params) == 0 && len(n.Params) == 0 {
			return n
		}
		if len(params) == len(n.Params) {
			same := true
			for k, v := range params {
				if nv, ok := n.Params[k]; !ok || nv != v {
					same = false
					break
				}
			}
			if same {
				return n
			}
		}
	}
	panic("unknown catalog node " + name)
}

// pipe builds a unary pipeline of the named nodes ending in the named
// terminal graph.
func (c *Catalog) pipe(terminal string, names ...string) *Compressor {
	out := c.graphLeaf(terminal)
	for i := len(names) - 1; i >= 0; i-- {
		n := c.mustNode(names[i], nil)
		next, err := NewNodeCompressor(n, successorsFor(n, out, c))
		if err != nil {
			panic(err)
		}
		out = next
	}
	return out
}

// successorsFor routes every output port of n: the first port to the
// pipeline tail, further ports to a generic backend accepting their type.
func successorsFor(n Node, tail *Compressor, c *Catalog) []*Compressor {
	succ := make([]*Compressor, len(n.OutputTypes))
	for i := range n.OutputTypes {
		if i == 0 && tail.AcceptsInputType(n.OutputTypes[i]) {
			succ[i] = tail
			continue
		}
		succ[i] = c.graphLeaf("zstd")
	}
	return succ
}

func (c *Catalog) buildPrebuilts() {
	backends := []string{"store", "zstd", "huffman", "fse", "lz4"}

	for _, t := range libstr.List() {
		for _, g := range backends {
			c.prebuilts[t] = append(c.prebuilts[t], c.graphLeaf(g))
		}
	}

	numeric := []*Compressor{
		c.pipe("zstd", "delta"),
		c.pipe("zstd", "delta", "delta"),
		c.pipe("zstd", "delta", "delta", "delta"),
		c.pipe("zstd", "delta", "bitpack"),
		c.pipe("fse", "delta", "zigzag"),
		c.pipe("zstd", "zigzag"),
		c.pipe("zstd", "transpose"),
		c.pipe("zstd", "range-pack"),
		c.pipe("zstd", "divide-by", "delta"),
		c.pipe("huffman", "delta", "bitpack"),
		c.pipe("zstd", "tokenize-numeric"),
	}
	c.prebuilts[libstr.Numeric] = append(c.prebuilts[libstr.Numeric], numeric...)

	c.prebuilts[libstr.String] = append(c.prebuilts[libstr.String],
		c.pipe("zstd", "tokenize-string"),
	)

	c.prebuilts[libstr.Struct] = append(c.prebuilts[libstr.Struct],
		c.pipe("zstd", "transpose"),
		c.pipe("zstd", "conv-struct-serial"),
	)
}

// Prebuilts returns the curated trees accepting the type.
func (c *Catalog) Prebuilts(t libstr.Type) []*Compressor {
	return c.prebuilts[t]
}

// NodesCompatibleWith returns the catalog nodes accepting the type.
func (c *Catalog) NodesCompatibleWith(t libstr.Type) []Node {
	var out []Node
	for _, n := range c.nodes {
		if n.InputType.Has(t) {
			out = append(out, n)
		}
	}
	return out
}

// GraphsCompatibleWith returns the terminal leaves accepting the type.
func (c *Catalog) GraphsCompatibleWith(t libstr.Type) []GraphRef {
	var out []GraphRef
	for _, g := range c.graphs {
		if g.InputMask.Has(t) {
			out = append(out, g)
		}
	}
	return out
}

// RandomGraphCompressor picks a random terminal leaf for the type.
func (c *Catalog) RandomGraphCompressor(rng *rand.Rand, t libstr.Type) *Compressor {
	graphs := c.GraphsCompatibleWith(t)
	if len(graphs) == 0 {
		return c.graphLeaf("store")
	}
	return NewGraphCompressor(randomChoice(rng, graphs))
}

// RandomCompressor grows a random type-compatible tree of bounded depth.
func (c *Catalog) RandomCompressor(rng *rand.Rand, t libstr.Type, maxDepth int) *Compressor {
	if maxDepth <= 0 || rng.Intn(2) == 0 {
		return c.RandomGraphCompressor(rng, t)
	}

	nodes := c.NodesCompatibleWith(t)
	if len(nodes) == 0 {
		return c.RandomGraphCompressor(rng, t)
	}
	n := randomChoice(rng, nodes)

	succ := make([]*Compressor, len(n.OutputTypes))
	for i, ot := range n.OutputTypes {
		succ[i] = c.RandomCompressor(rng, ot, maxDepth-1)
	}
	out, err := NewNodeCompressor(n, succ)
	if err != nil {
		return c.RandomGraphCompressor(rng, t)
	}
	return out
}
