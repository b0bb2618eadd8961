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

	libstr "github.com/nabbar/zstream/stream"
)

// mutator applies one of four equally likely edits at a random
// type-compatible site: swap in a prebuilt, swap in a fresh random tree,
// delete a unary-prefix pipeline, or prepend a random unary node.
type mutator struct {
	rng       *rand.Rand
	cat       *Catalog
	inputType libstr.Type
	maxDepth  int
}

func newMutator(rng *rand.Rand, cat *Catalog, inputType libstr.Type) *mutator {
	return &mutator{rng: rng, cat: cat, inputType: inputType, maxDepth: defaultMaxDepth}
}

func (m *mutator) mutate(parent *Compressor) *Compressor {
	sampler := newReservoir[*Compressor](m.rng)
	parent.ForEachComponent(m.inputType, func(c *Compressor, _ libstr.Type) {
		sampler.update(c)
	})
	target, ok := sampler.get()
	if !ok {
		return parent
	}

	return parent.Replace(m.inputType, func(c *Compressor, input libstr.Type, depth int) *Compressor {
		if c != target {
			return nil
		}
		return m.replace(c, input, depth)
	})
}

func (m *mutator) replace(c *Compressor, input libstr.Type, depth int) *Compressor {
	switch m.rng.Intn(4) {
	case 0:
		return m.randomSimple(input)
	case 1:
		return m.randomTree(input, depth)
	case 2:
		return m.deletePipelinePrefix(c, input, depth)
	default:
		return m.prependPipeline(c, input, depth)
	}
}

func (m *mutator) randomSimple(input libstr.Type) *Compressor {
	pre := m.cat.Prebuilts(input)
	if len(pre) == 0 {
		return m.cat.RandomGraphCompressor(m.rng, input)
	}
	return randomChoice(m.rng, pre)
}

func (m *mutator) randomTree(input libstr.Type, depth int) *Compressor {
	if depth > m.maxDepth {
		return m.cat.RandomGraphCompressor(m.rng, input)
	}
	return m.cat.RandomCompressor(m.rng, input, m.maxDepth-depth)
}

// deletePipelinePrefix drops a random unary prefix of the tree, keeping a
// suffix that still accepts the input type.
func (m *mutator) deletePipelinePrefix(c *Compressor, input libstr.Type, depth int) *Compressor {
	sampler := newReservoir[*Compressor](m.rng)
	pipeline := c
	for pipeline.IsNode() {
		if len(pipeline.Successors()) != 1 {
			break
		}
		if pipeline.Successors()[0].AcceptsInputType(input) {
			sampler.update(pipeline)
		}
		pipeline = pipeline.Successors()[0]
	}

	chosen, ok := sampler.get()
	if !ok {
		return m.randomTree(input, depth)
	}
	return chosen.Successors()[0]
}

// prependPipeline inserts a random unary node whose output the current tree
// accepts.
func (m *mutator) prependPipeline(c *Compressor, input libstr.Type, depth int) *Compressor {
	if depth >= m.maxDepth {
		return m.randomSimple(input)
	}

	sampler := newReservoir[Node](m.rng)
	for _, n := range m.cat.NodesCompatibleWith(input) {
		if len(n.OutputTypes) == 1 && c.AcceptsInputType(n.OutputTypes[0]) {
			sampler.update(n)
		}
	}
	n, ok := sampler.get()
	if !ok {
		return m.randomSimple(input)
	}

	out, err := NewNodeCompressor(n, []*Compressor{c})
	if err != nil {
		return m.randomSimple(input)
	}
	return out
}
