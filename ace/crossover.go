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

// crossover splices a random donor subtree into a random type-compatible
// site of the recipient, retrying a few times before falling back to a
// mutation of the recipient.
type crossover struct {
	rng       *rand.Rand
	cat       *Catalog
	inputType libstr.Type
	mut       *mutator
}

const crossoverAttempts = 5

func newCrossover(rng *rand.Rand, cat *Catalog, inputType libstr.Type, mut *mutator) *crossover {
	return &crossover{rng: rng, cat: cat, inputType: inputType, mut: mut}
}

func (x *crossover) cross(parent1, parent2 *Compressor) *Compressor {
	if x.rng.Intn(2) == 0 {
		parent1, parent2 = parent2, parent1
	}
	return x.splice(parent1, parent2)
}

func (x *crossover) splice(donor, recipient *Compressor) *Compressor {
	for attempt := 0; attempt < crossoverAttempts; attempt++ {
		component, ok := x.randomComponent(donor)
		if !ok {
			break
		}
		if child, ok2 := x.replaceRandomComponent(recipient, component); ok2 {
			return child
		}
	}
	return x.mut.mutate(recipient)
}

func (x *crossover) randomComponent(donor *Compressor) (*Compressor, bool) {
	sampler := newReservoir[*Compressor](x.rng)
	donor.ForEachComponent(x.inputType, func(c *Compressor, _ libstr.Type) {
		sampler.update(c)
	})
	return sampler.get()
}

func (x *crossover) replaceRandomComponent(recipient, donated *Compressor) (*Compressor, bool) {
	sampler := newReservoir[*Compressor](x.rng)
	recipient.ForEachComponent(x.inputType, func(c *Compressor, input libstr.Type) {
		if donated.AcceptsInputType(input) {
			sampler.update(c)
		}
	})
	target, ok := sampler.get()
	if !ok {
		return nil, false
	}

	child := recipient.Replace(x.inputType, func(c *Compressor, input libstr.Type, _ int) *Compressor {
		if c == target && donated.AcceptsInputType(input) {
			return donated
		}
		return nil
	})
	return child, child.Hash() != recipient.Hash()
}
