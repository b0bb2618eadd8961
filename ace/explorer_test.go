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

package ace_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libace "github.com/nabbar/zstream/ace"
	libstr "github.com/nabbar/zstream/stream"
)

// tripleDelta builds the length-1000 u64 sequence obtained by three
// successive prefix sums over an all-ones vector.
func tripleDelta() libstr.Stream {
	vals := make([]uint64, 1000)
	for i := range vals {
		vals[i] = 1
	}
	for pass := 0; pass < 3; pass++ {
		var acc uint64
		for i := range vals {
			acc += vals[i]
			vals[i] = acc
		}
	}

	s, err := libstr.New(libstr.Numeric, 8)
	Expect(err).ToNot(HaveOccurred())
	Expect(s.Reserve(len(vals))).ToNot(HaveOccurred())
	w, err := s.Writable()
	Expect(err).ToNot(HaveOccurred())
	for i, v := range vals {
		binary.LittleEndian.PutUint64(w[i*8:], v)
	}
	Expect(s.Commit(len(vals))).ToNot(HaveOccurred())
	return s
}

var _ = Describe("TC-AC-001: exploring a numeric corpus", func() {
	It("TC-AC-011: the search must converge on triple-delta data", func() {
		e, err := libace.NewExplorer([]libstr.Stream{tripleDelta()}, libace.ExplorerParameters{
			Parameters: libace.Parameters{
				PopulationSize: 50,
				MaxGenerations: 100,
				Seed:           42,
			},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(e.InputType()).To(Equal(libstr.Numeric))

		e.Run()

		sol := e.Solution()
		Expect(sol).ToNot(BeEmpty())

		// no candidate in the final front strictly dominates another
		for i := range sol {
			for j := range sol {
				Expect(libace.Dominates(sol[i].Fitness, sol[j].Fitness)).To(BeFalse())
			}
		}

		best := sol[0]
		res, err := e.Benchmark(best.Gene)
		Expect(err).ToNot(HaveOccurred())
		Expect(res.OriginalSize).To(Equal(8000))
		Expect(res.CompressedSize).To(BeNumerically("<=", 90))
	})

	It("TC-AC-012: snapshots must extend, never discard", func() {
		mk := func(seed uint64) *libace.Explorer {
			e, err := libace.NewExplorer([]libstr.Stream{tripleDelta()}, libace.ExplorerParameters{
				Parameters: libace.Parameters{
					PopulationSize: 10,
					MaxGenerations: 2,
					Seed:           seed,
				},
			})
			Expect(err).ToNot(HaveOccurred())
			return e
		}

		first := mk(1)
		first.Run()
		snap, err := first.SavePopulation()
		Expect(err).ToNot(HaveOccurred())

		second := mk(2)
		second.Run()
		before := len(second.Population())
		Expect(second.LoadPopulation(snap)).ToNot(HaveOccurred())
		Expect(len(second.Population())).To(BeNumerically(">=", before))
		Expect(second.Solution()).ToNot(BeEmpty())
	})
})
