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
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libace "github.com/nabbar/zstream/ace"
)

var _ = Describe("TC-GA-001: pareto primitives", func() {
	It("TC-GA-011: dominance must require strict improvement somewhere", func() {
		Expect(libace.Dominates([]float64{1, 1}, []float64{2, 2})).To(BeTrue())
		Expect(libace.Dominates([]float64{1, 2}, []float64{2, 1})).To(BeFalse())
		Expect(libace.Dominates([]float64{1, 1}, []float64{1, 1})).To(BeFalse())
		Expect(libace.Dominates([]float64{1, 2}, []float64{1, 3})).To(BeTrue())
	})

	It("TC-GA-012: non-dominated sort must layer the fronts", func() {
		fitness := [][]float64{
			{1, 5}, // front 0
			{5, 1}, // front 0
			{3, 3}, // front 0
			{4, 4}, // dominated by {3,3}
			{6, 6}, // dominated by everything above
		}
		fronts, rank := libace.FastNonDominatedSort(fitness)
		Expect(fronts[0]).To(ConsistOf(0, 1, 2))
		Expect(rank[3]).To(Equal(1))
		Expect(rank[4]).To(Equal(2))
	})

	It("TC-GA-013: crowding must favor boundary points", func() {
		fitness := [][]float64{{1, 9}, {2, 5}, {9, 1}}
		dist := libace.CrowdingDistance(fitness, []int{0, 1, 2})
		Expect(math.IsInf(dist[0], 1)).To(BeTrue())
		Expect(math.IsInf(dist[2], 1)).To(BeTrue())
		Expect(math.IsInf(dist[1], 1)).To(BeFalse())
	})
})

// intGene is a toy gene minimizing two opposed objectives.
type intGene int

func (g intGene) Hash() uint64 {
	return uint64(g) * 0x9E3779B97F4A7C15
}

var _ = Describe("TC-GA-100: genetic run on a toy problem", func() {
	It("TC-GA-101: the final population must hold no dominated pair and converge", func() {
		rng := rand.New(rand.NewSource(11))

		fit := func(g intGene) []float64 {
			x := float64(g)
			return []float64{math.Abs(x - 100), math.Abs(x - 200)}
		}

		ga, err := libace.NewGeneticAlgorithm[intGene](libace.Parameters{
			PopulationSize: 40,
			MaxGenerations: 60,
			Seed:           7,
		}, libace.Callbacks[intGene]{
			InitialPopulation: func() []intGene {
				pop := make([]intGene, 40)
				for i := range pop {
					pop[i] = intGene(rng.Intn(2000) - 1000)
				}
				return pop
			},
			Crossover: func(a, b intGene) intGene {
				return (a + b) / 2
			},
			Mutate: func(g intGene) intGene {
				return g + intGene(rng.Intn(21)-10)
			},
			ComputeFitness: func(genes []intGene) [][]float64 {
				out := make([][]float64, len(genes))
				for i, g := range genes {
					out[i] = fit(g)
				}
				return out
			},
		})
		Expect(err).ToNot(HaveOccurred())

		ga.Run()
		Expect(ga.Generation()).To(Equal(60))

		sol := ga.Solution()
		Expect(sol).ToNot(BeEmpty())

		// no candidate in the final front strictly dominates another
		for i := range sol {
			for j := range sol {
				Expect(libace.Dominates(sol[i].Fitness, sol[j].Fitness)).To(BeFalse())
			}
		}

		// the front should live inside the optimal band [100, 200]
		best := sol[0]
		Expect(float64(best.Gene)).To(BeNumerically(">=", 50))
		Expect(float64(best.Gene)).To(BeNumerically("<=", 250))
	})
})
