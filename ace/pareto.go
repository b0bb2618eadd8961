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
	"math"
	"sort"
)

// Dominates reports whether lhs dominates rhs: no worse on every objective
// and strictly better on at least one. Smaller values are better.
func Dominates(lhs, rhs []float64) bool {
	strict := false
	for i := range lhs {
		if rhs[i] < lhs[i] {
			return false
		}
		if lhs[i] < rhs[i] {
			strict = true
		}
	}
	return strict
}

// FastNonDominatedSort computes the Pareto fronts of the fitness set per
// the NSGA-II paper. fronts[0] holds the Pareto-optimal points; rank maps
// each point back to its front.
func FastNonDominatedSort(fitness [][]float64) (fronts [][]int, rank []int) {
	n := len(fitness)
	dominated := make([][]int, n)
	numDominatedBy := make([]int, n)
	rank = make([]int, n)
	fronts = [][]int{nil}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if Dominates(fitness[i], fitness[j]) {
				dominated[i] = append(dominated[i], j)
			} else if Dominates(fitness[j], fitness[i]) {
				numDominatedBy[i]++
			}
		}
		if numDominatedBy[i] == 0 {
			rank[i] = 0
			fronts[0] = append(fronts[0], i)
		}
	}

	for {
		var next []int
		for _, i := range fronts[len(fronts)-1] {
			for _, j := range dominated[i] {
				numDominatedBy[j]--
				if numDominatedBy[j] == 0 {
					rank[j] = len(fronts)
					next = append(next, j)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		fronts = append(fronts, next)
	}

	return fronts, rank
}

// CrowdingDistance measures how unique each point of the subset is within
// its front; boundary points get infinite distance.
func CrowdingDistance(fitness [][]float64, subset []int) []float64 {
	if len(subset) == 0 {
		return nil
	}

	dist := make([]float64, len(subset))
	indices := make([]int, len(subset))
	for i := range indices {
		indices[i] = i
	}

	numDims := len(fitness[subset[0]])
	for dim := 0; dim < numDims; dim++ {
		metric := func(idx int) float64 {
			return fitness[subset[idx]][dim]
		}

		sort.SliceStable(indices, func(a, b int) bool {
			return metric(indices[a]) < metric(indices[b])
		})
		dist[indices[0]] = math.Inf(1)
		dist[indices[len(indices)-1]] = math.Inf(1)

		metricRange := metric(indices[len(indices)-1]) - metric(indices[0])
		if metricRange <= 0 || math.IsInf(metricRange, 1) || math.IsNaN(metricRange) {
			continue
		}
		for i := 1; i < len(indices)-1; i++ {
			prev := metric(indices[i-1])
			next := metric(indices[i+1])
			dist[indices[i]] += (next - prev) / metricRange
		}
	}
	return dist
}
