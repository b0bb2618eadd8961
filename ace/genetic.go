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
	"sort"
	"time"

	liberr "github.com/nabbar/zstream/errors"
)

// Gene is a hashable search individual.
type Gene interface {
	Hash() uint64
}

// TournamentParams tune the tournament selector.
type TournamentParams struct {
	// Size is the number of candidates per tournament.
	Size int
	// WinProbability is the chance the best candidate wins outright.
	WinProbability float64
	// Seed drives the selector's private randomness.
	Seed uint64
}

// Tournament selects parents by (Pareto rank, crowding distance) ordering.
type Tournament struct {
	p   TournamentParams
	rng *rand.Rand
}

// NewTournament builds a selector; zero fields take the defaults (size 3,
// win probability 0.9).
func NewTournament(p TournamentParams) *Tournament {
	if p.Size < 1 {
		p.Size = 3
	}
	if p.WinProbability <= 0 {
		p.WinProbability = 0.9
	}
	return &Tournament{p: p, rng: rand.New(rand.NewSource(int64(p.Seed)))}
}

// Select returns the index of the parent to reproduce from.
func (t *Tournament) Select(rank []int, crowding []float64) int {
	candidates := t.candidates(len(rank))
	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if rank[ca] != rank[cb] {
			return rank[ca] < rank[cb]
		}
		return crowding[ca] > crowding[cb]
	})

	idx := 0
	for idx < len(candidates)-1 && t.rng.Float64() >= t.p.WinProbability {
		idx++
	}
	return candidates[idx]
}

func (t *Tournament) candidates(populationSize int) []int {
	n := t.p.Size
	if n > populationSize {
		n = populationSize
	}
	seen := make(map[int]bool, n)
	out := make([]int, 0, n)
	for len(out) < n {
		c := t.rng.Intn(populationSize)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Ints(out)
	return out
}

// Parameters tune a genetic run.
type Parameters struct {
	// PopulationSize is the number of genes carried into each generation.
	PopulationSize int
	// MaxGenerations bounds the run; at least one generation always runs.
	MaxGenerations int
	// MaxTime is the optional wall-clock budget, checked between
	// generations.
	MaxTime time.Duration
	// MutationProbability is the chance a crossover child also mutates.
	MutationProbability float64
	// Seed drives the run's randomness.
	Seed uint64
	// Selector tunes tournament selection.
	Selector TournamentParams
}

func (p Parameters) withDefaults() Parameters {
	if p.PopulationSize <= 0 {
		p.PopulationSize = 100
	}
	if p.MaxGenerations <= 0 {
		p.MaxGenerations = 250
	}
	if p.MutationProbability <= 0 {
		p.MutationProbability = 0.2
	}
	return p
}

// Callbacks supply the problem-specific operators of a genetic run.
type Callbacks[G Gene] struct {
	InitialPopulation func() []G
	Crossover         func(a, b G) G
	Mutate            func(g G) G
	// ComputeFitness scores a batch; smaller is better on every axis.
	ComputeFitness func(genes []G) [][]float64
}

// Scored pairs a gene with its fitness.
type Scored[G Gene] struct {
	Gene    G
	Fitness []float64
}

// GeneticAlgorithm runs an NSGA-II style multi-objective search.
type GeneticAlgorithm[G Gene] struct {
	p  Parameters
	cb Callbacks[G]

	rng      *rand.Rand
	selector *Tournament

	generation int
	deadline   time.Time

	population []G
	known      map[uint64]bool
	fitness    [][]float64
	rank       []int
	crowding   []float64
}

// NewGeneticAlgorithm builds a run from parameters and operators.
func NewGeneticAlgorithm[G Gene](p Parameters, cb Callbacks[G]) (*GeneticAlgorithm[G], error) {
	if cb.InitialPopulation == nil || cb.Crossover == nil || cb.Mutate == nil || cb.ComputeFitness == nil {
		return nil, liberr.New(liberr.CodeInvalidRequest, "genetic algorithm needs all four operators")
	}

	p = p.withDefaults()
	g := &GeneticAlgorithm[G]{
		p:     p,
		cb:    cb,
		rng:   rand.New(rand.NewSource(int64(p.Seed))),
		known: make(map[uint64]bool),
	}

	sp := p.Selector
	if sp.Seed == 0 {
		// keep the selector's stream distinct from the run's
		sp.Seed = p.Seed ^ g.rng.Uint64()
	}
	g.selector = NewTournament(sp)

	if p.MaxTime > 0 {
		g.deadline = time.Now().Add(p.MaxTime)
	}
	return g, nil
}

// Generation returns the completed generation count.
func (g *GeneticAlgorithm[G]) Generation() int {
	return g.generation
}

// Population returns the current population.
func (g *GeneticAlgorithm[G]) Population() []G {
	return g.population
}

// Fitness returns the fitness vectors parallel to Population.
func (g *GeneticAlgorithm[G]) Fitness() [][]float64 {
	return g.fitness
}

// Finished reports whether the run is over; at least one generation always
// runs, and the deadline is only consulted between generations.
func (g *GeneticAlgorithm[G]) Finished() bool {
	if g.generation >= g.p.MaxGenerations {
		return true
	}
	if g.generation == 0 {
		return false
	}
	return !g.deadline.IsZero() && time.Now().After(g.deadline)
}

// Progress reports the run's completion in [0, 1], whichever of the
// generation count and the deadline is further along.
func (g *GeneticAlgorithm[G]) Progress() float64 {
	p := float64(g.generation) / float64(g.p.MaxGenerations)
	if !g.deadline.IsZero() {
		total := g.p.MaxTime.Seconds()
		left := time.Until(g.deadline).Seconds()
		if tp := 1 - left/total; tp > p {
			p = tp
		}
	}
	if p > 1 {
		p = 1
	}
	return p
}

// Run steps until finished.
func (g *GeneticAlgorithm[G]) Run() {
	for !g.Finished() {
		g.Step()
	}
}

// Step runs one generation: reproduce, score, keep the best fronts.
func (g *GeneticAlgorithm[G]) Step() {
	if g.generation == 0 {
		g.ExtendPopulation(g.cb.InitialPopulation())
	}

	g.ExtendPopulation(g.reproduceMany(g.p.PopulationSize))

	fronts, _ := FastNonDominatedSort(g.fitness)

	subset := make([]int, 0, g.p.PopulationSize)
	cut := 0
	for cut = 0; cut < len(fronts); cut++ {
		if len(subset)+len(fronts[cut]) > g.p.PopulationSize {
			break
		}
		subset = append(subset, fronts[cut]...)
	}
	if needed := g.p.PopulationSize - len(subset); needed > 0 && cut < len(fronts) {
		rest := append([]int(nil), fronts[cut]...)
		sort.SliceStable(rest, func(a, b int) bool {
			return g.crowding[rest[a]] > g.crowding[rest[b]]
		})
		subset = append(subset, rest[:needed]...)
	}

	g.subsetPopulation(subset)
	g.generation++
}

// Solution returns the Pareto-optimal genes sorted by fitness.
func (g *GeneticAlgorithm[G]) Solution() []Scored[G] {
	var out []Scored[G]
	for i := range g.population {
		if g.rank[i] == 0 {
			out = append(out, Scored[G]{Gene: g.population[i], Fitness: g.fitness[i]})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		fa, fb := out[a].Fitness, out[b].Fitness
		for i := range fa {
			if fa[i] != fb[i] {
				return fa[i] < fb[i]
			}
		}
		return false
	})
	return out
}

// ExtendPopulation adds unseen genes, scores them, and refreshes ranks and
// crowding. Loading a snapshot extends, never discards.
func (g *GeneticAlgorithm[G]) ExtendPopulation(genes []G) {
	var fresh []G
	for _, gene := range genes {
		if h := gene.Hash(); !g.known[h] {
			g.known[h] = true
			fresh = append(fresh, gene)
		}
	}
	if len(fresh) == 0 && g.generation > 0 {
		g.updateRanks()
		return
	}

	g.population = append(g.population, fresh...)
	g.fitness = append(g.fitness, g.cb.ComputeFitness(fresh)...)
	g.updateRanks()
}

func (g *GeneticAlgorithm[G]) subsetPopulation(subset []int) {
	population := make([]G, 0, len(subset))
	fitness := make([][]float64, 0, len(subset))
	known := make(map[uint64]bool, len(subset))
	for _, idx := range subset {
		population = append(population, g.population[idx])
		fitness = append(fitness, g.fitness[idx])
		known[g.population[idx].Hash()] = true
	}
	g.population = population
	g.fitness = fitness
	g.known = known
	g.updateRanks()
}

func (g *GeneticAlgorithm[G]) updateRanks() {
	fronts, rank := FastNonDominatedSort(g.fitness)
	g.rank = rank
	g.crowding = make([]float64, len(g.population))
	for _, front := range fronts {
		dist := CrowdingDistance(g.fitness, front)
		for i, idx := range front {
			g.crowding[idx] = dist[i]
		}
	}
}

func (g *GeneticAlgorithm[G]) selectParent() G {
	return g.population[g.selector.Select(g.rank, g.crowding)]
}

func (g *GeneticAlgorithm[G]) reproduce() G {
	child := g.cb.Crossover(g.selectParent(), g.selectParent())
	if g.rng.Float64() < g.p.MutationProbability {
		child = g.cb.Mutate(child)
	}
	return child
}

// reproduceMany produces up to n children unseen in the population, bounded
// by 2n attempts.
func (g *GeneticAlgorithm[G]) reproduceMany(n int) []G {
	var children []G
	seen := make(map[uint64]bool)
	for attempts := 2 * n; len(children) < n && attempts > 0; attempts-- {
		child := g.reproduce()
		h := child.Hash()
		if g.known[h] || seen[h] {
			continue
		}
		seen[h] = true
		children = append(children, child)
	}
	return children
}
