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
	"bytes"
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	libcpr "github.com/nabbar/zstream/compressor"
	libeng "github.com/nabbar/zstream/engine"
	liberr "github.com/nabbar/zstream/errors"
	liblog "github.com/nabbar/zstream/logger"
	libstr "github.com/nabbar/zstream/stream"
	libwir "github.com/nabbar/zstream/wire"
)

// Result is one benchmark outcome over the whole corpus.
type Result struct {
	OriginalSize   int
	CompressedSize int
	CompressTime   time.Duration
	DecompressTime time.Duration
}

// ExplorerParameters tune an exploration run.
type ExplorerParameters struct {
	Parameters

	// NumThreads bounds the benchmark pool; zero takes half the cores.
	NumThreads int

	// SimplicityPenalty scales each fitness axis by (1 + penalty *
	// nodeCount) to break ties toward simpler trees.
	SimplicityPenalty float64

	// Log receives per-generation progress; nil uses the package default.
	Log liblog.FuncLog
}

// Explorer searches for Pareto-optimal compressor trees over a corpus of
// same-typed inputs.
type Explorer struct {
	ga     *GeneticAlgorithm[*Compressor]
	cat    *Catalog
	inputs []libstr.Stream
	typ    libstr.Type
	p      ExplorerParameters
	log    liblog.FuncLog

	mu   sync.Mutex
	memo map[uint64]*memoEntry
	rng  *rand.Rand
}

type memoEntry struct {
	res  *Result
	fail bool
	obs  int
}

// NewExplorer builds an explorer; every input must share one stream type.
func NewExplorer(inputs []libstr.Stream, p ExplorerParameters) (*Explorer, error) {
	if len(inputs) == 0 {
		return nil, liberr.New(liberr.CodeInvalidRequest, "no inputs")
	}
	typ := inputs[0].Type()
	for i, in := range inputs {
		if in == nil || !in.Committed() {
			return nil, liberr.New(liberr.CodeInvalidRequest, "input %d is not a committed stream", i)
		}
		if in.Type() != typ {
			return nil, liberr.New(liberr.CodeInvalidRequest, "all inputs must share one type, input %d is %s", i, in.Type().String())
		}
	}

	if p.NumThreads <= 0 {
		p.NumThreads = runtime.NumCPU() / 2
		if p.NumThreads < 1 {
			p.NumThreads = 1
		}
	}
	if p.SimplicityPenalty <= 0 {
		p.SimplicityPenalty = 0.001
	}
	if p.Log == nil {
		p.Log = liblog.Default
	}

	e := &Explorer{
		cat:    NewCatalog(),
		inputs: inputs,
		typ:    typ,
		p:      p,
		log:    p.Log,
		memo:   make(map[uint64]*memoEntry),
		rng:    rand.New(rand.NewSource(int64(p.Seed) ^ 0x51ED270B)),
	}

	mut := newMutator(rand.New(rand.NewSource(int64(p.Seed)+1)), e.cat, typ)
	cross := newCrossover(rand.New(rand.NewSource(int64(p.Seed)+2)), e.cat, typ, mut)
	initRng := rand.New(rand.NewSource(int64(p.Seed) + 3))

	ga, err := NewGeneticAlgorithm[*Compressor](p.Parameters, Callbacks[*Compressor]{
		InitialPopulation: func() []*Compressor {
			pop := append([]*Compressor(nil), e.cat.Prebuilts(typ)...)
			for i := 0; i < p.Parameters.withDefaults().PopulationSize; i++ {
				pop = append(pop, e.cat.RandomCompressor(initRng, typ, defaultMaxDepth))
			}
			return pop
		},
		Crossover:      cross.cross,
		Mutate:         mut.mutate,
		ComputeFitness: e.computeFitness,
	})
	if err != nil {
		return nil, err
	}
	e.ga = ga
	return e, nil
}

// InputType returns the shared input type of the corpus.
func (e *Explorer) InputType() libstr.Type {
	return e.typ
}

// Population returns the current population.
func (e *Explorer) Population() []*Compressor {
	return e.ga.Population()
}

// Run drives the search to completion.
func (e *Explorer) Run() {
	for !e.ga.Finished() {
		e.ga.Step()
		e.log().WithField("generation", e.ga.Generation()).
			Debugf("explored generation, population %d, progress %.0f%%", len(e.ga.Population()), 100*e.ga.Progress())
	}
}

// Solution returns the Pareto front sorted by compressed size. If every
// candidate failed on the corpus, the trivial store compressor is returned
// instead of no solution.
func (e *Explorer) Solution() []Scored[*Compressor] {
	sol := e.ga.Solution()

	valid := sol[:0]
	for _, s := range sol {
		if !math.IsInf(s.Fitness[0], 1) {
			valid = append(valid, s)
		}
	}
	if len(valid) > 0 {
		return valid
	}

	store := e.cat.graphLeaf("store")
	res, err := e.benchmark(store)
	fitness := []float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	if err == nil {
		fitness = e.fitnessOf(store, res)
	}
	return []Scored[*Compressor]{{Gene: store, Fitness: fitness}}
}

// Benchmark measures one tree over the corpus.
func (e *Explorer) Benchmark(c *Compressor) (*Result, error) {
	return e.benchmark(c)
}

func (e *Explorer) fitnessOf(c *Compressor, res *Result) []float64 {
	scale := 1 + e.p.SimplicityPenalty*float64(c.NodeCount())
	return []float64{
		float64(res.CompressedSize) * scale,
		float64(res.CompressTime.Nanoseconds()) * scale,
		float64(res.DecompressTime.Nanoseconds()) * scale,
	}
}

// computeFitness benchmarks a batch on the bounded pool, memoising by
// structural hash. A candidate observed n times re-benchmarks with
// probability 1/n to average out measurement noise.
func (e *Explorer) computeFitness(genes []*Compressor) [][]float64 {
	type task struct {
		idx  int
		gene *Compressor
	}

	out := make([][]float64, len(genes))
	var tasks []task

	e.mu.Lock()
	for i, gene := range genes {
		m := e.memo[gene.Hash()]
		if m == nil {
			e.memo[gene.Hash()] = &memoEntry{}
			tasks = append(tasks, task{i, gene})
			continue
		}
		m.obs++
		if !m.fail && e.rng.Float64() < 1/float64(m.obs) {
			tasks = append(tasks, task{i, gene})
			continue
		}
		out[i] = e.memoFitness(gene, m)
	}
	e.mu.Unlock()

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(e.p.NumThreads)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			res, err := e.benchmark(t.gene)

			e.mu.Lock()
			m := e.memo[t.gene.Hash()]
			if err != nil {
				m.fail = true
				m.res = nil
			} else if m.res == nil {
				m.res = res
			} else {
				// keep the better of repeated observations
				if res.CompressTime < m.res.CompressTime {
					m.res.CompressTime = res.CompressTime
				}
				if res.DecompressTime < m.res.DecompressTime {
					m.res.DecompressTime = res.DecompressTime
				}
			}
			out[t.idx] = e.memoFitness(t.gene, m)
			e.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (e *Explorer) memoFitness(c *Compressor, m *memoEntry) []float64 {
	if m.fail || m.res == nil {
		return []float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	}
	return e.fitnessOf(c, m.res)
}

// benchmark builds the tree into a fresh compressor and round-trips the
// whole corpus once, timing both directions. Each call owns its contexts.
func (e *Explorer) benchmark(c *Compressor) (*Result, error) {
	b := libcpr.New()
	gid, err := c.Build(b)
	if err != nil {
		return nil, err
	}
	if err = b.SetParameter(libcpr.ParamFormatVersion, int64(libwir.MaxFormatVersion)); err != nil {
		return nil, err
	}
	if err = b.SelectStartingGraph(gid); err != nil {
		return nil, err
	}
	if err = b.Validate(gid); err != nil {
		return nil, err
	}

	cctx := libeng.NewCCtx()
	if err = cctx.RefCompressor(b); err != nil {
		return nil, err
	}

	res := &Result{}
	frames := make([][]byte, 0, len(e.inputs))

	t0 := time.Now()
	for _, in := range e.inputs {
		dst := make([]byte, libeng.CompressBound(in.ByteSize()+8*in.NumElts()))
		n, cerr := cctx.CompressTypedRef(dst, in)
		if cerr != nil {
			return nil, cerr
		}
		frames = append(frames, dst[:n])
		res.OriginalSize += in.ByteSize()
		res.CompressedSize += n
	}
	res.CompressTime = time.Since(t0)

	dctx := libeng.NewDCtx()
	t1 := time.Now()
	for i, frame := range frames {
		outs, derr := dctx.DecompressMulti(frame)
		if derr != nil {
			return nil, derr
		}
		if len(outs) != 1 || !bytes.Equal(outs[0].Content(), e.inputs[i].Content()) {
			return nil, liberr.New(liberr.CodeTransformExecution, "candidate does not round trip input %d", i)
		}
	}
	res.DecompressTime = time.Since(t1)

	return res, nil
}
