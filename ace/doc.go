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

// Package ace implements the automated compressor explorer: an NSGA-II
// style multi-objective genetic search over the space of compressor graphs
// for a given input corpus.
//
// A search individual is a tree whose internal nodes are parameterized
// transforms and whose leaves are terminal graph references, kept
// type-compatible end to end. Fitness is the vector (compressed size,
// compression time, decompression time), each component scaled by a small
// simplicity penalty proportional to the tree's node count so ties break
// toward simpler trees; smaller is better on every axis.
//
// Candidates are benchmarked once and memoised by structural hash; a
// candidate surfacing again is re-benchmarked with probability 1/n after n
// observations to average out measurement noise. Benchmarks run on a
// bounded worker pool, each task owning its own compress and decompress
// contexts.
//
// The population can be snapshotted to CBOR and merged into a later run's
// population; loading never discards the current population. If every
// candidate fails on the corpus the explorer falls back to the trivial
// store compressor rather than returning no solution.
package ace
