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

// Package engine drives compression and decompression over a compressor's
// graph registry.
//
// Compression walks the user graph single-threaded and cooperatively:
// invocations are resolved depth-first, leftmost input first, each node runs
// to completion, and every executed transform appends an entry to the
// chunk's trace. Terminal graphs serialize their stream through a terminal
// codec into the chunk payload. When a graph accepts a type the current
// stream does not carry, the engine inserts a zero-copy conversion node if
// one exists; otherwise the compress call fails with CodeGraphInvalid. Given
// identical inputs, parameters and graph, the produced frame is
// bit-identical.
//
// Decompression reads the trace back and replays the recorded inverses in
// reverse order, reconstructing the original typed outputs. The compressed
// checksum, when present, is verified before any decode work; declared
// totals are bounds-checked against the version's limits before any
// allocation.
//
// Selector callbacks run on the calling thread and may probe candidates
// through the selector context: a try runs inside a disposable child
// context whose side effects are discarded. Function-graph callbacks drive
// nodes imperatively through the edge API; every edge must be terminated
// exactly once.
package engine
