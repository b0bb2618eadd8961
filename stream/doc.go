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

// Package stream implements the typed stream, the central datum of the
// engine: every node consumes and produces typed streams.
//
// A stream carries a type from a closed set (serial, struct, numeric,
// string), an element width, an element count, the content buffer, the
// per-element length array for string streams, and a sparse integer metadata
// map used to route user tags (column identifiers) between components.
//
// Lifecycle: a freshly created owned stream is uncommitted. The producing
// node reserves capacity, writes content, then commits the stream with its
// final element count; only then may any consumer observe it, and no write
// is accepted afterwards. Borrowed streams created with RefConst or
// RefString never own their content, are committed immediately, and reject
// all writes; their lifetime must be a strict subset of the referred
// buffer's lifetime.
//
// Ownership is reference counted: Retain/Release let the scheduler and a
// codec share one stream during an invocation, and the content buffer of an
// owned stream drops on the last release.
package stream
