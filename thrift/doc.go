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

// Package thrift implements typed serialize/deserialize kernels for a fixed
// menu of Thrift-compact container shapes, used as leaf codecs for
// Thrift-heavy formats.
//
// Each deserialize kernel extracts parallel keys/lengths/values streams
// from canonical compact bytes; the paired serialize kernel reconstructs
// byte-for-byte identical output. Non-canonical encodings (zero-padded
// varints, long-form list headers for sizes below 15, wrong element types)
// fail the deserialize rather than being accepted, which is what guarantees
// the byte-exact round trip.
//
// Container sizes must be known up front — the caller has parsed the header
// via MapSize or ArraySize — and are bounded by the remaining source size,
// since every element costs at least one byte. Inner containers of dynamic
// cardinality write through the chunked DynamicOutput32/64 contract:
// Next(i, total) commits the previous slice whole and returns a fresh one,
// Finish commits the used prefix of the last slice. SliceOutput grows one
// contiguous slice; ChunkedOutput keeps the chunks, avoiding copies until
// CopyTo.
package thrift
