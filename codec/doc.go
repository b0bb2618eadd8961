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

// Package codec defines the transform contract of the engine — the node
// descriptor with its encode/decode pair, type masks, parameter defaults and
// format-version floor — and ships the built-in codec set.
//
// Two codec shapes exist. Transforms consume typed streams and produce typed
// streams, recording an opaque header into the trace for their inverse.
// Terminals consume the byte serialization of one stream and produce the
// compressed payload written to the chunk; their inverses receive the
// declared raw size carried by the encode side.
//
// The built-in set covers the terminal backends (store, zstd, lz4, lzma,
// bz2, huffman, fse), the structural transforms (delta, zigzag, bitpack,
// transpose, range-pack, divide-by, float32-deconstruct, tokenize), the
// zero-copy conversions inserted by the executor, and the concat/split
// codecs used by clustering.
package codec
