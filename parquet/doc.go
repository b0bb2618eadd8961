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

// Package parquet lexes an uncompressed Parquet file into a stream of typed
// tokens aligned to column pages, driving the columnar split whose outputs
// the graph engine then compresses.
//
// The lexer reads the whole file from memory: leading magic, trailing magic
// and metadata length, then the Thrift-compact file metadata (schema tree,
// row groups, column chunks). Tokens are emitted on demand: the header
// magic, then per column chunk one or more page headers each followed by
// one data page, and finally a single footer token covering everything from
// the last page to end of file. A data page carries a tag derived by
// hashing its schema path, so pages of one column share a tag across row
// groups, plus the engine stream type and element width mapped from the
// Parquet column type.
//
// Compressed column chunks, non-PLAIN data pages, non-RLE level encodings
// and any structural violation fail the whole lex with
// CodeNodeInvalidInput; the byte concatenation of the emitted tokens always
// equals the original file.
package parquet
