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

// Package cluster groups a dynamic set of typed input streams by
// user-attached tag and by type into concatenated super-streams, each
// dispatched to a shared successor graph.
//
// A configuration declares, per cluster, the member tags, the expected type
// and element width, the concat codec, and the successor. Streams no
// cluster claims fall back to the per-type default successor. Validation
// enforces that two clusters sharing (type, width) never share a tag, and
// that each cluster's codec matches its type.
//
// The clustering graph is registered as a function graph: at compression
// time it claims edges by (tag, type, width), folds each group through the
// matching concat codec, and routes the super-stream; the concat codec
// records the member boundaries so decompression splits the super-stream
// back into the original inputs.
package cluster
