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

// Package arena provides the scoped bump allocator backing per-operation
// scratch data. Everything allocated from an arena lives until Reset; nothing
// allocated from it may outlive the owning compression or decompression
// context.
package arena

// Arena is a scoped bump allocator. Not safe for concurrent use: each
// compress or decompress context owns exactly one.
type Arena interface {
	// Alloc returns a zeroed slice of n bytes valid until Reset.
	Alloc(n int) []byte

	// Size returns the total number of bytes handed out since the last
	// Reset.
	Size() int

	// Reset releases every allocation at once. Previously returned slices
	// must not be used afterwards.
	Reset()
}

// New returns an arena pre-sizing its first block to the given hint. A hint
// of zero selects the default block size.
func New(capacityHint int) Arena {
	if capacityHint <= 0 {
		capacityHint = defaultBlockSize
	}
	return &arn{
		blockSize: capacityHint,
	}
}
