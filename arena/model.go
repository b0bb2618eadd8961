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

package arena

const (
	defaultBlockSize = 64 * 1024
	alignment        = 8
)

type arn struct {
	blocks    [][]byte
	off       int
	used      int
	blockSize int
}

func (a *arn) Alloc(n int) []byte {
	if n < 0 {
		return nil
	}

	// 8-byte alignment so numeric views over scratch stay aligned
	pad := (alignment - a.off%alignment) % alignment

	if len(a.blocks) == 0 || a.off+pad+n > len(a.blocks[len(a.blocks)-1]) {
		a.grow(n)
		pad = 0
	}

	blk := a.blocks[len(a.blocks)-1]
	p := blk[a.off+pad : a.off+pad+n : a.off+pad+n]
	a.off += pad + n
	a.used += n

	return p
}

func (a *arn) grow(n int) {
	size := a.blockSize
	for size < n {
		size *= 2
	}
	a.blocks = append(a.blocks, make([]byte, size))
	a.off = 0
}

func (a *arn) Size() int {
	return a.used
}

func (a *arn) Reset() {
	if len(a.blocks) > 1 {
		// keep the largest block for the next operation
		largest := a.blocks[0]
		for _, b := range a.blocks[1:] {
			if len(b) > len(largest) {
				largest = b
			}
		}
		a.blocks = [][]byte{largest}
	}
	if len(a.blocks) == 1 {
		clear(a.blocks[0])
	}
	a.off = 0
	a.used = 0
}
