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

package wire

import (
	"github.com/zeebo/xxh3"
)

// ChecksumSize is the byte size of one trailing checksum slot.
const ChecksumSize = 4

// Checksum returns the low 32 bits of the 64-bit XXH3 digest of b. Both the
// content checksum and the compressed-stream checksum use this digest.
func Checksum(b []byte) uint32 {
	return uint32(xxh3.Hash(b))
}

// ChecksumChain digests several byte runs as one logical input, in order.
func ChecksumChain(parts ...[]byte) uint32 {
	h := xxh3.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return uint32(h.Sum64())
}
