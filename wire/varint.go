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
	"math"

	liberr "github.com/nabbar/zstream/errors"
)

// MaxVarintLen is the longest encoding of a 64-bit value.
const MaxVarintLen = 10

// AppendVarint appends the group-of-7-bits encoding of v to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// VarintLen returns the encoded size of v.
func VarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// DecodeVarint decodes a varint from src, accepting non-canonical forms
// (lax variant). It returns the value and the number of bytes consumed.
func DecodeVarint(src []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < len(src) && i < MaxVarintLen; i++ {
		b := src[i]
		if i == MaxVarintLen-1 && b > 1 {
			return 0, 0, liberr.New(liberr.CodeCorruption, "varint overflows 64 bits")
		}
		v |= uint64(b&0x7F) << (7 * i)
		if b < 0x80 {
			return v, i + 1, nil
		}
	}
	return 0, 0, liberr.New(liberr.CodeSrcSizeTooSmall, "truncated varint")
}

// DecodeVarint64Strict decodes a varint rejecting non-canonical encodings:
// a multi-byte encoding whose last byte is zero carries padding and is
// refused.
func DecodeVarint64Strict(src []byte) (uint64, int, error) {
	v, n, err := DecodeVarint(src)
	if err != nil {
		return 0, 0, err
	}
	if n > 1 && src[n-1] == 0 {
		return 0, 0, liberr.New(liberr.CodeCorruption, "non-canonical zero-padded varint")
	}
	return v, n, nil
}

// DecodeVarint32Strict is DecodeVarint64Strict additionally rejecting values
// beyond 32 bits.
func DecodeVarint32Strict(src []byte) (uint64, int, error) {
	v, n, err := DecodeVarint64Strict(src)
	if err != nil {
		return 0, 0, err
	}
	if v > math.MaxUint32 {
		return 0, 0, liberr.New(liberr.CodeCorruption, "varint overflows 32 bits")
	}
	return v, n, nil
}
