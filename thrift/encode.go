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

package thrift

import (
	"encoding/binary"

	liberr "github.com/nabbar/zstream/errors"
	libwir "github.com/nabbar/zstream/wire"
)

// The serialize kernels are the strict inverses of the deserialize kernels:
// fed the extracted streams they reproduce the original canonical bytes
// exactly.

func zigzagEnc32(v uint32) uint32 {
	return (v << 1) ^ -(v >> 31)
}

func zigzagEnc64(v uint64) uint64 {
	return (v << 1) ^ -(v >> 63)
}

func appendMapHeader(dst []byte, keyType, valType uint8, size int) []byte {
	dst = libwir.AppendVarint(dst, uint64(size))
	if size > 0 {
		dst = append(dst, keyType<<4|valType)
	}
	return dst
}

func appendListHeader(dst []byte, elemType uint8, size int) []byte {
	if size < 15 {
		return append(dst, uint8(size)<<4|elemType)
	}
	dst = append(dst, 0xF0|elemType)
	return libwir.AppendVarint(dst, uint64(size))
}

func appendI32(dst []byte, v uint32) []byte {
	return libwir.AppendVarint(dst, uint64(zigzagEnc32(v)))
}

func appendI64(dst []byte, v uint64) []byte {
	return libwir.AppendVarint(dst, zigzagEnc64(v))
}

func appendFloat(dst []byte, bits uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, bits)
}

func checkLengthSum(lengths []uint32, available int) (int, error) {
	total := 0
	for _, l := range lengths {
		total += int(l)
	}
	if total > available {
		return 0, liberr.New(liberr.CodeNodeInvalidInput, "lengths sum to %d, only %d inner values were provided", total, available)
	}
	return total, nil
}

// SerializeMapI32Float appends a canonical map<i32,float> to dst.
func SerializeMapI32Float(dst []byte, keys, floats []uint32) ([]byte, error) {
	if len(keys) != len(floats) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "%d keys against %d floats", len(keys), len(floats))
	}

	dst = appendMapHeader(dst, ctI32, ctFloat, len(keys))
	for i := range keys {
		dst = appendI32(dst, keys[i])
		dst = appendFloat(dst, floats[i])
	}
	return dst, nil
}

// SerializeMapI32ListFloat appends a canonical map<i32,list<float>> to dst.
func SerializeMapI32ListFloat(dst []byte, keys, lengths []uint32, inner []uint32) ([]byte, error) {
	if len(keys) != len(lengths) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "%d keys against %d lengths", len(keys), len(lengths))
	}
	total, err := checkLengthSum(lengths, len(inner))
	if err != nil {
		return nil, err
	}
	if total != len(inner) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "lengths sum to %d, %d inner values were provided", total, len(inner))
	}

	dst = appendMapHeader(dst, ctI32, ctList, len(keys))
	off := 0
	for i := range keys {
		dst = appendI32(dst, keys[i])
		dst = appendListHeader(dst, ctFloat, int(lengths[i]))
		for j := 0; j < int(lengths[i]); j++ {
			dst = appendFloat(dst, inner[off])
			off++
		}
	}
	return dst, nil
}

// SerializeMapI32ListI64 appends a canonical map<i32,list<i64>> to dst.
func SerializeMapI32ListI64(dst []byte, keys, lengths []uint32, inner []uint64) ([]byte, error) {
	if len(keys) != len(lengths) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "%d keys against %d lengths", len(keys), len(lengths))
	}
	total, err := checkLengthSum(lengths, len(inner))
	if err != nil {
		return nil, err
	}
	if total != len(inner) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "lengths sum to %d, %d inner values were provided", total, len(inner))
	}

	dst = appendMapHeader(dst, ctI32, ctList, len(keys))
	off := 0
	for i := range keys {
		dst = appendI32(dst, keys[i])
		dst = appendListHeader(dst, ctI64, int(lengths[i]))
		for j := 0; j < int(lengths[i]); j++ {
			dst = appendI64(dst, inner[off])
			off++
		}
	}
	return dst, nil
}

// SerializeMapI32ListListI64 appends a canonical map<i32,list<list<i64>>>
// to dst.
func SerializeMapI32ListListI64(dst []byte, keys, lengths []uint32, innerLengths []uint32, values []uint64) ([]byte, error) {
	if len(keys) != len(lengths) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "%d keys against %d lengths", len(keys), len(lengths))
	}
	outer, err := checkLengthSum(lengths, len(innerLengths))
	if err != nil {
		return nil, err
	}
	if outer != len(innerLengths) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "outer lengths sum to %d, %d inner lengths were provided", outer, len(innerLengths))
	}
	innerTotal, err := checkLengthSum(innerLengths, len(values))
	if err != nil {
		return nil, err
	}
	if innerTotal != len(values) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "inner lengths sum to %d, %d values were provided", innerTotal, len(values))
	}

	dst = appendMapHeader(dst, ctI32, ctList, len(keys))
	li, vi := 0, 0
	for i := range keys {
		dst = appendI32(dst, keys[i])
		dst = appendListHeader(dst, ctList, int(lengths[i]))
		for j := 0; j < int(lengths[i]); j++ {
			size := int(innerLengths[li])
			li++
			dst = appendListHeader(dst, ctI64, size)
			for m := 0; m < size; m++ {
				dst = appendI64(dst, values[vi])
				vi++
			}
		}
	}
	return dst, nil
}

// SerializeMapI32MapI64Float appends a canonical map<i32,map<i64,float>> to
// dst.
func SerializeMapI32MapI64Float(dst []byte, keys, lengths []uint32, innerKeys []uint64, innerValues []uint32) ([]byte, error) {
	if len(keys) != len(lengths) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "%d keys against %d lengths", len(keys), len(lengths))
	}
	if len(innerKeys) != len(innerValues) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "%d inner keys against %d inner values", len(innerKeys), len(innerValues))
	}
	total, err := checkLengthSum(lengths, len(innerKeys))
	if err != nil {
		return nil, err
	}
	if total != len(innerKeys) {
		return nil, liberr.New(liberr.CodeNodeInvalidInput, "lengths sum to %d, %d inner entries were provided", total, len(innerKeys))
	}

	dst = appendMapHeader(dst, ctI32, ctMap, len(keys))
	off := 0
	for i := range keys {
		dst = appendI32(dst, keys[i])
		dst = appendMapHeader(dst, ctI64, ctFloat, int(lengths[i]))
		for j := 0; j < int(lengths[i]); j++ {
			dst = appendI64(dst, innerKeys[off])
			dst = appendFloat(dst, innerValues[off])
			off++
		}
	}
	return dst, nil
}

// SerializeArrayI32 appends a canonical list<i32> to dst.
func SerializeArrayI32(dst []byte, values []uint32) ([]byte, error) {
	dst = appendListHeader(dst, ctI32, len(values))
	for _, v := range values {
		dst = appendI32(dst, v)
	}
	return dst, nil
}

// SerializeArrayI64 appends a canonical list<i64> to dst.
func SerializeArrayI64(dst []byte, values []uint64) ([]byte, error) {
	dst = appendListHeader(dst, ctI64, len(values))
	for _, v := range values {
		dst = appendI64(dst, v)
	}
	return dst, nil
}

// SerializeArrayFloat appends a canonical list<float> to dst.
func SerializeArrayFloat(dst []byte, values []uint32) ([]byte, error) {
	dst = appendListHeader(dst, ctFloat, len(values))
	for _, v := range values {
		dst = appendFloat(dst, v)
	}
	return dst, nil
}
