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

package thrift_test

import (
	"context"

	athrift "github.com/apache/thrift/lib/go/thrift"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/nabbar/zstream/errors"
	libtft "github.com/nabbar/zstream/thrift"
)

// refMapI32ListI64 serializes a map<i32,list<i64>> with the apache thrift
// compact protocol as the reference encoding.
func refMapI32ListI64(keys []int32, lists [][]int64) []byte {
	ctx := context.Background()
	buf := athrift.NewTMemoryBuffer()
	p := athrift.NewTCompactProtocolConf(buf, nil)

	Expect(p.WriteMapBegin(ctx, athrift.I32, athrift.LIST, len(keys))).ToNot(HaveOccurred())
	for i, k := range keys {
		Expect(p.WriteI32(ctx, k)).ToNot(HaveOccurred())
		Expect(p.WriteListBegin(ctx, athrift.I64, len(lists[i]))).ToNot(HaveOccurred())
		for _, v := range lists[i] {
			Expect(p.WriteI64(ctx, v)).ToNot(HaveOccurred())
		}
		Expect(p.WriteListEnd(ctx)).ToNot(HaveOccurred())
	}
	Expect(p.WriteMapEnd(ctx)).ToNot(HaveOccurred())
	Expect(p.Flush(ctx)).ToNot(HaveOccurred())

	return buf.Bytes()
}

func refArrayI64(values []int64) []byte {
	ctx := context.Background()
	buf := athrift.NewTMemoryBuffer()
	p := athrift.NewTCompactProtocolConf(buf, nil)

	Expect(p.WriteListBegin(ctx, athrift.I64, len(values))).ToNot(HaveOccurred())
	for _, v := range values {
		Expect(p.WriteI64(ctx, v)).ToNot(HaveOccurred())
	}
	Expect(p.WriteListEnd(ctx)).ToNot(HaveOccurred())
	Expect(p.Flush(ctx)).ToNot(HaveOccurred())

	return buf.Bytes()
}

var _ = Describe("TC-TK-001: kernel round trips against the reference library", func() {
	It("TC-TK-011: a large map<i32,list<i64>> must re-serialize byte-for-byte", func() {
		const n = 20_000
		keys := make([]int32, n)
		lists := make([][]int64, n)
		for i := range keys {
			keys[i] = int32(i)
			lists[i] = []int64{int64(i)}
		}
		ref := refMapI32ListI64(keys, lists)

		size, err := libtft.MapSize(ref)
		Expect(err).ToNot(HaveOccurred())
		Expect(size).To(Equal(n))

		outKeys := make([]uint32, n)
		outLens := make([]uint32, n)
		inner := &libtft.SliceOutput64{}
		read, err := libtft.DeserializeMapI32ListI64(outKeys, outLens, inner, ref, n)
		Expect(err).ToNot(HaveOccurred())
		Expect(read).To(Equal(len(ref)))
		Expect(inner.Written()).To(HaveLen(n))

		out, err := libtft.SerializeMapI32ListI64(nil, outKeys, outLens, inner.Written())
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal(ref))
	})

	It("TC-TK-012: list<i64> with negatives must round trip exactly", func() {
		values := []int64{0, -1, 1, -64, 64, 1 << 40, -(1 << 40), 1<<63 - 1, -(1 << 62)}
		ref := refArrayI64(values)

		size, err := libtft.ArraySize(ref)
		Expect(err).ToNot(HaveOccurred())
		Expect(size).To(Equal(len(values)))

		out := make([]uint64, len(values))
		read, err := libtft.DeserializeArrayI64(out, ref, len(values))
		Expect(err).ToNot(HaveOccurred())
		Expect(read).To(Equal(len(ref)))

		reser, err := libtft.SerializeArrayI64(nil, out)
		Expect(err).ToNot(HaveOccurred())
		Expect(reser).To(Equal(ref))
	})

	It("TC-TK-013: list<i32> with the long-form header must round trip", func() {
		ctx := context.Background()
		buf := athrift.NewTMemoryBuffer()
		p := athrift.NewTCompactProtocolConf(buf, nil)
		values := make([]int32, 40)
		for i := range values {
			values[i] = int32(-i * 3)
		}
		Expect(p.WriteListBegin(ctx, athrift.I32, len(values))).ToNot(HaveOccurred())
		for _, v := range values {
			Expect(p.WriteI32(ctx, v)).ToNot(HaveOccurred())
		}
		Expect(p.WriteListEnd(ctx)).ToNot(HaveOccurred())
		Expect(p.Flush(ctx)).ToNot(HaveOccurred())
		ref := buf.Bytes()

		out := make([]uint32, len(values))
		read, err := libtft.DeserializeArrayI32(out, ref, len(values))
		Expect(err).ToNot(HaveOccurred())
		Expect(read).To(Equal(len(ref)))

		reser, err := libtft.SerializeArrayI32(nil, out)
		Expect(err).ToNot(HaveOccurred())
		Expect(reser).To(Equal(ref))
	})
})

var _ = Describe("TC-TK-100: float shapes round trip through the pair", func() {
	It("TC-TK-101: map<i32,float> must invert exactly", func() {
		keys := []uint32{1, 2, 0xFFFFFFFF}
		floats := []uint32{0x3F800000, 0x40490FDB, 0x00000000}

		ser, err := libtft.SerializeMapI32Float(nil, keys, floats)
		Expect(err).ToNot(HaveOccurred())

		outK := make([]uint32, 3)
		outF := make([]uint32, 3)
		read, err := libtft.DeserializeMapI32Float(outK, outF, ser, 3)
		Expect(err).ToNot(HaveOccurred())
		Expect(read).To(Equal(len(ser)))
		Expect(outK).To(Equal(keys))
		Expect(outF).To(Equal(floats))
	})

	It("TC-TK-102: map<i32,list<float>> must invert exactly", func() {
		keys := []uint32{10, 20}
		lengths := []uint32{3, 0}
		inner := []uint32{0x3F800000, 0x40000000, 0x40400000}

		ser, err := libtft.SerializeMapI32ListFloat(nil, keys, lengths, inner)
		Expect(err).ToNot(HaveOccurred())

		outK := make([]uint32, 2)
		outL := make([]uint32, 2)
		outV := &libtft.SliceOutput32{}
		read, err := libtft.DeserializeMapI32ListFloat(outK, outL, outV, ser, 2)
		Expect(err).ToNot(HaveOccurred())
		Expect(read).To(Equal(len(ser)))
		Expect(outK).To(Equal(keys))
		Expect(outL).To(Equal(lengths))
		Expect(outV.Written()).To(Equal(inner))
	})

	It("TC-TK-103: map<i32,list<list<i64>>> must invert through chunked outputs", func() {
		keys := []uint32{5}
		lengths := []uint32{2}
		innerLens := []uint32{3, 1}
		values := []uint64{7, 8, 9, 100}

		ser, err := libtft.SerializeMapI32ListListI64(nil, keys, lengths, innerLens, values)
		Expect(err).ToNot(HaveOccurred())

		outK := make([]uint32, 1)
		outL := make([]uint32, 1)
		outIL := &libtft.ChunkedOutput32{}
		outV := &libtft.ChunkedOutput64{}
		read, err := libtft.DeserializeMapI32ListListI64(outK, outL, outIL, outV, ser, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(read).To(Equal(len(ser)))

		gotIL := make([]uint32, outIL.Size())
		Expect(outIL.CopyTo(gotIL)).To(Equal(2))
		Expect(gotIL).To(Equal(innerLens))

		gotV := make([]uint64, outV.Size())
		Expect(outV.CopyTo(gotV)).To(Equal(4))
		Expect(gotV).To(Equal(values))
	})

	It("TC-TK-104: map<i32,map<i64,float>> must invert exactly", func() {
		keys := []uint32{1, 2}
		lengths := []uint32{1, 2}
		innerKeys := []uint64{100, 200, 300}
		innerVals := []uint32{0x41200000, 0x41A00000, 0x41F00000}

		ser, err := libtft.SerializeMapI32MapI64Float(nil, keys, lengths, innerKeys, innerVals)
		Expect(err).ToNot(HaveOccurred())

		outK := make([]uint32, 2)
		outL := make([]uint32, 2)
		outIK := &libtft.SliceOutput64{}
		outIV := &libtft.SliceOutput32{}
		read, err := libtft.DeserializeMapI32MapI64Float(outK, outL, outIK, outIV, ser, 2)
		Expect(err).ToNot(HaveOccurred())
		Expect(read).To(Equal(len(ser)))
		Expect(outIK.Written()).To(Equal(innerKeys))
		Expect(outIV.Written()).To(Equal(innerVals))
	})

	It("TC-TK-105: list<float> must invert exactly", func() {
		values := []uint32{0, 1, 0x7F800000}
		ser, err := libtft.SerializeArrayFloat(nil, values)
		Expect(err).ToNot(HaveOccurred())

		out := make([]uint32, 3)
		read, err := libtft.DeserializeArrayFloat(out, ser, 3)
		Expect(err).ToNot(HaveOccurred())
		Expect(read).To(Equal(len(ser)))
		Expect(out).To(Equal(values))
	})
})

var _ = Describe("TC-TK-200: strictness", func() {
	It("TC-TK-201: a non-canonical zero-padded varint must be refused", func() {
		// map header size 1 encoded as 0x81 0x00
		bad := []byte{0x81, 0x00, 0x5D, 0x02, 0x3F, 0x80, 0x00, 0x00}
		outK := make([]uint32, 1)
		outF := make([]uint32, 1)
		_, err := libtft.DeserializeMapI32Float(outK, outF, bad, 1)
		Expect(err).To(HaveOccurred())
	})

	It("TC-TK-202: a long-form list header for a short size must be refused", func() {
		// size 1 written in long form: 0xF6 0x01, then one zigzag i64
		bad := []byte{0xF6, 0x01, 0x02}
		out := make([]uint64, 1)
		_, err := libtft.DeserializeArrayI64(out, bad, 1)
		Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeNodeInvalidInput))
	})

	It("TC-TK-203: a container size beyond the source must be refused", func() {
		ser, err := libtft.SerializeArrayI64(nil, []uint64{1, 2})
		Expect(err).ToNot(HaveOccurred())
		out := make([]uint64, 1<<16)
		_, err = libtft.DeserializeArrayI64(out, ser, 1<<16)
		Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeNodeInvalidInput))
	})

	It("TC-TK-204: wrong element types must be refused", func() {
		ser, err := libtft.SerializeArrayI32(nil, []uint32{1})
		Expect(err).ToNot(HaveOccurred())
		out := make([]uint64, 1)
		_, err = libtft.DeserializeArrayI64(out, ser, 1)
		Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeNodeInvalidInput))
	})
})
