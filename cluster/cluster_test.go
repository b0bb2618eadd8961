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

package cluster_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libclu "github.com/nabbar/zstream/cluster"
	libcpr "github.com/nabbar/zstream/compressor"
	libeng "github.com/nabbar/zstream/engine"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
	libwir "github.com/nabbar/zstream/wire"
)

func taggedNum(tag int64, vals ...uint32) libstr.Stream {
	s, err := libstr.New(libstr.Numeric, 4)
	Expect(err).ToNot(HaveOccurred())
	Expect(s.Reserve(len(vals))).ToNot(HaveOccurred())
	w, _ := s.Writable()
	for i, v := range vals {
		binary.LittleEndian.PutUint32(w[i*4:], v)
	}
	s.SetIntMeta(libclu.MetaTag, tag)
	Expect(s.Commit(len(vals))).ToNot(HaveOccurred())
	return s
}

var _ = Describe("TC-CL-001: clustering configuration", func() {
	It("TC-CL-011: overlapping tags on the same (type, width) must be refused", func() {
		cfg := libclu.Config{
			Clusters: []libclu.Cluster{
				{Tags: []int64{1, 2}, Type: libstr.Numeric, Width: 4, Codec: libclu.CodecNumeric, SuccessorIdx: 0},
				{Tags: []int64{2, 3}, Type: libstr.Numeric, Width: 4, Codec: libclu.CodecNumeric, SuccessorIdx: 0},
			},
			Successors: []libcpr.GraphID{libcpr.GraphZstd},
		}
		Expect(liberr.CodeOf(cfg.Validate())).To(Equal(liberr.CodeInvalidRequest))
	})

	It("TC-CL-012: the same tag on different widths may coexist", func() {
		cfg := libclu.Config{
			Clusters: []libclu.Cluster{
				{Tags: []int64{1}, Type: libstr.Numeric, Width: 4, Codec: libclu.CodecNumeric, SuccessorIdx: 0},
				{Tags: []int64{1}, Type: libstr.Numeric, Width: 8, Codec: libclu.CodecNumeric, SuccessorIdx: 0},
			},
			Successors: []libcpr.GraphID{libcpr.GraphZstd},
		}
		Expect(cfg.Validate()).ToNot(HaveOccurred())
	})

	It("TC-CL-013: a codec/type mismatch must be refused", func() {
		cfg := libclu.Config{
			Clusters: []libclu.Cluster{
				{Tags: []int64{1}, Type: libstr.Numeric, Width: 4, Codec: libclu.CodecSerial, SuccessorIdx: 0},
			},
			Successors: []libcpr.GraphID{libcpr.GraphZstd},
		}
		Expect(cfg.Validate()).To(HaveOccurred())
	})
})

var _ = Describe("TC-CL-100: clustering execution", func() {
	newCtx := func(b libcpr.Builder, g libcpr.GraphID) libeng.CCtx {
		Expect(b.SelectStartingGraph(g)).ToNot(HaveOccurred())
		c := libeng.NewCCtx()
		Expect(c.RefCompressor(b)).ToNot(HaveOccurred())
		Expect(c.SetParameter(libcpr.ParamFormatVersion, int64(libwir.MaxFormatVersion))).ToNot(HaveOccurred())
		return c
	}

	It("TC-CL-101: mixed typed inputs must round trip through cluster and defaults", func() {
		b := libcpr.New()
		g, err := libclu.Register(b, "by-column", libclu.Config{
			Clusters: []libclu.Cluster{
				{Tags: []int64{10, 11}, Type: libstr.Numeric, Width: 4, Codec: libclu.CodecNumeric, SuccessorIdx: 0},
			},
			Successors: []libcpr.GraphID{libcpr.GraphZstd},
			TypeDefaults: map[libstr.Type]libcpr.GraphID{
				libstr.Serial: libcpr.GraphHuffman,
				libstr.String: libcpr.GraphZstd,
			},
		})
		Expect(err).ToNot(HaveOccurred())

		ser, err := libstr.RefConst([]byte("hello world hello"), libstr.Serial, 1, 17)
		Expect(err).ToNot(HaveOccurred())
		num := taggedNum(10, 100, 200, 300, 400, 500)
		str, err := libstr.New(libstr.String, 1)
		Expect(err).ToNot(HaveOccurred())
		for _, v := range []string{"foo", "bar", "baz"} {
			Expect(str.AppendString([]byte(v))).ToNot(HaveOccurred())
		}
		Expect(str.Commit(3)).ToNot(HaveOccurred())

		c := newCtx(b, g)
		dst := make([]byte, libeng.CompressBound(256))
		n, err := c.CompressMultiTypedRef(dst, []libstr.Stream{ser, num, str})
		Expect(err).ToNot(HaveOccurred())

		outs, err := libeng.NewDCtx().DecompressMulti(dst[:n])
		Expect(err).ToNot(HaveOccurred())
		Expect(outs).To(HaveLen(3))
		Expect(outs[0].Content()).To(Equal([]byte("hello world hello")))
		Expect(outs[1].Content()).To(Equal(num.Content()))
		Expect(outs[1].Width()).To(Equal(4))
		Expect(outs[2].StringLens()).To(Equal([]uint32{3, 3, 3}))
		Expect(outs[2].Content()).To(Equal([]byte("foobarbaz")))

		// the clustering tag survives the round trip
		tag, ok := outs[1].GetIntMeta(libclu.MetaTag)
		Expect(ok).To(BeTrue())
		Expect(tag).To(Equal(int64(10)))
	})

	It("TC-CL-102: streams sharing a cluster must concatenate and split back", func() {
		b := libcpr.New()
		g, err := libclu.Register(b, "merge", libclu.Config{
			Clusters: []libclu.Cluster{
				{Tags: []int64{7}, Type: libstr.Numeric, Width: 4, Codec: libclu.CodecNumeric, SuccessorIdx: 0},
			},
			Successors: []libcpr.GraphID{libcpr.GraphStore},
		})
		Expect(err).ToNot(HaveOccurred())

		a := taggedNum(7, 1, 2, 3)
		bb := taggedNum(7, 4)
		cc := taggedNum(7, 5, 6)

		c := newCtx(b, g)
		dst := make([]byte, libeng.CompressBound(256))
		n, err := c.CompressMultiTypedRef(dst, []libstr.Stream{a, bb, cc})
		Expect(err).ToNot(HaveOccurred())

		outs, err := libeng.NewDCtx().DecompressMulti(dst[:n])
		Expect(err).ToNot(HaveOccurred())
		Expect(outs).To(HaveLen(3))
		Expect(outs[0].Content()).To(Equal(a.Content()))
		Expect(outs[1].Content()).To(Equal(bb.Content()))
		Expect(outs[2].Content()).To(Equal(cc.Content()))
	})

	It("TC-CL-103: an unassigned stream without a default must fail", func() {
		b := libcpr.New()
		g, err := libclu.Register(b, "strict", libclu.Config{
			Clusters: []libclu.Cluster{
				{Tags: []int64{1}, Type: libstr.Numeric, Width: 4, Codec: libclu.CodecNumeric, SuccessorIdx: 0},
			},
			Successors: []libcpr.GraphID{libcpr.GraphStore},
		})
		Expect(err).ToNot(HaveOccurred())

		c := newCtx(b, g)
		dst := make([]byte, libeng.CompressBound(64))
		_, err = c.CompressMultiTypedRef(dst, []libstr.Stream{taggedNum(99, 1)})
		Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeGraphInvalid))
	})
})
