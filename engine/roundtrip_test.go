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

package engine_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libcpr "github.com/nabbar/zstream/compressor"
	libeng "github.com/nabbar/zstream/engine"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
	libwir "github.com/nabbar/zstream/wire"
)

var _ = Describe("TC-EN-001: compress / decompress round trips", func() {
	src := []byte(strings.Repeat("hello world hello ", 32))

	Context("TC-EN-010: serial input through each terminal backend", func() {
		for _, tb := range []struct {
			name  string
			graph libcpr.GraphID
		}{
			{"store", libcpr.GraphStore},
			{"zstd", libcpr.GraphZstd},
			{"lz4", libcpr.GraphLZ4},
			{"lzma", libcpr.GraphLZMA},
			{"bz2", libcpr.GraphBZ2},
			{"huffman", libcpr.GraphHuffman},
			{"fse", libcpr.GraphFSE},
		} {
			tb := tb
			It("TC-EN-011: must round trip through "+tb.name, func() {
				c := newCCtx(libcpr.New(), tb.graph)

				dst := make([]byte, libeng.CompressBound(len(src)))
				n, err := c.Compress(dst, src)
				Expect(err).ToNot(HaveOccurred())

				d := libeng.NewDCtx()
				out := make([]byte, len(src))
				m, err := d.Decompress(out, dst[:n])
				Expect(err).ToNot(HaveOccurred())
				Expect(m).To(Equal(len(src)))
				Expect(out).To(Equal(src))
			})
		}
	})

	Context("TC-EN-020: static pipelines", func() {
		It("TC-EN-021: delta then zstd must round trip a numeric ramp", func() {
			b := libcpr.New()
			delta, ok := b.NodeByName("delta")
			Expect(ok).To(BeTrue())
			g, err := b.RegisterStaticGraph("delta-zstd", delta.ID, libcpr.GraphZstd)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.Validate(g)).ToNot(HaveOccurred())

			in := numStream(8, 100, 200, 300, 400, 500)
			c := newCCtx(b, g)
			frame := compressOne(c, []libstr.Stream{in})

			outs, err := libeng.NewDCtx().DecompressMulti(frame)
			Expect(err).ToNot(HaveOccurred())
			Expect(outs).To(HaveLen(1))
			Expect(outs[0].Type()).To(Equal(libstr.Numeric))
			Expect(outs[0].Width()).To(Equal(8))
			Expect(outs[0].Content()).To(Equal(in.Content()))
		})

		It("TC-EN-022: a two-output node must route each port to its successor", func() {
			b := libcpr.New()
			tok, ok := b.NodeByName("tokenize-numeric")
			Expect(ok).To(BeTrue())
			g, err := b.RegisterStaticGraph("tok-split", tok.ID, libcpr.GraphZstd, libcpr.GraphFSE)
			Expect(err).ToNot(HaveOccurred())

			in := numStream(4, 7, 7, 9, 7, 9, 9, 7)
			c := newCCtx(b, g)
			frame := compressOne(c, []libstr.Stream{in})

			outs, err := libeng.NewDCtx().DecompressMulti(frame)
			Expect(err).ToNot(HaveOccurred())
			Expect(outs[0].Content()).To(Equal(in.Content()))
		})

		It("TC-EN-023: serial input must be auto-converted for a numeric-only pipeline", func() {
			b := libcpr.New()
			delta, _ := b.NodeByName("delta")
			g, err := b.RegisterStaticGraph("delta-store", delta.ID, libcpr.GraphStore)
			Expect(err).ToNot(HaveOccurred())

			c := newCCtx(b, g)
			dst := make([]byte, libeng.CompressBound(len(src)))
			n, err := c.Compress(dst, src)
			Expect(err).ToNot(HaveOccurred())

			out := make([]byte, len(src))
			_, err = libeng.NewDCtx().Decompress(out, dst[:n])
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal(src))
		})
	})

	Context("TC-EN-030: multi-input frames", func() {
		It("TC-EN-031: must preserve order, types, widths and string lengths", func() {
			ser, err := libstr.RefConst([]byte("hello world hello"), libstr.Serial, 1, 17)
			Expect(err).ToNot(HaveOccurred())
			num := numStream(4, 100, 200, 300, 400, 500)
			str := strStream("foo", "bar", "baz")

			c := newCCtx(libcpr.New(), libcpr.GraphZstd)
			frame := compressOne(c, []libstr.Stream{ser, num, str})

			outs, err := libeng.NewDCtx().DecompressMulti(frame)
			Expect(err).ToNot(HaveOccurred())
			Expect(outs).To(HaveLen(3))

			Expect(outs[0].Type()).To(Equal(libstr.Serial))
			Expect(outs[0].Content()).To(Equal([]byte("hello world hello")))

			Expect(outs[1].Type()).To(Equal(libstr.Numeric))
			Expect(outs[1].Width()).To(Equal(4))
			Expect(outs[1].Content()).To(Equal(num.Content()))

			Expect(outs[2].Type()).To(Equal(libstr.String))
			Expect(outs[2].StringLens()).To(Equal([]uint32{3, 3, 3}))
			Expect(outs[2].Content()).To(Equal([]byte("foobarbaz")))
		})
	})

	Context("TC-EN-040: determinism", func() {
		It("TC-EN-041: identical inputs must produce bit-identical frames", func() {
			b := libcpr.New()
			delta, _ := b.NodeByName("delta")
			g, err := b.RegisterStaticGraph("delta-zstd", delta.ID, libcpr.GraphZstd)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.SelectStartingGraph(g)).ToNot(HaveOccurred())

			mk := func() []byte {
				c := libeng.NewCCtx()
				Expect(c.RefCompressor(b)).ToNot(HaveOccurred())
				Expect(c.SetParameter(libcpr.ParamFormatVersion, int64(libwir.MaxFormatVersion))).ToNot(HaveOccurred())
				return compressOne(c, []libstr.Stream{numStream(8, 5, 10, 15, 20, 25, 30)})
			}

			Expect(bytes.Equal(mk(), mk())).To(BeTrue())
		})
	})

	Context("TC-EN-050: version coverage", func() {
		It("TC-EN-051: every advertised version must encode and decode", func() {
			for v := libwir.MinFormatVersion; v <= libwir.MaxFormatVersion; v++ {
				b := libcpr.New()
				Expect(b.SelectStartingGraph(libcpr.GraphStore)).ToNot(HaveOccurred())
				c := libeng.NewCCtx()
				Expect(c.RefCompressor(b)).ToNot(HaveOccurred())
				Expect(c.SetParameter(libcpr.ParamFormatVersion, int64(v))).ToNot(HaveOccurred())

				data := bytes.Repeat([]byte{'x'}, 1000)
				dst := make([]byte, libeng.CompressBound(len(data)))
				n, err := c.Compress(dst, data)
				Expect(err).ToNot(HaveOccurred())

				fi, err := libeng.NewFrameInfo(dst[:n])
				Expect(err).ToNot(HaveOccurred())
				Expect(fi.FormatVersion()).To(Equal(v))

				out := make([]byte, len(data))
				_, err = libeng.NewDCtx().Decompress(out, dst[:n])
				Expect(err).ToNot(HaveOccurred())
				Expect(out).To(Equal(data))
			}
		})
	})

	Context("TC-EN-060: capacity and argument errors", func() {
		It("TC-EN-061: an undersized destination must fail without partial output", func() {
			c := newCCtx(libcpr.New(), libcpr.GraphStore)
			dst := make([]byte, 4)
			_, err := c.Compress(dst, src)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeDstCapacityTooSmall))
			Expect(dst).To(Equal(make([]byte, 4)))
		})

		It("TC-EN-062: compressing without a format version must fail", func() {
			b := libcpr.New()
			Expect(b.SelectStartingGraph(libcpr.GraphStore)).ToNot(HaveOccurred())
			c := libeng.NewCCtx()
			Expect(c.RefCompressor(b)).ToNot(HaveOccurred())
			_, err := c.Compress(make([]byte, 1024), []byte("data"))
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeFormatVersionNotSet))
		})

		It("TC-EN-063: setting an out-of-range version must fail immediately", func() {
			c := libeng.NewCCtx()
			err := c.SetParameter(libcpr.ParamFormatVersion, int64(libwir.MinFormatVersion)-1)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeFormatVersionUnsupported))
			err = c.SetParameter(libcpr.ParamFormatVersion, int64(libwir.MaxFormatVersion)+1)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeFormatVersionUnsupported))
		})
	})
})

var _ = Describe("TC-EN-100: format-version gate", func() {
	It("TC-EN-101: a node above the negotiated version must refuse to compress", func() {
		b := libcpr.New()
		rp, ok := b.NodeByName("range-pack")
		Expect(ok).To(BeTrue())
		floor := rp.MinVersion()
		Expect(floor).To(BeNumerically(">", libwir.MinFormatVersion))

		g, err := b.RegisterStaticGraph("rp-store", rp.ID, libcpr.GraphStore)
		Expect(err).ToNot(HaveOccurred())
		Expect(b.SelectStartingGraph(g)).ToNot(HaveOccurred())

		in := numStream(8, 1000, 1001, 1002, 1003)

		c := libeng.NewCCtx()
		Expect(c.RefCompressor(b)).ToNot(HaveOccurred())
		Expect(c.SetParameter(libcpr.ParamFormatVersion, int64(floor)-1)).ToNot(HaveOccurred())
		dst := make([]byte, libeng.CompressBound(64))
		_, err = c.CompressTypedRef(dst, in)
		Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeFormatVersionUnsupported))

		// at the floor the same graph must round trip
		Expect(c.SetParameter(libcpr.ParamFormatVersion, int64(floor))).ToNot(HaveOccurred())
		n, err := c.CompressTypedRef(dst, in)
		Expect(err).ToNot(HaveOccurred())

		outs, err := libeng.NewDCtx().DecompressMulti(dst[:n])
		Expect(err).ToNot(HaveOccurred())
		Expect(outs[0].Content()).To(Equal(in.Content()))
	})
})
