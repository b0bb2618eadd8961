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
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libcdc "github.com/nabbar/zstream/codec"
	libcpr "github.com/nabbar/zstream/compressor"
	libeng "github.com/nabbar/zstream/engine"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

var _ = Describe("TC-FG-001: function graphs", func() {
	src := []byte(strings.Repeat("0123456789abcdef", 16))

	It("TC-FG-011: splitting and routing halves to different backends must round trip", func() {
		b := libcpr.New()
		split, ok := b.NodeByName("split-serial")
		Expect(ok).To(BeTrue())

		fn := func(_ libcpr.FunctionContext, edges []libcpr.Edge) error {
			for _, e := range edges {
				size := e.Stream().ByteSize()
				halves, err := e.RunSplitNode(split.ID, []int{size / 2, size - size/2})
				if err != nil {
					return err
				}
				if err = halves[0].SetDestination(libcpr.GraphZstd); err != nil {
					return err
				}
				if err = halves[1].SetDestination(libcpr.GraphHuffman); err != nil {
					return err
				}
			}
			return nil
		}

		g, err := b.RegisterFunctionGraph("half-and-half", libstr.Serial, fn)
		Expect(err).ToNot(HaveOccurred())
		Expect(b.Validate(g)).ToNot(HaveOccurred())

		c := newCCtx(b, g)
		dst := make([]byte, libeng.CompressBound(len(src)))
		n, err := c.Compress(dst, src)
		Expect(err).ToNot(HaveOccurred())

		out := make([]byte, len(src))
		_, err = libeng.NewDCtx().Decompress(out, dst[:n])
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal(src))
	})

	It("TC-FG-012: running a node then routing its outputs must round trip", func() {
		b := libcpr.New()
		delta, _ := b.NodeByName("delta")

		fn := func(_ libcpr.FunctionContext, edges []libcpr.Edge) error {
			for _, e := range edges {
				outs, err := e.RunNode(delta.ID)
				if err != nil {
					return err
				}
				for _, o := range outs {
					if err = o.SetDestination(libcpr.GraphZstd); err != nil {
						return err
					}
				}
			}
			return nil
		}

		g, err := b.RegisterFunctionGraph("delta-fn", libstr.Numeric, fn)
		Expect(err).ToNot(HaveOccurred())

		in := numStream(8, 10, 20, 30, 40, 50, 60)
		c := newCCtx(b, g)
		frame := compressOne(c, []libstr.Stream{in})

		outs, err := libeng.NewDCtx().DecompressMulti(frame)
		Expect(err).ToNot(HaveOccurred())
		Expect(outs[0].Content()).To(Equal(in.Content()))
	})

	It("TC-FG-013: leaving an edge unrouted must fail with graph_invalid", func() {
		b := libcpr.New()
		fn := func(_ libcpr.FunctionContext, _ []libcpr.Edge) error {
			return nil
		}
		g, err := b.RegisterFunctionGraph("lazy", libstr.Serial, fn)
		Expect(err).ToNot(HaveOccurred())

		c := newCCtx(b, g)
		_, err = c.Compress(make([]byte, libeng.CompressBound(len(src))), src)
		Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeGraphInvalid))
	})

	It("TC-FG-014: terminating an edge twice must fail with graph_invalid", func() {
		b := libcpr.New()
		fn := func(_ libcpr.FunctionContext, edges []libcpr.Edge) error {
			for _, e := range edges {
				if err := e.SetDestination(libcpr.GraphStore); err != nil {
					return err
				}
				if err := e.SetDestination(libcpr.GraphZstd); err != nil {
					return err
				}
			}
			return nil
		}
		g, err := b.RegisterFunctionGraph("greedy", libstr.Serial, fn)
		Expect(err).ToNot(HaveOccurred())

		c := newCCtx(b, g)
		_, err = c.Compress(make([]byte, libeng.CompressBound(len(src))), src)
		Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeGraphInvalid))
	})

	It("TC-FG-015: a variadic concat through the function context must round trip", func() {
		b := libcpr.New()
		concat, ok := b.NodeByName("concat-numeric")
		Expect(ok).To(BeTrue())

		fn := func(fctx libcpr.FunctionContext, edges []libcpr.Edge) error {
			outs, err := fctx.RunMultiNode(concat.ID, edges)
			if err != nil {
				return err
			}
			return outs[0].SetDestination(libcpr.GraphZstd)
		}
		g, err := b.RegisterFunctionGraph("concat-all", libstr.Numeric, fn)
		Expect(err).ToNot(HaveOccurred())

		a := numStream(4, 1, 2, 3)
		bb := numStream(4, 4, 5)
		c := newCCtx(b, g)
		frame := compressOne(c, []libstr.Stream{a, bb})

		outs, err := libeng.NewDCtx().DecompressMulti(frame)
		Expect(err).ToNot(HaveOccurred())
		Expect(outs).To(HaveLen(2))
		Expect(outs[0].Content()).To(Equal(a.Content()))
		Expect(outs[1].Content()).To(Equal(bb.Content()))
	})

	It("TC-FG-016: custom codecs must mirror on the decode side", func() {
		// a trivial custom terminal codec: xor with a constant
		xorDesc := libcdc.Descriptor{
			ID:         900,
			Name:       "xor-mask",
			Kind:       libcdc.KindTerminal,
			InputMasks: []libstr.Type{libstr.Any},
			MinVersion: 8,
			TermEncode: func(_ libcdc.Params, src []byte) ([]byte, error) {
				out := make([]byte, len(src))
				for i, v := range src {
					out[i] = v ^ 0x5A
				}
				return out, nil
			},
			TermDecode: func(_ libcdc.Params, src []byte, rawSize int) ([]byte, error) {
				if len(src) != rawSize {
					return nil, liberr.New(liberr.CodeCorruption, "xor payload size mismatch")
				}
				out := make([]byte, len(src))
				for i, v := range src {
					out[i] = v ^ 0x5A
				}
				return out, nil
			},
		}

		b := libcpr.New()
		n, err := b.RegisterTypedEncoder(xorDesc)
		Expect(err).ToNot(HaveOccurred())
		g, err := b.RegisterStaticGraph("xor", n)
		Expect(err).ToNot(HaveOccurred())

		c := newCCtx(b, g)
		dst := make([]byte, libeng.CompressBound(len(src)))
		sz, err := c.Compress(dst, src)
		Expect(err).ToNot(HaveOccurred())

		// a decoder without the mirror registration must refuse
		_, err = libeng.NewDCtx().DecompressMulti(dst[:sz])
		Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeInvalidTransform))

		d := libeng.NewDCtx()
		Expect(d.RegisterTypedDecoder(xorDesc)).ToNot(HaveOccurred())
		out := make([]byte, len(src))
		_, err = d.Decompress(out, dst[:sz])
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal(src))
	})
})

var _ = Describe("TC-FG-100: introspection hooks", func() {
	It("TC-FG-101: hooks must observe node and frame events", func() {
		b := libcpr.New()
		delta, _ := b.NodeByName("delta")
		g, err := b.RegisterStaticGraph("hooked", delta.ID, libcpr.GraphZstd)
		Expect(err).ToNot(HaveOccurred())

		var starts, ends, frames int
		c := newCCtx(b, g)
		Expect(c.AttachIntrospectionHooks(&libeng.Hooks{
			OnNodeStart: func(uint32, libcpr.GraphID, []int) { starts++ },
			OnNodeEnd:   func(uint32, []int) { ends++ },
			OnFrameDone: func(int, int) { frames++ },
		})).ToNot(HaveOccurred())

		compressOne(c, []libstr.Stream{numStream(8, 1, 2, 3, 4)})
		Expect(starts).To(BeNumerically(">=", 2)) // delta + terminal
		Expect(ends).To(Equal(starts))
		Expect(frames).To(Equal(1))
	})
})
