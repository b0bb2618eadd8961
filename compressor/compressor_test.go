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

package compressor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libcdc "github.com/nabbar/zstream/codec"
	libcpr "github.com/nabbar/zstream/compressor"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

var _ = Describe("TC-CP-001: registry", func() {
	Context("TC-CP-010: built-ins", func() {
		It("TC-CP-011: the terminal backends must be pre-registered", func() {
			b := libcpr.New()
			for _, name := range []string{"store", "zstd", "lz4", "lzma", "bz2", "huffman", "fse"} {
				g, ok := b.GraphByName(name)
				Expect(ok).To(BeTrue(), name)
				Expect(g.Kind).To(Equal(libcpr.GraphTerminal))
			}
			n, ok := b.NodeByName("delta")
			Expect(ok).To(BeTrue())
			Expect(n.Codec.ID).To(Equal(libcdc.IDDelta))
		})
	})

	Context("TC-CP-020: cloning", func() {
		It("TC-CP-021: clones must get #N suffixed names and merged params", func() {
			b := libcpr.New()
			base, _ := b.NodeByName("zstd")

			c1, err := b.CloneNode(base.ID, libcdc.Params{libcdc.ParamLevel: 19})
			Expect(err).ToNot(HaveOccurred())
			c2, err := b.CloneNode(base.ID, libcdc.Params{libcdc.ParamLevel: 1})
			Expect(err).ToNot(HaveOccurred())

			n1, _ := b.Node(c1)
			n2, _ := b.Node(c2)
			Expect(n1.Name).To(Equal("zstd#1"))
			Expect(n2.Name).To(Equal("zstd#2"))
			Expect(n1.EffectiveParams()[libcdc.ParamLevel]).To(Equal(int64(19)))
			Expect(n1.Codec).To(BeIdenticalTo(n2.Codec))
		})
	})

	Context("TC-CP-030: wiring checks", func() {
		It("TC-CP-031: arity mismatches must fail registration", func() {
			b := libcpr.New()
			tok, _ := b.NodeByName("tokenize-numeric")
			_, err := b.RegisterStaticGraph("bad", tok.ID, libcpr.GraphZstd)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeGraphInvalid))
		})

		It("TC-CP-032: validation must reject unreachable type hops", func() {
			b := libcpr.New()
			tokStr, _ := b.NodeByName("tokenize-string")
			// alphabet port produces a string stream; delta accepts
			// numeric only and no conversion exists from string
			delta, _ := b.NodeByName("delta")
			dg, err := b.RegisterStaticGraph("delta-store", delta.ID, libcpr.GraphStore)
			Expect(err).ToNot(HaveOccurred())
			g, err := b.RegisterStaticGraph("tok", tokStr.ID, dg, libcpr.GraphStore)
			Expect(err).ToNot(HaveOccurred())
			Expect(liberr.CodeOf(b.Validate(g))).To(Equal(liberr.CodeGraphInvalid))
		})

		It("TC-CP-033: a frozen builder must reject mutation", func() {
			b := libcpr.New()
			b.Freeze()
			_, err := b.CloneNode(libcpr.NodeID(libcdc.IDZstd), nil)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeInvalidRequest))
		})

		It("TC-CP-034: validation must honour the builder's version floor", func() {
			b := libcpr.New()
			rp, _ := b.NodeByName("range-pack")
			g, err := b.RegisterStaticGraph("rp", rp.ID, libcpr.GraphStore)
			Expect(err).ToNot(HaveOccurred())
			Expect(b.SetParameter(libcpr.ParamFormatVersion, int64(rp.MinVersion())-1)).ToNot(HaveOccurred())
			Expect(liberr.CodeOf(b.Validate(g))).To(Equal(liberr.CodeFormatVersionUnsupported))
		})
	})
})

var _ = Describe("TC-CP-100: persisted descriptions", func() {
	It("TC-CP-101: a description must survive CBOR round trip and rebuild", func() {
		b := libcpr.New()
		delta, _ := b.NodeByName("delta")
		zc, err := b.CloneNode(libcpr.NodeID(libcdc.IDZstd), libcdc.Params{libcdc.ParamLevel: 19})
		Expect(err).ToNot(HaveOccurred())
		zg, err := b.RegisterStaticGraph("zstd-19", zc)
		Expect(err).ToNot(HaveOccurred())
		g, err := b.RegisterStaticGraph("delta-zstd19", delta.ID, zg)
		Expect(err).ToNot(HaveOccurred())
		Expect(b.SelectStartingGraph(g)).ToNot(HaveOccurred())

		data, err := libcpr.SaveDescription(b)
		Expect(err).ToNot(HaveOccurred())

		nb := libcpr.New()
		Expect(libcpr.LoadDescription(nb, data)).ToNot(HaveOccurred())

		start, ok := nb.StartingGraph()
		Expect(ok).To(BeTrue())
		sg, _ := nb.Graph(start)
		Expect(sg.Name).To(Equal("delta-zstd19"))

		rebuilt, ok := nb.GraphByName("zstd-19")
		Expect(ok).To(BeTrue())
		n, _ := nb.Node(rebuilt.Node)
		Expect(n.Name).To(Equal("zstd#1"))
		Expect(n.EffectiveParams()[libcdc.ParamLevel]).To(Equal(int64(19)))
	})

	It("TC-CP-102: the JSON mirror must round trip", func() {
		b := libcpr.New()
		delta, _ := b.NodeByName("delta")
		g, err := b.RegisterStaticGraph("delta-zstd", delta.ID, libcpr.GraphZstd)
		Expect(err).ToNot(HaveOccurred())
		Expect(b.SelectStartingGraph(g)).ToNot(HaveOccurred())

		data, err := libcpr.SaveDescription(b)
		Expect(err).ToNot(HaveOccurred())

		j, err := libcpr.DescriptionToJSON(data)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(j)).To(ContainSubstring("delta-zstd"))

		back, err := libcpr.DescriptionFromJSON(j)
		Expect(err).ToNot(HaveOccurred())

		nb := libcpr.New()
		Expect(libcpr.LoadDescription(nb, back)).ToNot(HaveOccurred())
		_, ok := nb.GraphByName("delta-zstd")
		Expect(ok).To(BeTrue())
	})

	It("TC-CP-103: selector masks union their candidates", func() {
		b := libcpr.New()
		sel := func(_ libcpr.SelectorContext, _ libstr.Stream, c []libcpr.GraphID) (libcpr.GraphID, error) {
			return c[0], nil
		}
		g, err := b.RegisterSelectorGraph("any-of", sel, libcpr.GraphStore, libcpr.GraphZstd)
		Expect(err).ToNot(HaveOccurred())
		gd, _ := b.Graph(g)
		Expect(gd.InputMask.Has(libstr.Serial)).To(BeTrue())
		Expect(gd.InputMask.Has(libstr.Numeric)).To(BeTrue())
	})
})
