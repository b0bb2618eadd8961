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

	libcpr "github.com/nabbar/zstream/compressor"
	libeng "github.com/nabbar/zstream/engine"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

// smallestOf is a brute-force selector trying every candidate and keeping
// the smallest result.
func smallestOf(sizes *[]int) libcpr.SelectorFn {
	return func(sctx libcpr.SelectorContext, in libstr.Stream, candidates []libcpr.GraphID) (libcpr.GraphID, error) {
		best := candidates[0]
		bestSize := -1
		for _, cand := range candidates {
			res, err := sctx.TryGraph(cand, in)
			if err != nil {
				continue
			}
			if sizes != nil {
				*sizes = append(*sizes, res.CompressedSize)
			}
			if bestSize < 0 || res.CompressedSize < bestSize {
				best, bestSize = cand, res.CompressedSize
			}
		}
		return best, nil
	}
}

var _ = Describe("TC-SL-001: selector graphs", func() {
	src := []byte(strings.Repeat("abcabcabc abc", 64))

	It("TC-SL-011: a brute-force smallest selector must round trip", func() {
		b := libcpr.New()
		g, err := b.RegisterSelectorGraph("smallest", smallestOf(nil),
			libcpr.GraphStore, libcpr.GraphZstd, libcpr.GraphHuffman)
		Expect(err).ToNot(HaveOccurred())
		Expect(b.Validate(g)).ToNot(HaveOccurred())

		c := newCCtx(b, g)
		dst := make([]byte, libeng.CompressBound(len(src)))
		n, err := c.Compress(dst, src)
		Expect(err).ToNot(HaveOccurred())

		// repetitive input: the winner must beat plain store
		Expect(n).To(BeNumerically("<", len(src)))

		out := make([]byte, len(src))
		_, err = libeng.NewDCtx().Decompress(out, dst[:n])
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal(src))
	})

	It("TC-SL-012: trying the same candidate twice must report the same size", func() {
		b := libcpr.New()
		var first, second int
		sel := func(sctx libcpr.SelectorContext, in libstr.Stream, candidates []libcpr.GraphID) (libcpr.GraphID, error) {
			r1, err := sctx.TryGraph(libcpr.GraphZstd, in)
			Expect(err).ToNot(HaveOccurred())
			r2, err := sctx.TryGraph(libcpr.GraphZstd, in)
			Expect(err).ToNot(HaveOccurred())
			first, second = r1.CompressedSize, r2.CompressedSize
			return libcpr.GraphZstd, nil
		}
		g, err := b.RegisterSelectorGraph("twice", sel, libcpr.GraphStore, libcpr.GraphZstd)
		Expect(err).ToNot(HaveOccurred())

		c := newCCtx(b, g)
		dst := make([]byte, libeng.CompressBound(len(src)))
		n, err := c.Compress(dst, src)
		Expect(err).ToNot(HaveOccurred())
		Expect(first).To(Equal(second))

		// try side effects must not leak into the parent frame
		out := make([]byte, len(src))
		_, err = libeng.NewDCtx().Decompress(out, dst[:n])
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal(src))
	})

	It("TC-SL-013: choosing outside the candidate set must fail the compress", func() {
		b := libcpr.New()
		sel := func(_ libcpr.SelectorContext, _ libstr.Stream, _ []libcpr.GraphID) (libcpr.GraphID, error) {
			return libcpr.GraphLZ4, nil
		}
		g, err := b.RegisterSelectorGraph("rogue", sel, libcpr.GraphStore, libcpr.GraphZstd)
		Expect(err).ToNot(HaveOccurred())

		c := newCCtx(b, g)
		_, err = c.Compress(make([]byte, libeng.CompressBound(len(src))), src)
		Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeGraphInvalid))
	})

	It("TC-SL-014: the selector context must expose candidate masks", func() {
		b := libcpr.New()
		sel := func(sctx libcpr.SelectorContext, _ libstr.Stream, candidates []libcpr.GraphID) (libcpr.GraphID, error) {
			for _, cand := range candidates {
				mask, ok := sctx.GraphInputMask(cand)
				Expect(ok).To(BeTrue())
				Expect(mask.Has(libstr.Serial)).To(BeTrue())
			}
			return candidates[0], nil
		}
		g, err := b.RegisterSelectorGraph("introspect", sel, libcpr.GraphStore, libcpr.GraphZstd)
		Expect(err).ToNot(HaveOccurred())

		c := newCCtx(b, g)
		_, err = c.Compress(make([]byte, libeng.CompressBound(len(src))), src)
		Expect(err).ToNot(HaveOccurred())
	})
})
