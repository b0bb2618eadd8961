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

package arena_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libarn "github.com/nabbar/zstream/arena"
)

var _ = Describe("TC-AR-001: arena allocator", func() {
	Context("TC-AR-010: allocation", func() {
		It("TC-AR-011: must return zeroed, disjoint, sized slices", func() {
			a := libarn.New(128)
			p1 := a.Alloc(16)
			p2 := a.Alloc(16)
			Expect(p1).To(HaveLen(16))
			Expect(p2).To(HaveLen(16))
			for i := range p1 {
				p1[i] = 0xAA
			}
			for _, b := range p2 {
				Expect(b).To(BeZero())
			}
			Expect(a.Size()).To(Equal(32))
		})

		It("TC-AR-012: must grow past the first block", func() {
			a := libarn.New(32)
			big := a.Alloc(1024)
			Expect(big).To(HaveLen(1024))
			Expect(a.Size()).To(Equal(1024))
		})

		It("TC-AR-013: slices must not be appendable in place", func() {
			a := libarn.New(128)
			p := a.Alloc(8)
			q := a.Alloc(8)
			p = append(p, 0xFF)
			for _, b := range q {
				Expect(b).To(BeZero())
			}
		})
	})

	Context("TC-AR-020: reset", func() {
		It("TC-AR-021: must recycle storage and zero it again", func() {
			a := libarn.New(64)
			p := a.Alloc(32)
			for i := range p {
				p[i] = 0x55
			}
			a.Reset()
			Expect(a.Size()).To(BeZero())
			q := a.Alloc(32)
			for _, b := range q {
				Expect(b).To(BeZero())
			}
		})
	})
})
