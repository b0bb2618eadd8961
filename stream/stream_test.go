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

package stream_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

var _ = Describe("TC-ST-001: typed stream lifecycle", func() {
	Context("TC-ST-010: owned numeric stream", func() {
		It("TC-ST-011: must stay unobservable until commit", func() {
			s, err := libstr.New(libstr.Numeric, 4)
			Expect(err).ToNot(HaveOccurred())
			Expect(s.Committed()).To(BeFalse())
			Expect(s.Content()).To(BeNil())
			Expect(s.NumElts()).To(BeZero())

			Expect(s.Reserve(3)).ToNot(HaveOccurred())
			w, err := s.Writable()
			Expect(err).ToNot(HaveOccurred())
			for i := 0; i < 3; i++ {
				binary.LittleEndian.PutUint32(w[i*4:], uint32(100*(i+1)))
			}
			Expect(s.Commit(3)).ToNot(HaveOccurred())

			Expect(s.NumElts()).To(Equal(3))
			Expect(s.ByteSize()).To(Equal(12))
			Expect(binary.LittleEndian.Uint32(s.Content()[4:])).To(Equal(uint32(200)))
		})

		It("TC-ST-012: must refuse writes after commit", func() {
			s, _ := libstr.New(libstr.Numeric, 8)
			Expect(s.Reserve(1)).ToNot(HaveOccurred())
			Expect(s.Commit(1)).ToNot(HaveOccurred())
			_, err := s.Writable()
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeInvalidRequest))
			Expect(s.Commit(1)).To(HaveOccurred())
		})

		It("TC-ST-013: must refuse committing past the reservation", func() {
			s, _ := libstr.New(libstr.Struct, 5)
			Expect(s.Reserve(2)).ToNot(HaveOccurred())
			err := s.Commit(3)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeDstCapacityTooSmall))
		})

		It("TC-ST-014: must reject invalid type/width pairs", func() {
			_, err := libstr.New(libstr.Serial, 2)
			Expect(err).To(HaveOccurred())
			_, err = libstr.New(libstr.Numeric, 3)
			Expect(err).To(HaveOccurred())
			_, err = libstr.New(libstr.Serial|libstr.Numeric, 1)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("TC-ST-020: borrowed streams", func() {
		It("TC-ST-021: must be committed on creation and read-only", func() {
			buf := []byte{1, 2, 3, 4}
			s, err := libstr.RefConst(buf, libstr.Numeric, 2, 2)
			Expect(err).ToNot(HaveOccurred())
			Expect(s.Committed()).To(BeTrue())
			Expect(s.Owned()).To(BeFalse())
			Expect(s.Reserve(8)).To(HaveOccurred())
			Expect(s.Commit(2)).To(HaveOccurred())
		})

		It("TC-ST-022: releasing a borrowed stream must not touch the buffer", func() {
			buf := []byte{9, 9}
			s, _ := libstr.RefConst(buf, libstr.Serial, 1, 2)
			s.Release()
			Expect(buf).To(Equal([]byte{9, 9}))
		})

		It("TC-ST-023: must reject a mis-sized buffer", func() {
			_, err := libstr.RefConst([]byte{1, 2, 3}, libstr.Numeric, 2, 2)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("TC-ST-030: string streams", func() {
		It("TC-ST-031: lengths must concatenate to the content size", func() {
			s, err := libstr.New(libstr.String, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(s.AppendString([]byte("foo"))).ToNot(HaveOccurred())
			Expect(s.AppendString([]byte("bar"))).ToNot(HaveOccurred())
			Expect(s.AppendString([]byte("baz"))).ToNot(HaveOccurred())
			Expect(s.Commit(3)).ToNot(HaveOccurred())

			Expect(s.Content()).To(Equal([]byte("foobarbaz")))
			Expect(s.StringLens()).To(Equal([]uint32{3, 3, 3}))
			Expect(s.ValidateContent()).ToNot(HaveOccurred())
		})

		It("TC-ST-032: commit must fail on a length mismatch", func() {
			s, _ := libstr.New(libstr.String, 1)
			Expect(s.AppendBytes([]byte("hello"))).ToNot(HaveOccurred())
			Expect(s.AppendStringLen(3)).ToNot(HaveOccurred())
			err := s.Commit(1)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeNodeInvalidInput))
		})

		It("TC-ST-033: RefString must verify the length sum", func() {
			_, err := libstr.RefString([]byte("abcd"), []uint32{2, 3})
			Expect(err).To(HaveOccurred())
			s, err := libstr.RefString([]byte("abcd"), []uint32{2, 2})
			Expect(err).ToNot(HaveOccurred())
			Expect(s.NumElts()).To(Equal(2))
		})
	})

	Context("TC-ST-040: metadata & copy", func() {
		It("TC-ST-041: metadata must survive a deep copy", func() {
			src, _ := libstr.New(libstr.Numeric, 4)
			Expect(src.Reserve(2)).ToNot(HaveOccurred())
			w, _ := src.Writable()
			binary.LittleEndian.PutUint32(w, 42)
			binary.LittleEndian.PutUint32(w[4:], 43)
			src.SetIntMeta(1, 1234)
			Expect(src.Commit(2)).ToNot(HaveOccurred())

			dst, _ := libstr.New(libstr.Numeric, 4)
			Expect(dst.CopyFrom(src)).ToNot(HaveOccurred())
			Expect(dst.Content()).To(Equal(src.Content()))
			v, ok := dst.GetIntMeta(1)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(int64(1234)))
			Expect(dst.IntMetaKeys()).To(Equal([]int{1}))
		})
	})
})
