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
	"encoding/binary"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libcpr "github.com/nabbar/zstream/compressor"
	libeng "github.com/nabbar/zstream/engine"
	liberr "github.com/nabbar/zstream/errors"
	libwir "github.com/nabbar/zstream/wire"
)

func compressChecksummed(content, compressed bool) ([]byte, []byte) {
	src := []byte(strings.Repeat("hello world hello ", 9)[:160])

	b := libcpr.New()
	Expect(b.SelectStartingGraph(libcpr.GraphZstd)).ToNot(HaveOccurred())

	c := libeng.NewCCtx()
	Expect(c.RefCompressor(b)).ToNot(HaveOccurred())
	Expect(c.SetParameter(libcpr.ParamFormatVersion, int64(libwir.MaxFormatVersion))).ToNot(HaveOccurred())
	Expect(c.SetParameter(libcpr.ParamStickyParameters, 1)).ToNot(HaveOccurred())
	if content {
		Expect(c.SetParameter(libcpr.ParamContentChecksum, 1)).ToNot(HaveOccurred())
	}
	if compressed {
		Expect(c.SetParameter(libcpr.ParamCompressedChecksum, 1)).ToNot(HaveOccurred())
	}

	dst := make([]byte, libeng.CompressBound(len(src)))
	n, err := c.Compress(dst, src)
	Expect(err).ToNot(HaveOccurred())
	return src, dst[:n]
}

// resealCompressed recomputes the trailing compressed checksum after the
// test tampered with covered bytes.
func resealCompressed(frame []byte) {
	fi, err := libeng.NewFrameInfo(frame)
	Expect(err).ToNot(HaveOccurred())
	Expect(fi.HasCompressedChecksum()).To(BeTrue())
	region := frame[fi.HeaderSize() : len(frame)-4]
	binary.LittleEndian.PutUint32(frame[len(frame)-4:], libwir.Checksum(region))
}

var _ = Describe("TC-CK-001: checksum discipline", func() {
	Context("TC-CK-010: success paths", func() {
		It("TC-CK-011: both checksums enabled must round trip", func() {
			src, frame := compressChecksummed(true, true)
			out := make([]byte, len(src))
			_, err := libeng.NewDCtx().Decompress(out, frame)
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal(src))

			fi, err := libeng.NewFrameInfo(frame)
			Expect(err).ToNot(HaveOccurred())
			Expect(fi.HasContentChecksum()).To(BeTrue())
			Expect(fi.HasCompressedChecksum()).To(BeTrue())
		})

		It("TC-CK-012: each checksum alone must round trip", func() {
			for _, flags := range [][2]bool{{true, false}, {false, true}, {false, false}} {
				src, frame := compressChecksummed(flags[0], flags[1])
				out := make([]byte, len(src))
				_, err := libeng.NewDCtx().Decompress(out, frame)
				Expect(err).ToNot(HaveOccurred())
				Expect(out).To(Equal(src))
			}
		})
	})

	Context("TC-CK-020: tamper detection", func() {
		It("TC-CK-021: a flipped bit in the content-checksum slot must fail content-only", func() {
			_, frame := compressChecksummed(true, true)
			// both checksums trail the frame: content at size-8,
			// compressed at size-4
			frame[len(frame)-8] ^= 0x01
			// the compressed checksum covers the content slot; reseal it
			// to isolate the content failure
			resealCompressed(frame)

			_, err := libeng.NewDCtx().DecompressMulti(frame)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeContentChecksumWrong))
		})

		It("TC-CK-022: a flipped bit in the compressed slot must fail compressed", func() {
			_, frame := compressChecksummed(true, true)
			frame[len(frame)-1] ^= 0x10
			_, err := libeng.NewDCtx().DecompressMulti(frame)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeCompressedChecksumWrong))
		})

		It("TC-CK-023: a flipped payload bit must trip the compressed checksum first", func() {
			_, frame := compressChecksummed(true, true)
			fi, err := libeng.NewFrameInfo(frame)
			Expect(err).ToNot(HaveOccurred())
			frame[fi.HeaderSize()+2] ^= 0x40
			_, err = libeng.NewDCtx().DecompressMulti(frame)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeCompressedChecksumWrong))
		})

		It("TC-CK-025: with only the content checksum a checksum-slot flip must fail content-only", func() {
			_, frame := compressChecksummed(true, false)
			// the single trailing slot is the content checksum
			frame[len(frame)-2] ^= 0x01
			_, err := libeng.NewDCtx().DecompressMulti(frame)
			Expect(liberr.CodeOf(err)).To(Equal(liberr.CodeContentChecksumWrong))
		})

		It("TC-CK-024: with only the content checksum a payload flip must fail decode", func() {
			_, frame := compressChecksummed(true, false)
			fi, err := libeng.NewFrameInfo(frame)
			Expect(err).ToNot(HaveOccurred())
			frame[fi.HeaderSize()+2] ^= 0x40
			_, err = libeng.NewDCtx().DecompressMulti(frame)
			Expect(err).To(HaveOccurred())
		})
	})
})
