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

package codec_test

import (
	"bytes"
	"encoding/binary"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libarn "github.com/nabbar/zstream/arena"
	libcdc "github.com/nabbar/zstream/codec"
	libstr "github.com/nabbar/zstream/stream"
)

func descByID(id uint32) *libcdc.Descriptor {
	descs := libcdc.Builtin()
	for i := range descs {
		if descs[i].ID == id {
			return &descs[i]
		}
	}
	return nil
}

func mkNumeric(width int, vals ...uint64) libstr.Stream {
	s, err := libstr.New(libstr.Numeric, width)
	Expect(err).ToNot(HaveOccurred())
	Expect(s.Reserve(len(vals))).ToNot(HaveOccurred())
	w, err := s.Writable()
	Expect(err).ToNot(HaveOccurred())
	for i, v := range vals {
		switch width {
		case 1:
			w[i] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(w[i*2:], uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(w[i*4:], uint32(v))
		default:
			binary.LittleEndian.PutUint64(w[i*8:], v)
		}
	}
	Expect(s.Commit(len(vals))).ToNot(HaveOccurred())
	return s
}

// roundTrip runs encode then decode and compares the rebuilt input streams.
func roundTrip(id uint32, p libcdc.Params, aux []byte, ins ...libstr.Stream) {
	d := descByID(id)
	Expect(d).ToNot(BeNil())
	ar := libarn.New(0)

	outs, hdr, err := d.Encode(ar, d.Defaults.Merge(p), aux, ins)
	Expect(err).ToNot(HaveOccurred())
	for _, o := range outs {
		Expect(o.Committed()).To(BeTrue())
		Expect(o.ValidateContent()).ToNot(HaveOccurred())
	}

	back, err := d.Decode(ar, d.Defaults.Merge(p), hdr, outs)
	Expect(err).ToNot(HaveOccurred())
	Expect(back).To(HaveLen(len(ins)))
	for i := range ins {
		Expect(back[i].Type()).To(Equal(ins[i].Type()), d.Name)
		Expect(back[i].Width()).To(Equal(ins[i].Width()), d.Name)
		Expect(back[i].NumElts()).To(Equal(ins[i].NumElts()), d.Name)
		Expect(back[i].Content()).To(Equal(ins[i].Content()), d.Name)
		if ins[i].Type() == libstr.String {
			Expect(back[i].StringLens()).To(Equal(ins[i].StringLens()), d.Name)
		}
	}
}

var _ = Describe("TC-CD-001: transform codecs", func() {
	rnd := rand.New(rand.NewSource(7))

	randVals := func(n int, max uint64) []uint64 {
		v := make([]uint64, n)
		for i := range v {
			v[i] = rnd.Uint64() % max
		}
		return v
	}

	It("TC-CD-011: delta must round trip every numeric width", func() {
		for _, w := range []int{1, 2, 4, 8} {
			roundTrip(libcdc.IDDelta, nil, nil, mkNumeric(w, randVals(100, 1<<(8*min(w, 7)))...))
		}
	})

	It("TC-CD-012: zigzag must round trip wrapped negatives", func() {
		roundTrip(libcdc.IDZigzag, nil, nil, mkNumeric(8, 0, 1, ^uint64(0), 5, ^uint64(4)))
		roundTrip(libcdc.IDZigzag, nil, nil, mkNumeric(2, 0xFFFF, 1, 0x8000))
	})

	It("TC-CD-013: bitpack must round trip narrow values", func() {
		roundTrip(libcdc.IDBitpack, nil, nil, mkNumeric(4, randVals(333, 1000)...))
		roundTrip(libcdc.IDBitpack, nil, nil, mkNumeric(8, 0, 0, 0))
	})

	It("TC-CD-014: transpose must round trip structs and numerics", func() {
		roundTrip(libcdc.IDTranspose, nil, nil, mkNumeric(4, randVals(64, 1<<30)...))
	})

	It("TC-CD-015: range-pack must narrow a tight range", func() {
		vals := make([]uint64, 50)
		for i := range vals {
			vals[i] = 1_000_000 + uint64(i%200)
		}
		in := mkNumeric(8, vals...)

		d := descByID(libcdc.IDRangePack)
		outs, hdr, err := d.Encode(libarn.New(0), nil, nil, []libstr.Stream{in})
		Expect(err).ToNot(HaveOccurred())
		Expect(outs[0].Width()).To(Equal(1))

		back, err := d.Decode(libarn.New(0), nil, hdr, outs)
		Expect(err).ToNot(HaveOccurred())
		Expect(back[0].Content()).To(Equal(in.Content()))
	})

	It("TC-CD-016: divide-by must factor out the gcd", func() {
		roundTrip(libcdc.IDDivideBy, nil, nil, mkNumeric(4, 300, 600, 900, 1500))
		roundTrip(libcdc.IDDivideBy, nil, nil, mkNumeric(4, 0, 0))
	})

	It("TC-CD-017: float32-deconstruct must split and rebuild", func() {
		roundTrip(libcdc.IDFloat32Deconstruct, nil, nil, mkNumeric(4, randVals(40, 1<<32-1)...))
	})

	It("TC-CD-018: tokenize-numeric must round trip, sorted or not", func() {
		in := mkNumeric(4, 9, 7, 9, 9, 7, 3, 9)
		roundTrip(libcdc.IDTokenizeNumeric, nil, nil, in)
		roundTrip(libcdc.IDTokenizeNumeric, libcdc.Params{libcdc.ParamSorted: 1}, nil, mkNumeric(4, 9, 7, 9, 9, 7, 3, 9))
	})

	It("TC-CD-019: tokenize-string must round trip", func() {
		s, _ := libstr.New(libstr.String, 1)
		for _, v := range []string{"foo", "bar", "foo", "", "baz", "bar"} {
			Expect(s.AppendString([]byte(v))).ToNot(HaveOccurred())
		}
		Expect(s.Commit(6)).ToNot(HaveOccurred())
		roundTrip(libcdc.IDTokenizeString, nil, nil, s)
	})
})

var _ = Describe("TC-CD-100: terminal codecs", func() {
	src := bytes.Repeat([]byte("terminal payload "), 40)

	It("TC-CD-101: every terminal must invert its own output", func() {
		for _, id := range []uint32{libcdc.IDStore, libcdc.IDZstd, libcdc.IDLZ4, libcdc.IDLZMA, libcdc.IDBZ2, libcdc.IDHuffman, libcdc.IDFSE} {
			d := descByID(id)
			Expect(d).ToNot(BeNil())
			enc, err := d.TermEncode(d.Defaults, src)
			Expect(err).ToNot(HaveOccurred(), d.Name)
			dec, err := d.TermDecode(d.Defaults, enc, len(src))
			Expect(err).ToNot(HaveOccurred(), d.Name)
			Expect(dec).To(Equal(src), d.Name)
		}
	})

	It("TC-CD-102: incompressible input must survive the raw fallback", func() {
		noise := make([]byte, 512)
		_, _ = rand.New(rand.NewSource(99)).Read(noise)
		for _, id := range []uint32{libcdc.IDLZ4, libcdc.IDHuffman, libcdc.IDFSE} {
			d := descByID(id)
			enc, err := d.TermEncode(nil, noise)
			Expect(err).ToNot(HaveOccurred(), d.Name)
			dec, err := d.TermDecode(nil, enc, len(noise))
			Expect(err).ToNot(HaveOccurred(), d.Name)
			Expect(dec).To(Equal(noise), d.Name)
		}
	})

	It("TC-CD-103: a declared-size mismatch must fail as corruption", func() {
		d := descByID(libcdc.IDZstd)
		enc, err := d.TermEncode(d.Defaults, src)
		Expect(err).ToNot(HaveOccurred())
		_, err = d.TermDecode(d.Defaults, enc, len(src)-1)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("TC-CD-200: concat and split", func() {
	It("TC-CD-201: concat-numeric must rebuild each member", func() {
		roundTrip(libcdc.IDConcatNumeric, nil, nil,
			mkNumeric(4, 1, 2, 3), mkNumeric(4, 9), mkNumeric(4, 5, 6))
	})

	It("TC-CD-202: concat-string must rebuild each member", func() {
		a, _ := libstr.New(libstr.String, 1)
		Expect(a.AppendString([]byte("alpha"))).ToNot(HaveOccurred())
		Expect(a.AppendString([]byte("beta"))).ToNot(HaveOccurred())
		Expect(a.Commit(2)).ToNot(HaveOccurred())
		b, _ := libstr.New(libstr.String, 1)
		Expect(b.AppendString([]byte("gamma"))).ToNot(HaveOccurred())
		Expect(b.Commit(1)).ToNot(HaveOccurred())
		roundTrip(libcdc.IDConcatString, nil, nil, a, b)
	})

	It("TC-CD-203: split-serial must honour caller segment sizes", func() {
		payload := []byte("abcdefghij")
		in, err := libstr.RefConst(payload, libstr.Serial, 1, len(payload))
		Expect(err).ToNot(HaveOccurred())
		roundTrip(libcdc.IDSplitSerial, nil, libcdc.EncodeSegmentSizes([]int{3, 0, 7}), in)
	})

	It("TC-CD-204: mis-summed segment sizes must be refused", func() {
		payload := []byte("abcdef")
		in, _ := libstr.RefConst(payload, libstr.Serial, 1, len(payload))
		d := descByID(libcdc.IDSplitSerial)
		_, _, err := d.Encode(libarn.New(0), nil, libcdc.EncodeSegmentSizes([]int{3, 4}), []libstr.Stream{in})
		Expect(err).To(HaveOccurred())
	})

	It("TC-CD-205: width disagreement must be refused by concat", func() {
		d := descByID(libcdc.IDConcatNumeric)
		_, _, err := d.Encode(libarn.New(0), nil, nil, []libstr.Stream{mkNumeric(4, 1), mkNumeric(8, 2)})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("TC-CD-300: stream serialization", func() {
	It("TC-CD-301: string streams must carry their lengths", func() {
		s, _ := libstr.New(libstr.String, 1)
		Expect(s.AppendString([]byte("hello"))).ToNot(HaveOccurred())
		Expect(s.AppendString([]byte(""))).ToNot(HaveOccurred())
		Expect(s.AppendString([]byte("zs"))).ToNot(HaveOccurred())
		Expect(s.Commit(3)).ToNot(HaveOccurred())

		b := libcdc.SerializeStream(s)
		back, err := libcdc.DeserializeStream(libcdc.InfoOf(s), b)
		Expect(err).ToNot(HaveOccurred())
		Expect(back.StringLens()).To(Equal([]uint32{5, 0, 2}))
		Expect(back.Content()).To(Equal([]byte("hellozs")))
	})

	It("TC-CD-302: a corrupted declaration must be refused", func() {
		s := mkNumeric(4, 1, 2, 3)
		info := libcdc.InfoOf(s)
		info.NumElts = 4
		_, err := libcdc.DeserializeStream(info, libcdc.SerializeStream(s))
		Expect(err).To(HaveOccurred())
	})
})
