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

package thrift

import (
	"encoding/binary"

	liberr "github.com/nabbar/zstream/errors"
	libwir "github.com/nabbar/zstream/wire"
)

// compact element type nibbles of the supported shapes
const (
	ctI32   = 0x5
	ctI64   = 0x6
	ctFloat = 0xD
	ctList  = 0x9
	ctMap   = 0xB
)

func zigzagDec32(v uint32) uint32 {
	return (v >> 1) ^ -(v & 1)
}

func zigzagDec64(v uint64) uint64 {
	return (v >> 1) ^ -(v & 1)
}

type reader struct {
	src []byte
	pos int
}

func (r *reader) remaining() int {
	return len(r.src) - r.pos
}

func (r *reader) varint32Strict() (uint32, error) {
	v, n, err := libwir.DecodeVarint32Strict(r.src[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return uint32(v), nil
}

func (r *reader) varint64Strict() (uint64, error) {
	v, n, err := libwir.DecodeVarint64Strict(r.src[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

func (r *reader) i32() (uint32, error) {
	v, err := r.varint32Strict()
	if err != nil {
		return 0, err
	}
	return zigzagDec32(v), nil
}

func (r *reader) i64() (uint64, error) {
	v, err := r.varint64Strict()
	if err != nil {
		return 0, err
	}
	return zigzagDec64(v), nil
}

func (r *reader) float() (uint32, error) {
	if r.remaining() < 4 {
		return 0, liberr.New(liberr.CodeSrcSizeTooSmall, "truncated float")
	}
	v := binary.BigEndian.Uint32(r.src[r.pos:])
	r.pos += 4
	return v, nil
}

// mapHeader validates a map header against the expected key/value types and
// size.
func (r *reader) mapHeader(keyType, valType uint8, expected int) error {
	size, err := r.varint32Strict()
	if err != nil {
		return err
	}
	if size > 0 {
		if r.remaining() < 1 {
			return liberr.New(liberr.CodeSrcSizeTooSmall, "truncated map header")
		}
		kv := r.src[r.pos]
		r.pos++
		if keyType != 0 && kv>>4 != keyType {
			return liberr.New(liberr.CodeNodeInvalidInput, "map key type 0x%X, want 0x%X", kv>>4, keyType)
		}
		if valType != 0 && kv&0xF != valType {
			return liberr.New(liberr.CodeNodeInvalidInput, "map value type 0x%X, want 0x%X", kv&0xF, valType)
		}
	}
	if int(size) != expected {
		return liberr.New(liberr.CodeNodeInvalidInput, "map holds %d entries, caller declared %d", size, expected)
	}
	return nil
}

// listHeader decodes a list header, rejecting the long form for sizes the
// short form must carry.
func (r *reader) listHeader(elemType uint8) (int, error) {
	if r.remaining() < 1 {
		return 0, liberr.New(liberr.CodeSrcSizeTooSmall, "truncated list header")
	}
	b := r.src[r.pos]
	r.pos++
	if elemType != 0 && b&0xF != elemType {
		return 0, liberr.New(liberr.CodeNodeInvalidInput, "list element type 0x%X, want 0x%X", b&0xF, elemType)
	}
	size := int(b >> 4)
	if size == 0xF {
		s, err := r.varint32Strict()
		if err != nil {
			return 0, err
		}
		if s < 15 {
			return 0, liberr.New(liberr.CodeNodeInvalidInput, "non-canonical long list header for size %d", s)
		}
		size = int(s)
	}
	return size, nil
}

// validateContainerSize bounds the element count by the source size; every
// thrift element costs at least one byte.
func validateContainerSize(numKeys, numValues, srcSize int) error {
	if numKeys+numValues > srcSize {
		return liberr.New(liberr.CodeNodeInvalidInput, "container of %d elements is larger than the %d remaining source bytes allow", numKeys+numValues, srcSize)
	}
	return nil
}

type dynWriter32 struct {
	out   DynamicOutput32
	cur   []uint32
	pos   int
	idx   int
	total int
}

func (w *dynWriter32) push(v uint32) {
	if w.pos == len(w.cur) {
		w.cur = w.out.Next(w.idx, w.total)
		w.pos = 0
	}
	w.cur[w.pos] = v
	w.pos++
	w.idx++
}

func (w *dynWriter32) finish() {
	w.out.Finish(w.pos)
}

type dynWriter64 struct {
	out   DynamicOutput64
	cur   []uint64
	pos   int
	idx   int
	total int
}

func (w *dynWriter64) push(v uint64) {
	if w.pos == len(w.cur) {
		w.cur = w.out.Next(w.idx, w.total)
		w.pos = 0
	}
	w.cur[w.pos] = v
	w.pos++
	w.idx++
}

func (w *dynWriter64) finish() {
	w.out.Finish(w.pos)
}

// MapSize probes the entry count of the map starting at src.
func MapSize(src []byte) (int, error) {
	r := &reader{src: src}
	size, err := r.varint32Strict()
	if err != nil {
		return 0, err
	}
	if err = validateContainerSize(int(size), int(size), len(src)); err != nil {
		return 0, err
	}
	return int(size), nil
}

// ArraySize probes the element count of the list starting at src.
func ArraySize(src []byte) (int, error) {
	r := &reader{src: src}
	size, err := r.listHeader(0)
	if err != nil {
		return 0, err
	}
	if err = validateContainerSize(size, 0, len(src)); err != nil {
		return 0, err
	}
	return size, nil
}

// DeserializeMapI32Float extracts the keys and raw float bits of a
// map<i32,float> into the caller's parallel arrays. Returns the bytes
// consumed.
func DeserializeMapI32Float(keys, floats []uint32, src []byte, mapSize int) (int, error) {
	if err := validateContainerSize(mapSize, mapSize, len(src)); err != nil {
		return 0, err
	}

	r := &reader{src: src}
	if err := r.mapHeader(ctI32, ctFloat, mapSize); err != nil {
		return 0, err
	}

	for i := 0; i < mapSize; i++ {
		k, err := r.i32()
		if err != nil {
			return 0, err
		}
		keys[i] = k
		f, err := r.float()
		if err != nil {
			return 0, err
		}
		floats[i] = f
	}
	return r.pos, nil
}

// DeserializeMapI32ListFloat extracts keys, per-key list lengths and the
// flattened inner float bits of a map<i32,list<float>>.
func DeserializeMapI32ListFloat(keys, lengths []uint32, inner DynamicOutput32, src []byte, mapSize int) (int, error) {
	if err := validateContainerSize(mapSize, mapSize, len(src)); err != nil {
		return 0, err
	}

	r := &reader{src: src}
	if err := r.mapHeader(ctI32, ctList, mapSize); err != nil {
		return 0, err
	}

	w := &dynWriter32{out: inner, total: len(src) / 4}
	for i := 0; i < mapSize; i++ {
		k, err := r.i32()
		if err != nil {
			return 0, err
		}
		keys[i] = k

		size, err := r.listHeader(ctFloat)
		if err != nil {
			return 0, err
		}
		if size*4 > r.remaining() {
			return 0, liberr.New(liberr.CodeSrcSizeTooSmall, "inner list of %d floats exceeds the remaining %d bytes", size, r.remaining())
		}
		lengths[i] = uint32(size)
		for j := 0; j < size; j++ {
			f, err2 := r.float()
			if err2 != nil {
				return 0, err2
			}
			w.push(f)
		}
	}
	w.finish()
	return r.pos, nil
}

// DeserializeMapI32ListI64 extracts keys, per-key list lengths and the
// flattened inner values of a map<i32,list<i64>>.
func DeserializeMapI32ListI64(keys, lengths []uint32, inner DynamicOutput64, src []byte, mapSize int) (int, error) {
	if err := validateContainerSize(mapSize, mapSize, len(src)); err != nil {
		return 0, err
	}

	r := &reader{src: src}
	if err := r.mapHeader(ctI32, ctList, mapSize); err != nil {
		return 0, err
	}

	w := &dynWriter64{out: inner, total: len(src)}
	for i := 0; i < mapSize; i++ {
		k, err := r.i32()
		if err != nil {
			return 0, err
		}
		keys[i] = k

		size, err := r.listHeader(ctI64)
		if err != nil {
			return 0, err
		}
		// conservative bound: inner elements take at least one byte each
		if size > r.remaining() {
			return 0, liberr.New(liberr.CodeSrcSizeTooSmall, "inner list of %d values exceeds the remaining %d bytes", size, r.remaining())
		}
		lengths[i] = uint32(size)
		for j := 0; j < size; j++ {
			v, err2 := r.i64()
			if err2 != nil {
				return 0, err2
			}
			w.push(v)
		}
	}
	w.finish()
	return r.pos, nil
}

// DeserializeMapI32ListListI64 extracts keys, outer lengths, inner lengths
// and the doubly flattened values of a map<i32,list<list<i64>>>.
func DeserializeMapI32ListListI64(keys, lengths []uint32, innerLengths DynamicOutput32, values DynamicOutput64, src []byte, mapSize int) (int, error) {
	if err := validateContainerSize(mapSize, mapSize, len(src)); err != nil {
		return 0, err
	}

	r := &reader{src: src}
	if err := r.mapHeader(ctI32, ctList, mapSize); err != nil {
		return 0, err
	}

	wl := &dynWriter32{out: innerLengths, total: len(src)}
	wv := &dynWriter64{out: values, total: len(src)}
	for i := 0; i < mapSize; i++ {
		k, err := r.i32()
		if err != nil {
			return 0, err
		}
		keys[i] = k

		outerSize, err := r.listHeader(ctList)
		if err != nil {
			return 0, err
		}
		if outerSize > r.remaining() {
			return 0, liberr.New(liberr.CodeSrcSizeTooSmall, "inner list of %d lists exceeds the remaining %d bytes", outerSize, r.remaining())
		}
		lengths[i] = uint32(outerSize)

		for j := 0; j < outerSize; j++ {
			innerSize, err2 := r.listHeader(ctI64)
			if err2 != nil {
				return 0, err2
			}
			if innerSize > r.remaining() {
				return 0, liberr.New(liberr.CodeSrcSizeTooSmall, "innermost list of %d values exceeds the remaining %d bytes", innerSize, r.remaining())
			}
			wl.push(uint32(innerSize))
			for m := 0; m < innerSize; m++ {
				v, err3 := r.i64()
				if err3 != nil {
					return 0, err3
				}
				wv.push(v)
			}
		}
	}
	wl.finish()
	wv.finish()
	return r.pos, nil
}

// DeserializeMapI32MapI64Float extracts keys, per-key map sizes, inner keys
// and inner float bits of a map<i32,map<i64,float>>.
func DeserializeMapI32MapI64Float(keys, lengths []uint32, innerKeys DynamicOutput64, innerValues DynamicOutput32, src []byte, mapSize int) (int, error) {
	if err := validateContainerSize(mapSize, mapSize, len(src)); err != nil {
		return 0, err
	}

	r := &reader{src: src}
	if err := r.mapHeader(ctI32, ctMap, mapSize); err != nil {
		return 0, err
	}

	wk := &dynWriter64{out: innerKeys, total: len(src)}
	wv := &dynWriter32{out: innerValues, total: len(src)}
	for i := 0; i < mapSize; i++ {
		k, err := r.i32()
		if err != nil {
			return 0, err
		}
		keys[i] = k

		innerSize64, err := r.varint32Strict()
		if err != nil {
			return 0, err
		}
		innerSize := int(innerSize64)
		if innerSize > 0 {
			if r.remaining() < 1 {
				return 0, liberr.New(liberr.CodeSrcSizeTooSmall, "truncated inner map header")
			}
			kv := r.src[r.pos]
			r.pos++
			if kv>>4 != ctI64 || kv&0xF != ctFloat {
				return 0, liberr.New(liberr.CodeNodeInvalidInput, "inner map types 0x%X, want i64->float", kv)
			}
		}
		if innerSize*2 > r.remaining() {
			return 0, liberr.New(liberr.CodeSrcSizeTooSmall, "inner map of %d entries exceeds the remaining %d bytes", innerSize, r.remaining())
		}
		lengths[i] = uint32(innerSize)

		for j := 0; j < innerSize; j++ {
			ik, err2 := r.i64()
			if err2 != nil {
				return 0, err2
			}
			wk.push(ik)
			f, err2 := r.float()
			if err2 != nil {
				return 0, err2
			}
			wv.push(f)
		}
	}
	wk.finish()
	wv.finish()
	return r.pos, nil
}

// DeserializeArrayI32 extracts a list<i32> into the caller's array.
func DeserializeArrayI32(values []uint32, src []byte, arraySize int) (int, error) {
	if err := validateContainerSize(arraySize, 0, len(src)); err != nil {
		return 0, err
	}

	r := &reader{src: src}
	size, err := r.listHeader(ctI32)
	if err != nil {
		return 0, err
	}
	if size != arraySize {
		return 0, liberr.New(liberr.CodeNodeInvalidInput, "list holds %d entries, caller declared %d", size, arraySize)
	}

	for i := 0; i < arraySize; i++ {
		v, err2 := r.i32()
		if err2 != nil {
			return 0, err2
		}
		values[i] = v
	}
	return r.pos, nil
}

// DeserializeArrayI64 extracts a list<i64> into the caller's array.
func DeserializeArrayI64(values []uint64, src []byte, arraySize int) (int, error) {
	if err := validateContainerSize(arraySize, 0, len(src)); err != nil {
		return 0, err
	}

	r := &reader{src: src}
	size, err := r.listHeader(ctI64)
	if err != nil {
		return 0, err
	}
	if size != arraySize {
		return 0, liberr.New(liberr.CodeNodeInvalidInput, "list holds %d entries, caller declared %d", size, arraySize)
	}

	for i := 0; i < arraySize; i++ {
		v, err2 := r.i64()
		if err2 != nil {
			return 0, err2
		}
		values[i] = v
	}
	return r.pos, nil
}

// DeserializeArrayFloat extracts the raw float bits of a list<float>.
func DeserializeArrayFloat(values []uint32, src []byte, arraySize int) (int, error) {
	if err := validateContainerSize(arraySize, 0, len(src)); err != nil {
		return 0, err
	}

	r := &reader{src: src}
	size, err := r.listHeader(ctFloat)
	if err != nil {
		return 0, err
	}
	if size != arraySize {
		return 0, liberr.New(liberr.CodeNodeInvalidInput, "list holds %d entries, caller declared %d", size, arraySize)
	}

	for i := 0; i < arraySize; i++ {
		v, err2 := r.float()
		if err2 != nil {
			return 0, err2
		}
		values[i] = v
	}
	return r.pos, nil
}
