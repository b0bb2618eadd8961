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

package parquet

import (
	"encoding/binary"
	"math"

	liberr "github.com/nabbar/zstream/errors"
	libwir "github.com/nabbar/zstream/wire"
)

// maxDepth bounds the thrift structure depth; parquet metadata never comes
// close.
const maxDepth = 100

// TType is the thrift field type as exposed to metadata readers.
type TType uint8

const (
	TStop TType = iota
	TVoid
	TBool
	TByte
	TI16
	TI32
	TI64
	TDouble
	TString
	TList
	TSet
	TMap
	TStruct
)

// compact wire type nibbles
const (
	ctStop        = 0x0
	ctBoolTrue    = 0x1
	ctBoolFalse   = 0x2
	ctByte        = 0x3
	ctI16         = 0x4
	ctI32         = 0x5
	ctI64         = 0x6
	ctDouble      = 0x7
	ctBinary      = 0x8
	ctList        = 0x9
	ctSet         = 0xA
	ctMap         = 0xB
	ctStruct      = 0xC
)

func ttypeOf(ct uint8) (TType, error) {
	switch ct {
	case ctStop:
		return TStop, nil
	case ctBoolTrue, ctBoolFalse:
		return TBool, nil
	case ctByte:
		return TByte, nil
	case ctI16:
		return TI16, nil
	case ctI32:
		return TI32, nil
	case ctI64:
		return TI64, nil
	case ctDouble:
		return TDouble, nil
	case ctBinary:
		return TString, nil
	case ctList:
		return TList, nil
	case ctSet:
		return TSet, nil
	case ctMap:
		return TMap, nil
	case ctStruct:
		return TStruct, nil
	}
	return TStop, liberr.New(liberr.CodeNodeInvalidInput, "unknown thrift compact type 0x%X", ct)
}

// ThriftReader walks a Thrift-compact byte run with strict bounds checks.
// Every read method returns the number of bytes consumed.
type ThriftReader struct {
	src []byte
	pos int

	hasBool bool
	boolVal bool

	lastFieldID int16
	fieldStack  []int16
	height      int
}

// NewThriftReader returns a reader over src.
func NewThriftReader(src []byte) *ThriftReader {
	return &ThriftReader{src: src, height: maxDepth}
}

// Remaining returns the unread byte count.
func (r *ThriftReader) Remaining() int {
	return len(r.src) - r.pos
}

func (r *ThriftReader) descend() error {
	r.height--
	if r.height == 0 {
		return liberr.New(liberr.CodeNodeInvalidInput, "thrift structure exceeds depth %d", maxDepth)
	}
	return nil
}

func (r *ThriftReader) ascend() {
	r.height++
}

func (r *ThriftReader) readVarint() (uint64, int, error) {
	v, n, err := libwir.DecodeVarint(r.src[r.pos:])
	if err != nil {
		return 0, 0, liberr.Forward(err, "thrift varint")
	}
	r.pos += n
	return v, n, nil
}

func (r *ThriftReader) readZigzag() (int64, int, error) {
	v, n, err := r.readVarint()
	if err != nil {
		return 0, 0, err
	}
	return int64(v>>1) ^ -int64(v&1), n, nil
}

// ReadStructBegin enters a struct, stacking the field-id context.
func (r *ThriftReader) ReadStructBegin() (int, error) {
	if err := r.descend(); err != nil {
		return 0, err
	}
	r.fieldStack = append(r.fieldStack, r.lastFieldID)
	r.lastFieldID = 0
	return 0, nil
}

// ReadStructEnd leaves a struct, restoring the field-id context.
func (r *ThriftReader) ReadStructEnd() (int, error) {
	r.ascend()
	if len(r.fieldStack) == 0 {
		return 0, liberr.New(liberr.CodeNodeInvalidInput, "struct end without begin")
	}
	r.lastFieldID = r.fieldStack[len(r.fieldStack)-1]
	r.fieldStack = r.fieldStack[:len(r.fieldStack)-1]
	return 0, nil
}

// ReadFieldBegin reads one field header; TStop ends the struct.
func (r *ThriftReader) ReadFieldBegin() (TType, int16, int, error) {
	b, read, err := r.ReadByte()
	if err != nil {
		return TStop, 0, 0, err
	}

	ct := uint8(b) & 0x0F
	if ct == ctStop {
		return TStop, 0, read, nil
	}

	var fieldID int16
	if modifier := int16(uint8(b) >> 4); modifier == 0 {
		id, n, e := r.readZigzag()
		if e != nil {
			return TStop, 0, 0, e
		}
		read += n
		fieldID = int16(id)
	} else {
		fieldID = r.lastFieldID + modifier
	}

	ft, err := ttypeOf(ct)
	if err != nil {
		return TStop, 0, 0, err
	}
	if ct == ctBoolTrue || ct == ctBoolFalse {
		r.hasBool = true
		r.boolVal = ct == ctBoolTrue
	}

	r.lastFieldID = fieldID
	return ft, fieldID, read, nil
}

// ReadMapBegin reads a map header; the key/value byte is absent for empty
// maps.
func (r *ThriftReader) ReadMapBegin() (TType, TType, int, int, error) {
	if err := r.descend(); err != nil {
		return TStop, TStop, 0, 0, err
	}

	size64, read, err := r.readVarint()
	if err != nil {
		return TStop, TStop, 0, 0, err
	}
	if size64 > uint64(r.Remaining()) {
		return TStop, TStop, 0, 0, liberr.New(liberr.CodeNodeInvalidInput, "map of %d entries exceeds the remaining %d bytes", size64, r.Remaining())
	}

	var kv int8
	if size64 != 0 {
		b, n, e := r.ReadByte()
		if e != nil {
			return TStop, TStop, 0, 0, e
		}
		read += n
		kv = b
	}

	kt, err := ttypeOf(uint8(kv) >> 4)
	if err != nil {
		return TStop, TStop, 0, 0, err
	}
	vt, err := ttypeOf(uint8(kv) & 0xF)
	if err != nil {
		return TStop, TStop, 0, 0, err
	}
	return kt, vt, int(size64), read, nil
}

// ReadMapEnd leaves a map.
func (r *ThriftReader) ReadMapEnd() (int, error) {
	r.ascend()
	return 0, nil
}

// ReadListBegin reads a list header; sizes 0..14 pack into the type byte.
func (r *ThriftReader) ReadListBegin() (TType, int, int, error) {
	if err := r.descend(); err != nil {
		return TStop, 0, 0, err
	}

	b, read, err := r.ReadByte()
	if err != nil {
		return TStop, 0, 0, err
	}

	size := int(uint8(b) >> 4)
	if size == 15 {
		s64, n, e := r.readVarint()
		if e != nil {
			return TStop, 0, 0, e
		}
		read += n
		if s64 > uint64(r.Remaining()) {
			return TStop, 0, 0, liberr.New(liberr.CodeNodeInvalidInput, "list of %d entries exceeds the remaining %d bytes", s64, r.Remaining())
		}
		size = int(s64)
	}

	et, err := ttypeOf(uint8(b) & 0x0F)
	if err != nil {
		return TStop, 0, 0, err
	}
	return et, size, read, nil
}

// ReadListEnd leaves a list.
func (r *ThriftReader) ReadListEnd() (int, error) {
	r.ascend()
	return 0, nil
}

// ReadSetBegin reads a set header (same wire shape as a list).
func (r *ThriftReader) ReadSetBegin() (TType, int, int, error) {
	return r.ReadListBegin()
}

// ReadSetEnd leaves a set.
func (r *ThriftReader) ReadSetEnd() (int, error) {
	return r.ReadListEnd()
}

// ReadBool consumes a bool, folded into the field header when read there.
func (r *ThriftReader) ReadBool() (bool, int, error) {
	if r.hasBool {
		r.hasBool = false
		return r.boolVal, 0, nil
	}
	b, n, err := r.ReadByte()
	if err != nil {
		return false, 0, err
	}
	return uint8(b) == ctBoolTrue, n, nil
}

// ReadByte consumes one raw byte.
func (r *ThriftReader) ReadByte() (int8, int, error) {
	if r.Remaining() < 1 {
		return 0, 0, liberr.New(liberr.CodeNodeInvalidInput, "thrift buffer exhausted")
	}
	b := int8(r.src[r.pos])
	r.pos++
	return b, 1, nil
}

// ReadI16 consumes a zigzag-varint i16.
func (r *ThriftReader) ReadI16() (int16, int, error) {
	v, n, err := r.readZigzag()
	return int16(v), n, err
}

// ReadI32 consumes a zigzag-varint i32.
func (r *ThriftReader) ReadI32() (int32, int, error) {
	v, n, err := r.readZigzag()
	return int32(v), n, err
}

// ReadI64 consumes a zigzag-varint i64.
func (r *ThriftReader) ReadI64() (int64, int, error) {
	return r.readZigzag()
}

// ReadDouble consumes an 8-byte little-endian double.
func (r *ThriftReader) ReadDouble() (float64, int, error) {
	if r.Remaining() < 8 {
		return 0, 0, liberr.New(liberr.CodeNodeInvalidInput, "thrift buffer exhausted")
	}
	bits := binary.LittleEndian.Uint64(r.src[r.pos:])
	r.pos += 8
	return math.Float64frombits(bits), 8, nil
}

// ReadString consumes a length-prefixed byte run.
func (r *ThriftReader) ReadString() (string, int, error) {
	size64, read, err := r.readVarint()
	if err != nil {
		return "", 0, err
	}
	if size64 > uint64(r.Remaining()) {
		return "", 0, liberr.New(liberr.CodeNodeInvalidInput, "string of %d bytes exceeds the remaining %d", size64, r.Remaining())
	}
	s := string(r.src[r.pos : r.pos+int(size64)])
	r.pos += int(size64)
	return s, read + int(size64), nil
}

// Skip consumes a whole field of the given type.
func (r *ThriftReader) Skip(t TType) (int, error) {
	switch t {
	case TBool:
		_, n, err := r.ReadBool()
		return n, err
	case TByte:
		_, n, err := r.ReadByte()
		return n, err
	case TI16:
		_, n, err := r.ReadI16()
		return n, err
	case TI32:
		_, n, err := r.ReadI32()
		return n, err
	case TI64:
		_, n, err := r.ReadI64()
		return n, err
	case TDouble:
		_, n, err := r.ReadDouble()
		return n, err
	case TString:
		_, n, err := r.ReadString()
		return n, err

	case TStruct:
		read, err := r.ReadStructBegin()
		if err != nil {
			return 0, err
		}
		for {
			ft, _, n, e := r.ReadFieldBegin()
			if e != nil {
				return 0, e
			}
			read += n
			if ft == TStop {
				break
			}
			n, e = r.Skip(ft)
			if e != nil {
				return 0, e
			}
			read += n
		}
		if _, err = r.ReadStructEnd(); err != nil {
			return 0, err
		}
		return read, nil

	case TMap:
		kt, vt, size, read, err := r.ReadMapBegin()
		if err != nil {
			return 0, err
		}
		for i := 0; i < size; i++ {
			n, e := r.Skip(kt)
			if e != nil {
				return 0, e
			}
			read += n
			if n, e = r.Skip(vt); e != nil {
				return 0, e
			}
			read += n
		}
		if _, err = r.ReadMapEnd(); err != nil {
			return 0, err
		}
		return read, nil

	case TList, TSet:
		et, size, read, err := r.ReadListBegin()
		if err != nil {
			return 0, err
		}
		for i := 0; i < size; i++ {
			n, e := r.Skip(et)
			if e != nil {
				return 0, e
			}
			read += n
		}
		if _, err = r.ReadListEnd(); err != nil {
			return 0, err
		}
		return read, nil
	}

	return 0, liberr.New(liberr.CodeNodeInvalidInput, "cannot skip thrift type %d", t)
}
