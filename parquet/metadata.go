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
	"strings"

	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

// DataType is the Parquet physical column type.
type DataType uint32

const (
	TypeBoolean DataType = 0
	TypeInt32   DataType = 1
	TypeInt64   DataType = 2
	// 3 (INT96) is deprecated and rejected
	TypeFloat             DataType = 4
	TypeDouble            DataType = 5
	TypeByteArray         DataType = 6
	TypeFixedLenByteArray DataType = 7
)

func dataTypeOf(v int32) (DataType, error) {
	switch v {
	case 0, 1, 2, 4, 5, 6, 7:
		return DataType(v), nil
	}
	return 0, liberr.New(liberr.CodeNodeInvalidInput, "invalid parquet data type %d", v)
}

// StreamType maps the column type to the engine stream type.
func (t DataType) StreamType() libstr.Type {
	switch t {
	case TypeInt32, TypeInt64, TypeFloat, TypeDouble:
		return libstr.Numeric
	case TypeFixedLenByteArray:
		return libstr.Struct
	default:
		return libstr.Serial
	}
}

// StreamWidth maps the column type to the engine element width; typeWidth
// supplies the fixed length of FIXED_LEN_BYTE_ARRAY columns.
func (t DataType) StreamWidth(typeWidth int) int {
	switch t {
	case TypeInt32, TypeFloat:
		return 4
	case TypeInt64, TypeDouble:
		return 8
	case TypeFixedLenByteArray:
		return typeWidth
	default:
		return 1
	}
}

// PageType is the Parquet page kind.
type PageType uint32

const (
	PageData       PageType = 0
	PageIndex      PageType = 1
	PageDictionary PageType = 2
	PageDataV2     PageType = 3
)

func pageTypeOf(v int32) (PageType, error) {
	switch v {
	case 0, 1, 2, 3:
		return PageType(v), nil
	}
	return 0, liberr.New(liberr.CodeNodeInvalidInput, "invalid parquet page type %d", v)
}

// Encoding is the Parquet page/level encoding.
type Encoding uint32

const (
	EncodingPlain          Encoding = 0
	EncodingPlainDict      Encoding = 2
	EncodingRLE            Encoding = 3
	EncodingBitPacked      Encoding = 4
	EncodingDeltaBinPacked Encoding = 5
	EncodingDeltaLenBA     Encoding = 6
	EncodingDeltaBA        Encoding = 7
	EncodingRLEDict        Encoding = 8
	EncodingByteStream     Encoding = 9
)

func encodingOf(v int32) (Encoding, error) {
	switch v {
	case 0, 2, 3, 4, 5, 6, 7, 8, 9:
		return Encoding(v), nil
	}
	return 0, liberr.New(liberr.CodeNodeInvalidInput, "invalid parquet encoding %d", v)
}

// SchemaPath is the dotted path of a column in the schema tree.
type SchemaPath []string

func (p SchemaPath) String() string {
	return strings.Join(p, ".")
}

// ColumnChunkMeta describes one column chunk of one row group.
type ColumnChunkMeta struct {
	Type     DataType
	NumBytes int64
	Path     SchemaPath
}

// SchemaMeta describes one leaf of the schema tree.
type SchemaMeta struct {
	Type      DataType
	TypeWidth int
}

// FileMeta is the parsed Parquet file metadata.
type FileMeta struct {
	NumRows      int64
	NumColumns   int
	NumRowGroups int
	ColumnChunks []ColumnChunkMeta
	Schema       map[string]SchemaMeta
}

// PageHeader is the parsed page header of one page.
type PageHeader struct {
	Type       PageType
	NumBytes   int32
	Encoding   Encoding
	DLEncoding Encoding
	RLEncoding Encoding
}

func readColumnChunkMeta(r *ThriftReader, m *ColumnChunkMeta) (int, error) {
	read, err := r.ReadStructBegin()
	if err != nil {
		return 0, err
	}

	for {
		ft, fid, n, e := r.ReadFieldBegin()
		if e != nil {
			return 0, e
		}
		read += n
		if ft == TStop {
			break
		}

		switch fid {
		case 1: // type
			if e = expect(ft, TI32); e != nil {
				return 0, e
			}
			v, n2, e2 := r.ReadI32()
			if e2 != nil {
				return 0, e2
			}
			read += n2
			if m.Type, e = dataTypeOf(v); e != nil {
				return 0, e
			}

		case 3: // path in schema
			if e = expect(ft, TList); e != nil {
				return 0, e
			}
			et, size, n2, e2 := r.ReadListBegin()
			if e2 != nil {
				return 0, e2
			}
			read += n2
			if e = expect(et, TString); e != nil {
				return 0, e
			}
			m.Path = make(SchemaPath, 0, size)
			for i := 0; i < size; i++ {
				s, n3, e3 := r.ReadString()
				if e3 != nil {
					return 0, e3
				}
				read += n3
				m.Path = append(m.Path, s)
			}
			if _, e = r.ReadListEnd(); e != nil {
				return 0, e
			}

		case 4: // compression codec
			if e = expect(ft, TI32); e != nil {
				return 0, e
			}
			v, n2, e2 := r.ReadI32()
			if e2 != nil {
				return 0, e2
			}
			read += n2
			if v != 0 {
				return 0, liberr.New(liberr.CodeNodeInvalidInput, "column chunk is compressed with codec %d", v)
			}

		case 6: // total uncompressed size
			if e = expect(ft, TI64); e != nil {
				return 0, e
			}
			v, n2, e2 := r.ReadI64()
			if e2 != nil {
				return 0, e2
			}
			read += n2
			m.NumBytes = v

		default:
			n2, e2 := r.Skip(ft)
			if e2 != nil {
				return 0, e2
			}
			read += n2
		}
	}

	if _, err = r.ReadStructEnd(); err != nil {
		return 0, err
	}
	return read, nil
}

func readColumnChunk(r *ThriftReader, m *ColumnChunkMeta) (int, error) {
	read, err := r.ReadStructBegin()
	if err != nil {
		return 0, err
	}

	for {
		ft, fid, n, e := r.ReadFieldBegin()
		if e != nil {
			return 0, e
		}
		read += n
		if ft == TStop {
			break
		}

		if fid == 3 { // column metadata
			if e = expect(ft, TStruct); e != nil {
				return 0, e
			}
			n, e = readColumnChunkMeta(r, m)
		} else {
			n, e = r.Skip(ft)
		}
		if e != nil {
			return 0, e
		}
		read += n
	}

	if _, err = r.ReadStructEnd(); err != nil {
		return 0, err
	}
	return read, nil
}

func readRowGroup(r *ThriftReader, m *FileMeta, row int) (int, error) {
	read, err := r.ReadStructBegin()
	if err != nil {
		return 0, err
	}

	for {
		ft, fid, n, e := r.ReadFieldBegin()
		if e != nil {
			return 0, e
		}
		read += n
		if ft == TStop {
			break
		}

		if fid == 1 { // column chunks
			if e = expect(ft, TList); e != nil {
				return 0, e
			}
			et, size, n2, e2 := r.ReadListBegin()
			if e2 != nil {
				return 0, e2
			}
			read += n2
			if e = expect(et, TStruct); e != nil {
				return 0, e
			}
			m.NumColumns = size
			if row == 0 {
				total := m.NumColumns * m.NumRowGroups
				if total > r.Remaining() {
					return 0, liberr.New(liberr.CodeNodeInvalidInput, "%d column chunks exceed the remaining %d bytes", total, r.Remaining())
				}
				m.ColumnChunks = make([]ColumnChunkMeta, total)
			}
			for i := 0; i < size; i++ {
				idx := row*m.NumColumns + i
				if idx >= len(m.ColumnChunks) {
					return 0, liberr.New(liberr.CodeNodeInvalidInput, "row groups disagree on column count")
				}
				n3, e3 := readColumnChunk(r, &m.ColumnChunks[idx])
				if e3 != nil {
					return 0, e3
				}
				read += n3
			}
			if _, e = r.ReadListEnd(); e != nil {
				return 0, e
			}
		} else {
			n2, e2 := r.Skip(ft)
			if e2 != nil {
				return 0, e2
			}
			read += n2
		}
	}

	if _, err = r.ReadStructEnd(); err != nil {
		return 0, err
	}
	return read, nil
}

type schemaElement struct {
	name        string
	isLeaf      bool
	typ         DataType
	typeWidth   int32
	numChildren int32
}

func readSchemaElement(r *ThriftReader, e *schemaElement) (int, error) {
	read, err := r.ReadStructBegin()
	if err != nil {
		return 0, err
	}

	for {
		ft, fid, n, e2 := r.ReadFieldBegin()
		if e2 != nil {
			return 0, e2
		}
		read += n
		if ft == TStop {
			break
		}

		switch fid {
		case 1: // type, leaves only
			if e2 = expect(ft, TI32); e2 != nil {
				return 0, e2
			}
			v, n2, e3 := r.ReadI32()
			if e3 != nil {
				return 0, e3
			}
			read += n2
			if e.typ, e2 = dataTypeOf(v); e2 != nil {
				return 0, e2
			}
			e.isLeaf = true

		case 2: // type length
			if e2 = expect(ft, TI32); e2 != nil {
				return 0, e2
			}
			v, n2, e3 := r.ReadI32()
			if e3 != nil {
				return 0, e3
			}
			read += n2
			e.typeWidth = v

		case 4: // name
			if e2 = expect(ft, TString); e2 != nil {
				return 0, e2
			}
			s, n2, e3 := r.ReadString()
			if e3 != nil {
				return 0, e3
			}
			read += n2
			e.name = s

		case 5: // num children
			if e2 = expect(ft, TI32); e2 != nil {
				return 0, e2
			}
			v, n2, e3 := r.ReadI32()
			if e3 != nil {
				return 0, e3
			}
			read += n2
			e.numChildren = v

		default:
			n2, e3 := r.Skip(ft)
			if e3 != nil {
				return 0, e3
			}
			read += n2
		}
	}

	if _, err = r.ReadStructEnd(); err != nil {
		return 0, err
	}
	return read, nil
}

// populateSchema turns the preorder element list into path-keyed leaf
// metadata.
func populateSchema(elems []schemaElement, schema map[string]SchemaMeta) error {
	if len(elems) == 0 {
		return nil
	}

	type frame struct {
		children int32
		path     SchemaPath
	}
	stack := []frame{{children: elems[0].numChildren}}

	for _, e := range elems[1:] {
		if len(stack) == 0 {
			return liberr.New(liberr.CodeNodeInvalidInput, "schema tree is malformed")
		}
		top := &stack[len(stack)-1]
		path := append(append(SchemaPath{}, top.path...), e.name)
		top.children--
		if top.children == 0 {
			stack = stack[:len(stack)-1]
		}

		if !e.isLeaf {
			stack = append(stack, frame{children: e.numChildren, path: path})
			continue
		}

		key := path.String()
		if _, dup := schema[key]; dup {
			return liberr.New(liberr.CodeNodeInvalidInput, "duplicate schema path %q", key)
		}
		schema[key] = SchemaMeta{Type: e.typ, TypeWidth: int(e.typeWidth)}
	}
	return nil
}

// ReadFileMeta parses the Thrift-compact FileMetaData struct.
func ReadFileMeta(r *ThriftReader) (*FileMeta, int, error) {
	m := &FileMeta{Schema: make(map[string]SchemaMeta)}

	read, err := r.ReadStructBegin()
	if err != nil {
		return nil, 0, err
	}

	for {
		ft, fid, n, e := r.ReadFieldBegin()
		if e != nil {
			return nil, 0, e
		}
		read += n
		if ft == TStop {
			break
		}

		switch fid {
		case 2: // schema elements
			if e = expect(ft, TList); e != nil {
				return nil, 0, e
			}
			et, size, n2, e2 := r.ReadListBegin()
			if e2 != nil {
				return nil, 0, e2
			}
			read += n2
			if e = expect(et, TStruct); e != nil {
				return nil, 0, e
			}
			if size > r.Remaining() {
				return nil, 0, liberr.New(liberr.CodeNodeInvalidInput, "%d schema elements exceed the remaining %d bytes", size, r.Remaining())
			}
			elems := make([]schemaElement, size)
			for i := 0; i < size; i++ {
				n3, e3 := readSchemaElement(r, &elems[i])
				if e3 != nil {
					return nil, 0, e3
				}
				read += n3
			}
			if e = populateSchema(elems, m.Schema); e != nil {
				return nil, 0, e
			}
			if _, e = r.ReadListEnd(); e != nil {
				return nil, 0, e
			}

		case 3: // num rows
			if e = expect(ft, TI64); e != nil {
				return nil, 0, e
			}
			v, n2, e2 := r.ReadI64()
			if e2 != nil {
				return nil, 0, e2
			}
			read += n2
			m.NumRows = v

		case 4: // row groups
			if e = expect(ft, TList); e != nil {
				return nil, 0, e
			}
			et, size, n2, e2 := r.ReadListBegin()
			if e2 != nil {
				return nil, 0, e2
			}
			read += n2
			if e = expect(et, TStruct); e != nil {
				return nil, 0, e
			}
			m.NumRowGroups = size
			for i := 0; i < size; i++ {
				n3, e3 := readRowGroup(r, m, i)
				if e3 != nil {
					return nil, 0, e3
				}
				read += n3
			}
			if _, e = r.ReadListEnd(); e != nil {
				return nil, 0, e
			}

		default:
			n2, e2 := r.Skip(ft)
			if e2 != nil {
				return nil, 0, e2
			}
			read += n2
		}
	}

	if _, err = r.ReadStructEnd(); err != nil {
		return nil, 0, err
	}
	return m, read, nil
}

func readDataPageHeader(r *ThriftReader, h *PageHeader) (int, error) {
	read, err := r.ReadStructBegin()
	if err != nil {
		return 0, err
	}

	for {
		ft, fid, n, e := r.ReadFieldBegin()
		if e != nil {
			return 0, e
		}
		read += n
		if ft == TStop {
			break
		}

		switch fid {
		case 2, 3, 4: // encoding, dl encoding, rl encoding
			if e = expect(ft, TI32); e != nil {
				return 0, e
			}
			v, n2, e2 := r.ReadI32()
			if e2 != nil {
				return 0, e2
			}
			read += n2
			enc, e3 := encodingOf(v)
			if e3 != nil {
				return 0, e3
			}
			switch fid {
			case 2:
				h.Encoding = enc
			case 3:
				h.DLEncoding = enc
			case 4:
				h.RLEncoding = enc
			}

		default:
			n2, e2 := r.Skip(ft)
			if e2 != nil {
				return 0, e2
			}
			read += n2
		}
	}

	if _, err = r.ReadStructEnd(); err != nil {
		return 0, err
	}
	return read, nil
}

// ReadPageHeader parses the Thrift-compact PageHeader struct.
func ReadPageHeader(r *ThriftReader) (*PageHeader, int, error) {
	h := &PageHeader{}

	read, err := r.ReadStructBegin()
	if err != nil {
		return nil, 0, err
	}

	for {
		ft, fid, n, e := r.ReadFieldBegin()
		if e != nil {
			return nil, 0, e
		}
		read += n
		if ft == TStop {
			break
		}

		switch fid {
		case 1: // page type
			if e = expect(ft, TI32); e != nil {
				return nil, 0, e
			}
			v, n2, e2 := r.ReadI32()
			if e2 != nil {
				return nil, 0, e2
			}
			read += n2
			if h.Type, e = pageTypeOf(v); e != nil {
				return nil, 0, e
			}

		case 2: // uncompressed page size
			if e = expect(ft, TI32); e != nil {
				return nil, 0, e
			}
			v, n2, e2 := r.ReadI32()
			if e2 != nil {
				return nil, 0, e2
			}
			read += n2
			h.NumBytes = v

		case 5: // data page header
			if e = expect(ft, TStruct); e != nil {
				return nil, 0, e
			}
			n2, e2 := readDataPageHeader(r, h)
			if e2 != nil {
				return nil, 0, e2
			}
			read += n2

		default:
			n2, e2 := r.Skip(ft)
			if e2 != nil {
				return nil, 0, e2
			}
			read += n2
		}
	}

	if _, err = r.ReadStructEnd(); err != nil {
		return nil, 0, err
	}
	return h, read, nil
}

func expect(got, want TType) error {
	if got != want {
		return liberr.New(liberr.CodeNodeInvalidInput, "unexpected thrift type %d, want %d", got, want)
	}
	return nil
}
