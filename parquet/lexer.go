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

	"github.com/zeebo/xxh3"

	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

// Magic is the Parquet file magic, "PAR1" read little-endian.
const Magic uint32 = 0x31524150

const magicSize = 4

// minFileSize covers two magics plus the metadata length prefix.
const minFileSize = 2*magicSize + 4

// TokenKind classifies one lexed token.
type TokenKind uint8

const (
	TokenMagic TokenKind = iota
	TokenFooter
	TokenPageHeader
	TokenDataPage
)

// Token is one lexed region of the file. Offset and Size address the source
// buffer; Tag, DataType and DataWidth are populated for data pages only.
type Token struct {
	Kind   TokenKind
	Offset int
	Size   int

	Tag       uint32
	DataType  libstr.Type
	DataWidth int
}

// Lexer walks a whole in-memory Parquet file. Create with NewLexer, then
// call Init before Lex.
type Lexer struct {
	src    []byte
	pos    int
	footer int

	meta      *FileMeta
	readMagic bool

	chunkIdx   int
	chunkLexed int64
	pageHeader *PageHeader
}

// NewLexer returns an empty lexer.
func NewLexer() *Lexer {
	return &Lexer{}
}

// Init validates the file envelope and parses the trailing metadata.
// Success means the input may be a valid Parquet file; an error means it
// definitely is not one this lexer supports.
func (l *Lexer) Init(src []byte) error {
	if len(src) < minFileSize {
		return liberr.New(liberr.CodeNodeInvalidInput, "file holds %d bytes, a parquet file needs at least %d", len(src), minFileSize)
	}

	l.src = src
	l.pos = 0
	l.footer = len(src)
	l.readMagic = false
	l.chunkIdx = 0
	l.chunkLexed = 0
	l.pageHeader = nil

	if binary.LittleEndian.Uint32(src) != Magic {
		return liberr.New(liberr.CodeNodeInvalidInput, "unknown magic")
	}

	l.footer -= magicSize
	if binary.LittleEndian.Uint32(src[l.footer:]) != Magic {
		return liberr.New(liberr.CodeNodeInvalidInput, "unknown footer magic")
	}

	l.footer -= 4
	metaSize := binary.LittleEndian.Uint32(src[l.footer:])
	if uint64(metaSize) > uint64(l.remaining()) {
		return liberr.New(liberr.CodeNodeInvalidInput, "metadata of %d bytes exceeds the file", metaSize)
	}
	l.footer -= int(metaSize)

	r := NewThriftReader(src[l.footer : l.footer+int(metaSize)])
	meta, read, err := ReadFileMeta(r)
	if err != nil {
		return liberr.Forward(err, "reading file metadata")
	}
	if read != int(metaSize) {
		return liberr.New(liberr.CodeNodeInvalidInput, "metadata declares %d bytes, reader consumed %d", metaSize, read)
	}

	l.meta = meta
	return nil
}

// Meta returns the parsed file metadata.
func (l *Lexer) Meta() *FileMeta {
	return l.meta
}

// Finished reports whether the whole file has been lexed.
func (l *Lexer) Finished() bool {
	return l.meta != nil && l.pos == len(l.src)
}

// MaxNumTokens bounds the token count of a valid file.
func (l *Lexer) MaxNumTokens() (int, error) {
	if l.meta == nil {
		return 0, liberr.New(liberr.CodeInvalidRequest, "lexer is not initialized")
	}
	// TODO: tighten using page counts from the metadata
	return len(l.src), nil
}

// Lex fills out with up to len(out) tokens and returns the count. Once it
// returns less than len(out) the file is fully lexed and further calls
// return 0.
func (l *Lexer) Lex(out []Token) (int, error) {
	if l.meta == nil {
		return 0, liberr.New(liberr.CodeInvalidRequest, "lexer is not initialized")
	}

	n := 0
	for ; !l.Finished() && n < len(out); n++ {
		t, err := l.next()
		if err != nil {
			return 0, err
		}
		out[n] = t
	}
	return n, nil
}

func (l *Lexer) remaining() int {
	if l.pos > l.footer {
		return 0
	}
	return l.footer - l.pos
}

func (l *Lexer) next() (Token, error) {
	if !l.readMagic {
		l.readMagic = true
		t := Token{Kind: TokenMagic, Offset: l.pos, Size: magicSize}
		l.pos += magicSize
		return t, nil
	}

	if l.pos == l.footer {
		t := Token{Kind: TokenFooter, Offset: l.pos, Size: len(l.src) - l.footer}
		l.pos += t.Size
		return t, nil
	}

	if l.chunkIdx >= len(l.meta.ColumnChunks) {
		// all chunks lexed: the footer token runs from here to end of file
		t := Token{Kind: TokenFooter, Offset: l.pos, Size: len(l.src) - l.pos}
		l.pos = len(l.src)
		return t, nil
	}

	chunk := &l.meta.ColumnChunks[l.chunkIdx]
	chunkRemaining := chunk.NumBytes - l.chunkLexed
	if chunkRemaining == 0 {
		l.chunkIdx++
		l.chunkLexed = 0
		return l.next()
	}
	if chunkRemaining < 0 {
		return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "column chunk %d overran its declared size", l.chunkIdx)
	}
	if int64(l.remaining()) < chunkRemaining {
		return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "column chunk %d exceeds the file body", l.chunkIdx)
	}

	if l.pageHeader == nil {
		return l.lexPageHeader()
	}

	if l.pageHeader.Type == PageData {
		t, err := l.lexDataPage(chunk)
		l.pageHeader = nil
		return t, err
	}

	return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "unsupported page type %d in column chunk %d", l.pageHeader.Type, l.chunkIdx)
}

func (l *Lexer) lexPageHeader() (Token, error) {
	t := Token{Kind: TokenPageHeader, Offset: l.pos}

	r := NewThriftReader(l.src[l.pos : l.pos+l.remaining()])
	h, read, err := ReadPageHeader(r)
	if err != nil {
		return Token{}, liberr.Forward(err, "page header in column chunk %d", l.chunkIdx)
	}
	l.pos += read
	t.Size += read
	l.pageHeader = h

	// data pages fold the repetition/definition level block into the
	// header token so downstream sees only the payload
	if h.Type == PageData {
		if h.RLEncoding != EncodingRLE || h.DLEncoding != EncodingRLE {
			return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "levels of column chunk %d are not RLE encoded", l.chunkIdx)
		}
		if l.remaining() < 4 {
			return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "truncated level block in column chunk %d", l.chunkIdx)
		}
		lvlSize := binary.LittleEndian.Uint32(l.src[l.pos:])
		l.pos += 4
		t.Size += 4
		if uint64(l.remaining()) < uint64(lvlSize) {
			return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "level block of column chunk %d exceeds the file body", l.chunkIdx)
		}
		l.pos += int(lvlSize)
		t.Size += int(lvlSize)

		if int64(h.NumBytes) < int64(lvlSize)+4 {
			return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "page of column chunk %d is smaller than its level block", l.chunkIdx)
		}
		h.NumBytes -= int32(lvlSize) + 4
	}

	l.chunkLexed += int64(t.Size)
	return t, nil
}

func (l *Lexer) lexDataPage(chunk *ColumnChunkMeta) (Token, error) {
	if l.pageHeader.Encoding != EncodingPlain {
		return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "data page of column chunk %d is not PLAIN encoded", l.chunkIdx)
	}

	sm, ok := l.meta.Schema[chunk.Path.String()]
	if !ok {
		return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "unknown schema path %q", chunk.Path.String())
	}
	if sm.Type != chunk.Type {
		return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "schema and chunk disagree on the type of %q", chunk.Path.String())
	}

	t := Token{
		Kind:      TokenDataPage,
		Offset:    l.pos,
		Size:      int(l.pageHeader.NumBytes),
		Tag:       PathTag(chunk.Path),
		DataType:  chunk.Type.StreamType(),
		DataWidth: chunk.Type.StreamWidth(sm.TypeWidth),
	}
	if t.Size > l.remaining() {
		return Token{}, liberr.New(liberr.CodeNodeInvalidInput, "data page of column chunk %d exceeds the file body", l.chunkIdx)
	}

	l.pos += t.Size
	l.chunkLexed += int64(t.Size)
	return t, nil
}

// PathTag hashes a schema path so the same column shares a tag across row
// groups: each component is digested followed by its little-endian length.
func PathTag(path SchemaPath) uint32 {
	h := xxh3.New()
	var lenBuf [8]byte
	for _, part := range path {
		_, _ = h.WriteString(part)
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(part)))
		_, _ = h.Write(lenBuf[:])
	}
	return uint32(h.Sum64())
}
