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

package codec

import (
	"bytes"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/fse"
	"github.com/klauspost/compress/huff0"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"

	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

const (
	flagRaw   byte = 0
	flagCoded byte = 1
)

func builtinTerminals() []Descriptor {
	return []Descriptor{
		{
			ID:         IDStore,
			Name:       "store",
			Kind:       KindTerminal,
			InputMasks: []libstr.Type{libstr.Any},
			MinVersion: 8,
			TermEncode: storeEncode,
			TermDecode: storeDecode,
		},
		{
			ID:         IDZstd,
			Name:       "zstd",
			Kind:       KindTerminal,
			InputMasks: []libstr.Type{libstr.Any},
			MinVersion: 8,
			Defaults:   Params{ParamLevel: 3},
			TermEncode: zstdEncode,
			TermDecode: zstdDecode,
		},
		{
			ID:         IDLZ4,
			Name:       "lz4",
			Kind:       KindTerminal,
			InputMasks: []libstr.Type{libstr.Any},
			MinVersion: 9,
			TermEncode: lz4Encode,
			TermDecode: lz4Decode,
		},
		{
			ID:         IDLZMA,
			Name:       "lzma",
			Kind:       KindTerminal,
			InputMasks: []libstr.Type{libstr.Any},
			MinVersion: 12,
			TermEncode: lzmaEncode,
			TermDecode: lzmaDecode,
		},
		{
			ID:         IDBZ2,
			Name:       "bz2",
			Kind:       KindTerminal,
			InputMasks: []libstr.Type{libstr.Any},
			MinVersion: 12,
			Defaults:   Params{ParamLevel: int64(bzip2.DefaultCompression)},
			TermEncode: bz2Encode,
			TermDecode: bz2Decode,
		},
		{
			ID:         IDHuffman,
			Name:       "huffman",
			Kind:       KindTerminal,
			InputMasks: []libstr.Type{libstr.Any},
			MinVersion: 10,
			TermEncode: huffEncode,
			TermDecode: huffDecode,
		},
		{
			ID:         IDFSE,
			Name:       "fse",
			Kind:       KindTerminal,
			InputMasks: []libstr.Type{libstr.Any},
			MinVersion: 10,
			TermEncode: fseEncode,
			TermDecode: fseDecode,
		},
	}
}

func storeEncode(_ Params, src []byte) ([]byte, error) {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst, nil
}

func storeDecode(_ Params, src []byte, rawSize int) ([]byte, error) {
	if len(src) != rawSize {
		return nil, liberr.New(liberr.CodeCorruption, "store payload holds %d bytes, declared %d", len(src), rawSize)
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst, nil
}

func zstdEncode(p Params, src []byte) ([]byte, error) {
	lvl := zstd.EncoderLevelFromZstd(int(p.GetDefault(ParamLevel, 3)))

	w, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(lvl), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, liberr.New(liberr.CodeTransformExecution, "zstd writer: %v", err)
	}
	defer func() {
		_ = w.Close()
	}()

	return w.EncodeAll(src, nil), nil
}

func zstdDecode(_ Params, src []byte, rawSize int) ([]byte, error) {
	r, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(uint64(rawSize)+1024))
	if err != nil {
		return nil, liberr.New(liberr.CodeTransformExecution, "zstd reader: %v", err)
	}
	defer r.Close()

	dst, err := r.DecodeAll(src, make([]byte, 0, rawSize))
	if err != nil {
		return nil, liberr.New(liberr.CodeCorruption, "zstd payload: %v", err)
	}
	return checkRawSize(dst, rawSize)
}

func lz4Encode(_ Params, src []byte) ([]byte, error) {
	var c lz4.Compressor

	dst := make([]byte, 1+lz4.CompressBlockBound(len(src)))
	n, err := c.CompressBlock(src, dst[1:])

	if err != nil || n == 0 || n >= len(src) {
		// incompressible block, keep it raw
		out := make([]byte, 1+len(src))
		out[0] = flagRaw
		copy(out[1:], src)
		return out, nil
	}

	dst[0] = flagCoded
	return dst[:1+n], nil
}

func lz4Decode(_ Params, src []byte, rawSize int) ([]byte, error) {
	if len(src) < 1 {
		return nil, liberr.New(liberr.CodeSrcSizeTooSmall, "lz4 payload is empty")
	}
	if src[0] == flagRaw {
		return checkRawSize(append([]byte(nil), src[1:]...), rawSize)
	}

	dst := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(src[1:], dst)
	if err != nil {
		return nil, liberr.New(liberr.CodeCorruption, "lz4 payload: %v", err)
	}
	return checkRawSize(dst[:n], rawSize)
}

func lzmaEncode(_ Params, src []byte) ([]byte, error) {
	var b bytes.Buffer

	w, err := lzma.NewWriter(&b)
	if err != nil {
		return nil, liberr.New(liberr.CodeTransformExecution, "lzma writer: %v", err)
	}
	if _, err = w.Write(src); err != nil {
		return nil, liberr.New(liberr.CodeTransformExecution, "lzma write: %v", err)
	}
	if err = w.Close(); err != nil {
		return nil, liberr.New(liberr.CodeTransformExecution, "lzma close: %v", err)
	}

	return b.Bytes(), nil
}

func lzmaDecode(_ Params, src []byte, rawSize int) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, liberr.New(liberr.CodeCorruption, "lzma header: %v", err)
	}

	dst := make([]byte, 0, rawSize)
	buf := bytes.NewBuffer(dst)
	if _, err = io.Copy(buf, io.LimitReader(r, int64(rawSize)+1)); err != nil {
		return nil, liberr.New(liberr.CodeCorruption, "lzma payload: %v", err)
	}
	return checkRawSize(buf.Bytes(), rawSize)
}

func bz2Encode(p Params, src []byte) ([]byte, error) {
	var b bytes.Buffer

	w, err := bzip2.NewWriter(&b, &bzip2.WriterConfig{Level: int(p.GetDefault(ParamLevel, int64(bzip2.DefaultCompression)))})
	if err != nil {
		return nil, liberr.New(liberr.CodeTransformExecution, "bz2 writer: %v", err)
	}
	if _, err = w.Write(src); err != nil {
		return nil, liberr.New(liberr.CodeTransformExecution, "bz2 write: %v", err)
	}
	if err = w.Close(); err != nil {
		return nil, liberr.New(liberr.CodeTransformExecution, "bz2 close: %v", err)
	}

	return b.Bytes(), nil
}

func bz2Decode(_ Params, src []byte, rawSize int) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(src), nil)
	if err != nil {
		return nil, liberr.New(liberr.CodeCorruption, "bz2 header: %v", err)
	}

	dst := make([]byte, 0, rawSize)
	buf := bytes.NewBuffer(dst)
	if _, err = io.Copy(buf, io.LimitReader(r, int64(rawSize)+1)); err != nil {
		return nil, liberr.New(liberr.CodeCorruption, "bz2 payload: %v", err)
	}
	return checkRawSize(buf.Bytes(), rawSize)
}

func huffEncode(_ Params, src []byte) ([]byte, error) {
	s := &huff0.Scratch{}

	out, _, err := huff0.Compress1X(src, s)
	if err != nil {
		// incompressible, RLE-degenerate or oversized block, keep it raw
		dst := make([]byte, 1+len(src))
		dst[0] = flagRaw
		copy(dst[1:], src)
		return dst, nil
	}

	dst := make([]byte, 1+len(out))
	dst[0] = flagCoded
	copy(dst[1:], out)
	return dst, nil
}

func huffDecode(_ Params, src []byte, rawSize int) ([]byte, error) {
	if len(src) < 1 {
		return nil, liberr.New(liberr.CodeSrcSizeTooSmall, "huffman payload is empty")
	}
	if src[0] == flagRaw {
		return checkRawSize(append([]byte(nil), src[1:]...), rawSize)
	}

	s, remain, err := huff0.ReadTable(src[1:], nil)
	if err != nil {
		return nil, liberr.New(liberr.CodeCorruption, "huffman table: %v", err)
	}
	s.MaxDecodedSize = rawSize

	dst, err := s.Decompress1X(remain)
	if err != nil {
		return nil, liberr.New(liberr.CodeCorruption, "huffman payload: %v", err)
	}
	return checkRawSize(dst, rawSize)
}

func fseEncode(_ Params, src []byte) ([]byte, error) {
	s := &fse.Scratch{}

	out, err := fse.Compress(src, s)
	if err != nil {
		dst := make([]byte, 1+len(src))
		dst[0] = flagRaw
		copy(dst[1:], src)
		return dst, nil
	}

	dst := make([]byte, 1+len(out))
	dst[0] = flagCoded
	copy(dst[1:], out)
	return dst, nil
}

func fseDecode(_ Params, src []byte, rawSize int) ([]byte, error) {
	if len(src) < 1 {
		return nil, liberr.New(liberr.CodeSrcSizeTooSmall, "fse payload is empty")
	}
	if src[0] == flagRaw {
		return checkRawSize(append([]byte(nil), src[1:]...), rawSize)
	}

	s := &fse.Scratch{}
	s.DecompressLimit = rawSize

	dst, err := fse.Decompress(src[1:], s)
	if err != nil {
		return nil, liberr.New(liberr.CodeCorruption, "fse payload: %v", err)
	}
	return checkRawSize(dst, rawSize)
}

func checkRawSize(dst []byte, rawSize int) ([]byte, error) {
	if len(dst) != rawSize {
		return nil, liberr.New(liberr.CodeCorruption, "payload decoded to %d bytes, declared %d", len(dst), rawSize)
	}
	return dst, nil
}
