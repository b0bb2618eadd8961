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

package compressor

import (
	liberr "github.com/nabbar/zstream/errors"
	libwir "github.com/nabbar/zstream/wire"
)

// Parameter is one engine parameter key, settable on a builder and
// overridable per compress context.
type Parameter uint8

const (
	// ParamFormatVersion selects the encoded wire version. Required before
	// the first compress call.
	ParamFormatVersion Parameter = iota + 1
	// ParamCompressionLevel tunes the terminal codecs; semantics are
	// codec-specific.
	ParamCompressionLevel
	// ParamDecompressionLevel tunes decode-side codecs.
	ParamDecompressionLevel
	// ParamContentChecksum enables the trailing content checksum.
	ParamContentChecksum
	// ParamCompressedChecksum enables the trailing compressed-stream
	// checksum.
	ParamCompressedChecksum
	// ParamStickyParameters keeps explicitly set context parameters across
	// compress calls instead of resetting them after each call.
	ParamStickyParameters
)

func (p Parameter) String() string {
	switch p {
	case ParamFormatVersion:
		return "formatVersion"
	case ParamCompressionLevel:
		return "compressionLevel"
	case ParamDecompressionLevel:
		return "decompressionLevel"
	case ParamContentChecksum:
		return "contentChecksum"
	case ParamCompressedChecksum:
		return "compressedChecksum"
	case ParamStickyParameters:
		return "stickyParameters"
	}
	return "unknown"
}

// CheckParameter validates one parameter assignment. Format versions outside
// the advertised range are refused at set time.
func CheckParameter(p Parameter, v int64) error {
	switch p {
	case ParamFormatVersion:
		if v < int64(libwir.MinFormatVersion) || v > int64(libwir.MaxFormatVersion) {
			return liberr.New(liberr.CodeFormatVersionUnsupported, "format version %d outside [%d, %d]", v, libwir.MinFormatVersion, libwir.MaxFormatVersion)
		}
	case ParamContentChecksum, ParamCompressedChecksum, ParamStickyParameters:
		if v != 0 && v != 1 {
			return liberr.New(liberr.CodeInvalidRequest, "%s accepts 0 or 1, got %d", p.String(), v)
		}
	case ParamCompressionLevel, ParamDecompressionLevel:
		// codec-specific semantics, any integer accepted
	default:
		return liberr.New(liberr.CodeInvalidRequest, "unknown parameter %d", p)
	}
	return nil
}
