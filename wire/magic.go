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

package wire

import (
	"encoding/binary"

	liberr "github.com/nabbar/zstream/errors"
)

const (
	// MagicBase is the fixed little-endian base of the frame magic; the
	// encoded magic is MagicBase + formatVersion.
	MagicBase uint32 = 0x26F7C47A

	// MinFormatVersion is the oldest wire version this build decodes.
	MinFormatVersion uint32 = 8

	// MaxFormatVersion is the newest wire version this build encodes and
	// decodes.
	MaxFormatVersion uint32 = 16

	// MagicSize is the byte size of the magic+version field.
	MagicSize = 4

	// versionWindow bounds how far past MaxFormatVersion a magic is still
	// interpreted as a future version of this toolkit rather than a
	// foreign header.
	versionWindow uint32 = 256
)

// DefaultEncodingVersion is the version used when the caller asks for the
// library default.
func DefaultEncodingVersion() uint32 {
	return MaxFormatVersion
}

// IsFormatVersionSupported reports whether v lies in the advertised range.
func IsFormatVersionSupported(v uint32) bool {
	return v >= MinFormatVersion && v <= MaxFormatVersion
}

// MagicNumber returns the magic encoding the given version. The version must
// be supported.
func MagicNumber(version uint32) uint32 {
	return MagicBase + version
}

// WriteMagic writes the magic for the given version into dst, which must
// hold at least MagicSize bytes.
func WriteMagic(dst []byte, version uint32) error {
	if len(dst) < MagicSize {
		return liberr.New(liberr.CodeDstCapacityTooSmall, "magic needs %d bytes, have %d", MagicSize, len(dst))
	}
	if !IsFormatVersionSupported(version) {
		return liberr.New(liberr.CodeFormatVersionUnsupported, "version %d outside [%d, %d]", version, MinFormatVersion, MaxFormatVersion)
	}
	binary.LittleEndian.PutUint32(dst, MagicNumber(version))
	return nil
}

// VersionFromMagic maps a magic value back to its format version.
// A magic within the toolkit's window but outside [MinFormatVersion,
// MaxFormatVersion] yields CodeFormatVersionUnsupported; anything else
// (e.g. a zstd frame) yields CodeHeaderUnknown.
func VersionFromMagic(magic uint32) (uint32, error) {
	if magic < MagicBase || magic > MagicBase+MaxFormatVersion+versionWindow {
		return 0, liberr.New(liberr.CodeHeaderUnknown, "magic 0x%08X is not a frame of this toolkit", magic)
	}
	v := magic - MagicBase
	if !IsFormatVersionSupported(v) {
		return 0, liberr.New(liberr.CodeFormatVersionUnsupported, "version %d outside [%d, %d]", v, MinFormatVersion, MaxFormatVersion)
	}
	return v, nil
}

// VersionFromFrame reads the leading magic of a frame and returns its
// version.
func VersionFromFrame(frame []byte) (uint32, error) {
	if len(frame) < MagicSize {
		return 0, liberr.New(liberr.CodeSrcSizeTooSmall, "frame holds %d bytes, magic needs %d", len(frame), MagicSize)
	}
	return VersionFromMagic(binary.LittleEndian.Uint32(frame))
}
