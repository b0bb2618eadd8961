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

package cluster

import (
	libcdc "github.com/nabbar/zstream/codec"
	libcpr "github.com/nabbar/zstream/compressor"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

// MetaTag is the stream metadata key carrying the clustering tag (e.g. the
// column identifier derived from a schema path).
const MetaTag = 1

// Codec selects the concat codec of one cluster.
type Codec uint8

const (
	CodecSerial Codec = iota
	CodecNumeric
	CodecString
)

func (c Codec) streamType() libstr.Type {
	switch c {
	case CodecNumeric:
		return libstr.Numeric
	case CodecString:
		return libstr.String
	default:
		return libstr.Serial
	}
}

func (c Codec) codecID() uint32 {
	switch c {
	case CodecNumeric:
		return libcdc.IDConcatNumeric
	case CodecString:
		return libcdc.IDConcatString
	default:
		return libcdc.IDConcatSerial
	}
}

// Cluster declares one group: the tags that belong to it, the expected
// member type and width, the concat codec, and the successor index into the
// configuration's successor table.
type Cluster struct {
	Tags         []int64
	Type         libstr.Type
	Width        int
	Codec        Codec
	SuccessorIdx int
}

// Config is a full clustering declaration.
type Config struct {
	Clusters []Cluster

	// Successors is the shared successor table clusters index into.
	Successors []libcpr.GraphID

	// TypeDefaults routes unassigned streams by type.
	TypeDefaults map[libstr.Type]libcpr.GraphID
}

// Validate checks the configuration invariants: single types with legal
// widths, codec/type agreement, successor indices in range, and tag
// disjointness between clusters sharing (type, width).
func (c *Config) Validate() error {
	type key struct {
		t libstr.Type
		w int
	}
	seen := make(map[key]map[int64]int)

	for i, cl := range c.Clusters {
		if !cl.Type.IsSingle() {
			return liberr.New(liberr.CodeInvalidRequest, "cluster %d declares a type mask, need a single type", i)
		}
		if !cl.Type.ValidWidth(cl.Width) {
			return liberr.New(liberr.CodeInvalidRequest, "cluster %d declares width %d for %s", i, cl.Width, cl.Type.String())
		}
		if cl.Codec.streamType() != cl.Type {
			return liberr.New(liberr.CodeInvalidRequest, "cluster %d pairs a %s codec with %s members", i, cl.Codec.streamType().String(), cl.Type.String())
		}
		if cl.SuccessorIdx < 0 || cl.SuccessorIdx >= len(c.Successors) {
			return liberr.New(liberr.CodeInvalidRequest, "cluster %d indexes successor %d of %d", i, cl.SuccessorIdx, len(c.Successors))
		}
		if len(cl.Tags) == 0 {
			return liberr.New(liberr.CodeInvalidRequest, "cluster %d has no tags", i)
		}

		k := key{cl.Type, cl.Width}
		if seen[k] == nil {
			seen[k] = make(map[int64]int)
		}
		for _, tag := range cl.Tags {
			if prev, dup := seen[k][tag]; dup {
				return liberr.New(liberr.CodeInvalidRequest, "tag %d belongs to clusters %d and %d of the same type and width", tag, prev, i)
			}
			seen[k][tag] = i
		}
	}
	return nil
}

func (c *Config) clusterFor(tag int64, t libstr.Type, w int) (int, bool) {
	for i, cl := range c.Clusters {
		if cl.Type != t || cl.Width != w {
			continue
		}
		for _, ct := range cl.Tags {
			if ct == tag {
				return i, true
			}
		}
	}
	return 0, false
}
