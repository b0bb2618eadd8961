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

package engine

import (
	"encoding/binary"

	libarn "github.com/nabbar/zstream/arena"
	libcdc "github.com/nabbar/zstream/codec"
	libcpr "github.com/nabbar/zstream/compressor"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
	libwir "github.com/nabbar/zstream/wire"
)

// Hooks are the introspection callbacks of a compress context. The list is
// mutable only between compress calls. Nil members are skipped.
type Hooks struct {
	// OnNodeStart fires before a node invocation with the input byte
	// sizes.
	OnNodeStart func(codecID uint32, graph libcpr.GraphID, inputSizes []int)
	// OnNodeEnd fires after a successful node invocation with the output
	// byte sizes.
	OnNodeEnd func(codecID uint32, outputSizes []int)
	// OnFrameDone fires once per successful compress call.
	OnFrameDone func(srcSize, dstSize int)
}

// CCtx is a compress context. Not safe for concurrent use; two contexts
// referencing the same frozen compressor may run from two goroutines.
type CCtx interface {

	// RefCompressor attaches a compressor registry and freezes it.
	RefCompressor(b libcpr.Builder) error

	// SetParameter overrides one parameter for this context.
	SetParameter(p libcpr.Parameter, v int64) error

	// Compress compresses a serial byte run into dst and returns the
	// frame size.
	Compress(dst, src []byte) (int, error)

	// CompressTypedRef compresses one typed stream.
	CompressTypedRef(dst []byte, in libstr.Stream) (int, error)

	// CompressMultiTypedRef compresses several typed streams into one
	// frame, preserving order across the round trip.
	CompressMultiTypedRef(dst []byte, ins []libstr.Stream) (int, error)

	// AttachIntrospectionHooks replaces the hook list. Only legal between
	// compress calls.
	AttachIntrospectionHooks(h *Hooks) error
}

// CompressBound returns a destination capacity sufficient for any frame
// produced from srcSize input bytes.
func CompressBound(srcSize int) int {
	return srcSize + srcSize/2 + 1024
}

// NewCCtx returns an empty compress context.
func NewCCtx() CCtx {
	return &cctx{
		params: make(map[libcpr.Parameter]int64),
		ar:     libarn.New(0),
	}
}

type cctx struct {
	b       libcpr.Builder
	params  map[libcpr.Parameter]int64
	hooks   *Hooks
	ar      libarn.Arena
	running bool
}

func (c *cctx) RefCompressor(b libcpr.Builder) error {
	if b == nil {
		return liberr.New(liberr.CodeInvalidRequest, "nil compressor")
	}
	b.Freeze()
	c.b = b
	return nil
}

func (c *cctx) SetParameter(p libcpr.Parameter, v int64) error {
	if err := libcpr.CheckParameter(p, v); err != nil {
		return err
	}
	c.params[p] = v
	return nil
}

func (c *cctx) AttachIntrospectionHooks(h *Hooks) error {
	if c.running {
		return liberr.New(liberr.CodeInvalidRequest, "hooks are mutable only between compress calls")
	}
	c.hooks = h
	return nil
}

func (c *cctx) param(p libcpr.Parameter) (int64, bool) {
	if v, ok := c.params[p]; ok {
		return v, true
	}
	if c.b == nil {
		return 0, false
	}
	return c.b.GetParameter(p)
}

func (c *cctx) Compress(dst, src []byte) (int, error) {
	in, err := libstr.RefConst(src, libstr.Serial, 1, len(src))
	if err != nil {
		return 0, err
	}
	defer in.Release()
	return c.CompressMultiTypedRef(dst, []libstr.Stream{in})
}

func (c *cctx) CompressTypedRef(dst []byte, in libstr.Stream) (int, error) {
	return c.CompressMultiTypedRef(dst, []libstr.Stream{in})
}

func (c *cctx) CompressMultiTypedRef(dst []byte, ins []libstr.Stream) (int, error) {
	if c.b == nil {
		return 0, liberr.New(liberr.CodeInvalidRequest, "no compressor referenced")
	}

	start, ok := c.b.StartingGraph()
	if !ok {
		return 0, liberr.New(liberr.CodeInvalidRequest, "no starting graph selected")
	}

	frame, err := c.compressInternal(ins, start, true)
	if err != nil {
		return 0, err
	}

	if len(dst) < len(frame) {
		return 0, liberr.New(liberr.CodeDstCapacityTooSmall, "frame needs %d bytes, destination holds %d", len(frame), len(dst))
	}
	copy(dst, frame)

	if !c.sticky() {
		// non-sticky explicit parameters reset after each call
		c.params = make(map[libcpr.Parameter]int64)
	}

	if c.hooks != nil && c.hooks.OnFrameDone != nil {
		srcSize := 0
		for _, in := range ins {
			srcSize += in.ByteSize()
		}
		c.hooks.OnFrameDone(srcSize, len(frame))
	}

	return len(frame), nil
}

func (c *cctx) sticky() bool {
	v, ok := c.param(libcpr.ParamStickyParameters)
	return ok && v != 0
}

// compressInternal builds a whole frame in memory; nothing escapes on
// failure. Selector tries reuse it with checksums disabled.
func (c *cctx) compressInternal(ins []libstr.Stream, start libcpr.GraphID, withChecksums bool) ([]byte, error) {
	v64, ok := c.param(libcpr.ParamFormatVersion)
	if !ok {
		return nil, liberr.New(liberr.CodeFormatVersionNotSet, "set formatVersion before compressing")
	}
	version := uint32(v64)

	for i, in := range ins {
		if in == nil || !in.Committed() {
			return nil, liberr.New(liberr.CodeInvalidRequest, "input %d is not a committed stream", i)
		}
	}
	if len(ins) == 0 {
		return nil, liberr.New(liberr.CodeInvalidRequest, "no inputs")
	}
	if len(ins) > libwir.MaxFrameOutputs(version) {
		return nil, liberr.New(liberr.CodeInvalidTransform, "%d inputs exceed the frame limit %d", len(ins), libwir.MaxFrameOutputs(version))
	}
	if c.running {
		return nil, liberr.New(liberr.CodeInvalidRequest, "compress context is already running")
	}

	c.running = true
	defer func() {
		c.running = false
		c.ar.Reset()
	}()

	ex := &exec{
		c:       c,
		op:      liberr.NewOperationContext(),
		version: version,
	}

	if err := ex.run(ins, start); err != nil {
		return nil, err
	}

	h := &frameHeader{
		version:   version,
		numChunks: 1,
	}
	if withChecksums {
		cv, _ := c.param(libcpr.ParamContentChecksum)
		kv, _ := c.param(libcpr.ParamCompressedChecksum)
		h.contentChecksum = cv != 0
		h.compressedChecksum = kv != 0
	}
	for _, in := range ins {
		h.outputs = append(h.outputs, libcdc.InfoOf(in))
		var m libcdc.Params
		for _, k := range in.IntMetaKeys() {
			if v, ok2 := in.GetIntMeta(k); ok2 {
				if m == nil {
					m = make(libcdc.Params)
				}
				m[k] = v
			}
		}
		h.metas = append(h.metas, m)
	}

	frame, err := h.serialize()
	if err != nil {
		return nil, err
	}

	// chunk: trace then payload blob
	frame = libwir.AppendVarint(frame, uint64(len(ex.entries)))
	for _, e := range ex.entries {
		frame = e.serialize(frame)
	}
	for _, e := range ex.entries {
		frame = append(frame, e.payload...)
	}

	if h.contentChecksum {
		parts := make([][]byte, 0, len(ins))
		for _, in := range ins {
			parts = append(parts, libcdc.SerializeStream(in))
		}
		frame = binary.LittleEndian.AppendUint32(frame, libwir.ChecksumChain(parts...))
	}
	if h.compressedChecksum {
		ph, perr := parseFrameHeader(frame)
		if perr != nil {
			return nil, liberr.Forward(perr, "verifying freshly built frame")
		}
		frame = binary.LittleEndian.AppendUint32(frame, libwir.Checksum(frame[ph.hdrSize:]))
	}

	return frame, nil
}
