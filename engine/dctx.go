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

// DCtx is a decompress context: a registry of decoders mirroring the
// encode-side codec identifiers, plus the replay machinery. Not safe for
// concurrent use.
type DCtx interface {

	// RegisterTypedDecoder mirrors a custom typed encoder.
	RegisterTypedDecoder(desc libcdc.Descriptor) error

	// RegisterPipeDecoder mirrors a custom variadic-input encoder.
	RegisterPipeDecoder(desc libcdc.Descriptor) error

	// RegisterSplitDecoder mirrors a custom split encoder.
	RegisterSplitDecoder(desc libcdc.Descriptor) error

	// SetParameter overrides one parameter for this context.
	SetParameter(p libcpr.Parameter, v int64) error

	// Decompress rebuilds the frame's outputs into dst as their
	// concatenated serializations and returns the byte count. On failure
	// dst must not be read.
	Decompress(dst, src []byte) (int, error)

	// DecompressMulti rebuilds the frame's typed outputs in original
	// order.
	DecompressMulti(src []byte) ([]libstr.Stream, error)
}

// NewDCtx returns a decompress context loaded with the built-in codec set.
func NewDCtx() DCtx {
	return newDCtx()
}

func newDCtx() *dctx {
	d := &dctx{
		decoders: make(map[uint32]*libcdc.Descriptor),
		params:   make(map[libcpr.Parameter]int64),
		ar:       libarn.New(0),
	}
	descs := libcdc.Builtin()
	for i := range descs {
		d.decoders[descs[i].ID] = &descs[i]
	}
	return d
}

// dctxFor mirrors a builder's full codec surface, built-ins plus customs,
// so selector tries can round-trip frames produced by that builder.
func dctxFor(b libcpr.Builder) *dctx {
	d := newDCtx()
	for _, id := range b.Nodes() {
		n, _ := b.Node(id)
		if _, ok := d.decoders[n.Codec.ID]; !ok {
			d.decoders[n.Codec.ID] = n.Codec
		}
	}
	return d
}

type dctx struct {
	decoders map[uint32]*libcdc.Descriptor
	params   map[libcpr.Parameter]int64
	ar       libarn.Arena
}

func (d *dctx) register(desc libcdc.Descriptor, kind libcdc.Kind) error {
	if desc.Kind != kind {
		return liberr.New(liberr.CodeInvalidRequest, "descriptor %q declares kind %d, expected %d", desc.Name, desc.Kind, kind)
	}
	if _, ok := d.decoders[desc.ID]; ok {
		return liberr.New(liberr.CodeInvalidRequest, "decoder id %d is already registered", desc.ID)
	}
	dd := desc
	d.decoders[desc.ID] = &dd
	return nil
}

func (d *dctx) RegisterTypedDecoder(desc libcdc.Descriptor) error {
	if desc.Kind == libcdc.KindTerminal {
		return d.register(desc, libcdc.KindTerminal)
	}
	return d.register(desc, libcdc.KindTyped)
}

func (d *dctx) RegisterPipeDecoder(desc libcdc.Descriptor) error {
	return d.register(desc, libcdc.KindPipe)
}

func (d *dctx) RegisterSplitDecoder(desc libcdc.Descriptor) error {
	return d.register(desc, libcdc.KindSplit)
}

func (d *dctx) SetParameter(p libcpr.Parameter, v int64) error {
	if err := libcpr.CheckParameter(p, v); err != nil {
		return err
	}
	d.params[p] = v
	return nil
}

func (d *dctx) Decompress(dst, src []byte) (int, error) {
	outs, err := d.DecompressMulti(src)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, o := range outs {
		total += len(libcdc.SerializeStream(o))
	}
	if len(dst) < total {
		return 0, liberr.New(liberr.CodeDstCapacityTooSmall, "outputs need %d bytes, destination holds %d", total, len(dst))
	}

	off := 0
	for _, o := range outs {
		off += copy(dst[off:], libcdc.SerializeStream(o))
	}
	return total, nil
}

func (d *dctx) DecompressMulti(src []byte) ([]libstr.Stream, error) {
	defer d.ar.Reset()

	op := liberr.NewOperationContext()

	h, err := parseFrameHeader(src)
	if err != nil {
		return nil, err
	}

	// the compressed checksum is verified before any decode work
	var contentCk uint32
	end := len(src)
	if h.compressedChecksum {
		region, e := h.checksumRegion(src)
		if e != nil {
			return nil, e
		}
		stored := binary.LittleEndian.Uint32(src[len(src)-libwir.ChecksumSize:])
		if libwir.Checksum(region) != stored {
			return nil, op.New(liberr.CodeCompressedChecksumWrong, "compressed checksum mismatch")
		}
		end -= libwir.ChecksumSize
	}
	if h.contentChecksum {
		if end < h.hdrSize+libwir.ChecksumSize {
			return nil, op.New(liberr.CodeSrcSizeTooSmall, "frame is too small for its content checksum")
		}
		contentCk = binary.LittleEndian.Uint32(src[end-libwir.ChecksumSize : end])
		end -= libwir.ChecksumSize
	}

	streams := make(map[int]libstr.Stream)
	c := h.hdrSize

	for chunk := 0; chunk < h.numChunks; chunk++ {
		c2, e := d.decodeChunk(op, h, src[:end], c, streams)
		if e != nil {
			return nil, e
		}
		c = c2
	}
	if c != end {
		return nil, op.New(liberr.CodeCorruption, "frame holds %d trailing bytes", end-c)
	}

	outs := make([]libstr.Stream, len(h.outputs))
	for i, decl := range h.outputs {
		s, ok := streams[i]
		if !ok {
			return nil, op.New(liberr.CodeCorruption, "frame output %d was not reconstructed", i)
		}
		got := libcdc.InfoOf(s)
		if got != decl {
			return nil, op.New(liberr.CodeCorruption, "frame output %d rebuilt as %s/%d x%d, declared %s/%d x%d",
				i, got.Type.String(), got.Width, got.NumElts, decl.Type.String(), decl.Width, decl.NumElts)
		}
		// restore the user metadata carried by the frame header
		if i < len(h.metas) {
			for k, v := range h.metas[i] {
				s.SetIntMeta(k, v)
			}
		}
		outs[i] = s
	}

	if h.contentChecksum {
		parts := make([][]byte, 0, len(outs))
		for _, o := range outs {
			parts = append(parts, libcdc.SerializeStream(o))
		}
		if libwir.ChecksumChain(parts...) != contentCk {
			return nil, op.New(liberr.CodeContentChecksumWrong, "content checksum mismatch")
		}
	}

	return outs, nil
}

// decodeChunk parses one chunk's trace, then replays the inverses in
// reverse order. Returns the offset past the chunk.
func (d *dctx) decodeChunk(op *liberr.OperationContext, h *frameHeader, src []byte, c int, streams map[int]libstr.Stream) (int, error) {
	tl64, n, err := libwir.DecodeVarint(src[c:])
	if err != nil {
		return 0, liberr.Forward(err, "chunk trace length")
	}
	c += n
	if int(tl64) > libwir.MaxTraceLength(h.version) {
		return 0, op.New(liberr.CodeCorruption, "chunk declares %d trace entries, limit is %d", tl64, libwir.MaxTraceLength(h.version))
	}

	limit := libwir.MaxRuntimeStreams(h.version)
	entries := make([]*traceEntry, 0, tl64)
	payloadTotal := 0
	for i := 0; i < int(tl64); i++ {
		e, n2, e2 := parseTraceEntry(src[c:], limit)
		if e2 != nil {
			return 0, liberr.Forward(e2, "trace entry %d", i)
		}
		c += n2
		if e.kind == entryTerminal {
			payloadTotal += e.payloadLen
		}
		entries = append(entries, e)
	}

	if c+payloadTotal > len(src) {
		return 0, op.New(liberr.CodeCorruption, "chunk payload overruns the frame")
	}

	// bind terminal payload slices in entry order
	off := c
	for _, e := range entries {
		if e.kind == entryTerminal {
			e.payload = src[off : off+e.payloadLen]
			off += e.payloadLen
		}
	}
	c += payloadTotal

	// replay inverses in reverse trace order
	for i := len(entries) - 1; i >= 0; i-- {
		if err = d.replay(op, entries[i], streams); err != nil {
			return 0, liberr.Forward(err, "replaying trace entry %d", i)
		}
	}
	return c, nil
}

func (d *dctx) replay(op *liberr.OperationContext, e *traceEntry, streams map[int]libstr.Stream) error {
	scope := liberr.EmptyGraphContext()
	scope.Node = int64(e.codecID)
	op.PushScope(scope)
	defer op.PopScope()

	desc, ok := d.decoders[e.codecID]
	if !ok {
		return op.New(liberr.CodeInvalidTransform, "no decoder registered for codec %d", e.codecID)
	}

	if e.kind == entryTerminal {
		if desc.TermDecode == nil {
			return op.New(liberr.CodeInvalidTransform, "codec %d is not a terminal decoder", e.codecID)
		}
		raw, err := desc.TermDecode(e.params, e.payload, e.info.ByteSize)
		if err != nil {
			return op.Forward(err, "terminal codec %q", desc.Name)
		}
		s, err := libcdc.DeserializeStream(e.info, raw)
		if err != nil {
			return op.Forward(err, "terminal codec %q", desc.Name)
		}
		if _, dup := streams[e.streamID]; dup {
			return op.New(liberr.CodeCorruption, "stream %d is produced twice", e.streamID)
		}
		streams[e.streamID] = s
		return nil
	}

	if desc.Decode == nil {
		return op.New(liberr.CodeInvalidTransform, "codec %d has no inverse", e.codecID)
	}

	outs := make([]libstr.Stream, len(e.outputIDs))
	for i, id := range e.outputIDs {
		s, ok2 := streams[id]
		if !ok2 {
			return op.New(liberr.CodeCorruption, "stream %d is consumed before being produced", id)
		}
		outs[i] = s
		delete(streams, id)
	}

	ins, err := desc.Decode(d.ar, e.params, e.header, outs)
	if err != nil {
		return op.Forward(err, "node %q", desc.Name)
	}
	if len(ins) != len(e.inputIDs) {
		return op.New(liberr.CodeCorruption, "node %q rebuilt %d inputs, trace declares %d", desc.Name, len(ins), len(e.inputIDs))
	}
	for i, id := range e.inputIDs {
		if ins[i] == nil || !ins[i].Committed() {
			return op.New(liberr.CodeCorruption, "node %q left input %d uncommitted", desc.Name, i)
		}
		if _, dup := streams[id]; dup {
			return op.New(liberr.CodeCorruption, "stream %d is produced twice", id)
		}
		streams[id] = ins[i]
	}
	return nil
}
