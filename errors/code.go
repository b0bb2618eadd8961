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

package errors

import (
	"fmt"
	"strconv"
)

// CodeError is a stable numeric error code. The engine taxonomy below is
// closed: codes marked wire-visible keep their numeric value across format
// versions because decoders report them for frames produced by any encoder.
type CodeError uint16

const (
	// CodeUnknown is the zero value, never returned by the engine.
	CodeUnknown CodeError = 0

	// CodeGeneric is the catch-all failure code, and the release-mode
	// coercion target for forwarded logic errors.
	CodeGeneric CodeError = iota
	// CodeAllocation reports an allocation failure; fatal to the operation.
	CodeAllocation
	// CodeCorruption reports malformed frame content detected during decode.
	CodeCorruption
	// CodeSrcSizeTooSmall reports a source buffer shorter than required.
	CodeSrcSizeTooSmall
	// CodeDstCapacityTooSmall reports a destination buffer too small for the
	// produced output.
	CodeDstCapacityTooSmall
	// CodeNodeInvalidInput reports an input a node cannot accept.
	CodeNodeInvalidInput
	// CodeGraphInvalid reports an ill-formed graph (bad wiring, unroutable
	// edge, type mismatch without conversion).
	CodeGraphInvalid
	// CodeFormatVersionUnsupported reports a format version outside the
	// advertised range, or a node whose inverse postdates the negotiated
	// version.
	CodeFormatVersionUnsupported
	// CodeFormatVersionNotSet reports a compression attempt without a
	// configured format version.
	CodeFormatVersionNotSet
	// CodeContentChecksumWrong reports a content checksum mismatch.
	CodeContentChecksumWrong
	// CodeCompressedChecksumWrong reports a compressed-stream checksum
	// mismatch.
	CodeCompressedChecksumWrong
	// CodeHeaderUnknown reports frame bytes that do not start with any magic
	// of this engine.
	CodeHeaderUnknown
	// CodeTransformExecution reports a codec whose execution failed in a way
	// that indicates a codec bug.
	CodeTransformExecution
	// CodeLogic reports a programmer bug. Forwarding it panics in debug mode.
	CodeLogic
	// CodeInternalBufferTooSmall reports a codec-internal capacity miss; the
	// parent may retry another strategy.
	CodeInternalBufferTooSmall
	// CodeInvalidTransform reports a transform exceeding engine limits.
	CodeInvalidTransform
	// CodeInvalidRequest reports an API misuse the caller can fix.
	CodeInvalidRequest

	// MinAvailable is the first code available for registration outside this
	// package.
	MinAvailable CodeError = 4000
)

// Message is a function returning the description of an error code.
type Message func(code CodeError) string

var idMsgFct = map[CodeError]Message{
	CodeGeneric: getKernelMessage,
}

func init() {
	for c := CodeGeneric; c <= CodeInvalidRequest; c++ {
		idMsgFct[c] = getKernelMessage
	}
}

// RegisterIdFctMessage registers a message function for codes starting at the
// given base. Registering over an existing code is a programming error.
func RegisterIdFctMessage(base CodeError, fct Message) {
	if _, ok := idMsgFct[base]; ok {
		panic(fmt.Errorf("error code collision zstream/errors: %d", base))
	}
	idMsgFct[base] = fct
}

// ExistInMapMessage reports whether a message function is registered for the
// given code.
func ExistInMapMessage(code CodeError) bool {
	_, ok := idMsgFct[code]
	return ok
}

func getKernelMessage(code CodeError) string {
	switch code {
	case CodeGeneric:
		return "generic engine failure"
	case CodeAllocation:
		return "allocation failed"
	case CodeCorruption:
		return "frame content is corrupted"
	case CodeSrcSizeTooSmall:
		return "source size is too small"
	case CodeDstCapacityTooSmall:
		return "destination capacity is too small"
	case CodeNodeInvalidInput:
		return "input is not valid for this node"
	case CodeGraphInvalid:
		return "graph is invalid"
	case CodeFormatVersionUnsupported:
		return "format version is unsupported"
	case CodeFormatVersionNotSet:
		return "format version is not set"
	case CodeContentChecksumWrong:
		return "content checksum does not match"
	case CodeCompressedChecksumWrong:
		return "compressed checksum does not match"
	case CodeHeaderUnknown:
		return "frame header is unknown"
	case CodeTransformExecution:
		return "transform execution failed"
	case CodeLogic:
		return "logic error"
	case CodeInternalBufferTooSmall:
		return "internal buffer is too small"
	case CodeInvalidTransform:
		return "transform is invalid"
	case CodeInvalidRequest:
		return "request is invalid"
	}
	return ""
}

// Uint16 returns the code as its wire representation.
func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

func (c CodeError) String() string {
	return strconv.Itoa(int(c))
}

// Description returns the registered description for the code, or an empty
// string when none is registered.
func (c CodeError) Description() string {
	if f, ok := idMsgFct[c]; ok {
		return f(c)
	}
	return ""
}

// Error builds a new Error for this code using the registered description as
// root message. The parent, if not nil, is attached as cause.
func (c CodeError) Error(parent error) Error {
	e := newError(c, c.Description())
	if parent != nil {
		e.p = parent
	}
	return e
}

// IsRecoverable reports whether the code belongs to the class a parent codec
// or selector may catch and work around.
func (c CodeError) IsRecoverable() bool {
	switch c {
	case CodeNodeInvalidInput, CodeInternalBufferTooSmall,
		CodeSrcSizeTooSmall, CodeDstCapacityTooSmall:
		return true
	default:
		return false
	}
}
