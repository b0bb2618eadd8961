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

import "errors"

// Error is the engine error. It extends the standard error with the stable
// code, the frame chain accumulated while propagating, and the graph context
// captured at creation.
//
// Forwarding keeps an Error's code and root message and only appends frames,
// except that a CodeLogic error forwarded in release mode takes CodeGeneric.
// An OperationContext reuses one Error value per code, so a later error of
// the same code from that context overwrites the earlier one. All read
// methods are safe for concurrent use.
type Error interface {
	error

	// Code returns the stable error code.
	Code() CodeError

	// IsCode reports whether the error's own code equals the given code.
	IsCode(code CodeError) bool

	// HasCode reports whether this error or any wrapped cause carries the
	// given code.
	HasCode(code CodeError) bool

	// Message returns the root message, fixed at creation.
	Message() string

	// Context returns the graph context captured when the error was created.
	Context() GraphContext

	// Frames returns the ordered forwarding frames, oldest first.
	Frames() []Frame

	// StringError renders code, root message, context and the reverse frame
	// chain into the user-visible report.
	StringError() string

	// Unwrap returns the wrapped cause, if any.
	Unwrap() error
}

// Frame is one propagation site: where an error was created or forwarded,
// and the message formatted there.
type Frame struct {
	File     string
	Function string
	Line     int
	Message  string
}

// New creates an Error with the given code and formatted root message,
// capturing the calling frame. The graph context is empty; engine code
// creates errors through an OperationContext to stamp the active context.
func New(code CodeError, msg string, args ...interface{}) Error {
	return newErrorSkip(4, code, msg, args...)
}

// Forward returns err with one frame appended, formatted from msg and args.
// The original code and root message are preserved. A non-engine error is
// wrapped under CodeGeneric with the cause attached. Forwarding a CodeLogic
// error panics in debug mode and coerces to CodeGeneric in release mode.
func Forward(err error, msg string, args ...interface{}) Error {
	return forwardSkip(4, err, msg, args...)
}

// Is reports whether err carries the given code, unwrapping as needed.
func Is(err error, code CodeError) bool {
	var e Error
	if errors.As(err, &e) {
		return e.HasCode(code)
	}
	return false
}

// CodeOf returns the code of err, or CodeUnknown for nil or non-engine
// errors.
func CodeOf(err error) CodeError {
	var e Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return CodeUnknown
}

// ContextString returns the user-visible report for err: the root code and
// message, the active graph/node/transform identifiers, and the reverse
// chain of forwarding sites.
func ContextString(err error) string {
	var e Error
	if errors.As(err, &e) {
		return e.StringError()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
