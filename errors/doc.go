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

// Package errors provides the error model of the compression engine: coded
// errors with captured call frames, and the scope context that stamps every
// error with the graph / node / transform active at the moment of failure.
//
// Every fallible operation of the engine returns a typed error built from
// this package instead of a bare string. An error carries:
//   - a stable CodeError from the closed engine taxonomy (wire-visible codes
//     keep their value forever)
//   - a root message, fixed at creation
//   - an ordered list of frames (file, function, line, formatted message),
//     one appended per forwarding site
//   - a GraphContext snapshot of the identifiers active when the error was
//     created
//
// Propagation discipline: a function forwarding an error appends a frame but
// never alters the original code or root message. Forwarding a logic error
// panics when the package runs in debug mode; in release mode the code is
// coerced to CodeGeneric so a programmer bug cannot masquerade as a
// recoverable condition.
//
// The OperationContext type is the per-compress/per-decompress owner of
// errors: it keeps one reusable slot per error code so repeated failures of
// the same kind do not allocate, and it maintains the scope stack consulted
// by New and Forward.
//
// Example usage:
//
//	import liberr "github.com/nabbar/zstream/errors"
//
//	if len(src) < minSize {
//	    return liberr.New(liberr.CodeSrcSizeTooSmall, "input has %d bytes, need %d", len(src), minSize)
//	}
//	if err != nil {
//	    return liberr.Forward(err, "while decoding chunk %d", idx)
//	}
package errors
