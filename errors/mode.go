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

import "sync/atomic"

// ErrorMode selects the behavior on forwarded logic errors.
type ErrorMode uint8

const (
	// ModeRelease coerces forwarded logic errors to CodeGeneric.
	ModeRelease ErrorMode = iota
	// ModeDebug panics on forwarded logic errors.
	ModeDebug
)

var modeError atomic.Uint32

// SetMode sets the process-wide error mode. Intended to be called once at
// startup; safe for concurrent use.
func SetMode(mode ErrorMode) {
	modeError.Store(uint32(mode))
}

// Mode returns the process-wide error mode.
func Mode() ErrorMode {
	return ErrorMode(modeError.Load())
}

func (m ErrorMode) String() string {
	if m == ModeDebug {
		return "debug"
	}
	return "release"
}
