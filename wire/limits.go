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

// Version-dependent resource limits. Decoders consult these before any
// allocation; encoders before any write.

// MaxOutputStreams returns the maximum number of output streams a single
// transform may declare at the given version.
func MaxOutputStreams(version uint32) int {
	if version < 12 {
		return 8
	}
	return 16
}

// MaxRuntimeStreams returns the maximum number of concurrently live streams
// within one chunk at the given version.
func MaxRuntimeStreams(version uint32) int {
	if version < 12 {
		return 256
	}
	return 4096
}

// MaxChunkCount bounds the declared chunk count of a frame.
func MaxChunkCount(version uint32) int {
	return 1 << 16
}

// MaxTraceLength bounds the declared trace length of one chunk.
func MaxTraceLength(version uint32) int {
	return 1 << 16
}

// MaxFrameOutputs bounds the declared output count of a frame.
func MaxFrameOutputs(version uint32) int {
	if version < 12 {
		return 1 << 12
	}
	return 1 << 16
}
