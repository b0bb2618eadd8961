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
	"strings"
)

type ers struct {
	c CodeError
	m string
	g GraphContext
	f []Frame
	p error
}

func newError(code CodeError, msg string, args ...interface{}) *ers {
	return newErrorSkip(4, code, msg, args...)
}

func newErrorSkip(skip int, code CodeError, msg string, args ...interface{}) *ers {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &ers{
		c: code,
		m: msg,
		g: EmptyGraphContext(),
		f: []Frame{getFrameSkip(skip, msg)},
	}
}

func forwardSkip(skip int, err error, msg string, args ...interface{}) Error {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	e, ok := err.(*ers)
	if !ok {
		w := newErrorSkip(skip+1, CodeGeneric, err.Error())
		w.p = err
		w.f = append(w.f, getFrameSkip(skip, msg))
		return w
	}

	if e.c == CodeLogic {
		if Mode() == ModeDebug {
			panic(fmt.Errorf("forwarding logic error: %s", e.StringError()))
		}
		e.c = CodeGeneric
	}

	e.f = append(e.f, getFrameSkip(skip, msg))
	return e
}

func (e *ers) Code() CodeError {
	return e.c
}

func (e *ers) IsCode(code CodeError) bool {
	return e.c == code
}

func (e *ers) HasCode(code CodeError) bool {
	if e.c == code {
		return true
	}
	if p, ok := e.p.(Error); ok {
		return p.HasCode(code)
	}
	return false
}

func (e *ers) Message() string {
	return e.m
}

func (e *ers) Context() GraphContext {
	return e.g
}

func (e *ers) Frames() []Frame {
	f := make([]Frame, len(e.f))
	copy(f, e.f)
	return f
}

func (e *ers) Unwrap() error {
	return e.p
}

func (e *ers) Error() string {
	if len(e.m) > 0 {
		return fmt.Sprintf("[%s] %s: %s", e.c.String(), e.c.Description(), e.m)
	}
	return fmt.Sprintf("[%s] %s", e.c.String(), e.c.Description())
}

func (e *ers) StringError() string {
	var b strings.Builder

	b.WriteString(e.Error())

	if !e.g.IsEmpty() {
		b.WriteString("\n  while running ")
		b.WriteString(e.g.String())
	}

	// reverse chain: outermost forwarding site first
	for i := len(e.f) - 1; i >= 0; i-- {
		f := e.f[i]
		b.WriteString(fmt.Sprintf("\n  at %s:%d (%s)", f.File, f.Line, f.Function))
		if len(f.Message) > 0 {
			b.WriteString(": ")
			b.WriteString(f.Message)
		}
	}

	if e.p != nil {
		b.WriteString("\n  caused by: ")
		b.WriteString(e.p.Error())
	}

	return b.String()
}
