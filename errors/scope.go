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

// UnsetID marks an absent identifier in a GraphContext.
const UnsetID int64 = -1

// GraphContext is the snapshot of engine identifiers active when an error is
// created: the running transform invocation, the node being executed, and
// the graph being resolved. Absent identifiers hold UnsetID.
type GraphContext struct {
	Transform int64
	Node      int64
	Graph     int64
}

// EmptyGraphContext returns a context with every identifier unset.
func EmptyGraphContext() GraphContext {
	return GraphContext{Transform: UnsetID, Node: UnsetID, Graph: UnsetID}
}

// IsEmpty reports whether no identifier is set.
func (g GraphContext) IsEmpty() bool {
	return g.Transform == UnsetID && g.Node == UnsetID && g.Graph == UnsetID
}

// Merge fills unset identifiers of g from o.
func (g GraphContext) Merge(o GraphContext) GraphContext {
	if g.Transform == UnsetID {
		g.Transform = o.Transform
	}
	if g.Node == UnsetID {
		g.Node = o.Node
	}
	if g.Graph == UnsetID {
		g.Graph = o.Graph
	}
	return g
}

func (g GraphContext) String() string {
	var p []string
	if g.Graph != UnsetID {
		p = append(p, fmt.Sprintf("graph=%d", g.Graph))
	}
	if g.Node != UnsetID {
		p = append(p, fmt.Sprintf("node=%d", g.Node))
	}
	if g.Transform != UnsetID {
		p = append(p, fmt.Sprintf("transform=%d", g.Transform))
	}
	if len(p) == 0 {
		return "(no active context)"
	}
	return strings.Join(p, " ")
}

// OperationContext owns the errors of one compress or decompress operation
// and the scope stack stamping them. It keeps one error slot per code so a
// repeated failure of the same kind reuses storage. Not safe for concurrent
// use; each operation owns exactly one.
type OperationContext struct {
	scopes []GraphContext
	slots  map[CodeError]*ers
}

// NewOperationContext returns an empty operation context.
func NewOperationContext() *OperationContext {
	return &OperationContext{
		slots: make(map[CodeError]*ers),
	}
}

// PushScope enters a scope whose identifiers augment every error created or
// forwarded while it is active. Unset identifiers inherit from the enclosing
// scope.
func (o *OperationContext) PushScope(ctx GraphContext) {
	o.scopes = append(o.scopes, ctx.Merge(o.Active()))
}

// PopScope leaves the innermost scope. Popping an empty stack is a logic
// error surfaced by panic in debug mode only.
func (o *OperationContext) PopScope() {
	if len(o.scopes) == 0 {
		if Mode() == ModeDebug {
			panic("pop on empty scope stack")
		}
		return
	}
	o.scopes = o.scopes[:len(o.scopes)-1]
}

// Active returns the innermost scope context, or an empty context when no
// scope is active.
func (o *OperationContext) Active() GraphContext {
	if len(o.scopes) == 0 {
		return EmptyGraphContext()
	}
	return o.scopes[len(o.scopes)-1]
}

// New creates an error for the given code, reusing the per-code slot, and
// stamps it with the active scope context.
func (o *OperationContext) New(code CodeError, msg string, args ...interface{}) Error {
	e := newErrorSkip(4, code, msg, args...)
	e.g = o.Active()

	if s, ok := o.slots[code]; ok {
		*s = *e
		return s
	}
	o.slots[code] = e
	return e
}

// Forward appends a propagation frame to err, stamping the active scope
// context onto any identifier the error does not carry yet.
func (o *OperationContext) Forward(err error, msg string, args ...interface{}) Error {
	f := forwardSkip(4, err, msg, args...)
	if e, ok := f.(*ers); ok {
		e.g = e.g.Merge(o.Active())
	}
	return f
}

// Reset drops all scopes and error slots, readying the context for the next
// operation.
func (o *OperationContext) Reset() {
	o.scopes = o.scopes[:0]
	o.slots = make(map[CodeError]*ers)
}
