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

package compressor

import (
	libcdc "github.com/nabbar/zstream/codec"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

func (b *bld) Validate(g GraphID) error {
	return b.validate(g, make(map[GraphID]bool))
}

func (b *bld) validate(id GraphID, seen map[GraphID]bool) error {
	if seen[id] {
		return nil
	}
	seen[id] = true

	g, ok := b.graphs[id]
	if !ok {
		return liberr.New(liberr.CodeGraphInvalid, "unknown graph %d", id)
	}

	switch g.Kind {
	case GraphTerminal:
		n, ok2 := b.nodes[g.Node]
		if !ok2 || n.Codec.TermEncode == nil {
			return liberr.New(liberr.CodeGraphInvalid, "terminal graph %q has no terminal codec", g.Name)
		}
		return b.checkFloor(n, g)

	case GraphStatic:
		n, ok2 := b.nodes[g.Node]
		if !ok2 {
			return liberr.New(liberr.CodeGraphInvalid, "graph %q references unknown node %d", g.Name, g.Node)
		}
		if err := b.checkFloor(n, g); err != nil {
			return err
		}

		outs := n.Codec.OutputTypes
		if n.Codec.VariadicOutput != 0 {
			outs = []libstr.Type{n.Codec.VariadicOutput}
		}
		if len(g.Successors) != len(outs) {
			return liberr.New(liberr.CodeGraphInvalid, "graph %q wires %d successors over %d output ports", g.Name, len(g.Successors), len(outs))
		}
		for i, succ := range g.Successors {
			sg, ok3 := b.graphs[succ]
			if !ok3 {
				return liberr.New(liberr.CodeGraphInvalid, "graph %q wires unknown successor %d", g.Name, succ)
			}
			// widths are only known at run time; validation admits any
			// hop a conversion could serve
			if !libcdc.Convertible(outs[i], 8, sg.InputMask) {
				return liberr.New(liberr.CodeGraphInvalid, "graph %q output %d produces %s, successor %q accepts %s", g.Name, i, outs[i].String(), sg.Name, sg.InputMask.String())
			}
			if err := b.validate(succ, seen); err != nil {
				return liberr.Forward(err, "through graph %q", g.Name)
			}
		}
		return nil

	case GraphSelector:
		if g.Selector == nil {
			return liberr.New(liberr.CodeGraphInvalid, "selector graph %q has no callback", g.Name)
		}
		if len(g.Candidates) == 0 {
			return liberr.New(liberr.CodeGraphInvalid, "selector graph %q has no candidates", g.Name)
		}
		for _, c := range g.Candidates {
			if err := b.validate(c, seen); err != nil {
				return liberr.Forward(err, "through selector %q", g.Name)
			}
		}
		return nil

	case GraphFunction:
		if g.Function == nil {
			return liberr.New(liberr.CodeGraphInvalid, "function graph %q has no callback", g.Name)
		}
		return nil
	}

	return liberr.New(liberr.CodeGraphInvalid, "graph %q has unknown kind", g.Name)
}

// checkFloor refuses a node predating the configured format version. When no
// version is set yet the check is deferred to the compress call.
func (b *bld) checkFloor(n *NodeDesc, g *GraphDesc) error {
	v, ok := b.params[ParamFormatVersion]
	if !ok {
		return nil
	}
	if uint32(v) < n.MinVersion() {
		return liberr.New(liberr.CodeFormatVersionUnsupported, "node %q needs format version >= %d, graph %q is built for %d", n.Name, n.MinVersion(), g.Name, v)
	}
	return nil
}
