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

package cluster

import (
	"github.com/bits-and-blooms/bitset"

	libcpr "github.com/nabbar/zstream/compressor"
	liberr "github.com/nabbar/zstream/errors"
	libstr "github.com/nabbar/zstream/stream"
)

// Register validates the configuration and registers the clustering graph
// under the given name.
func Register(b libcpr.Builder, name string, cfg Config) (libcpr.GraphID, error) {
	if err := cfg.Validate(); err != nil {
		return 0, liberr.Forward(err, "clustering graph %q", name)
	}

	for i, s := range cfg.Successors {
		if _, ok := b.Graph(s); !ok {
			return 0, liberr.New(liberr.CodeGraphInvalid, "successor %d references unknown graph %d", i, s)
		}
	}
	for t, s := range cfg.TypeDefaults {
		if _, ok := b.Graph(s); !ok {
			return 0, liberr.New(liberr.CodeGraphInvalid, "default for %s references unknown graph %d", t.String(), s)
		}
	}

	c := cfg
	return b.RegisterFunctionGraph(name, libstr.Any, func(fctx libcpr.FunctionContext, edges []libcpr.Edge) error {
		return run(b, &c, fctx, edges)
	})
}

func run(b libcpr.Builder, cfg *Config, fctx libcpr.FunctionContext, edges []libcpr.Edge) error {
	claimed := bitset.New(uint(len(edges)))
	groups := make([][]libcpr.Edge, len(cfg.Clusters))

	for i, e := range edges {
		s := e.Stream()
		tag, ok := s.GetIntMeta(MetaTag)
		if !ok {
			continue
		}
		if ci, ok2 := cfg.clusterFor(tag, s.Type(), s.Width()); ok2 {
			groups[ci] = append(groups[ci], e)
			claimed.Set(uint(i))
		}
	}

	for ci, group := range groups {
		if len(group) == 0 {
			continue
		}
		cl := cfg.Clusters[ci]

		node, ok := nodeForCodec(b, cl.Codec)
		if !ok {
			return liberr.New(liberr.CodeLogic, "concat codec %d is not registered", cl.Codec.codecID())
		}

		outs, err := fctx.RunMultiNode(node, group)
		if err != nil {
			return liberr.Forward(err, "concatenating cluster %d", ci)
		}
		for _, o := range outs {
			if err = o.SetDestination(cfg.Successors[cl.SuccessorIdx]); err != nil {
				return err
			}
		}
	}

	// unclaimed streams fall back to their type default
	for i, e := range edges {
		if claimed.Test(uint(i)) {
			continue
		}
		dst, ok := cfg.TypeDefaults[e.Stream().Type()]
		if !ok {
			return liberr.New(liberr.CodeGraphInvalid, "no cluster and no default successor for a %s stream", e.Stream().Type().String())
		}
		if err := e.SetDestination(dst); err != nil {
			return err
		}
	}

	return nil
}

func nodeForCodec(b libcpr.Builder, c Codec) (libcpr.NodeID, bool) {
	n, ok := b.Node(libcpr.NodeID(c.codecID()))
	if !ok {
		return 0, false
	}
	return n.ID, true
}
