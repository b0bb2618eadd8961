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

package ace

import (
	"github.com/fxamacker/cbor/v2"

	liberr "github.com/nabbar/zstream/errors"
)

// treeRecord is the CBOR shape of one tree: either a graph leaf or a node
// with children.
type treeRecord struct {
	Graph    string          `cbor:"graph,omitempty"`
	Node     string          `cbor:"node,omitempty"`
	Params   map[int64]int64 `cbor:"params,omitempty"`
	Children []treeRecord    `cbor:"children,omitempty"`
}

func recordOf(c *Compressor) treeRecord {
	if g := c.Graph(); g != nil {
		return treeRecord{Graph: g.Name}
	}

	n := c.Node()
	rec := treeRecord{Node: n.Name}
	if len(n.Params) > 0 {
		rec.Params = make(map[int64]int64, len(n.Params))
		for k, v := range n.Params {
			rec.Params[int64(k)] = v
		}
	}
	for _, s := range c.Successors() {
		rec.Children = append(rec.Children, recordOf(s))
	}
	return rec
}

func (e *Explorer) treeOf(rec treeRecord) (*Compressor, error) {
	if rec.Graph != "" {
		for _, g := range e.cat.graphs {
			if g.Name == rec.Graph {
				return NewGraphCompressor(g), nil
			}
		}
		return nil, liberr.New(liberr.CodeInvalidRequest, "snapshot references unknown graph %q", rec.Graph)
	}

	var node *Node
	for i := range e.cat.nodes {
		if e.cat.nodes[i].Name == rec.Node {
			node = &e.cat.nodes[i]
			break
		}
	}
	if node == nil {
		return nil, liberr.New(liberr.CodeInvalidRequest, "snapshot references unknown node %q", rec.Node)
	}

	n := *node
	if len(rec.Params) > 0 {
		n.Params = make(map[int]int64, len(rec.Params))
		for k, v := range rec.Params {
			n.Params[int(k)] = v
		}
	}

	children := make([]*Compressor, 0, len(rec.Children))
	for _, cr := range rec.Children {
		child, err := e.treeOf(cr)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return NewNodeCompressor(n, children)
}

// SavePopulation snapshots the current population to CBOR.
func (e *Explorer) SavePopulation() ([]byte, error) {
	recs := make([]treeRecord, 0, len(e.ga.Population()))
	for _, c := range e.ga.Population() {
		recs = append(recs, recordOf(c))
	}
	data, err := cbor.Marshal(recs)
	if err != nil {
		return nil, liberr.New(liberr.CodeGeneric, "encoding snapshot: %v", err)
	}
	return data, nil
}

// LoadPopulation merges a snapshot into the current population. It never
// discards the current population; unrelated snapshots cost only their
// benchmark time. Trees not accepting this explorer's input type are
// skipped.
func (e *Explorer) LoadPopulation(data []byte) error {
	var recs []treeRecord
	if err := cbor.Unmarshal(data, &recs); err != nil {
		return liberr.New(liberr.CodeCorruption, "decoding snapshot: %v", err)
	}

	var trees []*Compressor
	for _, rec := range recs {
		tree, err := e.treeOf(rec)
		if err != nil {
			return err
		}
		if tree.AcceptsInputType(e.typ) {
			trees = append(trees, tree)
		}
	}

	e.ga.ExtendPopulation(trees)
	return nil
}
