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
	"encoding/json"
	"sort"

	"github.com/fxamacker/cbor/v2"

	libcdc "github.com/nabbar/zstream/codec"
	liberr "github.com/nabbar/zstream/errors"
)

// GraphRecord is the persisted form of one graph.
type GraphRecord struct {
	Type         string          `cbor:"type" json:"type"`
	Base         string          `cbor:"base,omitempty" json:"base,omitempty"`
	CustomGraphs []string        `cbor:"custom_graphs,omitempty" json:"custom_graphs,omitempty"`
	CustomNodes  []string        `cbor:"custom_nodes,omitempty" json:"custom_nodes,omitempty"`
	LocalParams  map[int64]int64 `cbor:"local_params,omitempty" json:"local_params,omitempty"`
}

// NodeRecord is the persisted form of one cloned node.
type NodeRecord struct {
	Base        string          `cbor:"base" json:"base"`
	LocalParams map[int64]int64 `cbor:"local_params,omitempty" json:"local_params,omitempty"`
}

// Description is the serialized compressor description: the starting graph
// name and the graphs and nodes by unique name. Clones carry a "#N" suffix.
type Description struct {
	Start  string                 `cbor:"start" json:"start"`
	Graphs map[string]GraphRecord `cbor:"graphs" json:"graphs"`
	Nodes  map[string]NodeRecord  `cbor:"nodes" json:"nodes"`
}

func paramsToRecord(p libcdc.Params) map[int64]int64 {
	if len(p) == 0 {
		return nil
	}
	m := make(map[int64]int64, len(p))
	for k, v := range p {
		m[int64(k)] = v
	}
	return m
}

func recordToParams(m map[int64]int64) libcdc.Params {
	if len(m) == 0 {
		return nil
	}
	p := make(libcdc.Params, len(m))
	for k, v := range m {
		p[int(k)] = v
	}
	return p
}

// Describe captures the user-registered graphs and cloned nodes of b, plus
// the starting graph.
func Describe(b Builder) (*Description, error) {
	start, ok := b.StartingGraph()
	if !ok {
		return nil, liberr.New(liberr.CodeInvalidRequest, "no starting graph selected")
	}
	sg, _ := b.Graph(start)

	d := &Description{
		Start:  sg.Name,
		Graphs: make(map[string]GraphRecord),
		Nodes:  make(map[string]NodeRecord),
	}

	for _, id := range b.Graphs() {
		if id < FirstUserID {
			continue
		}
		g, _ := b.Graph(id)

		rec := GraphRecord{
			Type:        g.Kind.String(),
			LocalParams: paramsToRecord(g.LocalParams),
		}
		if g.Base != 0 {
			rec.Type = "parameterized"
			bg, _ := b.Graph(g.Base)
			rec.Base = bg.Name
		}

		switch g.Kind {
		case GraphStatic, GraphTerminal:
			if g.Base == 0 {
				n, _ := b.Node(g.Node)
				rec.Type = "static"
				rec.CustomNodes = []string{n.Name}
				if n.Base != 0 {
					d.Nodes[n.Name] = NodeRecord{
						Base:        nodeBaseName(b, n),
						LocalParams: paramsToRecord(n.LocalParams),
					}
				}
			}
			rec.CustomGraphs = graphNames(b, g.Successors)
		case GraphSelector:
			rec.CustomGraphs = graphNames(b, g.Candidates)
		}

		d.Graphs[g.Name] = rec
	}

	return d, nil
}

func graphNames(b Builder, ids []GraphID) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if g, ok := b.Graph(id); ok {
			names = append(names, g.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

func nodeBaseName(b Builder, n *NodeDesc) string {
	if base, ok := b.Node(n.Base); ok {
		return base.Name
	}
	return ""
}

// SaveDescription serializes the compressor description to CBOR.
func SaveDescription(b Builder) ([]byte, error) {
	d, err := Describe(b)
	if err != nil {
		return nil, err
	}
	data, err := cbor.Marshal(d)
	if err != nil {
		return nil, liberr.New(liberr.CodeGeneric, "encoding description: %v", err)
	}
	return data, nil
}

// LoadDescription re-registers the description into b. Selector and
// function graphs carry callbacks that cannot be serialized; they must
// already be registered in b under the recorded name.
func LoadDescription(b Builder, data []byte) error {
	var d Description
	if err := cbor.Unmarshal(data, &d); err != nil {
		return liberr.New(liberr.CodeCorruption, "decoding description: %v", err)
	}

	// clones regenerate their "#N" names; restore in sorted order so the
	// sequence matches the recorded names
	nodeNames := make([]string, 0, len(d.Nodes))
	for name := range d.Nodes {
		nodeNames = append(nodeNames, name)
	}
	sort.Strings(nodeNames)
	for _, name := range nodeNames {
		rec := d.Nodes[name]
		if _, ok := b.NodeByName(name); ok {
			continue
		}
		base, ok := b.NodeByName(rec.Base)
		if !ok {
			return liberr.New(liberr.CodeInvalidRequest, "node %q clones unknown base %q", name, rec.Base)
		}
		id, err := b.CloneNode(base.ID, recordToParams(rec.LocalParams))
		if err != nil {
			return liberr.Forward(err, "restoring node %q", name)
		}
		if n, _ := b.Node(id); n.Name != name {
			return liberr.New(liberr.CodeInvalidRequest, "node restored as %q, description names it %q", n.Name, name)
		}
	}

	pending := make(map[string]GraphRecord, len(d.Graphs))
	for name, rec := range d.Graphs {
		if _, ok := b.GraphByName(name); ok {
			continue
		}
		pending[name] = rec
	}

	for len(pending) > 0 {
		progressed := false
		for name, rec := range pending {
			ok, err := restoreGraph(b, name, rec)
			if err != nil {
				return liberr.Forward(err, "restoring graph %q", name)
			}
			if ok {
				delete(pending, name)
				progressed = true
			}
		}
		if !progressed {
			return liberr.New(liberr.CodeInvalidRequest, "description has unresolvable graph references")
		}
	}

	start, ok := b.GraphByName(d.Start)
	if !ok {
		return liberr.New(liberr.CodeInvalidRequest, "starting graph %q is not registered", d.Start)
	}
	return b.SelectStartingGraph(start.ID)
}

func restoreGraph(b Builder, name string, rec GraphRecord) (bool, error) {
	switch rec.Type {
	case "selector", "function":
		// callbacks are code; they must be pre-registered by name
		return false, liberr.New(liberr.CodeInvalidRequest, "%s graph %q must be registered before loading the description", rec.Type, name)

	case "static", "terminal":
		if len(rec.CustomNodes) != 1 {
			return false, liberr.New(liberr.CodeCorruption, "static graph record without its node")
		}
		n, ok := b.NodeByName(rec.CustomNodes[0])
		if !ok {
			return false, nil
		}
		succ := make([]GraphID, 0, len(rec.CustomGraphs))
		for _, s := range rec.CustomGraphs {
			g, ok2 := b.GraphByName(s)
			if !ok2 {
				return false, nil
			}
			succ = append(succ, g.ID)
		}
		_, err := b.RegisterStaticGraph(name, n.ID, succ...)
		return err == nil, err

	case "parameterized":
		base, ok := b.GraphByName(rec.Base)
		if !ok {
			return false, nil
		}
		var custom []GraphID
		if rec.CustomGraphs != nil {
			custom = make([]GraphID, 0, len(rec.CustomGraphs))
			for _, s := range rec.CustomGraphs {
				g, ok2 := b.GraphByName(s)
				if !ok2 {
					return false, nil
				}
				custom = append(custom, g.ID)
			}
		}
		_, err := b.RegisterParameterizedGraph(name, base.ID, custom, recordToParams(rec.LocalParams))
		return err == nil, err
	}

	return false, liberr.New(liberr.CodeCorruption, "graph record of unknown type %q", rec.Type)
}

// DescriptionToJSON converts a CBOR description to indented JSON for human
// inspection.
func DescriptionToJSON(data []byte) ([]byte, error) {
	var d Description
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, liberr.New(liberr.CodeCorruption, "decoding description: %v", err)
	}
	out, err := json.MarshalIndent(&d, "", "  ")
	if err != nil {
		return nil, liberr.New(liberr.CodeGeneric, "encoding json: %v", err)
	}
	return out, nil
}

// DescriptionFromJSON converts a JSON description back to CBOR.
func DescriptionFromJSON(data []byte) ([]byte, error) {
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, liberr.New(liberr.CodeInvalidRequest, "decoding json: %v", err)
	}
	out, err := cbor.Marshal(&d)
	if err != nil {
		return nil, liberr.New(liberr.CodeGeneric, "encoding description: %v", err)
	}
	return out, nil
}
