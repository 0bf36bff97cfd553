package flow

import (
	"fmt"
	"strconv"

	"github.com/cs-au-dk/gotaint/analysis/facts"
	"github.com/cs-au-dk/gotaint/analysis/rules"
	"github.com/cs-au-dk/gotaint/utils/dot"

	"golang.org/x/tools/go/ssa"
)

const (
	taintedColor   = "#ffb3b3"
	untaintedColor = "honeydew"
	unmodeledColor = "#fff2b3"
	findingColor   = "#ff6666"
)

// Visualize creates a DOT graph of the container operations of an analyzed
// function. Container cells, operations and sink calls are nodes, and edges
// follow the operands and outputs of every operation. Nodes are filled by
// the taint they hold at the fixpoint.
func (res *Result) Visualize() *dot.DotGraph {
	G := &dot.DotGraph{
		Title: res.Function.String(),
		Attrs: dot.DotAttrs{
			"nodesep": "0.4",
			"rankdir": "TB",
		},
	}
	if res.state == nil || res.Facts == nil {
		return G
	}

	fill := func(tainted bool) string {
		if tainted {
			return taintedColor
		}
		return untaintedColor
	}

	cells := make(map[int]*dot.DotNode)
	values := make(map[ssa.Value]*dot.DotNode)

	// nodeOf returns the node of a cell for containers, and of the value
	// itself otherwise.
	nodeOf := func(v ssa.Value) *dot.DotNode {
		if cell := res.state.heap.CellOf(v); cell != nil {
			if n, ok := cells[cell.ID()]; ok {
				return n
			}
			n := &dot.DotNode{
				ID: "cell" + strconv.Itoa(cell.ID()),
				Attrs: dot.DotAttrs{
					"shape":     "box3d",
					"fillcolor": fill(cell.Taint().IsTainted()),
					"label":     fmt.Sprintf("cell#%d: %s", cell.ID(), cell.Taint().Name()),
				},
			}
			cells[cell.ID()] = n
			G.Nodes = append(G.Nodes, n)
			return n
		}

		if n, ok := values[v]; ok {
			return n
		}
		t := res.state.taintOf(v)
		label := v.Name() + ": " + t.Name()
		if seq, ok := res.state.sequences.Get(v); ok {
			label = fmt.Sprintf("%s: seq(%s)", v.Name(), seq.Taint().Name())
		}
		n := &dot.DotNode{
			ID: fmt.Sprintf("v%d", len(values)),
			Attrs: dot.DotAttrs{
				"fillcolor": fill(t.IsTainted()),
				"label":     label,
			},
		}
		values[v] = n
		G.Nodes = append(G.Nodes, n)
		return n
	}

	edge := func(from, to *dot.DotNode, attrs dot.DotAttrs) {
		G.Edges = append(G.Edges, &dot.DotEdge{From: from, To: to, Attrs: attrs})
	}

	blocks := make(map[int]*dot.DotCluster)
	cluster := func(b *ssa.BasicBlock) *dot.DotCluster {
		if c, ok := blocks[b.Index]; ok {
			return c
		}
		c := dot.NewDotCluster("block" + strconv.Itoa(b.Index))
		c.Attrs["label"] = "Block " + strconv.Itoa(b.Index)
		c.Attrs["bgcolor"] = "#cce6ff"
		blocks[b.Index] = c
		G.Clusters = append(G.Clusters, c)
		return c
	}

	for i, f := range res.Facts.List() {
		n := &dot.DotNode{
			ID: fmt.Sprintf("fact%d", i),
			Attrs: dot.DotAttrs{
				"shape": "box",
				"label": factLabel(f),
			},
		}
		if f.Kind == rules.Unmodeled {
			n.Attrs["fillcolor"] = unmodeledColor
		}
		c := cluster(f.Instr.Block())
		c.Nodes = append(c.Nodes, n)

		for j, op := range f.Operands {
			edge(nodeOf(op), n, dot.DotAttrs{"label": strconv.Itoa(j)})
		}
		if f.Result != nil {
			edge(n, nodeOf(f.Result), nil)
		}
		for _, m := range f.Mutates {
			edge(n, nodeOf(m), dot.DotAttrs{
				"style": "dashed",
				"color": "red",
				"label": "mutates",
			})
		}
	}

	reported := make(map[ssa.CallInstruction]int)
	for _, f := range res.Findings {
		reported[f.Call] = f.Arg
	}
	for i, call := range res.sinkCalls {
		n := &dot.DotNode{
			ID: fmt.Sprintf("sink%d", i),
			Attrs: dot.DotAttrs{
				"shape": "octagon",
				"label": "sink " + call.Common().Value.Name(),
			},
		}
		if _, ok := reported[call]; ok {
			n.Attrs["fillcolor"] = findingColor
		}
		c := cluster(call.Block())
		c.Nodes = append(c.Nodes, n)

		for j, arg := range call.Common().Args {
			if _, ok := arg.(*ssa.Const); ok {
				continue
			}
			attrs := dot.DotAttrs{"label": strconv.Itoa(j)}
			if a, ok := reported[call]; ok && a == j {
				attrs["color"] = "red"
				attrs["style"] = "bold"
			}
			edge(nodeOf(arg), n, attrs)
		}
	}

	return G
}

func factLabel(f *facts.Fact) string {
	label := f.Kind.Name() + "\n" + f.Shape.String()
	if f.Callee != nil {
		label += "\n" + f.Callee.Name()
	}
	return label
}
