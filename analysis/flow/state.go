package flow

import (
	"github.com/cs-au-dk/gotaint/analysis/container"
	L "github.com/cs-au-dk/gotaint/analysis/lattice"
	"github.com/cs-au-dk/gotaint/utils"

	"github.com/benbjohnson/immutable"
	"golang.org/x/tools/go/ssa"
)

// state holds the taint bindings of one function. Container-valued SSA
// values are bound through the cell of their alias class, every other value
// is bound directly. Bindings only ever grow.
type state struct {
	heap     *container.Heap
	bindings *immutable.Map[ssa.Value, L.Taint]
	// sequences are the sequences derived by projections, by their value.
	sequences *immutable.Map[ssa.Value, container.Sequence]
}

func newState(fn *ssa.Function) *state {
	return &state{
		heap:      container.NewHeap(fn),
		bindings:  utils.NewValueMap[L.Taint](),
		sequences: utils.NewValueMap[container.Sequence](),
	}
}

// taintOf resolves the taint of a value. Unbound values are untainted.
func (s *state) taintOf(v ssa.Value) L.Taint {
	if v == nil {
		return L.Untainted
	}
	if _, ok := v.(*ssa.Const); ok {
		return L.Untainted
	}
	if cell := s.heap.CellOf(v); cell != nil {
		return cell.Taint()
	}
	t, _ := s.bindings.Get(v)
	return t
}

// bind joins t into the binding of v. It returns the values whose taint
// grew, i.e., v or all aliases of v.
func (s *state) bind(v ssa.Value, t L.Taint) []ssa.Value {
	if v == nil || !t.IsTainted() {
		return nil
	}
	if cell := s.heap.CellOf(v); cell != nil {
		if cell.Absorb(t) {
			return s.heap.Aliases(v)
		}
		return nil
	}

	old, _ := s.bindings.Get(v)
	if t.Leq(old) {
		return nil
	}
	s.bindings = s.bindings.Set(v, old.Join(t))
	return []ssa.Value{v}
}

// bindAddress joins t into the binding of addr and of every object addr is
// derived from, so that a write into an element or a field taints the whole
// aggregate.
func (s *state) bindAddress(addr ssa.Value, t L.Taint) []ssa.Value {
	changed := s.bind(addr, t)
	for {
		switch x := addr.(type) {
		case *ssa.FieldAddr:
			addr = x.X
		case *ssa.IndexAddr:
			addr = x.X
		default:
			return changed
		}
		changed = append(changed, s.bind(addr, t)...)
	}
}

// project records the sequence that v derives from the container src, and
// binds v to its taint. Projections that yield containers are bound through
// their own cell instead.
func (s *state) project(v, src ssa.Value, t L.Taint) []ssa.Value {
	if cell := s.heap.CellOf(src); cell != nil && s.heap.CellOf(v) == nil {
		seq, seen := s.sequences.Get(v)
		if !seen || !cell.Taint().Leq(seq.Taint()) {
			s.sequences = s.sequences.Set(v, container.Project(cell))
		}
	}
	return s.bind(v, t)
}
