package container

import (
	"go/token"
	"go/types"

	L "github.com/cs-au-dk/gotaint/analysis/lattice"

	uf "github.com/spakin/disjoint"
	"golang.org/x/tools/go/ssa"
)

// Heap owns the container cells of one function. Container-valued SSA
// values that may denote the same container are placed in one alias
// class, and every class shares a single cell.
type Heap struct {
	fn        *ssa.Function
	elements  map[ssa.Value]*uf.Element
	locations map[location]*uf.Element
	cells     map[*uf.Element]*Cell
	members   map[*uf.Element][]ssa.Value
}

// location is an abstract memory location holding containers: a global, a
// local variable, a field of the object an address is derived from, or any
// element of an array or slice.
type location struct {
	base  ssa.Value
	field int
}

const (
	// anyElement is the field of the locations of array and slice
	// elements. Indices are not tracked.
	anyElement = -1
	// whole is the field of variables and globals.
	whole = -2
)

// locationOf abstracts the address addr.
func locationOf(addr ssa.Value) location {
	switch a := addr.(type) {
	case *ssa.FieldAddr:
		return location{objectOf(a.X), a.Field}
	case *ssa.IndexAddr:
		return location{objectOf(a.X), anyElement}
	}
	return location{objectOf(addr), whole}
}

// objectOf finds the root object that v points into or slices. Nested
// fields and elements are collapsed onto the outermost one.
func objectOf(v ssa.Value) ssa.Value {
	for {
		switch x := v.(type) {
		case *ssa.Slice:
			v = x.X
		case *ssa.ChangeType:
			v = x.X
		case *ssa.FieldAddr:
			v = x.X
		case *ssa.IndexAddr:
			v = x.X
		default:
			return v
		}
	}
}

// IsContainer is true for values whose underlying type is a map.
func IsContainer(v ssa.Value) bool {
	if v == nil {
		return false
	}
	_, ok := v.Type().Underlying().(*types.Map)
	return ok
}

// NewHeap computes the alias classes of the container-valued SSA values
// of fn. Two values share a class if one flows into the other through a
// phi node, a value-preserving conversion or an interface box, or if both
// are loaded from or stored to the same abstract location.
func NewHeap(fn *ssa.Function) *Heap {
	h := &Heap{
		fn:        fn,
		elements:  make(map[ssa.Value]*uf.Element),
		locations: make(map[location]*uf.Element),
	}

	element := func(v ssa.Value) *uf.Element {
		if el, ok := h.elements[v]; ok {
			return el
		}
		el := uf.NewElement()
		el.Data = v
		h.elements[v] = el
		return el
	}

	union := func(a, b ssa.Value) {
		if !IsContainer(a) || !IsContainer(b) {
			return
		}
		uf.Union(element(a), element(b))
	}

	// Containers loaded from or stored to the same location share a class.
	stored := func(v, addr ssa.Value) {
		if _, ok := v.(*ssa.Const); ok {
			return
		}
		loc := locationOf(addr)
		el, ok := h.locations[loc]
		if !ok {
			el = uf.NewElement()
			h.locations[loc] = el
		}
		uf.Union(element(v), el)
	}

	for _, param := range fn.Params {
		if IsContainer(param) {
			element(param)
		}
	}

	for _, b := range fn.Blocks {
		for _, insn := range b.Instrs {
			if st, ok := insn.(*ssa.Store); ok && IsContainer(st.Val) {
				stored(st.Val, st.Addr)
				continue
			}

			v, ok := insn.(ssa.Value)
			if !ok {
				continue
			}

			switch v := v.(type) {
			case *ssa.MakeInterface:
				// Boxing a container in an interface keeps its identity.
				if IsContainer(v.X) {
					uf.Union(element(v), element(v.X))
				}
				continue
			case *ssa.TypeAssert:
				if !v.CommaOk && IsContainer(v) {
					uf.Union(element(v), element(v.X))
				}
				continue
			}

			if !IsContainer(v) {
				continue
			}
			element(v)

			switch v := v.(type) {
			case *ssa.Phi:
				for _, e := range v.Edges {
					union(v, e)
				}
			case *ssa.ChangeType:
				union(v, v.X)
			case *ssa.Convert:
				union(v, v.X)
			case *ssa.UnOp:
				if v.Op == token.MUL {
					stored(v, v.X)
				}
			}
		}
	}

	h.cells = make(map[*uf.Element]*Cell)
	h.members = make(map[*uf.Element][]ssa.Value)
	// Cells are numbered in the order in which their class is first seen,
	// so that the numbering is deterministic.
	for _, b := range fn.Blocks {
		for _, insn := range b.Instrs {
			if v, ok := insn.(ssa.Value); ok {
				h.register(v)
			}
		}
	}
	for _, param := range fn.Params {
		h.register(param)
	}
	for _, fv := range fn.FreeVars {
		h.register(fv)
	}

	return h
}

func (h *Heap) register(v ssa.Value) {
	el, ok := h.elements[v]
	if !ok {
		return
	}
	rep := el.Find()
	if _, ok := h.cells[rep]; !ok {
		h.cells[rep] = NewCell(len(h.cells), L.Untainted)
	}
	h.members[rep] = append(h.members[rep], v)
}

// CellOf returns the cell of the alias class of v, or nil if v is not a
// container-valued value of the heap's function.
func (h *Heap) CellOf(v ssa.Value) *Cell {
	el, ok := h.elements[v]
	if !ok {
		return nil
	}
	return h.cells[el.Find()]
}

// Aliases returns the values in the alias class of v, including v.
func (h *Heap) Aliases(v ssa.Value) []ssa.Value {
	el, ok := h.elements[v]
	if !ok {
		return nil
	}
	return h.members[el.Find()]
}

// Cells returns the number of distinct cells of the heap.
func (h *Heap) Cells() int {
	return len(h.cells)
}

func (h *Heap) Function() *ssa.Function {
	return h.fn
}
