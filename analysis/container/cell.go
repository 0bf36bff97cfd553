package container

import (
	"fmt"

	L "github.com/cs-au-dk/gotaint/analysis/lattice"
)

// Cell summarizes the contents of one container as a single taint.
// Keys are never tracked. The taint of a cell only ever grows.
type Cell struct {
	id    int
	taint L.Taint
}

// NewCell creates a cell holding the given initial taint.
func NewCell(id int, t L.Taint) *Cell {
	return &Cell{id: id, taint: t}
}

func (c *Cell) ID() int {
	return c.id
}

func (c *Cell) Taint() L.Taint {
	return c.taint
}

// Absorb joins t into the cell and reports whether the cell's taint grew.
func (c *Cell) Absorb(t L.Taint) bool {
	joined := c.taint.Join(t)
	if joined == c.taint {
		return false
	}
	c.taint = joined
	return true
}

func (c *Cell) String() string {
	return fmt.Sprintf("cell#%d(%s)", c.id, c.taint)
}

// Sequence is a sequence derived by projecting a container. Its taint is
// fixed at projection time.
type Sequence struct {
	source *Cell
	taint  L.Taint
}

// Project derives a sequence from the current contents of c.
func Project(c *Cell) Sequence {
	return Sequence{source: c, taint: c.taint}
}

func (s Sequence) Taint() L.Taint {
	return s.taint
}

// Source is the cell the sequence was projected from.
func (s Sequence) Source() *Cell {
	return s.source
}

func (s Sequence) String() string {
	return fmt.Sprintf("seq(%s)←cell#%d", s.taint, s.source.id)
}
