package lattice

// Taint is a member of the two-element taint lattice:
//
//	Tainted
//	   |
//	Untainted
//
// Join is logical disjunction. A value is Tainted if it may carry data that
// originates from a source call.
type Taint bool

const (
	Untainted Taint = false
	Tainted   Taint = true
)

// Bot retrieves the ⊥ element of the taint lattice.
func Bot() Taint {
	return Untainted
}

// Top retrieves the ⊤ element of the taint lattice.
func Top() Taint {
	return Tainted
}

func (t Taint) IsTainted() bool {
	return bool(t)
}

func (t1 Taint) Join(t2 Taint) Taint {
	return t1 || t2
}

func (t1 Taint) Meet(t2 Taint) Taint {
	return t1 && t2
}

func (t1 Taint) Leq(t2 Taint) bool {
	return bool(!t1 || t2)
}

func (t1 Taint) Geq(t2 Taint) bool {
	return bool(t1 || !t2)
}

func (t1 Taint) Eq(t2 Taint) bool {
	return t1 == t2
}

// Height encodes the distance from ⊥.
func (t Taint) Height() int {
	if t {
		return 1
	}
	return 0
}

func (t Taint) String() string {
	if t {
		return colorize.Tainted("T")
	}
	return colorize.Untainted("⊥")
}

// Name is the uncolored, human readable name of the element.
func (t Taint) Name() string {
	if t {
		return "Tainted"
	}
	return "Untainted"
}

// JoinAll computes the least upper bound of ts. The join of no elements is ⊥.
func JoinAll(ts ...Taint) Taint {
	for _, t := range ts {
		if t {
			return Tainted
		}
	}
	return Untainted
}
