package rules

import (
	"fmt"
	"strings"
)

// Operator is the family an operation belongs to before its shape is taken
// into account, e.g. every keyed read is a Subscript regardless of whether
// it supplies a default.
type Operator int

const (
	// Unknown is any operator the extractor could not attribute to a family,
	// such as a call to an unmodeled function.
	Unknown Operator = iota
	Literal
	Subscript
	Unwrap
	Update
	Merge
	Project
)

var operatorNames = map[Operator]string{
	Unknown:   "unknown",
	Literal:   "literal",
	Subscript: "subscript",
	Unwrap:    "unwrap",
	Update:    "update",
	Merge:     "merge",
	Project:   "project",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return operatorNames[Unknown]
}

// ParseOperator maps an operator family name to its Operator.
func ParseOperator(name string) (Operator, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for o, n := range operatorNames {
		if n == name {
			return o, nil
		}
	}
	return Unknown, fmt.Errorf("unknown operator family %q", name)
}

// Shape is the structural signature of an operation occurrence. Arity counts
// every non-callback operand as it appears syntactically, including keys.
type Shape struct {
	Operator    Operator
	Arity       int
	HasCallback bool
	Mutating    bool
}

func (s Shape) String() string {
	str := fmt.Sprintf("%s/%d", s.Operator, s.Arity)
	if s.HasCallback {
		str += "+callback"
	}
	if s.Mutating {
		str += " (mutating)"
	}
	return str
}
