package rules

import (
	"errors"
	"fmt"

	L "github.com/cs-au-dk/gotaint/analysis/lattice"
)

// ErrMalformedFact is returned when an operation fact supplies a number of
// operands that does not fit the rule of its kind.
var ErrMalformedFact = errors.New("malformed operation fact")

// Result carries the output taints of one operation. Mutated is the new
// taint of the receiver cell and is only meaningful if HasMutated is set.
// Return is the taint of the value the operation yields and is only
// meaningful if HasReturn is set.
type Result struct {
	Mutated    L.Taint
	Return     L.Taint
	HasMutated bool
	HasReturn  bool
}

func (r Result) String() string {
	switch {
	case r.HasMutated && r.HasReturn:
		return fmt.Sprintf("[mutated: %s, return: %s]", r.Mutated, r.Return)
	case r.HasMutated:
		return fmt.Sprintf("[mutated: %s]", r.Mutated)
	case r.HasReturn:
		return fmt.Sprintf("[return: %s]", r.Return)
	}
	return "[]"
}

// rule is one row of the propagation table.
type rule struct {
	// arity is the number of operand taints the rule consumes, or -1 for any.
	arity int
	// mutates and returns declare the outputs of the rule.
	mutates, returns bool
	// apply computes the outputs. Only declared outputs are read.
	apply func(ops []L.Taint) (mutated, ret L.Taint)

	inputs, outputs, rationale string
}

func first(ops []L.Taint) (L.Taint, L.Taint) {
	return L.Untainted, ops[0]
}

func joinReturn(ops []L.Taint) (L.Taint, L.Taint) {
	return L.Untainted, L.JoinAll(ops...)
}

// table is the immutable rule table, indexed by kind. It is only ever read.
var table = [numKinds]rule{
	Construct: {
		arity: -1, returns: true, apply: joinReturn,
		inputs:    "entry values (keys ignored)",
		outputs:   "new cell = ⊔ entries",
		rationale: "a literal mixes all of its values into one cell",
	},
	ReadKeyed: {
		arity: 1, returns: true, apply: first,
		inputs:    "container",
		outputs:   "return = container",
		rationale: "keys are not tracked, any read may yield any stored value",
	},
	ReadKeyedWithDefault: {
		arity: 2, returns: true, apply: joinReturn,
		inputs:    "container, default",
		outputs:   "return = container ⊔ default",
		rationale: "key presence is unknown, so both branches are possible",
	},
	ReadForceUnwrapped: {
		arity: 1, returns: true, apply: first,
		inputs:    "underlying read",
		outputs:   "return = underlying read",
		rationale: "unwrapping neither adds nor removes taint",
	},
	UpdateKeyedInPlace: {
		arity: 2, mutates: true, returns: true,
		apply: func(ops []L.Taint) (L.Taint, L.Taint) {
			before, value := ops[0], ops[1]
			return before.Join(value), before
		},
		inputs:    "container (before), new value",
		outputs:   "mutated = before ⊔ value, return = before",
		rationale: "the previous value may be any value the container held",
	},
	MergeInPlaceWithResolver: {
		arity: 2, mutates: true,
		apply: func(ops []L.Taint) (L.Taint, L.Taint) {
			return merged(ops[0], ops[1]), L.Untainted
		},
		inputs:    "receiver, other",
		outputs:   "mutated = receiver ⊔ other",
		rationale: "whatever the resolver picks stems from one of the two containers",
	},
	MergeToNewWithResolver: {
		arity: 2, returns: true,
		apply: func(ops []L.Taint) (L.Taint, L.Taint) {
			return L.Untainted, merged(ops[0], ops[1])
		},
		inputs:    "left, right",
		outputs:   "new cell = left ⊔ right",
		rationale: "whatever the resolver picks stems from one of the two containers",
	},
	ProjectToSequence: {
		arity: 1, returns: true, apply: first,
		inputs:    "source container",
		outputs:   "new sequence = source",
		rationale: "every projection preserves the whole-container taint",
	},
	Unmodeled: {
		arity: -1, mutates: true, returns: true, apply: func(ops []L.Taint) (L.Taint, L.Taint) {
			t := L.JoinAll(ops...)
			return t, t
		},
		inputs:    "all operands",
		outputs:   "every output = ⊔ operands",
		rationale: "never drops known taint",
	},
}

func ruleOf(k Kind) *rule {
	if k < 0 || k >= numKinds {
		return &table[Unmodeled]
	}
	return &table[k]
}

// Arity returns the number of operand taints the rule of k consumes, and
// false if the rule accepts any number of operands.
func Arity(k Kind) (int, bool) {
	r := ruleOf(k)
	return r.arity, r.arity >= 0
}

// Evaluate applies the propagation rule of k to the operand taints.
//
// Operands are the taints consumed by the rule, in the order listed in the
// rule table; keys are never among them. Evaluation is pure and safe for
// concurrent use. Every declared output is always computed; the caller
// decides which of them are live. Callbacks are never inspected, so
// hasCallback selects no rule of its own: the merge rows already cover every
// choice of a resolver.
func Evaluate(k Kind, operands []L.Taint, hasCallback bool) (Result, error) {
	r := ruleOf(k)
	if r.arity >= 0 && len(operands) != r.arity {
		return Result{}, fmt.Errorf("%w: %s expects %d operand(s), got %d",
			ErrMalformedFact, k.Name(), r.arity, len(operands))
	}

	mutated, ret := r.apply(operands)
	res := Result{HasMutated: r.mutates, HasReturn: r.returns}
	if r.mutates {
		res.Mutated = mutated
	}
	if r.returns {
		res.Return = ret
	}
	return res, nil
}
