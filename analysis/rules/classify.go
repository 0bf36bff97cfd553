package rules

// Classify maps an operation shape to the kind whose rule applies to it.
// Classification only looks at the operator family, the arity, the presence
// of a callback and whether the operation mutates its receiver. Callback
// bodies are never consulted. Shapes without a rule classify as Unmodeled.
func Classify(s Shape) Kind {
	switch s.Operator {
	case Literal:
		if !s.Mutating {
			return Construct
		}
	case Subscript:
		if s.Mutating || s.HasCallback {
			break
		}
		switch s.Arity {
		case 2:
			return ReadKeyed
		case 3:
			return ReadKeyedWithDefault
		}
	case Unwrap:
		if s.Arity == 1 && !s.Mutating && !s.HasCallback {
			return ReadForceUnwrapped
		}
	case Update:
		if s.Arity == 3 && s.Mutating && !s.HasCallback {
			return UpdateKeyedInPlace
		}
	case Merge:
		if s.Arity != 2 || !s.HasCallback {
			break
		}
		if s.Mutating {
			return MergeInPlaceWithResolver
		}
		return MergeToNewWithResolver
	case Project:
		if s.Arity == 1 && !s.Mutating {
			return ProjectToSequence
		}
	}
	return Unmodeled
}
