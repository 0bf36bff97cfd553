package rules

import (
	"testing"

	L "github.com/cs-au-dk/gotaint/analysis/lattice"
)

// resolver is a concrete conflict resolution strategy, as a caller of a
// merge operation would supply it.
type resolver func(existing, incoming L.Taint) L.Taint

var resolvers = map[string]resolver{
	"keep existing": func(existing, _ L.Taint) L.Taint { return existing },
	"keep incoming": func(_, incoming L.Taint) L.Taint { return incoming },
}

// concreteMerge computes the taint of a merged container when the
// containers either share all keys, so every entry goes through the
// resolver, or share none, so both contents survive.
func concreteMerge(left, right L.Taint, overlapping bool, resolve resolver) L.Taint {
	if overlapping {
		return resolve(left, right)
	}
	return left.Join(right)
}

func TestResolverIndependence(t *testing.T) {
	for _, ops := range allOperands(2) {
		left, right := ops[0], ops[1]

		inPlace := evaluate(t, MergeInPlaceWithResolver, true, left, right).Mutated
		toNew := evaluate(t, MergeToNewWithResolver, true, left, right).Return
		if inPlace != toNew {
			t.Errorf("Merge variants disagree on (%s, %s): %s vs. %s", left, right, inPlace, toNew)
		}

		for name, resolve := range resolvers {
			for _, overlapping := range []bool{false, true} {
				concrete := concreteMerge(left, right, overlapping, resolve)
				if !concrete.Leq(inPlace) {
					t.Errorf("Merge of (%s, %s) with %q resolver yields %s, which is not covered by %s",
						left, right, name, concrete, inPlace)
				}
			}
		}
	}
}

func TestResolverChoicesCoverResolvers(t *testing.T) {
	for _, ops := range allOperands(2) {
		existing, incoming := ops[0], ops[1]
		choices := ResolverChoices(existing, incoming)

		for name, resolve := range resolvers {
			res := resolve(existing, incoming)
			found := false
			for _, c := range choices {
				found = found || c == res
			}
			if !found {
				t.Errorf("%q resolver yields %s for (%s, %s), which is not among %v",
					name, res, existing, incoming, choices)
			}
			if m := merged(existing, incoming); !res.Leq(m) {
				t.Errorf("%q resolver yields %s for (%s, %s), which is not covered by %s",
					name, res, existing, incoming, m)
			}
		}
	}
}
