package rules

import (
	"github.com/cs-au-dk/gotaint/utils"

	"github.com/fatih/color"
)

// Kind is the closed set of container operations the evaluator has a rule for.
type Kind int

const (
	// Unmodeled is the fallback for every operation shape without a
	// dedicated rule. It joins all operands into every output.
	Unmodeled Kind = iota
	Construct
	ReadKeyed
	ReadKeyedWithDefault
	ReadForceUnwrapped
	UpdateKeyedInPlace
	MergeInPlaceWithResolver
	MergeToNewWithResolver
	ProjectToSequence

	numKinds
)

var kindNames = [numKinds]string{
	Unmodeled:                "Unmodeled",
	Construct:                "Construct",
	ReadKeyed:                "ReadKeyed",
	ReadKeyedWithDefault:     "ReadKeyedWithDefault",
	ReadForceUnwrapped:       "ReadForceUnwrapped",
	UpdateKeyedInPlace:       "UpdateKeyedInPlace",
	MergeInPlaceWithResolver: "MergeInPlaceWithResolver",
	MergeToNewWithResolver:   "MergeToNewWithResolver",
	ProjectToSequence:        "ProjectToSequence",
}

var kindColor = func(is ...interface{}) string {
	return utils.CanColorize(color.New(color.FgMagenta).SprintFunc())(is...)
}

// Kinds lists every kind, Unmodeled last.
func Kinds() []Kind {
	ks := make([]Kind, 0, numKinds)
	for k := Construct; k < numKinds; k++ {
		ks = append(ks, k)
	}
	return append(ks, Unmodeled)
}

// Name is the uncolored name of the kind.
func (k Kind) Name() string {
	if k < 0 || k >= numKinds {
		return kindNames[Unmodeled]
	}
	return kindNames[k]
}

func (k Kind) String() string {
	return kindColor(k.Name())
}

// ParseKind maps a kind name to its Kind. Names that do not denote a
// modeled kind map to Unmodeled.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return Kind(k)
		}
	}
	return Unmodeled
}

// IsMutating is true for the kinds that update an existing container cell
// in place.
func (k Kind) IsMutating() bool {
	return k == UpdateKeyedInPlace || k == MergeInPlaceWithResolver
}
