package utils

import (
	"reflect"

	"github.com/benbjohnson/immutable"
	"golang.org/x/tools/go/ssa"
)

// PointerHasher is a generic hasher for pointer-like values.
type PointerHasher[T any] struct{}

// Hash computes the uint32 hash of hashable pointer v.
func (PointerHasher[T]) Hash(v T) uint32 {
	// Use reflection to get a uintptr value
	p := reflect.ValueOf(v).Pointer()
	return uint32(p ^ (p >> 32))
}

// Equal checks equality between two hashable pointers.
func (PointerHasher[T]) Equal(a, b T) bool {
	return any(a) == any(b)
}

var _ immutable.Hasher[ssa.Value] = PointerHasher[ssa.Value]{}

// NewValueMap creates an empty immutable map keyed by SSA values.
// Every ssa.Value implementation is a pointer, so pointer identity
// coincides with value identity.
func NewValueMap[V any]() *immutable.Map[ssa.Value, V] {
	return immutable.NewMap[ssa.Value, V](PointerHasher[ssa.Value]{})
}
