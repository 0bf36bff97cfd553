package testutil

import (
	"golang.org/x/tools/go/expect"
	"golang.org/x/tools/go/ssa"
)

type Annotation interface {
	// Returns related annotations (created from notes on the same line).
	Related() annList
	String() string

	Note() *expect.Note
	Instructions() []ssa.Instruction
	Manager() NotesManager
}

// AnnSource marks a line on which some value is expected to be tainted.
type AnnSource struct {
	basicAnnotation
}

func (a AnnSource) String() string {
	return At(id_SOURCE + " at " + a.position())
}

// Values returns the SSA values defined on the annotated line.
func (a AnnSource) Values() (res []ssa.Value) {
	for _, insn := range a.Instructions() {
		if v, ok := insn.(ssa.Value); ok {
			res = append(res, v)
		}
	}
	return
}

// AnnSink marks a line on which a sink call is expected to be reported.
type AnnSink struct {
	basicAnnotation
}

func (a AnnSink) String() string {
	str := id_SINK + " at " + a.position()
	if a.FalsePositive() {
		str += " (known false positive)"
	}
	return At(str)
}

// Calls returns the call instructions on the annotated line.
func (a AnnSink) Calls() (res []ssa.CallInstruction) {
	for _, insn := range a.Instructions() {
		if call, ok := insn.(ssa.CallInstruction); ok {
			res = append(res, call)
		}
	}
	return
}

type AnnFalseNegative struct {
	basicAnnotation
}

func (a AnnFalseNegative) String() string {
	return At("False negative at " + a.position())
}

type AnnFalsePositive struct {
	basicAnnotation
}

func (a AnnFalsePositive) String() string {
	return At("False positive at " + a.position())
}
