// Package facts turns the instructions of a function into container
// operation facts.
package facts

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/gotaint/analysis/rules"
	"github.com/cs-au-dk/gotaint/utils"

	"golang.org/x/tools/go/ssa"
)

// Fact is one container operation occurrence.
type Fact struct {
	// Instr is the instruction at which the operation takes effect. For
	// map literals this is the last update of the literal.
	Instr ssa.Instruction
	Shape rules.Shape
	Kind  rules.Kind
	// Operands are the values whose taints the rule consumes, in rule order.
	Operands []ssa.Value
	// Mutates are the containers that receive the mutated output.
	Mutates []ssa.Value
	// Result receives the return output. It is nil if the operation yields
	// no value.
	Result ssa.Value
	// Callee is the called function of call operations, if static.
	Callee *ssa.Function
}

func newFact(insn ssa.Instruction, shape rules.Shape) *Fact {
	return &Fact{
		Instr: insn,
		Shape: shape,
		Kind:  rules.Classify(shape),
	}
}

func (f *Fact) String() string {
	ops := make([]string, 0, len(f.Operands))
	for _, op := range f.Operands {
		ops = append(ops, utils.SSAValName(op))
	}

	str := fmt.Sprintf("%s %s(%s)", f.Kind, f.Shape, strings.Join(ops, ", "))
	if f.Result != nil {
		str = utils.SSAValName(f.Result) + " = " + str
	}
	if f.Callee != nil {
		str += " via " + utils.SSAFunString(f.Callee)
	}
	return str
}

// Facts are the facts of one function.
type Facts struct {
	Function *ssa.Function
	list     []*Fact
	byInstr  map[ssa.Instruction]*Fact
	// folded holds the map updates subsumed by a map literal.
	folded map[*ssa.MapUpdate]*Fact
}

func newFacts(fn *ssa.Function) *Facts {
	return &Facts{
		Function: fn,
		byInstr:  make(map[ssa.Instruction]*Fact),
		folded:   make(map[*ssa.MapUpdate]*Fact),
	}
}

func (fs *Facts) add(f *Fact) {
	fs.list = append(fs.list, f)
	fs.byInstr[f.Instr] = f
}

// At returns the fact taking effect at the instruction.
func (fs *Facts) At(insn ssa.Instruction) (*Fact, bool) {
	f, ok := fs.byInstr[insn]
	return f, ok
}

// IsFolded is true if the instruction is a map update that is part of a
// map literal.
func (fs *Facts) IsFolded(insn ssa.Instruction) bool {
	upd, ok := insn.(*ssa.MapUpdate)
	if !ok {
		return false
	}
	_, ok = fs.folded[upd]
	return ok
}

// List returns the facts in program order.
func (fs *Facts) List() []*Fact {
	return fs.list
}

// Unmodeled returns the facts that fall back to the join-all rule.
func (fs *Facts) Unmodeled() (res []*Fact) {
	for _, f := range fs.list {
		if f.Kind == rules.Unmodeled {
			res = append(res, f)
		}
	}
	return
}
