package facts

import (
	"go/types"

	"github.com/cs-au-dk/gotaint/analysis/container"
	"github.com/cs-au-dk/gotaint/analysis/oracle"
	"github.com/cs-au-dk/gotaint/analysis/rules"
	"github.com/cs-au-dk/gotaint/config"

	"golang.org/x/tools/go/ssa"
)

// Extractor maps SSA instructions to operation facts.
type Extractor struct {
	config *config.Config
	oracle *oracle.Oracle
}

func NewExtractor(cfg *config.Config, o *oracle.Oracle) *Extractor {
	return &Extractor{config: cfg, oracle: o}
}

// Extract computes the facts of fn. Calls to sources are not facts: their
// results are tainted by definition.
func (e *Extractor) Extract(fn *ssa.Function) *Facts {
	fs := newFacts(fn)

	for _, b := range fn.Blocks {
		for i, insn := range b.Instrs {
			switch insn := insn.(type) {
			case *ssa.MakeMap:
				e.literal(fs, insn, b.Instrs[i+1:])
			case *ssa.MapUpdate:
				if fs.IsFolded(insn) {
					continue
				}
				f := newFact(insn, rules.Shape{
					Operator: rules.Update,
					Arity:    3,
					Mutating: true,
				})
				f.Operands = []ssa.Value{insn.Map, insn.Value}
				f.Mutates = []ssa.Value{insn.Map}
				fs.add(f)
			case *ssa.Lookup:
				if !isMap(insn.X) {
					continue
				}
				f := newFact(insn, rules.Shape{Operator: rules.Subscript, Arity: 2})
				f.Operands = []ssa.Value{insn.X}
				f.Result = insn
				fs.add(f)
			case *ssa.Range:
				if !isMap(insn.X) {
					continue
				}
				f := newFact(insn, rules.Shape{Operator: rules.Project, Arity: 1})
				f.Operands = []ssa.Value{insn.X}
				f.Result = insn
				fs.add(f)
			case ssa.CallInstruction:
				if e.oracle.IsSourceCall(insn) {
					continue
				}
				if f := e.call(insn); f != nil {
					fs.add(f)
				}
			}
		}
	}

	return fs
}

func isMap(v ssa.Value) bool {
	_, ok := v.Type().Underlying().(*types.Map)
	return ok
}

func isFunc(v ssa.Value) bool {
	_, ok := v.Type().Underlying().(*types.Signature)
	return ok
}

// mayBeWritten is true for values through which a callee can store data
// that outlives the call.
func mayBeWritten(v ssa.Value) bool {
	if _, ok := v.(*ssa.Const); ok {
		return false
	}
	if container.IsContainer(v) {
		return true
	}
	switch v.Type().Underlying().(type) {
	case *types.Pointer, *types.Slice:
		return true
	}
	return false
}

func refersTo(insn ssa.Instruction, v ssa.Value) bool {
	for _, op := range insn.Operands(nil) {
		if op != nil && *op == v {
			return true
		}
	}
	return false
}

// literal folds the updates that immediately populate a fresh map into a
// single construction, taking effect at the last of them.
func (e *Extractor) literal(fs *Facts, mm *ssa.MakeMap, rest []ssa.Instruction) {
	var updates []*ssa.MapUpdate
	for _, insn := range rest {
		if upd, ok := insn.(*ssa.MapUpdate); ok && upd.Map == mm && upd.Value != mm {
			updates = append(updates, upd)
			continue
		}
		if refersTo(insn, mm) {
			break
		}
	}

	var anchor ssa.Instruction = mm
	if len(updates) > 0 {
		anchor = updates[len(updates)-1]
	}

	f := newFact(anchor, rules.Shape{Operator: rules.Literal, Arity: len(updates)})
	f.Result = mm
	f.Operands = []ssa.Value{}
	for _, upd := range updates {
		f.Operands = append(f.Operands, upd.Value)
		fs.folded[upd] = f
	}
	fs.add(f)
}

// call creates the fact of a call. Calls of modeled callees take the shape
// of their model; every other call is an unknown operation over all of its
// operands.
func (e *Extractor) call(call ssa.CallInstruction) *Fact {
	common := call.Common()
	callee := oracle.Callee(call)

	var args []ssa.Value
	if common.IsInvoke() {
		args = append(args, common.Value)
	} else if callee == nil {
		if _, builtin := common.Value.(*ssa.Builtin); !builtin {
			// Closures may carry taint in their free variables.
			args = append(args, common.Value)
		}
	}
	args = append(args, common.Args...)

	var result ssa.Value
	if v := call.Value(); v != nil {
		result = v
	}

	if model, ok := e.config.Model(oracle.Names(callee)...); ok && callee != nil {
		shape := rules.Shape{Operator: model.Operator(), Mutating: model.Mutating}
		var positional []ssa.Value
		for _, arg := range args {
			if isFunc(arg) {
				shape.HasCallback = true
				continue
			}
			positional = append(positional, arg)
		}
		shape.Arity = len(positional)

		f := newFact(call, shape)
		f.Callee = callee
		f.Result = result
		f.Operands = []ssa.Value{}
		for i, arg := range positional {
			if !model.IsKey(i) {
				f.Operands = append(f.Operands, arg)
			}
		}
		// The receiver is mutated whatever its type: a model may describe a
		// container behind a pointer or a struct.
		if model.Mutating && len(positional) > 0 {
			f.Mutates = []ssa.Value{positional[0]}
		}
		return f
	}

	shape := rules.Shape{Operator: rules.Unknown, Arity: len(args)}
	for _, arg := range args {
		if isFunc(arg) {
			shape.HasCallback = true
		}
	}

	f := newFact(call, shape)
	f.Callee = callee
	f.Result = result
	f.Operands = args
	// An unknown callee may store into anything it is handed a reference to.
	for _, arg := range args {
		if mayBeWritten(arg) {
			f.Mutates = append(f.Mutates, arg)
		}
	}
	return f
}
