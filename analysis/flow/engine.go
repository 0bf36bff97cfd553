// Package flow is an intraprocedural taint analysis over Go SSA. It walks
// every function to a fixpoint, evaluates the container operations it meets
// with the propagation rules, and reports tainted arguments of sink calls.
package flow

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/gotaint/analysis/container"
	"github.com/cs-au-dk/gotaint/analysis/facts"
	L "github.com/cs-au-dk/gotaint/analysis/lattice"
	"github.com/cs-au-dk/gotaint/analysis/oracle"
	"github.com/cs-au-dk/gotaint/analysis/rules"
	"github.com/cs-au-dk/gotaint/config"
	"github.com/cs-au-dk/gotaint/utils"
	"github.com/cs-au-dk/gotaint/utils/worklist"

	"golang.org/x/tools/go/ssa"
)

var opts = utils.Opts()

// Analysis analyzes functions under a fixed configuration. It holds no
// per-function state and is safe for concurrent use.
type Analysis struct {
	oracle    *oracle.Oracle
	extractor *facts.Extractor
}

func New(cfg *config.Config) *Analysis {
	o := oracle.FromConfig(cfg)
	return &Analysis{
		oracle:    o,
		extractor: facts.NewExtractor(cfg, o),
	}
}

// Result is the outcome of analyzing one function.
type Result struct {
	Function *ssa.Function
	Metrics  *Metrics
	Facts    *facts.Facts
	Findings []Finding
	// Diagnostics are the errors of the malformed facts of the function,
	// one per fact.
	Diagnostics []error

	sinkCalls []ssa.CallInstruction
	diagnosed map[*facts.Fact]bool
	state     *state
}

// TaintOf returns the taint bound to v at the fixpoint.
func (r *Result) TaintOf(v ssa.Value) L.Taint {
	if r.state == nil {
		return L.Untainted
	}
	return r.state.taintOf(v)
}

// Sequence returns the sequence projected into v, if any.
func (r *Result) Sequence(v ssa.Value) (container.Sequence, bool) {
	if r.state == nil {
		return container.Sequence{}, false
	}
	return r.state.sequences.Get(v)
}

// CellOf returns the container cell of v, if v is a container.
func (r *Result) CellOf(v ssa.Value) *container.Cell {
	if r.state == nil {
		return nil
	}
	return r.state.heap.CellOf(v)
}

// SinkCalls are the calls of sinks in the function, whether reported or not.
func (r *Result) SinkCalls() []ssa.CallInstruction {
	return r.sinkCalls
}

// Unmodeled returns the operations that fell back to the join-all rule.
func (r *Result) Unmodeled() []*facts.Fact {
	if r.Facts == nil {
		return nil
	}
	return r.Facts.Unmodeled()
}

// Analyze computes the taint bindings of fn and checks its sink calls.
// Panics are recovered into the outcome of the function.
func (a *Analysis) Analyze(fn *ssa.Function) (res *Result) {
	res = &Result{
		Function:  fn,
		Metrics:   &Metrics{},
		diagnosed: make(map[*facts.Fact]bool),
	}
	res.Metrics.TimerStart()

	defer func() {
		if err := recover(); err != nil {
			res.Metrics.Panic(err)
		}
	}()

	res.Facts = a.extractor.Extract(fn)
	res.state = newState(fn)

	a.fixpoint(res)
	a.checkSinks(res)

	if len(res.Diagnostics) > 0 {
		res.Metrics.Unreliable(errors.Join(res.Diagnostics...))
	} else {
		res.Metrics.Done(len(res.Findings))
	}

	opts.OnVerbose(func() {
		fmt.Printf("%s: %s after %d block visits in %s\n",
			utils.SSAFunString(fn), res.Metrics.Outcome,
			res.Metrics.Iterations(), res.Metrics.Performance())
	})
	return
}

// fixpoint visits blocks until no binding grows. When the taint of a value
// grows, the blocks of its referrers are visited again. Bindings only grow
// and the lattice has height 2, so every value changes at most once.
func (a *Analysis) fixpoint(res *Result) {
	worklist.StartV(res.Function.Blocks, func(b *ssa.BasicBlock, add func(*ssa.BasicBlock)) {
		res.Metrics.iterations++
		for _, insn := range b.Instrs {
			for _, v := range a.transfer(res, insn) {
				refs := v.Referrers()
				if refs == nil {
					continue
				}
				for _, ref := range *refs {
					if ref.Block() != nil {
						add(ref.Block())
					}
				}
			}
		}
	})
}

// transfer evaluates one instruction and returns the values whose taint grew.
func (a *Analysis) transfer(res *Result, insn ssa.Instruction) []ssa.Value {
	s := res.state

	if f, ok := res.Facts.At(insn); ok {
		return a.apply(res, f)
	}

	switch insn := insn.(type) {
	case *ssa.MapUpdate:
		// Part of a map literal.
		return nil
	case *ssa.Store:
		return s.bindAddress(insn.Addr, s.taintOf(insn.Val))
	case ssa.CallInstruction:
		if a.oracle.IsSourceCall(insn) {
			if v := insn.Value(); v != nil {
				return s.bind(v, L.Tainted)
			}
			return nil
		}
	}

	v, ok := insn.(ssa.Value)
	if !ok {
		return nil
	}

	t := L.Untainted
	for _, op := range insn.Operands(nil) {
		if op != nil && *op != nil {
			t = t.Join(s.taintOf(*op))
		}
	}
	return s.bind(v, t)
}

// apply evaluates the rule of a fact and stores its outputs. A malformed
// fact is reported once and evaluated with the join-all rule.
func (a *Analysis) apply(res *Result, f *facts.Fact) (changed []ssa.Value) {
	s := res.state

	ops := make([]L.Taint, len(f.Operands))
	for i, op := range f.Operands {
		ops[i] = s.taintOf(op)
	}

	out, err := rules.Evaluate(f.Kind, ops, f.Shape.HasCallback)
	if err != nil {
		if !res.diagnosed[f] {
			res.diagnosed[f] = true
			pos := f.Instr.Parent().Prog.Fset.Position(f.Instr.Pos())
			res.Diagnostics = append(res.Diagnostics, fmt.Errorf("%s: %w", pos, err))
		}
		out, _ = rules.Evaluate(rules.Unmodeled, ops, f.Shape.HasCallback)
	}

	if out.HasMutated {
		for _, m := range f.Mutates {
			changed = append(changed, s.bindAddress(m, out.Mutated)...)
		}
	}
	if out.HasReturn && f.Result != nil {
		if f.Kind == rules.ProjectToSequence {
			changed = append(changed, s.project(f.Result, f.Operands[0], out.Return)...)
		} else {
			changed = append(changed, s.bind(f.Result, out.Return)...)
		}
	}
	return
}

// checkSinks reports the sink calls that receive a tainted argument.
func (a *Analysis) checkSinks(res *Result) {
	for _, b := range res.Function.Blocks {
		for _, insn := range b.Instrs {
			call, ok := insn.(ssa.CallInstruction)
			if !ok || !a.oracle.IsSinkCall(call) {
				continue
			}
			res.sinkCalls = append(res.sinkCalls, call)

			for i, arg := range call.Common().Args {
				if res.state.taintOf(arg).IsTainted() {
					res.Findings = append(res.Findings, Finding{
						Function: res.Function,
						Call:     call,
						Sink:     oracle.Callee(call),
						Arg:      i,
					})
					break
				}
			}
		}
	}
}
