package flow

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cs-au-dk/gotaint/analysis/facts"
	L "github.com/cs-au-dk/gotaint/analysis/lattice"
	"github.com/cs-au-dk/gotaint/analysis/rules"
)

// FileResult is the outcome of evaluating the facts of one function of a
// facts file.
type FileResult struct {
	Name    string
	Metrics *Metrics
	// Values binds the ids of the facts to their taint.
	Values map[string]L.Taint
	// Findings are the indices of the sink facts with a tainted operand.
	Findings []int
	// Unmodeled are the indices of the facts that fell back to the join-all rule.
	Unmodeled   []int
	Diagnostics []error

	fun facts.FileFunction
}

// EvaluateFile evaluates every function of a facts file. Functions are
// evaluated independently: a malformed fact only affects its function.
func EvaluateFile(f *facts.File) []*FileResult {
	results := make([]*FileResult, 0, len(f.Functions))
	for _, fun := range f.Functions {
		results = append(results, evaluateFunction(fun))
	}
	return results
}

func evaluateFunction(fun facts.FileFunction) (res *FileResult) {
	res = &FileResult{
		Name:    fun.Name,
		Metrics: &Metrics{},
		Values:  make(map[string]L.Taint),
		fun:     fun,
	}
	res.Metrics.TimerStart()

	defer func() {
		if err := recover(); err != nil {
			res.Metrics.Panic(err)
		}
	}()

	defined := func(id string) bool {
		_, ok := res.Values[id]
		return ok
	}

	for i, fact := range fun.Facts {
		ops := make([]facts.Operand, 0, len(fact.Operands))
		taints := make([]L.Taint, 0, len(fact.Operands))
		malformed := false
		for _, s := range fact.Operands {
			op, err := facts.ResolveOperand(s, defined)
			if err != nil {
				res.diagnose(i, err)
				malformed = true
				break
			}
			ops = append(ops, op)
			if op.IsRef() {
				taints = append(taints, res.Values[op.Ref])
			} else {
				taints = append(taints, op.Taint)
			}
		}
		if malformed {
			continue
		}

		if fact.IsSink() {
			if L.JoinAll(taints...).IsTainted() {
				res.Findings = append(res.Findings, i)
			}
			continue
		}

		kind := fact.Classify()
		if kind == rules.Unmodeled {
			res.Unmodeled = append(res.Unmodeled, i)
		}

		out, err := rules.Evaluate(kind, taints, fact.Callback)
		if err != nil {
			res.diagnose(i, err)
			out, _ = rules.Evaluate(rules.Unmodeled, taints, fact.Callback)
		}

		if out.HasMutated {
			if len(ops) > 0 && ops[0].IsRef() {
				res.Values[ops[0].Ref] = res.Values[ops[0].Ref].Join(out.Mutated)
			} else if kind != rules.Unmodeled {
				res.diagnose(i, fmt.Errorf("%w: %s mutates its first operand, which must be a reference",
					rules.ErrMalformedFact, kind.Name()))
			}
		}
		if fact.ID != "" {
			t := res.Values[fact.ID]
			if out.HasReturn {
				t = t.Join(out.Return)
			}
			res.Values[fact.ID] = t
		}
	}

	if len(res.Diagnostics) > 0 {
		res.Metrics.Unreliable(errors.Join(res.Diagnostics...))
	} else {
		res.Metrics.Done(len(res.Findings))
	}
	return
}

func (res *FileResult) diagnose(i int, err error) {
	where := fmt.Sprintf("%s: fact %d", res.Name, i)
	if line := res.fun.Facts[i].Line; line > 0 {
		where += fmt.Sprintf(" (line %d)", line)
	}
	res.Diagnostics = append(res.Diagnostics, fmt.Errorf("%s: %w", where, err))
}

// FileReport renders the results of a facts file, one function per line.
func FileReport(results []*FileResult) string {
	var sb strings.Builder
	for _, res := range results {
		fmt.Fprintf(&sb, "%s: %s", res.Name, strings.ToLower(res.Metrics.Outcome))
		if len(res.Findings) > 0 {
			fmt.Fprintf(&sb, ", sinks %v", res.Findings)
		}
		if len(res.Unmodeled) > 0 {
			fmt.Fprintf(&sb, ", unmodeled %v", res.Unmodeled)
		}
		sb.WriteString("\n")

		ids := make([]string, 0, len(res.Values))
		for id := range res.Values {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&sb, "  %s = %s\n", id, res.Values[id].Name())
		}
		for _, err := range res.Diagnostics {
			fmt.Fprintf(&sb, "  error: %s\n", err)
		}
	}
	return sb.String()
}
