package flow

import (
	"fmt"
	"go/token"
	"sort"
	"strings"

	"github.com/cs-au-dk/gotaint/utils"

	"golang.org/x/tools/go/ssa"
)

// Finding is a sink call that receives a tainted argument.
type Finding struct {
	Function *ssa.Function
	Call     ssa.CallInstruction
	Sink     *ssa.Function
	// Arg is the index of the first tainted argument.
	Arg int
}

func (f Finding) Pos() token.Pos {
	return f.Call.Pos()
}

// Position resolves the position of the sink call.
func (f Finding) Position() token.Position {
	return f.Function.Prog.Fset.Position(f.Pos())
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: tainted argument #%d reaches %s at %s",
		utils.SSAFunString(f.Function), f.Arg, utils.SSAFunString(f.Sink), f.Position())
}

// plain renders the finding without colors.
func (f Finding) plain() string {
	return fmt.Sprintf("%s: tainted argument #%d reaches %s at %s",
		f.Function, f.Arg, f.Sink, f.Position())
}

// Report renders the findings of all results, and the functions that could
// not be analyzed reliably, one per line and sorted.
func Report(results []*Result) string {
	var lines []string
	for _, res := range results {
		for _, f := range res.Findings {
			lines = append(lines, f.plain())
		}
		if !res.Metrics.Reliable() && res.Metrics.Outcome != OUTCOME_SKIP {
			lines = append(lines, fmt.Sprintf("%s: %s: %s",
				res.Function, strings.ToLower(res.Metrics.Outcome), res.Metrics.Error()))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n") + "\n"
}

// Summary counts the outcomes of the results.
func Summary(results []*Result) map[string]int {
	counts := make(map[string]int)
	for _, res := range results {
		counts[res.Metrics.Outcome]++
	}
	return counts
}
