package main

import (
	"fmt"
	"sort"

	"github.com/cs-au-dk/gotaint/analysis/flow"
	"github.com/cs-au-dk/gotaint/utils"

	"github.com/fatih/color"
)

var outcomeColor = map[string]func(...interface{}) string{
	flow.OUTCOME_FINDINGS:    color.New(color.FgHiRed).SprintFunc(),
	flow.OUTCOME_NO_FINDINGS: color.New(color.FgGreen).SprintFunc(),
	flow.OUTCOME_UNRELIABLE:  color.New(color.FgYellow).SprintFunc(),
	flow.OUTCOME_PANIC:       color.New(color.FgRed).SprintFunc(),
	flow.OUTCOME_SKIP:        color.New(color.FgBlue).SprintFunc(),
}

// printSummary prints how many functions ended in each outcome. With
// -verbose, the outcome and running time of every function is printed too.
func printSummary(results []*flow.Result) {
	opts.OnVerbose(func() {
		fmt.Println("================ Results =====================")
		for _, res := range results {
			fmt.Printf("%s: %s", utils.SSAFunString(res.Function),
				utils.CanColorize(outcomeColor[res.Metrics.Outcome])(res.Metrics.Outcome))
			switch res.Metrics.Outcome {
			case flow.OUTCOME_SKIP, flow.OUTCOME_PANIC, flow.OUTCOME_UNRELIABLE:
				fmt.Printf(" (%s)\n", res.Metrics.Error())
			default:
				fmt.Printf(" in %s, %d block visits\n", res.Metrics.Performance(), res.Metrics.Iterations())
			}
		}
	})

	summary := flow.Summary(results)
	outcomes := make([]string, 0, len(summary))
	for outcome := range summary {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)

	fmt.Println("================ Summary =====================")
	for _, outcome := range outcomes {
		fmt.Printf("%s: %d\n", utils.CanColorize(outcomeColor[outcome])(outcome), summary[outcome])
	}
}
