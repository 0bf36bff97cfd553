package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cs-au-dk/gotaint/analysis/facts"
	"github.com/cs-au-dk/gotaint/analysis/flow"
	"github.com/cs-au-dk/gotaint/analysis/rules"
	"github.com/cs-au-dk/gotaint/config"
	"github.com/cs-au-dk/gotaint/utils"
)

var (
	opts = utils.Opts()
	task = opts.Task()
)

func main() {
	utils.ParseArgs()

	switch {
	case task.IsRules():
		fmt.Print(rules.TableString())
		return
	case task.IsFacts():
		f, err := facts.LoadFile(opts.Facts())
		if err != nil {
			log.Fatalln(err)
		}
		results := flow.EvaluateFile(f)
		fmt.Print(flow.FileReport(results))

		outcomes := make(map[string]int)
		for _, res := range results {
			outcomes[res.Metrics.Outcome]++
		}
		exit(outcomes)
		return
	}

	cfg, err := config.Load(opts.Models())
	if err != nil {
		log.Fatalln(err)
	}

	pl, err := load(utils.MakePath(), cfg)
	if err != nil {
		log.Println("Failed to load packages")
		log.Println(err)
		os.Exit(1)
	}

	funcs := pl.functions()
	if len(funcs) == 0 {
		log.Fatalf("No function matches %q", opts.Function())
	}

	switch {
	case task.IsTaint():
		results := pl.analyze(funcs)
		fmt.Print(flow.Report(results))
		printSummary(results)
		exit(flow.Summary(results))
	case task.IsCoverage():
		pl.coverage(funcs)
	case task.IsCfgToDot():
		out, err := pl.visualize(funcs[0])
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Println(out)
	}
}

// exit sets the exit status to 3 if any sink receives tainted data, and to
// 2 if any function could not be analyzed reliably.
func exit(outcomes map[string]int) {
	switch {
	case outcomes[flow.OUTCOME_FINDINGS] > 0:
		os.Exit(3)
	case outcomes[flow.OUTCOME_UNRELIABLE] > 0 || outcomes[flow.OUTCOME_PANIC] > 0:
		os.Exit(2)
	}
}
