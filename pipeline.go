package main

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/cs-au-dk/gotaint/analysis/flow"
	"github.com/cs-au-dk/gotaint/config"
	"github.com/cs-au-dk/gotaint/pkgutil"
	"github.com/cs-au-dk/gotaint/utils"
	"github.com/cs-au-dk/gotaint/utils/dot"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// pipeline is a wrapper around the loaded program and the analysis.
type pipeline struct {
	prog     *ssa.Program
	local    []*ssa.Package
	analysis *flow.Analysis
}

// load loads and builds the packages matching path, and prepares an
// analysis under cfg.
func load(path string, cfg *config.Config) (*pipeline, error) {
	pkgs, err := pkgutil.LoadPackages(pkgutil.LoadConfig{
		GoPath:       opts.GoPath(),
		ModulePath:   opts.ModulePath(),
		IncludeTests: opts.IncludeTests(),
	}, path)
	if err != nil {
		return nil, err
	}

	log.Println("Building SSA...")
	prog, _ := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	local, err := pkgutil.LocalPackages(prog, pkgs)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		prog:     prog,
		local:    local,
		analysis: flow.New(cfg),
	}, nil
}

// functions returns the functions selected by -fun.
func (p *pipeline) functions() []*ssa.Function {
	funcs := pkgutil.Functions(p.prog, p.local)
	if opts.AnalyzeAllFuncs() {
		return funcs
	}
	return pkgutil.FindFunction(funcs, opts.Function())
}

// analyze runs the taint analysis on funcs. Functions that have not been
// started when the timeout expires are skipped.
func (p *pipeline) analyze(funcs []*ssa.Function) []*flow.Result {
	ctx := context.Background()
	if timeout := opts.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.Printf("Analyzing %d functions with %d workers...", len(funcs), opts.Workers())
	return p.analysis.AnalyzeAll(ctx, funcs, opts.Workers())
}

// coverage lists the operations that fell back to the join-all rule, by
// function.
func (p *pipeline) coverage(funcs []*ssa.Function) {
	total, unmodeled := 0, 0
	for _, res := range p.analyze(funcs) {
		if res.Facts == nil {
			continue
		}
		total += len(res.Facts.List())

		list := res.Unmodeled()
		if len(list) == 0 {
			continue
		}
		unmodeled += len(list)

		fmt.Println(utils.SSAFunString(res.Function))
		for _, f := range list {
			fmt.Printf("  %s: %s\n", p.prog.Fset.Position(f.Instr.Pos()), f)
		}
	}
	fmt.Printf("%d of %d operations are unmodeled\n", unmodeled, total)
}

// visualize renders the container operations of fun and returns the path
// of the image.
func (p *pipeline) visualize(fun *ssa.Function) (string, error) {
	res := p.analysis.Analyze(fun)
	if !res.Metrics.Reliable() {
		log.Printf("%s: %s", res.Metrics.Outcome, res.Metrics.Error())
	}

	var buf bytes.Buffer
	if err := res.Visualize().WriteDot(&buf); err != nil {
		return "", err
	}

	return dot.DotToImage(fun.Name(), opts.OutputFormat(), buf.Bytes())
}
