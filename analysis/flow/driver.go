package flow

import (
	"context"
	"sync"

	"golang.org/x/tools/go/ssa"
)

// AnalyzeAll analyzes the functions with the given number of parallel
// workers. Results are in the order of funcs. Functions that have not been
// started when ctx is done are skipped; a function that is being analyzed
// runs to completion.
func (a *Analysis) AnalyzeAll(ctx context.Context, funcs []*ssa.Function, workers int) []*Result {
	if workers < 1 {
		workers = 1
	}

	results := make([]*Result, len(funcs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					res := &Result{Function: funcs[i], Metrics: &Metrics{}}
					res.Metrics.Skip(err)
					results[i] = res
					continue
				}
				results[i] = a.Analyze(funcs[i])
			}
		}()
	}

	for i := range funcs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
