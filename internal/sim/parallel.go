package sim

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

// Job pairs a scenario with the runner that will fly it. Runners must not be
// shared between jobs.
type Job struct {
	Runner   *Runner
	Scenario Scenario
}

// RunAll flies every job concurrently. Results keep job order; a failed job
// leaves a nil or partial result in its slot.
func RunAll(ctx context.Context, jobs []Job, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()
			results[idx], errs[idx] = job.Runner.Run(ctx, job.Scenario, cfg)
		}(i, job)
	}
	wg.Wait()

	return results, multierr.Combine(errs...)
}
