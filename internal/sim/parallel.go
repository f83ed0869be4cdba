package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is one independent scene run.
type Job struct {
	Name   string
	Sim    *Simulator
	Config Config
}

// Ensemble runs independent jobs concurrently. Jobs must not share worlds
// or registries.
type Ensemble struct {
	jobs  []Job
	limit int
}

func NewEnsemble(limit int, jobs ...Job) *Ensemble {
	return &Ensemble{jobs: jobs, limit: limit}
}

func (e *Ensemble) Add(j Job) { e.jobs = append(e.jobs, j) }

// Run returns results in job order. The first failing job cancels the rest.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.jobs))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, j := range e.jobs {
		g.Go(func() error {
			res, err := j.Sim.Run(ctx, j.Config)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
