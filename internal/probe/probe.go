// Package probe reports which packages of a manifest are already installed.
package probe

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/frederic-klein/yadi/internal/deps"
	"github.com/frederic-klein/yadi/internal/pkgmgr"
	"github.com/frederic-klein/yadi/internal/runner"
	"github.com/frederic-klein/yadi/internal/selector"
)

// Job is one package to query.
type Job struct {
	Category deps.Category
	Package  string
}

// Result is the outcome of a query.
type Result struct {
	Job       Job
	Installed bool
}

// Prober queries installed packages in parallel.
type Prober struct {
	workers int
	manager pkgmgr.Manager
	runner  runner.Runner
	logger  *log.Logger
}

// NewProber creates a prober that runs at most workers queries at a time.
func NewProber(workers int, mgr pkgmgr.Manager, r runner.Runner, logger *log.Logger) *Prober {
	if workers < 1 {
		workers = 1
	}
	return &Prober{
		workers: workers,
		manager: mgr,
		runner:  r,
		logger:  logger,
	}
}

// Jobs lists the packages of the runtime list and the selected categories.
func Jobs(m *deps.Manifest, sel selector.Selection) []Job {
	var jobs []Job
	for _, c := range deps.All {
		if !sel.Has(c) {
			continue
		}
		for _, pkg := range m.Packages(c) {
			jobs = append(jobs, Job{Category: c, Package: pkg})
		}
	}
	return jobs
}

// Check queries every job. A failing query means the package is missing;
// only context cancellation aborts the check.
func (p *Prober) Check(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := p.runner.Run(ctx, p.manager.Query(job.Package))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				p.logger.Debug("package missing", "package", job.Package, "category", job.Category, "err", err)
			}
			results[i] = Result{Job: job, Installed: err == nil}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	order := make(map[deps.Category]int, len(deps.All))
	for i, c := range deps.All {
		order[c] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Job, results[j].Job
		if a.Category != b.Category {
			return order[a.Category] < order[b.Category]
		}
		return a.Package < b.Package
	})

	return results, nil
}

// Missing filters results down to packages that are not installed.
func Missing(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Installed {
			out = append(out, r)
		}
	}
	return out
}
