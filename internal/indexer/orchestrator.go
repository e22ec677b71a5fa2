package indexer

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// CodebaseJob is one Index or ReindexByChange invocation queued against an
// Orchestrator. Progress, if set, receives phase callbacks scoped to its
// own Root.
type CodebaseJob struct {
	Root         string
	ForceReindex bool
	ByChange     bool
	Progress     ProgressFunc
}

// CodebaseOutcome pairs a job's root with its result.
type CodebaseOutcome struct {
	Root   string
	Result *IndexResult
	Err    error
}

// Orchestrator runs IndexManager operations across many codebase paths
// concurrently, bounded by Parallelism. Distinct codebases proceed in
// parallel (spec.md §5); IndexManager itself still enforces the
// single-logical-owner rule per path. Grounded on the teacher's
// MultiQuerySearcher.parallelSubSearch, adapted from fan-out sub-query
// search to fan-out per-codebase indexing.
type Orchestrator struct {
	Manager     *IndexManager
	Parallelism int
}

// NewOrchestrator constructs an Orchestrator with parallelism defaulting
// to 4 when given a non-positive value.
func NewOrchestrator(manager *IndexManager, parallelism int) *Orchestrator {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Orchestrator{Manager: manager, Parallelism: parallelism}
}

// RunAll dispatches every job, returning one CodebaseOutcome per job in the
// same order as input regardless of completion order. There is no aggregate
// error: each job's error is carried in its own outcome.
func (o *Orchestrator) RunAll(ctx context.Context, jobs []CodebaseJob) []CodebaseOutcome {
	outcomes := make([]CodebaseOutcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, o.Parallelism)
	var mu sync.Mutex

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				mu.Lock()
				outcomes[i] = CodebaseOutcome{Root: job.Root, Err: gctx.Err()}
				mu.Unlock()
				return nil
			}

			var res *IndexResult
			var err error
			if job.ByChange {
				res, err = o.Manager.ReindexByChange(ctx, job.Root, job.Progress)
			} else {
				res, err = o.Manager.Index(ctx, job.Root, job.ForceReindex, job.Progress)
			}

			mu.Lock()
			outcomes[i] = CodebaseOutcome{Root: job.Root, Result: res, Err: err}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}
