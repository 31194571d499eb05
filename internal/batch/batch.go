// Package batch fans independent location queries out over a fixed
// worker pool and collects results in input order with per-item failure
// isolation. The concurrency bound is an explicit contract: exactly
// min(MaxConcurrency, len(hints)) workers draw indexed jobs from a
// channel and write into pre-sized slots, so no completion order can
// reorder or lose a result.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/codenav/codenav/internal/naverr"
	"github.com/codenav/codenav/internal/types"
)

// DefaultMaxConcurrency is the worker pool size when none is chosen
const DefaultMaxConcurrency = 5

// Resolver performs one item's resolution and enrichment. It must not
// share mutable state across calls; the orchestrator invokes it from
// several goroutines at once.
type Resolver func(ctx context.Context, hint types.LocationHint) (*types.SymbolInfo, error)

// Orchestrator runs batches against one resolver
type Orchestrator struct {
	resolve        Resolver
	maxConcurrency int
}

// New creates an orchestrator with the given pool bound
func New(resolve Resolver, maxConcurrency int) *Orchestrator {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Orchestrator{resolve: resolve, maxConcurrency: maxConcurrency}
}

// Resolve processes the hints and returns one result per hint,
// index-aligned regardless of completion order. A failed item carries
// its error inline and never affects its siblings; on cancellation,
// unprocessed slots surface a cancelled outcome rather than missing
// data. The returned slice always has len(hints) elements.
func (o *Orchestrator) Resolve(ctx context.Context, hints []types.LocationHint) []types.BatchResult {
	results := make([]types.BatchResult, len(hints))
	for i, hint := range hints {
		results[i] = types.BatchResult{Index: i, Hint: hint}
	}
	if len(hints) == 0 {
		return results
	}

	workers := o.maxConcurrency
	if workers > len(hints) {
		workers = len(hints)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx].Err = naverr.NewCancelled("batch item", err)
					continue
				}
				info, err := o.resolveOne(ctx, hints[idx])
				results[idx].Info = info
				results[idx].Err = err
			}
		}()
	}

feed:
	for i := range hints {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// Slots the feeder never handed out still need a distinguishable
	// cancelled outcome.
	if err := ctx.Err(); err != nil {
		for i := range results {
			if results[i].Info == nil && results[i].Err == nil {
				results[i].Err = naverr.NewCancelled("batch item", err)
			}
		}
	}
	return results
}

// resolveOne isolates a single item: a panicking provider damages only
// this slot, exactly like an error return.
func (o *Orchestrator) resolveOne(ctx context.Context, hint types.LocationHint) (info *types.SymbolInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = fmt.Errorf("resolver panic: %v", r)
		}
	}()
	info, err = o.resolve(ctx, hint)
	if info == nil && err == nil {
		err = fmt.Errorf("resolver returned no result and no error for %s", hint)
	}
	return info, err
}
