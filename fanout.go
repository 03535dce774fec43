package strarena

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FanOutResult holds the pools and handles produced by FanOut.
type FanOutResult struct {
	// Pools are the forks, one per worker. The caller owns them.
	Pools []*Pool
	// Handles are in the order of the input values.
	Handles []*PooledString
}

// Free frees every pool of the result.
func (r *FanOutResult) Free() error {
	var errs []error
	for _, p := range r.Pools {
		if err := p.Free(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FanOut copies values into forks of p concurrently.
//
// values is split into one contiguous chunk per worker and each chunk is
// written to its own fork, so workers never contend for a lock. Each fork has
// the parent's config: a chunk that does not fit fails with ErrExhausted.
// If workers <= 0, GOMAXPROCS workers are used.
//
// On error, including cancellation of ctx, every fork is freed and no result
// is returned. p itself is never written to.
func (p *Pool) FanOut(ctx context.Context, values []string, workers int) (*FanOutResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(values))

	res := &FanOutResult{
		Pools:   make([]*Pool, 0, workers),
		Handles: make([]*PooledString, len(values)),
	}
	if workers == 0 {
		return res, nil
	}

	for range workers {
		fork, err := p.Fork()
		if err != nil {
			_ = res.Free()
			p.logger.LogFanOut(ctx, len(values), workers, err)
			return nil, err
		}
		res.Pools = append(res.Pools, fork)
	}

	chunk := (len(values) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w, fork := range res.Pools {
		lo := w * chunk
		hi := min(lo+chunk, len(values))

		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				h, err := fork.Get(values[i])
				if err != nil {
					return fmt.Errorf("value %d: %w", i, err)
				}
				res.Handles[i] = h
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		_ = res.Free()
		p.logger.LogFanOut(ctx, len(values), workers, err)
		return nil, err
	}

	p.logger.LogFanOut(ctx, len(values), workers, nil)
	return res, nil
}
