package backend

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// errConcluded cancels sibling searches once one adapter concludes.
var errConcluded = errors.New("portfolio concluded")

// Portfolio races independent adapters over the same source and
// returns the first conclusive result (sat, unsat or optimal) together
// with the name of the adapter that produced it. Remaining searches
// are cancelled. If every adapter ends inconclusive the result status
// is unknown. Value write-back onto the source variables happens once,
// from the winner, after all searches have stopped.
func Portfolio(ctx context.Context, src Source, adapters []Adapter, opts ...SolveOption) (*Result, string, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		mu     sync.Mutex
		winner *Result
		name   string
	)
	for _, ad := range adapters {
		ad := ad
		g.Go(func() error {
			sess := NewSession(src, ad)
			sess.writeBack = false
			res, err := sess.Solve(gctx, opts...)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			if res.Status == StatusUnknown {
				return nil
			}
			mu.Lock()
			if winner == nil {
				winner, name = res, ad.Name()
			}
			mu.Unlock()
			return errConcluded
		})
	}

	err := g.Wait()
	if winner != nil {
		if winner.HasSolution() {
			for v, val := range winner.Values {
				v.SetValue(val)
			}
		}
		return winner, name, nil
	}
	if err != nil && !errors.Is(err, errConcluded) {
		return nil, "", err
	}
	return &Result{Status: StatusUnknown}, "", nil
}
