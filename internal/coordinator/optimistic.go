package coordinator

import (
	"context"
	"sync"
)

// Pending tracks an optimistic change whose persistence is still running.
type Pending struct {
	done chan struct{}
	err  error
}

// Done is closed once persistence finished, successfully or not.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until persistence finished and returns its error. A failed
// persistence has already been rolled back by the time Wait returns.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// optimistic applies a change in memory right away and persists it in the
// background. snapshot is taken before apply; when persist fails, rollback
// receives it and the error is delivered through the returned Pending.
//
// snapshot, apply and rollback run with mu held.
func optimistic[S any](
	ctx context.Context,
	mu sync.Locker,
	wg *sync.WaitGroup,
	snapshot func() S,
	apply func(),
	persist func(ctx context.Context) error,
	rollback func(S),
) *Pending {
	p := &Pending{done: make(chan struct{})}

	mu.Lock()
	saved := snapshot()
	apply()
	mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(p.done)

		if err := persist(ctx); err != nil {
			mu.Lock()
			rollback(saved)
			mu.Unlock()
			p.err = err
		}
	}()
	return p
}
