// Package runner starts long-lived components and collects their exits.
package runner

import (
	"context"
	"sync"
)

type Group struct {
	wg sync.WaitGroup
}

// Go runs fn in its own goroutine; the returned channel yields its error
// once and is then closed.
func (g *Group) Go(ctx context.Context, fn func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		done <- fn(ctx)
		close(done)
	}()
	return done
}

// Wait blocks until every started function has returned.
func (g *Group) Wait() { g.wg.Wait() }
