package bitshares

import (
	"errors"
	"fmt"
	"sync"
)

var errUnknownCall = errors.New("unknown call id")

type continuation func(reply)

// pendingCalls maps outstanding request ids to their continuations.
// Ids grow monotonically for the life of the table and are never handed out
// twice, even once the call they named has been resolved.
type pendingCalls struct {
	mu    sync.Mutex
	next  uint64
	calls map[uint64]continuation
}

func newPendingCalls() *pendingCalls {
	return &pendingCalls{calls: make(map[uint64]continuation)}
}

func (p *pendingCalls) submit(cont continuation) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.calls[id] = cont
	return id
}

// resolve runs and forgets the continuation registered for id. The lock is
// released first: continuations routinely submit the next call.
func (p *pendingCalls) resolve(id uint64, r reply) error {
	p.mu.Lock()
	cont, ok := p.calls[id]
	delete(p.calls, id)
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w %d", errUnknownCall, id)
	}
	cont(r)
	return nil
}

// drop forgets id without running its continuation.
func (p *pendingCalls) drop(id uint64) {
	p.mu.Lock()
	delete(p.calls, id)
	p.mu.Unlock()
}

func (p *pendingCalls) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
