package reader

import (
	"context"
	"sync"
)

// Readiness implements the one-shot readiness future of §4.5: "When the
// secondary index is still loading, page/search wait on a one-shot
// readiness future before reading." A file-id only has a pending entry
// while its indexing job is in flight; Wait returns immediately for any
// file-id with no pending entry, whether because it was never indexed or
// because indexing already finished.
type Readiness struct {
	mu      sync.Mutex
	pending map[string]chan struct{}
}

// NewReadiness creates an empty Readiness tracker.
func NewReadiness() *Readiness {
	return &Readiness{pending: make(map[string]chan struct{})}
}

// Begin marks fileID as pending: any Wait call for it blocks until Done.
func (r *Readiness) Begin(fileID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[fileID]; !ok {
		r.pending[fileID] = make(chan struct{})
	}
}

// Done releases every waiter for fileID, on completion, cancellation, or
// error alike — a failed or cancelled job must not leave readers blocked
// forever.
func (r *Readiness) Done(fileID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.pending[fileID]; ok {
		close(ch)
		delete(r.pending, fileID)
	}
}

// Wait blocks until fileID is no longer pending, or ctx is done.
func (r *Readiness) Wait(ctx context.Context, fileID string) error {
	r.mu.Lock()
	ch, ok := r.pending[fileID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
