// Package state holds the presentation state of the client screens. Every
// holder publishes immutable snapshots to its subscribers.
package state

import (
	"context"
	"sync"
)

type holder[S any] struct {
	mu    sync.Mutex
	state S
	subs  map[chan S]struct{}
}

func (h *holder[S]) get() S {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// update applies fn under the lock and publishes the result. fn must replace
// slices rather than modify them in place.
func (h *holder[S]) update(fn func(*S)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.state)
	for ch := range h.subs {
		// latest snapshot wins
		select {
		case <-ch:
		default:
		}
		ch <- h.state
	}
}

// subscribe sends the current snapshot at once and every later one until
// ctx is done.
func (h *holder[S]) subscribe(ctx context.Context) <-chan S {
	ch := make(chan S, 1)

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[chan S]struct{})
	}
	h.subs[ch] = struct{}{}
	ch <- h.state
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}
