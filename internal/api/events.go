package api

import (
	"context"
	"slices"
	"sync"
)

// expiryHub fans a session-expired signal out to subscribers.
type expiryHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(context.Context)
}

// OnSessionExpired registers fn to be called after a 401 has cleared the
// session store. Handlers run synchronously on the calling goroutine, in
// registration order. The returned func unsubscribes.
func (c *Client) OnSessionExpired(fn func(ctx context.Context)) (unsubscribe func()) {
	h := &c.expiry
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]func(context.Context))
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *expiryHub) publish(ctx context.Context) {
	h.mu.Lock()
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	fns := make([]func(context.Context), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, h.subs[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}
