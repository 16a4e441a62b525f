package pipeline

import (
	"context"
	"sync"

	"github.com/wonny/twitstock/internal/task"
)

// claims serializes work on one task ID across concurrent runs of an executor.
// Entries are dropped once nobody holds or waits for them.
type claims struct {
	mu    sync.Mutex
	slots map[task.ID]*claim
}

type claim struct {
	sem  chan struct{}
	refs int
}

func newClaims() *claims {
	return &claims{slots: make(map[task.ID]*claim)}
}

// acquire blocks until id is free or ctx is done. The returned func releases it.
func (c *claims) acquire(ctx context.Context, id task.ID) (func(), error) {
	c.mu.Lock()
	cl, ok := c.slots[id]
	if !ok {
		cl = &claim{sem: make(chan struct{}, 1)}
		c.slots[id] = cl
	}
	cl.refs++
	c.mu.Unlock()

	select {
	case cl.sem <- struct{}{}:
		return func() {
			<-cl.sem
			c.drop(id, cl)
		}, nil
	case <-ctx.Done():
		c.drop(id, cl)
		return nil, ctx.Err()
	}
}

func (c *claims) drop(id task.ID, cl *claim) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl.refs--
	if cl.refs == 0 {
		delete(c.slots, id)
	}
}

// held returns the number of IDs currently tracked
func (c *claims) held() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}
