package composite

import (
	"context"

	"github.com/obsidianstack/composite/pkg/types"
)

// Pending is an invocation started with Start. It completes exactly once.
type Pending struct {
	done chan struct{}
	res  types.PublishResult
	err  error
}

// Start runs the composite in a new goroutine and returns immediately.
func (c *Composite) Start(ctx context.Context, opts ...RunOption) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.res, p.err = c.Run(ctx, opts...)
	}()
	return p
}

// Go runs the composite in a new goroutine and calls cb once with the outcome.
func (c *Composite) Go(ctx context.Context, cb func(types.PublishResult, error), opts ...RunOption) {
	go func() {
		cb(c.Run(ctx, opts...))
	}()
}

// Done is closed when the invocation has completed.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the invocation completes and returns its outcome.
func (p *Pending) Wait() (types.PublishResult, error) {
	<-p.done
	return p.res, p.err
}
