package runner

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/obsidianstack/composite/agent/internal/config"
)

// Builder creates a Runner for cfg. It is called on start and on every reload.
type Builder func(ctx context.Context, cfg *config.Config) (*Runner, error)

// Supervisor owns the active Runner and swaps it when the config changes.
type Supervisor struct {
	build    Builder
	onRemove func(name string)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	names  []string
}

// NewSupervisor returns a Supervisor using build. onRemove, if non-nil, is
// called for every composite a reload drops.
func NewSupervisor(build Builder, onRemove func(name string)) *Supervisor {
	return &Supervisor{build: build, onRemove: onRemove}
}

// Apply builds a Runner for cfg and, only if that succeeds, stops the current
// one and starts the new one under ctx. On error the current Runner keeps
// going.
func (s *Supervisor) Apply(ctx context.Context, cfg *config.Config) error {
	next, err := s.build(ctx, cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	names := next.Names()
	if s.onRemove != nil {
		for _, old := range s.names {
			if !slices.Contains(names, old) {
				s.onRemove(old)
			}
		}
	}
	s.names = names

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go func() {
		defer close(done)
		next.Run(runCtx)
	}()

	slog.Info("runner: applied config", "composites", len(names))
	return nil
}

// Stop stops the current Runner and waits for it to return.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Supervisor) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}
