package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/obsidianstack/composite/agent/internal/config"
)

func TestSupervisor_SwapsAndReportsRemoved(t *testing.T) {
	fc := newFakeClient()
	build := func(_ context.Context, cfg *config.Config) (*Runner, error) {
		return New(cfg, fc)
	}

	var (
		mu      sync.Mutex
		removed []string
	)
	sup := NewSupervisor(build, func(name string) {
		mu.Lock()
		defer mu.Unlock()
		removed = append(removed, name)
	})
	defer sup.Stop()

	ctx := context.Background()
	if err := sup.Apply(ctx, testConfig(time.Hour)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// Drop error-ratio.
	cfg := testConfig(time.Hour)
	cfg.Composites = cfg.Composites[:1]
	if err := sup.Apply(ctx, cfg); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(removed) != 1 || removed[0] != "error-ratio" {
		t.Errorf("removed = %v, want [error-ratio]", removed)
	}
}

func TestSupervisor_FailedBuildKeepsCurrent(t *testing.T) {
	fc := newFakeClient()
	calls := 0
	build := func(_ context.Context, cfg *config.Config) (*Runner, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("backend unreachable")
		}
		return New(cfg, fc)
	}
	sup := NewSupervisor(build, nil)

	ctx := context.Background()
	if err := sup.Apply(ctx, testConfig(20*time.Millisecond)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := sup.Apply(ctx, testConfig(20*time.Millisecond)); err == nil {
		t.Fatal("expected build error")
	}

	// The first runner is still ticking.
	before := fc.readCount("a")
	deadline := time.Now().Add(2 * time.Second)
	for fc.readCount("a") <= before {
		if time.Now().After(deadline) {
			t.Fatal("runner stopped after a failed reload")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sup.Stop()
	stopped := fc.readCount("a")
	time.Sleep(60 * time.Millisecond)
	if got := fc.readCount("a"); got != stopped {
		t.Errorf("reads continued after Stop: %d -> %d", stopped, got)
	}
}
