package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/obsidianstack/composite/agent/internal/compute"
	"github.com/obsidianstack/composite/agent/internal/config"
	"github.com/obsidianstack/composite/agent/internal/status"
	"github.com/obsidianstack/composite/agent/internal/telemetry"
	"github.com/obsidianstack/composite/pkg/composite"
	"github.com/obsidianstack/composite/pkg/types"
)

// Job is one scheduled composite.
type Job struct {
	Name      string
	Interval  time.Duration
	Period    time.Duration
	Composite *composite.Composite

	mu   sync.Mutex
	last types.Result
}

// capture wraps fn so the job can report the result of its last run.
func (j *Job) capture(fn composite.Func) composite.Func {
	return func(samples []types.Sample) (types.Result, error) {
		res, err := fn(samples)
		if err == nil {
			j.mu.Lock()
			j.last = res
			j.mu.Unlock()
		}
		return res, err
	}
}

func (j *Job) lastResult() types.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// Runner schedules every configured composite on its own interval.
type Runner struct {
	jobs    []*Job
	metrics *telemetry.Metrics
	status  *status.Store
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records every run in m.
func WithMetrics(m *telemetry.Metrics) Option { return func(r *Runner) { r.metrics = m } }

// WithStatus records every run in st.
func WithStatus(st *status.Store) Option { return func(r *Runner) { r.status = st } }

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.log = l } }

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// New builds one composite per cfg.Composites entry, all sharing client.
// Any invalid composite fails the whole build.
func New(cfg *config.Config, client composite.Client, opts ...Option) (*Runner, error) {
	r := &Runner{log: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	for _, c := range cfg.Composites {
		fn, err := compute.Build(c.Function, len(c.Inputs))
		if err != nil {
			return nil, fmt.Errorf("runner: composite %q: %w", c.Name, err)
		}

		j := &Job{Name: c.Name, Interval: c.Interval, Period: c.Period}
		comp, err := composite.New(c.Inputs, c.Output, j.capture(fn),
			composite.WithClient(client),
			composite.WithConcurrency(cfg.Concurrency),
			composite.WithLogger(r.log.With("composite", c.Name)),
		)
		if err != nil {
			return nil, fmt.Errorf("runner: composite %q: %w", c.Name, err)
		}
		j.Composite = comp
		r.jobs = append(r.jobs, j)
	}
	return r, nil
}

// Names returns the composite names in configured order.
func (r *Runner) Names() []string {
	out := make([]string, len(r.jobs))
	for i, j := range r.jobs {
		out[i] = j.Name
	}
	return out
}

// RunOnce runs every composite once, concurrently, and returns the joined
// errors of those that failed.
func (r *Runner) RunOnce(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, j := range r.jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.runJob(ctx, j); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", j.Name, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Run runs every composite immediately and then on each tick of its interval
// until ctx is cancelled. Runs of one composite never overlap; a run that
// outlasts its interval delays the next tick. Run returns once every job has
// stopped.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range r.jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.loop(ctx, j)
		}()
	}
	r.log.Info("runner: started", "composites", len(r.jobs))
	wg.Wait()
	r.log.Info("runner: stopped")
}

func (r *Runner) loop(ctx context.Context, j *Job) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		_ = r.runJob(ctx, j)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runJob performs one run bounded by the job interval and reports it.
func (r *Runner) runJob(ctx context.Context, j *Job) error {
	ctx, cancel := context.WithTimeout(ctx, j.Interval)
	defer cancel()

	started := r.now()
	out, err := j.Composite.Run(ctx, composite.WithPeriod(j.Period))
	took := r.now().Sub(started)

	var res types.Result
	if err == nil {
		res = j.lastResult()
	}
	if r.metrics != nil {
		r.metrics.ObserveRun(j.Name, started, took, res, err)
	}
	if r.status != nil {
		r.status.Record(status.Run{
			Name:      j.Name,
			Output:    j.Composite.Output(),
			Inputs:    len(j.Composite.Inputs()),
			Started:   started,
			Took:      took,
			Result:    res,
			RequestID: out.RequestID,
			Err:       err,
		})
	}
	return err
}
