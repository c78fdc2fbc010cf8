package collectors

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultUpdateBufferSize is the recommended capacity for the shared
// updates channel. Large enough to absorb a burst from every collector
// without blocking their tickers.
const DefaultUpdateBufferSize = 16

// Runner drives every registered collector on its own ticker goroutine and
// fans the results into a single updates channel. Exactly one consumer is
// expected on the other end.
type Runner struct {
	registry *Registry
	updates  chan<- Update

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewRunner returns a runner for the given registry. Results are delivered
// on updates; the channel is never closed by the runner.
func NewRunner(registry *Registry, updates chan<- Update) *Runner {
	return &Runner{
		registry: registry,
		updates:  updates,
	}
}

// Start launches one goroutine per registered collector. Each collector
// runs immediately, then on its own interval, until ctx is cancelled or
// Stop is called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("runner already started")
	}
	r.started = true

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for _, name := range r.registry.List() {
		c, ok := r.registry.Get(name)
		if !ok {
			continue
		}
		r.wg.Add(1)
		go r.runCollector(runCtx, c)
	}
	return nil
}

// Stop cancels all collector goroutines and waits for them to exit. It is
// safe to call multiple times.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// RunOnce performs a single collection cycle for the named collector,
// updating its status but bypassing the updates channel. Used for manual
// probes.
func (r *Runner) RunOnce(ctx context.Context, name string) (interface{}, error) {
	c, ok := r.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("collector %q not registered", name)
	}
	return r.collect(ctx, c).unpack()
}

// Health returns the current health flag for every registered collector.
func (r *Runner) Health() map[string]bool {
	health := make(map[string]bool)
	for _, s := range r.registry.AllStatus() {
		health[s.Name] = s.Healthy
	}
	return health
}

// runCollector is the per-collector goroutine: collect immediately, then
// on every tick, delivering each result as an Update.
func (r *Runner) runCollector(ctx context.Context, c Collector) {
	defer r.wg.Done()

	r.deliver(ctx, c, r.collect(ctx, c))

	ticker := time.NewTicker(c.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.deliver(ctx, c, r.collect(ctx, c))
		}
	}
}

// result pairs one collection cycle's data and error.
type result struct {
	data interface{}
	err  error
}

// collect runs one cycle and records status bookkeeping.
func (r *Runner) collect(ctx context.Context, c Collector) result {
	start := time.Now()
	data, err := c.Collect(ctx)
	latency := time.Since(start)

	r.registry.updateStatus(c.Name(), func(s *CollectorStatus) {
		s.RunCount++
		s.LastRun = start
		s.LastLatency = latency
		s.LastError = err
		if err != nil {
			s.ErrorCount++
			s.Healthy = false
		} else {
			s.Healthy = true
		}
	})

	return result{data: data, err: err}
}

func (res result) unpack() (interface{}, error) { return res.data, res.err }

// deliver pushes an update unless the consumer has gone away.
func (r *Runner) deliver(ctx context.Context, c Collector, res result) {
	u := Update{
		Source:    c.Name(),
		Data:      res.data,
		Timestamp: time.Now(),
		Error:     res.err,
	}
	select {
	case r.updates <- u:
	case <-ctx.Done():
	}
}
