package render

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"gitlab.com/tinyland/lab/statuspanel/pkg/display"
)

// DefaultQueueSize bounds the shared request channel. Producers that
// outrun the coordinator by this much have their requests dropped rather
// than blocking the input path.
const DefaultQueueSize = 32

// DefaultThrottle caps poller-driven full redraws to one per second.
const DefaultThrottle = 1 * time.Second

// Coordinator is the single owner of write access to the display sink. It
// consumes requests in FIFO arrival order with one exception: a FullRefresh
// subsumes partial requests still pending ahead of it, since the full
// repaint covers their regions. The final visible frame is identical
// whether or not that skip is applied.
type Coordinator struct {
	sink     display.Sink
	frame    *Frame
	view     View
	requests chan Request
	throttle time.Duration
	log      *slog.Logger
	now      func() time.Time

	// lastFull and pendingFull implement the poller throttle. Immediate
	// requests never consult them.
	lastFull    time.Time
	pendingFull bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithThrottle sets the poller redraw throttle window.
func WithThrottle(d time.Duration) Option {
	return func(c *Coordinator) { c.throttle = d }
}

// WithLogger sets the coordinator's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithQueueSize sets the bounded request queue capacity.
func WithQueueSize(n int) Option {
	return func(c *Coordinator) { c.requests = make(chan Request, n) }
}

// WithClock overrides the time source. Tests use this to drive the
// throttle deterministically.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator returns a coordinator owning the given sink.
func NewCoordinator(sink display.Sink, opts ...Option) *Coordinator {
	c := &Coordinator{
		sink:     sink,
		frame:    NewFrame(),
		requests: make(chan Request, DefaultQueueSize),
		throttle: DefaultThrottle,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enqueue pushes a request onto the queue. It never blocks: when the
// bounded queue is full the request is dropped with a warning, keeping the
// input readers responsive even if the display wedges.
func (c *Coordinator) Enqueue(req Request) {
	select {
	case c.requests <- req:
	default:
		c.log.Warn("render queue full, dropping request", "kind", req.Kind)
	}
}

// Close stops the coordinator once all producers have stopped enqueueing.
// Run then performs the goodbye render and releases the sink.
func (c *Coordinator) Close() {
	close(c.requests)
}

// Run drains the queue until Close is called. Display write failures are
// fatal and returned; there is no retry path for a wedged controller.
func (c *Coordinator) Run() error {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false

	for {
		select {
		case req, ok := <-c.requests:
			if !ok {
				return c.shutdown()
			}
			if err := c.handle(req, timer, &timerArmed); err != nil {
				return err
			}

		case <-timer.C:
			timerArmed = false
			if !c.pendingFull {
				continue
			}
			c.pendingFull = false
			c.lastFull = c.now()
			if err := c.paint(RegionFull); err != nil {
				return err
			}
		}
	}
}

// handle processes one request plus whatever backlog has accumulated
// behind it, coalescing the batch into a single repaint.
func (c *Coordinator) handle(first Request, timer *time.Timer, timerArmed *bool) error {
	batch := []Request{first}
drain:
	for {
		select {
		case req, ok := <-c.requests:
			if !ok {
				// Close raced the drain; the outer loop sees it next.
				break drain
			}
			batch = append(batch, req)
		default:
			break drain
		}
	}

	var (
		paintRegion   image.Rectangle
		immediateFull bool
		pollerFull    bool
	)

	for _, req := range batch {
		c.merge(req)

		if req.Kind == FullRefresh && !req.Immediate {
			pollerFull = true
			continue
		}
		if req.Kind == FullRefresh {
			immediateFull = true
		}
		paintRegion = paintRegion.Union(req.region())
	}

	now := c.now()

	if immediateFull {
		// An interactive full repaint covers everything, including any
		// deferred poller refresh.
		paintRegion = RegionFull
		c.pendingFull = false
		c.lastFull = now
	} else if pollerFull {
		if now.Sub(c.lastFull) >= c.throttle {
			paintRegion = RegionFull
			c.lastFull = now
		} else {
			// Defer the merged state to the end of the throttle window.
			c.pendingFull = true
			if !*timerArmed {
				timer.Reset(c.throttle - now.Sub(c.lastFull))
				*timerArmed = true
			}
		}
	}

	if paintRegion.Empty() {
		return nil
	}
	return c.paint(paintRegion)
}

// merge folds a request's payloads into the coordinator's view state.
func (c *Coordinator) merge(req Request) {
	if req.Mode != nil {
		c.view.Mode = *req.Mode
	}
	if req.Stats != nil {
		c.view.Stats = *req.Stats
	}
	if req.Net != nil {
		c.view.Net = *req.Net
	}
}

// paint recomposes the region from the current view and pushes it to the
// sink.
func (c *Coordinator) paint(region image.Rectangle) error {
	c.frame.Redraw(region, c.view)
	if err := c.sink.Draw(region, c.frame.Image(), region.Min); err != nil {
		return fmt.Errorf("display write failed: %w", err)
	}
	return nil
}

// shutdown performs the final goodbye render and releases the sink.
func (c *Coordinator) shutdown() error {
	c.frame.Goodbye()
	if err := c.sink.Draw(RegionFull, c.frame.Image(), image.Point{}); err != nil {
		c.log.Warn("goodbye render failed", "error", err)
	}
	if err := c.sink.Halt(); err != nil {
		c.log.Warn("releasing display failed", "error", err)
	}
	return nil
}
