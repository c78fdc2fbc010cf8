package mode

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/statuspanel/pkg/input"
	"gitlab.com/tinyland/lab/statuspanel/pkg/render"
)

// watchTick is the granularity of the inactivity watcher.
const watchTick = 1 * time.Second

// RequestSink receives the render requests the machine emits. Satisfied by
// *render.Coordinator.
type RequestSink interface {
	Enqueue(render.Request)
}

// Machine tracks selected vs. active mode. The selected index changes only
// on rotate events and always wraps modulo the ring size; the active index
// changes only on a confirm event. An inactivity watcher reverts the
// display from the selected-mode preview to the active mode once the
// interaction clock (not the activation clock) exceeds the timeout.
type Machine struct {
	sink    RequestSink
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time

	mu              sync.Mutex
	selected        Mode
	active          Mode
	lastInteraction time.Time
	previewing      bool
	pressed         bool
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithLogger sets the machine's logger.
func WithLogger(log *slog.Logger) MachineOption {
	return func(m *Machine) { m.log = log }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) { m.now = now }
}

// NewMachine returns a machine starting with both indices at Off.
func NewMachine(sink RequestSink, timeout time.Duration, opts ...MachineOption) *Machine {
	m := &Machine{
		sink:    sink,
		log:     slog.Default(),
		timeout: timeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lastInteraction = m.now()
	return m
}

// Selected returns the mode currently highlighted by rotation.
func (m *Machine) Selected() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// Active returns the mode last confirmed by a button press.
func (m *Machine) Active() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Previewing reports whether the display is showing the selected-mode
// preview rather than the active mode.
func (m *Machine) Previewing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.previewing
}

// Run consumes normalized input events and drives the inactivity watcher
// until ctx is cancelled.
func (m *Machine) Run(ctx context.Context, events <-chan input.Event) {
	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.Handle(ev)
		case <-ticker.C:
			m.tick()
		}
	}
}

// Handle applies one input event to the mode state.
func (m *Machine) Handle(ev input.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev {
	case input.RotateForward:
		m.rotateLocked(m.selected.Next())
	case input.RotateBackward:
		m.rotateLocked(m.selected.Prev())
	case input.Confirm:
		m.confirmLocked()
	case input.Release:
		m.releaseLocked()
	}
}

func (m *Machine) rotateLocked(next Mode) {
	m.selected = next
	m.lastInteraction = m.now()
	m.previewing = m.selected != m.active

	m.log.Debug("mode selected", "mode", m.selected.String())
	m.sink.Enqueue(render.Request{
		Kind:      render.PageIndicatorOnly,
		Immediate: true,
		Mode: &render.ModeView{
			Label:   m.selected.String(),
			Page:    m.selected.Page(),
			Pressed: m.pressed,
		},
	})
}

func (m *Machine) confirmLocked() {
	m.pressed = true
	m.active = m.selected
	m.lastInteraction = m.now()
	m.previewing = false

	status := fmt.Sprintf("Activating %s", m.active)
	if m.active == Off {
		status = "Deactivating"
	}

	m.log.Info("mode confirmed", "mode", m.active.String())
	m.sink.Enqueue(render.Request{
		Kind:      render.FullRefresh,
		Immediate: true,
		Mode: &render.ModeView{
			Label:   m.active.String(),
			Page:    m.active.Page(),
			Pressed: true,
			Status:  status,
		},
	})
}

// releaseLocked changes no mode state; it only clears the pressed marker
// (and any transient confirm banner) on the mode line.
func (m *Machine) releaseLocked() {
	m.pressed = false

	shown := m.active
	if m.previewing {
		shown = m.selected
	}
	m.sink.Enqueue(render.Request{
		Kind:      render.PageIndicatorOnly,
		Immediate: true,
		Mode: &render.ModeView{
			Label: shown.String(),
			Page:  shown.Page(),
		},
	})
}

// tick fires the inactivity reversion when the interaction clock has
// lapsed while the preview is on screen. It never fires when the selection
// already matches the active mode.
func (m *Machine) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.previewing {
		return
	}
	if m.now().Sub(m.lastInteraction) < m.timeout {
		return
	}

	// The selection itself is untouched: only rotation moves it. The
	// display just goes back to showing the active mode.
	m.previewing = false

	m.log.Debug("preview timed out, reverting", "mode", m.active.String())
	m.sink.Enqueue(render.Request{
		Kind:      render.PageIndicatorOnly,
		Immediate: true,
		Mode: &render.ModeView{
			Label:   m.active.String(),
			Page:    m.active.Page(),
			Pressed: m.pressed,
		},
	})
}
