// Package panel bridges the collector runner's update stream onto the
// render coordinator. It is the only consumer of the updates channel: it
// diffs stats snapshots so unchanged polls cause no redraw, tracks the
// latest network status, and promotes link icon changes to immediate
// partial repaints.
package panel

import (
	"context"
	"log/slog"

	"gitlab.com/tinyland/lab/statuspanel/pkg/collectors"
	"gitlab.com/tinyland/lab/statuspanel/pkg/collectors/netmon"
	"gitlab.com/tinyland/lab/statuspanel/pkg/collectors/stats"
	"gitlab.com/tinyland/lab/statuspanel/pkg/render"
)

// RequestSink receives the render requests the bridge emits. Satisfied by
// *render.Coordinator.
type RequestSink interface {
	Enqueue(render.Request)
}

// Bridge consumes collector updates and turns them into render requests.
type Bridge struct {
	sink RequestSink
	log  *slog.Logger

	// lastStats is the last snapshot forwarded for rendering; polls that
	// match it are dropped.
	lastStats *stats.Snapshot

	// net is the latest network status. A text-only change (the Wi-Fi
	// IP/SSID alternation) is stored here and picked up by the next
	// scheduled render instead of forcing one.
	net *netmon.Status
}

// NewBridge returns a bridge feeding the given sink.
func NewBridge(sink RequestSink, log *slog.Logger) *Bridge {
	return &Bridge{sink: sink, log: log}
}

// Run consumes updates until ctx is cancelled or the channel closes.
func (b *Bridge) Run(ctx context.Context, updates <-chan collectors.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			b.handle(u)
		}
	}
}

func (b *Bridge) handle(u collectors.Update) {
	if u.Error != nil {
		// Collectors substitute fallbacks and still return data; the
		// error is informational.
		b.log.Warn("collector reported errors", "source", u.Source, "error", u.Error)
	}
	if u.Data == nil {
		return
	}

	switch u.Source {
	case "stats":
		snap, ok := u.Data.(stats.Snapshot)
		if !ok {
			b.log.Warn("unexpected stats payload", "source", u.Source)
			return
		}
		b.handleStats(snap)

	case "netmon":
		st, ok := u.Data.(netmon.Status)
		if !ok {
			b.log.Warn("unexpected netmon payload", "source", u.Source)
			return
		}
		b.handleNet(st)

	default:
		b.log.Debug("ignoring update from unknown source", "source", u.Source)
	}
}

// handleStats forwards a snapshot only when a displayed field changed.
func (b *Bridge) handleStats(snap stats.Snapshot) {
	if b.lastStats != nil && snap.Equal(*b.lastStats) {
		return
	}
	b.lastStats = &snap

	req := render.Request{
		Kind:  render.FullRefresh,
		Stats: statsView(snap),
	}
	// Carry the latest network text along so deferred IP/SSID flips are
	// painted with the refresh.
	if b.net != nil {
		req.Net = netView(*b.net)
	}
	b.sink.Enqueue(req)
}

// handleNet promotes icon changes to an immediate partial repaint and
// silently stores text-only changes.
func (b *Bridge) handleNet(st netmon.Status) {
	iconChanged := b.net == nil || b.net.Link != st.Link
	b.net = &st

	if !iconChanged {
		return
	}
	b.sink.Enqueue(render.Request{
		Kind:      render.StatusLineOnly,
		Immediate: true,
		Net:       netView(st),
	})
}

func statsView(s stats.Snapshot) *render.StatsView {
	return &render.StatsView{
		Hostname: s.Hostname,
		CPULoad:  s.CPULoad,
		Disk:     s.Disk,
		Temp:     s.Temp,
	}
}

func netView(s netmon.Status) *render.NetView {
	v := &render.NetView{Text: s.Text()}
	switch s.Link {
	case netmon.LinkWifi:
		v.Link = render.LinkWifi
	case netmon.LinkEthernet:
		v.Link = render.LinkEthernet
	default:
		v.Link = render.LinkNone
	}
	return v
}
