// Package render serializes all display mutations onto the single
// framebuffer sink. Producers (the mode state machine, the collector
// bridge) enqueue Requests onto one bounded ordered channel; the
// Coordinator is the only component that touches the sink.
package render

import "image"

// Kind selects which part of the frame a request repaints.
type Kind int

const (
	// PageIndicatorOnly repaints the mode line: label, page number and
	// pressed marker. Used for the selected-mode preview.
	PageIndicatorOnly Kind = iota

	// StatusLineOnly repaints the network line: link icon and IP/SSID text.
	StatusLineOnly

	// FullRefresh repaints the whole frame. A FullRefresh subsumes any
	// partial requests still pending ahead of it in the queue.
	FullRefresh
)

// String returns a short name for logging.
func (k Kind) String() string {
	switch k {
	case PageIndicatorOnly:
		return "page-indicator"
	case StatusLineOnly:
		return "status-line"
	case FullRefresh:
		return "full-refresh"
	}
	return "unknown"
}

// Fixed frame regions. Each line owns a full-width 16px band; clearing the
// band before drawing prevents stale glyph fragments from a previous,
// differently-sized string.
var (
	RegionFull       = image.Rect(0, 0, 128, 64)
	RegionHostLine   = image.Rect(0, 0, 128, 16)
	RegionGaugeLine  = image.Rect(0, 16, 128, 32)
	RegionStatusLine = image.Rect(0, 32, 128, 48)
	RegionModeLine   = image.Rect(0, 48, 128, 64)
)

// RegionFor returns the clear region implied by a request kind.
func RegionFor(k Kind) image.Rectangle {
	switch k {
	case PageIndicatorOnly:
		return RegionModeLine
	case StatusLineOnly:
		return RegionStatusLine
	}
	return RegionFull
}

// LinkKind identifies which network icon the status line shows.
type LinkKind int

const (
	LinkNone LinkKind = iota
	LinkWifi
	LinkEthernet
)

// ModeView is the mode line's view state.
type ModeView struct {
	// Label is the mode name shown on the mode line. During a preview this
	// is the selected mode; otherwise the active mode.
	Label string

	// Page is the 1-based position of the shown mode in the menu ring.
	Page int

	// Pressed mirrors the confirm button's held state.
	Pressed bool

	// Status is a transient banner ("Activating ADS-B") shown instead of
	// the label until the next mode line repaint.
	Status string
}

// StatsView is the rendered form of a host statistics snapshot.
type StatsView struct {
	Hostname string
	CPULoad  string
	Disk     string
	Temp     string
}

// NetView is the rendered form of a network status snapshot.
type NetView struct {
	Link LinkKind
	Text string
}

// View is the complete frame state owned by the Coordinator. Requests
// carry partial updates; the coordinator merges them before painting.
type View struct {
	Mode  ModeView
	Stats StatsView
	Net   NetView
}

// Request is one queued display mutation. Instances are transient: created
// by a producer, consumed and discarded by the Coordinator.
type Request struct {
	Kind Kind

	// Region is the area cleared before drawing. The zero rectangle means
	// "derive from Kind".
	Region image.Rectangle

	// Immediate requests bypass the poller redraw throttle. Interactive
	// input and link icon changes set this; periodic stats refreshes do not.
	Immediate bool

	// Optional view payloads, merged into the coordinator's state before
	// the repaint. Nil fields leave the current state untouched.
	Mode  *ModeView
	Stats *StatsView
	Net   *NetView
}

// region returns the effective clear region.
func (r Request) region() image.Rectangle {
	if r.Region.Empty() {
		return RegionFor(r.Kind)
	}
	return r.Region
}
