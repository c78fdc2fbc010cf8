package render

import (
	"bytes"
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/statuspanel/pkg/display"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitDraws polls the sink until it has received want draws.
func waitDraws(t *testing.T, sink *display.Memory, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sink.Draws() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sink received %d draws, want %d", sink.Draws(), want)
}

func startCoordinator(t *testing.T, sink *display.Memory, opts ...Option) (*Coordinator, chan error) {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	c := NewCoordinator(sink, opts...)
	done := make(chan error, 1)
	go func() { done <- c.Run() }()
	return c, done
}

func stopCoordinator(t *testing.T, c *Coordinator, done chan error) {
	t.Helper()
	c.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop")
	}
}

func TestImmediateRequestPaints(t *testing.T) {
	sink := display.NewMemory()
	c, done := startCoordinator(t, sink)

	c.Enqueue(Request{
		Kind:      PageIndicatorOnly,
		Immediate: true,
		Mode:      &ModeView{Label: "APRS", Page: 5},
	})
	waitDraws(t, sink, 1)

	var blank [128 * 64]byte
	if bytes.Equal(sink.Image().Pix, blank[:]) {
		t.Fatal("frame is still blank after an immediate request")
	}
	stopCoordinator(t, c, done)
}

func TestFullRefreshSubsumesPendingPartials(t *testing.T) {
	mode := ModeView{Label: "ADS-B", Page: 4}
	stats := StatsView{Hostname: "balloon-pi", CPULoad: "0.42", Disk: "12/29G", Temp: "45.2'C"}
	net := NetView{Link: LinkEthernet, Text: "10.0.0.5"}

	// Queue a partial ahead of a full refresh before the coordinator starts,
	// so both sit in the backlog of a single drain.
	subsumed := display.NewMemory()
	c1 := NewCoordinator(subsumed, WithLogger(discardLogger()))
	c1.Enqueue(Request{Kind: PageIndicatorOnly, Immediate: true, Mode: &mode})
	c1.Enqueue(Request{Kind: FullRefresh, Immediate: true, Stats: &stats, Net: &net})
	done1 := make(chan error, 1)
	go func() { done1 <- c1.Run() }()
	waitDraws(t, subsumed, 1)

	// Reference: only the full refresh, carrying the same merged payloads.
	reference := display.NewMemory()
	c2 := NewCoordinator(reference, WithLogger(discardLogger()))
	c2.Enqueue(Request{Kind: FullRefresh, Immediate: true, Mode: &mode, Stats: &stats, Net: &net})
	done2 := make(chan error, 1)
	go func() { done2 <- c2.Run() }()
	waitDraws(t, reference, 1)

	if !bytes.Equal(subsumed.Image().Pix, reference.Image().Pix) {
		t.Fatal("partial+full drain is not bit-identical to the full refresh alone")
	}
	if got := subsumed.Draws(); got != 1 {
		t.Fatalf("coalesced batch produced %d draws, want 1", got)
	}

	stopCoordinator(t, c1, done1)
	stopCoordinator(t, c2, done2)
}

func TestBatchMergeIsLastWriterWins(t *testing.T) {
	sink := display.NewMemory()
	c := NewCoordinator(sink, WithLogger(discardLogger()))
	c.Enqueue(Request{Kind: PageIndicatorOnly, Immediate: true, Mode: &ModeView{Label: "NWS Balloon", Page: 2}})
	c.Enqueue(Request{Kind: PageIndicatorOnly, Immediate: true, Mode: &ModeView{Label: "APRS", Page: 5}})
	done := make(chan error, 1)
	go func() { done <- c.Run() }()
	waitDraws(t, sink, 1)

	want := NewFrame()
	want.Redraw(RegionModeLine, View{Mode: ModeView{Label: "APRS", Page: 5}})
	if !bytes.Equal(sink.Image().Pix, want.Image().Pix) {
		t.Fatal("drained frame does not show the most recent mode payload")
	}
	stopCoordinator(t, c, done)
}

func TestPollerFullRefreshIsThrottled(t *testing.T) {
	sink := display.NewMemory()
	c, done := startCoordinator(t, sink, WithThrottle(200*time.Millisecond))

	// The first poller refresh is outside any window and paints at once.
	c.Enqueue(Request{Kind: FullRefresh, Stats: &StatsView{Hostname: "a"}})
	waitDraws(t, sink, 1)

	// The second lands inside the window and is deferred to its end.
	c.Enqueue(Request{Kind: FullRefresh, Stats: &StatsView{Hostname: "b"}})
	time.Sleep(50 * time.Millisecond)
	if got := sink.Draws(); got != 1 {
		t.Fatalf("throttled refresh painted early: %d draws", got)
	}
	waitDraws(t, sink, 2)

	want := NewFrame()
	want.Redraw(RegionFull, View{Stats: StatsView{Hostname: "b"}})
	if !bytes.Equal(sink.Image().Pix, want.Image().Pix) {
		t.Fatal("deferred refresh did not paint the merged state")
	}
	stopCoordinator(t, c, done)
}

func TestImmediateBypassesThrottle(t *testing.T) {
	sink := display.NewMemory()
	c, done := startCoordinator(t, sink, WithThrottle(time.Hour))

	c.Enqueue(Request{Kind: FullRefresh, Stats: &StatsView{Hostname: "a"}})
	waitDraws(t, sink, 1)

	// With an hour-long window open, an interactive request still paints.
	c.Enqueue(Request{
		Kind:      PageIndicatorOnly,
		Immediate: true,
		Mode:      &ModeView{Label: "HAM Balloon", Page: 3},
	})
	waitDraws(t, sink, 2)

	stopCoordinator(t, c, done)
}

func TestImmediateFullRefreshAbsorbsDeferred(t *testing.T) {
	sink := display.NewMemory()
	c, done := startCoordinator(t, sink, WithThrottle(time.Hour))

	c.Enqueue(Request{Kind: FullRefresh, Stats: &StatsView{Hostname: "a"}})
	waitDraws(t, sink, 1)
	c.Enqueue(Request{Kind: FullRefresh, Stats: &StatsView{Hostname: "b"}})
	c.Enqueue(Request{Kind: FullRefresh, Immediate: true, Mode: &ModeView{Label: "ADS-B", Page: 4}})
	waitDraws(t, sink, 2)

	want := NewFrame()
	want.Redraw(RegionFull, View{
		Mode:  ModeView{Label: "ADS-B", Page: 4},
		Stats: StatsView{Hostname: "b"},
	})
	if !bytes.Equal(sink.Image().Pix, want.Image().Pix) {
		t.Fatal("interactive full refresh did not carry the deferred poller state")
	}
	stopCoordinator(t, c, done)
}

func TestCloseRendersGoodbyeAndHalts(t *testing.T) {
	sink := display.NewMemory()
	c, done := startCoordinator(t, sink)

	stopCoordinator(t, c, done)

	if !sink.Halted() {
		t.Fatal("sink not halted after Close")
	}
	goodbye := NewFrame()
	goodbye.Goodbye()
	if !bytes.Equal(sink.Image().Pix, goodbye.Image().Pix) {
		t.Fatal("final frame is not the goodbye render")
	}
}

func TestEnqueueNeverBlocksWhenQueueFull(t *testing.T) {
	// No Run loop is draining; with capacity 1 the extra requests must be
	// dropped, not block the caller.
	c := NewCoordinator(display.NewMemory(), WithLogger(discardLogger()), WithQueueSize(1))
	for i := 0; i < 10; i++ {
		c.Enqueue(Request{Kind: PageIndicatorOnly, Immediate: true})
	}
}

// failingSink returns an error from every Draw.
type failingSink struct{}

func (failingSink) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 64) }
func (failingSink) Draw(image.Rectangle, image.Image, image.Point) error {
	return errors.New("i2c write error")
}
func (failingSink) Halt() error { return nil }

func TestDisplayWriteFailureIsFatal(t *testing.T) {
	c := NewCoordinator(failingSink{}, WithLogger(discardLogger()))
	c.Enqueue(Request{Kind: FullRefresh, Immediate: true})

	done := make(chan error, 1)
	go func() { done <- c.Run() }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run returned nil after a failed draw")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after a failed draw")
	}
}
