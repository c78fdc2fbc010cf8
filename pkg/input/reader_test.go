package input

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

const testConfirmKey = 28 // KEY_ENTER

func testReader(t *testing.T, f *os.File) *Reader {
	t.Helper()
	return &Reader{
		name:       "test",
		f:          f,
		confirmKey: testConfirmKey,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNormalize(t *testing.T) {
	r := testReader(t, nil)

	cases := []struct {
		name string
		raw  rawEvent
		want Event
		drop bool
	}{
		{"rotate forward", rawEvent{Type: evRel, Value: 1}, RotateForward, false},
		{"rotate backward", rawEvent{Type: evRel, Value: -1}, RotateBackward, false},
		{"multi-detent forward", rawEvent{Type: evRel, Value: 3}, RotateForward, false},
		{"zero relative", rawEvent{Type: evRel, Value: 0}, 0, true},
		{"confirm press", rawEvent{Type: evKey, Code: testConfirmKey, Value: 1}, Confirm, false},
		{"confirm release", rawEvent{Type: evKey, Code: testConfirmKey, Value: 0}, Release, false},
		{"key autorepeat", rawEvent{Type: evKey, Code: testConfirmKey, Value: 2}, 0, true},
		{"other key", rawEvent{Type: evKey, Code: 30, Value: 1}, 0, true},
		{"syn report", rawEvent{Type: evSyn}, 0, true},
		{"unknown type", rawEvent{Type: 0x7f, Code: 9, Value: 1}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := r.normalize(tc.raw)
			if tc.drop {
				if ok {
					t.Fatalf("normalize(%+v) = %v, want drop", tc.raw, got)
				}
				return
			}
			if !ok || got != tc.want {
				t.Fatalf("normalize(%+v) = %v ok=%v, want %v", tc.raw, got, ok, tc.want)
			}
		})
	}
}

func TestRunPreservesArrivalOrder(t *testing.T) {
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	r := testReader(t, pr)

	samples := []rawEvent{
		{Type: evRel, Value: 1},
		{Type: evSyn},
		{Type: evRel, Value: 1},
		{Type: evKey, Code: testConfirmKey, Value: 1},
		{Type: evKey, Code: testConfirmKey, Value: 0},
		{Type: evRel, Value: -1},
	}
	for _, s := range samples {
		if err := binary.Write(pw, binary.NativeEndian, s); err != nil {
			t.Fatal(err)
		}
	}
	pw.Close()

	out := make(chan Event, 16)
	if err := r.Run(context.Background(), out); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	close(out)

	var got []Event
	for ev := range out {
		got = append(got, ev)
	}
	want := []Event{RotateForward, RotateForward, Confirm, Release, RotateBackward}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer pw.Close()
	r := testReader(t, pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	out := make(chan Event, 1)
	go func() { done <- r.Run(ctx, out) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunDropsTruncatedTrailingSample(t *testing.T) {
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	r := testReader(t, pr)

	if err := binary.Write(pw, binary.NativeEndian, rawEvent{Type: evRel, Value: 1}); err != nil {
		t.Fatal(err)
	}
	// A partial sample at the end of the stream must not surface as an error.
	if _, err := pw.Write([]byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatal(err)
	}
	pw.Close()

	out := make(chan Event, 4)
	if err := r.Run(context.Background(), out); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if ev := <-out; ev != RotateForward {
		t.Fatalf("event = %v, want RotateForward", ev)
	}
}

func TestEventString(t *testing.T) {
	cases := map[Event]string{
		RotateForward:  "rotate-forward",
		RotateBackward: "rotate-backward",
		Confirm:        "confirm",
		Release:        "release",
	}
	for ev, want := range cases {
		if got := ev.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", ev, got, want)
		}
	}
}
