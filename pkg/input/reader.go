package input

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// Kernel input_event types and values the panel cares about. SYN_REPORT
// framing events are skipped silently; everything else unrecognized is
// dropped with a debug log.
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	keyValueRelease = 0
	keyValuePress   = 1
)

// rawEvent mirrors struct input_event. unix.Timeval keeps the timestamp
// field sizes correct on both 32- and 64-bit kernels.
type rawEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Reader decodes one raw character-device stream into normalized events.
// Arrival order is preserved: events are pushed onto the shared channel in
// the order the kernel delivered the samples.
type Reader struct {
	name       string
	f          *os.File
	confirmKey uint16
	log        *slog.Logger
}

// NewReader opens the device node at path. The name is used only for
// logging. confirmKey is the key code mapped to Confirm/Release edges;
// key samples with any other code are ignored.
func NewReader(name, path string, confirmKey uint16, log *slog.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input device %s: %w", path, err)
	}
	return &Reader{
		name:       name,
		f:          f,
		confirmKey: confirmKey,
		log:        log.With("device", name),
	}, nil
}

// Run reads raw samples until ctx is cancelled, pushing normalized events
// onto out. Malformed samples are dropped and debug-logged, never fatal.
func (r *Reader) Run(ctx context.Context, out chan<- Event) error {
	// Blocking reads on the device node do not observe ctx; closing the
	// file from a watcher goroutine unblocks them.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.f.Close()
		case <-done:
		}
	}()

	var raw rawEvent
	for {
		err := binary.Read(r.f, binary.NativeEndian, &raw)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, io.EOF), errors.Is(err, fs.ErrClosed):
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			r.log.Debug("dropping truncated input sample")
			continue
		default:
			return fmt.Errorf("reading %s: %w", r.name, err)
		}

		ev, ok := r.normalize(raw)
		if !ok {
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

// Close releases the underlying device node.
func (r *Reader) Close() error {
	return r.f.Close()
}

// normalize maps one raw sample to an abstract event. The bool result is
// false for samples that carry no panel meaning.
func (r *Reader) normalize(raw rawEvent) (Event, bool) {
	switch raw.Type {
	case evRel:
		if raw.Value > 0 {
			return RotateForward, true
		}
		if raw.Value < 0 {
			return RotateBackward, true
		}
		return 0, false

	case evKey:
		if raw.Code != r.confirmKey {
			return 0, false
		}
		switch raw.Value {
		case keyValuePress:
			return Confirm, true
		case keyValueRelease:
			return Release, true
		}
		// Key autorepeat (value 2) carries no edge.
		return 0, false

	case evSyn:
		return 0, false
	}

	r.log.Debug("dropping unsupported input sample",
		"type", raw.Type, "code", raw.Code, "value", raw.Value)
	return 0, false
}
