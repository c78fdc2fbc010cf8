// Package input normalizes the panel's two raw input streams (rotary
// encoder and push button) into a single ordered event sequence. Raw
// kernel input_event samples are decoded and mapped to abstract events;
// anything unrecognized is dropped. Per-device arrival order is preserved;
// no ordering is guaranteed across devices beyond arrival at the shared
// channel.
package input

// Event is a normalized input event. Events are immutable once emitted.
type Event int

const (
	// RotateForward is a positive relative-axis sample from the encoder.
	RotateForward Event = iota

	// RotateBackward is a negative relative-axis sample from the encoder.
	RotateBackward

	// Confirm is the rising edge (0→1) of the configured confirm key.
	Confirm

	// Release is the falling edge (1→0) of the configured confirm key.
	Release
)

// String returns a short name for logging.
func (e Event) String() string {
	switch e {
	case RotateForward:
		return "rotate-forward"
	case RotateBackward:
		return "rotate-backward"
	case Confirm:
		return "confirm"
	case Release:
		return "release"
	}
	return "unknown"
}
