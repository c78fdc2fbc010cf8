// Package mode owns the panel's selected/active operating mode and its
// inactivity-driven reversion. The machine is the only mutator of mode
// state; every change is surfaced as a render request.
package mode

// Mode is one of the panel's fixed, ordered operating modes. The ring is
// cyclic under increment and decrement.
type Mode int

const (
	Off Mode = iota
	NWSBalloon
	HAMBalloon
	ADSB
	APRS
)

// Count is the size of the mode ring.
const Count = 5

// String returns the display label.
func (m Mode) String() string {
	switch m {
	case Off:
		return "Off"
	case NWSBalloon:
		return "NWS Balloon"
	case HAMBalloon:
		return "HAM Balloon"
	case ADSB:
		return "ADS-B"
	case APRS:
		return "APRS"
	}
	return "unknown"
}

// Next returns the following mode, wrapping at the end of the ring.
func (m Mode) Next() Mode {
	return (m + 1) % Count
}

// Prev returns the preceding mode, wrapping at the start of the ring.
func (m Mode) Prev() Mode {
	return (m + Count - 1) % Count
}

// Page returns the 1-based position shown on the page indicator.
func (m Mode) Page() int {
	return int(m) + 1
}
