package oit

import "fmt"

// Tier classifies what the rendering device generation can run.
//
// Per-pixel linked lists need unordered storage writes and atomics from the
// fragment stage. Hardware without them gets [TierLegacy], and a compositor
// constructed for that tier refuses every frame operation: there is no
// partial mode where fragments accumulate but cannot resolve.
type Tier int

const (
	// TierUnknown means no capability probe has run. Treated as not
	// capable.
	TierUnknown Tier = iota

	// TierLegacy covers fixed-function era devices. The compositor is
	// disabled and translucency stays whatever the opaque pass produced.
	TierLegacy

	// TierLinkedList covers devices with storage-buffer writes and
	// atomics in the fragment stage. The full write/composite path runs.
	TierLinkedList
)

func (t Tier) String() string {
	switch t {
	case TierUnknown:
		return "Unknown"
	case TierLegacy:
		return "Legacy"
	case TierLinkedList:
		return "LinkedList"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// LinkedListCapable reports whether the tier can run the per-pixel
// linked-list path.
func (t Tier) LinkedListCapable() bool {
	return t == TierLinkedList
}
