package oit

import "fmt"

// FrameStats summarizes the last composite pass. Fragment loss is silent
// at append time, so these counters are the only place a too-small pool
// shows up besides the pixels themselves.
type FrameStats struct {
	// FragmentsAppended is the number of fragments stored this frame.
	FragmentsAppended uint64

	// FragmentsDropped is the number of appends refused because the pool
	// was exhausted.
	FragmentsDropped uint64

	// PoolCapacity is the total node capacity of the pool.
	PoolCapacity int

	// PoolUsed is the number of pool nodes occupied this frame.
	PoolUsed int

	// MaxPixelFragments is the deepest per-pixel chain seen, drops
	// included. A value past the per-pixel budget means some pixels lost
	// their oldest fragments.
	MaxPixelFragments uint32
}

// Utilization returns pool occupancy as a fraction in [0, 1].
func (s FrameStats) Utilization() float64 {
	if s.PoolCapacity == 0 {
		return 0
	}
	return float64(s.PoolUsed) / float64(s.PoolCapacity)
}

// String formats the stats for logs.
func (s FrameStats) String() string {
	return fmt.Sprintf("Frame[stored: %d, dropped: %d, pool: %d/%d (%.1f%%), peak/pixel: %d]",
		s.FragmentsAppended, s.FragmentsDropped,
		s.PoolUsed, s.PoolCapacity, s.Utilization()*100,
		s.MaxPixelFragments)
}
