// Package fraglist implements the shared fragment pool behind the
// order-independent compositor: a flat arena of fragment nodes threaded into
// per-pixel singly linked chains, newest fragment first.
//
// The layout mirrors the GPU formulation of per-pixel linked lists. Nodes
// live in one preallocated slab addressed by integer index, a shared cursor
// hands out slots, and each pixel publishes its chain head with an atomic
// exchange. Appending never blocks and never fails loudly: when the slab is
// exhausted the fragment is dropped and the pool only counts it.
//
// Chains are written during a frame's write phase and walked during its
// composite phase. The two phases never overlap, which is what makes the
// plain reads on the walk side safe.
package fraglist

import (
	"fmt"
	"sync/atomic"
)

// NullIndex terminates a pixel's fragment chain. It is never a valid node
// index; NewPool caps capacity below it.
const NullIndex uint32 = 0xFFFFFFFF

// Node is one translucent fragment in the pool.
//
// Ctrl packs the fragment's draw sequence and blend selectors; see
// PackControl for the bit layout. Color is RGBA8 with red in the low byte.
type Node struct {
	Depth float32
	Color uint32
	Ctrl  uint32
	Next  uint32
}

// Pool is the per-frame fragment store for one target surface.
//
// Append is safe for concurrent use from any number of goroutines. Clear and
// chain walks are not safe concurrently with Append; callers separate the
// write and composite phases of a frame.
type Pool struct {
	// nodes is the backing arena. Capacity is pixels * maxPerPixel, fixed
	// at construction.
	nodes []Node

	// heads holds each pixel's chain head index, NullIndex when empty.
	// Written with atomic exchange during the write phase.
	heads []uint32

	// counts tracks appended fragments per pixel, drops included. Feeds
	// frame statistics only; chain walks never trust it.
	counts []uint32

	// cursor counts append attempts. Values at or beyond len(nodes) mean
	// the attempt was dropped.
	cursor atomic.Uint64

	maxPerPixel int
}

// NewPool allocates a pool for width x height pixels with room for
// maxPerPixel fragments per pixel on average.
func NewPool(width, height, maxPerPixel int) (*Pool, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("fraglist: invalid pool dimensions %dx%d", width, height)
	}
	if maxPerPixel <= 0 {
		return nil, fmt.Errorf("fraglist: invalid per-pixel capacity %d", maxPerPixel)
	}
	pixels := width * height
	capacity := uint64(pixels) * uint64(maxPerPixel)
	if capacity >= uint64(NullIndex) {
		return nil, fmt.Errorf("fraglist: pool capacity %d exceeds index space", capacity)
	}

	p := &Pool{
		nodes:       make([]Node, capacity),
		heads:       make([]uint32, pixels),
		counts:      make([]uint32, pixels),
		maxPerPixel: maxPerPixel,
	}
	for i := range p.heads {
		p.heads[i] = NullIndex
	}
	return p, nil
}

// Append reserves a node, fills it, and links it at the front of pixel's
// chain. It reports false when the pool is exhausted; the fragment is then
// dropped and only counted.
//
// Concurrent appenders to the same pixel each splice behind a distinct
// previous head, so no fragment is ever lost to a racing publish.
func (p *Pool) Append(pixel int, depth float32, color, ctrl uint32) bool {
	atomic.AddUint32(&p.counts[pixel], 1)

	idx := p.cursor.Add(1) - 1
	if idx >= uint64(len(p.nodes)) {
		return false
	}

	n := &p.nodes[idx]
	n.Depth = depth
	n.Color = color
	n.Ctrl = ctrl

	// Publish first, then thread the chain: the previous head this slot
	// displaced becomes its successor. Nobody walks chains until the write
	// phase ends, so the momentarily dangling Next is unobservable.
	prev := atomic.SwapUint32(&p.heads[pixel], uint32(idx))
	n.Next = prev
	return true
}

// Head returns pixel's current chain head index, NullIndex when the chain
// is empty.
func (p *Pool) Head(pixel int) uint32 {
	return atomic.LoadUint32(&p.heads[pixel])
}

// Count returns the number of fragments appended to pixel this frame,
// including any dropped by pool exhaustion.
func (p *Pool) Count(pixel int) uint32 {
	return atomic.LoadUint32(&p.counts[pixel])
}

// Capacity returns the total node capacity of the pool.
func (p *Pool) Capacity() int { return len(p.nodes) }

// MaxPerPixel returns the per-pixel capacity the pool was sized for.
func (p *Pool) MaxPerPixel() int { return p.maxPerPixel }

// Attempts returns the number of append attempts since the last Clear.
func (p *Pool) Attempts() uint64 { return p.cursor.Load() }

// Used returns the number of pool nodes holding live fragments.
func (p *Pool) Used() int {
	n := p.cursor.Load()
	if n > uint64(len(p.nodes)) {
		return len(p.nodes)
	}
	return int(n)
}

// Dropped returns the number of appends refused by pool exhaustion since
// the last Clear.
func (p *Pool) Dropped() uint64 {
	n := p.cursor.Load()
	if n > uint64(len(p.nodes)) {
		return n - uint64(len(p.nodes))
	}
	return 0
}

// Clear resets the pool for a new frame: cursor to zero, every head to
// NullIndex, every count to zero. Node payloads are left in place; slots
// beyond the cursor are garbage by definition.
//
// Clear must not run concurrently with Append or chain walks.
func (p *Pool) Clear() {
	p.cursor.Store(0)
	for i := range p.heads {
		p.heads[i] = NullIndex
	}
	clear(p.counts)
}
