package oit

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/oit/blend"
	"github.com/gogpu/oit/internal/fraglist"
	"github.com/gogpu/oit/internal/parallel"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f32"
)

// Sentinel errors returned by Compositor operations.
var (
	// ErrUnsupported means the device tier cannot run per-pixel linked
	// lists; the compositor is permanently disabled.
	ErrUnsupported = errors.New("oit: device tier cannot run per-pixel linked lists")

	// ErrPhase means an operation was called outside its frame phase.
	ErrPhase = errors.New("oit: operation not valid in current frame phase")

	// ErrDimensions means a size was not positive or did not match the
	// compositor's target.
	ErrDimensions = errors.New("oit: invalid dimensions")

	// ErrClosed means the compositor has been closed.
	ErrClosed = errors.New("oit: compositor closed")
)

// Phase is one state of the per-frame cycle.
type Phase uint32

const (
	// PhaseIdle is the resting state between frames.
	PhaseIdle Phase = iota

	// PhaseWrite accepts fragment appends.
	PhaseWrite

	// PhaseComposite resolves and blends; appends are refused.
	PhaseComposite

	// PhasePresent holds the finished frame until it is copied out.
	PhasePresent
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseWrite:
		return "Write"
	case PhaseComposite:
		return "Composite"
	case PhasePresent:
		return "Present"
	default:
		return fmt.Sprintf("Phase(%d)", uint32(p))
	}
}

// Compositor accumulates translucent fragments into per-pixel linked lists
// and resolves them over an opaque scene, one frame at a time.
//
// Append and NextSequence are safe for concurrent use during the write
// phase. BeginFrame, Composite, Present, Reset and Resize belong to a
// single orchestrating goroutine.
type Compositor struct {
	width        int
	height       int
	maxFragments int
	order        DepthOrder
	tier         Tier

	// pool, workers and out stay nil on tiers without linked-list
	// support; every frame operation then refuses with ErrUnsupported.
	pool    *fraglist.Pool
	workers *parallel.WorkerPool
	out     *Framebuffer

	phase  atomic.Uint32
	seq    atomic.Uint32
	closed atomic.Bool

	// stats is written at the end of Composite and stable until the next
	// BeginFrame.
	stats FrameStats
}

// New creates a compositor for a width x height target.
func New(width, height int, opts ...Option) (*Compositor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxFragments <= 0 {
		o.maxFragments = DefaultMaxFragments
	}

	c := &Compositor{
		width:        width,
		height:       height,
		maxFragments: o.maxFragments,
		order:        o.order,
		tier:         o.tier,
	}

	if !o.tier.LinkedListCapable() {
		// No pool, no workers: the compositor exists only to refuse.
		Logger().Info("oit: compositor disabled", "tier", o.tier.String())
		return c, nil
	}

	pool, err := fraglist.NewPool(width, height, o.maxFragments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDimensions, err)
	}
	c.pool = pool
	c.workers = parallel.NewWorkerPool(o.workers)
	c.out = NewFramebuffer(width, height)

	Logger().Debug("oit: compositor ready",
		"width", width, "height", height,
		"maxFragments", o.maxFragments,
		"poolNodes", pool.Capacity(),
		"workers", c.workers.Workers())
	return c, nil
}

// Supported reports whether this compositor can run frames at all. It is
// false on tiers without linked-list support.
func (c *Compositor) Supported() bool {
	return c.tier.LinkedListCapable()
}

// Width returns the target width in pixels.
func (c *Compositor) Width() int { return c.width }

// Height returns the target height in pixels.
func (c *Compositor) Height() int { return c.height }

// MaxFragments returns the per-pixel fragment budget.
func (c *Compositor) MaxFragments() int { return c.maxFragments }

// Order returns the depth convention in effect.
func (c *Compositor) Order() DepthOrder { return c.order }

// Tier returns the capability tier the compositor was built for.
func (c *Compositor) Tier() Tier { return c.tier }

// Phase returns the current frame phase.
func (c *Compositor) Phase() Phase {
	return Phase(c.phase.Load())
}

// Stats returns the summary of the last composite pass. Valid once
// Composite has returned, until the next BeginFrame.
func (c *Compositor) Stats() FrameStats { return c.stats }

// BeginFrame opens the write phase. The fragment pool is cleared here and
// only here: heads to the null index, cursor and counts to zero. The draw
// sequence counter restarts at zero.
func (c *Compositor) BeginFrame() error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.Supported() {
		return ErrUnsupported
	}
	if !c.phase.CompareAndSwap(uint32(PhaseIdle), uint32(PhaseWrite)) {
		return fmt.Errorf("%w: BeginFrame during %v", ErrPhase, c.Phase())
	}

	c.pool.Clear()
	c.seq.Store(0)
	c.stats = FrameStats{}
	return nil
}

// NextSequence hands out the next draw sequence for the current frame,
// starting at zero. Sequences order fragments of equal depth, so each draw
// call should take one and stamp all its fragments with it. The counter is
// 16-bit and wraps silently.
//
// NextSequence is safe for concurrent use.
func (c *Compositor) NextSequence() uint16 {
	return uint16(c.seq.Add(1) - 1)
}

// Append records one translucent fragment at (x, y). The color is straight
// alpha; op and the factors select the blend applied when the fragment is
// composited. It reports whether the fragment was stored.
//
// Append never blocks and never errors: outside the write phase, out of
// bounds, or against an exhausted pool it drops the fragment and reports
// false. Safe for concurrent use.
func (c *Compositor) Append(x, y int, depth float32, color f32.Vec4, seq uint16, op blend.Op, srcFactor, dstFactor blend.Factor) bool {
	if Phase(c.phase.Load()) != PhaseWrite {
		return false
	}
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return false
	}
	ctrl := fraglist.PackControl(seq, uint8(op), uint8(srcFactor), uint8(dstFactor))
	return c.pool.Append(y*c.width+x, depth, fraglist.PackColor(color), ctrl)
}

// Composite closes the write phase and resolves every pixel: fragments
// hidden by the opaque depth are culled, survivors are sorted farthest
// first (ties by draw sequence) and folded over the opaque color with
// their own blend states. The result is available from Output and the
// frame moves to the present phase.
//
// opaque and depth must match the compositor's dimensions.
func (c *Compositor) Composite(opaque *Framebuffer, depth *DepthBuffer) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.Supported() {
		return ErrUnsupported
	}
	if opaque == nil || depth == nil {
		return errors.New("oit: nil composite input")
	}
	if opaque.width != c.width || opaque.height != c.height ||
		depth.width != c.width || depth.height != c.height {
		return fmt.Errorf("%w: inputs %dx%d/%dx%d against %dx%d target",
			ErrDimensions, opaque.width, opaque.height,
			depth.width, depth.height, c.width, c.height)
	}
	if !c.phase.CompareAndSwap(uint32(PhaseWrite), uint32(PhaseComposite)) {
		return fmt.Errorf("%w: Composite during %v", ErrPhase, c.Phase())
	}

	bands := c.workers.Workers()
	if bands > c.height {
		bands = c.height
	}
	rows := (c.height + bands - 1) / bands

	peaks := make([]uint32, bands)
	work := make([]func(), bands)
	for b := range bands {
		y0 := b * rows
		y1 := min(y0+rows, c.height)
		peak := &peaks[b]
		work[b] = func() {
			c.compositeBand(y0, y1, opaque, depth, peak)
		}
	}
	c.workers.ExecuteAll(work)

	var peak uint32
	for _, p := range peaks {
		if p > peak {
			peak = p
		}
	}
	c.stats = FrameStats{
		FragmentsAppended: uint64(c.pool.Used()),
		FragmentsDropped:  c.pool.Dropped(),
		PoolCapacity:      c.pool.Capacity(),
		PoolUsed:          c.pool.Used(),
		MaxPixelFragments: peak,
	}

	if c.stats.FragmentsDropped > 0 {
		Logger().Warn("oit: fragment pool exhausted",
			"dropped", c.stats.FragmentsDropped,
			"capacity", c.stats.PoolCapacity)
	}
	Logger().Debug("oit: composite done", "stats", c.stats.String())

	c.phase.Store(uint32(PhasePresent))
	return nil
}

// compositeBand resolves rows [y0, y1). Each band carries its own resolver
// so bands share nothing but the read-only pool.
func (c *Compositor) compositeBand(y0, y1 int, opaque *Framebuffer, depth *DepthBuffer, peak *uint32) {
	res := fraglist.NewResolver(c.maxFragments, c.order == DepthReversed)

	for y := y0; y < y1; y++ {
		row := y * c.width
		for x := 0; x < c.width; x++ {
			pixel := row + x

			if n := c.pool.Count(pixel); n > *peak {
				*peak = n
			}

			frags := res.Resolve(c.pool, pixel, depth.data[pixel])
			if len(frags) == 0 {
				// Nothing survived: the opaque pixel passes through
				// byte for byte.
				c.out.copyPixel(pixel, opaque)
				continue
			}

			acc := opaque.vecAtPixel(pixel)
			for _, f := range frags {
				acc = blend.Blend(
					blend.Op(f.BlendOp()),
					blend.Factor(f.SrcFactor()),
					blend.Factor(f.DstFactor()),
					fraglist.UnpackColor(f.Color),
					acc)
			}
			c.out.setVecPixel(pixel, acc)
		}
	}
}

// Output returns the composited frame. The framebuffer is owned by the
// compositor and overwritten by the next Composite; copy it to keep it.
func (c *Compositor) Output() *Framebuffer { return c.out }

// Present copies the composited frame onto dst and returns the compositor
// to idle. Nothing carries over into the next frame.
func (c *Compositor) Present(dst draw.Image) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.Supported() {
		return ErrUnsupported
	}
	if Phase(c.phase.Load()) != PhasePresent {
		return fmt.Errorf("%w: Present during %v", ErrPhase, c.Phase())
	}
	if dst == nil {
		return errors.New("oit: nil present target")
	}

	src := c.out.Image()
	draw.Copy(dst, image.Point{}, src, src.Bounds(), draw.Src, nil)

	c.phase.Store(uint32(PhaseIdle))
	return nil
}

// Reset abandons the frame in progress and returns to idle. Accumulated
// fragments are discarded by the next BeginFrame's pool clear.
func (c *Compositor) Reset() error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.phase.Store(uint32(PhaseIdle))
	return nil
}

// Resize reallocates the compositor for a new target size. Only valid
// while idle; the current output is discarded.
func (c *Compositor) Resize(width, height int) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.Supported() {
		return ErrUnsupported
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	if Phase(c.phase.Load()) != PhaseIdle {
		return fmt.Errorf("%w: Resize during %v", ErrPhase, c.Phase())
	}

	pool, err := fraglist.NewPool(width, height, c.maxFragments)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDimensions, err)
	}
	c.width = width
	c.height = height
	c.pool = pool
	c.out = NewFramebuffer(width, height)

	Logger().Debug("oit: resized", "width", width, "height", height,
		"poolNodes", pool.Capacity())
	return nil
}

// Close releases the worker pool and disables the compositor. Further
// operations return ErrClosed. Close is safe to call multiple times.
func (c *Compositor) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.workers != nil {
		c.workers.Close()
	}
	c.phase.Store(uint32(PhaseIdle))
	return nil
}
