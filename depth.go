package oit

import "github.com/chewxy/math32"

// DepthOrder selects which direction in depth points away from the eye.
type DepthOrder uint8

const (
	// DepthStandard means larger depth values are farther away, the
	// classic depth-buffer convention.
	DepthStandard DepthOrder = iota

	// DepthReversed inverts the convention: smaller values are farther.
	// Used with reversed-Z projection setups.
	DepthReversed
)

func (o DepthOrder) String() string {
	if o == DepthReversed {
		return "Reversed"
	}
	return "Standard"
}

// Farther reports whether depth a is strictly farther from the eye than b.
func (o DepthOrder) Farther(a, b float32) bool {
	if o == DepthReversed {
		return a < b
	}
	return a > b
}

// Far returns the far-plane clear value for the convention: positive
// infinity for standard depth, negative for reversed.
func (o DepthOrder) Far() float32 {
	if o == DepthReversed {
		return math32.Inf(-1)
	}
	return math32.Inf(1)
}

// DepthBuffer holds the opaque scene's per-pixel depth, the visibility
// threshold the composite pass culls translucent fragments against.
type DepthBuffer struct {
	width  int
	height int
	data   []float32
}

// NewDepthBuffer allocates a zero-filled depth buffer. Returns nil if
// either dimension is not positive.
func NewDepthBuffer(width, height int) *DepthBuffer {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &DepthBuffer{
		width:  width,
		height: height,
		data:   make([]float32, width*height),
	}
}

// Width returns the buffer width in pixels.
func (d *DepthBuffer) Width() int { return d.width }

// Height returns the buffer height in pixels.
func (d *DepthBuffer) Height() int { return d.height }

// At returns the depth at (x, y), or 0 when out of range.
func (d *DepthBuffer) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return 0
	}
	return d.data[y*d.width+x]
}

// Set stores depth at (x, y). Out-of-range coordinates are ignored.
func (d *DepthBuffer) Set(x, y int, depth float32) {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return
	}
	d.data[y*d.width+x] = depth
}

// Fill sets every pixel to depth.
func (d *DepthBuffer) Fill(depth float32) {
	for i := range d.data {
		d.data[i] = depth
	}
}

// ClearFar fills the buffer with the far-plane value of the given
// convention, so that an empty scene hides nothing.
func (d *DepthBuffer) ClearFar(order DepthOrder) {
	d.Fill(order.Far())
}

// Data returns the backing slice in row-major order, for bulk import of
// depth produced elsewhere. The slice aliases the buffer.
func (d *DepthBuffer) Data() []float32 { return d.data }
