package oit

import (
	"image"

	"github.com/gogpu/oit/internal/fraglist"
	"golang.org/x/image/math/f32"
)

// Framebuffer is an RGBA8 color surface: the opaque scene going into a
// composite pass, and the resolved frame coming out of one.
//
// Colors cross its boundary as straight-alpha float vectors and are
// quantized on store, the same codec the fragment pool uses, so a color
// survives the pool and the framebuffer identically.
type Framebuffer struct {
	width  int
	height int
	pix    []uint8 // RGBA order, 4 bytes per pixel, row-major
}

// NewFramebuffer allocates a transparent-black framebuffer. Returns nil if
// either dimension is not positive.
func NewFramebuffer(width, height int) *Framebuffer {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &Framebuffer{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*4),
	}
}

// Width returns the framebuffer width in pixels.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the framebuffer height in pixels.
func (f *Framebuffer) Height() int { return f.height }

// SetVec stores a straight-alpha color at (x, y), clamping each channel to
// [0, 1] during quantization. Out-of-range coordinates are ignored.
func (f *Framebuffer) SetVec(x, y int, c f32.Vec4) {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return
	}
	f.setVecPixel(y*f.width+x, c)
}

// VecAt returns the color at (x, y) as float channels, or zero when out of
// range.
func (f *Framebuffer) VecAt(x, y int) f32.Vec4 {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return f32.Vec4{}
	}
	return f.vecAtPixel(y*f.width + x)
}

// Fill sets every pixel to c.
func (f *Framebuffer) Fill(c f32.Vec4) {
	packed := fraglist.PackColor(c)
	r, g, b, a := uint8(packed), uint8(packed>>8), uint8(packed>>16), uint8(packed>>24)
	for i := 0; i < len(f.pix); i += 4 {
		f.pix[i] = r
		f.pix[i+1] = g
		f.pix[i+2] = b
		f.pix[i+3] = a
	}
}

// Pix returns the backing pixel slice. The slice aliases the framebuffer.
func (f *Framebuffer) Pix() []uint8 { return f.pix }

// Image wraps the framebuffer in an image.RGBA sharing the same memory.
// Draws into the returned image show up in the framebuffer and vice versa.
func (f *Framebuffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.pix,
		Stride: f.width * 4,
		Rect:   image.Rect(0, 0, f.width, f.height),
	}
}

func (f *Framebuffer) setVecPixel(pixel int, c f32.Vec4) {
	packed := fraglist.PackColor(c)
	i := pixel * 4
	f.pix[i] = uint8(packed)
	f.pix[i+1] = uint8(packed >> 8)
	f.pix[i+2] = uint8(packed >> 16)
	f.pix[i+3] = uint8(packed >> 24)
}

func (f *Framebuffer) vecAtPixel(pixel int) f32.Vec4 {
	i := pixel * 4
	packed := uint32(f.pix[i]) |
		uint32(f.pix[i+1])<<8 |
		uint32(f.pix[i+2])<<16 |
		uint32(f.pix[i+3])<<24
	return fraglist.UnpackColor(packed)
}

// copyPixel copies one pixel from src byte for byte.
func (f *Framebuffer) copyPixel(pixel int, src *Framebuffer) {
	i := pixel * 4
	copy(f.pix[i:i+4], src.pix[i:i+4])
}
