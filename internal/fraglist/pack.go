package fraglist

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// PackControl packs a fragment's draw sequence and blend selectors into one
// control word:
//
//	bits 16-31  draw sequence
//	bits  8-11  blend operation
//	bits  4-7   source factor
//	bits  0-3   destination factor
//
// The 4-bit blend fields carry enumerants starting at 1; a zero field marks
// a word that was never written.
func PackControl(seq uint16, op, src, dst uint8) uint32 {
	return uint32(seq)<<16 | uint32(op&0xF)<<8 | uint32(src&0xF)<<4 | uint32(dst&0xF)
}

// PackColor quantizes a straight-alpha color to the pool's RGBA8 layout,
// red in the low byte. Channels clamp to [0,1] at this boundary; everything
// upstream of the pool is unclamped float.
func PackColor(c f32.Vec4) uint32 {
	return uint32(quantize(c[0])) |
		uint32(quantize(c[1]))<<8 |
		uint32(quantize(c[2]))<<16 |
		uint32(quantize(c[3]))<<24
}

// UnpackColor expands a packed RGBA8 color back to float channels.
func UnpackColor(p uint32) f32.Vec4 {
	const s = 1.0 / 255.0
	return f32.Vec4{
		float32(p&0xFF) * s,
		float32(p>>8&0xFF) * s,
		float32(p>>16&0xFF) * s,
		float32(p>>24&0xFF) * s,
	}
}

func quantize(v float32) uint8 {
	return uint8(math32.Round(math32.Min(math32.Max(v, 0), 1) * 255))
}
