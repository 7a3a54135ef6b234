// Command oitdemo composites overlapping translucent quads in scrambled
// submission order and writes the result as a PNG.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"os"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/oit"
	"github.com/gogpu/oit/blend"
	"github.com/gogpu/oit/gpu"
)

func main() {
	var (
		width    = flag.Int("width", 800, "image width")
		height   = flag.Int("height", 600, "image height")
		output   = flag.String("output", "oit.png", "output file")
		maxFrags = flag.Int("max-fragments", oit.DefaultMaxFragments, "per-pixel fragment budget")
	)
	flag.Parse()

	// Report what the hardware would support; compositing below runs in
	// software either way.
	if tier, err := gpu.Detect(); err != nil {
		log.Printf("GPU probe: %v", err)
	} else {
		log.Printf("GPU tier: %s", tier)
	}

	c, err := oit.New(*width, *height, oit.WithMaxFragments(*maxFrags))
	if err != nil {
		log.Fatalf("Failed to create compositor: %v", err)
	}
	defer c.Close()

	opaque, depth := buildOpaqueScene(*width, *height)

	if err := c.BeginFrame(); err != nil {
		log.Fatalf("Begin frame: %v", err)
	}

	// Deliberately submitted far, near, middle: the resolve pass orders
	// them by depth, not by submission.
	drawGlassPanes(c)
	drawGlow(c)
	drawInkOverlay(c)

	if err := c.Composite(opaque, depth); err != nil {
		log.Fatalf("Composite: %v", err)
	}
	log.Printf("%s", c.Stats())

	dst := image.NewRGBA(image.Rect(0, 0, *width, *height))
	if err := c.Present(dst); err != nil {
		log.Fatalf("Present: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *output, err)
	}
	defer f.Close()
	if err := png.Encode(f, dst); err != nil {
		log.Fatalf("Failed to encode: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d)", *output, *width, *height)
}

// buildOpaqueScene fills the background with a vertical gradient at depth
// 100 and plants three opaque pillars at depth 1.5. Translucent fragments
// behind the pillars are culled during composite, so the pillars stay
// crisp under every pane.
func buildOpaqueScene(w, h int) (*oit.Framebuffer, *oit.DepthBuffer) {
	opaque := oit.NewFramebuffer(w, h)
	depth := oit.NewDepthBuffer(w, h)
	depth.Fill(100)

	for y := 0; y < h; y++ {
		t := float32(y) / float32(h)
		c := f32.Vec4{0.10 + t*0.05, 0.12 + t*0.08, 0.22 + t*0.18, 1}
		for x := 0; x < w; x++ {
			opaque.SetVec(x, y, c)
		}
	}

	for i := 0; i < 3; i++ {
		x0 := (i*2 + 1) * w / 8
		fillRect(opaque, depth, x0, h/6, w/24, h*2/3, 1.5,
			f32.Vec4{0.85, 0.82, 0.75, 1})
	}
	return opaque, depth
}

func fillRect(fb *oit.Framebuffer, db *oit.DepthBuffer, x0, y0, w, h int, depth float32, c f32.Vec4) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			fb.SetVec(x, y, c)
			db.Set(x, y, depth)
		}
	}
}

// quad appends one translucent rectangle at a fixed depth. Every fragment
// of the quad shares one draw sequence.
func quad(c *oit.Compositor, x0, y0, w, h int, depth float32, color f32.Vec4, op blend.Op, src, dst blend.Factor) {
	seq := c.NextSequence()
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			c.Append(x, y, depth, color, seq, op, src, dst)
		}
	}
}

// drawGlassPanes layers three alpha-blended panes. Submission order is
// far, near, middle.
func drawGlassPanes(c *oit.Compositor) {
	w, h := c.Width(), c.Height()
	classic := func(x0, y0 int, depth float32, color f32.Vec4) {
		quad(c, x0, y0, w/3, h/3, depth, color,
			blend.OpAdd, blend.FactorSourceAlpha, blend.FactorInverseSourceAlpha)
	}
	classic(w/10, h/10, 8, f32.Vec4{0.9, 0.15, 0.15, 0.55})
	classic(w/4, h/4, 3, f32.Vec4{0.15, 0.3, 0.9, 0.55})
	classic(w/6, h/6, 5, f32.Vec4{0.15, 0.85, 0.25, 0.55})
}

// drawGlow stacks additive quads; order within the stack is irrelevant for
// FactorOne + FactorOne but the depths still interleave with the panes.
func drawGlow(c *oit.Compositor) {
	w, h := c.Width(), c.Height()
	for i, d := range []float32{6, 2, 4} {
		x0 := w/2 + i*w/16
		y0 := h/2 + i*h/24
		quad(c, x0, y0, w/5, h/5, d,
			f32.Vec4{0.25, 0.2, 0.05, 1},
			blend.OpAdd, blend.FactorOne, blend.FactorOne)
	}
}

// drawInkOverlay darkens a band by modulating the destination, then carves
// a notch out of it with reverse subtract.
func drawInkOverlay(c *oit.Compositor) {
	w, h := c.Width(), c.Height()
	quad(c, 0, h*3/4, w, h/8, 7,
		f32.Vec4{0.55, 0.6, 0.7, 1},
		blend.OpAdd, blend.FactorZero, blend.FactorSourceColor)
	quad(c, w/8, h*3/4+h/32, w/4, h/16, 2.5,
		f32.Vec4{0.2, 0.05, 0.05, 1},
		blend.OpReverseSubtract, blend.FactorOne, blend.FactorOne)
}
