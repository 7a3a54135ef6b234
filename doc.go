// Package oit composites translucent geometry in any draw order using
// per-pixel linked lists of fragments.
//
// # Overview
//
// Classic alpha blending only works when translucent surfaces reach the
// blender sorted back to front, which object-level sorting cannot guarantee
// once geometry interpenetrates. This package takes the order-independent
// route instead: during a frame's write phase every translucent fragment is
// appended to a per-pixel linked list in a shared node pool, and a later
// composite pass sorts each pixel's shortlist by depth and folds it over the
// opaque scene with the legacy fixed-function blend equation each fragment
// carries.
//
// The data model matches the GPU formulation of the algorithm, so the same
// frame can be produced by the CPU path here or by the WGSL shaders under
// gpu/.
//
// # Quick Start
//
//	c, err := oit.New(640, 480)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
//	c.BeginFrame()
//	seq := c.NextSequence()
//	c.Append(320, 240, 0.5, f32.Vec4{1, 0, 0, 0.5}, seq,
//		blend.OpAdd, blend.FactorSourceAlpha, blend.FactorInverseSourceAlpha)
//	c.Composite(opaqueColor, opaqueDepth)
//	c.Present(dst)
//
// # Frame Phases
//
// A Compositor cycles through Idle, Write, Composite and Present. BeginFrame
// opens the write phase and clears the pool exactly once; Composite closes
// it and resolves every pixel; Present copies the result out and returns to
// Idle. Operations called in the wrong phase fail with [ErrPhase] rather
// than corrupt the frame.
//
// # Concurrency
//
// Append and NextSequence are safe from any number of goroutines during the
// write phase. The phase transitions themselves (BeginFrame, Composite,
// Present, Reset) belong to one orchestrating goroutine, the same contract a
// render loop already has with its graphics queue.
//
// # Capability Tiers
//
// Per-pixel linked lists need unordered storage writes from the fragment
// stage. Devices that cannot do that run [TierLegacy] and the compositor
// refuses frame operations with [ErrUnsupported]; translucency then falls
// back to whatever the caller rendered into the opaque pass. The gpu/
// subpackage probes real adapters and reports their tier.
package oit

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
