// Package gpu probes adapters for the capability tier the order-independent
// compositor needs, and carries the WGSL formulation of its passes.
//
// Per-pixel linked lists want storage buffers and atomics reachable from
// the fragment stage, plus a compute pass over the node arena. Detect opens
// the best available adapter, compiles the package's shaders on it and
// assembles the resolve pipeline; a device that takes all of that reports
// [oit.TierLinkedList], anything less reports [oit.TierLegacy] together
// with the reason.
//
// Build with the nogpu tag to compile the probe out; Detect then always
// reports the legacy tier.
package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

// Embedded WGSL shader sources: the GPU formulation of the compositor's
// write and resolve passes. The probe compiles them on real devices;
// ValidateShaders runs them through naga without one.

//go:embed shaders/oit_write.wgsl
var writeShaderSource string

//go:embed shaders/oit_resolve.wgsl
var resolveShaderSource string

// ValidateShaders compiles both shaders to SPIR-V on the CPU via naga,
// without touching a device. Useful as a preflight on hosts with no
// reachable adapter. Translator gaps (atomics, runtime-sized arrays) can
// surface as errors here even when real drivers accept the shaders.
func ValidateShaders() error {
	for _, s := range []struct {
		name   string
		source string
	}{
		{"oit_write", writeShaderSource},
		{"oit_resolve", resolveShaderSource},
	} {
		if _, err := naga.Compile(s.source); err != nil {
			return fmt.Errorf("gpu: compile %s: %w", s.name, err)
		}
	}
	return nil
}
