//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/oit"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Detect opens the best available adapter and checks whether it can run
// the per-pixel linked-list passes: both shaders must compile on the
// device and the resolve compute pipeline must assemble. On success it
// reports [oit.TierLinkedList]; any failure along the way reports
// [oit.TierLegacy] with the reason wrapped.
//
// Everything Detect creates is destroyed before it returns. Callers that
// already hold a device should use DetectWithProvider instead of opening
// a second one.
func Detect() (oit.Tier, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return oit.TierLegacy, fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return oit.TierLegacy, fmt.Errorf("gpu: create instance: %w", err)
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return oit.TierLegacy, fmt.Errorf("gpu: no adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return oit.TierLegacy, fmt.Errorf("gpu: open device: %w", err)
	}
	device := openDev.Device
	defer device.Destroy()

	if err := buildProbePipelines(device); err != nil {
		return oit.TierLegacy, err
	}
	oit.Logger().Info("gpu: linked-list tier available", "adapter", selected.Info.Name)
	return oit.TierLinkedList, nil
}

// DetectWithProvider probes a shared device instead of opening one. The
// provider must expose its HAL handles via HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue; providers that do
// not are reported as [oit.TierLegacy]. The shared device is never
// destroyed.
func DetectWithProvider(provider gpucontext.DeviceProvider) (oit.Tier, error) {
	if provider == nil {
		return oit.TierLegacy, fmt.Errorf("gpu: nil device provider")
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return oit.TierLegacy, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return oit.TierLegacy, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	if _, ok := hp.HalQueue().(hal.Queue); !ok {
		return oit.TierLegacy, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	if err := buildProbePipelines(device); err != nil {
		return oit.TierLegacy, err
	}
	return oit.TierLinkedList, nil
}

// buildProbePipelines compiles both shaders on the device and assembles
// the resolve compute pipeline. The write pass needs only its module to
// compile here; its render pipeline depends on surface formats the probe
// does not know. Everything created is destroyed before returning.
func buildProbePipelines(device hal.Device) error {
	writeShader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "oit_write",
		Source: hal.ShaderSource{WGSL: writeShaderSource},
	})
	if err != nil {
		return fmt.Errorf("gpu: compile oit_write shader: %w", err)
	}
	defer device.DestroyShaderModule(writeShader)

	resolveShader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "oit_resolve",
		Source: hal.ShaderSource{WGSL: resolveShaderSource},
	})
	if err != nil {
		return fmt.Errorf("gpu: compile oit_resolve shader: %w", err)
	}
	defer device.DestroyShaderModule(resolveShader)

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "oit_resolve_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 4, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create resolve bind group layout: %w", err)
	}
	defer device.DestroyBindGroupLayout(bindLayout)

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "oit_resolve_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create resolve pipeline layout: %w", err)
	}
	defer device.DestroyPipelineLayout(pipeLayout)

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "oit_resolve_pipeline", Layout: pipeLayout,
		Compute: hal.ComputeState{Module: resolveShader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("gpu: create resolve compute pipeline: %w", err)
	}
	device.DestroyComputePipeline(pipeline)

	return nil
}
