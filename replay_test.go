package replay

import (
	"testing"

	"github.com/gogpu/replay/backend"
	types "github.com/gogpu/gputypes"
)

// ==============================
// Stub backend
// ==============================

// stubShader exposes a fixed entry point set without compiling anything.
type stubShader struct {
	entries map[string]backend.EntryPoint
}

func (s *stubShader) EntryPoint(name string) (backend.EntryPoint, bool) {
	ep, ok := s.entries[name]
	return ep, ok
}

// stubBackend records dispatch calls and optionally runs a hook against
// them, so session tests can observe binding windows without a real
// shader executor.
type stubBackend struct {
	caps        backend.Capabilities
	compileErr  error
	dispatches  []*backend.DispatchCall
	onDispatch  func(*backend.DispatchCall) error
	entryPoints map[string]backend.EntryPoint
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		caps: backend.Capabilities{
			Features: []string{
				backend.CapComputeShaders,
				backend.CapMappablePrimaryBuffers,
				backend.CapReadOnlyStorage,
			},
			MaxBufferSize:             1 << 20,
			MaxWorkgroupsPerDimension: 256,
		},
		entryPoints: map[string]backend.EntryPoint{
			"main": {Name: "main", Workgroup: [3]uint32{1, 1, 1}},
		},
	}
}

func (b *stubBackend) Name() string                       { return "stub" }
func (b *stubBackend) Capabilities() backend.Capabilities { return b.caps }

func (b *stubBackend) CompileShader(desc *backend.ShaderDescriptor) (backend.Shader, error) {
	if b.compileErr != nil {
		return nil, b.compileErr
	}
	return &stubShader{entries: b.entryPoints}, nil
}

func (b *stubBackend) Dispatch(call *backend.DispatchCall) error {
	b.dispatches = append(b.dispatches, call)
	if b.onDispatch != nil {
		return b.onDispatch(call)
	}
	return nil
}

// ==============================
// Session fixtures
// ==============================

func testID(index uint32) ID {
	return ID{Index: index, Epoch: 1, Backend: TagVulkan}
}

// computeSetup is a minimal runnable pipeline: one storage buffer bound
// at group 0 binding 0.
type computeSetup struct {
	buffer   ID
	layout   ID
	group    ID
	pipeline ID
}

func storageSlot(binding uint32) BindingSlot {
	return BindingSlot{Entry: types.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: types.ShaderStageCompute,
		Buffer:     &types.BufferBindingLayout{Type: types.BufferBindingTypeStorage},
	}}
}

func newComputeSetup(t *testing.T, s *Session, bufferSize uint64) computeSetup {
	t.Helper()
	cs := computeSetup{
		buffer:   testID(0),
		layout:   testID(0),
		group:    testID(0),
		pipeline: testID(0),
	}
	if err := s.CreateBuffer(cs.buffer, &BufferDescriptor{
		Size:  bufferSize,
		Usage: types.BufferUsageStorage | types.BufferUsageCopyDst | types.BufferUsageMapRead,
	}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := s.CreateShaderModule(testID(0), &ShaderModuleDescriptor{Source: "stub"}); err != nil {
		t.Fatalf("CreateShaderModule() error = %v", err)
	}
	if err := s.CreateBindGroupLayout(cs.layout, &BindGroupLayoutDescriptor{
		Slots: []BindingSlot{storageSlot(0)},
	}); err != nil {
		t.Fatalf("CreateBindGroupLayout() error = %v", err)
	}
	if err := s.CreateBindGroup(cs.group, &BindGroupDescriptor{
		Layout:  cs.layout,
		Entries: []BufferBindingRef{{Binding: 0, Buffer: cs.buffer}},
	}); err != nil {
		t.Fatalf("CreateBindGroup() error = %v", err)
	}
	if err := s.CreatePipelineLayout(testID(0), &PipelineLayoutDescriptor{
		BindGroupLayouts: []ID{cs.layout},
	}); err != nil {
		t.Fatalf("CreatePipelineLayout() error = %v", err)
	}
	if err := s.CreateComputePipeline(cs.pipeline, &ComputePipelineDescriptor{
		Layout:     testID(0),
		Module:     testID(0),
		EntryPoint: "main",
	}); err != nil {
		t.Fatalf("CreateComputePipeline() error = %v", err)
	}
	return cs
}
