package replay

import (
	"errors"
	"testing"

	"github.com/gogpu/replay/backend"
	types "github.com/gogpu/gputypes"
)

// ==============================
// Submission bookkeeping
// ==============================

func TestSubmitIndexesAreMonotonic(t *testing.T) {
	s := NewSession(newStubBackend())
	for want := SubmissionIndex(1); want <= 3; want++ {
		got, err := s.Submit(nil)
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if got != want {
			t.Errorf("Submit() index = %d, want %d", got, want)
		}
	}
	if s.LastSubmission() != 3 {
		t.Errorf("LastSubmission() = %d, want 3", s.LastSubmission())
	}
}

func TestSubmitChecked(t *testing.T) {
	s := NewSession(newStubBackend())
	if _, err := s.SubmitChecked(1, nil); err != nil {
		t.Fatalf("SubmitChecked(1) error = %v", err)
	}
	// A fixture index that disagrees with the engine's own counter is
	// drift, even though the submission itself succeeded.
	if _, err := s.SubmitChecked(5, nil); !errors.Is(err, ErrSubmissionDrift) {
		t.Errorf("SubmitChecked(5) error = %v, want ErrSubmissionDrift", err)
	}
}

func TestSubmitConsumesList(t *testing.T) {
	s := NewSession(newStubBackend())
	newComputeSetup(t, s, 16)
	list := NewCommandList("once")
	list.SetPipeline(testID(0))
	if _, err := s.Submit([]*CommandList{list}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := s.Submit([]*CommandList{list}); !errors.Is(err, ErrListConsumed) {
		t.Errorf("second Submit() error = %v, want ErrListConsumed", err)
	}
}

// ==============================
// Dispatch validation
// ==============================

func TestDispatchRequiresPipeline(t *testing.T) {
	s := NewSession(newStubBackend())
	list := NewCommandList("")
	list.Dispatch(1, 1, 1)
	if _, err := s.Submit([]*CommandList{list}); !errors.Is(err, ErrUnboundPipeline) {
		t.Errorf("Submit() error = %v, want ErrUnboundPipeline", err)
	}
}

func TestDispatchRequiresBindGroup(t *testing.T) {
	s := NewSession(newStubBackend())
	newComputeSetup(t, s, 16)
	list := NewCommandList("")
	list.SetPipeline(testID(0))
	list.Dispatch(1, 1, 1)
	if _, err := s.Submit([]*CommandList{list}); !errors.Is(err, ErrUnboundBindGroup) {
		t.Errorf("Submit() error = %v, want ErrUnboundBindGroup", err)
	}
}

func TestDispatchLayoutMismatch(t *testing.T) {
	s := NewSession(newStubBackend())
	newComputeSetup(t, s, 16)
	// A second layout structurally identical to the pipeline's is still
	// the wrong layout: compatibility is by identity.
	other := testID(1)
	if err := s.CreateBindGroupLayout(other, &BindGroupLayoutDescriptor{
		Slots: []BindingSlot{storageSlot(0)},
	}); err != nil {
		t.Fatalf("CreateBindGroupLayout() error = %v", err)
	}
	group := testID(1)
	if err := s.CreateBindGroup(group, &BindGroupDescriptor{
		Layout:  other,
		Entries: []BufferBindingRef{{Binding: 0, Buffer: testID(0)}},
	}); err != nil {
		t.Fatalf("CreateBindGroup() error = %v", err)
	}

	list := NewCommandList("")
	list.SetPipeline(testID(0))
	list.SetBindGroup(0, group, nil)
	list.Dispatch(1, 1, 1)
	if _, err := s.Submit([]*CommandList{list}); !errors.Is(err, ErrUnboundBindGroup) {
		t.Errorf("Submit() error = %v, want ErrUnboundBindGroup", err)
	}
}

func TestDispatchWorkgroupLimit(t *testing.T) {
	b := newStubBackend()
	b.caps.MaxWorkgroupsPerDimension = 8
	s := NewSession(b)
	cs := newComputeSetup(t, s, 16)
	list := NewCommandList("")
	list.SetPipeline(cs.pipeline)
	list.SetBindGroup(0, cs.group, nil)
	list.Dispatch(9, 1, 1)
	if _, err := s.Submit([]*CommandList{list}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Submit() error = %v, want ErrOutOfBounds", err)
	}
}

func TestDispatchStaleBufferAtSubmit(t *testing.T) {
	s := NewSession(newStubBackend())
	cs := newComputeSetup(t, s, 16)
	// Destroying the buffer after bind group creation must fail the
	// dispatch, not silently read freed memory.
	if err := s.DestroyBuffer(cs.buffer); err != nil {
		t.Fatalf("DestroyBuffer() error = %v", err)
	}
	list := NewCommandList("")
	list.SetPipeline(cs.pipeline)
	list.SetBindGroup(0, cs.group, nil)
	list.Dispatch(1, 1, 1)
	if _, err := s.Submit([]*CommandList{list}); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Submit() error = %v, want ErrStaleHandle", err)
	}
}

func TestDispatchFlattensBindings(t *testing.T) {
	b := newStubBackend()
	s := NewSession(b)
	cs := newComputeSetup(t, s, 32)
	list := NewCommandList("")
	list.SetPipeline(cs.pipeline)
	list.SetBindGroup(0, cs.group, nil)
	list.Dispatch(2, 1, 1)
	if _, err := s.Submit([]*CommandList{list}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(b.dispatches) != 1 {
		t.Fatalf("backend saw %d dispatches, want 1", len(b.dispatches))
	}
	call := b.dispatches[0]
	if call.Groups != [3]uint32{2, 1, 1} {
		t.Errorf("Groups = %v, want [2 1 1]", call.Groups)
	}
	bind, ok := call.FindBinding(0, 0)
	if !ok {
		t.Fatal("FindBinding(0, 0) not found")
	}
	if len(bind.Data) != 32 {
		t.Errorf("binding window = %d bytes, want 32", len(bind.Data))
	}
}

func TestDispatchBackendWritesVisible(t *testing.T) {
	b := newStubBackend()
	b.onDispatch = func(call *backend.DispatchCall) error {
		// Model a shader that fills its storage binding.
		for i := range call.Bindings[0].Data {
			call.Bindings[0].Data[i] = 0xab
		}
		return nil
	}
	s := NewSession(b)
	cs := newComputeSetup(t, s, 16)
	list := NewCommandList("")
	list.SetPipeline(cs.pipeline)
	list.SetBindGroup(0, cs.group, nil)
	list.Dispatch(1, 1, 1)
	if _, err := s.Submit([]*CommandList{list}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	got, err := s.MapRead(cs.buffer, 0, 16)
	if err != nil {
		t.Fatalf("MapRead() error = %v", err)
	}
	for i, v := range got {
		if v != 0xab {
			t.Fatalf("byte %d = %#02x, want 0xab", i, v)
		}
	}
}

// ==============================
// Dynamic offsets
// ==============================

func TestSetBindGroupDynamicOffsets(t *testing.T) {
	s := NewSession(newStubBackend())
	if err := s.CreateBuffer(testID(0), &BufferDescriptor{
		Size:  64,
		Usage: types.BufferUsageStorage,
	}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	slot := storageSlot(0)
	slot.HasDynamicOffset = true
	if err := s.CreateBindGroupLayout(testID(0), &BindGroupLayoutDescriptor{
		Slots: []BindingSlot{slot},
	}); err != nil {
		t.Fatalf("CreateBindGroupLayout() error = %v", err)
	}
	if err := s.CreateBindGroup(testID(0), &BindGroupDescriptor{
		Layout:  testID(0),
		Entries: []BufferBindingRef{{Binding: 0, Buffer: testID(0), Size: 16}},
	}); err != nil {
		t.Fatalf("CreateBindGroup() error = %v", err)
	}

	list := NewCommandList("")
	list.SetBindGroup(0, testID(0), nil)
	if _, err := s.Submit([]*CommandList{list}); !errors.Is(err, ErrBindGroupMismatch) {
		t.Errorf("Submit() without offsets error = %v, want ErrBindGroupMismatch", err)
	}
}

func TestDispatchAppliesDynamicOffset(t *testing.T) {
	b := newStubBackend()
	b.onDispatch = func(call *backend.DispatchCall) error {
		for i := range call.Bindings[0].Data {
			call.Bindings[0].Data[i] = 0x7f
		}
		return nil
	}
	s := NewSession(b)
	if err := s.CreateBuffer(testID(0), &BufferDescriptor{
		Size:  64,
		Usage: types.BufferUsageStorage | types.BufferUsageMapRead,
	}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := s.CreateShaderModule(testID(0), &ShaderModuleDescriptor{Source: "stub"}); err != nil {
		t.Fatalf("CreateShaderModule() error = %v", err)
	}
	slot := storageSlot(0)
	slot.HasDynamicOffset = true
	if err := s.CreateBindGroupLayout(testID(0), &BindGroupLayoutDescriptor{
		Slots: []BindingSlot{slot},
	}); err != nil {
		t.Fatalf("CreateBindGroupLayout() error = %v", err)
	}
	if err := s.CreateBindGroup(testID(0), &BindGroupDescriptor{
		Layout:  testID(0),
		Entries: []BufferBindingRef{{Binding: 0, Buffer: testID(0), Size: 16}},
	}); err != nil {
		t.Fatalf("CreateBindGroup() error = %v", err)
	}
	if err := s.CreatePipelineLayout(testID(0), &PipelineLayoutDescriptor{
		BindGroupLayouts: []ID{testID(0)},
	}); err != nil {
		t.Fatalf("CreatePipelineLayout() error = %v", err)
	}
	if err := s.CreateComputePipeline(testID(0), &ComputePipelineDescriptor{
		Layout:     testID(0),
		Module:     testID(0),
		EntryPoint: "main",
	}); err != nil {
		t.Fatalf("CreateComputePipeline() error = %v", err)
	}

	list := NewCommandList("")
	list.SetPipeline(testID(0))
	list.SetBindGroup(0, testID(0), []uint32{32})
	list.Dispatch(1, 1, 1)
	if _, err := s.Submit([]*CommandList{list}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	bind, ok := b.dispatches[0].FindBinding(0, 0)
	if !ok {
		t.Fatal("FindBinding(0, 0) not found")
	}
	if len(bind.Data) != 16 {
		t.Errorf("binding window = %d bytes, want 16", len(bind.Data))
	}

	// The backend's writes landed at the dynamic offset, not at zero.
	head, err := s.MapRead(testID(0), 0, 16)
	if err != nil {
		t.Fatalf("MapRead() error = %v", err)
	}
	window, err := s.MapRead(testID(0), 32, 16)
	if err != nil {
		t.Fatalf("MapRead() error = %v", err)
	}
	for i := range head {
		if head[i] != 0 {
			t.Fatalf("byte %d before window = %#02x, want 0", i, head[i])
		}
		if window[i] != 0x7f {
			t.Fatalf("byte %d in window = %#02x, want 0x7f", i, window[i])
		}
	}
}
