package replay

import (
	"github.com/gogpu/replay/backend"
	types "github.com/gogpu/gputypes"
)

// SubmissionIndex is a monotonically increasing identifier assigned at each
// submission. Host-visible effects are ordered by it: a map request issued
// after submission N observes all effects of submissions up to N and none
// of any later submission.
type SubmissionIndex uint64

// Buffer is a replayed GPU buffer. Content is owned byte storage, always
// exactly Size bytes long and zero-initialized at creation, so an
// unwritten byte reads 0 whether it is observed through a host mapping or
// through a GPU-side binding.
type Buffer struct {
	// Label is an optional debug label from the descriptor.
	Label string

	// Size is the byte capacity.
	Size uint64

	// Usage is the capability bitmask the buffer was created with.
	Usage types.BufferUsage

	// MappedAtCreation marks buffers that start out host-writable.
	MappedAtCreation bool

	content []byte

	// mapped tracks current host visibility (mapped-at-creation until
	// Unmap). A mapped buffer accepts host writes even without the
	// copy-destination usage bit.
	mapped bool
}

// HasUsage reports whether every bit of u is present in the usage mask.
func (b *Buffer) HasUsage(u types.BufferUsage) bool {
	return b.Usage&u == u
}

// Mapped reports whether the buffer is currently host-visible.
func (b *Buffer) Mapped() bool { return b.mapped }

// bytes returns the owned content. Callers must respect the serialization
// rule: only the upload engine and dispatch execution mutate it.
func (b *Buffer) bytes() []byte { return b.content }

// ShaderModule is an eagerly compiled shader program. The compiled form is
// backend-owned; the engine keeps only the opaque handle.
type ShaderModule struct {
	// Label is an optional debug label from the descriptor.
	Label string

	// Source is the WGSL source the module was compiled from.
	Source string

	shader backend.Shader
}

// BindingSlot is one slot descriptor of a bind group layout: the wire
// vocabulary entry plus the replay-level attributes the recorded API keeps
// alongside it.
type BindingSlot struct {
	// Entry is the binding index, stage visibility and buffer binding
	// layout (type, minimum binding size).
	Entry types.BindGroupLayoutEntry

	// HasDynamicOffset marks slots whose byte offset is supplied per
	// dispatch rather than at bind group creation.
	HasDynamicOffset bool

	// Count is the array size for array bindings; 0 for single bindings.
	Count uint32
}

// BindGroupLayout is an ordered sequence of binding slot descriptors.
type BindGroupLayout struct {
	Label string
	Slots []BindingSlot
}

// Slot returns the descriptor for a binding index.
func (l *BindGroupLayout) Slot(binding uint32) (*BindingSlot, bool) {
	for i := range l.Slots {
		if l.Slots[i].Entry.Binding == binding {
			return &l.Slots[i], true
		}
	}
	return nil, false
}

// DynamicSlotCount returns the number of slots with dynamic offsets.
func (l *BindGroupLayout) DynamicSlotCount() int {
	n := 0
	for i := range l.Slots {
		if l.Slots[i].HasDynamicOffset {
			n++
		}
	}
	return n
}

// BufferBindingRef is one bind group entry: a buffer resolved through the
// handle table plus the byte window to bind.
type BufferBindingRef struct {
	// Binding is the layout slot index this entry satisfies.
	Binding uint32

	// Buffer references the bound buffer.
	Buffer ID

	// Offset is the byte offset into the buffer.
	Offset uint64

	// Size is the bound window length; 0 binds the rest of the buffer.
	Size uint64
}

// BindGroup is a layout reference plus one resource entry per layout slot.
// Entries were validated against the layout at creation; buffer ids are
// still re-resolved at dispatch time so a destroyed buffer surfaces as a
// stale handle, never as a dangling pointer.
type BindGroup struct {
	Label   string
	Layout  ID
	Entries []BufferBindingRef
}

// Entry returns the bind group entry for a binding index.
func (g *BindGroup) Entry(binding uint32) (*BufferBindingRef, bool) {
	for i := range g.Entries {
		if g.Entries[i].Binding == binding {
			return &g.Entries[i], true
		}
	}
	return nil, false
}

// PushConstantRange is a byte range of push constant space visible to a
// set of pipeline stages.
type PushConstantRange struct {
	Stages types.ShaderStage
	Start  uint32
	End    uint32
}

// PipelineLayout is an ordered sequence of bind group layout references
// plus push constant ranges.
type PipelineLayout struct {
	Label              string
	BindGroupLayouts   []ID
	PushConstantRanges []PushConstantRange
}

// ComputePipeline couples a pipeline layout, a shader module and an entry
// point name. Both references were resolved eagerly at creation, and the
// entry point is known to exist in the compiled module.
type ComputePipeline struct {
	Label      string
	Layout     ID
	Module     ID
	EntryPoint string

	shader    backend.Shader
	workgroup [3]uint32
}

// Workgroup returns the workgroup size declared by the entry point.
func (p *ComputePipeline) Workgroup() [3]uint32 { return p.workgroup }
