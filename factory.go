package replay

import (
	"fmt"

	"github.com/gogpu/replay/backend"
	types "github.com/gogpu/gputypes"
)

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage types.BufferUsage

	// MappedAtCreation makes the buffer immediately host-writable.
	// Content is zero-filled either way.
	MappedAtCreation bool
}

// ShaderModuleDescriptor describes a shader module to create.
type ShaderModuleDescriptor struct {
	Label  string
	Source string
}

// BindGroupLayoutDescriptor describes a bind group layout to create.
type BindGroupLayoutDescriptor struct {
	Label string
	Slots []BindingSlot
}

// BindGroupDescriptor describes a bind group to create.
type BindGroupDescriptor struct {
	Label   string
	Layout  ID
	Entries []BufferBindingRef
}

// PipelineLayoutDescriptor describes a pipeline layout to create.
type PipelineLayoutDescriptor struct {
	Label              string
	BindGroupLayouts   []ID
	PushConstantRanges []PushConstantRange
}

// ComputePipelineDescriptor describes a compute pipeline to create.
type ComputePipelineDescriptor struct {
	Label      string
	Layout     ID
	Module     ID
	EntryPoint string
}

// CreateBuffer creates a zero-filled buffer at the trace-supplied id.
func (s *Session) CreateBuffer(id ID, desc *BufferDescriptor) error {
	if s.caps.MaxBufferSize != 0 && desc.Size > s.caps.MaxBufferSize {
		return fmt.Errorf("%w: buffer size %d exceeds backend limit %d",
			ErrOutOfBounds, desc.Size, s.caps.MaxBufferSize)
	}
	buf := &Buffer{
		Label:            desc.Label,
		Size:             desc.Size,
		Usage:            desc.Usage,
		MappedAtCreation: desc.MappedAtCreation,
		content:          make([]byte, desc.Size),
	}
	if desc.MappedAtCreation {
		buf.mapped = true
	}
	if err := s.table.InsertAt(id, KindBuffer, buf); err != nil {
		return err
	}
	s.log.Debug("buffer created", "id", id.String(), "size", desc.Size, "usage", desc.Usage)
	return nil
}

// CreateShaderModule compiles WGSL eagerly through the backend and
// registers the module at the trace-supplied id.
func (s *Session) CreateShaderModule(id ID, desc *ShaderModuleDescriptor) error {
	shader, err := s.backend.CompileShader(&backend.ShaderDescriptor{
		Label:  desc.Label,
		Source: desc.Source,
	})
	if err != nil {
		return fmt.Errorf("replay: shader module %s: %w", id, err)
	}
	mod := &ShaderModule{Label: desc.Label, Source: desc.Source, shader: shader}
	if err := s.table.InsertAt(id, KindShaderModule, mod); err != nil {
		return err
	}
	s.log.Debug("shader module created", "id", id.String(), "label", desc.Label)
	return nil
}

// CreateBindGroupLayout registers a bind group layout at the
// trace-supplied id. Binding indexes must be unique within the layout.
func (s *Session) CreateBindGroupLayout(id ID, desc *BindGroupLayoutDescriptor) error {
	seen := make(map[uint32]bool, len(desc.Slots))
	for i := range desc.Slots {
		b := desc.Slots[i].Entry.Binding
		if seen[b] {
			return fmt.Errorf("%w: layout %s repeats binding %d", ErrBindGroupMismatch, id, b)
		}
		seen[b] = true
	}
	layout := &BindGroupLayout{Label: desc.Label, Slots: desc.Slots}
	return s.table.InsertAt(id, KindBindGroupLayout, layout)
}

// CreateBindGroup validates every entry against its layout slot and
// registers the group at the trace-supplied id.
func (s *Session) CreateBindGroup(id ID, desc *BindGroupDescriptor) error {
	layout, err := s.table.BindGroupLayout(desc.Layout)
	if err != nil {
		return fmt.Errorf("%w: bind group %s layout: %w", ErrDanglingReference, id, err)
	}
	if len(desc.Entries) != len(layout.Slots) {
		return fmt.Errorf("%w: bind group %s has %d entries, layout %s has %d slots",
			ErrBindGroupMismatch, id, len(desc.Entries), desc.Layout, len(layout.Slots))
	}
	for i := range desc.Entries {
		e := &desc.Entries[i]
		slot, ok := layout.Slot(e.Binding)
		if !ok {
			return fmt.Errorf("%w: bind group %s binds slot %d absent from layout",
				ErrBindGroupMismatch, id, e.Binding)
		}
		if err := s.validateBufferEntry(e, slot); err != nil {
			return fmt.Errorf("bind group %s binding %d: %w", id, e.Binding, err)
		}
	}
	group := &BindGroup{Label: desc.Label, Layout: desc.Layout, Entries: desc.Entries}
	return s.table.InsertAt(id, KindBindGroup, group)
}

// validateBufferEntry checks type compatibility, usage, bounds and the
// layout's minimum binding size for one bind group entry.
func (s *Session) validateBufferEntry(e *BufferBindingRef, slot *BindingSlot) error {
	if slot.Entry.Buffer == nil {
		return fmt.Errorf("%w: layout slot is not a buffer binding", ErrBindGroupMismatch)
	}
	buf, err := s.table.Buffer(e.Buffer)
	if err != nil {
		return err
	}
	switch slot.Entry.Buffer.Type {
	case types.BufferBindingTypeUniform:
		if !buf.HasUsage(types.BufferUsageUniform) {
			return fmt.Errorf("%w: uniform binding needs UNIFORM usage", ErrCapabilityMissing)
		}
	case types.BufferBindingTypeStorage, types.BufferBindingTypeReadOnlyStorage:
		if !buf.HasUsage(types.BufferUsageStorage) {
			return fmt.Errorf("%w: storage binding needs STORAGE usage", ErrCapabilityMissing)
		}
	default:
		return fmt.Errorf("%w: unsupported buffer binding type %v",
			ErrBindGroupMismatch, slot.Entry.Buffer.Type)
	}
	if e.Offset > buf.Size {
		return fmt.Errorf("%w: offset %d exceeds capacity %d", ErrOutOfBounds, e.Offset, buf.Size)
	}
	window := e.Size
	if window == 0 {
		window = buf.Size - e.Offset
	}
	if e.Offset+window > buf.Size {
		return fmt.Errorf("%w: range [%d, %d) exceeds capacity %d",
			ErrOutOfBounds, e.Offset, e.Offset+window, buf.Size)
	}
	if min := slot.Entry.Buffer.MinBindingSize; min != 0 && window < min {
		return fmt.Errorf("%w: bound size %d below minimum binding size %d",
			ErrBindGroupMismatch, window, min)
	}
	return nil
}

// CreatePipelineLayout registers a pipeline layout at the trace-supplied
// id. Every referenced bind group layout must exist.
func (s *Session) CreatePipelineLayout(id ID, desc *PipelineLayoutDescriptor) error {
	for _, bgl := range desc.BindGroupLayouts {
		if _, err := s.table.BindGroupLayout(bgl); err != nil {
			return fmt.Errorf("%w: pipeline layout %s: %w", ErrDanglingReference, id, err)
		}
	}
	layout := &PipelineLayout{
		Label:              desc.Label,
		BindGroupLayouts:   desc.BindGroupLayouts,
		PushConstantRanges: desc.PushConstantRanges,
	}
	return s.table.InsertAt(id, KindPipelineLayout, layout)
}

// CreateComputePipeline resolves the referenced layout and module eagerly
// and registers the pipeline at the trace-supplied id.
func (s *Session) CreateComputePipeline(id ID, desc *ComputePipelineDescriptor) error {
	if _, err := s.table.PipelineLayout(desc.Layout); err != nil {
		return fmt.Errorf("%w: compute pipeline %s layout: %w", ErrDanglingReference, id, err)
	}
	mod, err := s.table.ShaderModule(desc.Module)
	if err != nil {
		return fmt.Errorf("%w: compute pipeline %s module: %w", ErrDanglingReference, id, err)
	}
	ep, ok := mod.shader.EntryPoint(desc.EntryPoint)
	if !ok {
		return fmt.Errorf("%w: compute pipeline %s: %q not in module %s",
			backend.ErrUnknownEntryPoint, id, desc.EntryPoint, desc.Module)
	}
	pipe := &ComputePipeline{
		Label:      desc.Label,
		Layout:     desc.Layout,
		Module:     desc.Module,
		EntryPoint: desc.EntryPoint,
		shader:     mod.shader,
		workgroup:  ep.Workgroup,
	}
	if err := s.table.InsertAt(id, KindComputePipeline, pipe); err != nil {
		return err
	}
	s.log.Debug("compute pipeline created", "id", id.String(), "entry", desc.EntryPoint)
	return nil
}

// DestroyBuffer frees a buffer's content and bumps its slot epoch,
// invalidating every outstanding id that references the old epoch.
func (s *Session) DestroyBuffer(id ID) error {
	return s.table.Destroy(id, KindBuffer)
}
