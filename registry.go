package replay

import "fmt"

// slot is one entry of a handle arena. epoch counts how many generations
// the slot has seen; live marks whether the current generation holds a
// resource. A dead slot with epoch > 0 was destroyed, a dead slot with
// epoch == 0 was never created.
type slot struct {
	epoch uint32
	live  bool
	res   any
}

// arena is a flat slot array plus a free list of recyclable indexes.
// Raw slot references never escape; callers only ever see (index, epoch)
// value pairs.
type arena struct {
	slots []slot
	free  []uint32
}

// Table is the handle table: one generational arena per resource kind.
// It is the single source of mutable resource state in a replay session.
// All components resolve through it; none stores a direct resource
// reference across a potential destroy boundary.
//
// Table is not safe for concurrent use. A replay session is a single
// logical thread of control, so no locking is needed (see Session).
type Table struct {
	arenas [kindCount]arena
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{}
}

// InsertAt places a resource at exactly the given id, the way a recorded
// trace demands: traces are pre-recorded with fixed ids, so the table must
// accept them rather than hand out its own.
//
// Fails with ErrDuplicateHandle if the slot is live, and ErrStaleHandle if
// the slot's epoch has already moved past the id's epoch.
func (t *Table) InsertAt(id ID, kind Kind, res any) error {
	a := &t.arenas[kind]
	for uint32(len(a.slots)) <= id.Index {
		a.slots = append(a.slots, slot{})
	}
	s := &a.slots[id.Index]
	if s.live {
		return fmt.Errorf("%w: %s %s", ErrDuplicateHandle, kind, id)
	}
	if id.Epoch < s.epoch {
		return fmt.Errorf("%w: %s %s (slot epoch %d)", ErrStaleHandle, kind, id, s.epoch)
	}
	s.epoch = id.Epoch
	s.live = true
	s.res = res
	return nil
}

// Allocate reserves a fresh (index, epoch) pair for a resource, reusing a
// freed index if one is available. The slot's epoch was already bumped by
// Destroy, so reuse hands out the slot's current generation. Used for
// engine-driven creation; trace-driven creation goes through InsertAt.
func (t *Table) Allocate(kind Kind, tag Tag, res any) ID {
	a := &t.arenas[kind]
	for len(a.free) > 0 {
		idx := a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
		s := &a.slots[idx]
		if s.live {
			continue
		}
		s.live = true
		s.res = res
		return ID{Index: idx, Epoch: s.epoch, Backend: tag}
	}
	a.slots = append(a.slots, slot{epoch: 1, live: true, res: res})
	return ID{Index: uint32(len(a.slots) - 1), Epoch: 1, Backend: tag}
}

// Resolve returns the live resource for an id. Fails with ErrUnknownHandle
// for a slot that never held a resource and ErrStaleHandle when the epoch
// does not match the slot's current generation.
func (t *Table) Resolve(id ID, kind Kind) (any, error) {
	a := &t.arenas[kind]
	if id.Index >= uint32(len(a.slots)) {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownHandle, kind, id)
	}
	s := &a.slots[id.Index]
	if !s.live {
		if s.epoch == 0 {
			return nil, fmt.Errorf("%w: %s %s", ErrUnknownHandle, kind, id)
		}
		return nil, fmt.Errorf("%w: %s %s was destroyed", ErrStaleHandle, kind, id)
	}
	if s.epoch != id.Epoch {
		return nil, fmt.Errorf("%w: %s %s (slot epoch %d)", ErrStaleHandle, kind, id, s.epoch)
	}
	return s.res, nil
}

// Destroy removes the resource at id and bumps the slot into its next
// generation immediately. Every outstanding ID referencing the old epoch
// is invalidated at once: neither Resolve nor InsertAt can touch the old
// (index, epoch) again, even before the index is reused.
func (t *Table) Destroy(id ID, kind Kind) error {
	if _, err := t.Resolve(id, kind); err != nil {
		return err
	}
	a := &t.arenas[kind]
	s := &a.slots[id.Index]
	s.epoch++
	s.live = false
	s.res = nil
	a.free = append(a.free, id.Index)
	return nil
}

// Typed accessors. Resolution and the type assertion are kept together so
// no caller ever handles an untyped resource.

// Buffer resolves id as a buffer.
func (t *Table) Buffer(id ID) (*Buffer, error) {
	res, err := t.Resolve(id, KindBuffer)
	if err != nil {
		return nil, err
	}
	b, ok := res.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %T", ErrKindMismatch, id, res)
	}
	return b, nil
}

// ShaderModule resolves id as a shader module.
func (t *Table) ShaderModule(id ID) (*ShaderModule, error) {
	res, err := t.Resolve(id, KindShaderModule)
	if err != nil {
		return nil, err
	}
	m, ok := res.(*ShaderModule)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %T", ErrKindMismatch, id, res)
	}
	return m, nil
}

// BindGroupLayout resolves id as a bind group layout.
func (t *Table) BindGroupLayout(id ID) (*BindGroupLayout, error) {
	res, err := t.Resolve(id, KindBindGroupLayout)
	if err != nil {
		return nil, err
	}
	l, ok := res.(*BindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %T", ErrKindMismatch, id, res)
	}
	return l, nil
}

// BindGroup resolves id as a bind group.
func (t *Table) BindGroup(id ID) (*BindGroup, error) {
	res, err := t.Resolve(id, KindBindGroup)
	if err != nil {
		return nil, err
	}
	g, ok := res.(*BindGroup)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %T", ErrKindMismatch, id, res)
	}
	return g, nil
}

// PipelineLayout resolves id as a pipeline layout.
func (t *Table) PipelineLayout(id ID) (*PipelineLayout, error) {
	res, err := t.Resolve(id, KindPipelineLayout)
	if err != nil {
		return nil, err
	}
	l, ok := res.(*PipelineLayout)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %T", ErrKindMismatch, id, res)
	}
	return l, nil
}

// ComputePipeline resolves id as a compute pipeline.
func (t *Table) ComputePipeline(id ID) (*ComputePipeline, error) {
	res, err := t.Resolve(id, KindComputePipeline)
	if err != nil {
		return nil, err
	}
	p, ok := res.(*ComputePipeline)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %T", ErrKindMismatch, id, res)
	}
	return p, nil
}
