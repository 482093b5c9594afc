package replay

import (
	"fmt"

	"github.com/gogpu/replay/backend"
	types "github.com/gogpu/gputypes"
)

// passState is the binding state of one command list during execution.
type passState struct {
	pipeline *ComputePipeline
	bound    map[uint32]*boundGroup
}

// boundGroup is a bind group bound to a slot, with the dynamic offsets
// supplied at bind time.
type boundGroup struct {
	id             ID
	group          *BindGroup
	dynamicOffsets []uint32
}

// Submit commits command lists as one atomic unit.
//
// It assigns the next submission index, applies pending queued uploads,
// then applies every recorded command's effects in list order and
// intra-list command order, and finally marks the index complete.
// Submissions are serialized; there is no overlap within a session.
//
// The first failing command aborts the whole submission and is reported;
// prior submissions remain committed. Effects already applied by the
// failing submission, flushed queued uploads and earlier commands, are
// not rolled back: the failed index never completes, so no readback can
// observe them, and a replay stops at the first structural error.
func (s *Session) Submit(lists []*CommandList) (SubmissionIndex, error) {
	for _, l := range lists {
		if l.consumed {
			return 0, fmt.Errorf("%w: %q", ErrListConsumed, l.Label)
		}
	}
	index := s.lastIssued + 1
	s.lastIssued = index

	if err := s.flushQueued(); err != nil {
		return 0, err
	}
	for li, l := range lists {
		st := &passState{bound: make(map[uint32]*boundGroup)}
		for ci, cmd := range l.commands {
			if err := s.apply(st, cmd); err != nil {
				return 0, fmt.Errorf("replay: submission %d list %d command %d (%s): %w",
					index, li, ci, cmd.Type(), err)
			}
		}
		l.consumed = true
	}
	s.lastDone = index
	s.log.Debug("submission complete", "index", uint64(index), "lists", len(lists))
	return index, nil
}

// SubmitChecked is Submit plus drift detection: recorded traces carry the
// submission index the original run produced, and replay must generate the
// identical sequence or the fixture's expectations are meaningless.
func (s *Session) SubmitChecked(expected SubmissionIndex, lists []*CommandList) (SubmissionIndex, error) {
	index, err := s.Submit(lists)
	if err != nil {
		return 0, err
	}
	if index != expected {
		return 0, fmt.Errorf("%w: fixture says %d, engine generated %d",
			ErrSubmissionDrift, expected, index)
	}
	return index, nil
}

// apply executes one command against the per-list binding state.
func (s *Session) apply(st *passState, cmd Command) error {
	switch c := cmd.(type) {
	case SetPipelineCommand:
		pipe, err := s.table.ComputePipeline(c.Pipeline)
		if err != nil {
			return err
		}
		st.pipeline = pipe
		return nil

	case SetBindGroupCommand:
		group, err := s.table.BindGroup(c.Group)
		if err != nil {
			return err
		}
		layout, err := s.table.BindGroupLayout(group.Layout)
		if err != nil {
			return err
		}
		if want := layout.DynamicSlotCount(); len(c.DynamicOffsets) != want {
			return fmt.Errorf("%w: %d dynamic offsets for %d dynamic slots",
				ErrBindGroupMismatch, len(c.DynamicOffsets), want)
		}
		st.bound[c.Slot] = &boundGroup{id: c.Group, group: group, dynamicOffsets: c.DynamicOffsets}
		return nil

	case DispatchCommand:
		return s.dispatch(st, c)

	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, cmd)
	}
}

// dispatch validates the fully-bound state against the pipeline layout,
// flattens every bound buffer range into byte windows and hands the call
// to the backend executor.
func (s *Session) dispatch(st *passState, cmd DispatchCommand) error {
	if st.pipeline == nil {
		return ErrUnboundPipeline
	}
	if max := s.caps.MaxWorkgroupsPerDimension; max != 0 {
		for _, n := range cmd.Groups {
			if n > max {
				return fmt.Errorf("%w: workgroup count %d exceeds backend limit %d",
					ErrOutOfBounds, n, max)
			}
		}
	}
	layout, err := s.table.PipelineLayout(st.pipeline.Layout)
	if err != nil {
		return err
	}

	var bindings []backend.Binding
	for slot, bglID := range layout.BindGroupLayouts {
		bound, ok := st.bound[uint32(slot)]
		if !ok {
			return fmt.Errorf("%w: group slot %d", ErrUnboundBindGroup, slot)
		}
		if bound.group.Layout != bglID {
			return fmt.Errorf("%w: group slot %d uses layout %s, pipeline expects %s",
				ErrUnboundBindGroup, slot, bound.group.Layout, bglID)
		}
		bgl, err := s.table.BindGroupLayout(bglID)
		if err != nil {
			return err
		}
		slotBindings, err := s.flattenGroup(uint32(slot), bound, bgl)
		if err != nil {
			return err
		}
		bindings = append(bindings, slotBindings...)
	}

	call := &backend.DispatchCall{
		Shader:     st.pipeline.shader,
		EntryPoint: st.pipeline.EntryPoint,
		Groups:     cmd.Groups,
		Bindings:   bindings,
		Label:      st.pipeline.Label,
	}
	if err := s.backend.Dispatch(call); err != nil {
		return fmt.Errorf("replay: dispatch %v: %w", cmd.Groups, err)
	}
	return nil
}

// flattenGroup resolves one bound group into backend byte windows.
// Buffers are re-resolved here so a destroy after bind group creation
// fails as a stale handle. Dynamic offsets are consumed in slot order.
func (s *Session) flattenGroup(slot uint32, bound *boundGroup, bgl *BindGroupLayout) ([]backend.Binding, error) {
	bindings := make([]backend.Binding, 0, len(bgl.Slots))
	dyn := bound.dynamicOffsets
	for i := range bgl.Slots {
		ls := &bgl.Slots[i]
		entry, ok := bound.group.Entry(ls.Entry.Binding)
		if !ok {
			return nil, fmt.Errorf("%w: group %s missing binding %d",
				ErrBindGroupMismatch, bound.id, ls.Entry.Binding)
		}
		buf, err := s.table.Buffer(entry.Buffer)
		if err != nil {
			return nil, err
		}
		offset := entry.Offset
		if ls.HasDynamicOffset {
			offset += uint64(dyn[0])
			dyn = dyn[1:]
		}
		window := entry.Size
		if window == 0 {
			if offset > buf.Size {
				return nil, fmt.Errorf("%w: dynamic offset pushes binding %d past capacity",
					ErrOutOfBounds, ls.Entry.Binding)
			}
			window = buf.Size - offset
		}
		if offset+window > buf.Size {
			return nil, fmt.Errorf("%w: binding %d range [%d, %d) exceeds capacity %d",
				ErrOutOfBounds, ls.Entry.Binding, offset, offset+window, buf.Size)
		}
		bindings = append(bindings, backend.Binding{
			Group:    slot,
			Binding:  ls.Entry.Binding,
			ReadOnly: ls.Entry.Buffer.Type == types.BufferBindingTypeReadOnlyStorage,
			Uniform:  ls.Entry.Buffer.Type == types.BufferBindingTypeUniform,
			Data:     buf.bytes()[offset : offset+window],
		})
	}
	return bindings, nil
}
