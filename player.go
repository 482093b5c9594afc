package replay

import (
	"fmt"

	"github.com/gogpu/replay/backend"
	"github.com/gogpu/replay/fixture"
	types "github.com/gogpu/gputypes"
)

// Report is the outcome of replaying one fixture.
type Report struct {
	// Backend names the executing backend.
	Backend string

	// Skipped is set when the feature gate rejected the fixture. A skip
	// is neither a pass nor a failure.
	Skipped bool

	// MissingFeatures lists the capabilities that caused a skip.
	MissingFeatures []string

	// Results holds one entry per expectation, in fixture order.
	Results []ExpectationResult
}

// Passed reports whether the fixture ran and every expectation held.
func (r *Report) Passed() bool {
	if r.Skipped {
		return false
	}
	for i := range r.Results {
		if !r.Results[i].Passed() {
			return false
		}
	}
	return true
}

// Player replays fixtures against a backend.
//
// The zero Loader is fine for fixtures with only inline payloads; set one
// to resolve {blob: name} references.
type Player struct {
	// Loader resolves named blobs referenced by fixtures.
	Loader fixture.Loader

	backend backend.Backend
}

// NewPlayer creates a player. A nil backend selects the registry default;
// ErrBackendNotAvailable when none is registered.
func NewPlayer(b backend.Backend) (*Player, error) {
	if b == nil {
		b = backend.Default()
	}
	if b == nil {
		return nil, backend.ErrBackendNotAvailable
	}
	return &Player{backend: b}, nil
}

// Backend returns the executing backend.
func (p *Player) Backend() backend.Backend { return p.backend }

// Run replays a fixture and verifies its expectations.
//
// The feature gate runs first: a fixture requiring a capability the
// backend lacks is skipped, reported as neither pass nor failure. Actions
// are applied strictly in file order; the first structural error aborts
// the whole run. Expectation mismatches never abort: they are collected
// in the report.
func (p *Player) Run(fix *fixture.Fixture) (*Report, error) {
	report := &Report{Backend: p.backend.Name()}
	if missing := Missing(fix.Features, p.backend.Capabilities()); len(missing) > 0 {
		Logger().Info("fixture skipped", "backend", p.backend.Name(), "missing", missing)
		report.Skipped = true
		report.MissingFeatures = missing
		return report, nil
	}

	s := NewSession(p.backend)
	for i, act := range fix.Actions {
		if err := p.apply(s, act); err != nil {
			return nil, fmt.Errorf("replay: action %d (%s): %w", i, act.Tag(), err)
		}
	}

	exps := make([]Expectation, 0, len(fix.Expectations))
	for i := range fix.Expectations {
		e := &fix.Expectations[i]
		id, err := resourceID(e.Buffer)
		if err != nil {
			return nil, fmt.Errorf("replay: expectation %q: %w", e.Name, err)
		}
		data, err := e.Data.Resolve(p.Loader)
		if err != nil {
			return nil, fmt.Errorf("replay: expectation %q: %w", e.Name, err)
		}
		exps = append(exps, Expectation{Name: e.Name, Buffer: id, Offset: e.Offset, Data: data})
	}
	results, err := s.Verify(exps)
	if err != nil {
		return nil, err
	}
	report.Results = results
	return report, nil
}

// apply translates one fixture action into engine calls. The dispatch is
// exhaustive over the action vocabulary; a variant added to the fixture
// package without a case here fails fast instead of being skipped.
func (p *Player) apply(s *Session, act fixture.Action) error {
	switch a := act.(type) {
	case fixture.CreateBuffer:
		id, err := resourceID(a.ID)
		if err != nil {
			return err
		}
		usage, err := usageFromNames(a.Usage)
		if err != nil {
			return err
		}
		return s.CreateBuffer(id, &BufferDescriptor{
			Label:            a.Label,
			Size:             a.Size,
			Usage:            usage,
			MappedAtCreation: a.MappedAtCreation,
		})

	case fixture.DestroyBuffer:
		id, err := resourceID(a.ID)
		if err != nil {
			return err
		}
		return s.DestroyBuffer(id)

	case fixture.WriteBuffer:
		id, err := resourceID(a.Buffer)
		if err != nil {
			return err
		}
		data, err := a.Data.Resolve(p.Loader)
		if err != nil {
			return err
		}
		return s.WriteBuffer(id, a.Offset, data, a.Queued)

	case fixture.CreateShaderModule:
		id, err := resourceID(a.ID)
		if err != nil {
			return err
		}
		source := a.WGSL
		if a.Blob != "" {
			ref := fixture.DataRef{Blob: a.Blob}
			blob, err := ref.Resolve(p.Loader)
			if err != nil {
				return err
			}
			source = string(blob)
		}
		return s.CreateShaderModule(id, &ShaderModuleDescriptor{Label: a.Label, Source: source})

	case fixture.CreateBindGroupLayout:
		id, err := resourceID(a.ID)
		if err != nil {
			return err
		}
		slots := make([]BindingSlot, 0, len(a.Entries))
		for _, e := range a.Entries {
			slot, err := bindingSlot(e)
			if err != nil {
				return err
			}
			slots = append(slots, slot)
		}
		return s.CreateBindGroupLayout(id, &BindGroupLayoutDescriptor{Label: a.Label, Slots: slots})

	case fixture.CreateBindGroup:
		id, err := resourceID(a.ID)
		if err != nil {
			return err
		}
		layout, err := resourceID(a.Layout)
		if err != nil {
			return err
		}
		entries := make([]BufferBindingRef, 0, len(a.Entries))
		for _, e := range a.Entries {
			buf, err := resourceID(e.Buffer)
			if err != nil {
				return err
			}
			entries = append(entries, BufferBindingRef{
				Binding: e.Binding,
				Buffer:  buf,
				Offset:  e.Offset,
				Size:    e.Size,
			})
		}
		return s.CreateBindGroup(id, &BindGroupDescriptor{Label: a.Label, Layout: layout, Entries: entries})

	case fixture.CreatePipelineLayout:
		id, err := resourceID(a.ID)
		if err != nil {
			return err
		}
		bgls := make([]ID, 0, len(a.BindGroupLayouts))
		for _, ref := range a.BindGroupLayouts {
			bgl, err := resourceID(ref)
			if err != nil {
				return err
			}
			bgls = append(bgls, bgl)
		}
		ranges := make([]PushConstantRange, 0, len(a.PushConstantRanges))
		for _, r := range a.PushConstantRanges {
			stages, err := visibilityFromNames(r.Stages)
			if err != nil {
				return err
			}
			ranges = append(ranges, PushConstantRange{Stages: stages, Start: r.Start, End: r.End})
		}
		return s.CreatePipelineLayout(id, &PipelineLayoutDescriptor{
			Label:              a.Label,
			BindGroupLayouts:   bgls,
			PushConstantRanges: ranges,
		})

	case fixture.CreateComputePipeline:
		id, err := resourceID(a.ID)
		if err != nil {
			return err
		}
		layout, err := resourceID(a.Layout)
		if err != nil {
			return err
		}
		module, err := resourceID(a.Module)
		if err != nil {
			return err
		}
		return s.CreateComputePipeline(id, &ComputePipelineDescriptor{
			Label:      a.Label,
			Layout:     layout,
			Module:     module,
			EntryPoint: a.EntryPoint,
		})

	case fixture.Submit:
		lists := make([]*CommandList, 0, len(a.CommandLists))
		for _, fl := range a.CommandLists {
			list, err := commandList(fl)
			if err != nil {
				return err
			}
			lists = append(lists, list)
		}
		_, err := s.SubmitChecked(SubmissionIndex(a.Index), lists)
		return err

	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, act)
	}
}

// commandList converts a fixture command list into a recorded one.
func commandList(fl fixture.CommandList) (*CommandList, error) {
	list := NewCommandList(fl.Label)
	for i, c := range fl.Commands {
		switch {
		case c.SetPipeline != nil:
			id, err := resourceID(*c.SetPipeline)
			if err != nil {
				return nil, err
			}
			list.SetPipeline(id)
		case c.SetBindGroup != nil:
			id, err := resourceID(c.SetBindGroup.Group)
			if err != nil {
				return nil, err
			}
			list.SetBindGroup(c.SetBindGroup.Slot, id, c.SetBindGroup.DynamicOffsets)
		case c.Dispatch != nil:
			g := *c.Dispatch
			list.Dispatch(g[0], g[1], g[2])
		default:
			return nil, fmt.Errorf("%w: command %d of list %q is empty", ErrUnknownAction, i, fl.Label)
		}
	}
	return list, nil
}

// resourceID converts a fixture id literal.
func resourceID(fid fixture.ID) (ID, error) {
	tag, err := ParseTag(fid.Backend)
	if err != nil {
		return ID{}, err
	}
	return ID{Index: fid.Index, Epoch: fid.Epoch, Backend: tag}, nil
}

// bindingSlot converts a fixture layout entry into the engine descriptor.
func bindingSlot(e fixture.LayoutEntry) (BindingSlot, error) {
	vis, err := visibilityFromNames(e.Visibility)
	if err != nil {
		return BindingSlot{}, err
	}
	bt, err := bindingTypeFromName(e.Type)
	if err != nil {
		return BindingSlot{}, err
	}
	return BindingSlot{
		Entry: types.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: vis,
			Buffer: &types.BufferBindingLayout{
				Type:           bt,
				MinBindingSize: e.MinBindingSize,
			},
		},
		HasDynamicOffset: e.HasDynamicOffset,
		Count:            e.Count,
	}, nil
}

// usageNames is the fixture spelling of buffer usage bits.
var usageNames = map[string]types.BufferUsage{
	"MAP_READ":  types.BufferUsageMapRead,
	"MAP_WRITE": types.BufferUsageMapWrite,
	"COPY_SRC":  types.BufferUsageCopySrc,
	"COPY_DST":  types.BufferUsageCopyDst,
	"INDEX":     types.BufferUsageIndex,
	"VERTEX":    types.BufferUsageVertex,
	"UNIFORM":   types.BufferUsageUniform,
	"STORAGE":   types.BufferUsageStorage,
	"INDIRECT":  types.BufferUsageIndirect,
}

// usageFromNames folds fixture usage names into a bitmask.
func usageFromNames(names []string) (types.BufferUsage, error) {
	var usage types.BufferUsage
	for _, name := range names {
		bit, ok := usageNames[name]
		if !ok {
			return 0, fmt.Errorf("replay: unknown buffer usage %q", name)
		}
		usage |= bit
	}
	return usage, nil
}

// stageNames is the fixture spelling of shader stages.
var stageNames = map[string]types.ShaderStage{
	"VERTEX":   types.ShaderStageVertex,
	"FRAGMENT": types.ShaderStageFragment,
	"COMPUTE":  types.ShaderStageCompute,
}

// visibilityFromNames folds fixture stage names into a visibility mask.
func visibilityFromNames(names []string) (types.ShaderStage, error) {
	var vis types.ShaderStage
	for _, name := range names {
		stage, ok := stageNames[name]
		if !ok {
			return 0, fmt.Errorf("replay: unknown shader stage %q", name)
		}
		vis |= stage
	}
	return vis, nil
}

// bindingTypeFromName maps the fixture binding type spelling.
func bindingTypeFromName(name string) (types.BufferBindingType, error) {
	switch name {
	case "uniform":
		return types.BufferBindingTypeUniform, nil
	case "storage":
		return types.BufferBindingTypeStorage, nil
	case "read-only-storage":
		return types.BufferBindingTypeReadOnlyStorage, nil
	default:
		return types.BufferBindingTypeUndefined, fmt.Errorf("replay: unknown buffer binding type %q", name)
	}
}
