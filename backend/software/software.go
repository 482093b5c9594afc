package software

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/replay/backend"
	"github.com/gogpu/replay/internal/cache"
)

const (
	// maxBufferSize bounds a single buffer allocation.
	maxBufferSize = 1 << 30

	// maxWorkgroupsPerDimension matches the WebGPU default limit.
	maxWorkgroupsPerDimension = 65535

	// shaderCacheSize bounds the compiled module cache. Suites reuse a
	// small set of shaders across many fixtures.
	shaderCacheSize = 64
)

func init() {
	backend.Register(backend.NameSoftware, func() backend.Backend { return New() })
}

// Backend executes compute dispatches on the CPU.
type Backend struct {
	shaders *cache.Cache[string, *shader]
}

// New creates a software backend.
func New() *Backend {
	return &Backend{shaders: cache.New[string, *shader](shaderCacheSize)}
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return backend.NameSoftware }

// Capabilities implements backend.Backend. Host memory is always mappable,
// so the software backend advertises mappable primary buffers.
func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Features: []string{
			backend.CapComputeShaders,
			backend.CapMappablePrimaryBuffers,
			backend.CapReadOnlyStorage,
		},
		MaxBufferSize:             maxBufferSize,
		MaxWorkgroupsPerDimension: maxWorkgroupsPerDimension,
	}
}

// CompileShader implements backend.Backend. The source is parsed, lowered
// to IR and validated eagerly, so a broken shader fails at module creation
// rather than at first dispatch. Compiled modules are immutable and cached
// by source text, so a shader shared across fixtures compiles once.
func (b *Backend) CompileShader(desc *backend.ShaderDescriptor) (backend.Shader, error) {
	if s, ok := b.shaders.Get(desc.Source); ok {
		return s, nil
	}

	ast, err := naga.Parse(desc.Source)
	if err != nil {
		return nil, fmt.Errorf("software: parse %q: %w", desc.Label, err)
	}
	module, err := naga.LowerWithSource(ast, desc.Source)
	if err != nil {
		return nil, fmt.Errorf("software: lower %q: %w", desc.Label, err)
	}
	issues, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("software: validate %q: %w", desc.Label, err)
	}
	if len(issues) > 0 {
		return nil, fmt.Errorf("software: validate %q: %w", desc.Label, &issues[0])
	}

	s := &shader{module: module, entries: make(map[string]backend.EntryPoint)}
	for _, ep := range module.EntryPoints {
		if ep.Stage != ir.StageCompute {
			continue
		}
		s.entries[ep.Name] = backend.EntryPoint{Name: ep.Name, Workgroup: ep.Workgroup}
	}
	b.shaders.Set(desc.Source, s)
	return s, nil
}

// shader is a compiled WGSL module held as naga IR.
type shader struct {
	module  *ir.Module
	entries map[string]backend.EntryPoint
}

// EntryPoint implements backend.Shader.
func (s *shader) EntryPoint(name string) (backend.EntryPoint, bool) {
	ep, ok := s.entries[name]
	return ep, ok
}

// entryFunction resolves the IR function behind a named compute entry point.
func (s *shader) entryFunction(name string) (*ir.Function, [3]uint32, bool) {
	for i := range s.module.EntryPoints {
		ep := &s.module.EntryPoints[i]
		if ep.Stage == ir.StageCompute && ep.Name == name {
			return &ep.Function, ep.Workgroup, true
		}
	}
	return nil, [3]uint32{}, false
}

// Dispatch implements backend.Backend.
//
// Invocations execute sequentially: workgroups in z-y-x major order, and
// within a workgroup the local invocations likewise. Binding data is
// mutated in place, so storage writes are visible to the caller as soon
// as Dispatch returns. Barriers are no-ops under sequential execution.
func (b *Backend) Dispatch(call *backend.DispatchCall) error {
	s, ok := call.Shader.(*shader)
	if !ok {
		return fmt.Errorf("software: dispatch %q: shader was not compiled by this backend", call.Label)
	}
	fn, workgroup, ok := s.entryFunction(call.EntryPoint)
	if !ok {
		return fmt.Errorf("%w: %q", backend.ErrUnknownEntryPoint, call.EntryPoint)
	}

	globals, err := bindGlobals(s.module, call)
	if err != nil {
		return fmt.Errorf("software: dispatch %q: %w", call.Label, err)
	}

	mach := &machine{module: s.module, globals: globals, groups: call.Groups, workgroup: workgroup}
	for gz := uint32(0); gz < call.Groups[2]; gz++ {
		for gy := uint32(0); gy < call.Groups[1]; gy++ {
			for gx := uint32(0); gx < call.Groups[0]; gx++ {
				if err := mach.runWorkgroup(fn, [3]uint32{gx, gy, gz}); err != nil {
					return fmt.Errorf("software: dispatch %q: %w", call.Label, err)
				}
			}
		}
	}
	return nil
}

// bindGlobals resolves every storage and uniform global of the module to
// the corresponding binding slice from the dispatch call. Workgroup and
// private globals are left nil here and allocated per workgroup or per
// invocation by the machine.
func bindGlobals(module *ir.Module, call *backend.DispatchCall) ([]*pointer, error) {
	globals := make([]*pointer, len(module.GlobalVariables))
	for i := range module.GlobalVariables {
		gv := &module.GlobalVariables[i]
		switch gv.Space {
		case ir.SpaceStorage, ir.SpaceUniform:
			if gv.Binding == nil {
				return nil, fmt.Errorf("%w: global %q has no resource binding", backend.ErrUnsupportedShader, gv.Name)
			}
			bind, ok := call.FindBinding(gv.Binding.Group, gv.Binding.Binding)
			if !ok {
				return nil, fmt.Errorf("%w: group %d binding %d (%q)",
					backend.ErrMissingBinding, gv.Binding.Group, gv.Binding.Binding, gv.Name)
			}
			globals[i] = &pointer{
				data:     bind.Data,
				inner:    module.Types[gv.Type].Inner,
				readOnly: bind.ReadOnly || bind.Uniform,
			}
		case ir.SpaceWorkGroup, ir.SpacePrivate:
			// Allocated by the machine.
		default:
			return nil, fmt.Errorf("%w: global %q in unsupported address space", backend.ErrUnsupportedShader, gv.Name)
		}
	}
	return globals, nil
}
