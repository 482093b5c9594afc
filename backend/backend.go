package backend

import (
	"errors"
	"slices"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrUnknownEntryPoint is returned when a dispatch names an entry point
	// the shader module does not define.
	ErrUnknownEntryPoint = errors.New("backend: unknown entry point")

	// ErrUnsupportedShader is returned when a shader uses a construct the
	// backend cannot execute. Structural: the fixture cannot run here.
	ErrUnsupportedShader = errors.New("backend: unsupported shader construct")

	// ErrMissingBinding is returned when a dispatch references a
	// (group, binding) pair that was not provided.
	ErrMissingBinding = errors.New("backend: missing binding")
)

// Capability names a backend can declare and fixtures can require.
// The vocabulary follows the downlevel flags of the recorded API.
const (
	CapComputeShaders         = "compute-shaders"
	CapMappablePrimaryBuffers = "mappable-primary-buffers"
	CapReadOnlyStorage        = "read-only-storage-buffers"
	CapIndirectDispatch       = "indirect-dispatch"
	CapTimestampQuery         = "timestamp-query"
	CapPushConstants          = "push-constants"
)

// Capabilities describes what a backend can execute. The replay feature
// gate compares a fixture's required capability names against Features.
type Capabilities struct {
	// Features is the set of supported capability names.
	Features []string

	// MaxBufferSize is the largest buffer the backend will accept, in bytes.
	MaxBufferSize uint64

	// MaxWorkgroupsPerDimension bounds each axis of a dispatch.
	MaxWorkgroupsPerDimension uint32
}

// HasFeature reports whether the capability name is declared.
func (c Capabilities) HasFeature(name string) bool {
	return slices.Contains(c.Features, name)
}

// ShaderDescriptor describes a shader module to compile.
type ShaderDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Source is WGSL source text.
	Source string
}

// EntryPoint describes one compute entry point of a compiled shader.
type EntryPoint struct {
	// Name is the entry function name.
	Name string

	// Workgroup is the workgroup size declared by the entry point.
	Workgroup [3]uint32
}

// Shader is a compiled shader module. Opaque to the engine; only the
// backend that compiled it can execute it.
type Shader interface {
	// EntryPoint looks up a compute entry point by name.
	EntryPoint(name string) (EntryPoint, bool)
}

// Binding is one flattened resource binding for a dispatch: a byte window
// into a buffer's content, already offset and sized by the engine. The
// backend mutates Data in place for writable storage bindings; it must not
// write through read-only or uniform bindings.
type Binding struct {
	// Group is the bind group slot the binding came from.
	Group uint32

	// Binding is the binding index within the group.
	Binding uint32

	// ReadOnly marks read-only storage bindings.
	ReadOnly bool

	// Uniform marks uniform buffer bindings.
	Uniform bool

	// Data is the bound byte window.
	Data []byte
}

// DispatchCall carries everything a backend needs to execute one compute
// dispatch. Bindings alias live buffer content; the call must be fully
// consumed before the engine continues, so backends may not retain them.
type DispatchCall struct {
	// Shader is the compiled module, as returned by CompileShader.
	Shader Shader

	// EntryPoint names the compute entry function.
	EntryPoint string

	// Groups is the workgroup count per axis.
	Groups [3]uint32

	// Bindings are the flattened buffer bindings.
	Bindings []Binding

	// Label is an optional debug label for diagnostics.
	Label string
}

// FindBinding returns the binding for a (group, binding) pair.
func (d *DispatchCall) FindBinding(group, binding uint32) (*Binding, bool) {
	for i := range d.Bindings {
		b := &d.Bindings[i]
		if b.Group == group && b.Binding == binding {
			return b, true
		}
	}
	return nil, false
}

// Backend is the interface replay executes against. Implementations must
// be deterministic: the same dispatch over the same bytes produces the
// same bytes, or the verification contract is meaningless.
type Backend interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Capabilities reports what the backend can execute.
	Capabilities() Capabilities

	// CompileShader compiles a WGSL module. Compilation is eager; an
	// invalid module fails here, never at dispatch time.
	CompileShader(desc *ShaderDescriptor) (Shader, error)

	// Dispatch executes one compute dispatch, mutating the writable
	// bindings of call in place.
	Dispatch(call *DispatchCall) error
}
