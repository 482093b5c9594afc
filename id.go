package replay

import "fmt"

// Tag identifies the backend a resource id was recorded against.
// Fixture id literals carry the tag of the original recording; replay keeps
// it as an opaque discriminant so ids from different recordings never
// compare equal by accident.
type Tag uint8

// Backend tags.
const (
	TagEmpty Tag = iota
	TagVulkan
	TagMetal
	TagDX12
	TagGL
)

// tagNames maps Tag values to their fixture spelling.
var tagNames = [...]string{
	TagEmpty:  "Empty",
	TagVulkan: "Vulkan",
	TagMetal:  "Metal",
	TagDX12:   "Dx12",
	TagGL:     "Gl",
}

// String returns the fixture spelling of a Tag.
func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "Unknown"
}

// ParseTag converts a fixture tag string to a Tag.
func ParseTag(s string) (Tag, error) {
	for i, name := range tagNames {
		if name == s {
			return Tag(i), nil
		}
	}
	return TagEmpty, fmt.Errorf("replay: unknown backend tag %q", s)
}

// Kind identifies the resource namespace an id lives in. Each kind has its
// own slot arena, mirroring the per-type id allocators of the recorded API.
type Kind uint8

// Resource kinds.
const (
	KindBuffer Kind = iota
	KindShaderModule
	KindBindGroupLayout
	KindBindGroup
	KindPipelineLayout
	KindComputePipeline

	kindCount
)

// kindNames maps Kind values to their string representation.
var kindNames = [...]string{
	KindBuffer:          "Buffer",
	KindShaderModule:    "ShaderModule",
	KindBindGroupLayout: "BindGroupLayout",
	KindBindGroup:       "BindGroup",
	KindPipelineLayout:  "PipelineLayout",
	KindComputePipeline: "ComputePipeline",
}

// String returns the string representation of a Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// ID is a generational resource handle: a slot index plus the epoch the
// slot had when the resource was created. A stale ID captured before a
// slot's reuse can never alias a newer resource, because resolution
// requires both index and epoch to match.
//
// Fixtures spell ids as (index, epoch, tag) triples; replay reproduces the
// identical bookkeeping so recorded literals resolve correctly.
type ID struct {
	Index   uint32
	Epoch   uint32
	Backend Tag
}

// String returns the fixture spelling of the id.
func (id ID) String() string {
	return fmt.Sprintf("Id(%d, %d, %s)", id.Index, id.Epoch, id.Backend)
}
