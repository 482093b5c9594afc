package fixture

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Action is one recorded API action. Concrete types mirror the recorded
// API's action vocabulary one to one.
type Action interface {
	// Tag returns the fixture tag of the action variant.
	Tag() string
}

// CreateBuffer creates a zero-filled buffer at a fixed id.
type CreateBuffer struct {
	ID               ID       `yaml:"id"`
	Label            string   `yaml:"label"`
	Size             uint64   `yaml:"size"`
	Usage            []string `yaml:"usage"`
	MappedAtCreation bool     `yaml:"mappedAtCreation"`
}

// Tag returns "createBuffer".
func (CreateBuffer) Tag() string { return "createBuffer" }

// DestroyBuffer frees a buffer, invalidating its id.
type DestroyBuffer struct {
	ID ID `yaml:"id"`
}

// Tag returns "destroyBuffer".
func (DestroyBuffer) Tag() string { return "destroyBuffer" }

// WriteBuffer uploads bytes into a buffer range, immediately or queued.
type WriteBuffer struct {
	Buffer ID      `yaml:"buffer"`
	Offset uint64  `yaml:"offset"`
	Data   DataRef `yaml:"data"`
	Queued bool    `yaml:"queued"`
}

// Tag returns "writeBuffer".
func (WriteBuffer) Tag() string { return "writeBuffer" }

// CreateShaderModule compiles a WGSL module. Source is inline under wgsl
// or referenced as a blob.
type CreateShaderModule struct {
	ID    ID     `yaml:"id"`
	Label string `yaml:"label"`
	WGSL  string `yaml:"wgsl"`
	Blob  string `yaml:"blob"`
}

// Tag returns "createShaderModule".
func (CreateShaderModule) Tag() string { return "createShaderModule" }

// LayoutEntry is one binding slot descriptor of a bind group layout.
type LayoutEntry struct {
	Binding          uint32   `yaml:"binding"`
	Visibility       []string `yaml:"visibility"`
	Type             string   `yaml:"type"`
	MinBindingSize   uint64   `yaml:"minBindingSize"`
	HasDynamicOffset bool     `yaml:"hasDynamicOffset"`
	Count            uint32   `yaml:"count"`
}

// CreateBindGroupLayout creates a bind group layout.
type CreateBindGroupLayout struct {
	ID      ID            `yaml:"id"`
	Label   string        `yaml:"label"`
	Entries []LayoutEntry `yaml:"entries"`
}

// Tag returns "createBindGroupLayout".
func (CreateBindGroupLayout) Tag() string { return "createBindGroupLayout" }

// GroupEntry is one bind group entry: a buffer byte window for a slot.
type GroupEntry struct {
	Binding uint32 `yaml:"binding"`
	Buffer  ID     `yaml:"buffer"`
	Offset  uint64 `yaml:"offset"`
	Size    uint64 `yaml:"size"`
}

// CreateBindGroup creates a bind group against a layout.
type CreateBindGroup struct {
	ID      ID           `yaml:"id"`
	Label   string       `yaml:"label"`
	Layout  ID           `yaml:"layout"`
	Entries []GroupEntry `yaml:"entries"`
}

// Tag returns "createBindGroup".
func (CreateBindGroup) Tag() string { return "createBindGroup" }

// PushRange is a push constant byte range visible to a set of stages.
type PushRange struct {
	Stages []string `yaml:"stages"`
	Start  uint32   `yaml:"start"`
	End    uint32   `yaml:"end"`
}

// CreatePipelineLayout creates a pipeline layout.
type CreatePipelineLayout struct {
	ID                 ID          `yaml:"id"`
	Label              string      `yaml:"label"`
	BindGroupLayouts   []ID        `yaml:"bindGroupLayouts"`
	PushConstantRanges []PushRange `yaml:"pushConstantRanges"`
}

// Tag returns "createPipelineLayout".
func (CreatePipelineLayout) Tag() string { return "createPipelineLayout" }

// CreateComputePipeline creates a compute pipeline.
type CreateComputePipeline struct {
	ID         ID     `yaml:"id"`
	Label      string `yaml:"label"`
	Layout     ID     `yaml:"layout"`
	Module     ID     `yaml:"module"`
	EntryPoint string `yaml:"entryPoint"`
}

// Tag returns "createComputePipeline".
func (CreateComputePipeline) Tag() string { return "createComputePipeline" }

// Command is one recorded compute pass command.
type Command struct {
	// Exactly one of the variants is set.
	SetPipeline  *ID
	SetBindGroup *SetBindGroup
	Dispatch     *[3]uint32
}

// SetBindGroup binds a group to a slot with optional dynamic offsets.
type SetBindGroup struct {
	Slot           uint32   `yaml:"slot"`
	Group          ID       `yaml:"group"`
	DynamicOffsets []uint32 `yaml:"dynamicOffsets"`
}

// UnmarshalYAML decodes a single-key command mapping.
func (c *Command) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return fmt.Errorf("%w: want a single-key mapping at line %d", ErrUnknownCommand, value.Line)
	}
	key, val := value.Content[0].Value, value.Content[1]
	switch key {
	case "setPipeline":
		c.SetPipeline = new(ID)
		return val.Decode(c.SetPipeline)
	case "setBindGroup":
		c.SetBindGroup = new(SetBindGroup)
		return val.Decode(c.SetBindGroup)
	case "dispatch":
		c.Dispatch = new([3]uint32)
		return val.Decode(c.Dispatch)
	default:
		return fmt.Errorf("%w: %q at line %d", ErrUnknownCommand, key, value.Line)
	}
}

// CommandList is an ordered command sequence submitted as a unit.
type CommandList struct {
	Label    string    `yaml:"label"`
	Commands []Command `yaml:"commands"`
}

// Submit commits command lists. Index is the submission index the
// original run produced; replay cross-checks it against its own counter.
type Submit struct {
	Index        uint64        `yaml:"index"`
	CommandLists []CommandList `yaml:"commandLists"`
}

// Tag returns "submit".
func (Submit) Tag() string { return "submit" }

// decodeAction dispatches one single-key action mapping to its variant.
// Unknown tags fail fast: a fixture from a newer format version must not
// be half-replayed.
func decodeAction(node *yaml.Node) (Action, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, fmt.Errorf("%w: want a single-key mapping at line %d", ErrUnknownAction, node.Line)
	}
	key, val := node.Content[0].Value, node.Content[1]
	switch key {
	case "createBuffer":
		var a CreateBuffer
		return a, val.Decode(&a)
	case "destroyBuffer":
		var a DestroyBuffer
		return a, val.Decode(&a)
	case "writeBuffer":
		var a WriteBuffer
		return a, val.Decode(&a)
	case "createShaderModule":
		var a CreateShaderModule
		return a, val.Decode(&a)
	case "createBindGroupLayout":
		var a CreateBindGroupLayout
		return a, val.Decode(&a)
	case "createBindGroup":
		var a CreateBindGroup
		return a, val.Decode(&a)
	case "createPipelineLayout":
		var a CreatePipelineLayout
		return a, val.Decode(&a)
	case "createComputePipeline":
		var a CreateComputePipeline
		return a, val.Decode(&a)
	case "submit":
		var a Submit
		return a, val.Decode(&a)
	default:
		return nil, fmt.Errorf("%w: %q at line %d", ErrUnknownAction, key, node.Line)
	}
}
