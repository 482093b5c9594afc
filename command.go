package replay

// Commands are typed structs rather than a serialized byte stream, for
// inspectability: a failed submission reports exactly which command broke
// and why. The shape follows the recorded API's compute pass vocabulary.

// CommandType identifies the type of a recorded command.
type CommandType uint8

const (
	// CmdSetPipeline binds a compute pipeline.
	CmdSetPipeline CommandType = iota

	// CmdSetBindGroup binds a bind group to a group slot.
	CmdSetBindGroup

	// CmdDispatch executes the bound pipeline over a workgroup grid.
	CmdDispatch
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdSetPipeline:  "SetPipeline",
	CmdSetBindGroup: "SetBindGroup",
	CmdDispatch:     "Dispatch",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// SetPipelineCommand binds a compute pipeline for subsequent dispatches.
type SetPipelineCommand struct {
	Pipeline ID
}

// Type returns CmdSetPipeline.
func (SetPipelineCommand) Type() CommandType { return CmdSetPipeline }

// SetBindGroupCommand binds a bind group to a group slot, optionally with
// dynamic byte offsets for the layout's dynamic slots (in slot order).
type SetBindGroupCommand struct {
	Slot           uint32
	Group          ID
	DynamicOffsets []uint32
}

// Type returns CmdSetBindGroup.
func (SetBindGroupCommand) Type() CommandType { return CmdSetBindGroup }

// DispatchCommand executes the bound compute pipeline over an x*y*z grid
// of workgroups.
type DispatchCommand struct {
	Groups [3]uint32
}

// Type returns CmdDispatch.
func (DispatchCommand) Type() CommandType { return CmdDispatch }

// CommandList is an ordered sequence of recorded commands. Recording
// appends; submission consumes. A list is immutable once submitted and
// cannot be submitted twice.
//
// Binding state (current pipeline, bound groups) is tracked per list
// during execution, so lists are independent of each other within a
// submission.
type CommandList struct {
	// Label is an optional debug label.
	Label string

	commands []Command
	consumed bool
}

// NewCommandList creates an empty command list.
func NewCommandList(label string) *CommandList {
	return &CommandList{Label: label, commands: make([]Command, 0, 8)}
}

// SetPipeline records a pipeline bind.
func (l *CommandList) SetPipeline(pipeline ID) {
	l.commands = append(l.commands, SetPipelineCommand{Pipeline: pipeline})
}

// SetBindGroup records a bind group bind.
func (l *CommandList) SetBindGroup(slot uint32, group ID, dynamicOffsets []uint32) {
	l.commands = append(l.commands, SetBindGroupCommand{
		Slot:           slot,
		Group:          group,
		DynamicOffsets: dynamicOffsets,
	})
}

// Dispatch records a dispatch over x*y*z workgroups.
func (l *CommandList) Dispatch(x, y, z uint32) {
	l.commands = append(l.commands, DispatchCommand{Groups: [3]uint32{x, y, z}})
}

// Commands returns the recorded commands in order.
func (l *CommandList) Commands() []Command {
	return l.commands
}

// Len returns the number of recorded commands.
func (l *CommandList) Len() int { return len(l.commands) }
