package replay

import "testing"

func TestCommandListRecording(t *testing.T) {
	list := NewCommandList("pass")
	list.SetPipeline(testID(0))
	list.SetBindGroup(0, testID(1), nil)
	list.Dispatch(4, 2, 1)

	if list.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", list.Len())
	}
	cmds := list.Commands()
	if _, ok := cmds[0].(SetPipelineCommand); !ok {
		t.Errorf("command 0 = %T, want SetPipelineCommand", cmds[0])
	}
	if c, ok := cmds[1].(SetBindGroupCommand); !ok || c.Slot != 0 {
		t.Errorf("command 1 = %#v, want SetBindGroupCommand on slot 0", cmds[1])
	}
	if c, ok := cmds[2].(DispatchCommand); !ok || c.Groups != [3]uint32{4, 2, 1} {
		t.Errorf("command 2 = %#v, want DispatchCommand{4 2 1}", cmds[2])
	}
}

func TestCommandTypeString(t *testing.T) {
	tests := []struct {
		typ  CommandType
		want string
	}{
		{CmdSetPipeline, "SetPipeline"},
		{CmdSetBindGroup, "SetBindGroup"},
		{CmdDispatch, "Dispatch"},
		{CommandType(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
