package fixture

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ==============================
// Document decoding
// ==============================

func TestParseFullDocument(t *testing.T) {
	fix, err := Parse([]byte(`
features: [compute-shaders, read-only-storage-buffers]
actions:
  - createBuffer:
      id: [0, 1, Vulkan]
      label: out
      size: 64
      usage: [STORAGE, MAP_READ]
      mappedAtCreation: true
  - writeBuffer:
      buffer: [0, 1, Vulkan]
      offset: 8
      queued: true
      data: [1, 2, 3]
  - createShaderModule:
      id: [0, 1, Vulkan]
      wgsl: "@compute @workgroup_size(1) fn main() {}"
  - createBindGroupLayout:
      id: [0, 1, Vulkan]
      entries:
        - binding: 0
          visibility: [COMPUTE]
          type: read-only-storage
          minBindingSize: 16
          hasDynamicOffset: true
  - createBindGroup:
      id: [0, 1, Vulkan]
      layout: [0, 1, Vulkan]
      entries:
        - binding: 0
          buffer: [0, 1, Vulkan]
          offset: 0
          size: 32
  - createPipelineLayout:
      id: [0, 1, Vulkan]
      bindGroupLayouts: [[0, 1, Vulkan]]
  - createComputePipeline:
      id: [0, 1, Vulkan]
      layout: [0, 1, Vulkan]
      module: [0, 1, Vulkan]
      entryPoint: main
  - submit:
      index: 1
      commandLists:
        - label: pass
          commands:
            - setPipeline: [0, 1, Vulkan]
            - setBindGroup: {slot: 0, group: [0, 1, Vulkan], dynamicOffsets: [0]}
            - dispatch: [2, 1, 1]
  - destroyBuffer:
      id: [0, 1, Vulkan]
expectations:
  - name: final
    buffer: [0, 1, Vulkan]
    offset: 8
    data: [1, 2, 3]
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(fix.Features) != 2 || fix.Features[0] != "compute-shaders" {
		t.Errorf("Features = %v", fix.Features)
	}
	if len(fix.Actions) != 9 {
		t.Fatalf("len(Actions) = %d, want 9", len(fix.Actions))
	}

	wantTags := []string{
		"createBuffer", "writeBuffer", "createShaderModule",
		"createBindGroupLayout", "createBindGroup", "createPipelineLayout",
		"createComputePipeline", "submit", "destroyBuffer",
	}
	for i, want := range wantTags {
		if got := fix.Actions[i].Tag(); got != want {
			t.Errorf("Actions[%d].Tag() = %q, want %q", i, got, want)
		}
	}

	cb, ok := fix.Actions[0].(CreateBuffer)
	if !ok {
		t.Fatalf("Actions[0] = %T, want CreateBuffer", fix.Actions[0])
	}
	if cb.ID != (ID{Index: 0, Epoch: 1, Backend: "Vulkan"}) || cb.Size != 64 || !cb.MappedAtCreation {
		t.Errorf("CreateBuffer = %+v", cb)
	}

	wb := fix.Actions[1].(WriteBuffer)
	if !wb.Queued || wb.Offset != 8 || !bytes.Equal(wb.Data.Inline, []byte{1, 2, 3}) {
		t.Errorf("WriteBuffer = %+v", wb)
	}

	bgl := fix.Actions[3].(CreateBindGroupLayout)
	if len(bgl.Entries) != 1 {
		t.Fatalf("layout entries = %d, want 1", len(bgl.Entries))
	}
	e := bgl.Entries[0]
	if e.Type != "read-only-storage" || e.MinBindingSize != 16 || !e.HasDynamicOffset {
		t.Errorf("LayoutEntry = %+v", e)
	}

	sub := fix.Actions[7].(Submit)
	if sub.Index != 1 || len(sub.CommandLists) != 1 {
		t.Fatalf("Submit = %+v", sub)
	}
	cmds := sub.CommandLists[0].Commands
	if len(cmds) != 3 {
		t.Fatalf("commands = %d, want 3", len(cmds))
	}
	if cmds[0].SetPipeline == nil || cmds[1].SetBindGroup == nil || cmds[2].Dispatch == nil {
		t.Errorf("command variants = %+v", cmds)
	}
	if cmds[1].SetBindGroup.Slot != 0 || len(cmds[1].SetBindGroup.DynamicOffsets) != 1 {
		t.Errorf("SetBindGroup = %+v", cmds[1].SetBindGroup)
	}
	if *cmds[2].Dispatch != [3]uint32{2, 1, 1} {
		t.Errorf("Dispatch = %v", *cmds[2].Dispatch)
	}

	if len(fix.Expectations) != 1 || fix.Expectations[0].Offset != 8 {
		t.Errorf("Expectations = %+v", fix.Expectations)
	}
}

// ==============================
// Fail-fast decoding
// ==============================

func TestParseUnknownAction(t *testing.T) {
	_, err := Parse([]byte(`
actions:
  - createTexture:
      id: [0, 1, Empty]
`))
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Parse() error = %v, want ErrUnknownAction", err)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse([]byte(`
actions:
  - submit:
      index: 1
      commandLists:
        - commands:
            - drawIndexed: [3, 1]
`))
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Parse() error = %v, want ErrUnknownCommand", err)
	}
}

func TestParseMalformedID(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"too short", "actions:\n  - destroyBuffer:\n      id: [0, 1]\n"},
		{"not a sequence", "actions:\n  - destroyBuffer:\n      id: 7\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); !errors.Is(err, ErrBadID) {
				t.Errorf("Parse() error = %v, want ErrBadID", err)
			}
		})
	}
}

func TestParseMalformedData(t *testing.T) {
	_, err := Parse([]byte(`
actions:
  - writeBuffer:
      buffer: [0, 1, Empty]
      data: "deadbeef"
`))
	if !errors.Is(err, ErrBadData) {
		t.Errorf("Parse() error = %v, want ErrBadData", err)
	}
}

func TestIDString(t *testing.T) {
	id := ID{Index: 2, Epoch: 3, Backend: "Metal"}
	if got, want := id.String(), "[2, 3, Metal]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// ==============================
// Loading from disk
// ==============================

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.yaml")
	doc := []byte("actions:\n  - createBuffer:\n      id: [0, 1, Empty]\n      size: 4\n")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatal(err)
	}
	fix, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(fix.Actions) != 1 {
		t.Errorf("len(Actions) = %d, want 1", len(fix.Actions))
	}
	if _, err := Load(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("Load(absent) error = nil, want failure")
	}
}
