package fixture

import (
	"bytes"
	"testing"
	"testing/fstest"
)

func TestFSLoader(t *testing.T) {
	loader := NewFSLoader(fstest.MapFS{
		"shaders/iota.wgsl": {Data: []byte("fn main() {}")},
	})

	data, err := loader.Blob("shaders/iota.wgsl")
	if err != nil {
		t.Fatalf("Blob() error = %v", err)
	}
	if !bytes.Equal(data, []byte("fn main() {}")) {
		t.Errorf("Blob() = %q", data)
	}

	if _, err := loader.Blob("absent.bin"); err == nil {
		t.Error("Blob(absent) error = nil, want failure")
	}
	if _, err := loader.Blob("../escape.bin"); err == nil {
		t.Error("Blob(../escape) error = nil, want invalid path failure")
	}
}

func TestMapLoader(t *testing.T) {
	loader := MapLoader{"input.bin": {1, 2, 3}}

	data, err := loader.Blob("input.bin")
	if err != nil {
		t.Fatalf("Blob() error = %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("Blob() = %v", data)
	}
	if _, err := loader.Blob("missing.bin"); err == nil {
		t.Error("Blob(missing) error = nil, want failure")
	}
}

func TestResolve(t *testing.T) {
	loader := MapLoader{"payload.bin": {9, 8}}

	inline := DataRef{Inline: []byte{4, 5}}
	if got, err := inline.Resolve(nil); err != nil || !bytes.Equal(got, []byte{4, 5}) {
		t.Errorf("Resolve(inline) = %v, %v", got, err)
	}

	blob := DataRef{Blob: "payload.bin"}
	if got, err := blob.Resolve(loader); err != nil || !bytes.Equal(got, []byte{9, 8}) {
		t.Errorf("Resolve(blob) = %v, %v", got, err)
	}
	if _, err := blob.Resolve(nil); err == nil {
		t.Error("Resolve(blob, nil loader) error = nil, want failure")
	}
	if _, err := (&DataRef{Blob: "other.bin"}).Resolve(loader); err == nil {
		t.Error("Resolve(unknown blob) error = nil, want failure")
	}
}
