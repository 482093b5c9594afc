package replay

import (
	"bytes"
	"errors"
	"testing"

	types "github.com/gogpu/gputypes"
)

func TestMapReadReturnsCopy(t *testing.T) {
	s := NewSession(newStubBackend())
	id := testID(0)
	if err := s.CreateBuffer(id, &BufferDescriptor{
		Size:  8,
		Usage: types.BufferUsageMapRead | types.BufferUsageCopyDst,
	}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := s.WriteBuffer(id, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8}, false); err != nil {
		t.Fatalf("WriteBuffer() error = %v", err)
	}
	got, err := s.MapRead(id, 2, 4)
	if err != nil {
		t.Fatalf("MapRead() error = %v", err)
	}
	if want := []byte{3, 4, 5, 6}; !bytes.Equal(got, want) {
		t.Errorf("MapRead() = %v, want %v", got, want)
	}

	// The mapping is a snapshot, not a live view.
	got[0] = 0xff
	again, err := s.MapRead(id, 2, 1)
	if err != nil {
		t.Fatalf("MapRead() error = %v", err)
	}
	if again[0] != 3 {
		t.Errorf("buffer byte = %#02x after mutating a mapping, want 3", again[0])
	}
}

func TestMapReadChecks(t *testing.T) {
	s := NewSession(newStubBackend())
	plain := testID(0)
	if err := s.CreateBuffer(plain, &BufferDescriptor{Size: 8, Usage: types.BufferUsageStorage}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	readable := testID(1)
	if err := s.CreateBuffer(readable, &BufferDescriptor{Size: 8, Usage: types.BufferUsageMapRead}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}

	tests := []struct {
		name         string
		id           ID
		offset, size uint64
		wantErr      error
	}{
		{"missing MAP_READ", plain, 0, 4, ErrCapabilityMissing},
		{"range past end", readable, 4, 8, ErrOutOfBounds},
		{"unknown id", testID(9), 0, 1, ErrUnknownHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.MapRead(tt.id, tt.offset, tt.size); !errors.Is(err, tt.wantErr) {
				t.Errorf("MapRead() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMapReadMappedAtCreation(t *testing.T) {
	s := NewSession(newStubBackend())
	id := testID(0)
	if err := s.CreateBuffer(id, &BufferDescriptor{
		Size:             4,
		Usage:            types.BufferUsageStorage,
		MappedAtCreation: true,
	}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := s.MapWrite(id, 0, []byte{9, 8, 7, 6}); err != nil {
		t.Fatalf("MapWrite() error = %v", err)
	}

	// The creation mapping is readable without MAP_READ until Unmap ends
	// the host visibility.
	got, err := s.MapRead(id, 0, 4)
	if err != nil {
		t.Fatalf("MapRead() while mapped error = %v", err)
	}
	if want := []byte{9, 8, 7, 6}; !bytes.Equal(got, want) {
		t.Errorf("MapRead() = %v, want %v", got, want)
	}
	if err := s.Unmap(id); err != nil {
		t.Fatalf("Unmap() error = %v", err)
	}
	if _, err := s.MapRead(id, 0, 4); !errors.Is(err, ErrCapabilityMissing) {
		t.Errorf("MapRead() after Unmap error = %v, want ErrCapabilityMissing", err)
	}
}

func TestMapWrite(t *testing.T) {
	s := NewSession(newStubBackend())
	id := testID(0)
	if err := s.CreateBuffer(id, &BufferDescriptor{
		Size:  8,
		Usage: types.BufferUsageMapWrite | types.BufferUsageMapRead,
	}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := s.MapWrite(id, 4, []byte{7, 7}); err != nil {
		t.Fatalf("MapWrite() error = %v", err)
	}
	got, err := s.MapRead(id, 0, 8)
	if err != nil {
		t.Fatalf("MapRead() error = %v", err)
	}
	if want := []byte{0, 0, 0, 0, 7, 7, 0, 0}; !bytes.Equal(got, want) {
		t.Errorf("buffer = %v, want %v", got, want)
	}
}

func TestMapWriteNeedsCapability(t *testing.T) {
	s := NewSession(newStubBackend())
	id := testID(0)
	if err := s.CreateBuffer(id, &BufferDescriptor{Size: 8, Usage: types.BufferUsageStorage}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := s.MapWrite(id, 0, []byte{1}); !errors.Is(err, ErrCapabilityMissing) {
		t.Errorf("MapWrite() error = %v, want ErrCapabilityMissing", err)
	}
}

func TestFlushMakesQueuedWritesVisible(t *testing.T) {
	s := NewSession(newStubBackend())
	id := testID(0)
	if err := s.CreateBuffer(id, &BufferDescriptor{
		Size:  4,
		Usage: types.BufferUsageCopyDst | types.BufferUsageMapRead,
	}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := s.WriteBuffer(id, 0, []byte{1, 2, 3, 4}, true); err != nil {
		t.Fatalf("WriteBuffer() error = %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	got, err := s.MapRead(id, 0, 4)
	if err != nil {
		t.Fatalf("MapRead() error = %v", err)
	}
	if want := []byte{1, 2, 3, 4}; !bytes.Equal(got, want) {
		t.Errorf("buffer = %v, want %v", got, want)
	}

	// An idle flush must not burn a submission index.
	before := s.LastSubmission()
	if err := s.Flush(); err != nil {
		t.Fatalf("second Flush() error = %v", err)
	}
	if s.LastSubmission() != before {
		t.Errorf("idle Flush() advanced LastSubmission to %d", s.LastSubmission())
	}
}
