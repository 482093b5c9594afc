package replay

import (
	"errors"
	"strings"
	"testing"

	types "github.com/gogpu/gputypes"
)

func newVerifySession(t *testing.T) (*Session, ID) {
	t.Helper()
	s := NewSession(newStubBackend())
	id := testID(0)
	if err := s.CreateBuffer(id, &BufferDescriptor{
		Size:  8,
		Usage: types.BufferUsageCopyDst | types.BufferUsageMapRead,
	}); err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := s.WriteBuffer(id, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8}, false); err != nil {
		t.Fatalf("WriteBuffer() error = %v", err)
	}
	return s, id
}

func TestVerifyPass(t *testing.T) {
	s, id := newVerifySession(t)
	results, err := s.Verify([]Expectation{
		{Name: "head", Buffer: id, Offset: 0, Data: []byte{1, 2, 3, 4}},
		{Name: "tail", Buffer: id, Offset: 4, Data: []byte{5, 6, 7, 8}},
	})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, r := range results {
		if !r.Passed() {
			t.Errorf("%s failed: %v", r.Name, r.Mismatches)
		}
	}
}

func TestVerifyCollectsAllMismatches(t *testing.T) {
	s, id := newVerifySession(t)
	results, err := s.Verify([]Expectation{
		{Name: "wrong", Buffer: id, Offset: 0, Data: []byte{1, 9, 3, 9}},
		{Name: "right", Buffer: id, Offset: 4, Data: []byte{5, 6, 7, 8}},
	})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	// The failed expectation reports byte positions; the later one is
	// still checked.
	if results[0].Passed() {
		t.Fatal("first expectation passed, want mismatches")
	}
	if len(results[0].Mismatches) != 2 {
		t.Fatalf("mismatch count = %d, want 2", len(results[0].Mismatches))
	}
	first := results[0].Mismatches[0]
	if first.Offset != 1 || first.Want != 9 || first.Got != 2 {
		t.Errorf("first mismatch = %+v, want offset 1 want 9 got 2", first)
	}
	if !results[1].Passed() {
		t.Error("second expectation failed, want pass")
	}
}

func TestVerifyStructuralFailure(t *testing.T) {
	s, _ := newVerifySession(t)
	_, err := s.Verify([]Expectation{
		{Name: "ghost", Buffer: testID(9), Data: []byte{0}},
	})
	if !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Verify() error = %v, want ErrUnknownHandle", err)
	}
}

func TestVerifyFlushesQueuedWrites(t *testing.T) {
	s, id := newVerifySession(t)
	// A trailing queued write with no later submit must still be visible
	// to verification.
	if err := s.WriteBuffer(id, 0, []byte{0xaa}, true); err != nil {
		t.Fatalf("WriteBuffer() error = %v", err)
	}
	results, err := s.Verify([]Expectation{
		{Name: "flushed", Buffer: id, Offset: 0, Data: []byte{0xaa, 2}},
	})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !results[0].Passed() {
		t.Errorf("expectation failed: %v", results[0].Mismatches)
	}
}

func TestExpectationResultString(t *testing.T) {
	pass := ExpectationResult{Name: "ok"}
	if got := pass.String(); got != "ok: pass" {
		t.Errorf("String() = %q, want %q", got, "ok: pass")
	}
	fail := ExpectationResult{
		Name:       "bad",
		Mismatches: []ByteMismatch{{Offset: 3, Want: 1, Got: 2}},
	}
	if got := fail.String(); !strings.Contains(got, "offset 3") {
		t.Errorf("String() = %q, want offset mentioned", got)
	}
}
