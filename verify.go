package replay

import "fmt"

// Expectation is one expected post-execution byte snapshot: the given
// buffer must hold exactly Data at Offset once every submission implied by
// fixture order has completed.
type Expectation struct {
	// Name labels the expectation in reports.
	Name string

	// Buffer references the buffer to read back.
	Buffer ID

	// Offset is the byte offset of the snapshot.
	Offset uint64

	// Data is the expected byte sequence.
	Data []byte
}

// ByteMismatch is one differing byte position of a failed expectation.
type ByteMismatch struct {
	// Offset is absolute within the buffer.
	Offset uint64
	Want   byte
	Got    byte
}

// ExpectationResult is the outcome of verifying one expectation.
type ExpectationResult struct {
	Name string

	// Mismatches is empty when the expectation passed.
	Mismatches []ByteMismatch
}

// Passed reports whether the expectation held.
func (r *ExpectationResult) Passed() bool { return len(r.Mismatches) == 0 }

// String summarizes the result for reports and logs.
func (r *ExpectationResult) String() string {
	if r.Passed() {
		return fmt.Sprintf("%s: pass", r.Name)
	}
	m := r.Mismatches[0]
	return fmt.Sprintf("%s: %d mismatched bytes, first at offset %d (want %#02x, got %#02x)",
		r.Name, len(r.Mismatches), m.Offset, m.Want, m.Got)
}

// Verify checks expectations in order against current buffer content and
// returns one result per expectation.
//
// Mismatches are collected, never thrown: every expectation is checked
// even when an earlier one fails, so one mismatch cannot suppress
// detection of others. Structural failures (missing capability, out of
// bounds, stale handle) abort immediately with an error instead.
func (s *Session) Verify(expectations []Expectation) ([]ExpectationResult, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	results := make([]ExpectationResult, 0, len(expectations))
	for i := range expectations {
		e := &expectations[i]
		got, err := s.MapRead(e.Buffer, e.Offset, uint64(len(e.Data)))
		if err != nil {
			return nil, fmt.Errorf("replay: expectation %q: %w", e.Name, err)
		}
		res := ExpectationResult{Name: e.Name}
		for j := range e.Data {
			if got[j] != e.Data[j] {
				res.Mismatches = append(res.Mismatches, ByteMismatch{
					Offset: e.Offset + uint64(j),
					Want:   e.Data[j],
					Got:    got[j],
				})
			}
		}
		if !res.Passed() {
			s.log.Warn("expectation failed", "name", e.Name, "mismatches", len(res.Mismatches))
		}
		results = append(results, res)
	}
	return results, nil
}
