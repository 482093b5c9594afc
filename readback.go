package replay

import (
	"fmt"

	types "github.com/gogpu/gputypes"
)

// Flush makes every queued-but-unsubmitted upload host-visible by
// performing an empty submission, exactly as a queue-side upload becomes
// visible after the next submit completes. A no-op when nothing is queued.
func (s *Session) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	_, err := s.Submit(nil)
	return err
}

// MapRead maps size bytes of a buffer at offset for host reading and
// returns a copy.
//
// The buffer needs the map-read usage bit, or must still hold the host
// visibility it was created mapped with (until Unmap). The call observes
// all effects of every submission issued so far and none of any later
// one: it blocks until those submissions are complete (synchronous in
// this engine, but the gate is checked so an asynchronous backend cannot
// silently violate the ordering contract).
func (s *Session) MapRead(id ID, offset, size uint64) ([]byte, error) {
	buf, err := s.table.Buffer(id)
	if err != nil {
		return nil, err
	}
	if !buf.HasUsage(types.BufferUsageMapRead) && !buf.mapped {
		return nil, fmt.Errorf("%w: buffer %s lacks MAP_READ", ErrCapabilityMissing, id)
	}
	end := offset + size
	if end > buf.Size || end < offset {
		return nil, fmt.Errorf("%w: map [%d, %d) of buffer %s with capacity %d",
			ErrOutOfBounds, offset, end, id, buf.Size)
	}
	if err := s.waitFor(s.lastIssued); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, buf.bytes()[offset:end])
	return out, nil
}

// MapWrite maps size bytes of a buffer at offset for host writing and
// applies data through the mapping. The buffer needs the map-write usage
// bit unless it was created mapped.
func (s *Session) MapWrite(id ID, offset uint64, data []byte) error {
	buf, err := s.table.Buffer(id)
	if err != nil {
		return err
	}
	if !buf.HasUsage(types.BufferUsageMapWrite) && !buf.MappedAtCreation {
		return fmt.Errorf("%w: buffer %s lacks MAP_WRITE", ErrCapabilityMissing, id)
	}
	end := offset + uint64(len(data))
	if end > buf.Size || end < offset {
		return fmt.Errorf("%w: map [%d, %d) of buffer %s with capacity %d",
			ErrOutOfBounds, offset, end, id, buf.Size)
	}
	if err := s.waitFor(s.lastIssued); err != nil {
		return err
	}
	copy(buf.bytes()[offset:end], data)
	return nil
}

// Unmap ends the host visibility a buffer acquired from mapped-at-creation.
// Subsequent host writes must go through the upload engine.
func (s *Session) Unmap(id ID) error {
	buf, err := s.table.Buffer(id)
	if err != nil {
		return err
	}
	buf.mapped = false
	return nil
}
