package replay

import (
	"fmt"

	types "github.com/gogpu/gputypes"
)

// pendingWrite is a queued upload, validated at enqueue time and applied
// when the next submission begins.
type pendingWrite struct {
	buffer ID
	offset uint64
	data   []byte
}

// WriteBuffer writes data into a buffer at a byte offset.
//
// The range must lie within the buffer's capacity and the buffer must
// carry the copy-destination usage bit, unless it is currently mapped for
// host writing (the mapped path models the host side of the API and needs
// no copy capability).
//
// With queued=false the write is applied immediately. With queued=true it
// models a queue-side upload: it is deferred and only guaranteed visible
// after the next submission completes. Bytes outside the written range are
// never perturbed either way.
func (s *Session) WriteBuffer(id ID, offset uint64, data []byte, queued bool) error {
	buf, err := s.table.Buffer(id)
	if err != nil {
		return err
	}
	end := offset + uint64(len(data))
	if end > buf.Size || end < offset {
		return fmt.Errorf("%w: write [%d, %d) into buffer %s of capacity %d",
			ErrOutOfBounds, offset, end, id, buf.Size)
	}
	if !queued && buf.mapped {
		copy(buf.bytes()[offset:end], data)
		return nil
	}
	if !buf.HasUsage(types.BufferUsageCopyDst) {
		return fmt.Errorf("%w: buffer %s lacks COPY_DST", ErrCapabilityMissing, id)
	}
	if queued {
		// Own the bytes: the caller's slice may be reused before the
		// next submission flushes the queue.
		owned := make([]byte, len(data))
		copy(owned, data)
		s.pending = append(s.pending, pendingWrite{buffer: id, offset: offset, data: owned})
		s.log.Debug("queued write", "id", id.String(), "offset", offset, "len", len(data))
		return nil
	}
	copy(buf.bytes()[offset:end], data)
	return nil
}

// flushQueued applies queued writes in enqueue order. Ranges were
// validated at enqueue time, but the buffer is re-resolved so a destroy
// between enqueue and submit surfaces as a stale handle.
func (s *Session) flushQueued() error {
	for i := range s.pending {
		w := &s.pending[i]
		buf, err := s.table.Buffer(w.buffer)
		if err != nil {
			s.pending = nil
			return fmt.Errorf("replay: queued write: %w", err)
		}
		copy(buf.bytes()[w.offset:w.offset+uint64(len(w.data))], w.data)
	}
	s.pending = s.pending[:0]
	return nil
}
