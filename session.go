package replay

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/replay/backend"
)

// Session is one replay run: a handle table, a backend, and the submission
// bookkeeping that orders host-visible effects.
//
// A session is a single logical thread of control. Actions are applied
// strictly in file order and submissions are serialized, so resource
// content is never mutated concurrently; the session is therefore not safe
// for concurrent use and does not lock.
type Session struct {
	backend backend.Backend
	table   *Table
	caps    backend.Capabilities

	// lastIssued is the submission index most recently assigned.
	// lastDone is the highest index whose effects are host-visible.
	// In this engine submissions complete synchronously, so the two only
	// differ inside Submit itself; the split keeps the ordering contract
	// explicit for backends that finish work asynchronously.
	lastIssued SubmissionIndex
	lastDone   SubmissionIndex

	pending []pendingWrite

	log *slog.Logger
}

// NewSession creates a replay session against a backend.
func NewSession(b backend.Backend) *Session {
	return &Session{
		backend: b,
		table:   NewTable(),
		caps:    b.Capabilities(),
		log:     Logger().With("backend", b.Name()),
	}
}

// Table exposes the session's handle table.
func (s *Session) Table() *Table { return s.table }

// Backend returns the executing backend.
func (s *Session) Backend() backend.Backend { return s.backend }

// LastSubmission returns the most recently assigned submission index.
func (s *Session) LastSubmission() SubmissionIndex { return s.lastIssued }

// waitFor blocks until the effects of all submissions up to index are
// host-visible. Submissions complete synchronously here, so a gap means
// the engine itself broke the ordering contract.
func (s *Session) waitFor(index SubmissionIndex) error {
	if s.lastDone < index {
		return fmt.Errorf("replay: submission %d not complete (last done %d)",
			index, s.lastDone)
	}
	return nil
}
