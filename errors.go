package replay

import "errors"

// Structural errors. Any of these aborts the current action and the whole
// replay session: they indicate a malformed fixture or a nonconforming
// backend, not a recoverable condition. Expectation mismatches are not
// errors; they are collected per expectation in the Report.
var (
	// ErrStaleHandle is returned when a resource id's epoch no longer
	// matches the handle table's current epoch for that slot.
	ErrStaleHandle = errors.New("replay: stale handle")

	// ErrUnknownHandle is returned when a resource id addresses a slot
	// that was never allocated.
	ErrUnknownHandle = errors.New("replay: unknown handle")

	// ErrDuplicateHandle is returned when a creation action targets an id
	// whose slot is already occupied at that epoch.
	ErrDuplicateHandle = errors.New("replay: duplicate handle")

	// ErrKindMismatch is returned when an id of one resource kind is
	// resolved as another kind.
	ErrKindMismatch = errors.New("replay: handle kind mismatch")

	// ErrCapabilityMissing is returned when an operation needs a usage
	// bit the buffer was not created with.
	ErrCapabilityMissing = errors.New("replay: buffer capability missing")

	// ErrOutOfBounds is returned when a byte range exceeds a buffer's
	// capacity.
	ErrOutOfBounds = errors.New("replay: byte range out of bounds")

	// ErrBindGroupMismatch is returned when a bind group entry violates
	// its layout slot descriptor.
	ErrBindGroupMismatch = errors.New("replay: bind group does not match layout")

	// ErrDanglingReference is returned when a resource referenced by a
	// creation descriptor is absent.
	ErrDanglingReference = errors.New("replay: dangling resource reference")

	// ErrUnboundPipeline is returned when a dispatch is recorded or
	// executed without a prior SetPipeline.
	ErrUnboundPipeline = errors.New("replay: dispatch without bound pipeline")

	// ErrUnboundBindGroup is returned when a dispatch needs a bind group
	// slot that was never set, or one incompatible with the pipeline layout.
	ErrUnboundBindGroup = errors.New("replay: dispatch without bound bind group")

	// ErrSubmissionDrift is returned when the submission index recorded in
	// the fixture disagrees with the index the engine generates.
	ErrSubmissionDrift = errors.New("replay: submission index drift")

	// ErrUnknownAction is returned for action tags outside the replay
	// vocabulary. Guards fixture-format skew in either direction.
	ErrUnknownAction = errors.New("replay: unknown action")

	// ErrListConsumed is returned when a command list is submitted twice.
	ErrListConsumed = errors.New("replay: command list already submitted")
)
