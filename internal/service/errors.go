package service

import "errors"

// Error taxonomy shared by the stream services. Handlers map these to HTTP
// statuses with errors.Is.
var (
	// ErrValidation rejects an activity creation: a required field is missing
	// or a referenced entity type is not on the allow-list. Nothing is
	// persisted when it is returned.
	ErrValidation = errors.New("activity validation failed")

	// ErrConstraintViolation rejects an allow-list registration that reuses an
	// existing name or model tag.
	ErrConstraintViolation = errors.New("allowed model constraint violation")

	// ErrOmitted marks a record that exists but cannot be rendered, usually
	// because its object or target was deleted. It never reaches callers: the
	// stream assembler drops the record and moves on.
	ErrOmitted = errors.New("activity omitted from stream")

	// ErrCorruptActor marks an activity whose actor can no longer be resolved.
	// Unlike a deleted object this is a data-integrity violation, so it
	// propagates instead of being swallowed.
	ErrCorruptActor = errors.New("activity actor reference is corrupt")
)
