// CLAUDE:SUMMARY Sentinel errors distinguishing lifecycle failures from validation diagnostics.
package session

import "errors"

var (
	// ErrSessionNotFound means the handle references no live session.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrBlockNotFound means the block id is unknown within the session.
	ErrBlockNotFound = errors.New("session: block not found")
	// ErrInvalidInput covers malformed caller arguments (empty type, bad position).
	ErrInvalidInput = errors.New("session: invalid input")
	// ErrValidationGate is returned by Sync when the strict pre-sync gate is
	// requested and the document does not validate.
	ErrValidationGate = errors.New("session: validation gate failed")
)
