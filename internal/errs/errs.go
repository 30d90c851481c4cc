// Package errs holds the error taxonomy shared by the draw engine, the
// compositor and their collaborators. Callers match with errors.Is.
package errs

import "errors"

var (
	// ErrPoolExhausted means a rarity bucket had zero matching cards.
	// It is reported to the user as "no cards found" and never retried.
	ErrPoolExhausted = errors.New("no matching cards")

	// ErrIntegrity means the adjusted draw did not have the requested size.
	// It indicates a defect and is surfaced as an internal error.
	ErrIntegrity = errors.New("insufficient results")

	// ErrEmptyImageSet means the compositor was invoked with zero images.
	ErrEmptyImageSet = errors.New("empty image set")

	// ErrTransport wraps network or collaborator failures. Retry policy is
	// the caller's decision.
	ErrTransport = errors.New("transport failure")
)
