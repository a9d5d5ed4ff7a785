// Package ledger defines the gateway contract to the external trust ledger
// that anchors badge credentials. Implementations live in subpackages; the
// minting and verification services depend only on the interface.
package ledger

import (
	"context"
	"fmt"
)

// ExistenceResult is the outcome of an existence/ownership check.
type ExistenceResult struct {
	Exists bool
	// Owner is the subject binding recorded on the ledger, when the ledger
	// exposes one. Empty means ownership is not tracked.
	Owner string
}

// Gateway mints credential records on the trust ledger and answers
// existence and metadata queries about previously minted records.
type Gateway interface {
	// Mint anchors the metadata document for a subject and returns the
	// ledger reference of the new record.
	Mint(ctx context.Context, subjectID, metadataURI string, metadata map[string]interface{}) (string, error)

	// VerifyExistence reports whether the referenced record exists on the
	// ledger, including owner information when available.
	VerifyExistence(ctx context.Context, ref string) (*ExistenceResult, error)

	// GetMetadata returns the metadata document stored for the reference.
	GetMetadata(ctx context.Context, ref string) (map[string]interface{}, error)
}

// Error is the transient infrastructure error class for ledger operations.
// Callers may retry with backoff; it is never swallowed.
type Error struct {
	Op  string
	Ref string
	Err error
}

func (e *Error) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps a failure from a ledger operation.
func NewError(op, ref string, err error) *Error {
	return &Error{Op: op, Ref: ref, Err: err}
}
