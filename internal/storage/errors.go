// ABOUTME: Error types for ledger persistence.
// ABOUTME: CorruptStateError marks an unreadable or malformed ledger document.
package storage

import "fmt"

// CorruptStateError reports a ledger document that is unparseable or fails
// schema validation. It is never auto-repaired: the store surfaces it and
// leaves the on-disk file untouched so the user can decide how to recover.
type CorruptStateError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CorruptStateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt state file %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt state file %s: %s", e.Path, e.Reason)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}
