// ABOUTME: Path-based content identity for ledger lookups.
// ABOUTME: Maps an absolute path to a stable one-way digest used as the handled-items key.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key returns the SHA-256 hex digest of an absolute path. The same path always
// produces the same key across runs and machines; any string is valid input.
//
// Identity is path-based, not content-based: moving or renaming a file changes
// its identity and it will reappear as a new item. That is a deliberate
// tradeoff, and it also keeps full paths out of the ledger's key space.
func Key(absolutePath string) string {
	sum := sha256.Sum256([]byte(absolutePath))
	return hex.EncodeToString(sum[:])
}
