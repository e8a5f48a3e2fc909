// ABOUTME: Durable session ledger for the triage tool.
// ABOUTME: Loads, validates, and atomically saves the single JSON state document.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/2389-research/sift/internal/models"
)

// Store owns the session ledger for the process lifetime and is the sole
// writer of the backing file. It is not safe for concurrent use; the tool is
// single-threaded by design and cross-process runs are fenced off by a file
// lock at startup.
type Store struct {
	path   string
	ledger *models.Ledger
	now    func() time.Time
}

// Open reads the ledger at path. A missing file yields a fresh ledger without
// writing anything to disk. A present but malformed document fails with
// *CorruptStateError and the file is left exactly as found.
func Open(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.ledger = models.NewLedger()
			return s, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	ledger, err := decodeLedger(path, data)
	if err != nil {
		return nil, err
	}
	s.ledger = ledger
	return s, nil
}

// decodeLedger parses and validates a ledger document, failing closed on any
// shape mismatch.
func decodeLedger(path string, data []byte) (*models.Ledger, error) {
	var ledger models.Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, &CorruptStateError{Path: path, Reason: "not a valid ledger document", Err: err}
	}
	if err := validate(&ledger); err != nil {
		return nil, &CorruptStateError{Path: path, Reason: err.Error()}
	}
	return &ledger, nil
}

func validate(l *models.Ledger) error {
	if l.Version == "" {
		return errors.New("missing version")
	}
	if l.HandledItems == nil {
		return errors.New("missing handled_items")
	}
	for key, rec := range l.HandledItems {
		if !rec.Action.Valid() {
			return fmt.Errorf("handled item %s has unknown action %q", key, rec.Action)
		}
	}
	if l.Cursor.CurrentIndex < -1 {
		return fmt.Errorf("iterator_state current_index %d out of range", l.Cursor.CurrentIndex)
	}
	return nil
}

// Save atomically persists the full ledger, refreshing last_updated. The
// document is written to a temporary file in the same directory and renamed
// into place, so a reader never sees a partial write.
func (s *Store) Save() error {
	s.ledger.LastUpdated = s.now()
	return writeLedger(s.path, s.ledger)
}

func writeLedger(path string, ledger *models.Ledger) error {
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("set state file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// MarkHandled upserts a record for the given identity key and persists the
// ledger. Re-handling the same key overwrites the earlier record.
func (s *Store) MarkHandled(key string, record models.HandledRecord) error {
	s.ledger.HandledItems[key] = record
	return s.Save()
}

// IsHandled reports whether an identity key has a handled record. Pure
// in-memory lookup, no I/O.
func (s *Store) IsHandled(key string) bool {
	_, ok := s.ledger.HandledItems[key]
	return ok
}

// Record returns the handled record for a key, if any.
func (s *Store) Record(key string) (models.HandledRecord, bool) {
	rec, ok := s.ledger.HandledItems[key]
	return rec, ok
}

// Records returns a copy of the handled-items map.
func (s *Store) Records() map[string]models.HandledRecord {
	out := make(map[string]models.HandledRecord, len(s.ledger.HandledItems))
	for k, v := range s.ledger.HandledItems {
		out[k] = v
	}
	return out
}

// ClearHandled empties the handled items, preserving cursor and session count.
func (s *Store) ClearHandled() error {
	s.ledger.HandledItems = make(map[string]models.HandledRecord)
	return s.Save()
}

// ClearAll resets the ledger to a fresh document. The session count is
// preserved: it is a cumulative launch counter, not session-scoped data.
func (s *Store) ClearAll() error {
	fresh := models.NewLedger()
	fresh.SessionCount = s.ledger.SessionCount
	s.ledger = fresh
	return s.Save()
}

// IncrementSession bumps the launch counter. Called once at startup after a
// successful Open.
func (s *Store) IncrementSession() error {
	s.ledger.SessionCount++
	return s.Save()
}

// SessionCount returns the number of launches recorded so far.
func (s *Store) SessionCount() int {
	return s.ledger.SessionCount
}

// SaveCursor overwrites the cursor snapshot and persists the ledger.
func (s *Store) SaveCursor(items []string, currentIndex int) error {
	s.ledger.Cursor = models.CursorSnapshot{
		Items:        append([]string(nil), items...),
		CurrentIndex: currentIndex,
	}
	return s.Save()
}

// Cursor returns the last saved cursor snapshot.
func (s *Store) Cursor() models.CursorSnapshot {
	return s.ledger.Cursor
}

// Summary aggregates handled items by action. Always derived from the ledger
// so it cannot drift from the source of truth.
func (s *Store) Summary() models.Summary {
	sum := models.Summary{
		SessionCount: s.ledger.SessionCount,
		FilePath:     s.path,
		Total:        len(s.ledger.HandledItems),
	}
	for _, rec := range s.ledger.HandledItems {
		switch rec.Action {
		case models.ActionLeft:
			sum.Left++
		case models.ActionMoved:
			sum.Moved++
		case models.ActionTrashed:
			sum.Trashed++
		}
	}
	return sum
}

// Path returns the canonical location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// ExportTo serializes the current ledger to an arbitrary target path. The live
// ledger is not mutated.
func (s *Store) ExportTo(path string) error {
	data, err := json.MarshalIndent(s.ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("export state: %w", err)
	}
	return nil
}

// ImportFrom reads and validates a ledger document at path, then replaces the
// in-memory ledger and persists it to the canonical location. Import is
// all-or-nothing: on any failure the current state, in memory and on disk, is
// left untouched.
func (s *Store) ImportFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	ledger, err := decodeLedger(path, data)
	if err != nil {
		return err
	}
	if err := writeLedger(s.path, ledger); err != nil {
		return err
	}
	s.ledger = ledger
	return nil
}

// Discard removes the state file without loading it. This is the recovery path
// for a ledger too corrupt to open; unlike ClearAll it cannot preserve the
// session count, because the document is unreadable.
func Discard(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}
