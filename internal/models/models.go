// ABOUTME: Core data models for the triage ledger: actions, handled records, and cursor state.
// ABOUTME: Defines the JSON document schema persisted by the state store.
package models

import (
	"fmt"
	"path/filepath"
	"time"
)

// SchemaVersion is the ledger document version, used to gate future migrations.
const SchemaVersion = "1.0"

// Action is the disposition the user chose for an item.
type Action string

const (
	ActionLeft    Action = "left"
	ActionMoved   Action = "moved"
	ActionTrashed Action = "trashed"
)

// Valid returns true if the action is one of the known dispositions.
func (a Action) Valid() bool {
	switch a {
	case ActionLeft, ActionMoved, ActionTrashed:
		return true
	}
	return false
}

// ParseAction converts a string into an Action, rejecting unknown values.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// HandledRecord captures one disposed-of filesystem entry. At most one record
// exists per identity key; a later decision for the same key overwrites it.
type HandledRecord struct {
	OriginalPath string    `json:"original_path"`
	Action       Action    `json:"action"`
	Destination  string    `json:"destination,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Filename     string    `json:"filename"`
}

// NewHandledRecord creates a record for a decision made now. Destination is
// only meaningful for ActionMoved and should be empty otherwise.
func NewHandledRecord(path string, action Action, destination string) HandledRecord {
	return HandledRecord{
		OriginalPath: path,
		Action:       action,
		Destination:  destination,
		Timestamp:    time.Now(),
		Filename:     filepath.Base(path),
	}
}

// CursorSnapshot is the saved iteration position: the listing at save time and
// the offset into it. CurrentIndex is -1 when there is no valid position.
type CursorSnapshot struct {
	Items        []string `json:"items"`
	CurrentIndex int      `json:"current_index"`
}

// Ledger is the root persisted document. It is owned exclusively by the state
// store for the process lifetime.
type Ledger struct {
	Version      string                   `json:"version"`
	LastUpdated  time.Time                `json:"last_updated"`
	SessionCount int                      `json:"session_count"`
	HandledItems map[string]HandledRecord `json:"handled_items"`
	Cursor       CursorSnapshot           `json:"iterator_state"`
}

// NewLedger creates a fresh, empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		Version:      SchemaVersion,
		HandledItems: make(map[string]HandledRecord),
		Cursor:       CursorSnapshot{CurrentIndex: -1},
	}
}

// Summary is an aggregation over handled items. It is always derived from the
// ledger, never persisted separately.
type Summary struct {
	Left         int
	Moved        int
	Trashed      int
	Total        int
	SessionCount int
	FilePath     string
}
