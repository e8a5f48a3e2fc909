// ABOUTME: Resumable iteration over a directory's unhandled entries.
// ABOUTME: Scans once, filters already-handled items via the state store, and persists the cursor on every move.
package iterator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/2389-research/sift/internal/identity"
	"github.com/2389-research/sift/internal/models"
	"github.com/2389-research/sift/internal/storage"
)

// Item is one directory entry presented for triage.
type Item struct {
	Path    string
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Iterator walks the filtered listing of a single directory. It never raises
// for "no items": an empty filtered list is the normal exhausted state.
type Iterator struct {
	dir   string
	store *storage.Store
	items []Item
	index int
}

// New scans dir (non-recursive), drops entries whose identity key is already
// handled, and restores the saved cursor position when it is still in range of
// the filtered listing.
//
// Cursor restoration is positional: if the directory changed between runs the
// restored index can land on a different file than last time. Known
// limitation, kept for its simplicity.
func New(dir string, store *storage.Store) (*Iterator, error) {
	it := &Iterator{dir: dir, store: store}
	items, err := it.scan()
	if err != nil {
		return nil, err
	}
	it.items = items
	saved := store.Cursor().CurrentIndex
	if len(items) > 0 && saved >= 0 && saved < len(items) {
		it.index = saved
	}
	return it, nil
}

// scan lists the directory, applies the fixed skip policy, and filters out
// handled entries. A missing directory yields an empty listing, not an error.
func (it *Iterator) scan() ([]Item, error) {
	entries, err := os.ReadDir(it.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s: %w", it.dir, err)
	}

	var items []Item
	for _, entry := range entries {
		if skipName(entry.Name()) {
			continue
		}
		path := filepath.Join(it.dir, entry.Name())
		if it.store.IsHandled(identity.Key(path)) {
			continue
		}
		item := Item{Path: path, Name: entry.Name(), IsDir: entry.IsDir()}
		if info, err := entry.Info(); err == nil {
			item.Size = info.Size()
			item.ModTime = info.ModTime()
		}
		items = append(items, item)
	}
	return items, nil
}

// skipName is the fixed naming policy for system and hidden entries.
func skipName(name string) bool {
	if len(name) > 0 && name[0] == '.' {
		return true
	}
	switch name {
	case "desktop.ini", "Thumbs.db":
		return true
	}
	return false
}

// Current returns the entry at the cursor without moving it. ok is false when
// the iterator is exhausted.
func (it *Iterator) Current() (Item, bool) {
	if len(it.items) == 0 {
		return Item{}, false
	}
	return it.items[it.index], true
}

// Next advances the cursor by one, clamped to the last entry, and persists the
// new position. Closing mid-browse resumes at the same spot.
func (it *Iterator) Next() error {
	if len(it.items) == 0 {
		return nil
	}
	if it.index < len(it.items)-1 {
		it.index++
	}
	return it.saveCursor()
}

// Prev moves the cursor back by one, clamped to the first entry, and persists.
func (it *Iterator) Prev() error {
	if len(it.items) == 0 {
		return nil
	}
	if it.index > 0 {
		it.index--
	}
	return it.saveCursor()
}

// Reset moves the cursor to the first entry and persists.
func (it *Iterator) Reset() error {
	it.index = 0
	return it.saveCursor()
}

// Refresh re-runs the scan-and-filter sequence in place. The cursor stays on
// the same path when it survives the rescan, else it resets to 0.
func (it *Iterator) Refresh() error {
	var currentPath string
	if cur, ok := it.Current(); ok {
		currentPath = cur.Path
	}
	items, err := it.scan()
	if err != nil {
		return err
	}
	it.items = items
	it.index = 0
	for i, item := range items {
		if item.Path == currentPath {
			it.index = i
			break
		}
	}
	return it.saveCursor()
}

// RecordDecision marks an item handled and removes it from the live filtered
// list, keeping the cursor at the same relative position (clamped). If the
// persist fails the list is left unmodified so the caller does not advance
// past an item whose disposition was never recorded.
func (it *Iterator) RecordDecision(item Item, action models.Action, destination string) error {
	key := identity.Key(item.Path)
	record := models.NewHandledRecord(item.Path, action, destination)
	if err := it.store.MarkHandled(key, record); err != nil {
		return err
	}

	for i := range it.items {
		if it.items[i].Path == item.Path {
			it.items = append(it.items[:i], it.items[i+1:]...)
			if i < it.index {
				it.index--
			}
			break
		}
	}
	if it.index >= len(it.items) {
		it.index = len(it.items) - 1
	}
	if it.index < 0 {
		it.index = 0
	}
	return it.saveCursor()
}

func (it *Iterator) saveCursor() error {
	paths := make([]string, len(it.items))
	for i, item := range it.items {
		paths[i] = item.Path
	}
	index := it.index
	if len(it.items) == 0 {
		index = -1
	}
	return it.store.SaveCursor(paths, index)
}

// Exhausted reports whether no unhandled entries remain.
func (it *Iterator) Exhausted() bool {
	return len(it.items) == 0
}

// Len returns the number of remaining unhandled entries.
func (it *Iterator) Len() int {
	return len(it.items)
}

// Index returns the current cursor offset.
func (it *Iterator) Index() int {
	return it.index
}

// Dir returns the directory being triaged.
func (it *Iterator) Dir() string {
	return it.dir
}
