// ABOUTME: Tests for the resumable directory iterator.
// ABOUTME: Covers resume filtering, cursor restoration, decision recording, refresh, and navigation clamping.
package iterator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/2389-research/sift/internal/identity"
	"github.com/2389-research/sift/internal/models"
	"github.com/2389-research/sift/internal/storage"
)

func newFixture(t *testing.T, names ...string) (string, *storage.Store) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("setup write error: %v", err)
		}
	}
	store, err := storage.Open(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("Open store error: %v", err)
	}
	return dir, store
}

func names(it *Iterator) []string {
	out := make([]string, 0, len(it.items))
	for _, item := range it.items {
		out = append(out, item.Name)
	}
	return out
}

func TestEmptyDirectoryExhausted(t *testing.T) {
	dir, store := newFixture(t)
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !it.Exhausted() {
		t.Error("empty directory should be exhausted")
	}
	if _, ok := it.Current(); ok {
		t.Error("Current should report no item, not an error")
	}
	// Navigation on an exhausted iterator is a no-op, not a failure.
	if err := it.Next(); err != nil {
		t.Errorf("Next on empty iterator: %v", err)
	}
}

func TestMissingDirectoryExhausted(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("Open store error: %v", err)
	}
	it, err := New(filepath.Join(t.TempDir(), "does-not-exist"), store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !it.Exhausted() {
		t.Error("missing directory should yield an empty listing")
	}
}

func TestSkipPolicy(t *testing.T) {
	dir, store := newFixture(t, "a.txt", ".DS_Store", ".hidden", "Thumbs.db", "desktop.ini", "b.txt")
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	got := names(it)
	if len(got) != 2 || got[0] != "a.txt" || got[1] != "b.txt" {
		t.Errorf("filtered listing = %v, want [a.txt b.txt]", got)
	}
}

func TestResumeFiltersHandled(t *testing.T) {
	dir, store := newFixture(t, "a.txt", "b.txt", "c.txt", "d.txt")

	// Handle b and d in a "previous session".
	for _, name := range []string{"b.txt", "d.txt"} {
		path := filepath.Join(dir, name)
		rec := models.NewHandledRecord(path, models.ActionTrashed, "")
		if err := store.MarkHandled(identity.Key(path), rec); err != nil {
			t.Fatalf("MarkHandled error: %v", err)
		}
	}

	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	got := names(it)
	if len(got) != 2 || got[0] != "a.txt" || got[1] != "c.txt" {
		t.Errorf("filtered listing = %v, want [a.txt c.txt] in original order", got)
	}
}

func TestAllHandledExhausted(t *testing.T) {
	dir, store := newFixture(t, "a.txt", "b.txt")
	for _, name := range []string{"a.txt", "b.txt"} {
		path := filepath.Join(dir, name)
		if err := store.MarkHandled(identity.Key(path), models.NewHandledRecord(path, models.ActionLeft, "")); err != nil {
			t.Fatalf("MarkHandled error: %v", err)
		}
	}
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !it.Exhausted() {
		t.Error("all-handled directory should be exhausted")
	}
}

func TestHandledItemStaysFilteredWhileStillPresent(t *testing.T) {
	dir, store := newFixture(t, "a.txt")
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	cur, _ := it.Current()
	if err := it.RecordDecision(cur, models.ActionLeft, ""); err != nil {
		t.Fatalf("RecordDecision error: %v", err)
	}

	// The file is still on disk under the same path. Identity-based filtering
	// keeps it out until handled state is cleared.
	if err := it.Refresh(); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if !it.Exhausted() {
		t.Error("handled item reappeared after refresh")
	}

	if err := store.ClearHandled(); err != nil {
		t.Fatalf("ClearHandled error: %v", err)
	}
	if err := it.Refresh(); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if it.Len() != 1 {
		t.Error("item should reappear after ClearHandled")
	}
}

func TestRecordDecisionRemovesAndClamps(t *testing.T) {
	dir, store := newFixture(t, "a.txt", "b.txt", "c.txt")
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	// Move to b.txt and decide it.
	if err := it.Next(); err != nil {
		t.Fatalf("Next error: %v", err)
	}
	cur, _ := it.Current()
	if cur.Name != "b.txt" {
		t.Fatalf("current = %s, want b.txt", cur.Name)
	}
	if err := it.RecordDecision(cur, models.ActionMoved, "/dest"); err != nil {
		t.Fatalf("RecordDecision error: %v", err)
	}

	got := names(it)
	if len(got) != 2 || got[0] != "a.txt" || got[1] != "c.txt" {
		t.Errorf("remaining = %v, want [a.txt c.txt]", got)
	}
	// Same relative position: the cursor now points at c.txt.
	cur, _ = it.Current()
	if cur.Name != "c.txt" {
		t.Errorf("current after decision = %s, want c.txt", cur.Name)
	}

	sum := store.Summary()
	if sum.Moved != 1 || sum.Total != 1 {
		t.Errorf("summary mismatch: %+v", sum)
	}
}

func TestRecordDecisionLastItemExhausts(t *testing.T) {
	dir, store := newFixture(t, "only.txt")
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	cur, _ := it.Current()
	if err := it.RecordDecision(cur, models.ActionTrashed, ""); err != nil {
		t.Fatalf("RecordDecision error: %v", err)
	}
	if !it.Exhausted() {
		t.Error("iterator should be exhausted after deciding the last item")
	}
	if store.Cursor().CurrentIndex != -1 {
		t.Errorf("saved cursor index = %d, want -1 for empty listing", store.Cursor().CurrentIndex)
	}
}

func TestRecordDecisionBeforeCursorShiftsIndex(t *testing.T) {
	dir, store := newFixture(t, "a.txt", "b.txt", "c.txt")
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := it.Next(); err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if err := it.Next(); err != nil {
		t.Fatalf("Next error: %v", err)
	}
	// Cursor on c.txt; decide a.txt out from under it.
	first := it.items[0]
	if err := it.RecordDecision(first, models.ActionLeft, ""); err != nil {
		t.Fatalf("RecordDecision error: %v", err)
	}
	cur, _ := it.Current()
	if cur.Name != "c.txt" {
		t.Errorf("cursor should stay on c.txt, got %s", cur.Name)
	}
}

func TestCursorPersistsAcrossRestart(t *testing.T) {
	dir, store := newFixture(t, "a.txt", "b.txt", "c.txt")
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := it.Next(); err != nil {
		t.Fatalf("Next error: %v", err)
	}
	want, _ := it.Current()

	// Simulate close and reopen with the same files present.
	reopened, err := storage.Open(store.Path())
	if err != nil {
		t.Fatalf("reopen store error: %v", err)
	}
	it2, err := New(dir, reopened)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	got, ok := it2.Current()
	if !ok {
		t.Fatal("expected a current item after resume")
	}
	if got.Path != want.Path {
		t.Errorf("resumed at %s, want %s", got.Path, want.Path)
	}
}

func TestCursorOutOfRangeDegradesToZero(t *testing.T) {
	dir, store := newFixture(t, "a.txt", "b.txt")
	if err := store.SaveCursor([]string{"/old/1", "/old/2", "/old/3", "/old/4", "/old/5"}, 4); err != nil {
		t.Fatalf("SaveCursor error: %v", err)
	}
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if it.Index() != 0 {
		t.Errorf("Index = %d, want 0 when saved index is out of range", it.Index())
	}
	cur, _ := it.Current()
	if cur.Name != "a.txt" {
		t.Errorf("current = %s, want a.txt", cur.Name)
	}
}

func TestNavigationClampsNoWraparound(t *testing.T) {
	dir, store := newFixture(t, "a.txt", "b.txt")
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := it.Prev(); err != nil {
		t.Fatalf("Prev error: %v", err)
	}
	if it.Index() != 0 {
		t.Error("Prev at start should clamp to 0")
	}
	for i := 0; i < 5; i++ {
		if err := it.Next(); err != nil {
			t.Fatalf("Next error: %v", err)
		}
	}
	if it.Index() != 1 {
		t.Errorf("Next past end should clamp to last index, got %d", it.Index())
	}
}

func TestRefreshPicksUpNewFile(t *testing.T) {
	dir, store := newFixture(t)
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !it.Exhausted() {
		t.Fatal("expected empty iterator")
	}

	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("setup write error: %v", err)
	}
	if err := it.Refresh(); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	cur, ok := it.Current()
	if !ok || cur.Name != "new.txt" || it.Index() != 0 {
		t.Errorf("expected new.txt at index 0, got %+v (index %d)", cur, it.Index())
	}
}

func TestRefreshPreservesCurrentByPath(t *testing.T) {
	dir, store := newFixture(t, "b.txt", "c.txt")
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := it.Next(); err != nil {
		t.Fatalf("Next error: %v", err)
	}
	// A new file sorts ahead of the current one.
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("setup write error: %v", err)
	}
	if err := it.Refresh(); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	cur, _ := it.Current()
	if cur.Name != "c.txt" {
		t.Errorf("refresh should keep the cursor on c.txt, got %s", cur.Name)
	}
}

func TestResetPersists(t *testing.T) {
	dir, store := newFixture(t, "a.txt", "b.txt", "c.txt")
	it, err := New(dir, store)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := it.Next(); err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if err := it.Reset(); err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if it.Index() != 0 {
		t.Error("Reset should move to index 0")
	}
	if store.Cursor().CurrentIndex != 0 {
		t.Error("Reset should persist the cursor")
	}
}
