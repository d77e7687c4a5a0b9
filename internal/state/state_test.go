package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStateStore(t *testing.T) {
	// Use temp directory for state
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)

	store, err := NewStateStore()
	if err != nil {
		t.Fatalf("NewStateStore failed: %v", err)
	}

	novelID := "0b5e7c1e-8f4b-4d5e-9a38-1c2d3e4f5a6b"

	// LastChapter returns 0 for unknown novel
	if pos := store.LastChapter(novelID); pos != 0 {
		t.Errorf("Expected 0 for unknown novel, got %d", pos)
	}

	// SetLastChapter/LastChapter roundtrip
	if err := store.SetLastChapter(novelID, 4); err != nil {
		t.Fatalf("SetLastChapter failed: %v", err)
	}
	if pos := store.LastChapter(novelID); pos != 4 {
		t.Errorf("Expected 4, got %d", pos)
	}

	// Clear removes entry
	if err := store.Clear(novelID); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if pos := store.LastChapter(novelID); pos != 0 {
		t.Errorf("Expected 0 after clear, got %d", pos)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "storyreader", stateFileName)); err != nil {
		t.Errorf("state file not written: %v", err)
	}
}

func TestFontSize(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if got := store.FontSize(); got != "" {
		t.Errorf("Expected no saved font size, got %q", got)
	}
	if err := store.SetFontSize("Small"); err != nil {
		t.Fatalf("SetFontSize failed: %v", err)
	}
	if got := store.FontSize(); got != "Small" {
		t.Errorf("Expected Small, got %q", got)
	}
}

func TestStateStorePersistence(t *testing.T) {
	tmpDir := t.TempDir()

	// Create store and set values
	store1, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store1.SetLastChapter("novel-a", 7)
	store1.SetFontSize("Medium")

	// Create new store instance - should load persisted data
	store2, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if pos := store2.LastChapter("novel-a"); pos != 7 {
		t.Errorf("Expected 7 from persisted state, got %d", pos)
	}
	if size := store2.FontSize(); size != "Medium" {
		t.Errorf("Expected Medium from persisted state, got %q", size)
	}
}

func TestCorruptStateIsIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, stateFileName), []byte("{not json"), 0644)

	store, err := Open(tmpDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if pos := store.LastChapter("x"); pos != 0 {
		t.Errorf("Expected 0 from corrupt state, got %d", pos)
	}
	// Writing still works after a corrupt load
	if err := store.SetLastChapter("x", 1); err != nil {
		t.Fatalf("SetLastChapter failed: %v", err)
	}
}
