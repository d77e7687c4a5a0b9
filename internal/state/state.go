// Package state persists reader preferences between sessions.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const stateFileName = "preferences.json"

// NovelState stores the reading position for a single novel
type NovelState struct {
	Chapter int `json:"chapter"`
}

type document struct {
	FontSize string                `json:"font_size,omitempty"`
	Novels   map[string]NovelState `json:"novels"`
}

// StateStore manages persistent reader preferences
type StateStore struct {
	path string
	data document
	mu   sync.RWMutex
}

// NewStateStore creates or loads state from XDG_STATE_HOME/storyreader/
func NewStateStore() (*StateStore, error) {
	return Open(getStateDir())
}

// Open creates or loads state from dir.
func Open(dir string) (*StateStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &StateStore{
		path: filepath.Join(dir, stateFileName),
		data: document{Novels: make(map[string]NovelState)},
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = document{Novels: make(map[string]NovelState)}
	}
	if store.data.Novels == nil {
		store.data.Novels = make(map[string]NovelState)
	}
	return store, nil
}

// getStateDir returns XDG_STATE_HOME/storyreader or ~/.local/state/storyreader
func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "storyreader")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "storyreader")
}

// FontSize returns the saved font size name, or "" if none was saved
func (s *StateStore) FontSize() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.FontSize
}

// SetFontSize saves the font size name
func (s *StateStore) SetFontSize(size string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.FontSize = size
	return s.save()
}

// LastChapter returns the saved chapter index for a novel, or 0 if not found
func (s *StateStore) LastChapter(novelID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.data.Novels[novelID]; ok {
		return state.Chapter
	}
	return 0
}

// SetLastChapter saves the chapter index for a novel
func (s *StateStore) SetLastChapter(novelID string, chapter int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Novels[novelID] = NovelState{Chapter: chapter}
	return s.save()
}

// Clear removes the saved position for a novel
func (s *StateStore) Clear(novelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.Novels, novelID)
	return s.save()
}

func (s *StateStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *StateStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
