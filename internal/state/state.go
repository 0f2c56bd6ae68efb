package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	Dir                 = ".serialid"
	StateFile           = "ids.json"
	CurrentStateVersion = "1"
)

// ClassState is the recorded id of one class.
type ClassState struct {
	// Class is the qualified name; the map key may be a file-scoped id.
	Class    string `json:"class,omitempty"`
	File     string `json:"file"`
	Language string `json:"language"`
	ID       int64  `json:"id"`
}

// State is a snapshot of computed ids, used to detect structural changes
// between runs.
type State struct {
	Version   string                `json:"version"`
	UpdatedAt time.Time             `json:"updated_at"`
	Files     map[string]string     `json:"files"` // path -> content hash
	Classes   map[string]ClassState `json:"classes"`
}

// Change is a difference between a snapshot and the current tree.
type Change struct {
	Class string `json:"class"`
	File  string `json:"file"`
	Kind  string `json:"kind"` // added | removed | changed
	Old   int64  `json:"old,omitempty"`
	New   int64  `json:"new,omitempty"`
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Version: CurrentStateVersion,
		Files:   make(map[string]string),
		Classes: make(map[string]ClassState),
	}
}

// Load reads the snapshot under rootPath. A missing file yields an empty
// state and exists=false.
func Load(rootPath string) (st *State, exists bool, err error) {
	path := filepath.Join(rootPath, Dir, StateFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewState(), false, nil
		}
		return nil, false, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, true, err
	}
	migrateState(&state)
	return &state, true, nil
}

// Save writes the snapshot under rootPath.
func (s *State) Save(rootPath string) error {
	migrateState(s)
	s.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Join(rootPath, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, StateFile), append(data, '\n'), 0o644)
}

// SetClass records the id of a class.
func (s *State) SetClass(name string, class ClassState) {
	s.Classes[name] = class
}

// SetFileHash updates the hash for a file
func (s *State) SetFileHash(file, hash string) {
	s.Files[file] = hash
}

// HasChanged returns true if the file hash differs from stored
func (s *State) HasChanged(file, currentHash string) bool {
	storedHash, ok := s.Files[file]
	if !ok {
		return true // New file
	}
	return storedHash != currentHash
}

// ChangedFiles returns files that have changed based on provided hashes
func (s *State) ChangedFiles(currentHashes map[string]string) []string {
	changed := make([]string, 0)
	for file, hash := range currentHashes {
		if s.HasChanged(file, hash) {
			changed = append(changed, file)
		}
	}
	sort.Strings(changed)
	return changed
}

// DeletedFiles returns files that no longer exist
func (s *State) DeletedFiles(currentHashes map[string]string) []string {
	deleted := make([]string, 0)
	for file := range s.Files {
		if _, ok := currentHashes[file]; !ok {
			deleted = append(deleted, file)
		}
	}
	sort.Strings(deleted)
	return deleted
}

// Diff compares the recorded ids with current, matching entries by key.
func (s *State) Diff(current map[string]ClassState) []Change {
	changes := make([]Change, 0)
	for key, now := range current {
		before, ok := s.Classes[key]
		switch {
		case !ok:
			changes = append(changes, Change{Class: now.name(key), File: now.File, Kind: "added", New: now.ID})
		case before.ID != now.ID:
			changes = append(changes, Change{Class: now.name(key), File: now.File, Kind: "changed", Old: before.ID, New: now.ID})
		}
	}
	for key, before := range s.Classes {
		if _, ok := current[key]; !ok {
			changes = append(changes, Change{Class: before.name(key), File: before.File, Kind: "removed", Old: before.ID})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].File != changes[j].File {
			return changes[i].File < changes[j].File
		}
		return changes[i].Class < changes[j].Class
	})
	return changes
}

func (c ClassState) name(key string) string {
	if c.Class != "" {
		return c.Class
	}
	return key
}

func migrateState(s *State) {
	if s.Files == nil {
		s.Files = make(map[string]string)
	}
	if s.Classes == nil {
		s.Classes = make(map[string]ClassState)
	}
	if s.Version == "" {
		s.Version = CurrentStateVersion
	}
}
