package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Store persists run state as JSON on disk, one directory per run.
type Store struct {
	baseDir string // defaults to ~/.crossfeed/runs
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// DefaultStore returns a Store at ~/.crossfeed/runs, creating the directory
// if needed.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".crossfeed", "runs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Store{baseDir: dir}, nil
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

func (s *Store) statePath(runID string) string {
	return filepath.Join(s.runDir(runID), "state.json")
}

// Save writes the run state to disk, creating the run directory on first
// save. Writes are atomic: temp file in the same directory, then rename.
func (s *Store) Save(st *State) error {
	if st.RunID == "" {
		return fmt.Errorf("state has no run id")
	}
	if err := os.MkdirAll(s.runDir(st.RunID), 0o755); err != nil {
		return fmt.Errorf("mkdir run dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')
	return writeAtomic(s.statePath(st.RunID), data)
}

// Get reads the state for a run.
func (s *Store) Get(runID string) (*State, error) {
	data, err := os.ReadFile(s.statePath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", runID, err)
	}
	return &st, nil
}

// List returns all stored runs, newest first, optionally filtered by
// status. Pass "" to return all runs. Broken entries are skipped.
func (s *Store) List(statusFilter Status) ([]State, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}

	var runs []State
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		st, err := s.Get(entry.Name())
		if err != nil {
			continue
		}
		if statusFilter == "" || st.Status == statusFilter {
			runs = append(runs, *st)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt > runs[j].CreatedAt
	})
	return runs, nil
}

// Delete removes all data for a run.
func (s *Store) Delete(runID string) error {
	dir := s.runDir(runID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("run %s not found", runID)
	}
	return os.RemoveAll(dir)
}

// writeAtomic writes data via a temp file in the target directory plus a
// rename, so a crash never leaves a half-written state file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpName, path, err)
	}
	tmpName = ""
	return nil
}
