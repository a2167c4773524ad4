package hints

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Hints are the filenames of the last session that reached the AR screen.
// They are display-only; nothing depends on them for correctness.
type Hints struct {
	MindFileName  string    `yaml:"mindfilename"`
	ImageFileName string    `yaml:"imagefilename"`
	ModelFileName string    `yaml:"modelfilename,omitempty"`
	UpdatedAt     time.Time `yaml:"updatedat"`
}

// Empty reports whether there is a previous session to show
func (h Hints) Empty() bool {
	return h.MindFileName == "" || h.ImageFileName == ""
}

// Message is the initial status line shown when a previous session exists
func (h Hints) Message() string {
	if h.Empty() {
		return ""
	}
	return fmt.Sprintf("Previous session: %s + %s. Upload new files or go back to AR.", h.MindFileName, h.ImageFileName)
}

// Store persists hints to a YAML file. An empty path keeps them in memory only.
type Store struct {
	path    string
	current Hints
	mu      sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the hints file. A missing file yields empty hints.
func (s *Store) Load() (Hints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return s.current, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Hints{}, nil
		}
		return Hints{}, fmt.Errorf("failed to read hints file: %w", err)
	}

	var h Hints
	if err := yaml.Unmarshal(data, &h); err != nil {
		return Hints{}, fmt.Errorf("failed to parse hints file: %w", err)
	}
	s.current = h
	return h, nil
}

// Save writes the hints, stamping UpdatedAt
func (s *Store) Save(h Hints) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.UpdatedAt = time.Now().UTC()
	s.current = h
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(&h)
	if err != nil {
		return fmt.Errorf("failed to marshal hints: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create hints directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write hints file: %w", err)
	}
	return nil
}
