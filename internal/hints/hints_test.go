package hints

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "hints.yaml"))
	h, err := s.Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !h.Empty() {
		t.Errorf("Expected empty hints, got %+v", h)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "hints.yaml")
	s := New(path)

	if err := s.Save(Hints{MindFileName: "target.mind", ImageFileName: "photo.png", ModelFileName: "figure.glb"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	h, err := New(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if h.MindFileName != "target.mind" || h.ImageFileName != "photo.png" || h.ModelFileName != "figure.glb" {
		t.Errorf("Unexpected hints: %+v", h)
	}
	if h.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hints.yaml")
	if err := os.WriteFile(path, []byte("mindfilename: [unterminated"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := New(path).Load(); err == nil {
		t.Error("Expected parse error")
	}
}

func TestInMemoryStore(t *testing.T) {
	s := New("")
	if err := s.Save(Hints{MindFileName: "a.mind", ImageFileName: "b.png"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	h, _ := s.Load()
	if h.MindFileName != "a.mind" {
		t.Errorf("Expected in-memory hints to persist, got %+v", h)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name     string
		hints    Hints
		expected string
	}{
		{
			name:     "both names",
			hints:    Hints{MindFileName: "target.mind", ImageFileName: "photo.png"},
			expected: "Previous session: target.mind + photo.png. Upload new files or go back to AR.",
		},
		{
			name:     "missing image",
			hints:    Hints{MindFileName: "target.mind"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hints.Message(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
