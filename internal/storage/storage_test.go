package storage

import (
	"strings"
	"testing"
)

func TestCreateAndGet(t *testing.T) {
	s := New()
	uri := s.Create("target.mind", "application/octet-stream", []byte("mind"))

	if !strings.HasPrefix(uri, HandlePrefix) {
		t.Fatalf("Expected handle to start with %s, got %s", HandlePrefix, uri)
	}

	blob, ok := s.Get(uri)
	if !ok {
		t.Fatal("Expected handle to resolve")
	}
	if blob.Name != "target.mind" || string(blob.Data) != "mind" {
		t.Errorf("Unexpected blob: %+v", blob)
	}

	if _, ok := s.Get(IDFromURI(uri)); !ok {
		t.Error("Expected bare id to resolve")
	}
}

func TestRelease(t *testing.T) {
	s := New()
	uri := s.Create("a.png", "image/png", []byte{1})

	if !s.Release(uri) {
		t.Fatal("Expected first release to succeed")
	}
	if s.Release(uri) {
		t.Error("Expected second release to report false")
	}
	if _, ok := s.Get(uri); ok {
		t.Error("Expected released handle to be gone")
	}
	if s.Live() != 0 || s.Released() != 1 {
		t.Errorf("Expected 0 live / 1 released, got %d / %d", s.Live(), s.Released())
	}
}

func TestHandlesAreUnique(t *testing.T) {
	s := New()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		uri := s.Create("x", "", nil)
		if seen[uri] {
			t.Fatalf("Duplicate handle %s", uri)
		}
		seen[uri] = true
	}
}
