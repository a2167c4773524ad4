package storage

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HandlePrefix is the path under which live handles are served
const HandlePrefix = "/blob/"

// Blob is the in-memory payload behind a resource handle
type Blob struct {
	ID        string
	Name      string
	MIMEType  string
	Data      []byte
	CreatedAt time.Time
}

// HandleStore keeps ephemeral, revocable handles to file data.
// A handle is valid from Create until Release; after that lookups fail.
type HandleStore struct {
	blobs    map[string]*Blob
	released int
	mu       sync.RWMutex
}

func New() *HandleStore {
	return &HandleStore{
		blobs: make(map[string]*Blob),
	}
}

// Create registers data and returns its handle URI
func (s *HandleStore) Create(name, mimeType string, data []byte) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = &Blob{
		ID:        id,
		Name:      name,
		MIMEType:  mimeType,
		Data:      data,
		CreatedAt: time.Now(),
	}
	return HandlePrefix + id
}

// Get resolves a handle URI or bare id
func (s *HandleStore) Get(handle string) (*Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, exists := s.blobs[IDFromURI(handle)]
	return blob, exists
}

// Release revokes a handle. It reports false if the handle was not live.
func (s *HandleStore) Release(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := IDFromURI(handle)
	if _, exists := s.blobs[id]; !exists {
		return false
	}
	delete(s.blobs, id)
	s.released++
	return true
}

// Live returns the number of handles not yet released
func (s *HandleStore) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Released returns the number of handles released over the store's lifetime
func (s *HandleStore) Released() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.released
}

func IDFromURI(handle string) string {
	return strings.TrimPrefix(handle, HandlePrefix)
}
