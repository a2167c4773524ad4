package assets

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
	"github.com/lehigh-university-libraries/arviewer/internal/storage"
)

type slot struct {
	file   *models.File
	handle string
}

// Store holds at most one file per slot together with its live resource handle
type Store struct {
	handles *storage.HandleStore
	slots   map[models.SlotKind]*slot
	mu      sync.Mutex
}

func NewStore(handles *storage.HandleStore) *Store {
	if handles == nil {
		handles = storage.New()
	}
	s := &Store{
		handles: handles,
		slots:   make(map[models.SlotKind]*slot, len(models.SlotKinds)),
	}
	for _, kind := range models.SlotKinds {
		s.slots[kind] = &slot{}
	}
	return s
}

// Handles exposes the registry backing the store
func (s *Store) Handles() *storage.HandleStore {
	return s.handles
}

// Set stores f in the slot and derives a fresh handle for it. A nil file clears the slot.
// The previous handle is released before the new one is created.
func (s *Store) Set(kind models.SlotKind, f *models.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slot(kind)
	s.release(kind, sl)
	if f == nil {
		sl.file = nil
		return
	}
	stored := *f
	sl.file = &stored
	sl.handle = s.handles.Create(stored.Name, stored.MIMEType, stored.Data)
	slog.Debug("Slot handle created", "slot", kind, "name", stored.Name, "handle", sl.handle)
}

// Clear releases the slot's handle and drops its file
func (s *Store) Clear(kind models.SlotKind) {
	s.Set(kind, nil)
}

// File returns a copy of the slot's file
func (s *Store) File(kind models.SlotKind) (models.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slot(kind)
	if sl.file == nil {
		return models.File{}, false
	}
	return *sl.file, true
}

// Handle returns the slot's live handle or "" if none
func (s *Store) Handle(kind models.SlotKind) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot(kind).handle
}

// EnsureHandle returns the slot's handle, deriving it from the stored file if it was released
func (s *Store) EnsureHandle(kind models.SlotKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slot(kind)
	if sl.file == nil {
		return "", fmt.Errorf("no %s loaded", kind.Label())
	}
	if sl.handle != "" {
		if _, ok := s.handles.Get(sl.handle); ok {
			return sl.handle, nil
		}
	}
	sl.handle = s.handles.Create(sl.file.Name, sl.file.MIMEType, sl.file.Data)
	slog.Debug("Slot handle re-derived", "slot", kind, "handle", sl.handle)
	return sl.handle, nil
}

// ReleaseHandle revokes the slot's handle but keeps its file
func (s *Store) ReleaseHandle(kind models.SlotKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(kind, s.slot(kind))
}

// ReleaseAll revokes every slot handle. Files are kept.
func (s *Store) ReleaseAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, kind := range models.SlotKinds {
		sl := s.slots[kind]
		if sl.handle != "" {
			s.release(kind, sl)
			n++
		}
	}
	return n
}

// Ready reports whether every required slot holds a non-empty file
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range models.SlotKinds {
		if !kind.Required() {
			continue
		}
		sl := s.slots[kind]
		if sl.file == nil || len(sl.file.Data) == 0 {
			return false
		}
	}
	return true
}

// Missing lists the required slots that are still empty
func (s *Store) Missing() []models.SlotKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []models.SlotKind
	for _, kind := range models.SlotKinds {
		if kind.Required() && s.slots[kind].file == nil {
			missing = append(missing, kind)
		}
	}
	return missing
}

func (s *Store) slot(kind models.SlotKind) *slot {
	sl, ok := s.slots[kind]
	if !ok {
		// unknown kinds get an empty slot so callers never see nil
		sl = &slot{}
		s.slots[kind] = sl
	}
	return sl
}

func (s *Store) release(kind models.SlotKind, sl *slot) {
	if sl.handle == "" {
		return
	}
	s.handles.Release(sl.handle)
	slog.Debug("Slot handle released", "slot", kind, "handle", sl.handle)
	sl.handle = ""
}
