package artifact

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// DefaultCacheSize bounds the number of stage outputs kept per base image.
const DefaultCacheSize = 32

// Key identifies a stage output: the artifact it was computed from, the
// stage name and the stage's parameters.
type Key struct {
	Input  string
	Stage  string
	Params string
}

// Store holds the base image, every cached stage output derived from it,
// and the image currently displayed. The displayed image is only ever
// replaced as a whole.
type Store struct {
	mu    sync.RWMutex
	base  *Image
	cache map[Key]*Image
	order []Key
	limit int

	displayed atomic.Pointer[Image]
}

// NewStore returns an empty store keeping at most limit stage outputs.
// A non-positive limit selects DefaultCacheSize.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultCacheSize
	}
	return &Store{cache: make(map[Key]*Image), limit: limit}
}

// Load replaces the base image, drops every cached output and displays
// the new base.
func (s *Store) Load(img *Image) {
	s.mu.Lock()
	s.base = img
	s.cache = make(map[Key]*Image)
	s.order = nil
	s.mu.Unlock()
	s.displayed.Store(img)
	if img != nil {
		logrus.WithFields(logrus.Fields{
			"artifact": img.ID,
			"width":    img.Width,
			"height":   img.Height,
		}).Debug("Loaded base image")
	}
}

// Base returns the session's original image.
func (s *Store) Base() *Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

// Displayed returns the image currently shown.
func (s *Store) Displayed() *Image {
	return s.displayed.Load()
}

// SetDisplayed swaps the displayed image.
func (s *Store) SetDisplayed(img *Image) {
	s.displayed.Store(img)
}

// Cached looks up a stage output.
func (s *Store) Cached(k Key) (*Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.cache[k]
	return img, ok
}

// Put records a stage output, evicting the oldest entry when full, and
// returns the image now cached under k. An existing entry is kept so every
// reader of k sees the same artifact. Outputs computed from an image that
// is no longer part of the session's derivation tree are not cached.
func (s *Store) Put(k Key, img *Image) *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil || !s.derivedLocked(k.Input) {
		return img
	}
	if prev, ok := s.cache[k]; ok {
		return prev
	}
	s.order = append(s.order, k)
	s.cache[k] = img
	for len(s.order) > s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.cache, oldest)
	}
	return img
}

// Len reports the number of cached outputs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func (s *Store) derivedLocked(id string) bool {
	if id == s.base.ID {
		return true
	}
	for _, img := range s.cache {
		if img.ID == id {
			return true
		}
	}
	return false
}
