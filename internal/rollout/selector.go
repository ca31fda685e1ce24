package rollout

import (
	"crypto/md5"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Settings controls how work items are routed between the baseline and
// experimental generation paths.
type Settings struct {
	Enabled    bool
	Percentage int
	Seed       string
}

// Selector deterministically assigns work items to a path. The same item id
// and seed always land in the same bucket, so raising the percentage only
// ever adds items to the experimental cohort.
type Selector struct {
	mu       sync.RWMutex
	settings Settings
}

// NewSelector constructs a selector with the supplied settings.
func NewSelector(settings Settings) *Selector {
	return &Selector{settings: clampSettings(settings)}
}

// Update replaces the selector's settings.
func (s *Selector) Update(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = clampSettings(settings)
}

// Settings returns the current settings.
func (s *Selector) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// ShouldUseExperimental reports whether the item identified by id is routed
// to the experimental path. Items without an id are sampled randomly at the
// configured percentage.
func (s *Selector) ShouldUseExperimental(id string) bool {
	s.mu.RLock()
	settings := s.settings
	s.mu.RUnlock()

	if !settings.Enabled || settings.Percentage <= 0 {
		return false
	}
	if settings.Percentage >= 100 {
		return true
	}
	if id == "" {
		return rand.IntN(100) < settings.Percentage
	}
	return bucket(settings.Seed, id) < settings.Percentage
}

// bucket maps an item to 0..99 via the first four bytes of
// md5(seed + "_" + id).
func bucket(seed, id string) int {
	sum := md5.Sum([]byte(seed + "_" + id))
	return int(binary.BigEndian.Uint32(sum[:4]) % 100)
}

func clampSettings(settings Settings) Settings {
	if settings.Percentage < 0 {
		settings.Percentage = 0
	}
	if settings.Percentage > 100 {
		settings.Percentage = 100
	}
	return settings
}
