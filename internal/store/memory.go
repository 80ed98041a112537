// Package store keeps the most recently published forecast sets.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/marine-forecast/internal/forecast"
)

var (
	// ErrNotFound is returned when nothing has been published for a selection.
	ErrNotFound = errors.New("no forecast published for selection")
)

// Entry is the latest published set for one selection.
type Entry struct {
	Selection forecast.Selection `json:"-"`
	Package   forecast.Package   `json:"package"`
	Cadence   forecast.Cadence   `json:"cadence"`
	Records   []forecast.Record  `json:"records"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// MemoryStore is a concurrency-safe store of the latest set per selection.
// Each save replaces the previous set; no history is kept.
type MemoryStore struct {
	mu sync.RWMutex

	data     map[forecast.Selection]Entry
	metadata *forecast.Metadata

	// entries older than maxAge are reported as missing; 0 disables.
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[forecast.Selection]Entry),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// SaveForecast replaces the set for sel.
func (s *MemoryStore) SaveForecast(sel forecast.Selection, records []forecast.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sel] = Entry{
		Selection: sel,
		Package:   sel.Package,
		Cadence:   sel.Cadence,
		Records:   records,
		UpdatedAt: s.now(),
	}
}

// SaveMetadata replaces the forecast location metadata.
func (s *MemoryStore) SaveMetadata(m forecast.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = &m
}

// Latest returns the set last saved for sel.
func (s *MemoryStore) Latest(sel forecast.Selection) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[sel]
	if !ok || s.stale(e.UpdatedAt) {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Metadata returns the last saved location metadata.
func (s *MemoryStore) Metadata() (forecast.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.metadata == nil {
		return forecast.Metadata{}, ErrNotFound
	}
	return *s.metadata, nil
}

// Clear drops everything.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[forecast.Selection]Entry)
	s.metadata = nil
}

func (s *MemoryStore) stale(t time.Time) bool {
	return s.maxAge > 0 && s.now().Sub(t) > s.maxAge
}
